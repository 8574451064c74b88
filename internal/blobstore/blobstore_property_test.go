/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package blobstore

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genHost generates valid datastore hosts (IPv4 addresses or hostnames)
// genHost 生成有效的 datastore 主机（IPv4 地址或主机名）
func genHost() gopter.Gen {
	ipv4 := gopter.CombineGens(
		gen.IntRange(1, 255),
		gen.IntRange(0, 255),
		gen.IntRange(0, 255),
		gen.IntRange(1, 254),
	).Map(func(vals []interface{}) string {
		return fmt.Sprintf("%d.%d.%d.%d",
			vals[0].(int), vals[1].(int), vals[2].(int), vals[3].(int))
	})
	hostname := gen.RegexMatch("[a-z][a-z0-9-]{0,20}")
	return gen.OneGenOf(ipv4, hostname)
}

// genPort generates valid port numbers
// genPort 生成有效的端口号
func genPort() gopter.Gen {
	return gen.IntRange(1, 65535)
}

// genInstallRoot generates clean absolute installation roots
// genInstallRoot 生成干净的绝对安装根目录
func genInstallRoot() gopter.Gen {
	return gen.RegexMatch("[a-z][a-z0-9]{0,10}").Map(func(s string) string {
		return "/" + s
	})
}

// Property: for any datastore host/port pair, the start command carries the
// coordination flag exactly as -d <host>:<port> and the fixed port flag
// exactly as -p 6107.
// 属性：对于任何 datastore 主机/端口对，启动命令的协调标志恰好为
// -d <host>:<port>，固定端口标志恰好为 -p 6107。
func TestProperty_StartCommandFlags(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("start command carries exact coordination and port flags",
		prop.ForAll(
			func(root, host string, port int) bool {
				fake := &fakeSupervisor{}
				server := NewServer(root, fake)
				if err := server.Start(context.Background(), host, port); err != nil {
					return false
				}
				return strings.Contains(fake.startCmd, fmt.Sprintf(" -d %s:%d ", host, port)) &&
					strings.HasSuffix(fake.startCmd, fmt.Sprintf(" -p %d", ServerPort)) &&
					strings.HasPrefix(fake.startCmd, Interpreter+" ")
			},
			genInstallRoot(),
			genHost(),
			genPort(),
		))

	properties.TestingRun(t)
}

// Property: the script location is the installation root concatenated with
// the fixed relative entry-script path, for any non-empty root.
// 属性：对于任何非空根目录，脚本位置是安装根目录与固定相对入口脚本路径的拼接。
func TestProperty_ScriptLocation(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("script location is root plus fixed relative path",
		prop.ForAll(
			func(root string) bool {
				server := NewServer(root, &fakeSupervisor{})
				return server.ScriptLocation() == root+"/AppDB/blobstore/blobstore_server.py"
			},
			genInstallRoot(),
		))

	properties.TestingRun(t)
}

// Property: the stop command names the stop helper, the computed script path,
// and the interpreter twice, in that order.
// 属性：停止命令按顺序包含停止辅助脚本、计算出的脚本路径，以及出现两次的解释器。
func TestProperty_StopCommandShape(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("stop command invokes the helper with script and interpreter",
		prop.ForAll(
			func(root, host string, port int) bool {
				fake := &fakeSupervisor{}
				server := NewServer(root, fake)
				if err := server.Start(context.Background(), host, port); err != nil {
					return false
				}
				want := fmt.Sprintf("%s %s %s %s",
					Interpreter, server.StopHelperLocation(), server.ScriptLocation(), Interpreter)
				return fake.stopCmd == want
			},
			genInstallRoot(),
			genHost(),
			genPort(),
		))

	properties.TestingRun(t)
}
