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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSupervisor is an in-memory ProcessSupervisor for tests
// fakeSupervisor 是用于测试的内存 ProcessSupervisor
type fakeSupervisor struct {
	calls []string

	name     string
	startCmd string
	stopCmd  string
	port     int

	running      bool
	registerErr  error
	stopErr      error
	isRunningErr error
}

func (f *fakeSupervisor) RegisterAndStart(_ context.Context, name, startCmd, stopCmd string, port int) error {
	f.calls = append(f.calls, "register-and-start")
	f.name = name
	f.startCmd = startCmd
	f.stopCmd = stopCmd
	f.port = port
	return f.registerErr
}

func (f *fakeSupervisor) Stop(_ context.Context, name string) error {
	f.calls = append(f.calls, "stop")
	f.name = name
	return f.stopErr
}

func (f *fakeSupervisor) IsRunning(_ context.Context, name string) (bool, error) {
	f.calls = append(f.calls, "is-running")
	f.name = name
	return f.running, f.isRunningErr
}

// TestStartBuildsCommands tests command construction and delegation
// TestStartBuildsCommands 测试命令构建与委托
func TestStartBuildsCommands(t *testing.T) {
	fake := &fakeSupervisor{}
	server := NewServer("/opt/appscale", fake)

	err := server.Start(context.Background(), "10.0.0.5", 4343)
	require.NoError(t, err)

	assert.Equal(t, []string{"register-and-start"}, fake.calls)
	assert.Equal(t, ServiceName, fake.name)
	assert.Equal(t, ServerPort, fake.port)

	assert.Equal(t,
		"/usr/bin/python2 /opt/appscale/AppDB/blobstore/blobstore_server.py -d 10.0.0.5:4343 -p 6107",
		fake.startCmd)
	assert.Equal(t,
		"/usr/bin/python2 /opt/appscale/scripts/stop_service.py /opt/appscale/AppDB/blobstore/blobstore_server.py /usr/bin/python2",
		fake.stopCmd)
}

// TestScriptLocation tests server script path computation
// TestScriptLocation 测试服务器脚本路径计算
func TestScriptLocation(t *testing.T) {
	server := NewServer("/opt/appscale", &fakeSupervisor{})
	assert.Equal(t, "/opt/appscale/AppDB/blobstore/blobstore_server.py", server.ScriptLocation())

	server = NewServer("/srv/deploy", &fakeSupervisor{})
	assert.Equal(t, "/srv/deploy/AppDB/blobstore/blobstore_server.py", server.ScriptLocation())
}

// TestStartPropagatesSupervisorError tests that supervisor failures pass
// through untranslated
// TestStartPropagatesSupervisorError 测试监管器失败原样传播
func TestStartPropagatesSupervisorError(t *testing.T) {
	wantErr := errors.New("monit unreachable")
	fake := &fakeSupervisor{registerErr: wantErr}
	server := NewServer("/opt/appscale", fake)

	err := server.Start(context.Background(), "10.0.0.5", 4343)
	assert.Same(t, wantErr, err)
}

// TestRestartHasNoFailureGate tests that restart always attempts the start
// even when the stop fails
// TestRestartHasNoFailureGate 测试即使停止失败，重启也总是尝试启动
func TestRestartHasNoFailureGate(t *testing.T) {
	fake := &fakeSupervisor{stopErr: errors.New("stop failed")}
	server := NewServer("/opt/appscale", fake)

	err := server.Restart(context.Background(), "10.0.0.5", 4343)
	require.NoError(t, err)

	// Stop exactly once, then start exactly once / 恰好一次停止，然后恰好一次启动
	assert.Equal(t, []string{"stop", "register-and-start"}, fake.calls)
}

// TestIsRunningReturnsFacilityResultVerbatim tests status pass-through
// TestIsRunningReturnsFacilityResultVerbatim 测试状态原样透传
func TestIsRunningReturnsFacilityResultVerbatim(t *testing.T) {
	fake := &fakeSupervisor{running: true}
	server := NewServer("/opt/appscale", fake)

	running, err := server.IsRunning(context.Background(), "node-1")
	require.NoError(t, err)
	assert.True(t, running)

	fake.running = false
	running, err = server.IsRunning(context.Background(), "node-1")
	require.NoError(t, err)
	assert.False(t, running)

	wantErr := errors.New("summary failed")
	fake.isRunningErr = wantErr
	_, err = server.IsRunning(context.Background(), "node-1")
	assert.Same(t, wantErr, err)
}

// TestOperationsShareIdentifier tests that start, stop, and status all use the
// same symbolic process identifier
// TestOperationsShareIdentifier 测试启动、停止和状态查询使用同一符号进程标识符
func TestOperationsShareIdentifier(t *testing.T) {
	ctx := context.Background()
	fake := &fakeSupervisor{}
	server := NewServer("/opt/appscale", fake)

	require.NoError(t, server.Start(ctx, "10.0.0.5", 4343))
	startName := fake.name

	require.NoError(t, server.Stop(ctx))
	stopName := fake.name

	_, err := server.IsRunning(ctx, "node-1")
	require.NoError(t, err)
	statusName := fake.name

	assert.Equal(t, startName, stopName)
	assert.Equal(t, stopName, statusName)
	assert.Equal(t, ServiceName, startName)
}
