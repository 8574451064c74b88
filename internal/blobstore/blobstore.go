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

// Package blobstore provides lifecycle management for the blobstore server.
// blobstore 包提供 blobstore 服务器的生命周期管理功能。
//
// This package provides:
// 此包提供：
// - Start, Stop, Restart methods / 启动、停止、重启方法
// - Running-status queries / 运行状态查询
// - Start/stop command construction / 启动/停止命令构建
//
// Actual supervision (restart on crash, PID tracking, health polling) is
// delegated to an external process supervisor; this package only assembles the
// command lines and issues control calls.
// 实际的监管（崩溃重启、PID 跟踪、健康轮询）委托给外部进程监管器；
// 此包只负责组装命令行并发出控制调用。
package blobstore

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/austinsdoe/appscale/internal/logger"
)

const (
	// ServerPort is the fixed port the blobstore server binds to
	// ServerPort 是 blobstore 服务器绑定的固定端口
	ServerPort = 6107

	// ServiceName is the symbolic identifier the server is registered under
	// with the process supervisor
	// ServiceName 是服务器在进程监管器中注册的符号标识符
	ServiceName = "blobstore"

	// Interpreter runs the blobstore server and the stop helper
	// Interpreter 运行 blobstore 服务器和停止辅助脚本
	Interpreter = "/usr/bin/python2"

	// serverScript is the server entry script, relative to the install root
	// serverScript 是相对于安装根目录的服务器入口脚本
	serverScript = "AppDB/blobstore/blobstore_server.py"

	// stopHelperScript is the generic stop-service helper, relative to the
	// install root
	// stopHelperScript 是相对于安装根目录的通用停止服务辅助脚本
	stopHelperScript = "scripts/stop_service.py"
)

// ProcessSupervisor is the control interface of the external supervision
// facility. The production implementation talks to monit; tests inject an
// in-memory fake.
// ProcessSupervisor 是外部监管设施的控制接口。
// 生产实现与 monit 通信；测试注入内存假实现。
type ProcessSupervisor interface {
	// RegisterAndStart registers a process under name with its start and stop
	// command lines and starts supervising it
	// RegisterAndStart 用启动和停止命令行注册名为 name 的进程并开始监管
	RegisterAndStart(ctx context.Context, name, startCmd, stopCmd string, port int) error

	// Stop stops the supervised process registered under name
	// Stop 停止以 name 注册的受监管进程
	Stop(ctx context.Context, name string) error

	// IsRunning reports whether the process registered under name is running
	// IsRunning 报告以 name 注册的进程是否正在运行
	IsRunning(ctx context.Context, name string) (bool, error)
}

// Server manages the blobstore server lifecycle through a process supervisor
// Server 通过进程监管器管理 blobstore 服务器生命周期
type Server struct {
	// installRoot is the AppScale installation root directory
	// installRoot 是 AppScale 安装根目录
	installRoot string

	// supervisor is the external supervision facility
	// supervisor 是外部监管设施
	supervisor ProcessSupervisor
}

// NewServer creates a new Server instance
// NewServer 创建一个新的 Server 实例
func NewServer(installRoot string, supervisor ProcessSupervisor) *Server {
	return &Server{
		installRoot: installRoot,
		supervisor:  supervisor,
	}
}

// ScriptLocation returns the absolute path of the blobstore server entry
// script under the installation root
// ScriptLocation 返回安装根目录下 blobstore 服务器入口脚本的绝对路径
func (s *Server) ScriptLocation() string {
	return filepath.Join(s.installRoot, serverScript)
}

// StopHelperLocation returns the absolute path of the stop-service helper
// script under the installation root
// StopHelperLocation 返回安装根目录下停止服务辅助脚本的绝对路径
func (s *Server) StopHelperLocation() string {
	return filepath.Join(s.installRoot, stopHelperScript)
}

// StartCommand builds the command line that starts the blobstore server
// against the given datastore endpoint
// StartCommand 构建针对给定 datastore 端点启动 blobstore 服务器的命令行
func (s *Server) StartCommand(datastoreHost string, datastorePort int) string {
	return fmt.Sprintf("%s %s -d %s:%d -p %d",
		Interpreter, s.ScriptLocation(), datastoreHost, datastorePort, ServerPort)
}

// StopCommand builds the command line that stops the blobstore server via the
// generic stop-service helper
// StopCommand 构建通过通用停止服务辅助脚本停止 blobstore 服务器的命令行
func (s *Server) StopCommand() string {
	return fmt.Sprintf("%s %s %s %s",
		Interpreter, s.StopHelperLocation(), s.ScriptLocation(), Interpreter)
}

// Start registers the blobstore server with the supervisor and starts it.
// Supervisor failures propagate unmodified; a failed launch is otherwise only
// observable through a later IsRunning query.
// Start 向监管器注册 blobstore 服务器并启动它。
// 监管器的失败原样传播；启动失败在其它情况下只能通过之后的 IsRunning 查询观察到。
func (s *Server) Start(ctx context.Context, datastoreHost string, datastorePort int) error {
	startCmd := s.StartCommand(datastoreHost, datastorePort)
	stopCmd := s.StopCommand()
	return s.supervisor.RegisterAndStart(ctx, ServiceName, startCmd, stopCmd, ServerPort)
}

// Stop stops the supervised blobstore server
// Stop 停止受监管的 blobstore 服务器
func (s *Server) Stop(ctx context.Context) error {
	return s.supervisor.Stop(ctx, ServiceName)
}

// Restart stops and then starts the blobstore server.
// Restart 先停止再启动 blobstore 服务器。
// Best effort: a failure to stop does not gate the start attempt.
// 尽力而为：停止失败不会阻止启动尝试。
func (s *Server) Restart(ctx context.Context, datastoreHost string, datastorePort int) error {
	_ = s.Stop(ctx)
	return s.Start(ctx, datastoreHost, datastorePort)
}

// IsRunning queries the supervisor for the running status of the blobstore
// server and returns the result verbatim. selfHost identifies the queried node
// in diagnostics only; it does not affect the delegated call.
// IsRunning 向监管器查询 blobstore 服务器的运行状态并原样返回结果。
// selfHost 只用于诊断标识被查询的节点；不影响委托调用。
func (s *Server) IsRunning(ctx context.Context, selfHost string) (bool, error) {
	running, err := s.supervisor.IsRunning(ctx, ServiceName)
	logger.DebugF(ctx, "[Blobstore] Status on %s: running=%v / %s 上的状态：running=%v",
		selfHost, running, selfHost, running)
	return running, err
}
