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

// Package monit provides a client for the monit process-supervision daemon.
// monit 包提供 monit 进程监管守护进程的客户端。
//
// Registration writes a watch configuration file into monit's conf.d
// directory; all control operations shell out to the monit CLI. Restart
// policy, crash detection, and health polling are monit's responsibility.
// 注册时会将 watch 配置文件写入 monit 的 conf.d 目录；所有控制操作通过
// monit CLI 执行。重启策略、崩溃检测和健康轮询由 monit 负责。
package monit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/austinsdoe/appscale/internal/config"
	"github.com/austinsdoe/appscale/internal/logger"
)

// Common errors for monit control operations
// monit 控制操作的常见错误
var (
	// ErrRegisterFailed indicates the watch could not be registered or started
	// ErrRegisterFailed 表示 watch 无法注册或启动
	ErrRegisterFailed = errors.New("monit register-and-start failed")

	// ErrStopFailed indicates the watch could not be stopped
	// ErrStopFailed 表示 watch 无法停止
	ErrStopFailed = errors.New("monit stop failed")

	// ErrSummaryFailed indicates the status query failed
	// ErrSummaryFailed 表示状态查询失败
	ErrSummaryFailed = errors.New("monit summary failed")
)

// CommandRunner executes a shell command line and returns its output.
// Injectable so tests can substitute the monit CLI.
// CommandRunner 执行 shell 命令行并返回其输出。可注入，便于测试替换 monit CLI。
type CommandRunner func(ctx context.Context, command string) ([]byte, error)

// defaultRunner runs commands through /bin/bash -c
// defaultRunner 通过 /bin/bash -c 运行命令
func defaultRunner(ctx context.Context, command string) ([]byte, error) {
	return exec.CommandContext(ctx, "/bin/bash", "-c", command).Output()
}

// Client is the monit-backed process supervisor
// Client 是基于 monit 的进程监管器
type Client struct {
	// bin is the monit binary / bin 是 monit 二进制文件
	bin string

	// confDir is monit's watch configuration directory
	// confDir 是 monit 的 watch 配置目录
	confDir string

	// runner executes monit CLI commands / runner 执行 monit CLI 命令
	runner CommandRunner
}

// NewClient creates a new monit client
// NewClient 创建一个新的 monit 客户端
func NewClient(cfg config.MonitConfig) *Client {
	return &Client{
		bin:     cfg.Bin,
		confDir: cfg.ConfDir,
		runner:  defaultRunner,
	}
}

// SetRunner replaces the command runner (used by tests)
// SetRunner 替换命令执行器（测试使用）
func (c *Client) SetRunner(runner CommandRunner) {
	c.runner = runner
}

// RegisterAndStart writes the watch configuration for name, reloads monit,
// and starts the watch group
// RegisterAndStart 为 name 写入 watch 配置，重载 monit 并启动 watch 组
func (c *Client) RegisterAndStart(ctx context.Context, name, startCmd, stopCmd string, port int) error {
	// Render the watch stanza / 渲染 watch 配置段
	stanza := renderWatch(name, startCmd, stopCmd, port)
	confPath := filepath.Join(c.confDir, fmt.Sprintf("appscale-%s-%d.cfg", name, port))
	if err := os.WriteFile(confPath, []byte(stanza), 0644); err != nil {
		return fmt.Errorf("%w: write watch config: %v", ErrRegisterFailed, err)
	}

	// Reload so monit picks up the new watch / 重载使 monit 加载新的 watch
	if _, err := c.runner(ctx, fmt.Sprintf("%s reload", c.bin)); err != nil {
		return fmt.Errorf("%w: reload: %v", ErrRegisterFailed, err)
	}

	// Start the watch group / 启动 watch 组
	if _, err := c.runner(ctx, fmt.Sprintf("%s start -g %s", c.bin, name)); err != nil {
		return fmt.Errorf("%w: start group %s: %v", ErrRegisterFailed, name, err)
	}

	logger.InfoF(ctx, "[Monit] Registered and started watch %s on port %d / 已注册并启动 watch %s，端口 %d",
		name, port, name, port)
	return nil
}

// Stop stops the watch group for name
// Stop 停止 name 的 watch 组
func (c *Client) Stop(ctx context.Context, name string) error {
	if _, err := c.runner(ctx, fmt.Sprintf("%s stop -g %s", c.bin, name)); err != nil {
		return fmt.Errorf("%w: stop group %s: %v", ErrStopFailed, name, err)
	}

	logger.InfoF(ctx, "[Monit] Stopped watch %s / 已停止 watch %s", name, name)
	return nil
}

// IsRunning reports whether the watch for name is running according to
// monit's summary output
// IsRunning 根据 monit 的 summary 输出报告 name 的 watch 是否正在运行
func (c *Client) IsRunning(ctx context.Context, name string) (bool, error) {
	out, err := c.runner(ctx, fmt.Sprintf("%s summary", c.bin))
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSummaryFailed, err)
	}
	return summaryReportsRunning(string(out), name), nil
}

// summaryReportsRunning parses monit summary output for the watch status.
// A watch that is absent from the summary counts as not running.
// summaryReportsRunning 解析 monit summary 输出中的 watch 状态。
// summary 中不存在的 watch 视为未运行。
func summaryReportsRunning(summary, name string) bool {
	for _, line := range strings.Split(summary, "\n") {
		if !strings.Contains(line, "'"+name) {
			continue
		}
		// Starting watches report as Initializing / 启动中的 watch 报告为 Initializing
		if strings.Contains(line, "Running") ||
			strings.Contains(line, "Initializing") ||
			strings.Contains(line, "Accessible") {
			return true
		}
		return false
	}
	return false
}

// renderWatch renders the monit watch stanza for a supervised process
// renderWatch 渲染受监管进程的 monit watch 配置段
func renderWatch(name, startCmd, stopCmd string, port int) string {
	return fmt.Sprintf(`check process %s-%d matching "%s"
  group %s
  start program = "/bin/bash -c '%s'"
  stop program = "/bin/bash -c '%s'"
`, name, port, startCmd, name, startCmd, stopCmd)
}
