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

// Package main is the entry point for the AppScale blobstore agent.
// main 包是 AppScale blobstore agent 的入口点。
//
// The agent is a daemon deployed on AppScale nodes that:
// agent 是部署在 AppScale 节点上的守护进程，负责：
// - Registers the blobstore server with monit / 向 monit 注册 blobstore 服务器
// - Serves a secret-authenticated HTTP admin API / 提供密钥认证的 HTTP 管理 API
// - Offers one-shot lifecycle subcommands for operators / 为运维提供一次性生命周期子命令
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/austinsdoe/appscale/internal/api"
	"github.com/austinsdoe/appscale/internal/blobstore"
	"github.com/austinsdoe/appscale/internal/config"
	"github.com/austinsdoe/appscale/internal/logger"
	"github.com/austinsdoe/appscale/internal/monit"
	"github.com/austinsdoe/appscale/internal/otel_trace"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// configFile is the path to the configuration file
// configFile 是配置文件的路径
var configFile string

// Datastore endpoint overrides for start and restart
// 启动和重启的 datastore 端点覆盖
var (
	datastoreHost string
	datastorePort int
)

// setup loads configuration and wires the lifecycle adapter
// setup 加载配置并装配生命周期适配器
func setup() (*config.Config, *blobstore.Server, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w / 加载配置失败：%w", err, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w / 无效配置：%w", err, err)
	}

	if err := logger.Init(cfg.Log); err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w / 初始化日志失败：%w", err, err)
	}

	supervisor := monit.NewClient(cfg.Monit)
	server := blobstore.NewServer(cfg.AppScale.Home, supervisor)
	return cfg, server, nil
}

// endpoint resolves the datastore endpoint from flags and configuration
// endpoint 从标志和配置解析 datastore 端点
func endpoint(cfg *config.Config) (string, int) {
	host := datastoreHost
	if host == "" {
		host = cfg.Datastore.Host
	}
	port := datastorePort
	if port == 0 {
		port = cfg.Datastore.Port
	}
	return host, port
}

// rootCmd runs the agent daemon
// rootCmd 运行 agent 守护进程
var rootCmd = &cobra.Command{
	Use:   "blobstore-agent",
	Short: "AppScale blobstore agent - node daemon for blobstore lifecycle management",
	Long: `The AppScale blobstore agent is a daemon deployed on AppScale nodes.
AppScale blobstore agent 是部署在 AppScale 节点上的守护进程。

It delegates blobstore server supervision to monit and exposes:
它将 blobstore 服务器的监管委托给 monit，并提供：
- A secret-authenticated HTTP admin API / 密钥认证的 HTTP 管理 API
- One-shot lifecycle subcommands / 一次性生命周期子命令`,
	RunE: runAgent,
}

// startCmd registers and starts the blobstore server, then exits
// startCmd 注册并启动 blobstore 服务器，然后退出
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Register and start the blobstore server under monit / 在 monit 下注册并启动 blobstore 服务器",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, server, err := setup()
		if err != nil {
			return err
		}

		host, port := endpoint(cfg)
		if err := server.Start(cmd.Context(), host, port); err != nil {
			return err
		}

		fmt.Printf("Started %s on port %d (datastore %s:%d) / 已启动 %s，端口 %d（datastore %s:%d）\n",
			blobstore.ServiceName, blobstore.ServerPort, host, port,
			blobstore.ServiceName, blobstore.ServerPort, host, port)
		return nil
	},
}

// stopCmd stops the blobstore server, then exits
// stopCmd 停止 blobstore 服务器，然后退出
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the blobstore server via monit / 通过 monit 停止 blobstore 服务器",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, server, err := setup()
		if err != nil {
			return err
		}

		if err := server.Stop(cmd.Context()); err != nil {
			return err
		}

		fmt.Printf("Stopped %s / 已停止 %s\n", blobstore.ServiceName, blobstore.ServiceName)
		return nil
	},
}

// restartCmd restarts the blobstore server, then exits
// restartCmd 重启 blobstore 服务器，然后退出
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the blobstore server via monit / 通过 monit 重启 blobstore 服务器",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, server, err := setup()
		if err != nil {
			return err
		}

		host, port := endpoint(cfg)
		if err := server.Restart(cmd.Context(), host, port); err != nil {
			return err
		}

		fmt.Printf("Restarted %s on port %d / 已重启 %s，端口 %d\n",
			blobstore.ServiceName, blobstore.ServerPort,
			blobstore.ServiceName, blobstore.ServerPort)
		return nil
	},
}

// statusCmd queries the blobstore server status, then exits
// statusCmd 查询 blobstore 服务器状态，然后退出
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the blobstore server is running / 报告 blobstore 服务器是否正在运行",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, server, err := setup()
		if err != nil {
			return err
		}

		hostname, _ := os.Hostname()
		running, err := server.IsRunning(cmd.Context(), hostname)
		if err != nil {
			return err
		}

		if running {
			fmt.Printf("%s is running / %s 正在运行\n", blobstore.ServiceName, blobstore.ServiceName)
		} else {
			fmt.Printf("%s is not running / %s 未运行\n", blobstore.ServiceName, blobstore.ServiceName)
		}
		return nil
	},
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("AppScale Blobstore Agent\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (default: /etc/appscale/blobstore-agent.yaml)")

	for _, cmd := range []*cobra.Command{startCmd, restartCmd} {
		cmd.Flags().StringVar(&datastoreHost, "datastore-host", "",
			"datastore server host (default: from config)")
		cmd.Flags().IntVar(&datastorePort, "datastore-port", 0,
			"datastore server port (default: from config)")
	}

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

// runAgent runs the agent daemon until a shutdown signal arrives
// runAgent 运行 agent 守护进程，直到收到关闭信号
func runAgent(cmd *cobra.Command, args []string) error {
	cfg, server, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	fmt.Println("========================================")
	fmt.Println("  AppScale Blobstore Agent Starting...")
	fmt.Println("  AppScale Blobstore Agent 正在启动...")
	fmt.Println("========================================")
	fmt.Printf("Version: %s, Commit: %s, Build: %s\n", Version, GitCommit, BuildTime)
	fmt.Printf("Agent ID: %s\n", cfg.Agent.ID)
	fmt.Printf("AppScale Home: %s\n", cfg.AppScale.Home)
	fmt.Printf("Datastore: %s:%d\n", cfg.Datastore.Host, cfg.Datastore.Port)
	fmt.Printf("Log Level: %s\n", cfg.Log.Level)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Tracing is optional and falls back to noop on failure
	// 链路追踪是可选的，失败时回退到空操作
	otel_trace.Init(cfg.Telemetry)
	defer otel_trace.Shutdown(context.Background())

	if !cfg.API.Enabled {
		fmt.Println("Admin API disabled, nothing to serve / 管理 API 已禁用，无可服务内容")
		return nil
	}

	apiServer := api.NewServer(cfg, server)

	// Serve until a shutdown signal arrives / 服务直到收到关闭信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	errChan := make(chan error, 1)
	go func() {
		errChan <- apiServer.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v / 收到信号：%v\n", sig, sig)
		cancel()
		return <-errChan
	case err := <-errChan:
		return err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
