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

// Package config provides configuration management for the blobstore agent.
// config 包提供 blobstore agent 的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Environment variables / 环境变量
// 2. Configuration file / 配置文件
// 3. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath    = "/etc/appscale/blobstore-agent.yaml"
	DefaultInstallRoot   = "/opt/appscale"
	DefaultDatastoreHost = "localhost"
	DefaultDatastorePort = 4343
	DefaultMonitBin      = "monit"
	DefaultMonitConfDir  = "/etc/monit/conf.d"
	DefaultAPIAddr       = ":6108"
	DefaultSecretFile    = "/etc/appscale/secret.key"
	DefaultLogLevel      = "info"
	DefaultLogFile       = "/var/log/appscale/blobstore-agent.log"
	DefaultLogMaxSize    = 100 // MB
	DefaultLogMaxBackups = 3
	DefaultLogMaxAge     = 7 // days
)

// Config represents the blobstore agent configuration
// Config 表示 blobstore agent 配置
type Config struct {
	// Agent configuration / Agent 配置
	Agent AgentConfig `mapstructure:"agent"`

	// AppScale deployment configuration / AppScale 部署配置
	AppScale AppScaleConfig `mapstructure:"appscale"`

	// Datastore coordination endpoint / Datastore 协调端点
	Datastore DatastoreConfig `mapstructure:"datastore"`

	// Monit supervision facility configuration / Monit 监管设施配置
	Monit MonitConfig `mapstructure:"monit"`

	// Admin API configuration / 管理 API 配置
	API APIConfig `mapstructure:"api"`

	// Log configuration / 日志配置
	Log LogConfig `mapstructure:"log"`

	// Telemetry configuration / 遥测配置
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AgentConfig contains agent-specific configuration
// AgentConfig 包含 agent 特定配置
type AgentConfig struct {
	// ID is the unique identifier for this agent (auto-generated if empty)
	// ID 是此 agent 的唯一标识符（如果为空则自动生成）
	ID string `mapstructure:"id"`
}

// AppScaleConfig contains AppScale deployment settings
// AppScaleConfig 包含 AppScale 部署设置
type AppScaleConfig struct {
	// Home is the AppScale installation root directory.
	// The APPSCALE_HOME environment variable seeds the default.
	// Home 是 AppScale 安装根目录。APPSCALE_HOME 环境变量提供默认值。
	Home string `mapstructure:"home"`
}

// DatastoreConfig contains the default coordination endpoint the blobstore
// server connects to at startup
// DatastoreConfig 包含 blobstore 服务器启动时连接的默认协调端点
type DatastoreConfig struct {
	// Host is the datastore endpoint host / Host 是 datastore 端点主机
	Host string `mapstructure:"host"`

	// Port is the datastore endpoint port / Port 是 datastore 端点端口
	Port int `mapstructure:"port"`
}

// MonitConfig contains settings for the monit control interface
// MonitConfig 包含 monit 控制接口的设置
type MonitConfig struct {
	// Bin is the monit binary invoked for control operations
	// Bin 是用于控制操作的 monit 二进制文件
	Bin string `mapstructure:"bin"`

	// ConfDir is the directory watch configuration files are written to
	// ConfDir 是写入 watch 配置文件的目录
	ConfDir string `mapstructure:"conf_dir"`
}

// APIConfig contains admin API settings
// APIConfig 包含管理 API 设置
type APIConfig struct {
	// Enabled indicates whether the admin API is served
	// Enabled 表示是否提供管理 API
	Enabled bool `mapstructure:"enabled"`

	// Addr is the listen address for the admin API
	// Addr 是管理 API 的监听地址
	Addr string `mapstructure:"addr"`

	// SecretFile is the path to the deployment secret used to authenticate
	// admin API requests
	// SecretFile 是用于认证管理 API 请求的部署密钥文件路径
	SecretFile string `mapstructure:"secret_file"`
}

// LogConfig contains logging settings
// LogConfig 包含日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level"`

	// File is the log file path
	// File 是日志文件路径
	File string `mapstructure:"file"`

	// MaxSize is the maximum size of log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age"`
}

// TelemetryConfig contains tracing settings
// TelemetryConfig 包含追踪设置
type TelemetryConfig struct {
	// Enabled indicates whether OpenTelemetry tracing is enabled
	// Enabled 表示是否启用 OpenTelemetry 追踪
	Enabled bool `mapstructure:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint
	// Endpoint 是 OTLP gRPC 采集器端点
	Endpoint string `mapstructure:"endpoint"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Check environment variable / 检查环境变量
		envPath := os.Getenv("BLOBSTORE_AGENT_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("APPSCALE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error if we have defaults
		// 如果有默认值，配置文件未找到不是错误
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			// Check if file exists / 检查文件是否存在
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, use defaults / 文件不存在，使用默认值
		}
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Auto-generate agent ID when empty / 为空时自动生成 agent ID
	if cfg.Agent.ID == "" {
		cfg.Agent.ID = uuid.NewString()
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Agent defaults / Agent 默认值
	v.SetDefault("agent.id", "")

	// AppScale defaults. APPSCALE_HOME keeps its historical meaning as the
	// installation root, so it seeds the default directly.
	// AppScale 默认值。APPSCALE_HOME 保留其安装根目录的历史含义，
	// 因此它直接作为默认值来源。
	if home := os.Getenv("APPSCALE_HOME"); home != "" {
		v.SetDefault("appscale.home", home)
	} else {
		v.SetDefault("appscale.home", DefaultInstallRoot)
	}

	// Datastore defaults / Datastore 默认值
	v.SetDefault("datastore.host", DefaultDatastoreHost)
	v.SetDefault("datastore.port", DefaultDatastorePort)

	// Monit defaults / Monit 默认值
	v.SetDefault("monit.bin", DefaultMonitBin)
	v.SetDefault("monit.conf_dir", DefaultMonitConfDir)

	// API defaults / API 默认值
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.addr", DefaultAPIAddr)
	v.SetDefault("api.secret_file", DefaultSecretFile)

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)

	// Telemetry defaults / 遥测默认值
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "localhost:4317")
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	// Validate installation root / 验证安装根目录
	if c.AppScale.Home == "" {
		return errors.New("appscale.home is required")
	}

	// Validate datastore endpoint / 验证 datastore 端点
	if c.Datastore.Host == "" {
		return errors.New("datastore.host is required")
	}
	if c.Datastore.Port <= 0 || c.Datastore.Port > 65535 {
		return fmt.Errorf("invalid datastore.port: %d", c.Datastore.Port)
	}

	// Validate monit settings / 验证 monit 设置
	if c.Monit.Bin == "" {
		return errors.New("monit.bin is required")
	}
	if c.Monit.ConfDir == "" {
		return errors.New("monit.conf_dir is required")
	}

	// Validate API settings / 验证 API 设置
	if c.API.Enabled && c.API.Addr == "" {
		return errors.New("api.addr is required when the admin API is enabled")
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	return nil
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Agent.ID: %s, AppScale.Home: %s, Datastore: %s:%d, API.Addr: %s, Log.Level: %s}",
		c.Agent.ID,
		c.AppScale.Home,
		c.Datastore.Host,
		c.Datastore.Port,
		c.API.Addr,
		c.Log.Level,
	)
}
