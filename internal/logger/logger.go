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

// Package logger provides the process-wide logging facility for the agent.
// logger 包提供 agent 的进程级日志功能。
//
// Log lines are written to a rotated file (lumberjack) and to stderr, and are
// correlated with active trace spans through otelzap.
// 日志写入轮转文件（lumberjack）和标准错误输出，并通过 otelzap 与活动的追踪 span 关联。
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/austinsdoe/appscale/internal/config"
)

var (
	log *otelzap.Logger
	mu  sync.RWMutex
)

// Init initializes the logging facility from the log configuration.
// Init 从日志配置初始化日志功能。
func Init(cfg config.LogConfig) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	// File output with rotation / 带轮转的文件输出
	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), fileSink, level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(os.Stderr), level),
	)

	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	mu.Lock()
	defer mu.Unlock()
	log = otelzap.New(z, otelzap.WithMinLevel(level))
	return nil
}

// parseLevel maps a config log level to a zap level
// parseLevel 将配置日志级别映射为 zap 级别
func parseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// l returns the current logger, lazily falling back to a development logger
// so call sites stay safe before Init (tests, early startup).
// l 返回当前 logger，在 Init 之前（测试、早期启动）惰性回退到开发 logger。
func l() *otelzap.Logger {
	mu.RLock()
	if log != nil {
		defer mu.RUnlock()
		return log
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		z, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
		log = otelzap.New(z)
	}
	return log
}

// DebugF logs a formatted debug message correlated with ctx
// DebugF 记录与 ctx 关联的格式化调试消息
func DebugF(ctx context.Context, format string, args ...interface{}) {
	l().Ctx(ctx).Debug(fmt.Sprintf(format, args...))
}

// InfoF logs a formatted info message correlated with ctx
// InfoF 记录与 ctx 关联的格式化信息消息
func InfoF(ctx context.Context, format string, args ...interface{}) {
	l().Ctx(ctx).Info(fmt.Sprintf(format, args...))
}

// WarnF logs a formatted warning message correlated with ctx
// WarnF 记录与 ctx 关联的格式化警告消息
func WarnF(ctx context.Context, format string, args ...interface{}) {
	l().Ctx(ctx).Warn(fmt.Sprintf(format, args...))
}

// ErrorF logs a formatted error message correlated with ctx
// ErrorF 记录与 ctx 关联的格式化错误消息
func ErrorF(ctx context.Context, format string, args ...interface{}) {
	l().Ctx(ctx).Error(fmt.Sprintf(format, args...))
}

// Sync flushes buffered log entries
// Sync 刷新缓冲的日志条目
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if log != nil {
		_ = log.Sync()
	}
}
