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

// Package otel_trace provides OpenTelemetry tracing setup for the agent.
// otel_trace 包提供 agent 的 OpenTelemetry 追踪设置。
package otel_trace

import (
	"context"
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/austinsdoe/appscale/internal/config"
)

// ServiceName identifies this agent in exported traces
// ServiceName 在导出的追踪中标识此 agent
const ServiceName = "appscale-blobstore-agent"

var (
	Tracer        trace.Tracer
	shutdownFuncs []func(context.Context) error
	initialized   bool
	initOnce      sync.Once
	enabled       bool
)

// Init initializes OpenTelemetry tracing based on configuration.
// Init 根据配置初始化 OpenTelemetry 追踪。
// This should be called after config is loaded.
// 这应该在配置加载后调用。
func Init(cfg config.TelemetryConfig) {
	initOnce.Do(func() {
		// Check if telemetry is enabled in config
		// 检查配置中是否启用了遥测
		if !cfg.Enabled {
			log.Println("[Trace] OpenTelemetry tracing is disabled / OpenTelemetry 追踪已禁用")
			// Use noop tracer when disabled / 禁用时使用空操作追踪器
			Tracer = noop.NewTracerProvider().Tracer("noop")
			enabled = false
			initialized = true
			return
		}

		log.Println("[Trace] Initializing OpenTelemetry tracing... / 正在初始化 OpenTelemetry 追踪...")

		// 初始化 Propagator
		prop := newPropagator()
		otel.SetTextMapPropagator(prop)

		// 初始化 Trace Provider
		tracerProvider, err := newTracerProvider(cfg.Endpoint)
		if err != nil {
			log.Printf("[Trace] Failed to init trace provider, using noop tracer: %v / 初始化追踪提供者失败，使用空操作追踪器: %v", err, err)
			Tracer = noop.NewTracerProvider().Tracer("noop")
			enabled = false
			initialized = true
			return
		}

		shutdownFuncs = append(shutdownFuncs, tracerProvider.Shutdown)
		otel.SetTracerProvider(tracerProvider)

		// 初始化 Tracer
		Tracer = tracerProvider.Tracer("github.com/austinsdoe/appscale")
		enabled = true
		initialized = true
		log.Println("[Trace] OpenTelemetry tracing initialized / OpenTelemetry 追踪已初始化")
	})
}

// IsEnabled returns whether tracing is enabled.
// IsEnabled 返回追踪是否已启用。
func IsEnabled() bool {
	return enabled
}

func Shutdown(ctx context.Context) {
	for _, fn := range shutdownFuncs {
		_ = fn(ctx)
	}
	shutdownFuncs = nil
}

func Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if Tracer == nil {
		// Return noop span if not initialized / 如果未初始化则返回空操作 span
		return ctx, noop.Span{}
	}
	return Tracer.Start(ctx, name, opts...)
}

// newPropagator builds the W3C trace context propagator
// newPropagator 构建 W3C 追踪上下文传播器
func newPropagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	)
}

// newTracerProvider builds an OTLP/gRPC backed tracer provider
// newTracerProvider 构建基于 OTLP/gRPC 的追踪提供者
func newTracerProvider(endpoint string) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(
		context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
