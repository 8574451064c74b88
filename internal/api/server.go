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

// Package api provides the HTTP admin interface of the blobstore agent.
// api 包提供 blobstore agent 的 HTTP 管理接口。
//
// Lifecycle requests are authenticated with the AppScale deployment secret
// and delegated to the blobstore lifecycle adapter.
// 生命周期请求使用 AppScale 部署密钥认证，并委托给 blobstore 生命周期适配器。
package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/austinsdoe/appscale/internal/blobstore"
	"github.com/austinsdoe/appscale/internal/config"
	"github.com/austinsdoe/appscale/internal/logger"
	"github.com/austinsdoe/appscale/internal/otel_trace"
)

// SecretHeader carries the deployment secret on admin API requests
// SecretHeader 在管理 API 请求中携带部署密钥
const SecretHeader = "X-AppScale-Secret"

// shutdownTimeout bounds graceful HTTP shutdown
// shutdownTimeout 限制 HTTP 优雅关闭时间
const shutdownTimeout = 10 * time.Second

// Server serves the admin API
// Server 提供管理 API 服务
type Server struct {
	cfg       *config.Config
	blobstore *blobstore.Server
	engine    *gin.Engine
	secret    string
	hostname  string
}

// lifecycleRequest carries an optional datastore endpoint override for start
// and restart operations
// lifecycleRequest 为启动和重启操作携带可选的 datastore 端点覆盖
type lifecycleRequest struct {
	DatastoreHost string `json:"datastore_host"`
	DatastorePort int    `json:"datastore_port"`
}

// NewServer creates a new admin API server
// NewServer 创建一个新的管理 API 服务器
func NewServer(cfg *config.Config, bs *blobstore.Server) *Server {
	s := &Server{
		cfg:       cfg,
		blobstore: bs,
	}

	// Load the deployment secret; auth is skipped when unavailable
	// 加载部署密钥；不可用时跳过认证
	if data, err := os.ReadFile(cfg.API.SecretFile); err == nil {
		s.secret = strings.TrimSpace(string(data))
	} else {
		logger.WarnF(context.Background(),
			"[API] Secret file %s unavailable, admin API is unauthenticated: %v / 密钥文件 %s 不可用，管理 API 未认证：%v",
			cfg.API.SecretFile, err, cfg.API.SecretFile, err)
	}

	s.hostname, _ = os.Hostname()
	s.engine = s.buildEngine()
	return s
}

// buildEngine builds the gin engine and routes
// buildEngine 构建 gin 引擎和路由
func (s *Server) buildEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(otel_trace.ServiceName))

	apiV1 := r.Group("/api/v1")
	{
		// Health / 健康检查
		apiV1.GET("/health", s.health)

		// Blobstore lifecycle / Blobstore 生命周期
		bsRouter := apiV1.Group("/blobstore")
		bsRouter.Use(s.secretRequired())
		{
			bsRouter.POST("/start", s.start)
			bsRouter.POST("/stop", s.stop)
			bsRouter.POST("/restart", s.restart)
			bsRouter.GET("/status", s.status)
		}
	}

	return r
}

// secretRequired authenticates requests with the deployment secret
// secretRequired 使用部署密钥认证请求
func (s *Server) secretRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.secret == "" {
			c.Next()
			return
		}

		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error_msg": "invalid secret"})
			return
		}
		c.Next()
	}
}

// health handles GET /api/v1/health
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{"status": "ok", "agent_id": s.cfg.Agent.ID}})
}

// endpointFromRequest resolves the datastore endpoint, falling back to the
// configured default
// endpointFromRequest 解析 datastore 端点，回退到配置的默认值
func (s *Server) endpointFromRequest(c *gin.Context) (string, int, error) {
	var req lifecycleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return "", 0, err
	}

	host := req.DatastoreHost
	if host == "" {
		host = s.cfg.Datastore.Host
	}
	port := req.DatastorePort
	if port == 0 {
		port = s.cfg.Datastore.Port
	}
	return host, port, nil
}

// start handles POST /api/v1/blobstore/start
func (s *Server) start(c *gin.Context) {
	host, port, err := s.endpointFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_msg": err.Error()})
		return
	}

	if err := s.blobstore.Start(c.Request.Context(), host, port); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error_msg": err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[API] Start issued for %s (datastore %s:%d) / 已对 %s 发出启动（datastore %s:%d）",
		blobstore.ServiceName, host, port, blobstore.ServiceName, host, port)
	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{
		"service": blobstore.ServiceName,
		"port":    blobstore.ServerPort,
	}})
}

// stop handles POST /api/v1/blobstore/stop
func (s *Server) stop(c *gin.Context) {
	if err := s.blobstore.Stop(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error_msg": err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[API] Stop issued for %s / 已对 %s 发出停止",
		blobstore.ServiceName, blobstore.ServiceName)
	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{
		"service": blobstore.ServiceName,
	}})
}

// restart handles POST /api/v1/blobstore/restart
func (s *Server) restart(c *gin.Context) {
	host, port, err := s.endpointFromRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error_msg": err.Error()})
		return
	}

	if err := s.blobstore.Restart(c.Request.Context(), host, port); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error_msg": err.Error()})
		return
	}

	logger.InfoF(c.Request.Context(), "[API] Restart issued for %s / 已对 %s 发出重启",
		blobstore.ServiceName, blobstore.ServiceName)
	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{
		"service": blobstore.ServiceName,
		"port":    blobstore.ServerPort,
	}})
}

// status handles GET /api/v1/blobstore/status
func (s *Server) status(c *gin.Context) {
	running, err := s.blobstore.IsRunning(c.Request.Context(), s.hostname)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error_msg": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"error_msg": "", "data": gin.H{
		"service": blobstore.ServiceName,
		"running": running,
	}})
}

// Run serves the admin API until ctx is cancelled
// Run 提供管理 API 服务直到 ctx 被取消
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.API.Addr,
		Handler: s.engine,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.InfoF(ctx, "[API] Admin API listening on %s / 管理 API 监听于 %s",
			s.cfg.API.Addr, s.cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
