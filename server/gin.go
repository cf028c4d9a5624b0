// Package server 提供 HTTP 服务器的启动与优雅关闭封装。
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/autocomplete/config"
)

const defaultShutdownTimeout = 5 * time.Second

// GinServer 封装运行 Gin 引擎的 http.Server。
type GinServer struct {
	server          *http.Server
	addr            string
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewGinServer 创建一个新的 Gin 服务器实例。
func NewGinServer(engine *gin.Engine, addr string, logger *slog.Logger) *GinServer {
	return &GinServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr:            addr,
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logger,
	}
}

// NewGinServerFromConfig 按配置中的监听地址与超时创建服务器。
func NewGinServerFromConfig(engine *gin.Engine, cfg config.ServerConfig, logger *slog.Logger) *GinServer {
	addr := net.JoinHostPort(cfg.HTTP.Addr, strconv.Itoa(cfg.HTTP.Port))
	s := NewGinServer(engine, addr, logger)
	s.server.ReadTimeout = cfg.HTTP.ReadTimeout
	s.server.WriteTimeout = cfg.HTTP.WriteTimeout
	s.server.IdleTimeout = cfg.HTTP.IdleTimeout
	if cfg.HTTP.ReadHeaderTimeout > 0 {
		s.server.ReadHeaderTimeout = cfg.HTTP.ReadHeaderTimeout
	}
	if cfg.HTTP.ShutdownTimeout > 0 {
		s.shutdownTimeout = cfg.HTTP.ShutdownTimeout
	}
	return s
}

// Addr 返回监听地址。
func (s *GinServer) Addr() string {
	return s.addr
}

// Start 启动 HTTP 服务器，ctx 取消时执行优雅关闭。
func (s *GinServer) Start(ctx context.Context) error {
	s.logger.Info("starting gin server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("gin server stopping due to context cancellation")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Stop 在超时时间内等待现有请求完成后关闭服务器。
func (s *GinServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping gin server gracefully")
	ctx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}
