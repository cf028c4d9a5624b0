// Package app 管理应用程序的生命周期，包括服务的启动、信号处理与资源清理。
package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wyfcoding/autocomplete/server"
)

const defaultShutdownTimeout = 10 * time.Second

// App 是应用程序的核心容器。
type App struct {
	name   string
	logger *slog.Logger
	opts   options
}

// New 创建一个新的应用程序实例。
func New(name string, logger *slog.Logger, opts ...Option) *App {
	o := options{shutdownTimeout: defaultShutdownTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return &App{
		name:   name,
		logger: logger,
		opts:   o,
	}
}

// Run 启动所有服务器并阻塞，直到收到 SIGINT/SIGTERM 或 ctx 被取消。
// 任一服务器返回错误都会触发整体关闭。
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting", "name", a.name, "pid", os.Getpid())

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range a.opts.servers {
		g.Go(func() error {
			if err := srv.Start(gctx); err != nil {
				a.logger.Error("server exited with error", "error", err)
				return err
			}
			return nil
		})
	}

	<-gctx.Done()
	a.logger.Info("shutting down application", "name", a.name)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.opts.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, srv := range a.opts.servers {
		if err := srv.Stop(shutdownCtx); err != nil {
			a.logger.Error("server failed to stop", "error", err)
			errs = append(errs, err)
		}
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	// 后注册的先清理
	for i := len(a.opts.cleanups) - 1; i >= 0; i-- {
		a.opts.cleanups[i]()
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Info("application shut down gracefully")
	return nil
}
