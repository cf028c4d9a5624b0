// Package bootstrap 负责把配置、日志、追踪、指标、字典与 HTTP 服务组装成可运行的应用。
package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/autocomplete/app"
	"github.com/wyfcoding/autocomplete/breaker"
	"github.com/wyfcoding/autocomplete/config"
	"github.com/wyfcoding/autocomplete/dictionary"
	"github.com/wyfcoding/autocomplete/handler"
	"github.com/wyfcoding/autocomplete/logging"
	"github.com/wyfcoding/autocomplete/metrics"
	"github.com/wyfcoding/autocomplete/middleware"
	"github.com/wyfcoding/autocomplete/redis"
	"github.com/wyfcoding/autocomplete/server"
	"github.com/wyfcoding/autocomplete/source"
	"github.com/wyfcoding/autocomplete/tracing"
)

const defaultMetricsPath = "/metrics"

// Bootstrapper 持有启动过程中创建的公共基础设施。
type Bootstrapper struct {
	ServiceName string
	Version     string
	Config      *config.Config
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Dictionary  *dictionary.Dictionary
}

// New 创建一个新的引导器实例。
func New(serviceName, version string) *Bootstrapper {
	return &Bootstrapper{
		ServiceName: serviceName,
		Version:     version,
	}
}

// Initialize 加载配置文件并按配置初始化日志。
func (b *Bootstrapper) Initialize(configPath string) error {
	var cfg config.Config
	if err := config.Load(configPath, &cfg); err != nil {
		return err
	}
	b.UseConfig(&cfg)
	config.PrintWithMask(cfg)
	return nil
}

// UseConfig 直接使用给定配置初始化日志，跳过文件加载。
func (b *Bootstrapper) UseConfig(cfg *config.Config) {
	b.Config = cfg
	b.Logger = logging.InitLogger(logging.Config{
		Service:    b.ServiceName,
		Module:     "main",
		Level:      cfg.Log.Level,
		Output:     cfg.Log.Output,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})
}

// SetupTracing 初始化 OpenTelemetry 追踪器，返回关闭函数。
func (b *Bootstrapper) SetupTracing() func() {
	tcfg := b.Config.Tracing
	if tcfg.ServiceName == "" {
		tcfg.ServiceName = b.ServiceName
	}
	shutdown, err := tracing.InitTracer(tcfg)
	if err != nil {
		b.Logger.Error("failed to init tracer", "error", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			b.Logger.Error("failed to shutdown tracer", "error", err)
		}
	}
}

// Build 创建字典并从配置的来源填充，然后组装 HTTP 服务器与后台任务。
func (b *Bootstrapper) Build(ctx context.Context) (*app.App, error) {
	cfg := b.Config
	opts := []app.Option{app.WithShutdownTimeout(cfg.Server.HTTP.ShutdownTimeout)}

	b.Metrics = metrics.NewMetrics(b.ServiceName)
	b.Metrics.RegisterBuildInfo(b.ServiceName, b.Version)

	b.Dictionary = dictionary.New(
		dictionary.WithLogger(b.Logger.With("dictionary").Logger),
		dictionary.WithMetrics(b.Metrics),
	)

	sources := []source.Source{source.NewStaticSource("inline", cfg.Dictionary.Terms)}
	for _, path := range cfg.Dictionary.Files {
		sources = append(sources, source.NewFileSource(path))
	}

	var redisSource *source.RedisSetSource
	if cfg.Dictionary.Redis.Enabled {
		client, cleanup, err := redis.NewClient(cfg.Dictionary.Redis, b.Metrics, b.Logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, app.WithCleanup(cleanup))
		redisSource = source.NewRedisSetSource(client, cfg.Dictionary.Redis.Key, cfg.Dictionary.Redis.ScanCount)
		sources = append(sources, redisSource)
	}

	added, err := b.Dictionary.Seed(ctx, sources...)
	if err != nil {
		// 部分来源失败时仍以已加载的词条启动
		b.Logger.WarnContext(ctx, "dictionary seeded with errors", "added", added, "error", err)
	} else {
		b.Logger.InfoContext(ctx, "dictionary seeded", "added", added)
	}

	config.RegisterReloadHook(func(next *config.Config) {
		if n, err := b.Dictionary.AddAll(next.Dictionary.Terms); n > 0 || err != nil {
			b.Logger.Info("inline terms reloaded", "added", n, "error", err)
		}
	})

	httpServer := server.NewGinServerFromConfig(b.Engine(), cfg.Server, b.Logger.Logger)
	opts = append(opts, app.WithServer(httpServer))

	if cfg.Dictionary.Watch && len(cfg.Dictionary.Files) > 0 {
		watcher, err := source.NewFileWatcher(cfg.Dictionary.Files, b.Dictionary, b.Logger.With("watcher").Logger)
		if err != nil {
			return nil, fmt.Errorf("create term file watcher: %w", err)
		}
		opts = append(opts, app.WithServer(watcher))
	}

	if redisSource != nil && cfg.Dictionary.Redis.RefreshInterval > 0 {
		bcfg := cfg.Dictionary.Redis.Breaker
		cb := breaker.NewBreaker(breaker.Settings{
			Name:        "redis-terms",
			Enabled:     bcfg.Enabled,
			MaxRequests: bcfg.MaxRequests,
			Interval:    bcfg.Interval,
			Timeout:     bcfg.Timeout,
		}, b.Metrics)
		refresher := source.NewRefresher(redisSource, b.Dictionary, cfg.Dictionary.Redis.RefreshInterval, cb, b.Logger.With("refresher").Logger)
		opts = append(opts, app.WithServer(refresher))
	}

	return app.New(b.ServiceName, b.Logger.Logger, opts...), nil
}

// Engine 按固定顺序装配中间件并注册路由。
func (b *Bootstrapper) Engine() *gin.Engine {
	cfg := b.Config
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = defaultMetricsPath
	}

	mws := []gin.HandlerFunc{
		middleware.Recovery(b.Logger.Logger),
		middleware.RequestID(),
	}
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.TracingMiddleware(b.ServiceName))
	}
	mws = append(mws,
		middleware.Logger(b.Logger.With("http").Logger),
		middleware.HTTPMetricsMiddlewareWithOptions(b.Metrics, middleware.MetricsOptions{
			SkipPaths: []string{"/sys/health", metricsPath},
		}),
	)
	if cfg.RateLimit.Enabled {
		mws = append(mws, middleware.NewLocalRateLimitMiddleware(cfg.RateLimit.Rate, cfg.RateLimit.Burst))
	}

	engine := server.NewDefaultGinEngine(mws...)
	if cfg.Metrics.Enabled {
		engine.GET(metricsPath, gin.WrapH(b.Metrics.Handler()))
	}
	handler.New(b.Dictionary, b.Logger.With("handler").Logger).Register(engine)
	return engine
}
