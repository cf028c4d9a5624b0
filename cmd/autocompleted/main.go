package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/autocomplete/bootstrap"
)

const serviceName = "autocompleted"

var version = "dev"

func main() {
	var configPath string
	flag.StringVar(&configPath, "conf", "./configs/autocompleted/config.toml", "path to config file")
	flag.Parse()

	if err := run(configPath); err != nil {
		slog.Error("autocompleted exited with error", "error", err)
		os.Exit(1)
	}
}

// run 返回前总会关闭追踪器，确保失败时已产生的 span 也被导出。
func run(configPath string) error {
	b := bootstrap.New(serviceName, version)
	if err := b.Initialize(configPath); err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}
	if b.Config.Server.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing := b.SetupTracing()
	defer shutdownTracing()

	ctx := context.Background()
	application, err := b.Build(ctx)
	if err != nil {
		return fmt.Errorf("build application: %w", err)
	}

	return application.Run(ctx)
}
