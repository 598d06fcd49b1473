// Package main is the AWS Lambda entry point of the content API. API
// Gateway proxy events are translated into ordinary HTTP requests and served
// by the same router as the local server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"

	"portfolio/internal/app"
	"portfolio/internal/config"
)

func main() {
	// Bootstrap logger until the configured level is known.
	slog.SetDefault(app.NewLogger(os.Stdout, "info", true))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(app.NewLogger(os.Stdout, cfg.LogLevel, true))

	// Clients are built once per execution environment and reused across
	// invocations.
	a, err := app.New(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	slog.Info("lambda handler ready", "env", cfg.Env, "store", cfg.StoreBackend)
	lambda.Start(httpadapter.New(a.Handler).ProxyWithContext)
}
