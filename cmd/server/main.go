// Command server runs the Postly API.
//
// @title                       Postly API
// @version                     1.0
// @description                 Accounts, authentication and moderation for Postly.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Bearer" followed by a space and the token.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/postly/postly-api/docs"
	"github.com/postly/postly-api/internal/app"
	"github.com/postly/postly-api/internal/infrastructure/config"
	"github.com/postly/postly-api/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "postly-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	if err := a.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}
