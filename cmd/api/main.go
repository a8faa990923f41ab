package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/smart-energy-home/internal/bootstrap"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/config"
	httpHandlers "github.com/ANIKETSHETTY47/smart-energy-home/internal/http"
	"github.com/ANIKETSHETTY47/smart-energy-home/internal/logging"
)

func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}
	logging.Setup(config.LogLevel(), config.LogPretty())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svcs, cleanup, err := bootstrap.Services(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer cleanup()

	if config.SeedDemoData() {
		if err := svcs.SeedDemo(ctx); err != nil {
			log.Error().Err(err).Msg("demo seed failed")
		}
	}

	app := httpHandlers.NewApp(svcs)
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
			log.Error().Err(err).Msg("shutdown")
		}
	}()

	addr := config.APIAddr()
	log.Info().Str("addr", addr).Msg("api listening")
	if err := app.Listen(addr); err != nil {
		log.Error().Err(err).Msg("server exit")
	}
}
