package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/callfork/audiofork/internal/adapters/httpapi"
	"github.com/callfork/audiofork/internal/adapters/ingest"
	"github.com/callfork/audiofork/internal/app"
	"github.com/callfork/audiofork/internal/config"
	"github.com/callfork/audiofork/internal/transport/ws"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		os.Exit(1)
	}

	registry := app.NewRegistry()
	ctl := app.NewControl(registry, ws.NewDialer(), app.LogSink{})
	ctl.ReadWait = cfg.FrameWait
	ctl.ReleaseWait = cfg.ReleaseWait

	hub := ingest.NewHub(func(legName string) {
		registry.TeardownLeg(legName)
	}, cfg.LegQueueDepth, cfg.MaxForksPerLeg, cfg.FrameBytes())

	r := httpapi.SetupRouter(cfg, ctl, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("AudioFork server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
