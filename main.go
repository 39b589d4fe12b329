// api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"matomotrack/api/config"
	"matomotrack/api/handlers"
	"matomotrack/api/logging"
	"matomotrack/api/relay"
	"matomotrack/api/tracking"
)

func main() {
	// Load .env before anything reads the environment.
	envErr := godotenv.Load()

	src, err := config.Load("")
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	srv := src.Server()

	logging.Init(logging.Config{Level: srv.LogLevel, Format: srv.LogFormat})
	if envErr != nil {
		logging.Debug().Err(envErr).Msg("no .env file loaded")
	}

	if srv.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	site := src.SiteConfig()
	if site.SiteID == "" || site.Host == "" {
		logging.Warn().Msg("matomo IDSite or URL is not set; every page view will be suppressed")
	}
	logging.Info().
		Str("site_id", site.SiteID).
		Str("host", site.Host).
		Str("protocol", string(site.Protocol)).
		Str("mode", string(site.Mode)).
		Msg("matomo tracking configured")

	var dispatcher handlers.RelayDispatcher
	if site.Mode == tracking.ModeRelay {
		dispatcher = relay.NewDispatcher(relay.Config{Timeout: srv.RelayTimeout})
	}

	trackingHandlers := handlers.NewTrackingHandlers(site, dispatcher, srv.RelayTimeout)
	r := handlers.NewRouter(trackingHandlers, srv.FEOrigin, []byte(srv.JWTSecret))

	httpServer := &http.Server{
		Addr:              ":" + srv.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logging.Info().Str("port", srv.Port).Msg("tracking API starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("tracking API failed to start")
		}
	}()

	<-ctx.Done()
	logging.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	logging.Info().Msg("server exiting")
}
