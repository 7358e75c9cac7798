// Package main provides the entrypoint for the CareLens loopback bridge.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api"
	"github.com/carelens/carelens/internal/api/middleware"
	"github.com/carelens/carelens/internal/bp"
	"github.com/carelens/carelens/internal/chat"
	"github.com/carelens/carelens/internal/config"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/internal/emergency/pubsub"
	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/internal/logging"
	"github.com/carelens/carelens/internal/platform"
	"github.com/carelens/carelens/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const serviceName = "carelens-bridge"

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New(logging.Config{Service: serviceName, Version: Version})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logging.New(logging.Config{
		Service: serviceName,
		Version: Version,
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
	})

	log.Info().
		Str("build_time", BuildTime).
		Str("env", cfg.Env).
		Msg("starting CareLens bridge")

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("bridge stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("bridge stopped")
}

func run(cfg config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Env,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()
	if cfg.OTelEnabled {
		log.Info().Str("otlp_endpoint", cfg.OTLPEndpoint).Msg("OpenTelemetry initialized")
	}

	httpMetrics, err := middleware.NewMetrics()
	if err != nil {
		return err
	}
	clientMetrics, err := telemetry.NewClientMetrics()
	if err != nil {
		return err
	}

	session := &identity.Session{}
	client := platform.NewClient(platform.ClientConfig{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout,
		MaxRetries: &cfg.APIMaxRetries,
		Session:    session,
		Logger:     log.With().Str("component", "platform").Logger(),
		Metrics:    clientMetrics,
	})
	userName := restoreSession(ctx, cfg, client, log)

	var locator location.Locator = location.NoLocator{}
	if cfg.Device != nil {
		locator = location.StaticLocator{Coordinate: *cfg.Device}
		log.Info().Stringer("device", *cfg.Device).Msg("using static device location")
	}
	locationProvider := location.NewProvider(location.ProviderConfig{
		Locator:        locator,
		Logger:         log.With().Str("component", "location").Logger(),
		Timeout:        cfg.LocationTimeout,
		ValidityWindow: cfg.LocationValidity,
		Fallback:       cfg.Fallback,
		Metrics:        clientMetrics,
	})

	hospitalService := hospital.NewService(hospital.ServiceConfig{
		Provider: client,
		Logger:   log.With().Str("component", "hospital").Logger(),
		RadiusKm: cfg.NearbyRadiusKm,
		CacheTTL: cfg.CatalogTTL,
		Metrics:  clientMetrics,
	})
	doctorService := doctor.NewService(doctor.ServiceConfig{
		Provider: client,
		Users:    session,
		Logger:   log.With().Str("component", "doctor").Logger(),
		RadiusKm: cfg.DoctorNearbyRadiusKm,
		Metrics:  clientMetrics,
	})
	bpService := bp.NewService(bp.ServiceConfig{
		Provider: client,
		Logger:   log.With().Str("component", "bp").Logger(),
	})

	chatManager, err := chat.NewManager(chat.ManagerConfig{
		Provider: client,
		Logger:   log.With().Str("component", "chat").Logger(),
		UserName: userName,
	})
	if err != nil {
		return err
	}
	defer chatManager.Close()

	var notifier emergency.Notifier
	if cfg.PubSubEnabled() {
		publisher, err := pubsub.NewPublisher(ctx, pubsub.Config{
			ProjectID: cfg.PubSubProjectID,
			Topic:     cfg.PubSubDispatchTopic,
			Logger:    log.With().Str("component", "pubsub").Logger(),
		})
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close dispatch publisher")
			}
		}()
		notifier = publisher
		log.Info().
			Str("project_id", cfg.PubSubProjectID).
			Str("topic", cfg.PubSubDispatchTopic).
			Msg("dispatch events enabled")
	}

	dispatcher := emergency.NewDispatcher(emergency.DispatcherConfig{
		Provider:  client,
		Positions: locationProvider,
		Users:     session,
		Notifier:  notifier,
		Logger:    log.With().Str("component", "emergency").Logger(),
	})

	router := api.NewRouter(api.RouterConfig{
		Version:         Version,
		BuildTime:       BuildTime,
		Logger:          log,
		ServiceName:     serviceName,
		Metrics:         httpMetrics,
		LoopbackOnly:    true,
		Platform:        client,
		Location:        locationProvider,
		Hospitals:       hospitalService,
		Doctors:         doctorService,
		BP:              bpService,
		Chat:            chatManager,
		Dispatcher:      dispatcher,
		LocationTimeout: cfg.LocationTimeout,
	})

	server := &http.Server{
		Addr:              net.JoinHostPort("127.0.0.1", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat replies and location reads can take a while.
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("bridge listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down bridge")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// restoreSession begins a session from a stored token and returns the
// user's name for the chat greeting. A rejected token leaves the bridge
// signed out.
func restoreSession(ctx context.Context, cfg config.Config, client *platform.Client, log zerolog.Logger) string {
	if cfg.Token == "" {
		return ""
	}
	if err := client.Session().Begin(cfg.Token, identity.User{}); err != nil {
		log.Warn().Err(err).Msg("ignoring stored token")
		return ""
	}

	meCtx, cancel := context.WithTimeout(ctx, cfg.APITimeout)
	defer cancel()
	user, err := client.Me(meCtx)
	if err != nil {
		if identity.IsAuthError(err) {
			client.Logout()
			log.Warn().Err(err).Msg("stored token rejected, signed out")
			return ""
		}
		log.Warn().Err(err).Msg("could not refresh user, keeping stored session")
		return ""
	}
	log.Info().Str("user_id", user.ID).Msg("session restored")
	return user.Name
}
