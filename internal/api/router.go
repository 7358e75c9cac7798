// Package api provides the loopback HTTP bridge that hosts the CareLens
// client core for a presentation layer.
package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/api/handler"
	"github.com/carelens/carelens/internal/api/middleware"
	"github.com/carelens/carelens/internal/bp"
	"github.com/carelens/carelens/internal/chat"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/internal/platform"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string
	Metrics     *middleware.Metrics

	// LoopbackOnly rejects connections from non-loopback peers.
	LoopbackOnly bool

	Platform   *platform.Client
	Location   *location.Provider
	Hospitals  *hospital.Service
	Doctors    *doctor.Service
	BP         *bp.Service
	Chat       *chat.Manager
	Dispatcher *emergency.Dispatcher

	// LocationTimeout bounds live location reads made on behalf of a request.
	LocationTimeout time.Duration
}

// NewRouter creates a chi router with all bridge routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "carelens-bridge"
	}

	// Global middleware, order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.LoopbackOnly {
		r.Use(middleware.RequireLoopback)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.RequireJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Platform)
	sessionHandler := handler.NewSessionHandler(cfg.Platform, cfg.Logger, handler.SessionHooks{
		OnBegin: []func(identity.User){func(u identity.User) { cfg.Chat.ResetFor(u.Name) }},
		OnEnd:   []func(){cfg.Chat.Reset, cfg.Dispatcher.Reset},
	})
	locationHandler := handler.NewLocationHandler(cfg.Location, cfg.LocationTimeout)
	hospitalHandler := handler.NewHospitalHandler(cfg.Hospitals, cfg.Location, cfg.LocationTimeout, cfg.Logger)
	doctorHandler := handler.NewDoctorHandler(cfg.Doctors, cfg.Location, cfg.LocationTimeout, cfg.Logger)
	bpHandler := handler.NewBPHandler(cfg.BP, cfg.Logger)
	chatHandler := handler.NewChatHandler(cfg.Chat, cfg.Logger)
	emergencyHandler := handler.NewEmergencyHandler(cfg.Dispatcher, cfg.Logger)
	dashboardHandler := handler.NewDashboardHandler(cfg.Platform, cfg.Logger)

	requireSession := middleware.RequireSession(cfg.Platform.Session())

	sessionRateLimit := middleware.RateLimitByIP(middleware.SessionRateLimit)
	standardRateLimit := middleware.RateLimitByUser(middleware.StandardRateLimit)
	chatRateLimit := middleware.RateLimitByUser(middleware.ChatRateLimit)
	emergencyRateLimit := middleware.RateLimitByUser(middleware.EmergencyRateLimit)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ops/health", opsHandler.HealthCheck)
		r.Get("/ops/providers", opsHandler.Providers)

		r.Get("/session", sessionHandler.Get)
		r.Delete("/session", sessionHandler.Logout)
		r.With(sessionRateLimit).Post("/session", sessionHandler.Login)
		r.With(sessionRateLimit).Post("/session/register", sessionHandler.Register)

		// Public: location and the emergency numbers work signed out.
		r.Group(func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/location", locationHandler.Get)
			r.Get("/emergency/numbers", emergencyHandler.Info)
			r.Get("/bp/reference-ranges", bpHandler.ReferenceRanges)
		})

		// Signed-in routes
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.With(chatRateLimit).Post("/chat/messages", chatHandler.Send)
			r.With(emergencyRateLimit).Post("/emergency/requests", emergencyHandler.Create)

			r.Group(func(r chi.Router) {
				r.Use(standardRateLimit)
				r.Get("/hospitals", hospitalHandler.List)
				r.Get("/doctors", doctorHandler.List)
				r.Get("/doctors/profile", doctorHandler.Profile)
				r.Put("/doctors/profile", doctorHandler.SaveProfile)
				r.Get("/dashboard", dashboardHandler.Get)

				r.Get("/bp/records", bpHandler.List)
				r.Post("/bp/records", bpHandler.Create)
				r.Get("/bp/trend", bpHandler.Trend)

				r.Get("/chat", chatHandler.Get)
				r.Post("/chat/reset", chatHandler.Reset)
				r.Put("/chat/language", chatHandler.SetLanguage)
				r.Get("/chat/sessions", chatHandler.Sessions)
				r.Post("/chat/resume", chatHandler.Resume)

				r.Get("/emergency/requests/active", emergencyHandler.Active)
				r.Delete("/emergency/requests/active", emergencyHandler.Dismiss)
			})
		})
	})

	return r
}
