package hospital

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/telemetry"
	"github.com/carelens/carelens/pkg/geo"
)

// DefaultNearbyRadiusKm is the search radius of the nearby query.
const DefaultNearbyRadiusKm = 200

// Provider defines the interface for hospital catalog providers.
type Provider interface {
	// Nearby returns the hospitals within radiusKm of origin.
	Nearby(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]Hospital, error)

	// All returns the full catalog.
	All(ctx context.Context) ([]Hospital, error)

	// ByCity returns the hospitals whose city matches city.
	ByCity(ctx context.Context, city string) ([]Hospital, error)
}

// ServiceConfig holds configuration for the hospital service.
type ServiceConfig struct {
	// Provider is the hospital catalog provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// RadiusKm is the nearby search radius (default: 200).
	RadiusKm float64

	// CacheTTL is how long to cache the full catalog (default: 5 minutes).
	CacheTTL time.Duration

	// StaleIfErrorTTL allows serving a stale catalog on provider errors (default: 30 minutes).
	StaleIfErrorTTL time.Duration

	// Metrics records fallback events. Optional.
	Metrics *telemetry.ClientMetrics
}

// Service discovers hospitals. The full catalog is cached, and a failed
// nearby search falls back to the unranked catalog.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	radiusKm        float64
	cacheTTL        time.Duration
	staleIfErrorTTL time.Duration
	metrics         *telemetry.ClientMetrics

	mu          sync.RWMutex
	catalog     []Hospital
	fetchedAt   time.Time
	cacheExpiry time.Time
}

// NewService creates a new hospital service.
func NewService(cfg ServiceConfig) *Service {
	radius := cfg.RadiusKm
	if radius <= 0 {
		radius = DefaultNearbyRadiusKm
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 30 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		radiusKm:        radius,
		cacheTTL:        cacheTTL,
		staleIfErrorTTL: staleIfErrorTTL,
		metrics:         cfg.Metrics,
	}
}

// Discover returns the hospitals matching query. With an origin it runs a
// nearby search and ranks the results by distance. If the nearby search
// fails for any reason other than authorization, the full catalog is
// returned unranked with Degraded set. Without an origin the full catalog is
// filtered in catalog order.
func (s *Service) Discover(ctx context.Context, origin *geo.Coordinate, query Query) (View, error) {
	if origin == nil {
		return s.catalogView(ctx, query, false)
	}
	if err := origin.Validate(); err != nil {
		return View{}, err
	}

	nearby, err := s.provider.Nearby(ctx, *origin, s.radiusKm)
	if err == nil {
		return View{
			Hospitals: Apply(nearby, origin, query),
			Ranked:    true,
			FetchedAt: time.Now(),
		}, nil
	}
	if !canFallBack(ctx, err) {
		return View{}, fmt.Errorf("nearby hospitals: %w", err)
	}

	s.logger.Warn().
		Err(err).
		Float64("radius_km", s.radiusKm).
		Msg("nearby search failed, falling back to full catalog")
	s.metrics.RecordFallback(ctx, "hospital_catalog")

	return s.catalogView(ctx, query, true)
}

// ByCity returns the hospitals in city, in provider order.
func (s *Service) ByCity(ctx context.Context, city string) ([]Hospital, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return nil, ErrEmptyCity
	}
	hospitals, err := s.provider.ByCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("hospitals in %s: %w", city, err)
	}
	return hospitals, nil
}

// Invalidate drops the cached catalog.
func (s *Service) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = nil
	s.fetchedAt = time.Time{}
	s.cacheExpiry = time.Time{}
}

func (s *Service) catalogView(ctx context.Context, query Query, degraded bool) (View, error) {
	catalog, fetchedAt, stale, err := s.getCatalog(ctx)
	if err != nil {
		return View{}, err
	}
	return View{
		Hospitals: Apply(catalog, nil, query),
		Degraded:  degraded,
		Stale:     stale,
		FetchedAt: fetchedAt,
	}, nil
}

// getCatalog returns the cached catalog if fresh, otherwise refreshes it.
// A stale entry within the stale-if-error window is served when the refresh
// fails with a non-authorization error.
func (s *Service) getCatalog(ctx context.Context) ([]Hospital, time.Time, bool, error) {
	s.mu.RLock()
	if s.catalog != nil && time.Now().Before(s.cacheExpiry) {
		catalog, fetchedAt := s.catalog, s.fetchedAt
		s.mu.RUnlock()
		return catalog, fetchedAt, false, nil
	}
	s.mu.RUnlock()

	catalog, err := s.provider.All(ctx)
	if err == nil {
		now := time.Now()
		s.mu.Lock()
		s.catalog = catalog
		s.fetchedAt = now
		s.cacheExpiry = now.Add(s.cacheTTL)
		s.mu.Unlock()

		s.logger.Debug().Int("hospitals", len(catalog)).Msg("hospital catalog refreshed")
		return catalog, now, false, nil
	}

	if canFallBack(ctx, err) {
		s.mu.RLock()
		cached, fetchedAt := s.catalog, s.fetchedAt
		s.mu.RUnlock()
		if cached != nil && time.Since(fetchedAt) < s.staleIfErrorTTL {
			s.logger.Warn().
				Err(err).
				Time("fetched_at", fetchedAt).
				Msg("serving stale hospital catalog")
			s.metrics.RecordFallback(ctx, "hospital_catalog_stale")
			return cached, fetchedAt, true, nil
		}
	}

	return nil, time.Time{}, false, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
}

// canFallBack reports whether err may be covered by a fallback. Authorization
// failures and caller cancellation are returned as-is.
func canFallBack(ctx context.Context, err error) bool {
	if identity.IsAuthError(err) {
		return false
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return false
	}
	return true
}
