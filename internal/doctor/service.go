package doctor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/telemetry"
	"github.com/carelens/carelens/pkg/geo"
)

// DefaultNearbyRadiusKm is the search radius of the nearby query.
const DefaultNearbyRadiusKm = 30

// Provider defines the interface for the doctor directory backend.
type Provider interface {
	// Doctors returns every available doctor.
	Doctors(ctx context.Context) ([]Doctor, error)

	// NearbyDoctors returns the available doctors within radiusKm of origin.
	NearbyDoctors(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]Doctor, error)

	// DoctorProfile returns the signed-in doctor's profile.
	DoctorProfile(ctx context.Context) (Doctor, error)

	// SaveDoctorProfile creates or replaces the signed-in doctor's profile
	// and returns its id.
	SaveDoctorProfile(ctx context.Context, profile Profile) (string, error)
}

// UserSource reports the signed-in user.
type UserSource interface {
	User() (identity.User, bool)
}

// ServiceConfig holds configuration for the doctor service.
type ServiceConfig struct {
	Provider Provider

	// Users is used to refuse profile calls for non-doctor accounts
	// without a round trip. Optional.
	Users UserSource

	Logger zerolog.Logger

	// RadiusKm is the nearby search radius (default: 30).
	RadiusKm float64

	// Metrics records fallback events. Optional.
	Metrics *telemetry.ClientMetrics
}

// Service serves the doctor directory and the doctor's own profile.
type Service struct {
	provider Provider
	users    UserSource
	logger   zerolog.Logger
	radiusKm float64
	metrics  *telemetry.ClientMetrics
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) *Service {
	radius := cfg.RadiusKm
	if radius <= 0 {
		radius = DefaultNearbyRadiusKm
	}
	return &Service{
		provider: cfg.Provider,
		users:    cfg.Users,
		logger:   cfg.Logger,
		radiusKm: radius,
		metrics:  cfg.Metrics,
	}
}

// Discover returns the doctors matching query. With an origin it runs a
// nearby search and ranks the results by distance. If that search fails for
// any reason other than authorization, the whole directory is returned
// unranked with Degraded set.
func (s *Service) Discover(ctx context.Context, origin *geo.Coordinate, query Query) (View, error) {
	if origin == nil {
		return s.directoryView(ctx, query, false)
	}
	if err := origin.Validate(); err != nil {
		return View{}, err
	}

	nearby, err := s.provider.NearbyDoctors(ctx, *origin, s.radiusKm)
	if err == nil {
		return View{
			Doctors:   Apply(nearby, origin, query),
			Ranked:    true,
			FetchedAt: time.Now(),
		}, nil
	}
	if !canFallBack(ctx, err) {
		return View{}, fmt.Errorf("nearby doctors: %w", err)
	}

	s.logger.Warn().
		Err(err).
		Float64("radius_km", s.radiusKm).
		Msg("nearby doctor search failed, falling back to directory")
	s.metrics.RecordFallback(ctx, "doctor_directory")

	return s.directoryView(ctx, query, true)
}

// Profile returns the signed-in doctor's profile.
func (s *Service) Profile(ctx context.Context) (Doctor, error) {
	if err := s.requireDoctor(); err != nil {
		return Doctor{}, err
	}
	d, err := s.provider.DoctorProfile(ctx)
	if err != nil {
		return Doctor{}, fmt.Errorf("doctor profile: %w", err)
	}
	return d, nil
}

// SaveProfile validates and stores the signed-in doctor's profile, then
// returns it as the directory now shows it.
func (s *Service) SaveProfile(ctx context.Context, profile Profile) (Doctor, error) {
	if err := s.requireDoctor(); err != nil {
		return Doctor{}, err
	}
	profile = profile.Normalize()
	if err := profile.Validate(); err != nil {
		return Doctor{}, err
	}

	id, err := s.provider.SaveDoctorProfile(ctx, profile)
	if err != nil {
		return Doctor{}, fmt.Errorf("save doctor profile: %w", err)
	}
	s.logger.Info().Str("profile_id", id).Msg("doctor profile saved")

	d, err := s.provider.DoctorProfile(ctx)
	if err != nil {
		return Doctor{}, fmt.Errorf("doctor profile: %w", err)
	}
	return d, nil
}

// requireDoctor refuses accounts known not to be doctors. An unknown user
// is left to the backend.
func (s *Service) requireDoctor() error {
	if s.users == nil {
		return nil
	}
	if u, ok := s.users.User(); ok && u.Role != "" && u.Role != identity.RoleDoctor {
		return ErrNotDoctor
	}
	return nil
}

func (s *Service) directoryView(ctx context.Context, query Query, degraded bool) (View, error) {
	doctors, err := s.provider.Doctors(ctx)
	if err != nil {
		if canFallBack(ctx, err) {
			return View{}, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
		}
		return View{}, fmt.Errorf("doctors: %w", err)
	}
	return View{
		Doctors:   Apply(doctors, nil, query),
		Degraded:  degraded,
		FetchedAt: time.Now(),
	}, nil
}

// canFallBack reports whether err may be covered by a fallback.
func canFallBack(ctx context.Context, err error) bool {
	if identity.IsAuthError(err) {
		return false
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return false
	}
	return true
}
