package location

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/telemetry"
	"github.com/carelens/carelens/pkg/geo"
)

// Default policy values.
const (
	DefaultTimeout        = 10 * time.Second
	DefaultValidityWindow = 2 * time.Minute
)

// ProviderConfig holds configuration for the location provider.
type ProviderConfig struct {
	// Locator is the device capability. Nil means NoLocator.
	Locator Locator

	// Logger for acquisition events.
	Logger zerolog.Logger

	// Timeout is used by Current and when Acquire is called with a
	// non-positive timeout (default: 10s).
	Timeout time.Duration

	// ValidityWindow is how long a live fix is reused without asking the
	// locator again (default: 2 minutes). Negative disables caching.
	ValidityWindow time.Duration

	// Fallback is the place used by Current when the live read fails.
	Fallback Place

	// Metrics records fallback events. Optional.
	Metrics *telemetry.ClientMetrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Provider acquires and caches the device position.
type Provider struct {
	locator  Locator
	logger   zerolog.Logger
	timeout  time.Duration
	validity time.Duration
	fallback Place
	metrics  *telemetry.ClientMetrics
	now      func() time.Time

	mu       sync.RWMutex
	cached   *geo.Position
	cachedAt time.Time
}

// NewProvider creates a new location provider.
func NewProvider(cfg ProviderConfig) *Provider {
	locator := cfg.Locator
	if locator == nil {
		locator = NoLocator{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	validity := cfg.ValidityWindow
	if validity == 0 {
		validity = DefaultValidityWindow
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Provider{
		locator:  locator,
		logger:   cfg.Logger,
		timeout:  timeout,
		validity: validity,
		fallback: cfg.Fallback,
		metrics:  cfg.Metrics,
		now:      now,
	}
}

// Acquire returns the device position. A live fix younger than the validity
// window is reused. If the locator fails, is denied, or does not answer
// within timeout, the fallback place is returned tagged SourceFallback.
// Acquire never retries the locator on its own.
func (p *Provider) Acquire(ctx context.Context, timeout time.Duration, fallback Place) Fix {
	fix, err := p.acquire(ctx, timeout)
	if err == nil {
		return fix
	}
	return p.fallbackFix(ctx, fallback, err)
}

// Current acquires with the configured timeout and fallback place.
// It fails with ErrNoPosition only when the live read fails and no fallback
// place is configured.
func (p *Provider) Current(ctx context.Context) (Fix, error) {
	fix, err := p.acquire(ctx, p.timeout)
	if err == nil {
		return fix, nil
	}
	if p.fallback.IsZero() {
		return Fix{}, fmt.Errorf("%w: %w", ErrNoPosition, err)
	}
	return p.fallbackFix(ctx, p.fallback, err), nil
}

// Fallback returns the configured fallback place.
func (p *Provider) Fallback() Place {
	return p.fallback
}

// Invalidate drops the cached live fix.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cached = nil
	p.cachedAt = time.Time{}
}

func (p *Provider) acquire(ctx context.Context, timeout time.Duration) (Fix, error) {
	if pos, ok := p.cachedFix(); ok {
		return Fix{Position: pos, Source: SourceCached, Label: liveLabel(pos)}, nil
	}

	if timeout <= 0 {
		timeout = p.timeout
	}
	pos, err := p.locate(ctx, timeout)
	if err != nil {
		return Fix{}, err
	}

	p.mu.Lock()
	p.cached = &pos
	p.cachedAt = p.now()
	p.mu.Unlock()

	p.logger.Debug().
		Float64("lat", pos.Lat).
		Float64("lon", pos.Lon).
		Msg("live position acquired")

	return Fix{Position: pos, Source: SourceLive, Label: liveLabel(pos)}, nil
}

// locate runs the locator under a hard timeout. A locator that ignores its
// context is abandoned when the deadline passes.
func (p *Provider) locate(ctx context.Context, timeout time.Duration) (geo.Position, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos geo.Position
		err error
	}
	done := make(chan result, 1)
	go func() {
		pos, err := p.locator.Locate(ctx)
		done <- result{pos: pos, err: err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return geo.Position{}, fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
	}

	if res.err != nil {
		return geo.Position{}, res.err
	}
	if err := res.pos.Validate(); err != nil {
		return geo.Position{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if res.pos.AcquiredAt.IsZero() {
		res.pos.AcquiredAt = p.now()
	}
	return res.pos, nil
}

func (p *Provider) cachedFix() (geo.Position, bool) {
	if p.validity < 0 {
		return geo.Position{}, false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.cached == nil || p.now().Sub(p.cachedAt) >= p.validity {
		return geo.Position{}, false
	}
	return *p.cached, true
}

func (p *Provider) fallbackFix(ctx context.Context, fallback Place, cause error) Fix {
	reason := "unavailable"
	switch {
	case errors.Is(cause, ErrPermissionDenied):
		reason = "permission denied"
	case errors.Is(cause, context.DeadlineExceeded):
		reason = "timeout"
	}

	p.logger.Warn().
		Err(cause).
		Str("fallback", fallback.Name).
		Msg("using fallback location")
	p.metrics.RecordFallback(ctx, "location")

	label := "Default location"
	if fallback.Name != "" {
		label = fallback.Name + " (Default)"
	}

	return Fix{
		Position: geo.Position{Coordinate: fallback.Coordinate, AcquiredAt: p.now()},
		Source:   SourceFallback,
		Label:    label,
		Reason:   reason,
	}
}

func liveLabel(pos geo.Position) string {
	return "Your Location (" + pos.Coordinate.String() + ")"
}
