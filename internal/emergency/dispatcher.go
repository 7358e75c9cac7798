package emergency

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/pkg/geo"
)

// DispatcherConfig holds configuration for the dispatcher.
type DispatcherConfig struct {
	// Provider is the dispatch service.
	Provider Provider

	// Positions resolves a missing origin. Optional; without it a missing
	// origin fails with ErrOriginRequired.
	Positions PositionSource

	// Users supplies the default patient name. Optional.
	Users UserSource

	// Notifier receives dispatched requests. Optional.
	Notifier Notifier

	// Logger for dispatch events.
	Logger zerolog.Logger
}

// Dispatcher submits ambulance requests and tracks the active one.
type Dispatcher struct {
	provider  Provider
	positions PositionSource
	users     UserSource
	notifier  Notifier
	logger    zerolog.Logger

	mu     sync.Mutex
	active *Request
	seen   map[string]struct{}
	epoch  uint64
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		provider:  cfg.Provider,
		positions: cfg.Positions,
		users:     cfg.Users,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		seen:      make(map[string]struct{}),
	}
}

// Request submits a new ambulance request. When origin is nil the position
// source is asked, which may answer with its fallback place. Every call
// creates a new request; nothing from an earlier request is reused.
func (d *Dispatcher) Request(ctx context.Context, form Form, origin *geo.Position) (*Request, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	pos, fallback, err := d.resolveOrigin(ctx, origin)
	if err != nil {
		return nil, err
	}

	typ := form.Type
	if typ == "" {
		typ = TypeGeneral
	}
	req := Request{
		ClientID:       uuid.NewString(),
		PatientName:    d.patientName(form.PatientName),
		Phone:          strings.TrimSpace(form.Phone),
		Type:           typ,
		Notes:          strings.TrimSpace(form.Notes),
		Origin:         pos,
		OriginFallback: fallback,
		Status:         StatusRequested,
		RequestedAt:    time.Now(),
	}

	d.mu.Lock()
	d.epoch++
	epoch := d.epoch
	pending := req
	d.active = &pending
	d.mu.Unlock()

	logger := d.logger.With().
		Str("client_id", req.ClientID).
		Str("emergency_type", string(req.Type)).
		Bool("origin_fallback", fallback).
		Logger()
	logger.Info().Msg("requesting ambulance")

	dispatch, err := d.provider.RequestAmbulance(ctx, Submission{
		ClientID:    req.ClientID,
		Origin:      pos.Coordinate,
		PatientName: req.PatientName,
		Phone:       req.Phone,
		Type:        req.Type,
		Notes:       req.Notes,
	})

	d.mu.Lock()
	current := d.epoch == epoch
	if err == nil {
		err = d.acceptLocked(dispatch)
	}
	if err != nil {
		if current {
			d.active = nil
		}
		d.mu.Unlock()
		logger.Error().Err(err).Msg("ambulance request failed")
		return nil, fmt.Errorf("request ambulance: %w", err)
	}

	req.ID = dispatch.ID
	req.Status = StatusDispatched
	req.ETAMinutes = copyInt(dispatch.ETAMinutes)
	req.DispatchedAt = dispatch.CreatedAt
	if req.DispatchedAt.IsZero() {
		req.DispatchedAt = time.Now()
	}
	if current {
		stored := req
		stored.ETAMinutes = copyInt(req.ETAMinutes)
		d.active = &stored
	}
	d.mu.Unlock()

	event := logger.Info().Str("request_id", req.ID)
	if req.ETAMinutes != nil {
		event = event.Int("eta_minutes", *req.ETAMinutes)
	}
	event.Msg("ambulance dispatched")

	if d.notifier != nil {
		if err := d.notifier.Notify(ctx, req); err != nil {
			logger.Warn().Err(err).Msg("dispatch notification failed")
		}
	}

	return &req, nil
}

// Active returns a copy of the active request.
func (d *Dispatcher) Active() (Request, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.active == nil {
		return Request{}, false
	}
	req := *d.active
	req.ETAMinutes = copyInt(d.active.ETAMinutes)
	return req, true
}

// Reset clears the active request. A submission still in flight will not
// become active when it completes.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.epoch++
	d.active = nil
}

func (d *Dispatcher) acceptLocked(dispatch Dispatch) error {
	if dispatch.ID == "" {
		return ErrMissingRequestID
	}
	if _, dup := d.seen[dispatch.ID]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateRequest, dispatch.ID)
	}
	d.seen[dispatch.ID] = struct{}{}
	return nil
}

func (d *Dispatcher) resolveOrigin(ctx context.Context, origin *geo.Position) (geo.Position, bool, error) {
	if origin != nil {
		if err := origin.Validate(); err != nil {
			return geo.Position{}, false, fmt.Errorf("%w: %w", ErrOriginRequired, err)
		}
		return *origin, false, nil
	}
	if d.positions == nil {
		return geo.Position{}, false, ErrOriginRequired
	}

	fix, err := d.positions.Current(ctx)
	if err != nil {
		return geo.Position{}, false, fmt.Errorf("%w: %w", ErrOriginRequired, err)
	}
	if err := fix.Position.Validate(); err != nil {
		return geo.Position{}, false, fmt.Errorf("%w: %w", ErrOriginRequired, err)
	}
	return fix.Position, fix.Source == location.SourceFallback, nil
}

func (d *Dispatcher) patientName(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	if d.users != nil {
		if user, ok := d.users.User(); ok {
			return user.DisplayName()
		}
	}
	return "Patient"
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
