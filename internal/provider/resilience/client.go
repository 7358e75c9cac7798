package resilience

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects a request.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client in breaker logs and health reports.
	Name string

	// Timeout bounds each individual HTTP attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt.
	// Only network errors and 5xx responses are retried. Zero disables
	// retries; DefaultClientConfig uses 2.
	MaxRetries uint64

	// InitialInterval is the first backoff interval.
	// Default: 200ms
	InitialInterval time.Duration

	// MaxInterval caps the backoff interval.
	// Default: 2 seconds
	MaxInterval time.Duration

	// CircuitBreaker overrides the breaker configuration.
	// If nil, DefaultCircuitBreakerConfig(Name) is used.
	CircuitBreaker *CircuitBreakerConfig

	// Transport is the underlying round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	// Logger is used for retry and breaker events.
	Logger zerolog.Logger
}

// DefaultClientConfig returns the defaults used for platform calls.
func DefaultClientConfig(name string) ClientConfig {
	cbConfig := DefaultCircuitBreakerConfig(name)
	return ClientConfig{
		Name:            name,
		Timeout:         10 * time.Second,
		MaxRetries:      2,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		CircuitBreaker:  &cbConfig,
		Logger:          zerolog.Nop(),
	}
}

// Health is a point-in-time view of a client's breaker and recent outcomes.
type Health struct {
	Name          string     `json:"name"`
	State         string     `json:"state"`
	Requests      uint32     `json:"requests"`
	Failures      uint32     `json:"failures"`
	LastSuccessAt *time.Time `json:"lastSuccessAt,omitempty"`
	LastFailureAt *time.Time `json:"lastFailureAt,omitempty"`
	LastError     string     `json:"lastError,omitempty"`

	breakerState gobreaker.State
}

// IsHealthy reports whether the breaker is closed.
func (h Health) IsHealthy() bool {
	return h.breakerState == gobreaker.StateClosed
}

// Client is an HTTP client with circuit breaker and retry logic.
type Client struct {
	httpClient     *http.Client
	circuitBreaker *gobreaker.CircuitBreaker[*http.Response]
	config         ClientConfig
	logger         zerolog.Logger

	mu            sync.Mutex
	lastSuccessAt *time.Time
	lastFailureAt *time.Time
	lastError     string
}

// NewClient creates a new resilient HTTP client.
func NewClient(cfg ClientConfig) *Client {
	defaults := DefaultClientConfig(cfg.Name)
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}

	cbConfig := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.CircuitBreaker != nil {
		cbConfig = *cfg.CircuitBreaker
	}
	cbConfig.Logger = cfg.Logger

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		circuitBreaker: NewCircuitBreaker[*http.Response](cbConfig), //nolint:bodyclose // type param, not response
		config:         cfg,
		logger:         cfg.Logger,
	}
}

// Do executes an HTTP request with circuit breaker protection and retries.
// Requests with a body must be replayable (http.NewRequest sets GetBody for
// in-memory readers). Returns ErrCircuitOpen without contacting the server
// while the breaker is open.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0 // bounded by WithMaxRetries

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response
	attempt := 0

	operation := func() error {
		attempt++
		if lastResp != nil {
			// Discard the 5xx body from the previous attempt before retrying
			lastResp.Body.Close()
			lastResp = nil
		}

		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.circuitBreaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(attemptReq)
			if err != nil {
				return nil, err
			}
			if r.StatusCode >= http.StatusInternalServerError {
				return r, &ServerError{StatusCode: r.StatusCode}
			}
			return r, nil
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			lastResp = resp
			c.logger.Debug().
				Err(err).
				Str("client", c.config.Name).
				Int("attempt", attempt).
				Msg("platform request failed, retrying")
			return err
		}

		lastResp = resp
		return nil
	}

	err := backoff.Retry(operation, policy)
	if err != nil {
		c.recordFailure(err)
		// 5xx that exhausted retries: hand the response to the caller to decode
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}

	c.recordSuccess()
	return lastResp, nil
}

// Health returns the current breaker state and recent outcome timestamps.
func (c *Client) Health() Health {
	counts := c.circuitBreaker.Counts()
	state := c.circuitBreaker.State()

	c.mu.Lock()
	defer c.mu.Unlock()
	return Health{
		Name:          c.config.Name,
		State:         state.String(),
		Requests:      counts.Requests,
		Failures:      counts.TotalFailures,
		LastSuccessAt: c.lastSuccessAt,
		LastFailureAt: c.lastFailureAt,
		LastError:     c.lastError,
		breakerState:  state,
	}
}

// CircuitBreakerState returns the current state of the circuit breaker.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.circuitBreaker.State()
}

func (c *Client) recordSuccess() {
	now := time.Now()
	c.mu.Lock()
	c.lastSuccessAt = &now
	c.mu.Unlock()
}

func (c *Client) recordFailure(err error) {
	now := time.Now()
	c.mu.Lock()
	c.lastFailureAt = &now
	c.lastError = err.Error()
	c.mu.Unlock()
}

// cloneRequest prepares a fresh copy of req for one attempt, rewinding the body.
func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	clone.Body = body
	return clone, nil
}

// ServerError represents an HTTP 5xx server error.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return "server error: " + http.StatusText(e.StatusCode)
}
