// Package platform is the client for the CareLens backend REST API. The
// Client implements the provider interfaces of the hospital, bp, chat and
// emergency packages.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/provider/resilience"
	"github.com/carelens/carelens/internal/telemetry"
)

const (
	// DefaultBaseURL is the base URL of a locally running backend.
	DefaultBaseURL = "http://localhost:8001/api"

	// ProviderName identifies the backend in health reports.
	ProviderName = "carelens-api"

	tracerName = "github.com/carelens/carelens/internal/platform"

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 4 << 10
)

// Backend errors. Authorization errors wrap the identity errors so that
// callers can use identity.IsAuthError.
var (
	ErrUnauthorized = fmt.Errorf("platform: unauthorized: %w", identity.ErrNotAuthenticated)
	ErrForbidden    = fmt.Errorf("platform: %w", identity.ErrForbidden)
	ErrNotFound     = errors.New("platform: not found")
	ErrBadRequest   = errors.New("platform: bad request")
	ErrUnavailable  = errors.New("platform: unavailable")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("platform: status %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("platform: status %d", e.StatusCode)
}

// Unwrap maps the status code to one of the backend errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case e.StatusCode >= 500:
		return ErrUnavailable
	case e.StatusCode >= 400:
		return ErrBadRequest
	default:
		return nil
	}
}

// HTTPDoer abstracts HTTP request execution.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the API base URL including the /api prefix (defaults to DefaultBaseURL).
	BaseURL string

	// HTTPClient is the HTTP client to use.
	// If nil, a default resilient client will be created.
	HTTPClient HTTPDoer

	// Timeout for individual API requests (default: 10s).
	Timeout time.Duration

	// MaxRetries for transient failures of the default client (default: 2).
	MaxRetries *uint64

	// Session supplies the bearer token. Login and Register begin it.
	Session *identity.Session

	// Logger for client operations.
	Logger zerolog.Logger

	// Metrics records call durations. Optional.
	Metrics *telemetry.ClientMetrics
}

// Client is the CareLens backend client.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	resilient  *resilience.Client
	session    *identity.Session
	logger     zerolog.Logger
	metrics    *telemetry.ClientMetrics
	tracer     trace.Tracer
}

// NewClient creates a new backend client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	var resilient *resilience.Client
	if httpClient == nil {
		rcfg := resilience.DefaultClientConfig(ProviderName)
		if cfg.Timeout > 0 {
			rcfg.Timeout = cfg.Timeout
		}
		if cfg.MaxRetries != nil {
			rcfg.MaxRetries = *cfg.MaxRetries
		}
		rcfg.Logger = cfg.Logger
		resilient = resilience.NewClient(rcfg)
		httpClient = resilient
	}
	if rc, ok := httpClient.(*resilience.Client); ok {
		resilient = rc
	}

	session := cfg.Session
	if session == nil {
		session = &identity.Session{}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		resilient:  resilient,
		session:    session,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		tracer:     telemetry.Tracer(tracerName),
	}
}

// Session returns the identity session the client authenticates with.
func (c *Client) Session() *identity.Session {
	return c.session
}

// Health reports the circuit breaker state of the backend connection.
// ok is false when the client was built with a custom HTTPDoer.
func (c *Client) Health() (resilience.Health, bool) {
	if c.resilient == nil {
		return resilience.Health{}, false
	}
	return c.resilient.Health(), true
}

// call describes one API request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
	header http.Header
}

// do executes a call and decodes a 2xx JSON body into out (if non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "platform."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", cl.method),
			attribute.String("url.path", cl.path),
		),
	)
	start := time.Now()
	status := 0
	defer func() {
		c.metrics.RecordCall(ctx, cl.op, status, time.Since(start))
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", cl.op, ctxErr)
		}
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, cl.op, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: readDetail(resp.Body)}
		if resp.StatusCode == http.StatusUnauthorized && cl.auth {
			c.session.End()
		}
		c.logger.Debug().
			Str("op", cl.op).
			Int("status", resp.StatusCode).
			Str("detail", apiErr.Detail).
			Msg("platform call failed")
		return fmt.Errorf("%s: %w", cl.op, apiErr)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", cl.op, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader = http.NoBody
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", cl.op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range cl.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	if cl.auth {
		token, err := c.session.Token()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cl.op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// readDetail extracts the error message of a backend error body, which is
// either {"detail": "..."} or plain text.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(data, &body) == nil && len(body.Detail) > 0 {
		var s string
		if json.Unmarshal(body.Detail, &s) == nil {
			return s
		}
		return string(body.Detail)
	}
	return strings.TrimSpace(string(data))
}
