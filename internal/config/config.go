// Package config loads the bridge configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/pkg/geo"
)

// Default fallback place.
const (
	DefaultFallbackName = "Kovilpatti, Tamil Nadu"
	DefaultFallbackLat  = 9.1742
	DefaultFallbackLng  = 77.8697
)

// Config holds the bridge configuration.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	APIURL        string
	APITimeout    time.Duration
	APIMaxRetries uint64

	// Token restores a session at startup. Optional.
	Token string

	Fallback         location.Place
	LocationTimeout  time.Duration
	LocationValidity time.Duration

	// Device is the static device position, if the host has one.
	Device *geo.Coordinate

	NearbyRadiusKm       float64
	DoctorNearbyRadiusKm float64
	CatalogTTL           time.Duration

	OTelEnabled  bool
	OTLPEndpoint string

	PubSubProjectID     string
	PubSubDispatchTopic string
}

// Load reads a .env file if one exists, then builds the configuration from
// the environment. Variables already set take precedence over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from environment variables and validates
// it. Every invalid variable is reported.
func FromEnv() (Config, error) {
	p := &parser{}

	cfg := Config{
		Env:      getEnvOrDefault("APP_ENV", "development"),
		Port:     getEnvOrDefault("APP_PORT", "8080"),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),

		APIURL:        getEnvOrDefault("CARELENS_API_URL", "http://localhost:8001/api"),
		APITimeout:    p.duration("CARELENS_API_TIMEOUT", "10s"),
		APIMaxRetries: p.uint("CARELENS_API_MAX_RETRIES", "2"),
		Token:         os.Getenv("CARELENS_TOKEN"),

		Fallback: location.Place{
			Name: getEnvOrDefault("CARELENS_FALLBACK_NAME", DefaultFallbackName),
			Coordinate: geo.Coordinate{
				Lat: p.float("CARELENS_FALLBACK_LAT", strconv.FormatFloat(DefaultFallbackLat, 'f', -1, 64)),
				Lon: p.float("CARELENS_FALLBACK_LNG", strconv.FormatFloat(DefaultFallbackLng, 'f', -1, 64)),
			},
		},
		LocationTimeout:  p.duration("CARELENS_LOCATION_TIMEOUT", "10s"),
		LocationValidity: p.duration("CARELENS_LOCATION_VALIDITY", "2m"),

		NearbyRadiusKm:       p.float("CARELENS_NEARBY_RADIUS_KM", "200"),
		DoctorNearbyRadiusKm: p.float("CARELENS_DOCTOR_RADIUS_KM", "30"),
		CatalogTTL:           p.duration("CARELENS_CATALOG_TTL", "5m"),

		OTelEnabled:  os.Getenv("OTEL_ENABLED") == "true",
		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),

		PubSubProjectID:     os.Getenv("PUBSUB_PROJECT_ID"),
		PubSubDispatchTopic: getEnvOrDefault("PUBSUB_DISPATCH_TOPIC", "ambulance-dispatch"),
	}

	lat, hasLat := os.LookupEnv("CARELENS_DEVICE_LAT")
	lng, hasLng := os.LookupEnv("CARELENS_DEVICE_LNG")
	switch {
	case hasLat && hasLng:
		cfg.Device = &geo.Coordinate{
			Lat: p.float("CARELENS_DEVICE_LAT", lat),
			Lon: p.float("CARELENS_DEVICE_LNG", lng),
		}
	case hasLat || hasLng:
		p.errs = append(p.errs, errors.New("CARELENS_DEVICE_LAT and CARELENS_DEVICE_LNG must be set together"))
	}

	if err := cfg.validate(); err != nil {
		p.errs = append(p.errs, err)
	}
	if err := errors.Join(p.errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether the bridge runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// PubSubEnabled reports whether dispatch events are published.
func (c Config) PubSubEnabled() bool {
	return c.PubSubProjectID != ""
}

func (c Config) validate() error {
	var errs []error
	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("APP_PORT: %q is not a port", c.Port))
	}
	if u, err := url.Parse(c.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("CARELENS_API_URL: %q is not an absolute URL", c.APIURL))
	}
	if err := c.Fallback.Coordinate.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fallback location: %w", err))
	}
	if c.Device != nil {
		if err := c.Device.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("device location: %w", err))
		}
	}
	if c.NearbyRadiusKm <= 0 {
		errs = append(errs, errors.New("CARELENS_NEARBY_RADIUS_KM must be positive"))
	}
	if c.DoctorNearbyRadiusKm <= 0 {
		errs = append(errs, errors.New("CARELENS_DOCTOR_RADIUS_KM must be positive"))
	}
	if c.APITimeout <= 0 || c.LocationTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	return errors.Join(errs...)
}

// parser collects conversion errors so that all of them are reported.
type parser struct {
	errs []error
}

func (p *parser) duration(key, def string) time.Duration {
	v := getEnvOrDefault(key, def)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return d
}

func (p *parser) float(key, def string) float64 {
	v := getEnvOrDefault(key, def)
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return f
}

func (p *parser) uint(key, def string) uint64 {
	v := getEnvOrDefault(key, def)
	n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
	}
	return n
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
