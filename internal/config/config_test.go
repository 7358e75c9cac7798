package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/config"
)

var keys = []string{
	"APP_ENV", "APP_PORT", "LOG_LEVEL",
	"CARELENS_API_URL", "CARELENS_API_TIMEOUT", "CARELENS_API_MAX_RETRIES", "CARELENS_TOKEN",
	"CARELENS_FALLBACK_LAT", "CARELENS_FALLBACK_LNG", "CARELENS_FALLBACK_NAME",
	"CARELENS_LOCATION_TIMEOUT", "CARELENS_LOCATION_VALIDITY",
	"CARELENS_DEVICE_LAT", "CARELENS_DEVICE_LNG",
	"CARELENS_NEARBY_RADIUS_KM", "CARELENS_DOCTOR_RADIUS_KM", "CARELENS_CATALOG_TTL",
	"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"PUBSUB_PROJECT_ID", "PUBSUB_DISPATCH_TOPIC",
}

// clearEnv unsets every config variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://localhost:8001/api", cfg.APIURL)
	assert.Equal(t, 10*time.Second, cfg.APITimeout)
	assert.Equal(t, uint64(2), cfg.APIMaxRetries)
	assert.Equal(t, config.DefaultFallbackName, cfg.Fallback.Name)
	assert.Equal(t, 9.1742, cfg.Fallback.Coordinate.Lat)
	assert.Equal(t, 77.8697, cfg.Fallback.Coordinate.Lon)
	assert.Equal(t, 2*time.Minute, cfg.LocationValidity)
	assert.Equal(t, 200.0, cfg.NearbyRadiusKm)
	assert.Equal(t, 30.0, cfg.DoctorNearbyRadiusKm)
	assert.Equal(t, 5*time.Minute, cfg.CatalogTTL)
	assert.Nil(t, cfg.Device)
	assert.False(t, cfg.OTelEnabled)
	assert.False(t, cfg.PubSubEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("CARELENS_API_URL", "https://api.carelens.example/api")
	t.Setenv("CARELENS_API_MAX_RETRIES", "0")
	t.Setenv("CARELENS_FALLBACK_NAME", "Madurai")
	t.Setenv("CARELENS_FALLBACK_LAT", "9.9252")
	t.Setenv("CARELENS_FALLBACK_LNG", "78.1198")
	t.Setenv("CARELENS_DEVICE_LAT", "13.0627")
	t.Setenv("CARELENS_DEVICE_LNG", "80.2536")
	t.Setenv("CARELENS_NEARBY_RADIUS_KM", "50")
	t.Setenv("CARELENS_DOCTOR_RADIUS_KM", "15")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("PUBSUB_PROJECT_ID", "carelens-prod")

	cfg, err := config.FromEnv()

	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, uint64(0), cfg.APIMaxRetries)
	assert.Equal(t, "Madurai", cfg.Fallback.Name)
	require.NotNil(t, cfg.Device)
	assert.Equal(t, 13.0627, cfg.Device.Lat)
	assert.Equal(t, 50.0, cfg.NearbyRadiusKm)
	assert.Equal(t, 15.0, cfg.DoctorNearbyRadiusKm)
	assert.True(t, cfg.OTelEnabled)
	assert.True(t, cfg.PubSubEnabled())
	assert.Equal(t, "ambulance-dispatch", cfg.PubSubDispatchTopic)
}

func TestFromEnv_ReportsEveryError(t *testing.T) {
	clearEnv(t)
	t.Setenv("CARELENS_API_TIMEOUT", "soon")
	t.Setenv("CARELENS_FALLBACK_LAT", "123")
	t.Setenv("CARELENS_DEVICE_LAT", "1")
	t.Setenv("APP_PORT", "http")

	_, err := config.FromEnv()

	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "CARELENS_API_TIMEOUT")
	assert.Contains(t, msg, "must be set together")
	assert.Contains(t, msg, "fallback location")
	assert.Contains(t, msg, "APP_PORT")
}

func TestLoad_DotEnvFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_PORT", "9090")

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nCARELENS_FALLBACK_NAME=Tirunelveli\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CARELENS_FALLBACK_NAME") })

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port, "environment wins over the file")
	assert.Equal(t, "Tirunelveli", cfg.Fallback.Name)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)

	_, err := config.Load(filepath.Join(t.TempDir(), "absent.env"))

	assert.NoError(t, err)
}
