package platform_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/bp"
	"github.com/carelens/carelens/internal/chat"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/platform"
	"github.com/carelens/carelens/pkg/geo"
)

const testToken = "opaque-test-token"

// newTestClient starts server and returns a client with an active session.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*platform.Client, *identity.Session) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := &identity.Session{}
	require.NoError(t, sess.Begin(testToken, identity.User{ID: "usr-1", Name: "Priya"}))

	client := platform.NewClient(platform.ClientConfig{
		BaseURL:    server.URL + "/api",
		HTTPClient: http.DefaultClient,
		Session:    sess,
		Logger:     zerolog.Nop(),
	})
	return client, sess
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body
}

func TestClient_Login(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, "priya@example.com", body["email"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "tok-123",
			"user":  map[string]any{"id": "usr-1", "name": "Priya", "email": "priya@example.com", "role": "patient"},
		})
	}))
	defer server.Close()

	sess := &identity.Session{}
	client := platform.NewClient(platform.ClientConfig{
		BaseURL:    server.URL + "/api/",
		HTTPClient: http.DefaultClient,
		Session:    sess,
	})

	user, err := client.Login(context.Background(), platform.Credentials{Email: "priya@example.com", Password: "secret"})

	require.NoError(t, err)
	assert.Equal(t, "Priya", user.Name)
	assert.Equal(t, identity.RolePatient, user.Role)
	token, err := sess.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)

	client.Logout()
	assert.False(t, sess.Active())
}

func TestClient_LoginInvalidCredentials(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
	})

	_, err := client.Login(context.Background(), platform.Credentials{Email: "x", Password: "y"})

	assert.ErrorIs(t, err, platform.ErrUnauthorized)
	var apiErr *platform.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
}

func TestClient_RegisterDefaultsRole(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)
		body := decodeBody(t, r)
		assert.Equal(t, "patient", body["role"])
		writeJSON(t, w, http.StatusOK, map[string]any{
			"token": "tok-new",
			"user":  map[string]any{"id": "usr-2", "name": "Arun", "role": "patient"},
		})
	})

	user, err := client.Register(context.Background(), platform.Registration{Name: "Arun", Email: "a@b.c", Password: "pw"})

	require.NoError(t, err)
	assert.Equal(t, "usr-2", user.ID)
	assert.True(t, client.Session().Active())
}

func TestClient_Me(t *testing.T) {
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"id": "usr-1", "name": "Priya S", "email": "p@example.com", "role": "doctor", "phone": "+91 1",
		})
	})

	user, err := client.Me(context.Background())

	require.NoError(t, err)
	assert.Equal(t, identity.RoleDoctor, user.Role)
	assert.Equal(t, "+91 1", user.Phone)
	stored, _ := sess.User()
	assert.Equal(t, "Priya S", stored.Name)
}

func TestClient_AuthenticatedCallWithoutSession(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := platform.NewClient(platform.ClientConfig{BaseURL: server.URL, HTTPClient: http.DefaultClient})

	_, err := client.ListRecords(context.Background())

	assert.ErrorIs(t, err, identity.ErrNotAuthenticated)
	assert.False(t, called)
}

func TestClient_Nearby(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/hospitals/nearby", r.URL.Path)
		assert.Equal(t, "9.1742", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.8697", r.URL.Query().Get("lng"))
		assert.Equal(t, "200", r.URL.Query().Get("radius"))
		writeJSON(t, w, http.StatusOK, []map[string]any{{
			"id": "h1", "name": "Government Hospital Kovilpatti", "type": "Government",
			"city": "Kovilpatti", "state": "Tamil Nadu", "lat": 9.1742, "lng": 77.8697,
			"emergency": true, "ambulance": true, "specialties": []string{"Pediatrics"},
			"rating": 4.0, "beds": 200, "distance_km": 0.0,
		}})
	})

	hs, err := client.Nearby(context.Background(), geo.Coordinate{Lat: 9.1742, Lon: 77.8697}, 200)

	require.NoError(t, err)
	require.Len(t, hs, 1)
	assert.Equal(t, "h1", hs[0].ID)
	assert.Equal(t, 77.8697, hs[0].Coordinate.Lon)
	assert.True(t, hs[0].Ambulance)
	require.NotNil(t, hs[0].Beds)
	assert.Equal(t, 200, *hs[0].Beds)
}

func TestClient_AllAndByCity(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/hospitals":
			writeJSON(t, w, http.StatusOK, []map[string]any{{"id": "h1", "name": "A"}, {"id": "h2", "name": "B"}})
		case "/api/hospitals/by-city":
			assert.Equal(t, "Madurai", r.URL.Query().Get("city"))
			writeJSON(t, w, http.StatusOK, map[string]any{
				"city": "Madurai", "count": 1,
				"hospitals": []map[string]any{{"id": "h3", "name": "Meenakshi Mission Hospital"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	all, err := client.All(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.NotNil(t, all[0].Specialties)

	city, err := client.ByCity(context.Background(), "Madurai")
	require.NoError(t, err)
	require.Len(t, city, 1)
	assert.Equal(t, "h3", city[0].ID)
}

func TestClient_NearbyDoctors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/doctors/nearby", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "9.1742", r.URL.Query().Get("lat"))
		assert.Equal(t, "30", r.URL.Query().Get("radius"))
		writeJSON(t, w, http.StatusOK, []map[string]any{{
			"id": "d1", "user_id": "seed_doc_1", "doctor_name": "Dr. Anitha Krishnan",
			"specialization": "General Medicine", "qualification": "MBBS, MD", "experience_years": 12,
			"hospital_name": "Government Hospital Kovilpatti", "city": "Kovilpatti", "state": "Tamil Nadu",
			"lat": 9.1742, "lng": 77.8697, "available": true, "consultation_fee": 200,
			"languages": []string{"Tamil", "English"}, "rating": 4.6, "reviews_count": 45, "distance_km": 0.0,
		}})
	})

	ds, err := client.NearbyDoctors(context.Background(), geo.Coordinate{Lat: 9.1742, Lon: 77.8697}, 30)

	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "Dr. Anitha Krishnan", ds[0].Name)
	assert.Equal(t, "Government Hospital Kovilpatti", ds[0].HospitalName)
	require.NotNil(t, ds[0].Coordinate)
	assert.Equal(t, 77.8697, ds[0].Coordinate.Lon)
	require.NotNil(t, ds[0].ConsultationFee)
	assert.Equal(t, 200, *ds[0].ConsultationFee)
}

func TestClient_DoctorsWithoutCoordinates(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/doctors", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []map[string]any{{"id": "d2", "doctor_name": "Dr. Tele", "lat": nil}})
	})

	ds, err := client.Doctors(context.Background())

	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Nil(t, ds[0].Coordinate)
	assert.Empty(t, ds[0].HospitalName)
	assert.NotNil(t, ds[0].Languages)
}

func TestClient_SaveDoctorProfile(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/doctors/profile", r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		body := decodeBody(t, r)
		assert.Equal(t, "Cardiology", body["specialization"])
		assert.Equal(t, 9.1785, body["lat"])
		assert.NotContains(t, body, "hospital_name")
		writeJSON(t, w, http.StatusOK, map[string]any{"message": "Profile saved", "profile_id": "prof-9"})
	})

	id, err := client.SaveDoctorProfile(context.Background(), doctor.Profile{
		Specialization: "Cardiology",
		Coordinate:     &geo.Coordinate{Lat: 9.1785, Lon: 77.8620},
		Languages:      []string{"Tamil"},
	})

	require.NoError(t, err)
	assert.Equal(t, "prof-9", id)
}

func TestClient_DoctorProfileForbidden(t *testing.T) {
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{"detail": "Only doctors can create profiles"})
	})

	_, err := client.SaveDoctorProfile(context.Background(), doctor.Profile{})

	assert.ErrorIs(t, err, platform.ErrForbidden)
	assert.ErrorIs(t, err, identity.ErrForbidden)
	assert.True(t, sess.Active())
}

func TestClient_SubmitReading(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bp/record", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body := decodeBody(t, r)
		assert.Equal(t, float64(128), body["systolic"])
		assert.Nil(t, body["notes"])
		assert.Nil(t, body["pulse"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"id": "rec-1", "user_id": "usr-1", "systolic": 128, "diastolic": 82,
			"pulse": nil, "notes": nil, "recorded_at": "2026-03-01T08:15:00.123456+00:00",
			"status": "normal",
		})
	})

	rec, err := client.SubmitReading(context.Background(), bp.Reading{Systolic: 128, Diastolic: 82})

	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, bp.CategoryElevated, rec.Status, "status derived locally")
	assert.Equal(t, 2026, rec.RecordedAt.Year())
	assert.Nil(t, rec.Pulse)
}

func TestClient_ListRecords(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/bp/records", r.URL.Path)
		writeJSON(t, w, http.StatusOK, []map[string]any{
			{"id": "r2", "systolic": 150, "diastolic": 95, "pulse": 80, "notes": "tired", "recorded_at": "2026-03-02T08:00:00+00:00", "status": "high"},
			{"id": "r1", "systolic": 110, "diastolic": 70, "recorded_at": "2026-03-01T08:00:00+00:00", "status": "normal"},
		})
	})

	records, err := client.ListRecords(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "tired", records[0].Notes)
	require.NotNil(t, records[0].Pulse)
	assert.Equal(t, 80, *records[0].Pulse)
	assert.Equal(t, bp.CategoryNormal, records[1].Status)
}

func TestClient_Exchange(t *testing.T) {
	var sessionIDs []any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat/message", r.URL.Path)
		body := decodeBody(t, r)
		sessionIDs = append(sessionIDs, body["session_id"])
		assert.Equal(t, "Tamil", body["language"])
		writeJSON(t, w, http.StatusOK, map[string]string{"response": "Vanakkam!", "session_id": "chat_usr-1_abcd1234"})
	})

	reply, err := client.Exchange(context.Background(), chat.ExchangeRequest{Message: "hi", Language: "Tamil"})
	require.NoError(t, err)
	assert.Equal(t, "Vanakkam!", reply.Response)
	assert.Equal(t, "chat_usr-1_abcd1234", reply.SessionID)

	_, err = client.Exchange(context.Background(), chat.ExchangeRequest{Message: "again", Language: "Tamil", SessionID: reply.SessionID})
	require.NoError(t, err)

	require.Len(t, sessionIDs, 2)
	assert.Nil(t, sessionIDs[0])
	assert.Equal(t, "chat_usr-1_abcd1234", sessionIDs[1])
}

func TestClient_HistoryAndSessions(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat/history":
			assert.Equal(t, "s1", r.URL.Query().Get("session_id"))
			writeJSON(t, w, http.StatusOK, []map[string]any{
				{"session_id": "s1", "role": "user", "content": "q", "timestamp": "2026-03-01T08:00:00+00:00"},
				{"session_id": "s1", "role": "assistant", "content": "a", "timestamp": "2026-03-01T08:00:00+00:00"},
			})
		case "/api/chat/sessions":
			writeJSON(t, w, http.StatusOK, []map[string]any{
				{"session_id": "s1", "last_message": "a", "timestamp": "2026-03-01T08:00:00+00:00", "message_count": 2},
			})
		}
	})

	msgs, err := client.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, chat.RoleUser, msgs[0].Role)
	assert.Equal(t, chat.RoleAssistant, msgs[1].Role)

	sessions, err := client.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].MessageCount)
}

func TestClient_RequestAmbulance(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ambulance/request", r.URL.Path)
		assert.Equal(t, "client-1", r.Header.Get("Idempotency-Key"))
		body := decodeBody(t, r)
		assert.Equal(t, 9.1742, body["lat"])
		assert.Equal(t, 77.8697, body["lng"])
		assert.Equal(t, "cardiac", body["emergency_type"])
		assert.Equal(t, "Ravi", body["patient_name"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"id": "amb-1", "status": "dispatched", "eta_minutes": 8,
			"created_at": "2026-03-01T08:00:00+00:00",
		})
	})

	d, err := client.RequestAmbulance(context.Background(), emergency.Submission{
		ClientID:    "client-1",
		Origin:      geo.Coordinate{Lat: 9.1742, Lon: 77.8697},
		PatientName: "Ravi",
		Phone:       "108",
		Type:        emergency.TypeCardiac,
	})

	require.NoError(t, err)
	assert.Equal(t, "amb-1", d.ID)
	require.NotNil(t, d.ETAMinutes)
	assert.Equal(t, 8, *d.ETAMinutes)
	assert.Equal(t, "dispatched", d.Status)
}

func TestClient_DashboardStats(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/stats", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"bp_readings": 3, "ai_consultations": 5, "hospitals_nearby": 0,
			"latest_bp": map[string]any{"id": "r1", "systolic": 135, "diastolic": 85, "recorded_at": "2026-03-01T08:00:00+00:00"},
		})
	})

	stats, err := client.DashboardStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.BPReadings)
	assert.Equal(t, 5, stats.AIConsultations)
	require.NotNil(t, stats.LatestBP)
	assert.Equal(t, bp.CategoryHigh, stats.LatestBP.Status)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		detail string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Token expired"}`, platform.ErrUnauthorized, "Token expired"},
		{"forbidden", http.StatusForbidden, `{"detail":"Only doctors can create profiles"}`, platform.ErrForbidden, "Only doctors can create profiles"},
		{"not found", http.StatusNotFound, `{"detail":"Profile not found"}`, platform.ErrNotFound, "Profile not found"},
		{"bad request", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","systolic"]}]}`, platform.ErrBadRequest, `[{"loc":["body","systolic"]}]`},
		{"server error", http.StatusInternalServerError, "AI service error", platform.ErrUnavailable, "AI service error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.ListRecords(context.Background())

			assert.ErrorIs(t, err, tt.want)
			var apiErr *platform.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.detail, apiErr.Detail)
		})
	}
}

func TestClient_UnauthorizedEndsSession(t *testing.T) {
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"detail": "Token expired"})
	})

	_, err := client.Sessions(context.Background())

	assert.True(t, identity.IsAuthError(err))
	assert.False(t, sess.Active())
}

func TestClient_ForbiddenIsAuthError(t *testing.T) {
	client, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.DashboardStats(context.Background())

	assert.True(t, identity.IsAuthError(err))
	assert.True(t, sess.Active(), "forbidden keeps the session")
}

func TestClient_NetworkFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := platform.NewClient(platform.ClientConfig{BaseURL: url, HTTPClient: http.DefaultClient})

	_, err := client.All(context.Background())

	assert.ErrorIs(t, err, platform.ErrUnavailable)
	assert.False(t, identity.IsAuthError(err))
}

func TestClient_DefaultResilientClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []any{})
	}))
	defer server.Close()

	noRetries := uint64(0)
	client := platform.NewClient(platform.ClientConfig{
		BaseURL:    server.URL,
		Timeout:    2 * time.Second,
		MaxRetries: &noRetries,
	})

	_, err := client.All(context.Background())
	require.NoError(t, err)

	health, ok := client.Health()
	require.True(t, ok)
	assert.Equal(t, platform.ProviderName, health.Name)
	assert.True(t, health.IsHealthy())
	assert.Equal(t, uint32(1), health.Requests)

	custom := platform.NewClient(platform.ClientConfig{HTTPClient: http.DefaultClient})
	_, ok = custom.Health()
	assert.False(t, ok)
}
