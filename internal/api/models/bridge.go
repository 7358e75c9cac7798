package models

import (
	"github.com/carelens/carelens/internal/bp"
	"github.com/carelens/carelens/internal/chat"
	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/internal/emergency"
	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/internal/identity"
	"github.com/carelens/carelens/internal/location"
	"github.com/carelens/carelens/pkg/geo"
)

// LoginRequest is the body of POST /v1/session.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate returns the missing fields.
func (r LoginRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "required", Code: "REQUIRED"})
	}
	if r.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "required", Code: "REQUIRED"})
	}
	return errs
}

// RegisterRequest is the body of POST /v1/session/register.
type RegisterRequest struct {
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     identity.Role `json:"role,omitempty"`
	Phone    string        `json:"phone,omitempty"`
}

// Validate returns the missing or invalid fields.
func (r RegisterRequest) Validate() []FieldError {
	errs := LoginRequest{Email: r.Email, Password: r.Password}.Validate()
	if r.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required", Code: "REQUIRED"})
	}
	if r.Role != "" && r.Role != identity.RolePatient && r.Role != identity.RoleDoctor {
		errs = append(errs, FieldError{Field: "role", Message: "must be patient or doctor", Code: "INVALID"})
	}
	return errs
}

// SessionResponse describes the identity context.
type SessionResponse struct {
	Active    bool           `json:"active"`
	User      *identity.User `json:"user,omitempty"`
	ExpiresAt *Timestamp     `json:"expiresAt,omitempty"`
}

// HospitalsResponse is a hospital view plus the position it was ranked
// from, when the device location was used.
type HospitalsResponse struct {
	hospital.View
	Location *location.Fix `json:"location,omitempty"`
}

// DoctorsResponse is a doctor view plus the position it was ranked from,
// when the device location was used.
type DoctorsResponse struct {
	doctor.View
	Location *location.Fix `json:"location,omitempty"`
}

// DoctorProfileRequest is the body of PUT /v1/doctors/profile. Available
// defaults to true. Without a coordinate the live device position is used
// when there is one.
type DoctorProfileRequest struct {
	doctor.Profile
	Available *bool `json:"available,omitempty"`
}

// ToProfile applies the request defaults.
func (r DoctorProfileRequest) ToProfile() doctor.Profile {
	p := r.Profile
	p.Available = r.Available == nil || *r.Available
	return p
}

// DoctorProfileResponse is the signed-in doctor's profile and the choices
// offered when editing it.
type DoctorProfileResponse struct {
	Profile         doctor.Doctor `json:"profile"`
	Specializations []string      `json:"specializations"`
}

// ReferenceRangesResponse is the BP reference table.
type ReferenceRangesResponse struct {
	Ranges []bp.ReferenceRange `json:"ranges"`
}

// RecordsResponse lists BP records, newest first.
type RecordsResponse struct {
	Records []bp.Record `json:"records"`
}

// ChatView is the conversation plus the static choices the UI offers.
type ChatView struct {
	chat.Session
	Languages    []string `json:"languages"`
	QuickPrompts []string `json:"quick_prompts,omitempty"`
}

// ChatMessageRequest is the body of POST /v1/chat/messages.
type ChatMessageRequest struct {
	Message string `json:"message"`
}

// ChatMessageResponse is the reply appended by a send.
type ChatMessageResponse struct {
	Reply   chat.Message `json:"reply"`
	Session chat.Session `json:"session"`
}

// LanguageRequest is the body of PUT /v1/chat/language.
type LanguageRequest struct {
	Language string `json:"language"`
}

// ResumeRequest is the body of POST /v1/chat/resume.
type ResumeRequest struct {
	SessionID string `json:"session_id"`
}

// SessionsResponse lists past conversations.
type SessionsResponse struct {
	Sessions []chat.SessionSummary `json:"sessions"`
}

// EmergencyRequestBody is the body of POST /v1/emergency/requests.
// Origin is optional; without it the device location (or its fallback)
// is used.
type EmergencyRequestBody struct {
	emergency.Form
	Origin *geo.Coordinate `json:"origin,omitempty"`
}

// EmergencyInfo lists the emergency lines and request types.
type EmergencyInfo struct {
	Numbers []emergency.Number     `json:"numbers"`
	Types   []emergency.TypeOption `json:"types"`
}
