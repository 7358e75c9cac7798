package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carelens/carelens/internal/doctor"
	"github.com/carelens/carelens/pkg/geo"
)

type doctorWire struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	DoctorName      string   `json:"doctor_name"`
	Email           string   `json:"email"`
	Specialization  string   `json:"specialization"`
	Qualification   string   `json:"qualification"`
	ExperienceYears int      `json:"experience_years"`
	HospitalName    *string  `json:"hospital_name"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Lat             *float64 `json:"lat"`
	Lng             *float64 `json:"lng"`
	Phone           string   `json:"phone"`
	Available       bool     `json:"available"`
	ConsultationFee *int     `json:"consultation_fee"`
	Languages       []string `json:"languages"`
	Rating          float64  `json:"rating"`
	ReviewsCount    int      `json:"reviews_count"`
}

type profileWire struct {
	Specialization  string   `json:"specialization"`
	Qualification   string   `json:"qualification"`
	ExperienceYears int      `json:"experience_years"`
	HospitalName    *string  `json:"hospital_name,omitempty"`
	Address         string   `json:"address"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Lat             *float64 `json:"lat,omitempty"`
	Lng             *float64 `json:"lng,omitempty"`
	Phone           string   `json:"phone"`
	Available       bool     `json:"available"`
	ConsultationFee *int     `json:"consultation_fee,omitempty"`
	Languages       []string `json:"languages"`
}

type saveProfileResponse struct {
	Message   string `json:"message"`
	ProfileID string `json:"profile_id"`
}

func (d doctorWire) toDoctor() doctor.Doctor {
	out := doctor.Doctor{
		ID:              d.ID,
		UserID:          d.UserID,
		Name:            d.DoctorName,
		Email:           d.Email,
		Specialization:  d.Specialization,
		Qualification:   d.Qualification,
		ExperienceYears: d.ExperienceYears,
		Address:         d.Address,
		City:            d.City,
		State:           d.State,
		Phone:           d.Phone,
		Available:       d.Available,
		ConsultationFee: d.ConsultationFee,
		Languages:       d.Languages,
		Rating:          d.Rating,
		ReviewsCount:    d.ReviewsCount,
	}
	if d.HospitalName != nil {
		out.HospitalName = *d.HospitalName
	}
	if d.Lat != nil && d.Lng != nil {
		out.Coordinate = &geo.Coordinate{Lat: *d.Lat, Lon: *d.Lng}
	}
	if out.Languages == nil {
		out.Languages = []string{}
	}
	return out
}

// Doctors implements doctor.Provider.
func (c *Client) Doctors(ctx context.Context) ([]doctor.Doctor, error) {
	var resp []doctorWire
	err := c.do(ctx, call{
		op:     "doctors",
		method: http.MethodGet,
		path:   "/doctors",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toDoctors(resp), nil
}

// NearbyDoctors implements doctor.Provider. The server's distance_km is
// ignored; distances are recomputed by doctor.Apply.
func (c *Client) NearbyDoctors(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]doctor.Doctor, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(origin.Lon, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var resp []doctorWire
	err := c.do(ctx, call{
		op:     "doctors_nearby",
		method: http.MethodGet,
		path:   "/doctors/nearby",
		query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toDoctors(resp), nil
}

// DoctorProfile implements doctor.Provider. A doctor without a profile
// yields ErrNotFound.
func (c *Client) DoctorProfile(ctx context.Context) (doctor.Doctor, error) {
	var resp doctorWire
	err := c.do(ctx, call{
		op:     "doctor_profile",
		method: http.MethodGet,
		path:   "/doctors/profile",
		auth:   true,
	}, &resp)
	if err != nil {
		return doctor.Doctor{}, err
	}
	return resp.toDoctor(), nil
}

// SaveDoctorProfile implements doctor.Provider. The backend answers 403 for
// accounts that are not doctors.
func (c *Client) SaveDoctorProfile(ctx context.Context, p doctor.Profile) (string, error) {
	body := profileWire{
		Specialization:  p.Specialization,
		Qualification:   p.Qualification,
		ExperienceYears: p.ExperienceYears,
		Address:         p.Address,
		City:            p.City,
		State:           p.State,
		Phone:           p.Phone,
		Available:       p.Available,
		ConsultationFee: p.ConsultationFee,
		Languages:       p.Languages,
	}
	if p.HospitalName != "" {
		body.HospitalName = &p.HospitalName
	}
	if p.Coordinate != nil {
		lat, lng := p.Coordinate.Lat, p.Coordinate.Lon
		body.Lat, body.Lng = &lat, &lng
	}

	var resp saveProfileResponse
	err := c.do(ctx, call{
		op:     "doctor_profile_save",
		method: http.MethodPost,
		path:   "/doctors/profile",
		body:   body,
		auth:   true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ProfileID, nil
}

func toDoctors(in []doctorWire) []doctor.Doctor {
	out := make([]doctor.Doctor, 0, len(in))
	for _, d := range in {
		out = append(out, d.toDoctor())
	}
	return out
}

var _ doctor.Provider = (*Client)(nil)
