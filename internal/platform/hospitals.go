package platform

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/pkg/geo"
)

type hospitalWire struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Address     string   `json:"address"`
	Lat         float64  `json:"lat"`
	Lng         float64  `json:"lng"`
	Phone       string   `json:"phone"`
	Emergency   bool     `json:"emergency"`
	Ambulance   bool     `json:"ambulance"`
	Specialties []string `json:"specialties"`
	Rating      float64  `json:"rating"`
	Beds        *int     `json:"beds"`
}

type byCityResponse struct {
	City      string         `json:"city"`
	Count     int            `json:"count"`
	Hospitals []hospitalWire `json:"hospitals"`
}

// Nearby implements hospital.Provider. The server's distance_km is ignored;
// distances are recomputed by hospital.Apply.
func (c *Client) Nearby(ctx context.Context, origin geo.Coordinate, radiusKm float64) ([]hospital.Hospital, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(origin.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(origin.Lon, 'f', -1, 64))
	q.Set("radius", strconv.FormatFloat(radiusKm, 'f', -1, 64))

	var resp []hospitalWire
	err := c.do(ctx, call{
		op:     "hospitals_nearby",
		method: http.MethodGet,
		path:   "/hospitals/nearby",
		query:  q,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toHospitals(resp), nil
}

// All implements hospital.Provider.
func (c *Client) All(ctx context.Context) ([]hospital.Hospital, error) {
	var resp []hospitalWire
	err := c.do(ctx, call{
		op:     "hospitals",
		method: http.MethodGet,
		path:   "/hospitals",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toHospitals(resp), nil
}

// ByCity implements hospital.Provider.
func (c *Client) ByCity(ctx context.Context, city string) ([]hospital.Hospital, error) {
	var resp byCityResponse
	err := c.do(ctx, call{
		op:     "hospitals_by_city",
		method: http.MethodGet,
		path:   "/hospitals/by-city",
		query:  url.Values{"city": {city}},
	}, &resp)
	if err != nil {
		return nil, err
	}
	return toHospitals(resp.Hospitals), nil
}

func toHospitals(in []hospitalWire) []hospital.Hospital {
	out := make([]hospital.Hospital, 0, len(in))
	for _, h := range in {
		specialties := h.Specialties
		if specialties == nil {
			specialties = []string{}
		}
		out = append(out, hospital.Hospital{
			ID:          h.ID,
			Name:        h.Name,
			Type:        hospital.Type(h.Type),
			City:        h.City,
			State:       h.State,
			Address:     h.Address,
			Coordinate:  geo.Coordinate{Lat: h.Lat, Lon: h.Lng},
			Phone:       h.Phone,
			Emergency:   h.Emergency,
			Ambulance:   h.Ambulance,
			Specialties: specialties,
			Rating:      h.Rating,
			Beds:        h.Beds,
		})
	}
	return out
}

var _ hospital.Provider = (*Client)(nil)
