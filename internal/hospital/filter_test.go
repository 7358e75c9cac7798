package hospital_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carelens/carelens/internal/hospital"
	"github.com/carelens/carelens/pkg/geo"
)

var kovilpatti = geo.Coordinate{Lat: 9.1742, Lon: 77.8697}

func testCatalog() []hospital.Hospital {
	return []hospital.Hospital{
		{
			ID: "h-madurai", Name: "Government Rajaji Hospital", Type: hospital.TypeGovernment,
			City: "Madurai", Coordinate: geo.Coordinate{Lat: 9.9195, Lon: 78.1270},
			Emergency: true, Ambulance: true, Specialties: []string{"Emergency", "Orthopedics"},
		},
		{
			ID: "h-apollo", Name: "Apollo Clinic Kovilpatti", Type: hospital.TypePrivate,
			City: "Kovilpatti", Coordinate: geo.Coordinate{Lat: 9.1710, Lon: 77.8750},
			Specialties: []string{"General Medicine", "Dermatology", "ENT"},
		},
		{
			ID: "h-gh", Name: "Government Hospital Kovilpatti", Type: hospital.TypeGovernment,
			City: "Kovilpatti", Coordinate: geo.Coordinate{Lat: 9.1742, Lon: 77.8697},
			Emergency: true, Ambulance: true, Specialties: []string{"General Medicine", "Pediatrics"},
		},
		{
			ID: "h-csi", Name: "CSI Hospital Thoothukudi", Type: hospital.TypePrivate,
			City: "Thoothukudi", Coordinate: geo.Coordinate{Lat: 8.7800, Lon: 78.1200},
			Emergency: true, Ambulance: true, Specialties: []string{"Cardiology", "Neurology"},
		},
	}
}

func ids(hs []hospital.RankedHospital) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.ID
	}
	return out
}

func TestApply_NoOriginKeepsCatalogOrder(t *testing.T) {
	got := hospital.Apply(testCatalog(), nil, hospital.Query{})

	assert.Equal(t, []string{"h-madurai", "h-apollo", "h-gh", "h-csi"}, ids(got))
	for _, h := range got {
		assert.Nil(t, h.DistanceKm)
	}
}

func TestApply_RanksByDistance(t *testing.T) {
	origin := kovilpatti
	got := hospital.Apply(testCatalog(), &origin, hospital.Query{})

	require.Len(t, got, 4)
	assert.Equal(t, []string{"h-gh", "h-apollo", "h-csi", "h-madurai"}, ids(got))
	assert.Equal(t, 0.0, *got[0].DistanceKm)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, *got[i-1].DistanceKm, *got[i].DistanceKm)
	}
	// Rounded to one decimal.
	for _, h := range got {
		d := *h.DistanceKm
		assert.InDelta(t, d, float64(int(d*10+0.5))/10, 1e-9)
	}
}

func TestApply_TieBrokenByID(t *testing.T) {
	same := geo.Coordinate{Lat: 9.2, Lon: 77.9}
	catalog := []hospital.Hospital{
		{ID: "c", Name: "C", Coordinate: same},
		{ID: "a", Name: "A", Coordinate: same},
		{ID: "b", Name: "B", Coordinate: same},
	}
	origin := kovilpatti

	got := hospital.Apply(catalog, &origin, hospital.Query{})

	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestApply_Predicates(t *testing.T) {
	tests := []struct {
		name  string
		query hospital.Query
		want  []string
	}{
		{"text matches name", hospital.Query{Text: "apollo"}, []string{"h-apollo"}},
		{"text matches city", hospital.Query{Text: "KOVILPATTI"}, []string{"h-apollo", "h-gh"}},
		{"text matches specialty", hospital.Query{Text: "cardio"}, []string{"h-csi"}},
		{"text trimmed", hospital.Query{Text: "  madurai "}, []string{"h-madurai"}},
		{"type filter", hospital.Query{Type: hospital.TypePrivate}, []string{"h-apollo", "h-csi"}},
		{"type all", hospital.Query{Type: hospital.TypeAll}, []string{"h-madurai", "h-apollo", "h-gh", "h-csi"}},
		{"ambulance toggle", hospital.Query{AmbulanceOnly: true}, []string{"h-madurai", "h-gh", "h-csi"}},
		{
			"all predicates",
			hospital.Query{Text: "general medicine", Type: hospital.TypeGovernment, AmbulanceOnly: true},
			[]string{"h-gh"},
		},
		{"no match", hospital.Query{Text: "oncology"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(hospital.Apply(testCatalog(), nil, tt.query)))
		})
	}
}

func TestApply_PredicatesCommute(t *testing.T) {
	catalog := testCatalog()
	text := hospital.Apply(catalog, nil, hospital.Query{Text: "kovilpatti"})
	var textThenAmb []hospital.Hospital
	for _, h := range text {
		textThenAmb = append(textThenAmb, h.Hospital)
	}
	combined := hospital.Apply(textThenAmb, nil, hospital.Query{AmbulanceOnly: true})

	assert.Equal(t, ids(combined), ids(hospital.Apply(catalog, nil, hospital.Query{Text: "kovilpatti", AmbulanceOnly: true})))
}

func TestApply_IdempotentAndPure(t *testing.T) {
	catalog := testCatalog()
	before := testCatalog()
	origin := kovilpatti
	q := hospital.Query{Text: "hospital"}

	first := hospital.Apply(catalog, &origin, q)
	second := hospital.Apply(catalog, &origin, q)

	assert.Equal(t, first, second)
	assert.Equal(t, before, catalog)
}

func TestParseType(t *testing.T) {
	typ, ok := hospital.ParseType("government")
	assert.True(t, ok)
	assert.Equal(t, hospital.TypeGovernment, typ)

	typ, ok = hospital.ParseType("")
	assert.True(t, ok)
	assert.Equal(t, hospital.TypeAll, typ)

	_, ok = hospital.ParseType("clinic")
	assert.False(t, ok)
}
