package doctor

import (
	"sort"
	"strings"

	"github.com/carelens/carelens/pkg/geo"
)

// Apply filters the directory by query and, when origin is set, ranks the
// matches by distance. Doctors without a coordinate sort after every placed
// doctor; ties are ordered by id. Without an origin the directory order is
// kept.
func Apply(doctors []Doctor, origin *geo.Coordinate, query Query) []RankedDoctor {
	text := strings.ToLower(strings.TrimSpace(query.Text))
	specialization := strings.TrimSpace(query.Specialization)

	out := make([]RankedDoctor, 0, len(doctors))
	for _, d := range doctors {
		if text != "" && !matchesText(d, text) {
			continue
		}
		if specialization != "" && !strings.EqualFold(d.Specialization, specialization) {
			continue
		}
		r := RankedDoctor{Doctor: d}
		if origin != nil && d.Coordinate != nil {
			km := geo.RoundKm(geo.HaversineKm(*origin, *d.Coordinate))
			r.DistanceKm = &km
		}
		out = append(out, r)
	}

	if origin != nil {
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := out[i].DistanceKm, out[j].DistanceKm
			switch {
			case di == nil && dj == nil:
				return out[i].ID < out[j].ID
			case di == nil:
				return false
			case dj == nil:
				return true
			case *di != *dj:
				return *di < *dj
			}
			return out[i].ID < out[j].ID
		})
	}
	return out
}

func matchesText(d Doctor, text string) bool {
	for _, s := range []string{d.Name, d.Specialization, d.HospitalName, d.City} {
		if strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	return false
}
