package hospital

import (
	"sort"
	"strings"

	"github.com/carelens/carelens/pkg/geo"
)

// Apply filters the catalog by query and, when origin is set, ranks the
// matches by distance. Equal distances are ordered by id. Without an origin
// the catalog order is kept and no distance is attached. Apply does not
// modify catalog and returns the same result for the same arguments.
func Apply(catalog []Hospital, origin *geo.Coordinate, query Query) []RankedHospital {
	match := query.matcher()

	out := make([]RankedHospital, 0, len(catalog))
	for _, h := range catalog {
		if !match(h) {
			continue
		}
		r := RankedHospital{Hospital: h}
		if origin != nil {
			d := geo.RoundKm(geo.HaversineKm(*origin, h.Coordinate))
			r.DistanceKm = &d
		}
		out = append(out, r)
	}

	if origin != nil {
		sort.SliceStable(out, func(i, j int) bool {
			di, dj := *out[i].DistanceKm, *out[j].DistanceKm
			if di != dj {
				return di < dj
			}
			return out[i].ID < out[j].ID
		})
	}
	return out
}

// matcher returns the conjunction of the active predicates.
func (q Query) matcher() func(Hospital) bool {
	text := strings.ToLower(strings.TrimSpace(q.Text))
	typ := q.Type
	if typ == "" {
		typ = TypeAll
	}

	return func(h Hospital) bool {
		if text != "" && !matchesText(h, text) {
			return false
		}
		if typ != TypeAll && !strings.EqualFold(string(h.Type), string(typ)) {
			return false
		}
		if q.AmbulanceOnly && !h.Ambulance {
			return false
		}
		return true
	}
}

func matchesText(h Hospital, text string) bool {
	if strings.Contains(strings.ToLower(h.Name), text) ||
		strings.Contains(strings.ToLower(h.City), text) {
		return true
	}
	for _, s := range h.Specialties {
		if strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	return false
}

// ParseType parses a facility type filter. Unknown values are rejected.
func ParseType(s string) (Type, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return TypeAll, true
	case "government":
		return TypeGovernment, true
	case "private":
		return TypePrivate, true
	default:
		return "", false
	}
}
