package doctor

import (
	"fmt"
	"strings"
)

// Normalize trims the text fields, drops blank and repeated languages and
// fills DefaultLanguages when none remain.
func (p Profile) Normalize() Profile {
	p.Specialization = strings.TrimSpace(p.Specialization)
	p.Qualification = strings.TrimSpace(p.Qualification)
	p.HospitalName = strings.TrimSpace(p.HospitalName)
	p.Address = strings.TrimSpace(p.Address)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.TrimSpace(p.State)
	p.Phone = strings.TrimSpace(p.Phone)

	seen := make(map[string]bool, len(p.Languages))
	languages := make([]string, 0, len(p.Languages))
	for _, l := range p.Languages {
		l = strings.TrimSpace(l)
		if l == "" || seen[strings.ToLower(l)] {
			continue
		}
		seen[strings.ToLower(l)] = true
		languages = append(languages, l)
	}
	if len(languages) == 0 {
		languages = append(languages, DefaultLanguages...)
	}
	p.Languages = languages
	return p
}

// Validate checks a normalized profile.
func (p Profile) Validate() error {
	var fields []FieldError
	required := []struct{ field, value string }{
		{"specialization", p.Specialization},
		{"qualification", p.Qualification},
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"phone", p.Phone},
	}
	for _, r := range required {
		if r.value == "" {
			fields = append(fields, FieldError{Field: r.field, Message: "is required"})
		}
	}

	if p.ExperienceYears < 0 || p.ExperienceYears > MaxExperienceYears {
		fields = append(fields, FieldError{
			Field:   "experience_years",
			Message: fmt.Sprintf("must be between 0 and %d", MaxExperienceYears),
		})
	}
	if p.ConsultationFee != nil && (*p.ConsultationFee < 0 || *p.ConsultationFee > MaxConsultationFee) {
		fields = append(fields, FieldError{
			Field:   "consultation_fee",
			Message: fmt.Sprintf("must be between 0 and %d", MaxConsultationFee),
		})
	}
	if p.Coordinate != nil {
		if err := p.Coordinate.Validate(); err != nil {
			fields = append(fields, FieldError{Field: "coordinate", Message: err.Error()})
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
