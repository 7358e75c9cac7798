package bp

import "fmt"

// Category is a severity bucket. Categories are totally ordered:
// CategoryLow < CategoryNormal < CategoryElevated < CategoryHigh.
type Category int

const (
	CategoryLow Category = iota
	CategoryNormal
	CategoryElevated
	CategoryHigh
)

var categoryNames = [...]string{"low", "normal", "elevated", "high"}

// String returns the lower-case name of the category.
func (c Category) String() string {
	if c < CategoryLow || c > CategoryHigh {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Less reports whether c is less severe than other.
func (c Category) Less(other Category) bool {
	return c < other
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if c < CategoryLow || c > CategoryHigh {
		return nil, fmt.Errorf("unknown category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses a lower-case category name.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

// Max returns the more severe of a and b.
func Max(a, b Category) Category {
	if a.Less(b) {
		return b
	}
	return a
}

// Classify returns the category of a reading. Each value is bucketed on its
// own scale and the more severe bucket wins.
func Classify(systolic, diastolic int) Category {
	return Max(classifySystolic(systolic), classifyDiastolic(diastolic))
}

func classifySystolic(v int) Category {
	switch {
	case v < 90:
		return CategoryLow
	case v < 120:
		return CategoryNormal
	case v < 130:
		return CategoryElevated
	default:
		return CategoryHigh
	}
}

func classifyDiastolic(v int) Category {
	switch {
	case v < 60:
		return CategoryLow
	case v < 80:
		return CategoryNormal
	case v < 90:
		return CategoryElevated
	default:
		return CategoryHigh
	}
}

// ReferenceRange is a display row of the reference table.
type ReferenceRange struct {
	Label     string   `json:"label"`
	Systolic  string   `json:"systolic"`
	Diastolic string   `json:"diastolic"`
	Category  Category `json:"category"`
}

// ReferenceRanges returns the five display ranges. Both hypertension stages
// map to CategoryHigh.
func ReferenceRanges() []ReferenceRange {
	return []ReferenceRange{
		{Label: "Low", Systolic: "< 90", Diastolic: "< 60", Category: CategoryLow},
		{Label: "Normal", Systolic: "90-119", Diastolic: "60-79", Category: CategoryNormal},
		{Label: "Elevated", Systolic: "120-129", Diastolic: "80-89", Category: CategoryElevated},
		{Label: "High (Stage 1)", Systolic: "130-139", Diastolic: "90-99", Category: CategoryHigh},
		{Label: "High (Stage 2)", Systolic: ">= 140", Diastolic: ">= 100", Category: CategoryHigh},
	}
}
