package bp

// DefaultTrendWindow is the number of records charted by default.
const DefaultTrendWindow = 14

// Summarize charts the newest windowSize records. records must be ordered
// newest first; the returned points are oldest first. The input is not
// modified.
func Summarize(records []Record, windowSize int) Trend {
	n := len(records)
	if windowSize < n {
		n = windowSize
	}
	if n <= 0 {
		return Trend{Points: []Point{}}
	}

	points := make([]Point, n)
	for i := 0; i < n; i++ {
		r := records[n-1-i]
		points[i] = Point{
			RecordedAt: r.RecordedAt,
			Systolic:   r.Systolic,
			Diastolic:  r.Diastolic,
			Category:   Classify(r.Systolic, r.Diastolic),
		}
	}
	return Trend{Points: points}
}
