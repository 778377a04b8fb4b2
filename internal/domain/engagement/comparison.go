package engagement

import "iter"

// Bar weights that bring event counts onto the speaking-time axis.
const (
	ChatWeight     = 10
	DocumentWeight = 15
	TaskWeight     = 20
)

// ComparisonPoint is one participant's bar group in the contribution chart.
type ComparisonPoint struct {
	Name      string `json:"name"`
	Speaking  int    `json:"speaking"`
	Chat      int    `json:"chat"`
	Documents int    `json:"documents"`
	Tasks     int    `json:"tasks"`
}

// PointFor maps a single record to its chart values.
func PointFor(r Record) ComparisonPoint {
	return ComparisonPoint{
		Name:      r.ParticipantName,
		Speaking:  r.SpeakingTimeSeconds,
		Chat:      r.ChatMessageCount * ChatWeight,
		Documents: r.DocumentActivityCount * DocumentWeight,
		Tasks:     r.TaskActivityCount * TaskWeight,
	}
}

// Comparison lazily maps records to chart points in input order. The
// sequence can be ranged over any number of times.
func Comparison(records []Record) iter.Seq[ComparisonPoint] {
	return func(yield func(ComparisonPoint) bool) {
		for _, r := range records {
			if !yield(PointFor(r)) {
				return
			}
		}
	}
}

// CollectComparison materialises Comparison(records).
func CollectComparison(records []Record) []ComparisonPoint {
	points := make([]ComparisonPoint, 0, len(records))
	for p := range Comparison(records) {
		points = append(points, p)
	}
	return points
}

// MaxValue returns the largest bar value across points, used to scale the
// chart's y axis. It returns 0 for an empty series.
func MaxValue(points []ComparisonPoint) int {
	m := 0
	for _, p := range points {
		for _, v := range [...]int{p.Speaking, p.Chat, p.Documents, p.Tasks} {
			if v > m {
				m = v
			}
		}
	}
	return m
}
