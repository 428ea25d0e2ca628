package safety

import "github.com/woozymasta/safelanes/internal/route"

// AverageScore is the arithmetic mean of the route scores, missing scores counting as 0.
// An empty route averages to 0.
func AverageScore(r route.Route) float64 {
	if len(r) == 0 {
		return 0
	}

	var sum float64
	for _, w := range r {
		sum += w.ScoreValue()
	}

	return sum / float64(len(r))
}

// AverageLabel classifies the route average on the canonical 0-10 scale.
func AverageLabel(r route.Route) Category {
	return LabelFor(AverageScore(r))
}
