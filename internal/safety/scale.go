package safety

import (
	"math"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/woozymasta/safelanes/internal/route"
)

// Scale is the numeric range scores arrive in.
// Scores are never rescaled; the thresholds are expressed in the scale instead.
type Scale int

// Supported scales.
const (
	// ScaleTen is the canonical 0-10 scale the thresholds are written in.
	ScaleTen Scale = iota
	// ScaleUnit is the 0-1 scale.
	ScaleUnit
)

// ParseScale parses "ten", "0-10", "unit" or "0-1".
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ten", "0-10", "10":
		return ScaleTen, nil
	case "unit", "0-1", "1":
		return ScaleUnit, nil
	}
	return ScaleTen, eris.Errorf("safety: unknown scale %q (want ten or unit)", s)
}

func (s Scale) divisor() float64 {
	if s == ScaleUnit {
		return 10
	}
	return 1
}

// Max is the top of the scale.
func (s Scale) Max() float64 {
	return 10 / s.divisor()
}

// String returns the config name of the scale.
func (s Scale) String() string {
	if s == ScaleUnit {
		return "unit"
	}
	return "ten"
}

// MarshalText encodes the scale by name.
func (s Scale) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a scale name.
func (s *Scale) UnmarshalText(b []byte) error {
	v, err := ParseScale(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Classify returns the category of a score expressed in this scale.
func (s Scale) Classify(score float64) Category {
	return classify(score, s.divisor())
}

// Percent renders a score as a rounded percentage of the scale maximum,
// clamped to 0..100. Non-finite scores read as 0.
func (s Scale) Percent(score float64) int {
	pct := math.Round(score / s.Max() * 100)
	switch {
	case math.IsNaN(pct) || pct < 0:
		return 0
	case pct > 100:
		return 100
	}
	return int(pct)
}

// AverageLabel classifies the route average in this scale.
func (s Scale) AverageLabel(r route.Route) Category {
	return s.Classify(AverageScore(r))
}

// LegendEntry describes one category range in a given scale.
type LegendEntry struct {
	Label Category   `json:"label"`
	Color Color      `json:"color"`
	Class StyleToken `json:"class"`
	Min   float64    `json:"min"`
	Max   float64    `json:"max"`
}

// Legend lists the category ranges in this scale, best first.
func (s Scale) Legend() []LegendEntry {
	cats := Categories()
	out := make([]LegendEntry, 0, len(cats))
	upper := s.Max()
	for _, c := range cats {
		lower := c.band().min / s.divisor()
		out = append(out, LegendEntry{
			Label: c,
			Color: c.Color(),
			Class: c.ClassName(),
			Min:   lower,
			Max:   upper,
		})
		upper = lower
	}
	return out
}
