// Package safety classifies route safety scores into categories, colors and style tokens.
package safety

import (
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Category is one of the fixed safety categories, ordered best first.
type Category int

// Safety categories.
const (
	Excellent Category = iota
	Good
	Moderate
	Poor
	VeryPoor
)

// Color is a display color in CSS hex notation.
type Color string

// StyleToken is a stable identifier for presentation styling.
type StyleToken string

type band struct {
	category Category
	min      float64
	name     string
	color    Color
	class    StyleToken
}

// bands are ordered highest threshold first; min is an inclusive lower bound
// on the canonical 0-10 scale.
var bands = [...]band{
	{Excellent, 8.0, "Excellent", "#10b981", "safety-excellent"},
	{Good, 6.0, "Good", "#3b82f6", "safety-good"},
	{Moderate, 4.0, "Moderate", "#f59e0b", "safety-moderate"},
	{Poor, 2.0, "Poor", "#ef4444", "safety-poor"},
	{VeryPoor, 0, "Very Poor", "#7c2d12", "safety-very-poor"},
}

// Categories lists all categories, best first.
func Categories() []Category {
	return []Category{Excellent, Good, Moderate, Poor, VeryPoor}
}

// classify walks the thresholds top down. divisor expresses them in another scale.
// Anything below the lowest threshold, negative or NaN, is VeryPoor.
func classify(score, divisor float64) Category {
	for _, b := range bands[:len(bands)-1] {
		if score >= b.min/divisor {
			return b.category
		}
	}
	return VeryPoor
}

// LabelFor returns the category of a score on the canonical 0-10 scale.
func LabelFor(score float64) Category {
	return classify(score, 1)
}

// ColorFor returns the display color of a score on the canonical 0-10 scale.
func ColorFor(score float64) Color {
	return LabelFor(score).Color()
}

// ClassNameFor returns the style token of a score on the canonical 0-10 scale.
func ClassNameFor(score float64) StyleToken {
	return LabelFor(score).ClassName()
}

func (c Category) band() band {
	if c < Excellent || c > VeryPoor {
		return bands[VeryPoor]
	}
	return bands[c]
}

// String returns the display label.
func (c Category) String() string { return c.band().name }

// Color returns the category color.
func (c Category) Color() Color { return c.band().color }

// ClassName returns the category style token.
func (c Category) ClassName() StyleToken { return c.band().class }

// MarshalJSON encodes the category as its label.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a category label.
func (c *Category) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := parseCategory(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// parseCategory resolves a display label back to its category.
func parseCategory(s string) (Category, error) {
	for _, b := range bands {
		if b.name == s {
			return b.category, nil
		}
	}
	return VeryPoor, eris.Errorf("safety: unknown category %q", s)
}
