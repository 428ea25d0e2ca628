// Package route holds the walking route model and the store the map view observes.
package route

import "math"

// Waypoint is one sample on a walking route.
// Coordinates that were absent in the service payload are stored as NaN.
type Waypoint struct {
	Score *float64 `json:"score,omitempty" yaml:"score,omitempty"`
	Lat   float64  `json:"lat" yaml:"lat"`
	Lng   float64  `json:"lng" yaml:"lng"`
}

// Route is an ordered sequence of waypoints. Order defines segment adjacency.
type Route []Waypoint

// ScoreValue returns the safety score, or 0 when the waypoint has none.
func (w Waypoint) ScoreValue() float64 {
	if w.Score == nil {
		return 0
	}
	return *w.Score
}

// Renderable reports whether the waypoint can be placed on a map:
// both coordinates finite and inside WGS84 ranges.
func (w Waypoint) Renderable() bool {
	if math.IsNaN(w.Lat) || math.IsInf(w.Lat, 0) || math.IsNaN(w.Lng) || math.IsInf(w.Lng, 0) {
		return false
	}
	return w.Lat >= -90 && w.Lat <= 90 && w.Lng >= -180 && w.Lng <= 180
}

// Score is a helper for building waypoints with a score.
func Score(v float64) *float64 {
	return &v
}

// Clone returns a copy of the route that does not share score pointers.
func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	out := make(Route, len(r))
	for i, w := range r {
		out[i] = Waypoint{Lat: w.Lat, Lng: w.Lng}
		if w.Score != nil {
			out[i].Score = Score(*w.Score)
		}
	}
	return out
}

// Renderable returns the waypoints that can be placed on a map, in order.
func (r Route) Renderable() Route {
	out := make(Route, 0, len(r))
	for _, w := range r {
		if w.Renderable() {
			out = append(out, w)
		}
	}
	return out
}
