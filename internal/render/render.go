// Package render projects the route store into map primitives.
package render

import (
	"github.com/woozymasta/safelanes/internal/geo"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/safety"
)

// Placeholder is shown instead of the map while a route request is pending.
const Placeholder = "Finding the safest route..."

// Marker colors do not depend on the score.
const (
	StartColor safety.Color = "#10b981"
	EndColor   safety.Color = "#ef4444"
)

// Segment styling.
const (
	SegmentWeight  = 6
	SegmentOpacity = 0.8
)

// MarkerKind tells start and end markers apart.
type MarkerKind string

// Marker kinds.
const (
	MarkerStart MarkerKind = "start"
	MarkerEnd   MarkerKind = "end"
)

// TileLayer describes the raster basemap.
type TileLayer struct {
	URL         string   `json:"url"`
	Attribution string   `json:"attribution"`
	Subdomains  []string `json:"subdomains,omitempty"`
	MaxZoom     int      `json:"max_zoom"`
}

// Segment is the edge between two consecutive renderable waypoints,
// styled by the origin waypoint's score.
type Segment struct {
	Label   safety.Category   `json:"label"`
	Color   safety.Color      `json:"color"`
	Class   safety.StyleToken `json:"class"`
	From    geo.LatLng        `json:"from"`
	To      geo.LatLng        `json:"to"`
	Index   int               `json:"index"`
	Score   float64           `json:"score"`
	Percent int               `json:"percent"`
	Weight  int               `json:"weight"`
	Opacity float64           `json:"opacity"`
}

// Marker is a start or end pin.
type Marker struct {
	Kind     MarkerKind        `json:"kind"`
	Label    safety.Category   `json:"label"`
	Class    safety.StyleToken `json:"class"`
	Color    safety.Color      `json:"color"`
	Position geo.LatLng        `json:"position"`
	Index    int               `json:"index"`
	Score    float64           `json:"score"`
}

// Summary is the route overlay panel.
type Summary struct {
	AverageLabel safety.Category   `json:"average_label"`
	AverageClass safety.StyleToken `json:"average_class"`
	Waypoints    int               `json:"waypoints"`
	AverageScore float64           `json:"average_score"`
}

// View is everything the map page draws.
type View struct {
	Start       *Marker              `json:"start,omitempty"`
	End         *Marker              `json:"end,omitempty"`
	Bounds      *geo.Bounds          `json:"bounds,omitempty"`
	Summary     *Summary             `json:"summary,omitempty"`
	Tiles       TileLayer            `json:"tiles"`
	Placeholder string               `json:"placeholder,omitempty"`
	Segments    []Segment            `json:"segments"`
	Legend      []safety.LegendEntry `json:"legend,omitempty"`
	Center      geo.LatLng           `json:"center"`
	Zoom        int                  `json:"zoom"`
	Padding     int                  `json:"padding"`
	Loading     bool                 `json:"loading"`
}

// Options configure a Renderer.
type Options struct {
	Tiles   TileLayer
	Center  geo.LatLng
	Zoom    int
	Padding int
	Scale   safety.Scale
}

// Renderer builds views. It keeps no state between renders.
type Renderer struct {
	opts Options
}

// New creates a renderer.
func New(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Scale returns the score scale used for classification.
func (r *Renderer) Scale() safety.Scale {
	return r.opts.Scale
}

// Render projects a store state into a view.
func (r *Renderer) Render(st route.State) View {
	v := View{
		Tiles:    r.opts.Tiles,
		Center:   r.opts.Center,
		Zoom:     r.opts.Zoom,
		Padding:  r.opts.Padding,
		Segments: []Segment{},
	}

	if st.Loading {
		v.Loading = true
		v.Placeholder = Placeholder
		return v
	}

	rt := st.Route
	if len(rt) == 0 {
		return v
	}

	scale := r.opts.Scale

	for i := 0; i+1 < len(rt); i++ {
		from, to := rt[i], rt[i+1]
		if !from.Renderable() || !to.Renderable() {
			continue
		}

		score := from.ScoreValue()
		label := scale.Classify(score)
		v.Segments = append(v.Segments, Segment{
			Index:   i,
			From:    latLng(from),
			To:      latLng(to),
			Score:   score,
			Percent: scale.Percent(score),
			Label:   label,
			Color:   label.Color(),
			Class:   label.ClassName(),
			Weight:  SegmentWeight,
			Opacity: SegmentOpacity,
		})
	}

	v.Start = r.marker(rt, 0, MarkerStart, StartColor)
	v.End = r.marker(rt, len(rt)-1, MarkerEnd, EndColor)

	points := make([]geo.LatLng, 0, len(rt))
	for _, w := range rt.Renderable() {
		points = append(points, latLng(w))
	}
	if b, ok := geo.BoundsOf(points); ok {
		v.Bounds = &b
	}
	if rt[0].Renderable() {
		v.Center = latLng(rt[0])
	}

	avgLabel := scale.AverageLabel(rt)
	v.Summary = &Summary{
		Waypoints:    len(rt),
		AverageScore: safety.AverageScore(rt),
		AverageLabel: avgLabel,
		AverageClass: avgLabel.ClassName(),
	}
	v.Legend = scale.Legend()

	return v
}

func (r *Renderer) marker(rt route.Route, i int, kind MarkerKind, color safety.Color) *Marker {
	w := rt[i]
	if !w.Renderable() {
		return nil
	}

	label := r.opts.Scale.Classify(w.ScoreValue())
	return &Marker{
		Kind:     kind,
		Index:    i,
		Position: latLng(w),
		Score:    w.ScoreValue(),
		Label:    label,
		Class:    label.ClassName(),
		Color:    color,
	}
}

func latLng(w route.Waypoint) geo.LatLng {
	return geo.LatLng{Lat: w.Lat, Lng: w.Lng}
}
