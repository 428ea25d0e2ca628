package render

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/safelanes/internal/geo"
	"github.com/woozymasta/safelanes/internal/planner"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/routing"
	"github.com/woozymasta/safelanes/internal/safety"
)

func newRenderer(scale safety.Scale) *Renderer {
	return New(Options{
		Tiles: TileLayer{
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "OSM",
			MaxZoom:     19,
		},
		Center:  geo.LatLng{Lat: 42.3554, Lng: -71.0656},
		Zoom:    13,
		Padding: 50,
		Scale:   scale,
	})
}

func mockState() route.State {
	return route.State{Phase: route.PhaseLoaded, Route: planner.ToRoute(routing.MockRoute())}
}

func TestRender_Loading(t *testing.T) {
	st := mockState()
	st.Loading = true

	v := newRenderer(safety.ScaleUnit).Render(st)

	assert.True(t, v.Loading)
	assert.Equal(t, Placeholder, v.Placeholder)
	assert.Empty(t, v.Segments)
	assert.Nil(t, v.Start)
	assert.Nil(t, v.End)
	assert.Nil(t, v.Bounds)
	assert.Nil(t, v.Summary)
}

func TestRender_Empty(t *testing.T) {
	v := newRenderer(safety.ScaleUnit).Render(route.State{Phase: route.PhaseIdle})

	assert.False(t, v.Loading)
	assert.Empty(t, v.Segments)
	assert.Nil(t, v.Summary)
	assert.Empty(t, v.Legend)
	assert.Equal(t, geo.LatLng{Lat: 42.3554, Lng: -71.0656}, v.Center)
	assert.Equal(t, "OSM", v.Tiles.Attribution)
}

func TestRender_MockRoute(t *testing.T) {
	v := newRenderer(safety.ScaleUnit).Render(mockState())

	require.Len(t, v.Segments, 7)
	first := v.Segments[0]
	assert.Equal(t, safety.Excellent, first.Label)
	assert.Equal(t, safety.Color("#10b981"), first.Color)
	assert.Equal(t, 90, first.Percent)
	assert.Equal(t, safety.Poor, v.Segments[3].Label)

	require.NotNil(t, v.Start)
	require.NotNil(t, v.End)
	assert.Equal(t, StartColor, v.Start.Color)
	assert.Equal(t, EndColor, v.End.Color)
	assert.Equal(t, 7, v.End.Index)
	assert.Equal(t, safety.Excellent, v.End.Label)

	require.NotNil(t, v.Bounds)
	assert.Equal(t, geo.Bounds{South: 42.3554, West: -71.0656, North: 42.39, East: -71.03}, *v.Bounds)
	assert.Equal(t, 50, v.Padding)

	require.NotNil(t, v.Summary)
	assert.Equal(t, 8, v.Summary.Waypoints)
	assert.InDelta(t, 0.6375, v.Summary.AverageScore, 1e-9)
	assert.Equal(t, safety.Good, v.Summary.AverageLabel)
	assert.Equal(t, safety.StyleToken("safety-good"), v.Summary.AverageClass)
	assert.Len(t, v.Legend, 5)
}

func TestRender_SegmentUsesOriginScore(t *testing.T) {
	st := route.State{Route: route.Route{
		{Lat: 1, Lng: 1, Score: route.Score(9)},
		{Lat: 2, Lng: 2, Score: route.Score(1)},
		{Lat: 3, Lng: 3},
	}}

	v := newRenderer(safety.ScaleTen).Render(st)

	require.Len(t, v.Segments, 2)
	assert.Equal(t, safety.Excellent, v.Segments[0].Label)
	assert.Equal(t, safety.VeryPoor, v.Segments[1].Label)
	assert.Equal(t, safety.VeryPoor, v.End.Label, "missing score reads as zero")
}

func TestRender_SingleWaypoint(t *testing.T) {
	st := route.State{Route: route.Route{{Lat: 5, Lng: 6, Score: route.Score(0.5)}}}

	v := newRenderer(safety.ScaleUnit).Render(st)

	assert.Empty(t, v.Segments)
	require.NotNil(t, v.Start)
	require.NotNil(t, v.End)
	assert.Equal(t, v.Start.Position, v.End.Position)
	assert.Equal(t, geo.Bounds{South: 5, West: 6, North: 5, East: 6}, *v.Bounds)
	assert.Equal(t, safety.Moderate, v.Start.Label)
}

func TestRender_SkipsUnrenderableWaypoints(t *testing.T) {
	st := route.State{Route: route.Route{
		{Lat: math.NaN(), Lng: 1, Score: route.Score(0.9)},
		{Lat: 1, Lng: 1, Score: route.Score(0.7)},
		{Lat: 2, Lng: 2, Score: route.Score(0.5)},
		{Lat: 3, Lng: math.NaN()},
	}}

	v := newRenderer(safety.ScaleUnit).Render(st)

	require.Len(t, v.Segments, 1)
	assert.Equal(t, 1, v.Segments[0].Index)
	assert.Nil(t, v.Start)
	assert.Nil(t, v.End)
	require.NotNil(t, v.Bounds)
	assert.Equal(t, geo.Bounds{South: 1, West: 1, North: 2, East: 2}, *v.Bounds)
	assert.Equal(t, geo.LatLng{Lat: 42.3554, Lng: -71.0656}, v.Center)

	require.NotNil(t, v.Summary)
	assert.Equal(t, 4, v.Summary.Waypoints)
	assert.InDelta(t, 0.525, v.Summary.AverageScore, 1e-12)
}

func TestGeoJSON_MockRoute(t *testing.T) {
	v := newRenderer(safety.ScaleUnit).Render(mockState())

	fc := GeoJSON(v)
	require.Len(t, fc.Features, 9)

	lines, points := 0, 0
	for _, f := range fc.Features {
		switch f.Properties["kind"] {
		case "segment":
			lines++
		case "start", "end":
			points++
		}
	}
	assert.Equal(t, 7, lines)
	assert.Equal(t, 2, points)

	data, err := json.Marshal(fc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"bbox"`)
}

func TestGeoJSON_Loading(t *testing.T) {
	st := mockState()
	st.Loading = true

	fc := GeoJSON(newRenderer(safety.ScaleUnit).Render(st))
	assert.Empty(t, fc.Features)
	assert.Nil(t, fc.BBox)
}

func TestView_JSON(t *testing.T) {
	v := newRenderer(safety.ScaleUnit).Render(mockState())

	data, err := json.Marshal(v)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	summary := out["summary"].(map[string]any)
	assert.Equal(t, "Good", summary["average_label"])
	assert.Equal(t, float64(8), summary["waypoints"])
}
