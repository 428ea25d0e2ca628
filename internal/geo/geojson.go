// Package geo handles geographic primitives, projections and GeoJSON building.
package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// LatLng is a WGS84 position.
type LatLng struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Bounds is a latitude/longitude box.
type Bounds struct {
	South float64 `json:"south" yaml:"south"`
	West  float64 `json:"west" yaml:"west"`
	North float64 `json:"north" yaml:"north"`
	East  float64 `json:"east" yaml:"east"`
}

// BoundsOf returns the extent of pts. ok is false when pts is empty.
func BoundsOf(pts []LatLng) (b Bounds, ok bool) {
	if len(pts) == 0 {
		return Bounds{}, false
	}

	ext := geom.NewBounds(geom.XY)
	for _, p := range pts {
		ext.Extend(geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}))
	}

	return Bounds{
		South: ext.Min(1),
		West:  ext.Min(0),
		North: ext.Max(1),
		East:  ext.Max(0),
	}, true
}

// Center is the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{Lat: (b.South + b.North) / 2, Lng: (b.West + b.East) / 2}
}

// Geom converts the box to go-geom bounds in [lng, lat] order.
func (b Bounds) Geom() *geom.Bounds {
	return geom.NewBounds(geom.XY).Set(b.West, b.South, b.East, b.North)
}

// PointFeature builds a GeoJSON Point feature.
func PointFeature(p LatLng, props map[string]any) *geojson.Feature {
	return &geojson.Feature{
		Geometry:   geom.NewPointFlat(geom.XY, []float64{p.Lng, p.Lat}),
		Properties: props,
	}
}

// LineFeature builds a GeoJSON LineString feature through path.
func LineFeature(path []LatLng, props map[string]any) *geojson.Feature {
	flat := make([]float64, 0, 2*len(path))
	for _, p := range path {
		flat = append(flat, p.Lng, p.Lat)
	}

	return &geojson.Feature{
		Geometry:   geom.NewLineStringFlat(geom.XY, flat),
		Properties: props,
	}
}

// FeatureCollection wraps features, setting the bbox when bounds are known.
func FeatureCollection(features []*geojson.Feature, b *Bounds) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: features}
	if b != nil {
		fc.BBox = b.Geom()
	}
	if fc.Features == nil {
		fc.Features = []*geojson.Feature{}
	}
	return fc
}
