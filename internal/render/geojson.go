package render

import (
	"fmt"

	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/woozymasta/safelanes/internal/geo"
)

// GeoJSON converts a view into a feature collection: one LineString per
// segment followed by the start and end Points. Loading views are empty.
func GeoJSON(v View) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(v.Segments)+2)

	for _, s := range v.Segments {
		f := geo.LineFeature([]geo.LatLng{s.From, s.To}, map[string]any{
			"kind":    "segment",
			"index":   s.Index,
			"score":   s.Score,
			"percent": s.Percent,
			"label":   s.Label.String(),
			"color":   string(s.Color),
			"class":   string(s.Class),
			"weight":  s.Weight,
			"opacity": s.Opacity,
		})
		f.ID = fmt.Sprintf("segment-%d", s.Index)
		features = append(features, f)
	}

	for _, m := range []*Marker{v.Start, v.End} {
		if m == nil {
			continue
		}
		f := geo.PointFeature(m.Position, map[string]any{
			"kind":  string(m.Kind),
			"index": m.Index,
			"score": m.Score,
			"label": m.Label.String(),
			"color": string(m.Color),
			"class": string(m.Class),
		})
		f.ID = string(m.Kind)
		features = append(features, f)
	}

	return geo.FeatureCollection(features, v.Bounds)
}
