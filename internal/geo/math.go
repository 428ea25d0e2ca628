package geo

import "math"

// TileSize is the edge of a raster map tile in pixels.
const TileSize = 256

// MaxLat is the latitude limit of the Web Mercator projection.
const MaxLat = 85.05112878

// worldSize is the edge of the projected world at zoom in pixels.
func worldSize(zoom int) float64 {
	return float64(TileSize) * math.Exp2(float64(zoom))
}

// Project converts WGS84 (Lat/Lng) to Web Mercator pixel coordinates at the given zoom.
//
// Longitude [-180, 180] maps linearly to x [0, world], latitude is clamped to
// MaxLat and mapped through the forward Mercator projection to y [0, world],
// growing southwards like tile rows do.
func Project(p LatLng, zoom int) (x, y float64) {
	size := worldSize(zoom)

	lat := math.Max(-MaxLat, math.Min(MaxLat, p.Lat))
	latRad := lat * math.Pi / 180

	x = (p.Lng + 180) / 360 * size
	mercatorY := math.Log(math.Tan(math.Pi/4 + latRad/2))
	y = (1 - mercatorY/math.Pi) / 2 * size

	return x, y
}

// unproject converts Web Mercator pixel coordinates at zoom back to WGS84.
func unproject(x, y float64, zoom int) LatLng {
	size := worldSize(zoom)

	lng := x/size*360 - 180

	// y: [0..size] -> mercatorY: [PI..-PI]
	mercatorY := math.Pi * (1 - 2*y/size)

	// Inverse Mercator projection
	latRad := 2*math.Atan(math.Exp(mercatorY)) - math.Pi*0.5
	lat := latRad * (180 / math.Pi)

	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	return LatLng{Lat: lat, Lng: lng}
}

// FitZoom returns the highest zoom in [0, maxZoom] at which b fits into a
// width x height viewport with padding pixels kept free on every side.
func FitZoom(b Bounds, width, height, padding, maxZoom int) int {
	availW := float64(width - 2*padding)
	availH := float64(height - 2*padding)
	if availW <= 0 || availH <= 0 {
		return 0
	}

	for z := maxZoom; z > 0; z-- {
		x0, y0 := Project(LatLng{Lat: b.North, Lng: b.West}, z)
		x1, y1 := Project(LatLng{Lat: b.South, Lng: b.East}, z)
		if x1-x0 <= availW && y1-y0 <= availH {
			return z
		}
	}

	return 0
}

// TileIndex returns the tile column and row containing pixel (x, y) at zoom,
// clamped to the tile grid.
func TileIndex(x, y float64, zoom int) (tx, ty int) {
	last := (1 << zoom) - 1
	tx = int(math.Floor(x / TileSize))
	ty = int(math.Floor(y / TileSize))

	return clampInt(tx, 0, last), clampInt(ty, 0, last)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
