// Package snapshot rasterizes a route view into a static WebP image.
package snapshot

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/woozymasta/safelanes/internal/geo"
	"github.com/woozymasta/safelanes/internal/render"
	"github.com/woozymasta/safelanes/internal/tiles"
)

// Marker geometry in pixels.
const (
	markerRadius  = 8
	markerOutline = 3
)

// Background fills the canvas where no basemap tile is drawn.
var Background = color.NRGBA{R: 0xe5, G: 0xe7, B: 0xeb, A: 0xff}

// TileSource provides basemap tiles.
type TileSource interface {
	FetchAll(ctx context.Context, coords []tiles.Coordinate) (map[tiles.Coordinate]image.Image, error)
}

// Options configure the snapshot canvas.
type Options struct {
	Width   int
	Height  int
	Padding int
	MaxZoom int
	Quality float32
	Basemap bool
}

// Renderer draws views onto an RGBA canvas.
type Renderer struct {
	tiles TileSource
	opts  Options
}

// New creates a snapshot renderer. src may be nil when no basemap is wanted.
func New(opts Options, src TileSource) *Renderer {
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 600
	}
	if opts.Padding < 0 {
		opts.Padding = 0
	}
	if opts.MaxZoom <= 0 {
		opts.MaxZoom = 18
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}

	return &Renderer{opts: opts, tiles: src}
}

// Frame places the canvas on the Web Mercator plane.
type Frame struct {
	Zoom    int
	OriginX float64
	OriginY float64
	Width   int
	Height  int
}

// Pixel returns the canvas position of p.
func (f Frame) Pixel(p geo.LatLng) (x, y float64) {
	px, py := geo.Project(p, f.Zoom)
	return px - f.OriginX, py - f.OriginY
}

// Tiles lists the tiles covering the canvas.
func (f Frame) Tiles() []tiles.Coordinate {
	x0, y0 := geo.TileIndex(f.OriginX, f.OriginY, f.Zoom)
	x1, y1 := geo.TileIndex(f.OriginX+float64(f.Width-1), f.OriginY+float64(f.Height-1), f.Zoom)

	coords := make([]tiles.Coordinate, 0, (x1-x0+1)*(y1-y0+1))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			coords = append(coords, tiles.Coordinate{Z: f.Zoom, X: x, Y: y})
		}
	}

	return coords
}

// Layout fits the view bounds into the canvas. Views without bounds are
// centered on the view center at the view zoom.
func (r *Renderer) Layout(v render.View) Frame {
	center := v.Center
	zoom := v.Zoom
	if v.Bounds != nil {
		center = v.Bounds.Center()
		zoom = geo.FitZoom(*v.Bounds, r.opts.Width, r.opts.Height, r.opts.Padding, r.opts.MaxZoom)
	}

	cx, cy := geo.Project(center, zoom)
	return Frame{
		Zoom:    zoom,
		OriginX: math.Round(cx - float64(r.opts.Width)/2),
		OriginY: math.Round(cy - float64(r.opts.Height)/2),
		Width:   r.opts.Width,
		Height:  r.opts.Height,
	}
}

// Draw renders the view. A loading view produces the plain canvas.
func (r *Renderer) Draw(ctx context.Context, v render.View) (*image.RGBA, error) {
	canvas := image.NewRGBA(image.Rect(0, 0, r.opts.Width, r.opts.Height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	if v.Loading {
		return canvas, nil
	}

	frame := r.Layout(v)

	if r.opts.Basemap && r.tiles != nil {
		if err := r.drawBasemap(ctx, canvas, frame); err != nil {
			return nil, err
		}
	}

	for _, s := range v.Segments {
		c := parseColor(string(s.Color), s.Opacity)
		x0, y0 := frame.Pixel(s.From)
		x1, y1 := frame.Pixel(s.To)
		strokeLine(canvas, x0, y0, x1, y1, float64(s.Weight), c)
	}

	for _, m := range []*render.Marker{v.Start, v.End} {
		if m == nil {
			continue
		}
		x, y := frame.Pixel(m.Position)
		fillCircle(canvas, x, y, markerRadius+markerOutline, color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
		fillCircle(canvas, x, y, markerRadius, parseColor(string(m.Color), 1))
	}

	return canvas, nil
}

// Encode renders the view and writes it as WebP.
func (r *Renderer) Encode(ctx context.Context, w io.Writer, v render.View) error {
	img, err := r.Draw(ctx, v)
	if err != nil {
		return err
	}

	if err := webp.Encode(w, img, &webp.Options{Lossless: false, Quality: r.opts.Quality}); err != nil {
		return eris.Wrap(err, "snapshot: encode webp")
	}

	return nil
}

func (r *Renderer) drawBasemap(ctx context.Context, canvas *image.RGBA, frame Frame) error {
	coords := frame.Tiles()
	imgs, err := r.tiles.FetchAll(ctx, coords)
	if err != nil {
		return eris.Wrap(err, "snapshot: fetch basemap")
	}

	log.Debug().
		Int("zoom", frame.Zoom).
		Int("requested", len(coords)).
		Int("fetched", len(imgs)).
		Msg("Basemap tiles fetched")

	for c, img := range imgs {
		x := c.X*geo.TileSize - int(frame.OriginX)
		y := c.Y*geo.TileSize - int(frame.OriginY)
		rect := image.Rect(x, y, x+geo.TileSize, y+geo.TileSize)
		xdraw.ApproxBiLinear.Scale(canvas, rect, img, img.Bounds(), draw.Over, nil)
	}

	return nil
}

// strokeLine draws a line of width w with round caps.
func strokeLine(dst draw.Image, x0, y0, x1, y1, w float64, c color.Color) {
	if !finite(x0, y0, x1, y1) {
		return
	}

	half := w / 2
	dx, dy := x1-x0, y1-y0
	length := math.Hypot(dx, dy)
	if length == 0 {
		fillCircle(dst, x0, y0, half, c)
		return
	}

	// unit normal scaled to half width
	nx, ny := -dy/length*half, dx/length*half

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	// same winding as circlePath so the caps add to the body
	z.MoveTo(float32(x0-nx), float32(y0-ny))
	z.LineTo(float32(x1-nx), float32(y1-ny))
	z.LineTo(float32(x1+nx), float32(y1+ny))
	z.LineTo(float32(x0+nx), float32(y0+ny))
	z.ClosePath()
	circlePath(z, x0, y0, half)
	circlePath(z, x1, y1, half)
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

func fillCircle(dst draw.Image, cx, cy, radius float64, c color.Color) {
	if !finite(cx, cy) {
		return
	}

	b := dst.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	circlePath(z, cx, cy, radius)
	z.Draw(dst, b, image.NewUniform(c), image.Point{})
}

// circlePath appends a closed polygon approximating a circle.
func circlePath(z *vector.Rasterizer, cx, cy, radius float64) {
	const steps = 48
	z.MoveTo(float32(cx+radius), float32(cy))
	for i := 1; i < steps; i++ {
		a := 2 * math.Pi * float64(i) / steps
		z.LineTo(float32(cx+radius*math.Cos(a)), float32(cy+radius*math.Sin(a)))
	}
	z.ClosePath()
}

// parseColor reads #rrggbb; anything else is black.
func parseColor(hex string, opacity float64) color.NRGBA {
	c := color.NRGBA{A: uint8(math.Round(math.Max(0, math.Min(1, opacity)) * 255))}

	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return c
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return c
	}

	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
