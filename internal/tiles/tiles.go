// Package tiles fetches raster basemap tiles from a URL template.
package tiles

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // tile decoders
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/woozymasta/safelanes/internal/metrics"
)

// maxTileBytes bounds a single tile download.
const maxTileBytes = 4 << 20

// Coordinate addresses one tile.
type Coordinate struct {
	Z, X, Y int
}

// Options configure a Fetcher.
type Options struct {
	URLTemplate string
	UserAgent   string
	Subdomains  []string
	Timeout     time.Duration
	Concurrency int
	// RatePerSecond limits tile requests; 0 disables the limit.
	RatePerSecond float64
}

// Fetcher downloads and decodes tiles.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	opts    Options
}

// NewFetcher creates a tile fetcher.
func NewFetcher(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "safelanes/1.0"
	}

	f := &Fetcher{
		opts: opts,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        opts.Concurrency * 2,
				MaxIdleConnsPerHost: opts.Concurrency,
			},
			Timeout: opts.Timeout,
		},
	}
	if opts.RatePerSecond > 0 {
		burst := int(opts.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), burst)
	}

	return f
}

// Fetch downloads a single tile. A missing (404) or empty 1px tile yields nil, nil.
func (f *Fetcher) Fetch(ctx context.Context, c Coordinate) (image.Image, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "tiles: rate limit wait")
		}
	}

	url := BuildURL(f.opts.URLTemplate, c, f.opts.Subdomains)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "tiles: fetch tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		log.Trace().Str("url", url).Msg("Tile not found (404)")
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("tiles: upstream returned %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTileBytes))
	if err != nil {
		return nil, eris.Wrap(err, "tiles: read tile body")
	}

	img, _, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrapf(err, "tiles: decode %s", url)
	}

	// Filter out empty/1px tiles often returned by map servers for OOB areas
	if img.Bounds().Dx() <= 1 {
		log.Trace().Str("url", url).Msg("Filtered empty tile")
		return nil, nil
	}

	return img, nil
}

// FetchAll downloads tiles concurrently. Tiles that fail are logged and left
// out of the result; only context cancellation aborts the batch.
func (f *Fetcher) FetchAll(ctx context.Context, coords []Coordinate) (map[Coordinate]image.Image, error) {
	var mu sync.Mutex
	out := make(map[Coordinate]image.Image, len(coords))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.Concurrency)

	for _, c := range coords {
		g.Go(func() error {
			img, err := f.Fetch(gctx, c)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				metrics.TilesFetched.WithLabelValues("error").Inc()
				log.Trace().
					Err(err).
					Str("tile", c.String()).
					Msg("Failed to download tile")
				return nil
			}
			if img == nil {
				metrics.TilesFetched.WithLabelValues("empty").Inc()
				return nil
			}

			metrics.TilesFetched.WithLabelValues("ok").Inc()
			mu.Lock()
			out[c] = img
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return out, eris.Wrap(err, "tiles: fetch batch")
	}

	return out, nil
}

// BuildURL fills {z}, {x}, {y}, {tms_y} and {s} in a tile URL template.
// The subdomain is picked deterministically from the tile position.
func BuildURL(tpl string, c Coordinate, subdomains []string) string {
	s := strings.ReplaceAll(tpl, "{z}", strconv.Itoa(c.Z))
	s = strings.ReplaceAll(s, "{x}", strconv.Itoa(c.X))
	s = strings.ReplaceAll(s, "{y}", strconv.Itoa(c.Y))

	if strings.Contains(s, "{tms_y}") {
		maxCoord := (1 << c.Z) - 1
		tmsY := maxCoord - c.Y
		s = strings.ReplaceAll(s, "{tms_y}", strconv.Itoa(tmsY))
	}

	if strings.Contains(s, "{s}") {
		sub := ""
		if len(subdomains) > 0 {
			idx := (c.X + c.Y) % len(subdomains)
			if idx < 0 {
				idx = -idx
			}
			sub = subdomains[idx]
		}
		s = strings.ReplaceAll(s, "{s}", sub)
	}

	return s
}

// String formats the coordinate as z/x/y.
func (c Coordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Z, c.X, c.Y)
}
