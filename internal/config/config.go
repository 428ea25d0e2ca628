// Package config handles configuration loading and defaults.
package config

import (
	"errors"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/safelanes/internal/geo"
	"github.com/woozymasta/safelanes/internal/safety"
)

// DefaultAttribution credits OpenStreetMap for the default tile layer.
const DefaultAttribution = `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors`

// Config represents the root configuration file structure.
type Config struct {
	Routing       Routing       `yaml:"routing"`
	Tiles         Tiles         `yaml:"tiles"`
	Places        Places        `yaml:"places"`
	Map           Map           `yaml:"map"`
	Snapshot      Snapshot      `yaml:"snapshot"`
	Notifications Notifications `yaml:"notifications"`
	Safety        Safety        `yaml:"safety"`
}

// Routing points at the external walking route service.
type Routing struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

// Tiles describes the raster basemap.
type Tiles struct {
	URL         string        `yaml:"url"`
	Attribution string        `yaml:"attribution"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	Subdomains  []string      `yaml:"subdomains,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	MaxZoom     int           `yaml:"max_zoom"`
	Concurrency int           `yaml:"concurrency,omitempty"`
	// RatePerSecond limits server-side tile fetches for snapshots.
	RatePerSecond float64 `yaml:"rate_per_second,omitempty"`
}

// Places configures the optional address autocomplete.
type Places struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// Map holds the initial viewport.
type Map struct {
	Center  geo.LatLng `yaml:"center"`
	Zoom    int        `yaml:"zoom"`
	Padding int        `yaml:"padding"`
}

// Snapshot configures the raster export.
type Snapshot struct {
	Width   int     `yaml:"width"`
	Height  int     `yaml:"height"`
	Quality float32 `yaml:"quality"`
	Basemap bool    `yaml:"basemap"`
}

// Notifications configures toast notices.
type Notifications struct {
	Duration time.Duration `yaml:"duration"`
}

// Safety selects the score scale of the routing service.
type Safety struct {
	Scale safety.Scale `yaml:"scale"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Routing: Routing{
			URL:     "http://localhost:8085",
			Timeout: 30 * time.Second,
		},
		Tiles: Tiles{
			URL:           "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution:   DefaultAttribution,
			Subdomains:    []string{"a", "b", "c"},
			MaxZoom:       19,
			Timeout:       15 * time.Second,
			Concurrency:   4,
			RatePerSecond: 8,
		},
		Map: Map{
			Center:  geo.LatLng{Lat: 42.3554, Lng: -71.0656},
			Zoom:    13,
			Padding: 50,
		},
		Snapshot: Snapshot{
			Width:   800,
			Height:  600,
			Quality: 85,
		},
		Notifications: Notifications{Duration: 3 * time.Second},
		Safety:        Safety{Scale: safety.ScaleUnit},
	}
}

// Load reads the YAML configuration file from path over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, eris.Wrapf(err, "config: read %s", path)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, eris.Wrapf(err, "config: parse %s", path)
	}

	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Routing.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return eris.Errorf("config: routing.url %q must be an absolute http(s) URL", c.Routing.URL)
	}
	if c.Routing.Timeout <= 0 {
		return eris.New("config: routing.timeout must be positive")
	}

	for _, p := range []string{"{z}", "{x}"} {
		if !strings.Contains(c.Tiles.URL, p) {
			return eris.Errorf("config: tiles.url must contain %s", p)
		}
	}
	if !strings.Contains(c.Tiles.URL, "{y}") && !strings.Contains(c.Tiles.URL, "{tms_y}") {
		return eris.New("config: tiles.url must contain {y} or {tms_y}")
	}
	if strings.TrimSpace(c.Tiles.Attribution) == "" {
		return eris.New("config: tiles.attribution is required")
	}
	if c.Tiles.MaxZoom < 1 || c.Tiles.MaxZoom > 22 {
		return eris.Errorf("config: tiles.max_zoom %d out of range [1, 22]", c.Tiles.MaxZoom)
	}

	if c.Map.Zoom < 0 || c.Map.Zoom > c.Tiles.MaxZoom {
		return eris.Errorf("config: map.zoom %d out of range [0, %d]", c.Map.Zoom, c.Tiles.MaxZoom)
	}
	if c.Map.Padding < 0 {
		return eris.New("config: map.padding must not be negative")
	}
	if c.Map.Center.Lat < -90 || c.Map.Center.Lat > 90 || c.Map.Center.Lng < -180 || c.Map.Center.Lng > 180 {
		return eris.New("config: map.center out of range")
	}

	if c.Snapshot.Width <= 2*c.Map.Padding || c.Snapshot.Height <= 2*c.Map.Padding {
		return eris.New("config: snapshot size must exceed twice the map padding")
	}
	if c.Snapshot.Quality <= 0 || c.Snapshot.Quality > 100 {
		return eris.New("config: snapshot.quality must be in (0, 100]")
	}

	if c.Notifications.Duration <= 0 {
		return eris.New("config: notifications.duration must be positive")
	}

	return nil
}
