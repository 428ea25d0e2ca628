package server

import (
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/config"
	"github.com/woozymasta/safelanes/internal/notify"
	"github.com/woozymasta/safelanes/internal/planner"
	"github.com/woozymasta/safelanes/internal/render"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/snapshot"
)

// ServerContext holds dependencies for request handlers.
type ServerContext struct {
	Config   *config.Config
	Store    *route.Store
	Planner  *planner.Planner
	Renderer *render.Renderer
	Snapshot *snapshot.Renderer
	Notices  *notify.Center
	index    page
	favicon  page
}

// NewServerContext wires the route store, planner and renderers from cfg.
// tiles may be nil; snapshots are then drawn without a basemap.
func NewServerContext(cfg *config.Config, router planner.Router, tiles snapshot.TileSource) (*ServerContext, error) {
	m := newMinifier()

	index, err := renderIndex(m, cfg.Places.APIKey)
	if err != nil {
		return nil, err
	}
	favicon, err := renderFavicon(m)
	if err != nil {
		return nil, err
	}

	store := route.NewStore()

	s := &ServerContext{
		Config:  cfg,
		Store:   store,
		Planner: planner.New(router, store, cfg.Notifications.Duration),
		Renderer: render.New(render.Options{
			Tiles: render.TileLayer{
				URL:         cfg.Tiles.URL,
				Attribution: cfg.Tiles.Attribution,
				Subdomains:  cfg.Tiles.Subdomains,
				MaxZoom:     cfg.Tiles.MaxZoom,
			},
			Center:  cfg.Map.Center,
			Zoom:    cfg.Map.Zoom,
			Padding: cfg.Map.Padding,
			Scale:   cfg.Safety.Scale,
		}),
		Snapshot: snapshot.New(snapshot.Options{
			Width:   cfg.Snapshot.Width,
			Height:  cfg.Snapshot.Height,
			Padding: cfg.Map.Padding,
			MaxZoom: cfg.Tiles.MaxZoom,
			Quality: cfg.Snapshot.Quality,
			Basemap: cfg.Snapshot.Basemap,
		}, tiles),
		Notices: notify.NewCenter(),
		index:   index,
		favicon: favicon,
	}

	log.Info().
		Str("routing_url", cfg.Routing.URL).
		Str("scale", cfg.Safety.Scale.String()).
		Bool("places", cfg.Places.APIKey != "").
		Bool("snapshot_basemap", cfg.Snapshot.Basemap && tiles != nil).
		Int("index_bytes", len(index.body)).
		Msg("Server context initialized successfully")

	return s, nil
}
