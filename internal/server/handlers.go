// Package server handles HTTP requests and middleware.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/geo"
	"github.com/woozymasta/safelanes/internal/metrics"
	"github.com/woozymasta/safelanes/internal/notify"
	"github.com/woozymasta/safelanes/internal/planner"
	"github.com/woozymasta/safelanes/internal/render"
	"github.com/woozymasta/safelanes/internal/safety"
)

const maxFormBytes = 64 << 10

// ConfigResponse is the browser bootstrap payload.
type ConfigResponse struct {
	Tiles     render.TileLayer     `json:"tiles"`
	Scale     safety.Scale         `json:"scale"`
	PlacesKey string               `json:"places_key,omitempty"`
	Legend    []safety.LegendEntry `json:"legend"`
	Center    geo.LatLng           `json:"center"`
	Zoom      int                  `json:"zoom"`
	Padding   int                  `json:"padding"`
	NoticeMS  int64                `json:"notice_ms"`
}

// RouteResponse answers a route submission.
type RouteResponse struct {
	Notice *notify.Notice `json:"notice,omitempty"`
	View   render.View    `json:"view"`
}

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error"`
	Message string            `json:"message"`
}

// Routes registers all handlers on a new mux.
func (s *ServerContext) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.HandleIndex)
	mux.HandleFunc("GET /favicon.ico", s.HandleFavicon)
	mux.HandleFunc("GET /api/config", s.HandleConfig)
	mux.HandleFunc("POST /api/route", s.HandleRoute)
	mux.HandleFunc("GET /api/view", s.HandleView)
	mux.HandleFunc("GET /api/route.geojson", s.HandleGeoJSON)
	mux.HandleFunc("GET /api/snapshot.webp", s.HandleSnapshot)
	mux.HandleFunc("GET /api/notifications", s.HandleNotifications)
	mux.HandleFunc("DELETE /api/notifications/{id}", s.HandleDismiss)
	mux.HandleFunc("GET /healthz", s.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

// HandleIndex serves the main HTML application.
func (s *ServerContext) HandleIndex(w http.ResponseWriter, r *http.Request) {
	servePage(w, r, s.index, "text/html; charset=utf-8")
}

// HandleFavicon serves the site favicon.
func (s *ServerContext) HandleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	servePage(w, r, s.favicon, "image/svg+xml")
}

// HandleConfig serves the tile layer and map defaults the page starts with.
func (s *ServerContext) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	cfg := s.Config
	scale := s.Renderer.Scale()
	writeJSON(w, http.StatusOK, ConfigResponse{
		Tiles: render.TileLayer{
			URL:         cfg.Tiles.URL,
			Attribution: cfg.Tiles.Attribution,
			Subdomains:  cfg.Tiles.Subdomains,
			MaxZoom:     cfg.Tiles.MaxZoom,
		},
		Center:    cfg.Map.Center,
		Zoom:      cfg.Map.Zoom,
		Padding:   cfg.Map.Padding,
		Scale:     scale,
		Legend:    scale.Legend(),
		PlacesKey: cfg.Places.APIKey,
		NoticeMS:  cfg.Notifications.Duration.Milliseconds(),
	})
}

// HandleRoute submits a route form and answers with the resulting view.
func (s *ServerContext) HandleRoute(w http.ResponseWriter, r *http.Request) {
	var form planner.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBytes))
	if err := dec.Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be a JSON object with source and destination")
		return
	}

	// The routing call outlives the client; only routing.timeout bounds it.
	res, err := s.Planner.Submit(context.WithoutCancel(r.Context()), form.Source, form.Destination)

	var verr *planner.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation",
			Message: verr.Error(),
			Errors:  verr.Fields,
		})
		return
	}

	resp := RouteResponse{View: s.Renderer.Render(s.Store.Snapshot())}
	if res.Notice != nil {
		n := s.Notices.Push(*res.Notice)
		resp.Notice = &n
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

// HandleView serves the current view model.
func (s *ServerContext) HandleView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Renderer.Render(s.Store.Snapshot()))
}

// HandleGeoJSON serves the current route overlay as a FeatureCollection.
func (s *ServerContext) HandleGeoJSON(w http.ResponseWriter, _ *http.Request) {
	fc := render.GeoJSON(s.Renderer.Render(s.Store.Snapshot()))

	data, err := fc.MarshalJSON()
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode GeoJSON")
		writeError(w, http.StatusInternalServerError, "geojson", "failed to encode route overlay")
		return
	}

	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// HandleSnapshot serves the current view as a WebP image.
func (s *ServerContext) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.Snapshot.Encode(r.Context(), &buf, s.Renderer.Render(s.Store.Snapshot())); err != nil {
		log.Error().Err(err).Msg("Failed to render snapshot")
		writeError(w, http.StatusInternalServerError, "snapshot", "failed to render snapshot")
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// HandleNotifications lists notices that have not expired yet.
func (s *ServerContext) HandleNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Notices.Active())
}

// HandleDismiss removes a notice before it expires.
func (s *ServerContext) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.Notices.Dismiss(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, "not_found", "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth reports liveness.
func (s *ServerContext) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func servePage(w http.ResponseWriter, r *http.Request, p page, contentType string) {
	if match := r.Header.Get("If-None-Match"); match == p.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("ETag", p.etag)
	if w.Header().Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", "public, no-cache")
	}
	_, _ = w.Write(p.body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Ignoring error as we cannot handle client disconnects
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}
