package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/safelanes/internal/config"
	"github.com/woozymasta/safelanes/internal/notify"
	"github.com/woozymasta/safelanes/internal/planner"
	"github.com/woozymasta/safelanes/internal/render"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/routing"
	"github.com/woozymasta/safelanes/internal/safety"
)

type testServer struct {
	ctx     *ServerContext
	http    *httptest.Server
	backend *httptest.Server
}

func newTestServer(t *testing.T, backend http.Handler) *testServer {
	t.Helper()

	be := httptest.NewServer(backend)
	t.Cleanup(be.Close)

	cfg := config.Default()
	cfg.Routing.URL = be.URL
	cfg.Places.APIKey = "test-key"

	sc, err := NewServerContext(cfg, routing.NewClient(be.URL, 5*time.Second), nil)
	require.NoError(t, err)

	srv := httptest.NewServer(RequestLogger(sc.Routes()))
	t.Cleanup(srv.Close)

	return &testServer{ctx: sc, http: srv, backend: be}
}

func (ts *testServer) postRoute(t *testing.T, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(ts.http.URL+"/api/route", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(ts.http.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func failingBackend() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
}

func TestIndex(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.get(t, "/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), Title)
	assert.Contains(t, string(body), "route-form")
	assert.Contains(t, string(body), "test-key")

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	req, err := http.NewRequest(http.MethodGet, ts.http.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	cached, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = cached.Body.Close()
	assert.Equal(t, http.StatusNotModified, cached.StatusCode)

	resp, _ = ts.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFavicon(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.get(t, "/favicon.ico")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, string(body), "<svg")
}

func TestConfigEndpoint(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.get(t, "/api/config")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg map[string]any
	require.NoError(t, json.Unmarshal(body, &cfg))

	tiles := cfg["tiles"].(map[string]any)
	assert.Equal(t, config.DefaultAttribution, tiles["attribution"])
	assert.Equal(t, "unit", cfg["scale"])
	assert.Equal(t, float64(13), cfg["zoom"])
	assert.Equal(t, float64(3000), cfg["notice_ms"])
	assert.Len(t, cfg["legend"], 5)
}

func TestRoute_ValidationNeverReachesBackend(t *testing.T) {
	var calls atomic.Int32
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	resp, body := ts.postRoute(t, `{"source":"  ","destination":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var out ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "validation", out.Error)
	assert.Equal(t, "Starting point is required", out.Errors["source"])
	assert.Equal(t, "Destination is required", out.Errors["destination"])
	assert.Zero(t, calls.Load())
	assert.Empty(t, ts.ctx.Notices.Active())
}

func TestRoute_BadJSON(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.postRoute(t, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "bad_request")
}

func TestRoute_EndToEnd(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.postRoute(t, `{"source":"Boston Common","destination":"Harvard"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out RouteResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.View.Loading)
	assert.Len(t, out.View.Segments, 7)
	require.NotNil(t, out.View.Summary)
	assert.Equal(t, 8, out.View.Summary.Waypoints)
	assert.Equal(t, safety.Good, out.View.Summary.AverageLabel)

	require.NotNil(t, out.Notice)
	assert.Equal(t, notify.KindSuccess, out.Notice.Kind)
	assert.Equal(t, planner.SuccessMessage, out.Notice.Message)
	assert.NotEmpty(t, out.Notice.ID)

	// view endpoint reflects the store
	resp, body = ts.get(t, "/api/view")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view render.View
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Len(t, view.Segments, 7)

	// geojson overlay
	resp, body = ts.get(t, "/api/route.geojson")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(body, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 9)

	// snapshot
	resp, body = ts.get(t, "/api/snapshot.webp")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/webp", resp.Header.Get("Content-Type"))
	require.Greater(t, len(body), 12)
	assert.Equal(t, "WEBP", string(body[8:12]))
}

func TestRoute_FailureKeepsPreviousRoute(t *testing.T) {
	mock := routing.MockHandler(0)
	var fail atomic.Bool
	ts := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			failingBackend().ServeHTTP(w, r)
			return
		}
		mock.ServeHTTP(w, r)
	}))

	resp, _ := ts.postRoute(t, `{"source":"a","destination":"b"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	fail.Store(true)
	resp, body := ts.postRoute(t, `{"source":"a","destination":"c"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var out RouteResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Notice)
	assert.Equal(t, notify.KindError, out.Notice.Kind)
	assert.Equal(t, planner.FailureMessage, out.Notice.Message)
	assert.False(t, out.View.Loading)
	assert.Len(t, out.View.Segments, 7, "previous route stays on the map")
}

func TestRoute_ClientDisconnectDoesNotAbortRequest(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(300*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.http.URL+"/api/route",
		strings.NewReader(`{"source":"a","destination":"b"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	_, err = http.DefaultClient.Do(req)
	require.Error(t, err)

	require.Eventually(t, func() bool {
		return ts.ctx.Store.Snapshot().Phase == route.PhaseLoaded
	}, 3*time.Second, 20*time.Millisecond)

	st := ts.ctx.Store.Snapshot()
	assert.False(t, st.Loading)
	assert.Len(t, st.Route, 8)
	require.Len(t, ts.ctx.Notices.Active(), 1)
	assert.Equal(t, notify.KindSuccess, ts.ctx.Notices.Active()[0].Kind)
}

func TestNotifications(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	_, body := ts.postRoute(t, `{"source":"a","destination":"b"}`)
	var out RouteResponse
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotNil(t, out.Notice)

	resp, body := ts.get(t, "/api/notifications")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active []map[string]any
	require.NoError(t, json.Unmarshal(body, &active))
	require.Len(t, active, 1)
	assert.Equal(t, out.Notice.ID, active[0]["id"])
	assert.Equal(t, float64(3000), active[0]["duration_ms"])

	del := func() int {
		req, err := http.NewRequest(http.MethodDelete, ts.http.URL+"/api/notifications/"+out.Notice.ID, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}
	assert.Equal(t, http.StatusNoContent, del())
	assert.Equal(t, http.StatusNotFound, del())
	assert.Empty(t, ts.ctx.Notices.Active())
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t, routing.MockHandler(0))

	resp, body := ts.get(t, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	resp, body = ts.get(t, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "safelanes_http_requests_total")
	assert.Contains(t, string(body), `path="GET /healthz"`)
}
