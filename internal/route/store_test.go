package route

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRoute() Route {
	return Route{
		{Lat: 42.3554, Lng: -71.0656, Score: Score(0.9)},
		{Lat: 42.3600, Lng: -71.0600, Score: Score(0.7)},
	}
}

func TestStore_StartsIdle(t *testing.T) {
	s := NewStore()
	st := s.Snapshot()

	assert.Equal(t, PhaseIdle, st.Phase)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Route)
}

func TestStore_BeginCompleteCycle(t *testing.T) {
	s := NewStore()

	ticket := s.BeginRequest()
	st := s.Snapshot()
	assert.True(t, st.Loading)
	assert.Equal(t, PhaseLoading, st.Phase)

	require.True(t, s.CompleteRequest(ticket, sampleRoute()))
	st = s.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.Len(t, st.Route, 2)
}

func TestStore_BeginKeepsPreviousRoute(t *testing.T) {
	s := NewStore()
	require.True(t, s.CompleteRequest(s.BeginRequest(), sampleRoute()))

	s.BeginRequest()
	st := s.Snapshot()

	assert.True(t, st.Loading)
	assert.Len(t, st.Route, 2)
}

func TestStore_FailLeavesRouteUnchanged(t *testing.T) {
	s := NewStore()
	require.True(t, s.CompleteRequest(s.BeginRequest(), sampleRoute()))
	before := s.Snapshot().Route

	require.True(t, s.FailRequest(s.BeginRequest()))
	st := s.Snapshot()

	assert.False(t, st.Loading)
	assert.Equal(t, PhaseFailed, st.Phase)
	assert.Equal(t, before, st.Route)
}

func TestStore_StaleTicketIgnored(t *testing.T) {
	s := NewStore()
	first := s.BeginRequest()
	second := s.BeginRequest()

	assert.False(t, s.CompleteRequest(first, sampleRoute()))
	assert.False(t, s.FailRequest(first))

	st := s.Snapshot()
	assert.True(t, st.Loading, "latest request still pending")
	assert.Empty(t, st.Route)

	assert.True(t, s.CompleteRequest(second, sampleRoute()[:1]))
	assert.Len(t, s.Snapshot().Route, 1)
}

func TestStore_ResolvedTicketCannotResolveTwice(t *testing.T) {
	s := NewStore()
	ticket := s.BeginRequest()

	require.True(t, s.CompleteRequest(ticket, sampleRoute()))
	assert.False(t, s.FailRequest(ticket))
	assert.Equal(t, PhaseLoaded, s.Snapshot().Phase)
}

func TestStore_ReEnterable(t *testing.T) {
	s := NewStore()
	for i := 0; i < 3; i++ {
		ticket := s.BeginRequest()
		require.True(t, s.CompleteRequest(ticket, sampleRoute()))
	}
	assert.Equal(t, PhaseLoaded, s.Snapshot().Phase)
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	require.True(t, s.CompleteRequest(s.BeginRequest(), sampleRoute()))

	st := s.Snapshot()
	*st.Route[0].Score = 0
	st.Route[1].Lat = 0

	again := s.Snapshot()
	assert.InDelta(t, 0.9, again.Route[0].ScoreValue(), 1e-12)
	assert.InDelta(t, 42.36, again.Route[1].Lat, 1e-12)
}

func TestStore_ConcurrentSubmissions(t *testing.T) {
	s := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := s.BeginRequest()
			s.CompleteRequest(ticket, sampleRoute())
		}()
	}
	wg.Wait()

	// whoever drew the latest ticket completes after drawing it
	st := s.Snapshot()
	assert.False(t, st.Loading)
	assert.Equal(t, PhaseLoaded, st.Phase)
}

func TestWaypoint_ScoreValueAndRenderable(t *testing.T) {
	w := Waypoint{Lat: 10, Lng: 20}
	assert.Nil(t, w.Score)
	assert.Zero(t, w.ScoreValue())
	assert.True(t, w.Renderable())

	assert.False(t, Waypoint{Lat: math.NaN(), Lng: 1}.Renderable())
	assert.False(t, Waypoint{Lat: 1, Lng: math.Inf(1)}.Renderable())
	assert.False(t, Waypoint{Lat: 91, Lng: 1}.Renderable())
	assert.False(t, Waypoint{Lat: 1, Lng: -181}.Renderable())
}

func TestRoute_Renderable(t *testing.T) {
	r := Route{
		{Lat: 1, Lng: 1},
		{Lat: math.NaN(), Lng: 1},
		{Lat: 2, Lng: 2},
	}
	got := r.Renderable()
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[1].Lat)
}
