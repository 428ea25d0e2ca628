package routing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_WalkingPath_Success(t *testing.T) {
	var got Request
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PathEndpoint, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`[{"lat":1.5,"lng":2.5,"score":0.4},{"lat":3,"lng":4}]`))
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL+"/", time.Second)
	coords, err := c.WalkingPath(context.Background(), "A", "B")
	require.NoError(t, err)

	assert.Equal(t, Request{Source: "A", Destination: "B"}, got)
	require.Len(t, coords, 2)
	assert.Equal(t, 1.5, *coords[0].Lat)
	assert.Equal(t, 0.4, *coords[0].Score)
	assert.Nil(t, coords[1].Score)
}

func TestClient_WalkingPath_Non2xx(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	_, err := NewClient(upstream.URL, time.Second).WalkingPath(context.Background(), "A", "B")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusInternalServerError, netErr.Status)
}

func TestClient_WalkingPath_Transport(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	_, err := NewClient(url, time.Second).WalkingPath(context.Background(), "A", "B")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.Status)
}

func TestClient_WalkingPath_Malformed(t *testing.T) {
	bodies := []string{
		`{}`,
		`not json`,
		``,
		`[]`,
		`[1, 2]`,
		`{"route": []}`,
	}

	for _, body := range bodies {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewClient(upstream.URL, time.Second).WalkingPath(context.Background(), "A", "B")
		upstream.Close()

		var malformed *MalformedResponseError
		assert.True(t, errors.As(err, &malformed), "body %q: %v", body, err)
	}
}

func TestClient_WalkingPath_ContextCanceled(t *testing.T) {
	upstream := httptest.NewServer(MockHandler(time.Second))
	defer upstream.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(upstream.URL, 5*time.Second).WalkingPath(ctx, "A", "B")

	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Zero(t, netErr.Status)
}

func TestMockHandler(t *testing.T) {
	upstream := httptest.NewServer(MockHandler(0))
	defer upstream.Close()

	coords, err := NewClient(upstream.URL, time.Second).
		WalkingPath(context.Background(), "Boston Common, MA", "Harvard University, Cambridge")
	require.NoError(t, err)
	require.Len(t, coords, 8)
	assert.Equal(t, 42.3554, *coords[0].Lat)
	assert.Equal(t, 0.9, *coords[7].Score)

	_, err = NewClient(upstream.URL, time.Second).WalkingPath(context.Background(), " ", "x")
	var netErr *NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusBadRequest, netErr.Status)
}
