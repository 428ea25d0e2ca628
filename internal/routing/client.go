// Package routing talks to the external walking route service.
package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog/log"
)

// PathEndpoint is the walking path resource on the routing service.
const PathEndpoint = "/api/walking-path"

// maxBody bounds how much of a response is read.
const maxBody = 8 << 20

// Request is the body sent to the routing service.
type Request struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Coordinate is one element of the service response.
// Pointers distinguish absent fields from zero values.
type Coordinate struct {
	Lat   *float64 `json:"lat"`
	Lng   *float64 `json:"lng"`
	Score *float64 `json:"score,omitempty"`
}

// Client calls the routing service over HTTP.
type Client struct {
	client  *http.Client
	baseURL string
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// WalkingPath requests a walking route between two free-text locations.
// Failures are *NetworkError or *MalformedResponseError.
func (c *Client) WalkingPath(ctx context.Context, source, destination string) ([]Coordinate, error) {
	body, err := json.Marshal(Request{Source: source, Destination: destination})
	if err != nil {
		return nil, eris.Wrap(err, "routing: marshal request")
	}

	url := c.baseURL + PathEndpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{Err: eris.Wrap(err, "routing: create request")}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: eris.Wrap(err, "routing: post walking path")}
	}
	defer func() { _ = resp.Body.Close() }()

	log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Routing service responded")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &NetworkError{Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &NetworkError{Err: eris.Wrap(err, "routing: read response body")}
	}

	return decodeCoordinates(data)
}

// decodeCoordinates accepts only a non-empty JSON array of objects.
func decodeCoordinates(data []byte) ([]Coordinate, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &MalformedResponseError{Err: eris.New("response is not a JSON array")}
	}

	var coords []Coordinate
	if err := json.Unmarshal(trimmed, &coords); err != nil {
		return nil, &MalformedResponseError{Err: eris.Wrap(err, "decode waypoints")}
	}

	if len(coords) == 0 {
		return nil, &MalformedResponseError{Err: eris.New("route has no waypoints")}
	}

	return coords, nil
}
