package routing

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// MockRoute is the Boston Common to Harvard sample route on the 0-1 score scale.
func MockRoute() []Coordinate {
	points := [...][3]float64{
		{42.3554, -71.0656, 0.9}, // Boston Common
		{42.3600, -71.0600, 0.7},
		{42.3650, -71.0550, 0.5},
		{42.3700, -71.0500, 0.3},
		{42.3750, -71.0450, 0.8},
		{42.3800, -71.0400, 0.6},
		{42.3850, -71.0350, 0.4},
		{42.3900, -71.0300, 0.9}, // Harvard
	}

	out := make([]Coordinate, 0, len(points))
	for _, p := range points {
		lat, lng, score := p[0], p[1], p[2]
		out = append(out, Coordinate{Lat: &lat, Lng: &lng, Score: &score})
	}

	return out
}

// MockHandler serves MockRoute on PathEndpoint after delay, for local runs and tests.
func MockHandler(delay time.Duration) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathEndpoint, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "" {
			http.Error(w, "source and destination are required", http.StatusBadRequest)
			return
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}

		log.Debug().
			Str("source", req.Source).
			Str("destination", req.Destination).
			Msg("Serving mock walking path")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(MockRoute())
	})

	return mux
}
