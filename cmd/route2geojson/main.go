package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/safelanes/internal/config"
	"github.com/woozymasta/safelanes/internal/planner"
	"github.com/woozymasta/safelanes/internal/render"
	"github.com/woozymasta/safelanes/internal/route"
	"github.com/woozymasta/safelanes/internal/routing"
	"github.com/woozymasta/safelanes/internal/safety"
	"github.com/woozymasta/safelanes/internal/snapshot"
)

type Options struct {
	Input    string `short:"i" long:"in"       description:"Input file with a JSON array of {lat, lng, score}. Reads from stdin if empty"`
	Output   string `short:"o" long:"out"      description:"Output file path. Writes to stdout if empty"`
	Format   string `short:"f" long:"format"   description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Scale    string `short:"s" long:"scale"    description:"Score scale of the input" choice:"unit" choice:"ten" default:"unit"`
	Snapshot string `          long:"snapshot" description:"Also render a WebP snapshot to this path"`
	Mock     bool   `short:"m" long:"mock"     description:"Use the built-in sample route instead of input"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	scale, err := safety.ParseScale(opts.Scale)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Read Input
	coords := routing.MockRoute()
	if !opts.Mock {
		var inputData []byte
		if opts.Input != "" {
			inputData, err = os.ReadFile(opts.Input)
		} else {
			inputData, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
			os.Exit(1)
		}

		coords = nil
		if err := json.Unmarshal(inputData, &coords); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing waypoints: %v\n", err)
			os.Exit(1)
		}
		if len(coords) == 0 {
			fmt.Fprintln(os.Stderr, "Error: input holds no waypoints")
			os.Exit(1)
		}
	}

	cfg := config.Default()
	r := render.New(render.Options{
		Tiles: render.TileLayer{
			URL:         cfg.Tiles.URL,
			Attribution: cfg.Tiles.Attribution,
			Subdomains:  cfg.Tiles.Subdomains,
			MaxZoom:     cfg.Tiles.MaxZoom,
		},
		Center:  cfg.Map.Center,
		Zoom:    cfg.Map.Zoom,
		Padding: cfg.Map.Padding,
		Scale:   scale,
	})
	view := r.Render(route.State{Phase: route.PhaseLoaded, Route: planner.ToRoute(coords)})

	// marshal
	outputData, err := render.GeoJSON(view).MarshalJSON()
	if err == nil {
		outputData, err = reformat(outputData, opts.Format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Snapshot != "" {
		if err := writeSnapshot(opts.Snapshot, cfg, view); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Successfully converted %d waypoints to %s (format: %s)\n", len(coords), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}

	if view.Summary != nil {
		fmt.Fprintf(os.Stderr, "%d waypoints, %d segments, average safety %s (%.2f)\n",
			view.Summary.Waypoints, len(view.Segments), view.Summary.AverageLabel, view.Summary.AverageScore)
	}
}

// reformat indents GeoJSON or converts it to YAML.
func reformat(data []byte, format string) ([]byte, error) {
	if format == "yaml" {
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return yaml.Marshal(doc)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeSnapshot(path string, cfg *config.Config, view render.View) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	s := snapshot.New(snapshot.Options{
		Width:   cfg.Snapshot.Width,
		Height:  cfg.Snapshot.Height,
		Padding: cfg.Map.Padding,
		MaxZoom: cfg.Tiles.MaxZoom,
		Quality: cfg.Snapshot.Quality,
	}, nil)

	return s.Encode(context.Background(), f, view)
}
