package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/config"
	"github.com/woozymasta/safelanes/internal/logger"
	"github.com/woozymasta/safelanes/internal/routing"
	"github.com/woozymasta/safelanes/internal/server"
	"github.com/woozymasta/safelanes/internal/snapshot"
	"github.com/woozymasta/safelanes/internal/tiles"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile  string   `short:"c" long:"config"         env:"CONFIG_FILE"    description:"Path to configuration file"                      default:"config.yaml"`
	EnvFile     string   `short:"e" long:"env-file"                            description:"Path to .env file loaded before parsing"         default:".env"`
	Addr        string   `short:"a" long:"addr"           env:"LISTEN_ADDRESS" description:"Address to listen on"                            default:"0.0.0.0"`
	RoutingURL  string   `short:"r" long:"routing-url"    env:"ROUTING_URL"    description:"Routing service base URL (overrides config)"`
	PlacesKey   string   `          long:"places-api-key" env:"PLACES_API_KEY" description:"Places autocomplete API key (overrides config)"`
	CORSOrigins []string `          long:"cors-origin"    env:"CORS_ORIGINS"   description:"Allowed CORS origins"                            default:"*" env-delim:","`
	Port        int      `short:"p" long:"port"           env:"LISTEN_PORT"    description:"Port to listen on"                               default:"8080"`
}

func main() {
	loadEnvFile(os.Args[1:])

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.RoutingURL != "" {
		cfg.Routing.URL = opts.RoutingURL
	}
	if opts.PlacesKey != "" {
		cfg.Places.APIKey = opts.PlacesKey
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	var tileSource snapshot.TileSource
	if cfg.Snapshot.Basemap {
		tileSource = tiles.NewFetcher(tiles.Options{
			URLTemplate:   cfg.Tiles.URL,
			Subdomains:    cfg.Tiles.Subdomains,
			UserAgent:     cfg.Tiles.UserAgent,
			Timeout:       cfg.Tiles.Timeout,
			Concurrency:   cfg.Tiles.Concurrency,
			RatePerSecond: cfg.Tiles.RatePerSecond,
		})
	}

	srvCtx, err := server.NewServerContext(cfg, routing.NewClient(cfg.Routing.URL, cfg.Routing.Timeout), tileSource)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	handler := server.RequestLogger(srvCtx.Routes())
	handler = middleware.Recoverer(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "If-None-Match"},
		MaxAge:         300,
	})(handler)
	handler = middleware.RealIP(handler)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	httpServer := &http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}()

	log.Info().
		Str("addr", listenAddr).
		Str("routing_url", cfg.Routing.URL).
		Dur("routing_timeout", cfg.Routing.Timeout).
		Msg("Web server started")

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}

	log.Info().Msg("Server stopped")
}

// loadEnvFile reads the .env file named by --env-file/-e (default .env) into the
// process environment so go-flags sees its values. Existing variables win.
func loadEnvFile(args []string) {
	path := ".env"
	for i, a := range args {
		switch {
		case (a == "-e" || a == "--env-file") && i+1 < len(args):
			path = args[i+1]
		case strings.HasPrefix(a, "--env-file="):
			path = strings.TrimPrefix(a, "--env-file=")
		}
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", path, err)
	}
}
