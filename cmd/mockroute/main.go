package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"

	"github.com/woozymasta/safelanes/internal/logger"
	"github.com/woozymasta/safelanes/internal/routing"
	"github.com/woozymasta/safelanes/internal/server"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Addr  string        `short:"a" long:"addr"  env:"LISTEN_ADDRESS" description:"Address to listen on"            default:"127.0.0.1"`
	Delay time.Duration `short:"d" long:"delay" env:"MOCK_DELAY"     description:"Artificial latency per response" default:"1s"`
	Port  int           `short:"p" long:"port"  env:"LISTEN_PORT"    description:"Port to listen on"               default:"8085"`
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

	opts.Logger.Setup()

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	log.Info().
		Str("addr", listenAddr).
		Str("endpoint", routing.PathEndpoint).
		Dur("delay", opts.Delay).
		Int("waypoints", len(routing.MockRoute())).
		Msg("Mock routing service started")

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           server.RequestLogger(routing.MockHandler(opts.Delay)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
