package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/modelarena/modelarena/pkg/modelarena"
)

func main() {
	// Optional; production deployments configure through real env vars.
	_ = godotenv.Load()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := modelarena.Main(ctx, log, os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("modelarena exited")
	}
}
