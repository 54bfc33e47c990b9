package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mkalvans/passvault/internal/cli"
	"github.com/mkalvans/passvault/internal/config"
	"github.com/mkalvans/passvault/internal/logging"
)

func main() {

	cfg := config.LoadConfig()

	sl := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(sl)

	app, err := cli.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	// Terminal reads cannot be interrupted by context cancellation, so an
	// interrupt runs the shutdown guard directly and exits. Shutdown is
	// idempotent: the normal path in Run performs the same cleanup.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		app.Shutdown(context.Background())
		os.Exit(1)
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}
}
