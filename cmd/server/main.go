package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Simplici0/edmtrack/internal/app"
	"github.com/Simplici0/edmtrack/internal/config"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.Close()

	if err := a.Serve(ctx, ":"+cfg.Port); err != nil {
		log.Fatalf("%v", err)
	}
}
