package main

import (
	"context"
	"log"

	"vision-router/internal/bootstrap"
	"vision-router/internal/shared/config"
	"vision-router/internal/shared/server"
)

func main() {
	cfg := config.Load()

	app, err := bootstrap.Build(context.Background(), cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer app.Close()

	addr := server.Addr(cfg.Port)
	log.Printf("Starting API server on %s (result store: %s)", addr, cfg.ResultStore)

	if err := app.Router.Run(addr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
