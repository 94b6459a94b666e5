package main

import (
	"log"

	"github.com/n-arms/md-pgp-server/internal/config"
	"github.com/n-arms/md-pgp-server/internal/infra/db"
	httpinfra "github.com/n-arms/md-pgp-server/internal/infra/http"
)

func main() {
	cfg := config.FromEnv()

	store, err := db.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}

	srv := httpinfra.NewServer(cfg, store)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
