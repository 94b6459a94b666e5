package db

import (
	"fmt"
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/n-arms/md-pgp-server/internal/config"
)

type Store struct {
	DB *gorm.DB
}

// NewStore connects to Postgres, or returns a no-db store when no DSN is
// configured (the server then falls back to in-memory repositories).
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey
// regardless of driver.
func NewStore(cfg config.Config) (*Store, error) {
	if cfg.PostgresDSN == "" {
		log.Printf("POSTGRES_DSN not set; starting in no-db mode.")
		return &Store{DB: nil}, nil
	}

	gdb, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := gdb.AutoMigrate(&AccountModel{}, &DocumentModel{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{DB: gdb}, nil
}
