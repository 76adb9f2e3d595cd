package storage

import (
	"fmt"
	"time"
)

// Config holds storage configuration
type Config struct {
	Type            string // only "mock" is built in
	Dir             string // root directory for mock storage
	BaseURL         string // server base URL for generating mock URLs
	PresignedExpiry time.Duration
	SigningKey      string // signs the tokens in mock upload/download URLs
}

// New builds the configured storage backend.
func New(cfg Config) (StorageInterface, error) {
	switch cfg.Type {
	case "", "mock", "local":
		return NewMockStorageService(cfg.BaseURL, cfg.Dir, cfg.SigningKey)
	}
	return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
}
