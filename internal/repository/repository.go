package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/darkodi/alias-shortener/internal/config"
	"github.com/darkodi/alias-shortener/internal/model"
)

var (
	ErrNotFound      = errors.New("url mapping not found")
	ErrAlreadyExists = errors.New("url mapping already exists")
)

// Repository is the durable, alias-keyed store of URL mappings.
//
// Insert must be atomic with respect to uniqueness: when two callers race on the
// same alias exactly one succeeds and the other gets ErrAlreadyExists.
//
//go:generate mockgen -destination=../mocks/repository_mock.go -package=mocks github.com/darkodi/alias-shortener/internal/repository Repository
type Repository interface {
	Exists(ctx context.Context, alias string) (bool, error)
	Insert(ctx context.Context, m *model.URLMapping) error
	Get(ctx context.Context, alias string) (*model.URLMapping, error)
	Delete(ctx context.Context, alias string) error
	List(ctx context.Context) ([]*model.URLMapping, error)

	Ping(ctx context.Context) error
	Close() error
}

// NewURLRepository opens the backend selected by cfg.Driver
func NewURLRepository(ctx context.Context, cfg *config.DatabaseConfig) (Repository, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemoryRepository(), nil
	case config.DriverSQLite:
		return NewSQLiteRepository(ctx, cfg.Path)
	case config.DriverPostgres, config.DriverPgx:
		return NewPostgresRepository(ctx, cfg.Driver, cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
