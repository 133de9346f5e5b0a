package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/darkodi/alias-shortener/internal/config"
	"github.com/darkodi/alias-shortener/internal/model"
)

const (
	storageMaxOpenConnections     = 5
	storageMaxIdleConnections     = 2
	storageConnectionsMaxIdleTime = 2 * time.Minute
	storageConnectionsLifetime    = 30 * time.Minute
	storagePingTimeout            = 5 * time.Second
)

// SQLRepository stores mappings in a single url_mappings table.
// Uniqueness is left to the table's primary key.
type SQLRepository struct {
	db *sql.DB
	d  dialect

	existsQuery string
	insertQuery string
	getQuery    string
	deleteQuery string
	listQuery   string
}

// NewSQLiteRepository opens (and creates) a sqlite database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteRepository(ctx context.Context, path string) (*SQLRepository, error) {
	db, err := sql.Open(sqliteDialect.name, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer; also keeps a ":memory:" database on one connection
	db.SetMaxOpenConns(1)

	return newSQLRepository(ctx, db, sqliteDialect)
}

// NewPostgresRepository connects through lib/pq ("postgres") or pgx ("pgx")
func NewPostgresRepository(ctx context.Context, driver, dsn string) (*SQLRepository, error) {
	d := pqDialect
	if driver == config.DriverPgx {
		d = pgxDialect
	}

	db, err := sql.Open(d.name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(storageMaxOpenConnections)
	db.SetMaxIdleConns(storageMaxIdleConnections)
	db.SetConnMaxIdleTime(storageConnectionsMaxIdleTime)
	db.SetConnMaxLifetime(storageConnectionsLifetime)

	return newSQLRepository(ctx, db, d)
}

func newSQLRepository(ctx context.Context, db *sql.DB, d dialect) (*SQLRepository, error) {
	ctxPing, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	if err := db.PingContext(ctxPing); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, d.createTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &SQLRepository{
		db:          db,
		d:           d,
		existsQuery: d.bind("SELECT EXISTS(SELECT 1 FROM url_mappings WHERE alias = ?)"),
		insertQuery: d.bind("INSERT INTO url_mappings (alias, full_url, short_url, is_customised, created_at) VALUES (?, ?, ?, ?, ?)"),
		getQuery:    d.bind("SELECT alias, full_url, short_url, is_customised, created_at FROM url_mappings WHERE alias = ?"),
		deleteQuery: d.bind("DELETE FROM url_mappings WHERE alias = ?"),
		listQuery:   "SELECT alias, full_url, short_url, is_customised, created_at FROM url_mappings ORDER BY created_at, alias",
	}, nil
}

func (r *SQLRepository) Exists(ctx context.Context, alias string) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, r.existsQuery, alias).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check alias: %w", err)
	}
	return exists, nil
}

func (r *SQLRepository) Insert(ctx context.Context, m *model.URLMapping) error {
	_, err := r.db.ExecContext(ctx, r.insertQuery,
		m.Alias, m.FullURL, m.ShortURL, m.IsCustomised, m.CreatedAt.UTC(),
	)
	if err != nil {
		if r.d.isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert url mapping: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, alias string) (*model.URLMapping, error) {
	m, err := scanMapping(r.db.QueryRowContext(ctx, r.getQuery, alias))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get url mapping: %w", err)
	}
	return m, nil
}

func (r *SQLRepository) Delete(ctx context.Context, alias string) error {
	result, err := r.db.ExecContext(ctx, r.deleteQuery, alias)
	if err != nil {
		return fmt.Errorf("failed to delete url mapping: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete url mapping: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context) ([]*model.URLMapping, error) {
	rows, err := r.db.QueryContext(ctx, r.listQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list url mappings: %w", err)
	}
	defer rows.Close()

	urls := make([]*model.URLMapping, 0)
	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan url mapping: %w", err)
		}
		urls = append(urls, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list url mappings: %w", err)
	}
	return urls, nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(s scanner) (*model.URLMapping, error) {
	m := &model.URLMapping{}
	if err := s.Scan(&m.Alias, &m.FullURL, &m.ShortURL, &m.IsCustomised, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}
