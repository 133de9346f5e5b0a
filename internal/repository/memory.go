package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/darkodi/alias-shortener/internal/model"
)

// MemoryRepository keeps mappings in a locked map. Nothing survives a restart.
type MemoryRepository struct {
	mu   sync.RWMutex
	data map[string]model.URLMapping
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		data: make(map[string]model.URLMapping),
	}
}

func (m *MemoryRepository) Exists(ctx context.Context, alias string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[alias]
	return ok, nil
}

func (m *MemoryRepository) Insert(ctx context.Context, u *model.URLMapping) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[u.Alias]; ok {
		return ErrAlreadyExists
	}
	m.data[u.Alias] = *u
	return nil
}

func (m *MemoryRepository) Get(ctx context.Context, alias string) (*model.URLMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.data[alias]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryRepository) Delete(ctx context.Context, alias string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.data[alias]; !ok {
		return ErrNotFound
	}
	delete(m.data, alias)
	return nil
}

func (m *MemoryRepository) List(ctx context.Context) ([]*model.URLMapping, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	urls := make([]*model.URLMapping, 0, len(m.data))
	for _, u := range m.data {
		urls = append(urls, &u)
	}
	m.mu.RUnlock()

	// same order as the SQL backends
	sort.Slice(urls, func(i, j int) bool {
		if !urls[i].CreatedAt.Equal(urls[j].CreatedAt) {
			return urls[i].CreatedAt.Before(urls[j].CreatedAt)
		}
		return urls[i].Alias < urls[j].Alias
	})

	return urls, nil
}

func (m *MemoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryRepository) Close() error {
	return nil
}
