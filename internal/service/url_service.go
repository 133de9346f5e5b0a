package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/darkodi/alias-shortener/internal/cache"
	"github.com/darkodi/alias-shortener/internal/encoder"
	"github.com/darkodi/alias-shortener/internal/logger"
	"github.com/darkodi/alias-shortener/internal/model"
	"github.com/darkodi/alias-shortener/internal/repository"
)

// Custom errors for the service layer
var (
	ErrEmptyURL            = errors.New("URL cannot be empty")
	ErrAliasTaken          = errors.New("custom alias already taken")
	ErrAliasNotFound       = errors.New("alias not found")
	ErrAliasSpaceExhausted = errors.New("could not generate a unique alias")
)

// Cache is an optional look-aside cache for redirects
type Cache interface {
	Get(ctx context.Context, alias string) (string, error)
	Set(ctx context.Context, alias, fullURL string) error
	Delete(ctx context.Context, alias string) error
	Ping(ctx context.Context) error
}

// Options tune a URLService. Zero values pick defaults.
type Options struct {
	MaxAliasAttempts int
	Cache            Cache
	Logger           *logger.Logger
	Now              func() time.Time
}

// URLService handles business logic for URL operations
type URLService struct {
	repo        repository.Repository
	allocator   *Allocator
	cache       Cache
	log         *logger.Logger
	now         func() time.Time
	maxAttempts int
}

// NewURLService creates a new service instance
func NewURLService(repo repository.Repository, gen *encoder.Generator, opts Options) *URLService {
	if opts.MaxAliasAttempts < 1 {
		opts.MaxAliasAttempts = DefaultMaxAliasAttempts
	}
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &URLService{
		repo:        repo,
		allocator:   NewAllocator(repo, gen, opts.MaxAliasAttempts),
		cache:       opts.Cache,
		log:         opts.Logger,
		now:         opts.Now,
		maxAttempts: opts.MaxAliasAttempts,
	}
}

// Shorten allocates an alias for req.FullURL and stores the mapping.
// baseURL is the caller-visible service address, e.g. "http://localhost:8080".
func (s *URLService) Shorten(ctx context.Context, req model.CreateURLRequest, baseURL string) (*model.CreateURLResponse, error) {
	if strings.TrimSpace(req.FullURL) == "" {
		return nil, ErrEmptyURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	// a generated alias can still lose the insert race; draw again
	for collisions := 0; collisions < s.maxAttempts; collisions++ {
		alias, customised, err := s.allocator.Allocate(ctx, req.CustomAlias)
		if err != nil {
			return nil, err
		}

		// a stale entry from an earlier owner of this alias must not outlive the insert
		if err := s.evict(ctx, alias); err != nil {
			return nil, err
		}

		mapping := &model.URLMapping{
			Alias:        alias,
			FullURL:      req.FullURL,
			ShortURL:     baseURL + "/" + alias,
			IsCustomised: customised,
			CreatedAt:    s.now().UTC(),
		}

		err = s.repo.Insert(ctx, mapping)
		if errors.Is(err, repository.ErrAlreadyExists) {
			if customised {
				return nil, ErrAliasTaken
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		s.log.FromContext(ctx).Info("url shortened",
			"alias", alias,
			"full_url", mapping.FullURL,
			"short_url", mapping.ShortURL,
			"customised", customised,
		)
		return &model.CreateURLResponse{ShortURL: mapping.ShortURL}, nil
	}

	return nil, fmt.Errorf("%w: %d insert collisions", ErrAliasSpaceExhausted, s.maxAttempts)
}

// Resolve returns the full URL for alias
func (s *URLService) Resolve(ctx context.Context, alias string) (string, error) {
	if s.cache != nil {
		fullURL, err := s.cache.Get(ctx, alias)
		if err == nil {
			return fullURL, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.FromContext(ctx).Warn("cache read failed", "alias", alias, "error", err.Error())
		}
	}

	mapping, err := s.repo.Get(ctx, alias)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrAliasNotFound
	}
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, alias, mapping.FullURL); err != nil {
			s.log.FromContext(ctx).Warn("cache write failed", "alias", alias, "error", err.Error())
		} else if !s.stillMapped(ctx, alias, mapping.FullURL) {
			// a delete or re-create overtook the read above
			if err := s.cache.Delete(ctx, alias); err != nil {
				s.log.FromContext(ctx).Warn("cache rollback failed", "alias", alias, "error", err.Error())
			}
		}
	}

	return mapping.FullURL, nil
}

// stillMapped reports whether the store still maps alias to fullURL
func (s *URLService) stillMapped(ctx context.Context, alias, fullURL string) bool {
	current, err := s.repo.Get(ctx, alias)
	return err == nil && current.FullURL == fullURL
}

// evict drops alias from the cache. Unlike reads and writes, a failed
// eviction is returned to the caller.
func (s *URLService) evict(ctx context.Context, alias string) error {
	if s.cache == nil {
		return nil
	}
	if err := s.cache.Delete(ctx, alias); err != nil {
		s.log.FromContext(ctx).Warn("cache invalidation failed", "alias", alias, "error", err.Error())
		return fmt.Errorf("cache invalidation: %w", err)
	}
	return nil
}

// Delete removes the mapping for alias
func (s *URLService) Delete(ctx context.Context, alias string) error {
	exists, err := s.repo.Exists(ctx, alias)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAliasNotFound
	}

	// evict first so an unreachable cache leaves the mapping in place
	if err := s.evict(ctx, alias); err != nil {
		return err
	}

	// a concurrent delete may win between the check and here
	if err := s.repo.Delete(ctx, alias); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAliasNotFound
		}
		return err
	}

	// a resolve that read the store before the delete may have refilled it
	if err := s.evict(ctx, alias); err != nil {
		return err
	}

	s.log.FromContext(ctx).Info("url mapping deleted", "alias", alias)
	return nil
}

// List returns every mapping in its public form
func (s *URLService) List(ctx context.Context) ([]model.URLMappingView, error) {
	mappings, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]model.URLMappingView, 0, len(mappings))
	for _, m := range mappings {
		views = append(views, m.View())
	}
	return views, nil
}

// Health checks the store and, if configured, the cache
func (s *URLService) Health(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}
