package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/darkodi/alias-shortener/internal/encoder"
	"github.com/darkodi/alias-shortener/internal/repository"
)

// DefaultMaxAliasAttempts caps random alias draws per allocation
const DefaultMaxAliasAttempts = 100

// Allocator picks the alias for a new mapping.
//
// The existence checks here only make collisions unlikely. The repository's
// atomic Insert is what guarantees uniqueness.
type Allocator struct {
	repo        repository.Repository
	gen         *encoder.Generator
	maxAttempts int
}

// NewAllocator creates an allocator; maxAttempts < 1 means DefaultMaxAliasAttempts
func NewAllocator(repo repository.Repository, gen *encoder.Generator, maxAttempts int) *Allocator {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAliasAttempts
	}
	return &Allocator{repo: repo, gen: gen, maxAttempts: maxAttempts}
}

// Allocate returns customAlias unchanged if it is non-blank and free, or a fresh
// random alias if customAlias is blank. customised reports which case applied.
func (a *Allocator) Allocate(ctx context.Context, customAlias string) (alias string, customised bool, err error) {
	if strings.TrimSpace(customAlias) != "" {
		exists, err := a.repo.Exists(ctx, customAlias)
		if err != nil {
			return "", false, err
		}
		if exists {
			return "", false, ErrAliasTaken
		}
		return customAlias, true, nil
	}

	alias, err = a.generate(ctx)
	return alias, false, err
}

func (a *Allocator) generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := a.gen.Next()

		exists, err := a.repo.Exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrAliasSpaceExhausted, a.maxAttempts)
}
