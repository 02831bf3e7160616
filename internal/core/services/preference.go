package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
	"github.com/dgraph-io/ristretto/v2"
)

const preferenceCacheTTL = 10 * time.Minute

// PreferenceService stores display preferences with an in-process read cache
type PreferenceService struct {
	repo   ports.PreferenceRepository
	cache  *ristretto.Cache[string, domain.Preference]
	logger *slog.Logger
}

var _ ports.PreferenceService = (*PreferenceService)(nil)

// NewPreferenceService creates a preference service
func NewPreferenceService(repo ports.PreferenceRepository, logger *slog.Logger) (*PreferenceService, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, domain.Preference]{
		NumCounters: 10_000,
		MaxCost:     1_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create preference cache: %w", err)
	}

	return &PreferenceService{
		repo:   repo,
		cache:  cache,
		logger: logger.With(slog.String("service", "preferences")),
	}, nil
}

// Get returns the stored preference or domain.ErrPreferenceNotFound
func (s *PreferenceService) Get(ctx context.Context, key string) (*domain.Preference, error) {
	if err := domain.ValidatePreferenceKey(key); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if p, ok := s.cache.Get(key); ok {
		return &p, nil
	}

	p, err := s.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	s.cache.SetWithTTL(key, *p, 1, preferenceCacheTTL)
	s.cache.Wait()
	return p, nil
}

// Set validates and stores a preference
func (s *PreferenceService) Set(ctx context.Context, key, value string) (*domain.Preference, error) {
	p := &domain.Preference{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	// drop first so a failed write never leaves a stale entry
	s.cache.Del(key)

	if err := s.repo.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save preference: %w", err)
	}

	s.cache.SetWithTTL(key, *p, 1, preferenceCacheTTL)
	s.cache.Wait()

	s.logger.InfoContext(ctx, "saved preference",
		slog.String("key", key),
		slog.String("value", value))

	return p, nil
}

// Close releases the read cache
func (s *PreferenceService) Close() {
	s.cache.Close()
}
