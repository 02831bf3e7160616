package ports

import (
	"context"

	"github.com/ammerola/boxwise-be/internal/core/domain"
)

// PreferenceRepository persists display preferences
type PreferenceRepository interface {
	Get(ctx context.Context, key string) (*domain.Preference, error)
	Put(ctx context.Context, pref *domain.Preference) error
}

// PreferenceService reads and writes display preferences
type PreferenceService interface {
	Get(ctx context.Context, key string) (*domain.Preference, error)
	Set(ctx context.Context, key, value string) (*domain.Preference, error)
}
