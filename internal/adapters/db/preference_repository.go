// internal/adapters/db/preference_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/ammerola/boxwise-be/internal/core/domain"
	"github.com/ammerola/boxwise-be/internal/core/ports"
)

type preferenceRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

// PreferenceRepository implements ports.PreferenceRepository on Postgres
type PreferenceRepository struct {
	db     DBTX
	logger *slog.Logger
}

var _ ports.PreferenceRepository = (*PreferenceRepository)(nil)

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(db DBTX, logger *slog.Logger) *PreferenceRepository {
	return &PreferenceRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "preferences")),
	}
}

// Get returns the stored preference or domain.ErrPreferenceNotFound
func (r *PreferenceRepository) Get(ctx context.Context, key string) (*domain.Preference, error) {
	var row preferenceRow
	err := pgxscan.Get(ctx, r.db, &row,
		`SELECT key, value, updated_at FROM preferences WHERE key = $1`, key)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrPreferenceNotFound, key)
		}
		return nil, fmt.Errorf("failed to get preference: %w", err)
	}

	return &domain.Preference{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt}, nil
}

// Put inserts or replaces a preference
func (r *PreferenceRepository) Put(ctx context.Context, pref *domain.Preference) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO preferences (key, value, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		pref.Key, pref.Value, pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}

	r.logger.DebugContext(ctx, "preference saved", slog.String("key", pref.Key))
	return nil
}
