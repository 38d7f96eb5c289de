package repository

import (
	"context"
	"fmt"
	"time"

	"message-orchestrator/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PreferenceRepository struct {
	db *pgxpool.Pool
}

func NewPreferenceRepository(db *pgxpool.Pool) domain.PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*domain.UserProfile, error) {
	query := `
		SELECT user_id, preferences, platforms, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`

	var profile domain.UserProfile
	var platforms []string

	err := querier(ctx, r.db).QueryRow(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.Preferences,
		&platforms,
		&profile.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}

	profile.Platforms = toPlatforms(platforms)
	return &profile, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, profile *domain.UserProfile) error {
	query := `
		INSERT INTO user_profiles (user_id, preferences, platforms, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET preferences = $2, platforms = $3, updated_at = $4
	`

	platforms := make([]string, len(profile.Platforms))
	for i, p := range profile.Platforms {
		platforms[i] = string(p)
	}

	_, err := querier(ctx, r.db).Exec(ctx, query,
		profile.UserID,
		profile.Preferences,
		platforms,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user profile: %w", err)
	}
	return nil
}

func (r *PreferenceRepository) ListWithPreferences(ctx context.Context) ([]domain.UserProfile, error) {
	query := `
		SELECT user_id, preferences, platforms, updated_at
		FROM user_profiles
		WHERE cardinality(preferences) > 0
		ORDER BY user_id
	`

	rows, err := querier(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list user profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.UserProfile
	for rows.Next() {
		var profile domain.UserProfile
		var platforms []string
		if err := rows.Scan(
			&profile.UserID,
			&profile.Preferences,
			&platforms,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user profile: %w", err)
		}
		profile.Platforms = toPlatforms(platforms)
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user profiles: %w", err)
	}

	return profiles, nil
}

func toPlatforms(names []string) []domain.Platform {
	platforms := make([]domain.Platform, len(names))
	for i, name := range names {
		platforms[i] = domain.Platform(name)
	}
	return platforms
}
