package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserProfile holds a user's stored curation settings.
type UserProfile struct {
	UserID      string
	Preferences []string
	Platforms   []Platform
	UpdatedAt   time.Time
}

// SavedMessage is a message a user kept (manually or via the digest worker).
type SavedMessage struct {
	ID      uuid.UUID
	UserID  string
	Message ScoredMessage
	Source  string // "manual" or "digest"
	SavedAt time.Time
}

// TransactionManager runs a function inside a database transaction.
// Repositories called within fn join the same transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PreferenceRepository manages user profiles.
type PreferenceRepository interface {
	// Get retrieves a profile. Returns nil, nil if not found.
	Get(ctx context.Context, userID string) (*UserProfile, error)

	// Upsert creates or replaces a profile.
	Upsert(ctx context.Context, profile *UserProfile) error

	// ListWithPreferences returns all profiles that have at least one
	// preference, for the digest worker.
	ListWithPreferences(ctx context.Context) ([]UserProfile, error)
}

// SavedMessageRepository manages saved messages.
type SavedMessageRepository interface {
	Save(ctx context.Context, saved *SavedMessage) error

	// ListByUser returns saved messages newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]SavedMessage, error)

	Delete(ctx context.Context, userID string, id uuid.UUID) error

	// Exists reports whether the user already saved the given message ID
	// (the platform-prefixed message ID, not the row ID).
	Exists(ctx context.Context, userID string, messageID string) (bool, error)
}
