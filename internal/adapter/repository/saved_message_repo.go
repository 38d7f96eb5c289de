package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"message-orchestrator/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SavedMessageRepository struct {
	db *pgxpool.Pool
}

func NewSavedMessageRepository(db *pgxpool.Pool) domain.SavedMessageRepository {
	return &SavedMessageRepository{db: db}
}

func (r *SavedMessageRepository) Save(ctx context.Context, saved *domain.SavedMessage) error {
	query := `
		INSERT INTO saved_messages (id, user_id, message_id, message, source, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, message_id) DO NOTHING
	`

	messageBytes, err := json.Marshal(saved.Message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	savedAt := saved.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	_, err = querier(ctx, r.db).Exec(ctx, query,
		saved.ID,
		saved.UserID,
		saved.Message.ID,
		messageBytes,
		saved.Source,
		savedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (r *SavedMessageRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.SavedMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, message, source, saved_at
		FROM saved_messages
		WHERE user_id = $1
		ORDER BY saved_at DESC
		LIMIT $2
	`

	rows, err := querier(ctx, r.db).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved messages: %w", err)
	}
	defer rows.Close()

	var saved []domain.SavedMessage
	for rows.Next() {
		var s domain.SavedMessage
		var messageBytes []byte
		if err := rows.Scan(
			&s.ID,
			&s.UserID,
			&messageBytes,
			&s.Source,
			&s.SavedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan saved message: %w", err)
		}
		if err := json.Unmarshal(messageBytes, &s.Message); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		saved = append(saved, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved messages: %w", err)
	}

	return saved, nil
}

func (r *SavedMessageRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	query := `DELETE FROM saved_messages WHERE user_id = $1 AND id = $2`

	tag, err := querier(ctx, r.db).Exec(ctx, query, userID, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("saved message not found: %s", id)
	}
	return nil
}

func (r *SavedMessageRepository) Exists(ctx context.Context, userID string, messageID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM saved_messages WHERE user_id = $1 AND message_id = $2)`

	var exists bool
	if err := querier(ctx, r.db).QueryRow(ctx, query, userID, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check saved message: %w", err)
	}
	return exists, nil
}
