package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ControlStore struct {
	db *pgxpool.Pool
}

func NewControlStore(db *pgxpool.Pool) *ControlStore {
	return &ControlStore{db: db}
}

// Get returns the singleton game control row. A missing row is fatal for the
// consuming view, so it surfaces as ErrNotFound.
func (s *ControlStore) Get(ctx context.Context) (*models.GameControl, error) {
	query := `
		SELECT id, game_status, is_active, active_question_id, created_at, updated_at
		FROM game_control
		WHERE id = $1
	`

	c := &models.GameControl{}
	err := s.db.QueryRow(ctx, query, models.GameControlID).Scan(
		&c.ID,
		&c.GameStatus,
		&c.IsActive,
		&c.ActiveQuestionID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game control: %w", err)
	}

	return c, nil
}

// Update persists a transition. The transition is complete only once this
// write returns without error.
func (s *ControlStore) Update(ctx context.Context, c *models.GameControl) error {
	query := `
		UPDATE game_control
		SET game_status = $2, is_active = $3, active_question_id = $4, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, models.GameControlID,
		c.GameStatus, c.IsActive, c.ActiveQuestionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game control: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
