package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SettingsStore struct {
	db *pgxpool.Pool
}

func NewSettingsStore(db *pgxpool.Pool) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the singleton settings row. A missing row is fatal for the
// consuming view, so it surfaces as ErrNotFound.
func (s *SettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	query := `
		SELECT id, game_title, logo_url, primary_color, secondary_color,
		       question_timer, points_base, points_factor, questions_limit,
		       admin_password, created_at, updated_at
		FROM settings
		WHERE id = $1
	`

	st := &models.Settings{}
	err := s.db.QueryRow(ctx, query, models.SettingsID).Scan(
		&st.ID,
		&st.GameTitle,
		&st.LogoURL,
		&st.PrimaryColor,
		&st.SecondaryColor,
		&st.QuestionTimer,
		&st.PointsBase,
		&st.PointsFactor,
		&st.QuestionsLimit,
		&st.AdminPassword,
		&st.CreatedAt,
		&st.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	return st, nil
}

func (s *SettingsStore) Update(ctx context.Context, st *models.Settings) error {
	query := `
		UPDATE settings
		SET game_title = $2, logo_url = $3, primary_color = $4, secondary_color = $5,
		    question_timer = $6, points_base = $7, points_factor = $8,
		    questions_limit = $9, admin_password = $10, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.db.Exec(ctx, query, models.SettingsID,
		st.GameTitle, st.LogoURL, st.PrimaryColor, st.SecondaryColor,
		st.QuestionTimer, st.PointsBase, st.PointsFactor,
		st.QuestionsLimit, st.AdminPassword,
	)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
