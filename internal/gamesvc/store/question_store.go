package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type QuestionStore struct {
	db *pgxpool.Pool
}

func NewQuestionStore(db *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{db: db}
}

func (s *QuestionStore) GetByID(ctx context.Context, id string) (*models.Question, error) {
	query := `
		SELECT id, question_text, options, correct_option, created_at, updated_at
		FROM questions
		WHERE id = $1
	`

	q := &models.Question{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&q.ID,
		&q.QuestionText,
		&q.Options,
		&q.CorrectOption,
		&q.CreatedAt,
		&q.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get question by ID: %w", err)
	}

	return q, nil
}

func (s *QuestionStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM questions WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check question existence: %w", err)
	}
	return exists, nil
}

func (s *QuestionStore) List(ctx context.Context) ([]models.Question, error) {
	query := `
		SELECT id, question_text, options, correct_option, created_at, updated_at
		FROM questions
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		err := rows.Scan(
			&q.ID,
			&q.QuestionText,
			&q.Options,
			&q.CorrectOption,
			&q.CreatedAt,
			&q.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

func (s *QuestionStore) Create(ctx context.Context, q *models.Question) (*models.Question, error) {
	query := `
		INSERT INTO questions (question_text, options, correct_option)
		VALUES ($1, $2, $3)
		RETURNING id, question_text, options, correct_option, created_at, updated_at
	`

	created := &models.Question{}
	err := s.db.QueryRow(ctx, query, q.QuestionText, q.Options, q.CorrectOption).Scan(
		&created.ID,
		&created.QuestionText,
		&created.Options,
		&created.CorrectOption,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	return created, nil
}

func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}
