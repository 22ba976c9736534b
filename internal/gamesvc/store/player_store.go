package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayerStore struct {
	db *pgxpool.Pool
}

func NewPlayerStore(db *pgxpool.Pool) *PlayerStore {
	return &PlayerStore{db: db}
}

// Create inserts a new player with score 0. A nickname collision hits the
// players_nickname_key unique constraint and is mapped to ErrConflict so the
// participant can retry with a different name.
func (s *PlayerStore) Create(ctx context.Context, nickname string) (*models.Player, error) {
	if nickname == "" {
		return nil, fmt.Errorf("nickname cannot be empty")
	}

	query := `
		INSERT INTO players (nickname, score)
		VALUES ($1, 0)
		RETURNING id, nickname, score, created_at, updated_at
	`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, nickname).Scan(
		&p.ID,
		&p.Nickname,
		&p.Score,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrConflict
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return p, nil
}

func (s *PlayerStore) GetByID(ctx context.Context, id string) (*models.Player, error) {
	query := `
		SELECT id, nickname, score, created_at, updated_at
		FROM players
		WHERE id = $1
	`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.Nickname,
		&p.Score,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get player by ID: %w", err)
	}

	return p, nil
}

func (s *PlayerStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM players WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check player existence: %w", err)
	}
	return exists, nil
}

// UpdateScore writes a new score total. This is the write half of the
// per-player read-modify-write; different players never contend on a row.
func (s *PlayerStore) UpdateScore(ctx context.Context, id string, score int) (*models.Player, error) {
	query := `
		UPDATE players
		SET score = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, nickname, score, created_at, updated_at
	`

	p := &models.Player{}
	err := s.db.QueryRow(ctx, query, id, score).Scan(
		&p.ID,
		&p.Nickname,
		&p.Score,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update player score: %w", err)
	}

	return p, nil
}

// ListByScore returns up to limit players ordered by score descending,
// insertion order on ties.
func (s *PlayerStore) ListByScore(ctx context.Context, limit int) ([]*models.Player, error) {
	query := `
		SELECT id, nickname, score, created_at, updated_at
		FROM players
		ORDER BY score DESC, created_at ASC, id ASC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		err := rows.Scan(
			&p.ID,
			&p.Nickname,
			&p.Score,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &p)
	}

	return players, rows.Err()
}

func (s *PlayerStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM players`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return count, nil
}

// DeleteAll removes every player row and returns the deleted records so the
// caller can fan out one DELETE notification per player.
func (s *PlayerStore) DeleteAll(ctx context.Context) ([]*models.Player, error) {
	query := `
		DELETE FROM players
		RETURNING id, nickname, score, created_at, updated_at
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to delete players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var p models.Player
		err := rows.Scan(
			&p.ID,
			&p.Nickname,
			&p.Score,
			&p.CreatedAt,
			&p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, &p)
	}

	return players, rows.Err()
}
