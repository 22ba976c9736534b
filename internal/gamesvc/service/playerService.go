package service

import (
	"context"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/store"
)

type PlayerService struct {
	playerStore *store.PlayerStore
}

func NewPlayerService(playerStore *store.PlayerStore) *PlayerService {
	return &PlayerService{playerStore: playerStore}
}

// Join creates a player with score 0. A taken nickname returns ErrConflict.
func (s *PlayerService) Join(ctx context.Context, nickname string) (*models.Player, error) {
	return s.playerStore.Create(ctx, nickname)
}

func (s *PlayerService) GetByID(ctx context.Context, id string) (*models.Player, error) {
	return s.playerStore.GetByID(ctx, id)
}

func (s *PlayerService) Exists(ctx context.Context, id string) (bool, error) {
	return s.playerStore.Exists(ctx, id)
}

// AwardPoints performs the read-modify-write score update: fetch the current
// total, add the award, write the new total. A player only races with itself
// here, which normal single-device use never does.
func (s *PlayerService) AwardPoints(ctx context.Context, id string, points int) (*models.Player, error) {
	player, err := s.playerStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if points <= 0 {
		return player, nil
	}

	updated, err := s.playerStore.UpdateScore(ctx, id, player.Score+points)
	if err != nil {
		return nil, fmt.Errorf("award %d points to %s: %w", points, id, err)
	}

	return updated, nil
}

// TopPlayers returns the ranked display window plus the full player count.
func (s *PlayerService) TopPlayers(ctx context.Context, limit int) ([]*models.Player, int, error) {
	players, err := s.playerStore.ListByScore(ctx, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.playerStore.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return players, total, nil
}

// Reset deletes every player and returns the removed rows so their DELETE
// notifications can be fanned out.
func (s *PlayerService) Reset(ctx context.Context) ([]*models.Player, error) {
	return s.playerStore.DeleteAll(ctx)
}
