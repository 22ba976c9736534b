// Package leaderboard ranks players for the presenter display.
package leaderboard

import (
	"context"
	"sort"
	"sync"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
)

// TopN bounds the displayed window. It is a display concern only; scores are
// never truncated or altered by the cutoff.
const TopN = 20

// Rank sorts players by score descending. Ties keep their input (insertion)
// order.
func Rank(players []*models.Player) []*models.Player {
	ranked := make([]*models.Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns at most n of the ranked players.
func Top(players []*models.Player, n int) []*models.Player {
	ranked := Rank(players)
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Source is the slice of the player store the view needs.
type Source interface {
	ListByScore(ctx context.Context, limit int) ([]*models.Player, error)
	Count(ctx context.Context) (int, error)
}

// View is a restartable leaderboard snapshot, recomputed on every players
// change notification by calling Refresh. The total count is queried
// separately so the top-N cutoff never hides connected players.
type View struct {
	mu      sync.RWMutex
	source  Source
	players []*models.Player
	total   int
}

func NewView(source Source) *View {
	return &View{source: source}
}

func (v *View) Refresh(ctx context.Context) error {
	players, err := v.source.ListByScore(ctx, TopN)
	if err != nil {
		return err
	}
	total, err := v.source.Count(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.players = players
	v.total = total
	v.mu.Unlock()
	return nil
}

// Snapshot returns the last refreshed ranking and the total player count.
func (v *View) Snapshot() ([]*models.Player, int) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	players := make([]*models.Player, len(v.players))
	copy(players, v.players)
	return players, v.total
}
