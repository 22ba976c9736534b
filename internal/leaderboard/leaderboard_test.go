package leaderboard

import (
	"context"
	"errors"
	"testing"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func player(id string, score int) *models.Player {
	return &models.Player{ID: id, Nickname: id, Score: score}
}

func ids(players []*models.Player) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = p.ID
	}
	return out
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	ranked := Rank([]*models.Player{
		player("low", 100),
		player("high", 2150),
		player("mid", 1000),
	})

	assert.Equal(t, []string{"high", "mid", "low"}, ids(ranked))
}

func TestRankKeepsTiesStable(t *testing.T) {
	// ada joined before bob, both on the same score
	ranked := Rank([]*models.Player{
		player("ada", 1000),
		player("bob", 1000),
		player("eve", 2000),
	})

	assert.Equal(t, []string{"eve", "ada", "bob"}, ids(ranked))
}

func TestRankDoesNotMutateInput(t *testing.T) {
	in := []*models.Player{player("a", 1), player("b", 2)}
	Rank(in)
	assert.Equal(t, []string{"a", "b"}, ids(in))
}

func TestTopCutsOffWithoutAlteringScores(t *testing.T) {
	in := []*models.Player{
		player("a", 10),
		player("b", 30),
		player("c", 20),
	}

	top := Top(in, 2)
	require.Len(t, top, 2)
	assert.Equal(t, []string{"b", "c"}, ids(top))
	assert.Equal(t, 30, top[0].Score)

	assert.Len(t, Top(in, 10), 3, "a window larger than the field returns everyone")
}

type fakeSource struct {
	players []*models.Player
	total   int
	err     error
}

func (f *fakeSource) ListByScore(ctx context.Context, limit int) ([]*models.Player, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.players) > limit {
		return f.players[:limit], nil
	}
	return f.players, nil
}

func (f *fakeSource) Count(ctx context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.total, nil
}

func TestViewRefreshAndSnapshot(t *testing.T) {
	source := &fakeSource{
		players: []*models.Player{player("eve", 2000), player("ada", 1000)},
		total:   35,
	}
	view := NewView(source)

	players, total := view.Snapshot()
	assert.Empty(t, players, "a view starts empty until the first refresh")
	assert.Zero(t, total)

	require.NoError(t, view.Refresh(context.Background()))

	players, total = view.Snapshot()
	assert.Equal(t, []string{"eve", "ada"}, ids(players))
	assert.Equal(t, 35, total, "total counts players beyond the display window")
}

func TestViewKeepsLastSnapshotOnError(t *testing.T) {
	source := &fakeSource{players: []*models.Player{player("ada", 1000)}, total: 1}
	view := NewView(source)
	require.NoError(t, view.Refresh(context.Background()))

	source.err = errors.New("connection reset")
	require.Error(t, view.Refresh(context.Background()))

	players, total := view.Snapshot()
	assert.Equal(t, []string{"ada"}, ids(players))
	assert.Equal(t, 1, total)
}
