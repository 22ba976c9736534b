package control

import (
	"context"
	"testing"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeControlStore struct {
	record  models.GameControl
	updates int
}

func (f *fakeControlStore) Get(ctx context.Context) (*models.GameControl, error) {
	c := f.record
	return &c, nil
}

func (f *fakeControlStore) Update(ctx context.Context, c *models.GameControl) error {
	f.record = *c
	f.updates++
	return nil
}

type fakeQuestions struct {
	ids map[string]bool
}

func (f fakeQuestions) Exists(ctx context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

func newTestMachine(status string) (*Machine, *fakeControlStore) {
	store := &fakeControlStore{
		record: models.GameControl{ID: models.GameControlID, GameStatus: status},
	}
	questions := fakeQuestions{ids: map[string]bool{"q1": true, "q2": true}}
	return NewMachine(store, questions, nil), store
}

func TestActivateWhileClosedFails(t *testing.T) {
	m, store := newTestMachine(models.GameStatusClosed)

	_, err := m.Activate(context.Background(), "q1")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
	assert.Equal(t, 0, store.updates, "a rejected transition must not be persisted")
}

func TestOpenThenActivate(t *testing.T) {
	m, store := newTestMachine(models.GameStatusClosed)
	ctx := context.Background()

	c, err := m.Open(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateOpenIdle, StateOf(c))

	c, err = m.Activate(ctx, "q1")
	require.NoError(t, err)
	assert.Equal(t, StateOpenQuestion, StateOf(c))
	require.NotNil(t, c.ActiveQuestionID)
	assert.Equal(t, "q1", *c.ActiveQuestionID)
	assert.True(t, c.IsActive)

	assert.Equal(t, StateOpenQuestion, StateOf(&store.record), "persisted state must match")
}

func TestActivateUnknownQuestionFails(t *testing.T) {
	m, _ := newTestMachine(models.GameStatusOpen)

	_, err := m.Activate(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestDeactivateIsNoopWhenIdle(t *testing.T) {
	m, _ := newTestMachine(models.GameStatusOpen)

	c, err := m.Deactivate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateOpenIdle, StateOf(c))
	assert.False(t, c.IsActive)
	assert.Nil(t, c.ActiveQuestionID)
}

func TestDeactivateEndsQuestion(t *testing.T) {
	m, _ := newTestMachine(models.GameStatusOpen)
	ctx := context.Background()

	_, err := m.Activate(ctx, "q2")
	require.NoError(t, err)

	c, err := m.Deactivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateOpenIdle, StateOf(c))
	assert.Nil(t, c.ActiveQuestionID)
}

func TestCloseClearsActiveQuestion(t *testing.T) {
	m, store := newTestMachine(models.GameStatusOpen)
	ctx := context.Background()

	_, err := m.Activate(ctx, "q1")
	require.NoError(t, err)

	c, err := m.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, StateOf(c))
	assert.False(t, c.IsActive)
	assert.Nil(t, c.ActiveQuestionID, "no stale question may leak into a future session")

	// re-applying the transition is an idempotent no-op
	c, err = m.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, StateOf(c))
	assert.Equal(t, StateClosed, StateOf(&store.record))
}

func TestStateOf(t *testing.T) {
	q := "q1"

	tests := []struct {
		name   string
		record models.GameControl
		want   State
	}{
		{"closed", models.GameControl{GameStatus: models.GameStatusClosed}, StateClosed},
		{"closed ignores active flags", models.GameControl{GameStatus: models.GameStatusClosed, IsActive: true, ActiveQuestionID: &q}, StateClosed},
		{"open idle", models.GameControl{GameStatus: models.GameStatusOpen}, StateOpenIdle},
		{"open question", models.GameControl{GameStatus: models.GameStatusOpen, IsActive: true, ActiveQuestionID: &q}, StateOpenQuestion},
		{"active without question is idle", models.GameControl{GameStatus: models.GameStatusOpen, IsActive: true}, StateOpenIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(&tt.record))
		})
	}
}
