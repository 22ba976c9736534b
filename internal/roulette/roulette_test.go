package roulette

import (
	"math/rand"
	"testing"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextEmptyPool(t *testing.T) {
	s := NewSelector()

	_, err := s.Next(nil)
	assert.ErrorIs(t, err, models.ErrEmptyPool)

	_, err = s.Next([]models.Question{})
	assert.ErrorIs(t, err, models.ErrEmptyPool)
}

func TestNextUniformWithReplacement(t *testing.T) {
	pool := []models.Question{
		{ID: "a"}, {ID: "b"}, {ID: "c"},
	}

	s := NewSelectorWithSource(rand.NewSource(1))

	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		q, err := s.Next(pool)
		require.NoError(t, err)
		counts[q.ID]++
	}

	// Every question keeps being drawn: selection is with replacement and
	// roughly uniform (expected 333 each).
	for _, id := range []string{"a", "b", "c"} {
		assert.Greater(t, counts[id], 250, "question %s under-selected: %v", id, counts)
		assert.Less(t, counts[id], 420, "question %s over-selected: %v", id, counts)
	}
}

func TestNextSingleQuestionRepeats(t *testing.T) {
	pool := []models.Question{{ID: "only"}}
	s := NewSelector()

	for i := 0; i < 5; i++ {
		q, err := s.Next(pool)
		require.NoError(t, err)
		assert.Equal(t, "only", q.ID)
	}
}
