// Package roulette picks the next question to broadcast.
package roulette

import (
	"math/rand"
	"time"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
)

// Selector draws uniformly at random, with replacement, from the full pool.
// A question repeating within a session is expected behavior. Selection is
// synchronous and side-effect-free; any spin ceremony delay belongs to the
// caller.
type Selector struct {
	rng *rand.Rand
}

func NewSelector() *Selector {
	return &Selector{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewSelectorWithSource is for deterministic selection in tests.
func NewSelectorWithSource(src rand.Source) *Selector {
	return &Selector{rng: rand.New(src)}
}

func (s *Selector) Next(pool []models.Question) (*models.Question, error) {
	if len(pool) == 0 {
		return nil, models.ErrEmptyPool
	}
	q := pool[s.rng.Intn(len(pool))]
	return &q, nil
}
