// Package control implements the authoritative game control state machine.
// The persisted singleton row is the source of truth; the machine reads it,
// validates the requested transition and writes the result back. Transitions
// are idempotent no-ops when re-applied, and a transition only counts as
// complete once the write has been persisted.
package control

import (
	"context"
	"fmt"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	log "github.com/sirupsen/logrus"
)

// State is the logical state derived from the persisted row.
type State string

const (
	StateClosed       State = "CLOSED"
	StateOpenIdle     State = "OPEN_IDLE"     // open, no active question
	StateOpenQuestion State = "OPEN_QUESTION" // open, a question is live
)

// StateOf derives the logical state from a control record.
func StateOf(c *models.GameControl) State {
	if c.GameStatus != models.GameStatusOpen {
		return StateClosed
	}
	if c.IsActive && c.ActiveQuestionID != nil {
		return StateOpenQuestion
	}
	return StateOpenIdle
}

// Store is the slice of the control store the machine needs.
type Store interface {
	Get(ctx context.Context) (*models.GameControl, error)
	Update(ctx context.Context, c *models.GameControl) error
}

// QuestionChecker verifies that an activated question actually exists.
type QuestionChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Publisher receives the persisted record after every completed transition.
type Publisher interface {
	ControlChanged(old, new *models.GameControl)
}

type Machine struct {
	store     Store
	questions QuestionChecker
	publisher Publisher // optional
}

func NewMachine(store Store, questions QuestionChecker, publisher Publisher) *Machine {
	return &Machine{store: store, questions: questions, publisher: publisher}
}

// Open transitions CLOSED -> OPEN_IDLE and clears any active question.
func (m *Machine) Open(ctx context.Context) (*models.GameControl, error) {
	return m.apply(ctx, func(c *models.GameControl) error {
		c.GameStatus = models.GameStatusOpen
		c.IsActive = false
		c.ActiveQuestionID = nil
		return nil
	})
}

// Close transitions any state -> CLOSED. The active question is cleared as
// well so nothing stale leaks into a future open session.
func (m *Machine) Close(ctx context.Context) (*models.GameControl, error) {
	return m.apply(ctx, func(c *models.GameControl) error {
		c.GameStatus = models.GameStatusClosed
		c.IsActive = false
		c.ActiveQuestionID = nil
		return nil
	})
}

// Activate transitions OPEN_IDLE -> OPEN_QUESTION. It fails with
// ErrInvalidTransition when the game is closed or the question is unknown.
func (m *Machine) Activate(ctx context.Context, questionID string) (*models.GameControl, error) {
	exists, err := m.questions.Exists(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("activate %s: %w", questionID, err)
	}

	return m.apply(ctx, func(c *models.GameControl) error {
		if StateOf(c) == StateClosed {
			return fmt.Errorf("activate while closed: %w", models.ErrInvalidTransition)
		}
		if !exists {
			return fmt.Errorf("activate unknown question %s: %w", questionID, models.ErrInvalidTransition)
		}
		c.IsActive = true
		c.ActiveQuestionID = &questionID
		return nil
	})
}

// Deactivate transitions OPEN_QUESTION -> OPEN_IDLE. It is a no-op, not an
// error, when no question is active.
func (m *Machine) Deactivate(ctx context.Context) (*models.GameControl, error) {
	return m.apply(ctx, func(c *models.GameControl) error {
		c.IsActive = false
		c.ActiveQuestionID = nil
		return nil
	})
}

func (m *Machine) apply(ctx context.Context, mutate func(*models.GameControl) error) (*models.GameControl, error) {
	cur, err := m.store.Get(ctx)
	if err != nil {
		return nil, err
	}

	old := *cur
	next := *cur
	if err := mutate(&next); err != nil {
		log.Warnf("control: transition rejected from %s: %v", StateOf(cur), err)
		return nil, err
	}

	if err := m.store.Update(ctx, &next); err != nil {
		return nil, err
	}

	if m.publisher != nil {
		m.publisher.ControlChanged(&old, &next)
	}

	log.Infof("control: %s -> %s", StateOf(&old), StateOf(&next))
	return &next, nil
}
