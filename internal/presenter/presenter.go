// Package presenter drives the shared display: a local state machine cycling
// LOBBY -> ROULETTE -> QUESTION -> RECAP, mirrored into the game control row
// for every participant. It is the sole writer of game control.
package presenter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	log "github.com/sirupsen/logrus"
)

type Phase string

const (
	PhaseLobby    Phase = "LOBBY"
	PhaseRoulette Phase = "ROULETTE"
	PhaseQuestion Phase = "QUESTION"
	PhaseRecap    Phase = "RECAP"
)

// ControlWriter is the slice of the control state machine the presenter
// drives.
type ControlWriter interface {
	Open(ctx context.Context) (*models.GameControl, error)
	Close(ctx context.Context) (*models.GameControl, error)
	Activate(ctx context.Context, questionID string) (*models.GameControl, error)
	Deactivate(ctx context.Context) (*models.GameControl, error)
}

// QuestionSource supplies the roulette pool.
type QuestionSource interface {
	List(ctx context.Context) ([]models.Question, error)
}

// SettingsSource supplies the timer and pool-limit knobs.
type SettingsSource interface {
	Get(ctx context.Context) (*models.Settings, error)
}

// Selector picks the next question from the pool.
type Selector interface {
	Next(pool []models.Question) (*models.Question, error)
}

type Controller struct {
	control   ControlWriter
	questions QuestionSource
	settings  SettingsSource
	selector  Selector

	spinDelay time.Duration

	mu       sync.Mutex
	phase    Phase
	spinning bool
	current  *models.Question
	timer    *time.Timer
	deadline time.Time
}

func NewController(control ControlWriter, questions QuestionSource, settings SettingsSource, selector Selector, spinDelay time.Duration) *Controller {
	return &Controller{
		control:   control,
		questions: questions,
		settings:  settings,
		selector:  selector,
		spinDelay: spinDelay,
		phase:     PhaseLobby,
	}
}

// StartRoulette opens the game for joins and enters the roulette phase.
func (p *Controller) StartRoulette(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != PhaseLobby {
		log.Warnf("presenter: start roulette refused in phase %s", p.phase)
		return models.ErrInvalidTransition
	}

	if _, err := p.control.Open(ctx); err != nil {
		return err
	}

	p.phase = PhaseRoulette
	return nil
}

// Spin selects the next question, waits out the wheel ceremony, publishes the
// choice and starts the countdown. It is a no-op while a spin is already in
// flight; an empty pool refuses the spin before anything is activated.
func (p *Controller) Spin(ctx context.Context) error {
	p.mu.Lock()
	if p.phase != PhaseRoulette || p.spinning {
		p.mu.Unlock()
		log.Warnf("presenter: spin refused (phase=%s spinning=%v)", p.phase, p.spinning)
		return nil
	}

	settings, err := p.settings.Get(ctx)
	if err != nil {
		p.mu.Unlock()
		return err
	}

	pool, err := p.questions.List(ctx)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if settings.QuestionsLimit > 0 && len(pool) > settings.QuestionsLimit {
		pool = pool[:settings.QuestionsLimit]
	}

	selected, err := p.selector.Next(pool)
	if err != nil {
		p.mu.Unlock()
		return err // ErrEmptyPool surfaces as an operator-visible warning
	}

	p.spinning = true
	p.mu.Unlock()

	// Simulated deliberation while the wheel animation runs.
	select {
	case <-time.After(p.spinDelay):
	case <-ctx.Done():
		p.mu.Lock()
		p.spinning = false
		p.mu.Unlock()
		return ctx.Err()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.spinning = false

	if p.phase != PhaseRoulette {
		// The operator ended the session mid-spin; drop the selection.
		return nil
	}

	if _, err := p.control.Activate(ctx, selected.ID); err != nil {
		return fmt.Errorf("spin: %w", err)
	}

	timer := time.Duration(settings.QuestionTimer) * time.Second
	p.current = selected
	p.phase = PhaseQuestion
	p.deadline = time.Now().Add(timer)
	p.timer = time.AfterFunc(timer, p.onCountdownExpired)

	log.Infof("presenter: question %s live for %s", selected.ID, timer)
	return nil
}

// onCountdownExpired locks the question for every participant at the same
// wall-clock instant and moves the display to the recap. The store write
// runs outside the controller lock; Snapshot stays responsive while it is in
// flight.
func (p *Controller) onCountdownExpired() {
	p.mu.Lock()
	if p.phase != PhaseQuestion {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := p.control.Deactivate(ctx); err != nil {
		log.Errorf("presenter: deactivate on countdown expiry: %v", err)
	}

	p.mu.Lock()
	// The operator may have ended the session while the write ran.
	if p.phase == PhaseQuestion {
		p.phase = PhaseRecap
	}
	p.mu.Unlock()
}

// NextRound leaves the recap and returns to the roulette.
func (p *Controller) NextRound(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.phase != PhaseRecap {
		log.Warnf("presenter: next round refused in phase %s", p.phase)
		return models.ErrInvalidTransition
	}

	p.current = nil
	p.phase = PhaseRoulette
	return nil
}

// EndSession closes the game from any phase and returns to the lobby. Any
// running countdown is cancelled.
func (p *Controller) EndSession(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}

	if _, err := p.control.Close(ctx); err != nil {
		return err
	}

	p.current = nil
	p.spinning = false
	p.phase = PhaseLobby
	return nil
}

// Snapshot is the presenter display state for rendering.
type Snapshot struct {
	Phase     Phase            `json:"phase"`
	Spinning  bool             `json:"spinning"`
	Question  *models.Question `json:"question,omitempty"`
	Remaining int              `json:"remaining_seconds"`
}

func (p *Controller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := Snapshot{Phase: p.phase, Spinning: p.spinning, Question: p.current}
	if p.phase == PhaseQuestion {
		if rem := time.Until(p.deadline); rem > 0 {
			snap.Remaining = int(rem.Round(time.Second) / time.Second)
		}
	}
	return snap
}
