package models

import "time"

const (
	GameStatusOpen   = "OPEN"
	GameStatusClosed = "CLOSED"
)

// GameControl is the singleton row (id is always 1) that drives every
// participant view. Only the presenter role writes it.
type GameControl struct {
	ID               int64     `json:"id"`
	GameStatus       string    `json:"game_status"` // OPEN or CLOSED
	IsActive         bool      `json:"is_active"`
	ActiveQuestionID *string   `json:"active_question_id"` // nil when no question is live
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

const GameControlID = 1
