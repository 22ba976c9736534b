package comm

import (
	"encoding/json"

	"github.com/auhoot/trivia-services/internal/gamesvc/models"
)

// NATS topics shared by the services. Web clients reach TopicSocket through
// the socket gateway; Go clients publish to it directly.
const (
	TopicSocket       = "socket.service"
	TopicGame         = "game.service"
	TopicChangePrefix = "store.changes." // + table name
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "join", "submit-answer"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// ChangeEvent is the row-change notification fanned out after every write.
// Delivery is at-least-once; consumers must re-fetch the current record
// instead of trusting Old/New to arrive in order.
type ChangeEvent struct {
	Table string          `json:"table"`
	Type  string          `json:"type"` // INSERT, UPDATE, DELETE
	Old   json.RawMessage `json:"old,omitempty"`
	New   json.RawMessage `json:"new,omitempty"`
}

const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

type JoinRequest struct {
	Nickname string `json:"nickname"`
}

type JoinResponse struct {
	Player *models.Player `json:"player,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type PlayerExistsRequest struct {
	PlayerId string `json:"player_id"`
}

type PlayerExistsResponse struct {
	Exists bool `json:"exists"`
}

type GetQuestionRequest struct {
	QuestionId string `json:"question_id"`
}

type QuestionResponse struct {
	Question *models.Question `json:"question,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type ControlResponse struct {
	Control *models.GameControl `json:"control,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type SettingsResponse struct {
	Settings *models.Settings `json:"settings,omitempty"`
	Error    string           `json:"error,omitempty"`
}

type SubmitAnswerRequest struct {
	PlayerId       string  `json:"player_id"`
	QuestionId     string  `json:"question_id"`
	Option         int     `json:"option"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

type SubmitAnswerResponse struct {
	Correct bool   `json:"correct"`
	Awarded int    `json:"awarded"`
	Score   int    `json:"score"` // player total after the award
	Error   string `json:"error,omitempty"`
}

type LeaderboardResponse struct {
	Players []*models.Player `json:"players"`
	Total   int              `json:"total"`
	Error   string           `json:"error,omitempty"`
}
