// Package participant is the event-driven controller for a Go participant
// client. It mirrors what the browser participant does: react to game
// control changes by re-fetching the current record, answer each question at
// most once, and log itself out when its server-side player row disappears.
package participant

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/notify"
	"github.com/auhoot/trivia-services/internal/session"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Phase string

const (
	PhaseClosed   Phase = "CLOSED"   // game not open
	PhaseJoin     Phase = "JOIN"     // open, no identity yet
	PhaseWaiting  Phase = "WAITING"  // joined, no live question
	PhaseQuestion Phase = "QUESTION" // a question is live and unanswered
	PhaseResult   Phase = "RESULT"   // answered, showing the cached result
)

// Bus is the slice of the NATS connection the controller speaks through:
// request/reply for game service calls, subscriptions for the change
// streams.
type Bus interface {
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type Controller struct {
	conn    Bus
	session *session.Store

	socketId string
	timeout  time.Duration

	mu         sync.Mutex
	phase      Phase
	playerId   string
	nickname   string
	question   *models.Question
	result     *session.Result
	renderedAt time.Time
	subs       []*nats.Subscription
}

func NewController(conn Bus, sess *session.Store) *Controller {
	return &Controller{
		conn:     conn,
		session:  sess,
		socketId: uuid.New().String(),
		timeout:  10 * time.Second,
		phase:    PhaseClosed,
	}
}

// Start restores the persisted identity, verifies it server-side, subscribes
// to the change streams and derives the initial phase. A stored id that no
// longer exists (a server-side reset happened while we were away) triggers
// the forced logout before anything else.
func (c *Controller) Start() error {
	playerId, nickname := c.session.Identity()
	if playerId != "" {
		var resp comm.PlayerExistsResponse
		err := c.request("player-exists", comm.PlayerExistsRequest{PlayerId: playerId}, &resp)
		if err != nil {
			// No data yet; keep the identity and let the next event decide.
			log.Warnf("participant: identity check failed, retrying later: %v", err)
		} else if !resp.Exists {
			if err := c.forceLogout(); err != nil {
				return err
			}
		} else {
			c.mu.Lock()
			c.playerId = playerId
			c.nickname = nickname
			c.mu.Unlock()
		}
	}

	controlSub, err := notify.Subscribe(c.conn, "game_control", func(comm.ChangeEvent) {
		// Never trust the event payload; always re-derive from a fresh fetch.
		c.syncControl()
	})
	if err != nil {
		return fmt.Errorf("participant: subscribe game_control: %w", err)
	}

	playersSub, err := notify.Subscribe(c.conn, "players", c.onPlayersEvent)
	if err != nil {
		controlSub.Unsubscribe()
		return fmt.Errorf("participant: subscribe players: %w", err)
	}

	c.mu.Lock()
	c.subs = append(c.subs, controlSub, playersSub)
	c.mu.Unlock()

	c.syncControl()
	return nil
}

func (c *Controller) Stop() {
	c.mu.Lock()
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
}

// Join creates the player and persists the identity. A taken nickname
// surfaces as ErrConflict so the user can retry with a different one.
func (c *Controller) Join(nickname string) error {
	var resp comm.JoinResponse
	if err := c.request("join", comm.JoinRequest{Nickname: nickname}, &resp); err != nil {
		return fmt.Errorf("participant: join: %w", err)
	}

	switch resp.Error {
	case "":
	case "nickname_taken":
		return models.ErrConflict
	case "game_closed", "no_game":
		return models.ErrInvalidTransition
	default:
		return errors.New("join failed: " + resp.Error)
	}

	// An explicit re-join starts from a clean answer cache.
	if err := c.session.ClearAll(); err != nil {
		return err
	}
	if err := c.session.SaveIdentity(resp.Player.ID, resp.Player.Nickname); err != nil {
		return err
	}

	c.mu.Lock()
	c.playerId = resp.Player.ID
	c.nickname = resp.Player.Nickname
	c.mu.Unlock()

	c.syncControl()
	return nil
}

// SubmitAnswer submits the selected option exactly once for the live
// question. The elapsed time is measured from the moment this client first
// rendered the question.
func (c *Controller) SubmitAnswer(option int) (*session.Result, error) {
	c.mu.Lock()
	if c.phase != PhaseQuestion || c.question == nil {
		c.mu.Unlock()
		return nil, models.ErrInvalidTransition
	}
	question := c.question
	playerId := c.playerId
	elapsed := time.Since(c.renderedAt).Seconds()
	c.mu.Unlock()

	if !c.session.CanAnswer(question.ID) {
		r, _ := c.session.CachedResult(question.ID)
		return &r, nil
	}

	var resp comm.SubmitAnswerResponse
	err := c.request("submit-answer", comm.SubmitAnswerRequest{
		PlayerId:       playerId,
		QuestionId:     question.ID,
		Option:         option,
		ElapsedSeconds: elapsed,
	}, &resp)
	if err != nil {
		// Write failure: retryable by the user, nothing is recorded.
		return nil, fmt.Errorf("participant: submit: %w", err)
	}

	switch resp.Error {
	case "":
	case "stale_identity":
		if err := c.forceLogout(); err != nil {
			return nil, err
		}
		return nil, models.ErrStaleIdentity
	default:
		return nil, errors.New("submit failed: " + resp.Error)
	}

	result := session.Result{Correct: resp.Correct, Score: resp.Score}
	if err := c.session.RecordAnswer(question.ID, result); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.result = &result
	c.phase = PhaseResult
	c.mu.Unlock()

	return &result, nil
}

// syncControl re-derives the local phase from a fresh control fetch.
func (c *Controller) syncControl() {
	var resp comm.ControlResponse
	if err := c.request("get-control", struct{}{}, &resp); err != nil || resp.Error != "" {
		// Treated as "no data yet"; the next notification retries.
		log.Warnf("participant: control fetch failed: %v %s", err, resp.Error)
		return
	}

	control := resp.Control

	c.mu.Lock()
	joined := c.playerId != ""
	c.mu.Unlock()

	if control.GameStatus != models.GameStatusOpen {
		c.mu.Lock()
		c.phase = PhaseClosed
		c.question = nil
		c.result = nil
		c.mu.Unlock()
		return
	}

	if !joined {
		c.mu.Lock()
		c.phase = PhaseJoin
		c.mu.Unlock()
		return
	}

	if control.IsActive && control.ActiveQuestionID != nil {
		c.presentQuestion(*control.ActiveQuestionID)
		return
	}

	c.mu.Lock()
	c.phase = PhaseWaiting
	c.question = nil
	c.result = nil
	c.mu.Unlock()
}

// presentQuestion shows a newly activated question, or restores the cached
// result when this device already answered it (a reload never re-opens a
// question).
func (c *Controller) presentQuestion(questionId string) {
	var resp comm.QuestionResponse
	if err := c.request("get-question", comm.GetQuestionRequest{QuestionId: questionId}, &resp); err != nil || resp.Error != "" {
		log.Warnf("participant: question fetch failed: %v %s", err, resp.Error)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.question = resp.Question

	if !c.session.CanAnswer(questionId) {
		r, _ := c.session.CachedResult(questionId)
		c.result = &r
		c.phase = PhaseResult
		return
	}

	c.result = nil
	c.renderedAt = time.Now()
	c.phase = PhaseQuestion
}

// onPlayersEvent watches for the deletion of our own player row, which is
// how a server-side game reset logs every participant out without direct
// communication.
func (c *Controller) onPlayersEvent(ev comm.ChangeEvent) {
	if ev.Type != comm.ChangeDelete || len(ev.Old) == 0 {
		return
	}

	var deleted models.Player
	if err := json.Unmarshal(ev.Old, &deleted); err != nil {
		return
	}

	c.mu.Lock()
	mine := c.playerId != "" && deleted.ID == c.playerId
	c.mu.Unlock()

	if !mine {
		return
	}

	log.Info("participant: player row deleted server-side, logging out")
	if err := c.forceLogout(); err != nil {
		log.Errorf("participant: forced logout: %v", err)
	}
}

func (c *Controller) forceLogout() error {
	if err := c.session.Logout(); err != nil {
		return err
	}

	c.mu.Lock()
	c.playerId = ""
	c.nickname = ""
	c.question = nil
	c.result = nil
	c.phase = PhaseJoin
	c.mu.Unlock()
	return nil
}

// Snapshot is the participant view state for rendering.
type Snapshot struct {
	Phase    Phase            `json:"phase"`
	Nickname string           `json:"nickname,omitempty"`
	Question *models.Question `json:"question,omitempty"`
	Result   *session.Result  `json:"result,omitempty"`
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Phase:    c.phase,
		Nickname: c.nickname,
		Question: c.question,
		Result:   c.result,
	}
}

// request performs one round trip against the game service using the socket
// message envelope.
func (c *Controller) request(msgType string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: c.socketId,
	}

	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	reply, err := c.conn.Request(comm.TopicSocket, raw, c.timeout)
	if err != nil {
		return err
	}

	var wsResp comm.WSMessage
	if err := json.Unmarshal(reply.Data, &wsResp); err != nil {
		return err
	}

	return json.Unmarshal(wsResp.Data, out)
}
