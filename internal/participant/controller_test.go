package participant

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/session"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus answers requests from canned state and captures change-stream
// handlers so tests deliver events by hand.
type fakeBus struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]nats.MsgHandler
	requests []string

	control  models.GameControl
	question *models.Question
	exists   bool
	player   *models.Player
	submit   comm.SubmitAnswerResponse
}

func newFakeBus(t *testing.T) *fakeBus {
	return &fakeBus{
		t:        t,
		handlers: map[string]nats.MsgHandler{},
		control:  models.GameControl{ID: models.GameControlID, GameStatus: models.GameStatusOpen},
	}
}

func (f *fakeBus) Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error) {
	var msg comm.WSMessage
	require.NoError(f.t, json.Unmarshal(data, &msg))

	f.mu.Lock()
	f.requests = append(f.requests, msg.Type)
	f.mu.Unlock()

	var payload interface{}
	switch msg.Type {
	case "get-control":
		c := f.control
		payload = comm.ControlResponse{Control: &c}
	case "get-question":
		payload = comm.QuestionResponse{Question: f.question}
	case "player-exists":
		payload = comm.PlayerExistsResponse{Exists: f.exists}
	case "join":
		payload = comm.JoinResponse{Player: f.player}
	case "submit-answer":
		payload = f.submit
	default:
		f.t.Fatalf("unexpected request type %s", msg.Type)
	}

	body, err := json.Marshal(payload)
	require.NoError(f.t, err)
	reply, err := json.Marshal(&comm.WSMessage{Type: msg.Type + "-response", Data: body, SocketId: msg.SocketId})
	require.NoError(f.t, err)
	return &nats.Msg{Data: reply}, nil
}

func (f *fakeBus) Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[subj] = cb
	return nil, nil
}

// deliver pushes one change event through the captured table subscription.
func (f *fakeBus) deliver(table string, ev comm.ChangeEvent) {
	f.mu.Lock()
	cb := f.handlers[comm.TopicChangePrefix+table]
	f.mu.Unlock()
	require.NotNil(f.t, cb, "no subscription captured for table %s", table)

	data, err := json.Marshal(ev)
	require.NoError(f.t, err)
	cb(&nats.Msg{Data: data})
}

func (f *fakeBus) requestTypes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func newTestSession(t *testing.T) *session.Store {
	t.Helper()
	sess, err := session.Open(filepath.Join(t.TempDir(), "device.json"))
	require.NoError(t, err)
	return sess
}

func TestStartLogsOutVanishedIdentity(t *testing.T) {
	bus := newFakeBus(t)
	bus.exists = false

	sess := newTestSession(t)
	require.NoError(t, sess.SaveIdentity("p1", "ada"))
	require.NoError(t, sess.RecordAnswer("q1", session.Result{Correct: true, Score: 1000}))

	c := NewController(bus, sess)
	require.NoError(t, c.Start())

	id, nick := sess.Identity()
	assert.Empty(t, id)
	assert.Empty(t, nick)
	assert.True(t, sess.CanAnswer("q1"), "the answer cache must not outlive the identity")
	assert.Equal(t, PhaseJoin, c.Snapshot().Phase)
}

func TestStartKeepsVerifiedIdentity(t *testing.T) {
	bus := newFakeBus(t)
	bus.exists = true

	sess := newTestSession(t)
	require.NoError(t, sess.SaveIdentity("p1", "ada"))

	c := NewController(bus, sess)
	require.NoError(t, c.Start())

	snap := c.Snapshot()
	assert.Equal(t, PhaseWaiting, snap.Phase)
	assert.Equal(t, "ada", snap.Nickname)
}

func TestOwnRowDeleteForcesLogout(t *testing.T) {
	bus := newFakeBus(t)
	bus.player = &models.Player{ID: "p1", Nickname: "ada"}

	sess := newTestSession(t)
	c := NewController(bus, sess)
	require.NoError(t, c.Start())
	require.NoError(t, c.Join("ada"))
	require.Equal(t, PhaseWaiting, c.Snapshot().Phase)

	// someone else's row going away is not our business
	bus.deliver("players", comm.ChangeEvent{
		Table: "players", Type: comm.ChangeDelete,
		Old: mustJSON(t, models.Player{ID: "other"}),
	})
	assert.Equal(t, PhaseWaiting, c.Snapshot().Phase)

	// our own row deleted server-side (game reset)
	bus.deliver("players", comm.ChangeEvent{
		Table: "players", Type: comm.ChangeDelete,
		Old: mustJSON(t, models.Player{ID: "p1"}),
	})

	assert.Equal(t, PhaseJoin, c.Snapshot().Phase)
	id, _ := sess.Identity()
	assert.Empty(t, id)
}

func TestSubmitAnswerReturnsCachedResultWithoutRequest(t *testing.T) {
	bus := newFakeBus(t)
	bus.exists = true
	bus.question = &models.Question{ID: "q1", QuestionText: "q1", Options: []string{"a", "b", "c"}, CorrectOption: 1}

	sess := newTestSession(t)
	require.NoError(t, sess.SaveIdentity("p1", "ada"))

	c := NewController(bus, sess)
	require.NoError(t, c.Start())

	qid := "q1"
	bus.control.IsActive = true
	bus.control.ActiveQuestionID = &qid
	bus.deliver("game_control", comm.ChangeEvent{Table: "game_control", Type: comm.ChangeUpdate})
	require.Equal(t, PhaseQuestion, c.Snapshot().Phase)

	// already answered on this device
	require.NoError(t, sess.RecordAnswer("q1", session.Result{Correct: true, Score: 1150}))

	result, err := c.SubmitAnswer(1)
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1150, result.Score)
	assert.NotContains(t, bus.requestTypes(), "submit-answer")
}

func TestSubmitAnswerRecordsOnce(t *testing.T) {
	bus := newFakeBus(t)
	bus.exists = true
	bus.question = &models.Question{ID: "q1", QuestionText: "q1", Options: []string{"a", "b", "c"}, CorrectOption: 1}
	bus.submit = comm.SubmitAnswerResponse{Correct: true, Awarded: 1150, Score: 1150}

	sess := newTestSession(t)
	require.NoError(t, sess.SaveIdentity("p1", "ada"))

	c := NewController(bus, sess)
	require.NoError(t, c.Start())

	qid := "q1"
	bus.control.IsActive = true
	bus.control.ActiveQuestionID = &qid
	bus.deliver("game_control", comm.ChangeEvent{Table: "game_control", Type: comm.ChangeUpdate})

	result, err := c.SubmitAnswer(1)
	require.NoError(t, err)
	assert.Equal(t, 1150, result.Score)

	snap := c.Snapshot()
	assert.Equal(t, PhaseResult, snap.Phase)
	assert.False(t, sess.CanAnswer("q1"))

	// a reload mid-question restores the result instead of the options
	bus.deliver("game_control", comm.ChangeEvent{Table: "game_control", Type: comm.ChangeUpdate})
	snap = c.Snapshot()
	assert.Equal(t, PhaseResult, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 1150, snap.Result.Score)
}

func TestSubmitStaleIdentityForcesLogout(t *testing.T) {
	bus := newFakeBus(t)
	bus.exists = true
	bus.question = &models.Question{ID: "q1", QuestionText: "q1", Options: []string{"a", "b", "c"}, CorrectOption: 0}
	bus.submit = comm.SubmitAnswerResponse{Error: "stale_identity"}

	sess := newTestSession(t)
	require.NoError(t, sess.SaveIdentity("p1", "ada"))

	c := NewController(bus, sess)
	require.NoError(t, c.Start())

	qid := "q1"
	bus.control.IsActive = true
	bus.control.ActiveQuestionID = &qid
	bus.deliver("game_control", comm.ChangeEvent{Table: "game_control", Type: comm.ChangeUpdate})

	_, err := c.SubmitAnswer(0)
	assert.ErrorIs(t, err, models.ErrStaleIdentity)

	id, _ := sess.Identity()
	assert.Empty(t, id)
	assert.Equal(t, PhaseJoin, c.Snapshot().Phase)
	assert.True(t, sess.CanAnswer("q1"), "nothing may be recorded for a rejected submit")
}

func TestClosedGameDerivesClosedPhase(t *testing.T) {
	bus := newFakeBus(t)
	bus.control.GameStatus = models.GameStatusClosed

	c := NewController(bus, newTestSession(t))
	require.NoError(t, c.Start())
	assert.Equal(t, PhaseClosed, c.Snapshot().Phase)
}
