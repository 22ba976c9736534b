package broker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/gamesvc/models"
	"github.com/auhoot/trivia-services/internal/gamesvc/notify"
	"github.com/auhoot/trivia-services/internal/gamesvc/service"
	"github.com/auhoot/trivia-services/internal/gamesvc/store"
	"github.com/auhoot/trivia-services/internal/leaderboard"
	"github.com/auhoot/trivia-services/internal/scoring"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Broker answers participant traffic arriving over NATS: joins, record
// fetches and answer submissions. Requests carrying a reply subject get a
// direct response; socket-relayed requests are answered on the game topic
// addressed by socket id.
type Broker struct {
	Conn            *nats.Conn
	PlayerService   *service.PlayerService
	QuestionService *service.QuestionService
	SettingsService *service.SettingsService
	ControlStore    *store.ControlStore
	Notifier        *notify.Notifier
}

func NewBroker(nc *nats.Conn, playerService *service.PlayerService,
	questionService *service.QuestionService, settingsService *service.SettingsService,
	controlStore *store.ControlStore, notifier *notify.Notifier) *Broker {
	return &Broker{
		Conn:            nc,
		PlayerService:   playerService,
		QuestionService: questionService,
		SettingsService: settingsService,
		ControlStore:    controlStore,
		Notifier:        notifier,
	}
}

// SubscribeSocketService consumes participant messages from the socket
// gateway and from Go participant clients.
func (b *Broker) SubscribeSocketService(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleMessage)
}

func (b *Broker) handleMessage(msgNat *nats.Msg) {
	msg := &comm.WSMessage{}
	err := json.Unmarshal(msgNat.Data, &msg)
	if err != nil {
		log.Errorf("Error nats message %s", err)
		return
	}

	switch msg.Type {
	case "join":
		b.handleJoin(msgNat, msg)
	case "player-exists":
		b.handlePlayerExists(msgNat, msg)
	case "get-control":
		b.handleGetControl(msgNat, msg)
	case "get-question":
		b.handleGetQuestion(msgNat, msg)
	case "get-settings":
		b.handleGetSettings(msgNat, msg)
	case "submit-answer":
		b.handleSubmitAnswer(msgNat, msg)
	case "get-leaderboard":
		b.handleGetLeaderboard(msgNat, msg)
	default:
		log.Errorf("Unknown message type %s", msg.Type)
	}
}

func (b *Broker) handleJoin(msgNat *nats.Msg, msg *comm.WSMessage) {
	var request comm.JoinRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error decoding join request: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// A closed game accepts no joins regardless of is_active.
	control, err := b.ControlStore.Get(ctx)
	if err != nil {
		log.Errorf("Error [ControlStore.Get] %s", err)
		b.respond(msgNat, msg.SocketId, "join-response", comm.JoinResponse{Error: "no_game"})
		return
	}
	if control.GameStatus != models.GameStatusOpen {
		b.respond(msgNat, msg.SocketId, "join-response", comm.JoinResponse{Error: "game_closed"})
		return
	}

	player, err := b.PlayerService.Join(ctx, request.Nickname)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			b.respond(msgNat, msg.SocketId, "join-response", comm.JoinResponse{Error: "nickname_taken"})
			return
		}
		log.Errorf("Error [PlayerService.Join] %s", err)
		b.respond(msgNat, msg.SocketId, "join-response", comm.JoinResponse{Error: "join_failed"})
		return
	}

	b.Notifier.Publish("players", comm.ChangeInsert, nil, player)
	b.respond(msgNat, msg.SocketId, "join-response", comm.JoinResponse{Player: player})
}

func (b *Broker) handlePlayerExists(msgNat *nats.Msg, msg *comm.WSMessage) {
	var request comm.PlayerExistsRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error decoding player-exists request: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := b.PlayerService.Exists(ctx, request.PlayerId)
	if err != nil {
		log.Errorf("Error [PlayerService.Exists] %s", err)
		return
	}

	b.respond(msgNat, msg.SocketId, "player-exists-response", comm.PlayerExistsResponse{Exists: exists})
}

func (b *Broker) handleGetControl(msgNat *nats.Msg, msg *comm.WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	control, err := b.ControlStore.Get(ctx)
	if err != nil {
		log.Errorf("Error [ControlStore.Get] %s", err)
		b.respond(msgNat, msg.SocketId, "get-control-response", comm.ControlResponse{Error: "no_game"})
		return
	}

	b.respond(msgNat, msg.SocketId, "get-control-response", comm.ControlResponse{Control: control})
}

func (b *Broker) handleGetQuestion(msgNat *nats.Msg, msg *comm.WSMessage) {
	var request comm.GetQuestionRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error decoding get-question request: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	question, err := b.QuestionService.GetByID(ctx, request.QuestionId)
	if err != nil {
		log.Errorf("Error [QuestionService.GetByID] %s", err)
		b.respond(msgNat, msg.SocketId, "get-question-response", comm.QuestionResponse{Error: "not_found"})
		return
	}

	b.respond(msgNat, msg.SocketId, "get-question-response", comm.QuestionResponse{Question: question})
}

func (b *Broker) handleGetSettings(msgNat *nats.Msg, msg *comm.WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings, err := b.SettingsService.Get(ctx)
	if err != nil {
		log.Errorf("Error [SettingsService.Get] %s", err)
		b.respond(msgNat, msg.SocketId, "get-settings-response", comm.SettingsResponse{Error: "no_settings"})
		return
	}

	b.respond(msgNat, msg.SocketId, "get-settings-response", comm.SettingsResponse{Settings: settings})
}

func (b *Broker) handleSubmitAnswer(msgNat *nats.Msg, msg *comm.WSMessage) {
	var request comm.SubmitAnswerRequest
	if err := json.Unmarshal(msg.Data, &request); err != nil {
		log.Errorf("Error decoding submit-answer request: %s", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// The submitted question must still be the live one; once the presenter
	// deactivates it, late answers are locked out here.
	control, err := b.ControlStore.Get(ctx)
	if err != nil {
		log.Errorf("Error [ControlStore.Get] %s", err)
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "no_game"})
		return
	}
	if control.GameStatus != models.GameStatusOpen {
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "game_closed"})
		return
	}
	if !control.IsActive || control.ActiveQuestionID == nil || *control.ActiveQuestionID != request.QuestionId {
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "question_not_active"})
		return
	}

	question, err := b.QuestionService.GetByID(ctx, request.QuestionId)
	if err != nil {
		log.Errorf("Error [QuestionService.GetByID] %s", err)
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "question_not_found"})
		return
	}

	settings, err := b.SettingsService.Get(ctx)
	if err != nil {
		log.Errorf("Error [SettingsService.Get] %s", err)
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "no_settings"})
		return
	}

	correct := question.CorrectOption == request.Option
	awarded := scoring.Score(correct, request.ElapsedSeconds, settings)

	player, err := b.PlayerService.AwardPoints(ctx, request.PlayerId, awarded)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The roster was reset under this participant; it must log out.
			b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "stale_identity"})
			return
		}
		log.Errorf("Error [PlayerService.AwardPoints] %s", err)
		b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{Error: "submit_failed"})
		return
	}

	if awarded > 0 {
		b.Notifier.Publish("players", comm.ChangeUpdate, nil, player)
	}

	b.respond(msgNat, msg.SocketId, "submit-answer-response", comm.SubmitAnswerResponse{
		Correct: correct,
		Awarded: awarded,
		Score:   player.Score,
	})
}

func (b *Broker) handleGetLeaderboard(msgNat *nats.Msg, msg *comm.WSMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	players, total, err := b.PlayerService.TopPlayers(ctx, leaderboard.TopN)
	if err != nil {
		log.Errorf("Error [PlayerService.TopPlayers] %s", err)
		b.respond(msgNat, msg.SocketId, "get-leaderboard-response", comm.LeaderboardResponse{Error: "leaderboard_failed"})
		return
	}

	b.respond(msgNat, msg.SocketId, "get-leaderboard-response", comm.LeaderboardResponse{Players: players, Total: total})
}

// respond answers on the request's reply subject when one is present (Go
// clients), otherwise publishes to the game topic for the socket gateway to
// deliver by socket id.
func (b *Broker) respond(msgNat *nats.Msg, socketId, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("unable to marshal %s payload: %s", msgType, err)
		return
	}

	msg := &comm.WSMessage{
		Type:     msgType,
		Data:     data,
		SocketId: socketId,
	}

	out, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	if msgNat.Reply != "" {
		if err := b.Conn.Publish(msgNat.Reply, out); err != nil {
			log.Errorf("Error replying to %s: %s", msgNat.Reply, err)
		}
		return
	}

	if err := b.Conn.Publish(comm.TopicGame, out); err != nil {
		log.Errorf("Error publishing to topic %s: %s", comm.TopicGame, err)
	}
}
