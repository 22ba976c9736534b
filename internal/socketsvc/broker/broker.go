package broker

import (
	"encoding/json"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

// Socket is one client connection accepting serialized writes.
type Socket interface {
	Send(v interface{}) error
}

// Broker bridges NATS and the websocket registry: game service responses go
// back to the one socket that asked; store change events go to everyone.
type Broker struct {
	Conn           *nats.Conn
	GetConnection  func(string) (Socket, bool)
	AllConnections func() []Socket
}

func NewBroker(conn *nats.Conn, fncGetConnection func(string) (Socket, bool),
	fncAllConnections func() []Socket) *Broker {
	return &Broker{
		Conn:           conn,
		GetConnection:  fncGetConnection,
		AllConnections: fncAllConnections,
	}
}

// SubscribeGameService consumes responses addressed to individual sockets.
func (b *Broker) SubscribeGameService(topic string) (*nats.Subscription, error) {
	return b.Conn.Subscribe(topic, b.handleGameMessage)
}

// SubscribeChanges consumes every table's change stream for broadcast.
func (b *Broker) SubscribeChanges() (*nats.Subscription, error) {
	return b.Conn.Subscribe(comm.TopicChangePrefix+">", b.handleChangeEvent)
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}

func (b *Broker) handleGameMessage(msgNats *nats.Msg) {
	message := &comm.WSMessage{}
	err := json.Unmarshal(msgNats.Data, &message)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	switch message.Type {
	case "join-response", "player-exists-response", "get-control-response",
		"get-question-response", "get-settings-response",
		"submit-answer-response", "get-leaderboard-response":
		b.sendMessage(message)
	default:
		log.Errorf("Unknown message type %s", message.Type)
	}
}

// handleChangeEvent rebroadcasts a row-change notification to every
// connected client, wrapped as a WSMessage so clients keep one envelope.
func (b *Broker) handleChangeEvent(msgNats *nats.Msg) {
	var ev comm.ChangeEvent
	if err := json.Unmarshal(msgNats.Data, &ev); err != nil {
		log.Errorf("invalid change event: %v", err)
		return
	}

	msg := &comm.WSMessage{
		Type: "change-event",
		Data: msgNats.Data,
	}

	for _, socket := range b.AllConnections() {
		if err := socket.Send(msg); err != nil {
			log.Warnf("broadcast %s/%s: %v", ev.Table, ev.Type, err)
		}
	}
}

// send socket message to the web client
func (b *Broker) sendMessage(m *comm.WSMessage) {
	if socket, ok := b.GetConnection(m.SocketId); ok {
		if err := socket.Send(m); err != nil {
			log.Errorf("write to socket %s: %v", m.SocketId, err)
		}
	}
}
