package ws

import (
	"encoding/json"
	"sync"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/socketsvc/broker"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Client is one registered websocket connection. Gorilla supports a single
// concurrent writer per connection, so every outbound frame goes through
// Send, serialized behind the client's own write lock.
type Client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn}
}

// Send writes one JSON frame to the client.
func (c *Client) Send(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *Client
	Broker  *broker.Broker
}

func NewWs() *Ws {
	return &Ws{}
}

// SocketMessage relays a participant message from a web client to the game
// service. The gateway never interprets game semantics; it only stamps the
// socket id so the response can find its way back.
func (s *Ws) SocketMessage(socketId string, message *comm.WSMessage) {
	switch message.Type {
	case "join", "player-exists", "get-control", "get-question",
		"get-settings", "submit-answer", "get-leaderboard":
		s.relay(socketId, message)
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) relay(socketId string, msg *comm.WSMessage) {
	msg.SocketId = socketId

	bytes, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Failed to marshal WSMessage for NATS: %v", err)
		return
	}

	if err := s.Broker.Publish(comm.TopicSocket, bytes); err != nil {
		log.Errorf("Failed to publish to NATS topic %s: %v", comm.TopicSocket, err)
		return
	}

	log.Debugf("relayed %s message for socket %s", msg.Type, socketId)
}

// StoreConnection registers a new connection and returns its client wrapper,
// which the read loop uses for its own replies.
func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) *Client {
	client := newClient(conn)
	s.connMap.Store(socketId, client)
	return client
}

func (s *Ws) GetConnection(socketId string) (broker.Socket, bool) {
	v, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return v.(*Client), true
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

// AllConnections snapshots every live socket, used for change-event
// broadcast.
func (s *Ws) AllConnections() []broker.Socket {
	var clients []broker.Socket
	s.connMap.Range(func(key, value interface{}) bool {
		clients = append(clients, value.(*Client))
		return true
	})
	return clients
}
