package handlers

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/auhoot/trivia-services/internal/comm"
	"github.com/auhoot/trivia-services/internal/socketsvc/ws"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	upgrader websocket.Upgrader
	ws       *ws.Ws
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error,omitempty"`
}

func NewHandler(s *ws.Ws) *Handler {
	return &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		ws: s,
	}
}

// HandleWebSocket upgrades a participant connection, registers it under a
// fresh socket id and starts its read loop.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		log.Errorf("websocket upgrade failed: %v", err)
		return
	}

	socketId := uuid.New().String()
	client := h.ws.StoreConnection(socketId, conn)
	log.Infof("websocket connected: %s", socketId)

	go h.readLoop(conn, client, socketId)
}

// readLoop relays inbound frames until the peer goes away. A malformed frame
// gets an error reply and the loop continues; all writes, including that
// reply, go through the client's serialized Send.
func (h *Handler) readLoop(conn *websocket.Conn, client *ws.Client, socketId string) {
	defer func() {
		conn.Close()
		h.ws.HandleDisconnect(socketId)
		log.Infof("websocket closed: %s", socketId)
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Errorf("websocket read on %s: %v", socketId, err)
			}
			return
		}

		message := &comm.WSMessage{}
		if err := json.Unmarshal(raw, message); err != nil {
			log.Warnf("bad frame from %s: %v", socketId, err)
			if err := client.Send(map[string]string{"type": "error", "error": "invalid message format"}); err != nil {
				log.Errorf("error reply to %s: %v", socketId, err)
			}
			continue
		}

		log.Debugf("received %s from socket %s", message.Type, socketId)
		h.ws.SocketMessage(socketId, message)
	}
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.CreateResponse(w, Response{
		Message: "socket service is running at port " + os.Getenv("SOCKET_SERVICE_PORT"),
		Code:    200,
	})
}
