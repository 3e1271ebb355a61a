package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rsned/cultivation-server/pkg/cultivation"
)

// WebSocket message types.
const (
	MsgCalculate      = "calculate"
	MsgResult         = "result"
	MsgError          = "error"
	MsgSchemesChanged = "schemes_changed"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 20
	sendBuffer     = 64
)

// Message is the JSON envelope for all real-time communication.
// ID echoes the id of the calculate request a reply belongs to.
type Message struct {
	Type    string          `json:"type"`
	ID      int64           `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CalculateFunc runs one calculation for a live client.
type CalculateFunc func(ctx context.Context, req cultivation.CalculateRequest) (*cultivation.CalculateResponse, error)

// Client is one WebSocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// pending holds at most one calculate request; a newer request
	// replaces one that has not started yet.
	pending chan Message
	done    chan struct{}
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	stopped    chan struct{}

	calculate CalculateFunc
	logger    *slog.Logger
}

// NewHub creates a hub that answers calculate requests with calc.
func NewHub(calc CalculateFunc, logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stopped:    make(chan struct{}),
		calculate:  calc,
		logger:     logger,
	}
}

// Run is the hub event loop. It blocks until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				_ = client.conn.Close()
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client registered", "clients", len(h.clients))

		case client := <-h.unregister:
			delete(h.clients, client)
			h.logger.Debug("websocket client unregistered", "clients", len(h.clients))

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("dropping broadcast for slow websocket client")
				}
			}
		}
	}
}

// Broadcast sends a message to every connected client.
func (h *Hub) Broadcast(msgType string, payload any) {
	data, err := encodeMessage(msgType, 0, payload)
	if err != nil {
		h.logger.Error("encoding broadcast", "type", msgType, "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	case <-h.stopped:
	}
}

func encodeMessage(msgType string, id int64, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: msgType, ID: id, Payload: raw})
}

// upgrader configures the WebSocket handshake.
// CheckOrigin accepts any host; the REST API is equally open through CORS.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWs upgrades the request to a WebSocket and starts the client pumps.
func (h *Hub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		pending: make(chan Message, 1),
		done:    make(chan struct{}),
	}

	select {
	case h.register <- client:
	case <-h.stopped:
		_ = conn.Close()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go client.writePump()
	go client.computeLoop(ctx)
	go client.readPump(cancel)
}

// readPump reads calculate requests until the connection closes.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopped:
		}
		cancel()
		close(c.pending)
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.reply(MsgError, 0, errorPayload{Error: "malformed message: " + err.Error()})
			continue
		}
		if msg.Type != MsgCalculate {
			c.reply(MsgError, msg.ID, errorPayload{Error: "unknown message type: " + msg.Type})
			continue
		}
		c.enqueue(msg)
	}
}

// enqueue keeps only the newest calculate request waiting.
// readPump is the only sender on pending.
func (c *Client) enqueue(msg Message) {
	for {
		select {
		case c.pending <- msg:
			return
		default:
		}
		select {
		case stale := <-c.pending:
			c.hub.logger.Debug("superseded calculate request dropped", "id", stale.ID, "by", msg.ID)
		default:
		}
	}
}

// computeLoop runs queued calculations one at a time.
func (c *Client) computeLoop(ctx context.Context) {
	for msg := range c.pending {
		var req cultivation.CalculateRequest
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				c.reply(MsgError, msg.ID, errorPayload{Error: "malformed request: " + err.Error()})
				continue
			}
		}

		resp, err := c.hub.calculate(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.reply(MsgError, msg.ID, errorPayload{Error: err.Error()})
			continue
		}
		c.reply(MsgResult, msg.ID, resp)
	}
}

func (c *Client) reply(msgType string, id int64, payload any) {
	data, err := encodeMessage(msgType, id, payload)
	if err != nil {
		c.hub.logger.Error("encoding reply", "type", msgType, "error", err)
		data, err = encodeMessage(MsgError, id, errorPayload{Error: "encoding " + msgType + " failed"})
		if err != nil {
			return
		}
	}
	// A stalled writer must not block the read or compute loops forever.
	select {
	case c.send <- data:
	case <-c.done:
	case <-time.After(writeWait):
		c.hub.logger.Warn("dropping reply for stalled websocket client", "type", msgType, "id", id)
	}
}

// writePump writes queued messages until the client is done.
func (c *Client) writePump() {
	defer func() { _ = c.conn.Close() }()

	for {
		select {
		case message := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
