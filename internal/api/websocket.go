package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/rtjson/core/errors"
	"github.com/FocuswithJustin/rtjson/core/rtjson"
	"github.com/FocuswithJustin/rtjson/internal/ingest"
	"github.com/FocuswithJustin/rtjson/internal/logging"
	"github.com/FocuswithJustin/rtjson/internal/validation"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second

	sendBuffer = 64
)

// Message types sent to WebSocket clients.
const (
	msgResult = "result"
	msgError  = "error"
	msgStored = "stored"
)

// wsRequest asks for one conversion. Store saves the result in the library
// under Name.
type wsRequest struct {
	Format string `json:"format"`
	Source string `json:"source"`
	Store  bool   `json:"store"`
	Name   string `json:"name"`
}

// wsMessage is a reply to one request, or a broadcast telling every client
// that a document was stored.
type wsMessage struct {
	Type     string           `json:"type"`
	ID       string           `json:"id,omitempty"`
	Name     string           `json:"name,omitempty"`
	Document *rtjson.Document `json:"document,omitempty"`
	Error    *APIError        `json:"error,omitempty"`
}

// Client represents a WebSocket client connection.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	limiter *tokenBucket

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newClient(hub *Hub, conn *websocket.Conn, messagesPerSecond int) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	if messagesPerSecond > 0 {
		c.limiter = newTokenBucket(float64(messagesPerSecond)*2, float64(messagesPerSecond))
	}
	return c
}

// enqueue queues data for the write pump. It reports false when the client
// is closed or its buffer is full.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close stops the write pump. It is safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub tracks connected clients and broadcasts library events to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run handles registration and broadcasting until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_connected", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			logging.WebSocketEvent("client_disconnected", n)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.enqueue(message) {
					client.close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every connected client. It never blocks; when the
// queue is full the message is dropped.
func (h *Hub) Broadcast(msg wsMessage) {
	data, err := encodeJSON(msg)
	if err != nil {
		logging.Error("failed to marshal broadcast message", "error", err)
		return
	}
	select {
	case h.broadcast <- data:
	default:
		logging.Warn("broadcast channel full, dropping message")
	}
}

// join registers c unless the hub has stopped.
func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// leave unregisters c unless the hub has stopped.
func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// readPump answers conversion requests until the connection fails or the
// client exceeds its message rate.
func (c *Client) readPump(ctx context.Context, s *Server) {
	defer func() {
		c.hub.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Warn("websocket unexpected close", "error", err)
			}
			return
		}

		if c.limiter != nil && !c.limiter.allow() {
			logging.SecurityEvent("websocket_rate_limited", "api")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "rate limit exceeded"),
				time.Now().Add(writeWait))
			return
		}

		reply, err := encodeJSON(s.answer(ctx, message))
		if err != nil {
			logging.Error("failed to marshal websocket reply", "error", err)
			continue
		}
		if !c.enqueue(reply) {
			return
		}
	}
}

// answer runs one WebSocket request.
func (s *Server) answer(ctx context.Context, message []byte) wsMessage {
	var req wsRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return errorMessage(errors.NewParse("JSON", "websocket message", err.Error()))
	}

	if err := validation.ValidateSource([]byte(req.Source)); err != nil {
		return errorMessage(err)
	}

	format := ingest.Sniff([]byte(req.Source))
	if req.Format != "" {
		f, err := ingest.ParseFormat(req.Format)
		if err != nil {
			return errorMessage(err)
		}
		format = f
	}
	if req.Store {
		if err := validateName(req.Name); err != nil {
			return errorMessage(err)
		}
	}

	doc, err := s.convert(ctx, format, []byte(req.Source), s.enc.Options())
	if err != nil {
		return errorMessage(err)
	}

	msg := wsMessage{Type: msgResult, Document: doc}
	if req.Store {
		rec, err := s.store(ctx, req.Name, format, doc)
		if err != nil {
			return errorMessage(err)
		}
		msg.ID = rec.ID
		msg.Name = rec.Name
	}
	return msg
}

func errorMessage(err error) wsMessage {
	status, code := statusForError(err)
	message := err.Error()
	if status >= 500 {
		logging.Error("websocket request failed", "error", err)
		message = "internal error"
	}
	return wsMessage{Type: msgError, Error: &APIError{Code: code, Message: message}}
}

// writePump sends queued messages, one frame each, and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
