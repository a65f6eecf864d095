package ws

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Client message types
const (
	MsgStartTopic   MessageType = "startTopic"
	MsgStopTopic    MessageType = "stopTopic"
	MsgGetTimeSpent MessageType = "getTimeSpent"
)

// Server message types
const (
	MsgTimeUpdate MessageType = "timeUpdate"
	MsgTimeSpent  MessageType = "timeSpent"
	MsgError      MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorPayload is sent when a client message cannot be handled
type ErrorPayload struct {
	Message string `json:"message"`
}

// Hub routes outgoing messages to connections by id
type Hub struct {
	conns  map[string]*Connection
	mu     sync.RWMutex
	logger *zap.Logger

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	outbound   chan *outboundMessage
	quit       chan struct{}
	stopOnce   sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	ID   string
	Send chan []byte
}

type outboundMessage struct {
	connID string
	data   []byte
}

// NewHub creates a new WebSocket hub
func NewHub(logger *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]*Connection),
		logger:     logger,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		outbound:   make(chan *outboundMessage, 256),
		quit:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			h.conns[conn.ID] = conn
			h.mu.Unlock()
			h.logger.Debug("connection registered", zap.String("connId", conn.ID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.conns[conn.ID]; ok && existing == conn {
				delete(h.conns, conn.ID)
				close(conn.Send)
				h.logger.Debug("connection unregistered", zap.String("connId", conn.ID))
			}
			h.mu.Unlock()

		case msg := <-h.outbound:
			h.mu.RLock()
			if conn, ok := h.conns[msg.connID]; ok {
				select {
				case conn.Send <- msg.data:
				default:
					h.logger.Warn("dropping message, send buffer full", zap.String("connId", msg.connID))
				}
			}
			h.mu.RUnlock()

		case <-h.quit:
			h.mu.Lock()
			for id, conn := range h.conns {
				delete(h.conns, id)
				close(conn.Send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.quit:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.quit:
	}
}

// Stop closes every connection and ends the run loop
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Len returns the number of registered connections
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// SendToConn sends a message to one connection (implements service.Broadcaster)
func (h *Hub) SendToConn(connID string, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to marshal payload", zap.String("type", msgType), zap.Error(err))
		return
	}
	envelope, err := json.Marshal(&Message{
		Type:    MessageType(msgType),
		Payload: data,
	})
	if err != nil {
		h.logger.Error("failed to marshal message", zap.String("type", msgType), zap.Error(err))
		return
	}

	select {
	case h.outbound <- &outboundMessage{connID: connID, data: envelope}:
	case <-h.quit:
	}
}
