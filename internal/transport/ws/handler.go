package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"timedquiz/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	lookupTimeout  = 3 * time.Second
)

// Tracker is the part of the time tracker driven by socket events
type Tracker interface {
	StartTopic(connID, userID, topicID string) (int, error)
	StopTopic(connID, userID, topicID string) (int, error)
	Disconnect(connID string)
	TimeSpent(ctx context.Context, userID, topicID string) (int, bool, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	tracker  Tracker
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
// An empty origin list or "*" accepts any origin.
func NewHandler(hub *Hub, tracker Tracker, logger *zap.Logger, allowedOrigins []string) *Handler {
	return &Handler{
		hub:     hub,
		tracker: tracker,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 {
					return true
				}
				return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// TimeTrackingWS handles GET /v1/ws/time-tracking
func (h *Handler) TimeTrackingWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		ID:   uuid.NewString(),
		Send: make(chan []byte, 256),
	}
	h.hub.Register(conn)

	h.logger.Info("time tracking client connected",
		zap.String("connId", conn.ID),
		zap.String("remote", r.RemoteAddr),
	)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.tracker.Disconnect(conn.ID)
		h.hub.Unregister(conn)
		wsConn.Close()
		h.logger.Info("time tracking client disconnected", zap.String("connId", conn.ID))
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", zap.String("connId", conn.ID), zap.Error(err))
			}
			break
		}
		h.dispatch(conn, data)
	}
}

func (h *Handler) dispatch(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.sendError(conn, "malformed message")
		return
	}

	switch msg.Type {
	case MsgStartTopic, MsgStopTopic, MsgGetTimeSpent:
	default:
		h.sendError(conn, "unknown message type: "+string(msg.Type))
		return
	}

	var req model.TopicRequest
	if len(msg.Payload) > 0 {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			h.sendError(conn, "malformed payload")
			return
		}
	}

	var err error
	switch msg.Type {
	case MsgStartTopic:
		_, err = h.tracker.StartTopic(conn.ID, req.UserID, req.TopicID)
	case MsgStopTopic:
		_, err = h.tracker.StopTopic(conn.ID, req.UserID, req.TopicID)
	case MsgGetTimeSpent:
		err = h.replyTimeSpent(conn, req)
	}
	if err != nil {
		h.logger.Warn("time tracking request failed",
			zap.String("connId", conn.ID),
			zap.String("type", string(msg.Type)),
			zap.Error(err),
		)
		h.sendError(conn, err.Error())
	}
}

// replyTimeSpent answers with the stored total, or a null total when none exists
func (h *Handler) replyTimeSpent(conn *Connection, req model.TopicRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	total, found, err := h.tracker.TimeSpent(ctx, req.UserID, req.TopicID)
	if err != nil {
		return err
	}
	reply := model.TimeSpentReply{UserID: req.UserID, TopicID: req.TopicID}
	if found {
		reply.TimeSpent = &total
	}
	h.hub.SendToConn(conn.ID, string(MsgTimeSpent), reply)
	return nil
}

func (h *Handler) sendError(conn *Connection, message string) {
	h.hub.SendToConn(conn.ID, string(MsgError), ErrorPayload{Message: message})
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
