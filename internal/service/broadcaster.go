package service

import "timedquiz/internal/model"

// Broadcaster is the interface the time tracker uses to push updates to a
// connection. The ws package implements it; defining it here avoids an
// import cycle between service and ws.
type Broadcaster interface {
	SendToConn(connID string, msgType string, payload interface{})
}

// MsgTimeUpdate is the message type carrying a model.TimeUpdate
const MsgTimeUpdate = "timeUpdate"

func sendTimeUpdate(b Broadcaster, connID string, key model.TopicKey, total int) {
	if b == nil {
		return
	}
	b.SendToConn(connID, MsgTimeUpdate, model.TimeUpdate{
		UserID:    key.UserID,
		TopicID:   key.TopicID,
		TotalTime: total,
	})
}
