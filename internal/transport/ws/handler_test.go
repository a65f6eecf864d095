package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"timedquiz/internal/model"
	"timedquiz/internal/scheduler"
	"timedquiz/internal/service"
)

type wsFixture struct {
	server  *httptest.Server
	hub     *Hub
	tracker *service.TimeTracker
}

func newWSFixture(t *testing.T, origins []string) *wsFixture {
	t.Helper()
	logger := zap.NewNop()

	sched := scheduler.New(logger)
	sched.Start()
	hub := NewHub(logger)
	tracker := service.NewTimeTracker(sched, 50*time.Millisecond, logger)
	tracker.SetBroadcaster(hub)

	handler := NewHandler(hub, tracker, logger, origins)
	server := httptest.NewServer(http.HandlerFunc(handler.TimeTrackingWS))

	t.Cleanup(func() {
		server.Close()
		hub.Stop()
		sched.Stop()
	})
	return &wsFixture{server: server, hub: hub, tracker: tracker}
}

func (f *wsFixture) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType MessageType, payload interface{}) {
	t.Helper()
	data, _ := json.Marshal(payload)
	if err := conn.WriteJSON(Message{Type: msgType, Payload: data}); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func receiveUpdate(t *testing.T, conn *websocket.Conn) model.TimeUpdate {
	t.Helper()
	msg := receive(t, conn)
	if msg.Type != MsgTimeUpdate {
		t.Fatalf("expected %s, got %s (%s)", MsgTimeUpdate, msg.Type, msg.Payload)
	}
	var update model.TimeUpdate
	if err := json.Unmarshal(msg.Payload, &update); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	return update
}

func receiveError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	msg := receive(t, conn)
	if msg.Type != MsgError {
		t.Fatalf("expected %s, got %s (%s)", MsgError, msg.Type, msg.Payload)
	}
	var payload ErrorPayload
	json.Unmarshal(msg.Payload, &payload)
	return payload.Message
}

func TestMessageTypeMatchesService(t *testing.T) {
	if string(MsgTimeUpdate) != service.MsgTimeUpdate {
		t.Errorf("ws %q != service %q", MsgTimeUpdate, service.MsgTimeUpdate)
	}
}

func TestStartTickStop(t *testing.T) {
	f := newWSFixture(t, nil)
	conn := f.dial(t, nil)
	req := model.TopicRequest{UserID: "u1", TopicID: "go"}

	send(t, conn, MsgStartTopic, req)
	first := receiveUpdate(t, conn)
	if first.UserID != "u1" || first.TopicID != "go" || first.TotalTime != 0 {
		t.Fatalf("unexpected first update: %+v", first)
	}

	// ticks every 50ms; totals only move on whole seconds
	var update model.TimeUpdate
	for update.TotalTime < 1 {
		update = receiveUpdate(t, conn)
	}
	if update.TotalTime != 1 {
		t.Fatalf("expected total 1, got %d", update.TotalTime)
	}

	send(t, conn, MsgStopTopic, req)

	// the stop update is the last one sent; read until the socket goes quiet
	var final model.TimeUpdate
	for {
		conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		json.Unmarshal(msg.Payload, &final)
	}
	if final.TotalTime < 1 {
		t.Errorf("final total = %d, want >= 1", final.TotalTime)
	}
	if f.tracker.Tracking("u1", "go") {
		t.Error("topic still tracked after stop")
	}
}

func TestDisconnectStopsTimers(t *testing.T) {
	f := newWSFixture(t, nil)
	conn := f.dial(t, nil)

	send(t, conn, MsgStartTopic, model.TopicRequest{UserID: "u1", TopicID: "go"})
	receiveUpdate(t, conn)
	if !f.tracker.Tracking("u1", "go") {
		t.Fatal("topic not tracked after start")
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for f.tracker.Tracking("u1", "go") && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.tracker.Tracking("u1", "go") {
		t.Error("timer still armed after disconnect")
	}
	for f.hub.Len() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.hub.Len() != 0 {
		t.Errorf("hub still holds %d connections", f.hub.Len())
	}
}

func TestInvalidMessages(t *testing.T) {
	f := newWSFixture(t, nil)
	conn := f.dial(t, nil)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := receiveError(t, conn); got != "malformed message" {
		t.Errorf("error = %q", got)
	}

	send(t, conn, "dance", nil)
	if got := receiveError(t, conn); !strings.Contains(got, "unknown message type") {
		t.Errorf("error = %q", got)
	}

	send(t, conn, MsgStartTopic, model.TopicRequest{UserID: "u1"})
	if got := receiveError(t, conn); got != service.ErrMissingIdentifiers.Error() {
		t.Errorf("error = %q", got)
	}
	if f.tracker.Tracking("u1", "") {
		t.Error("invalid start must not arm a timer")
	}
}

func receiveTimeSpent(t *testing.T, conn *websocket.Conn) model.TimeSpentReply {
	t.Helper()
	msg := receive(t, conn)
	if msg.Type != MsgTimeSpent {
		t.Fatalf("expected %s, got %s (%s)", MsgTimeSpent, msg.Type, msg.Payload)
	}
	var reply model.TimeSpentReply
	if err := json.Unmarshal(msg.Payload, &reply); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	return reply
}

func TestGetTimeSpent(t *testing.T) {
	f := newWSFixture(t, nil)
	conn := f.dial(t, nil)
	req := model.TopicRequest{UserID: "u1", TopicID: "go"}

	send(t, conn, MsgGetTimeSpent, req)
	reply := receiveTimeSpent(t, conn)
	if reply.UserID != "u1" || reply.TopicID != "go" || reply.TimeSpent != nil {
		t.Fatalf("unknown topic: %+v", reply)
	}

	if _, err := f.tracker.StartTopic("other", "u1", "go"); err != nil {
		t.Fatalf("StartTopic: %v", err)
	}
	total, err := f.tracker.StopTopic("other", "u1", "go")
	if err != nil {
		t.Fatalf("StopTopic: %v", err)
	}

	send(t, conn, MsgGetTimeSpent, req)
	reply = receiveTimeSpent(t, conn)
	if reply.TimeSpent == nil || *reply.TimeSpent != total {
		t.Errorf("recorded topic: %+v", reply)
	}

	send(t, conn, MsgGetTimeSpent, model.TopicRequest{TopicID: "go"})
	if got := receiveError(t, conn); got != service.ErrMissingIdentifiers.Error() {
		t.Errorf("error = %q", got)
	}
}

func TestOriginCheck(t *testing.T) {
	f := newWSFixture(t, []string{"http://localhost:5173"})
	url := "ws" + strings.TrimPrefix(f.server.URL, "http")

	header := http.Header{"Origin": []string{"http://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected rejected origin")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	f.dial(t, http.Header{"Origin": []string{"http://localhost:5173"}})
}
