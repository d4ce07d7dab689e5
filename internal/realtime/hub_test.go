package realtime

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop(), nil, nil)
	router := gin.New()
	router.GET("/ws", ServeWs(hub, zap.NewNop()))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expectSilence(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var msg Message
	if err := conn.ReadJSON(&msg); err == nil {
		t.Fatalf("expected no message, got %+v", msg)
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	hub.Broadcast(EventStartRecording, map[string]string{"sessionId": "s1"})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Event != EventStartRecording {
			t.Fatalf("expected start-recording, got %q", msg.Event)
		}
		if msg.Origin != OriginServer {
			t.Fatalf("expected server origin, got %q", msg.Origin)
		}
		var payload map[string]string
		if err := json.Unmarshal(msg.Data, &payload); err != nil || payload["sessionId"] != "s1" {
			t.Fatalf("unexpected payload %s (err %v)", msg.Data, err)
		}
	}
}

func TestClientForwardIsRebroadcast(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	data, _ := json.Marshal(map[string]string{"sessionId": "s2"})
	if err := a.WriteJSON(Message{Event: EventRecordingCompleted, Data: data}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Both peers receive it, sender included, stamped with a client origin.
	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		if msg.Event != EventRecordingCompleted {
			t.Fatalf("expected recording-completed, got %q", msg.Event)
		}
		if msg.Origin == OriginServer || msg.Origin == "" {
			t.Fatalf("expected client origin stamp, got %q", msg.Origin)
		}
	}
}

func TestServerEchoIsDropped(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	// A display mirroring a server broadcast back must not loop.
	data, _ := json.Marshal(map[string]string{"sessionId": "s3"})
	if err := a.WriteJSON(Message{Event: EventRecordingCompleted, Data: data, Origin: OriginServer}); err != nil {
		t.Fatalf("write: %v", err)
	}

	expectSilence(t, b)
}

func TestKioskRegisterIsConnectionLocal(t *testing.T) {
	hub, srv := newTestHub(t)
	a := dial(t, srv)
	b := dial(t, srv)
	waitForClients(t, hub, 2)

	data, _ := json.Marshal(map[string]string{"kioskId": "lobby-1"})
	if err := a.WriteJSON(Message{Event: EventKioskRegister, Data: data}); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Registration has no protocol effect: no broadcast to anyone.
	expectSilence(t, a)
	expectSilence(t, b)
}

func TestDisconnectUnregisters(t *testing.T) {
	hub, srv := newTestHub(t)
	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	_ = conn.Close()
	waitForClients(t, hub, 0)
}
