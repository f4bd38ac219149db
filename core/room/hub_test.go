package room

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type echoHandler struct {
	hub *Hub

	mu           sync.Mutex
	connected    []string
	disconnected []string
}

func (e *echoHandler) HandleConnect(connID, identity string) {
	e.mu.Lock()
	e.connected = append(e.connected, identity)
	e.mu.Unlock()
	e.hub.Push(connID, map[string]string{"type": "msg", "data": "welcome " + identity})
}

func (e *echoHandler) HandleMessage(ctx context.Context, connID string, raw []byte) {
	e.hub.BroadcastEach(func(id string) interface{} {
		if id == connID {
			return nil
		}
		return map[string]string{"type": "chat", "data": string(raw)}
	})
}

func (e *echoHandler) HandleDisconnect(connID string) {
	e.mu.Lock()
	e.disconnected = append(e.disconnected, connID)
	e.mu.Unlock()
}

func (e *echoHandler) disconnects() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.disconnected)
}

func newTestServer(t *testing.T) (*Hub, *echoHandler, string) {
	t.Helper()
	hub := NewHub()
	handler := &echoHandler{hub: hub}
	hub.SetHandler(handler)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := hub.NewClient(conn, r.URL.Query().Get("ip"))
		go client.WritePump()
		hub.Register(client)
		client.ReadPump(context.Background())
	}))
	t.Cleanup(srv.Close)

	return hub, handler, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestHubWelcomeAndBroadcast(t *testing.T) {
	hub, handler, url := newTestServer(t)

	a := dial(t, url+"?ip=1.1.1.1")
	defer a.Close()
	if got := readText(t, a); !strings.Contains(got, "welcome 1.1.1.1") {
		t.Fatalf("unexpected welcome %s", got)
	}

	b := dial(t, url+"?ip=2.2.2.2")
	defer b.Close()
	if got := readText(t, b); !strings.Contains(got, "welcome 2.2.2.2") {
		t.Fatalf("unexpected welcome %s", got)
	}
	if hub.Count() != 2 {
		t.Fatalf("expected 2 clients, got %d", hub.Count())
	}

	if err := a.WriteMessage(websocket.TextMessage, []byte("hello")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := readText(t, b); !strings.Contains(got, `"data":"hello"`) {
		t.Errorf("expected broadcast, got %s", got)
	}

	a.Close()
	deadline := time.Now().Add(2 * time.Second)
	for handler.disconnects() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if handler.disconnects() != 1 || hub.Count() != 1 {
		t.Errorf("expected one disconnect, got %d (count %d)", handler.disconnects(), hub.Count())
	}
}

func TestHubOneMessagePerFrame(t *testing.T) {
	hub, _, url := newTestServer(t)

	c := dial(t, url+"?ip=1.1.1.1")
	defer c.Close()
	readText(t, c)

	hub.Broadcast(map[string]int{"n": 1})
	hub.Broadcast(map[string]int{"n": 2})

	if got := readText(t, c); got != `{"n":1}` {
		t.Errorf("expected first frame, got %s", got)
	}
	if got := readText(t, c); got != `{"n":2}` {
		t.Errorf("expected second frame, got %s", got)
	}
}
