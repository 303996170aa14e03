package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"marketlens_backend/services"

	"github.com/gorilla/websocket"
)

func dialHub(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func waitForClients(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("client count = %d, want %d", h.ClientCount(), want)
}

func TestHubStopDisconnectsClients(t *testing.T) {
	h := NewHub(services.NewInMemoryBarStore())
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	conn := dialHub(t, srv)
	defer conn.Close()
	waitForClients(t, h, 1)

	h.Stop()

	// The shutdown path closes the send queue, which makes the write pump
	// deliver a close frame and drop the connection
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected read to fail after hub stop")
	}

	// Stop is idempotent
	h.Stop()
}

func TestHubClosesConnectionsArrivingAfterStop(t *testing.T) {
	h := NewHub(services.NewInMemoryBarStore())
	go h.Run()
	h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	// A handler reaching a stopped hub must not hang on registration; the
	// connection is closed instead
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		// The server side may close before the handshake completes
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to be closed after hub stop")
	}
}

func TestHubUnregisterAfterStopDoesNotBlock(t *testing.T) {
	h := NewHub(services.NewInMemoryBarStore())
	go h.Run()

	srv := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer srv.Close()

	conn := dialHub(t, srv)
	waitForClients(t, h, 1)

	// Stop the hub, then fail the client read by closing from our side.
	// The read pump's unregister hand-off must complete even though the
	// hub loop is gone.
	h.Stop()
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("client count = %d, want 0 after shutdown", h.ClientCount())
}
