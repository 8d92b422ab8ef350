package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Priya8975/event-registration-service/internal/domain"
	"github.com/Priya8975/event-registration-service/internal/registration"
)

func setupTestHub(t *testing.T, origins ...string) *Hub {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(logger, origins...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func connectWS(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(hub.HandleWebSocket))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	dialer := websocket.Dialer{}
	conn, _, err := dialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to connect WebSocket: %v", err)
	}

	cleanup := func() {
		conn.Close()
		server.Close()
	}

	return conn, cleanup
}

func testUpdate(capacity *int, count int) registration.Update {
	return registration.Update{
		Event:         &domain.Event{ID: "evt-123", MaxCapacity: capacity},
		Attendee:      &domain.Attendee{ID: "att-1", EventID: "evt-123", RegisteredAt: time.Date(2025, 10, 1, 4, 30, 0, 0, time.UTC)},
		AttendeeCount: count,
	}
}

func TestHub_ClientConnects(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()

	// Give the hub time to register the client
	time.Sleep(50 * time.Millisecond)

	if count := hub.ClientCount(); count != 1 {
		t.Errorf("expected 1 client, got %d", count)
	}

	conn.Close()
	time.Sleep(50 * time.Millisecond)

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients after disconnect, got %d", count)
	}
}

func TestHub_RegistrationReachesClient(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()

	time.Sleep(50 * time.Millisecond)

	capacity := 10
	if err := hub.Registered(context.Background(), testUpdate(&capacity, 4)); err != nil {
		t.Fatalf("Registered: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	var got RegistrationUpdate
	if err := json.Unmarshal(message, &got); err != nil {
		t.Fatalf("decoding message: %v", err)
	}
	if got.Type != "registration" || got.EventID != "evt-123" {
		t.Errorf("unexpected message: %s", message)
	}
	if got.AttendeeCount != 4 {
		t.Errorf("attendee_count = %d, want 4", got.AttendeeCount)
	}
	if got.RemainingCapacity == nil || *got.RemainingCapacity != 6 {
		t.Errorf("remaining_capacity = %v, want 6", got.RemainingCapacity)
	}
}

func TestHub_UnboundedEventSendsNullCapacity(t *testing.T) {
	hub := setupTestHub(t)

	conn, cleanup := connectWS(t, hub)
	defer cleanup()

	time.Sleep(50 * time.Millisecond)

	hub.Registered(context.Background(), testUpdate(nil, 1))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	if !strings.Contains(string(message), `"remaining_capacity":null`) {
		t.Errorf("expected null remaining_capacity, got: %s", message)
	}
}

func TestHub_MultipleClients(t *testing.T) {
	hub := setupTestHub(t)

	conn1, cleanup1 := connectWS(t, hub)
	defer cleanup1()
	conn2, cleanup2 := connectWS(t, hub)
	defer cleanup2()

	time.Sleep(50 * time.Millisecond)

	if count := hub.ClientCount(); count != 2 {
		t.Errorf("expected 2 clients, got %d", count)
	}

	hub.Broadcast(RegistrationUpdate{Type: "registration", EventID: "evt-multi"})

	for i, conn := range []*websocket.Conn{conn1, conn2} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("client %d failed to read: %v", i+1, err)
		}
		if !strings.Contains(string(message), "evt-multi") {
			t.Errorf("client %d didn't receive broadcast", i+1)
		}
	}
}

func TestHub_ClientCountStartsAtZero(t *testing.T) {
	hub := setupTestHub(t)

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("expected 0 clients initially, got %d", count)
	}
}

func TestHub_RunStopsOnCancel(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	conn, cleanup := connectWS(t, hub)
	defer cleanup()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	if count := hub.ClientCount(); count != 0 {
		t.Errorf("expected clients to be dropped on shutdown, got %d", count)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed after shutdown")
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://events.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "https://events.example.com")
	if !check(req) {
		t.Error("allowed origin rejected")
	}

	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Error("unknown origin accepted")
	}

	if !originChecker(nil)(req) {
		t.Error("empty allow-list should accept all origins")
	}
}
