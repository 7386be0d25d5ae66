package streaming

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Navadeep1830/honeypot-api/pkg/logger"
)

func startHub(t *testing.T) (*WebSocketHub, *httptest.Server) {
	t.Helper()
	hub := NewWebSocketHub(logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWebSocket))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) *HoneypotEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg WebSocketMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "event", msg.Type)

	var event HoneypotEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &event))
	return &event
}

func TestWebSocketHub_Broadcast(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent(&HoneypotEvent{ID: "e1", Type: EventTypeScamDetected, ConversationID: "c1"})

	event := readEvent(t, conn)
	assert.Equal(t, "e1", event.ID)
	assert.Equal(t, "c1", event.ConversationID)
}

func TestWebSocketHub_QueryFilter(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "?type=intelligence")

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastEvent(&HoneypotEvent{ID: "skip", Type: EventTypeScamDetected})
	hub.BroadcastEvent(NewIntelligenceEvent("c1", testIntel()))

	event := readEvent(t, conn)
	assert.Equal(t, EventTypeIntelligence, event.Type)
}

func TestWebSocketHub_Disconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func startRelay(t *testing.T, hub *WebSocketHub, bus *EventBus) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Relay(ctx, bus)
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketHub_RelayFromBus(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()
	hub, srv := startHub(t)
	startRelay(t, hub, bus)

	conn := dial(t, srv, "")
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	pub := NewEventBusPublisher(bus)
	require.NoError(t, pub.PublishIntelligence(context.Background(), "c9", testIntel()))

	event := readEvent(t, conn)
	assert.Equal(t, EventTypeIntelligence, event.Type)
	assert.Equal(t, "c9", event.ConversationID)
}

func TestWebSocketHub_RelayStopsWhenBusCloses(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	hub := NewWebSocketHub(logger.NewNop())

	done := make(chan struct{})
	go func() {
		hub.Relay(context.Background(), bus)
		close(done)
	}()
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 5*time.Millisecond)

	bus.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not return after bus closed")
	}
}
