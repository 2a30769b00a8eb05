package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"crowd-pulse-lab/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type countingRecorder struct {
	mu         sync.Mutex
	stored     int
	errors     map[string]int
	reconnects int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{errors: make(map[string]int)}
}

func (c *countingRecorder) RecordEventsStored(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored += n
}

func (c *countingRecorder) RecordIngestError(errorType string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors[errorType]++
}

func (c *countingRecorder) RecordReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reconnects++
}

func (c *countingRecorder) errorCount(errorType string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors[errorType]
}

func (c *countingRecorder) reconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnects
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func testWSConfig() *WSConfig {
	return &WSConfig{
		ReconnectDelay:    10 * time.Millisecond,
		MaxReconnectDelay: 50 * time.Millisecond,
		HandshakeTimeout:  time.Second,
		ReadTimeout:       5 * time.Second,
		Buffer:            16,
	}
}

func receive(t *testing.T, ch <-chan *domain.Event) *domain.Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("channel closed unexpectedly")
		}
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return nil
}

func TestWSEventSource_Subscribe(t *testing.T) {
	subscribed := make(chan subscribeMessage, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var sub subscribeMessage
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}
		subscribed <- sub

		conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"1","asset":"PEPE","timestamp":1000,"likes":3}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"2","asset":"PEPE","timestamp":"2024-01-01T00:00:00Z"}`))

		// Keep connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	rec := newCountingRecorder()
	src := NewWSEventSource(WSOptions{
		Endpoint: wsURL(server),
		Assets:   []string{"PEPE"},
		Config:   testWSConfig(),
		Logger:   zerolog.Nop(),
		Recorder: rec,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	sub := <-subscribed
	if sub.Op != "subscribe" || len(sub.Assets) != 1 || sub.Assets[0] != "PEPE" {
		t.Errorf("Unexpected subscribe message: %+v", sub)
	}

	first := receive(t, events)
	if first.ID != "1" || first.Likes != 3 || first.TimestampMs != 1000 {
		t.Errorf("Unexpected first event: %+v", first)
	}
	second := receive(t, events)
	if second.ID != "2" || second.TimestampMs != 1704067200000 {
		t.Errorf("Unexpected second event: %+v", second)
	}
	if n := rec.errorCount(ErrorTypeDecode); n != 1 {
		t.Errorf("Expected 1 decode error, got %d", n)
	}

	cancel()

	// Channel must close after cancellation
	select {
	case _, ok := <-events:
		for ok {
			_, ok = <-events
		}
	case <-time.After(5 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWSEventSource_Reconnect(t *testing.T) {
	var connections atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		n := connections.Add(1)
		var sub subscribeMessage
		if err := conn.ReadJSON(&sub); err != nil {
			return
		}

		if n == 1 {
			// Deliver one event then drop the connection
			conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"a","asset":"X","timestamp":1}`))
			return
		}

		conn.WriteMessage(websocket.TextMessage, []byte(`{"id":"b","asset":"X","timestamp":2}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	rec := newCountingRecorder()
	src := NewWSEventSource(WSOptions{
		Endpoint: wsURL(server),
		Config:   testWSConfig(),
		Logger:   zerolog.Nop(),
		Recorder: rec,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := src.Subscribe(ctx)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if e := receive(t, events); e.ID != "a" {
		t.Errorf("Expected event a, got %s", e.ID)
	}
	if e := receive(t, events); e.ID != "b" {
		t.Errorf("Expected event b after reconnect, got %s", e.ID)
	}

	if connections.Load() < 2 {
		t.Errorf("Expected at least 2 connections, got %d", connections.Load())
	}
	if rec.reconnectCount() < 1 {
		t.Errorf("Expected a recorded reconnect, got %d", rec.reconnectCount())
	}
}

func TestWSEventSource_DialError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no websocket here", http.StatusNotFound)
	}))
	defer server.Close()

	src := NewWSEventSource(WSOptions{Endpoint: wsURL(server), Config: testWSConfig(), Logger: zerolog.Nop()})

	if _, err := src.Subscribe(context.Background()); err == nil {
		t.Error("Expected dial error for non-websocket endpoint")
	}
}

func TestNewWSEventSource_Defaults(t *testing.T) {
	src := NewWSEventSource(WSOptions{Endpoint: "ws://localhost:1"})

	if src.cfg != DefaultWSConfig() {
		t.Errorf("Expected default config, got %+v", src.cfg)
	}
	if src.recorder == nil {
		t.Error("Expected a no-op recorder")
	}

	src = NewWSEventSource(WSOptions{Config: &WSConfig{ReconnectDelay: time.Second}})
	if src.cfg.MaxReconnectDelay != time.Second {
		t.Errorf("Expected max delay raised to initial delay, got %v", src.cfg.MaxReconnectDelay)
	}
}
