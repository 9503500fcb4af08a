package websocket

import (
	"context"
	"testing"
	"time"

	"lecture-rag-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(nil, logger.NewNopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()
	return hub, cancel
}

func waitForWatchers(t *testing.T, hub *Hub, key string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Watchers(key) == n }, time.Second, 5*time.Millisecond)
}

func TestHubDeliversOnlyToSessionClients(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	optics := &Client{Hub: hub, SessionKey: "Physics:Optics:2026-10-15", Send: make(chan []byte, 4)}
	waves := &Client{Hub: hub, SessionKey: "Physics:Waves:2026-10-15", Send: make(chan []byte, 4)}
	hub.register <- optics
	hub.register <- waves
	waitForWatchers(t, hub, optics.SessionKey, 1)
	waitForWatchers(t, hub, waves.SessionKey, 1)

	hub.Deliver(optics.SessionKey, []byte(`{"type":"lecture.chunk_persisted"}`))

	select {
	case msg := <-optics.Send:
		assert.JSONEq(t, `{"type":"lecture.chunk_persisted"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
	assert.Len(t, waves.Send, 0)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	slow := &Client{Hub: hub, SessionKey: "k", Send: make(chan []byte, 1)}
	hub.register <- slow
	waitForWatchers(t, hub, "k", 1)

	hub.Deliver("k", []byte("1"))
	hub.Deliver("k", []byte("2"))

	assert.Equal(t, 0, hub.Watchers("k"))
	assert.Equal(t, []byte("1"), <-slow.Send)
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHubUnregister(t *testing.T) {
	hub, cancel := startHub(t)
	defer cancel()

	c := &Client{Hub: hub, SessionKey: "k", Send: make(chan []byte, 1)}
	hub.register <- c
	waitForWatchers(t, hub, "k", 1)

	hub.unregister <- c
	waitForWatchers(t, hub, "k", 0)
}
