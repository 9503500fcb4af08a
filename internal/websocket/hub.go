package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"lecture-rag-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ClusterChannel is the redis channel live feed messages are fanned out on.
const ClusterChannel = "lecture_events"

type clusterMessage struct {
	Origin     string          `json:"origin"`
	SessionKey string          `json:"session_key"`
	Message    json.RawMessage `json:"message"`
}

// Hub tracks live feed clients per session key.
type Hub struct {
	// session key -> clients watching it
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance delivery, nil when disabled
	rdb *redis.Client

	// identifies this instance on the cluster channel
	origin string

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		origin:     uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) error {
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.closeAll()
			return ctx.Err()

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionKey] = append(h.clients[client.SessionKey], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"session_key": client.SessionKey})

		case client := <-h.unregister:
			h.remove(client)
		}
	}
}

// Deliver sends a message to the local clients of the session and to the
// other instances through redis.
func (h *Hub) Deliver(sessionKey string, data []byte) {
	h.deliverLocal(sessionKey, data)

	if h.rdb == nil {
		return
	}
	payload, err := json.Marshal(clusterMessage{Origin: h.origin, SessionKey: sessionKey, Message: data})
	if err != nil {
		return
	}
	if err := h.rdb.Publish(context.Background(), ClusterChannel, payload).Err(); err != nil {
		h.logger.Warn("Hub", "Failed to publish to redis", map[string]interface{}{
			"session_key": sessionKey,
			"error":       err.Error(),
		})
	}
}

func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Watchers is the number of local clients following the session.
func (h *Hub) Watchers(sessionKey string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionKey])
}

func (h *Hub) deliverLocal(sessionKey string, data []byte) {
	var slow []*Client

	h.mu.RLock()
	for _, client := range h.clients[sessionKey] {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn("Hub", "Client Send buffer full, dropping client", map[string]interface{}{"session_key": sessionKey})
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.clients[client.SessionKey]
	for i, c := range clients {
		if c == client {
			h.clients[client.SessionKey] = append(clients[:i], clients[i+1:]...)
			close(client.Send)
			break
		}
	}
	if len(h.clients[client.SessionKey]) == 0 {
		delete(h.clients, client.SessionKey)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for key, clients := range h.clients {
		for _, c := range clients {
			close(c.Send)
		}
		delete(h.clients, key)
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, ClusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload clusterMessage
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			if payload.Origin == h.origin {
				continue
			}
			h.deliverLocal(payload.SessionKey, payload.Message)
		}
	}
}
