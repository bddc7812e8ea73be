package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"oral-coach-be/internal/pkg/logger"
)

// Hub tracks the live voice connections by session key. A session has
// exactly one learner, but the map holds a list so a reconnecting client
// can overlap briefly with its dying predecessor.
type Hub struct {
	clients map[string][]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Lock for safe map access
	mu sync.RWMutex

	// Redis connection for cross-instance communication
	rdb *redis.Client

	// Dedicated Logger
	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	// Start Redis Subscriber if Redis is available
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionKey] = append(h.clients[client.SessionKey], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Voice client registered", map[string]interface{}{"session_key": client.SessionKey})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionKey]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionKey] = append(clients[:i], clients[i+1:]...)
						close(c.Send)
						break
					}
				}
				if len(h.clients[client.SessionKey]) == 0 {
					delete(h.clients, client.SessionKey)
					h.logger.Info("Hub", "Voice session fully disconnected", map[string]interface{}{"session_key": client.SessionKey})
				}
			}
			h.mu.Unlock()
		}
	}
}

// SendToSession delivers a frame to the session's local connections and
// relays it to sibling instances over redis.
func (h *Hub) SendToSession(sessionKey string, data []byte) {
	h.mu.RLock()
	clients, localFound := h.clients[sessionKey]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// The unregister handler is the only closer of Send;
				// closing here too would double-close on a stalled client.
				h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"session_key": sessionKey})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil && !localFound {
		payload := relayedFrame{
			TargetSession: sessionKey,
			Message:       data,
		}
		jsonPayload, _ := json.Marshal(payload)
		h.rdb.Publish(context.Background(), "voice_events", jsonPayload)
	}
}

// relayedFrame carries a frame between instances over redis. Message is
// base64 on the wire; encoding/json decodes it back to raw bytes.
type relayedFrame struct {
	TargetSession string `json:"target_session"`
	Message       []byte `json:"message"`
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to "voice_events"; a message names its
	// target session and only the instance holding it locally delivers.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, "voice_events")
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var payload relayedFrame
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[payload.TargetSession]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
