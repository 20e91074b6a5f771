package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"docchat-be/internal/dto"
	"docchat-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "docchat_activity"

// Hub fans session-activity updates out to every connected dashboard. The
// history page is unauthenticated, so there is no per-user routing: every
// update goes to every client. Redis pub/sub carries updates between
// instances; the instance id filters out our own echoes.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out; nil in single-instance
	// deployments.
	rdb *redis.Client

	instanceID string

	logger logger.ILogger
}

// clusterMessage is the payload exchanged over the Redis channel.
type clusterMessage struct {
	Origin  string          `json:"origin"`
	Message json.RawMessage `json:"message"`
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		rdb:        rdb,
		instanceID: uuid.NewString(),
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"clients": total})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a session-activity update to all connected clients and
// relays it to the other instances.
func (h *Hub) Broadcast(activity dto.PublishSessionActivityMessage) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "session_activity",
		"data": activity,
	})

	h.sendLocal(data)

	if h.rdb != nil {
		payload, _ := json.Marshal(clusterMessage{
			Origin:  h.instanceID,
			Message: data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, payload)
	}
}

func (h *Hub) sendLocal(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- data:
		default:
			// Slow consumer; drop it rather than block the hub. The Run
			// loop owns closing the Send channel.
			go func(c *Client) { h.unregister <- c }(client)
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload clusterMessage
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		// Our own publishes come back on the channel; skip them.
		if payload.Origin == h.instanceID {
			continue
		}
		h.sendLocal(payload.Message)
	}
}
