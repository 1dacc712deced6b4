package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/AnshRaj112/clubhub-backend/internal/metrics"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const realtimeChannelPrefix = "rt:user:"

// Event is the payload pushed to a user's open WebSocket connections.
type Event struct {
	Type      string          `json:"type"`
	UserID    string          `json:"user_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent builds an Event addressed to userID.
func NewEvent(typ, userID string, data interface{}) (Event, error) {
	ev := Event{Type: typ, UserID: userID, Timestamp: time.Now().UTC()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, err
		}
		ev.Data = raw
	}
	return ev, nil
}

// Publisher delivers events to users.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Conn is the minimal interface our WebSocket implementation must satisfy.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type hubClient struct {
	conn Conn
	mu   sync.Mutex // one writer at a time
}

func (c *hubClient) send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteJSON(ev); err != nil {
		log.WithError(err).Debug("error writing realtime event to websocket")
	}
}

// Hub is the per-instance registry of WebSocket connections. With Redis,
// every instance subscribes to rt:user:* and delivers to its own
// connections; without Redis, Publish delivers locally.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*hubClient]struct{}
	redis   *redis.Client
	started sync.Once
}

func NewHub(client *redis.Client) *Hub {
	return &Hub{clients: make(map[string]map[*hubClient]struct{}), redis: client}
}

// Register adds conn for userID and returns the function that removes it.
func (h *Hub) Register(userID string, conn Conn) func() {
	c := &hubClient{conn: conn}

	h.mu.Lock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*hubClient]struct{})
	}
	h.clients[userID][c] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeConnected()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients[userID], c)
			if len(h.clients[userID]) == 0 {
				delete(h.clients, userID)
			}
			h.mu.Unlock()
			metrics.RealtimeDisconnected()
		})
	}
}

// Connections returns the number of local connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if h.redis == nil {
		h.deliver(ev)
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.redis.Publish(ctx, realtimeChannelPrefix+ev.UserID, data).Err()
}

// deliver fans ev out to the local connections of its recipient.
func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	targets := make([]*hubClient, 0, len(h.clients[ev.UserID]))
	for c := range h.clients[ev.UserID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		go c.send(ev)
	}
}

// Start runs the shared Redis listener once per instance.
func (h *Hub) Start(ctx context.Context) {
	if h.redis == nil {
		log.Warn("⚠️  Redis not configured; realtime events are delivered to this instance only")
		return
	}
	h.started.Do(func() {
		go h.run(ctx)
	})
}

func (h *Hub) run(ctx context.Context) {
	backoff := time.Second

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := h.redis.PSubscribe(ctx, realtimeChannelPrefix+"*")
			defer pubsub.Close()

			log.Infof("✅ Realtime Redis subscriber started (pattern: %s*)", realtimeChannelPrefix)

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.WithError(err).Warn("Redis subscriber error")
					time.Sleep(backoff)
					backoff *= 2
					if backoff > 30*time.Second {
						backoff = 30 * time.Second
					}
					return
				}

				backoff = time.Second

				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.WithError(err).Warn("failed to unmarshal realtime event")
					continue
				}
				if ev.UserID == "" {
					ev.UserID = strings.TrimPrefix(msg.Channel, realtimeChannelPrefix)
				}
				h.deliver(ev)
			}
		}()
	}
}
