// Package websocket implements the realtime chat channel: one room
// per user identity, presence tracking, message ingest, and read
// receipts. Built on github.com/coder/websocket.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/collegeconnect/backend/internal/logger"
	"github.com/collegeconnect/backend/internal/metrics"
)

// Hub tracks the set of live clients grouped by user id. All of a
// user's connections form their room; delivery to a user reaches
// every one of them.
type Hub struct {
	// rooms maps user id to that user's live connections
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	unicast    chan *roomDelivery

	mu sync.RWMutex

	stats *Stats

	ctx    context.Context
	cancel context.CancelFunc

	handlers map[string]EventHandler

	rateLimitConfig RateLimitConfig
}

// Stats tracks channel counters for the stats endpoint
type Stats struct {
	TotalConnections  atomic.Int64
	ActiveConnections atomic.Int64
	EventsReceived    atomic.Int64
	MessagesSent      atomic.Int64
	Errors            atomic.Int64
	Dropped           atomic.Int64
}

// RateLimitConfig defines per-client throttling parameters
type RateLimitConfig struct {
	MaxEventsPerSecond int
	BurstSize          int
}

// DefaultRateLimitConfig returns sensible defaults
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEventsPerSecond: 10,
		BurstSize:          20,
	}
}

type roomDelivery struct {
	userID  string
	message *Message
}

// EventHandler processes one incoming event type
type EventHandler func(client *Client, message *Message) error

// NewHub creates a hub; call Run to start its event loop
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		rooms:           make(map[string]map[*Client]struct{}),
		register:        make(chan *Client, 256),
		unregister:      make(chan *Client, 256),
		unicast:         make(chan *roomDelivery, 256),
		stats:           &Stats{},
		ctx:             ctx,
		cancel:          cancel,
		handlers:        make(map[string]EventHandler),
		rateLimitConfig: DefaultRateLimitConfig(),
	}
}

// RegisterHandler binds a handler to an event type
func (h *Hub) RegisterHandler(eventType string, handler EventHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[eventType] = handler
}

// GetHandler returns the handler for an event type
func (h *Hub) GetHandler(eventType string) (EventHandler, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	handler, ok := h.handlers[eventType]
	return handler, ok
}

// Run drives the hub's event loop until Shutdown
func (h *Hub) Run() {
	logger.Log.Info("websocket hub starting")

	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case d := <-h.unicast:
			h.deliver(d.userID, d.message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[client.UserID] == nil {
		h.rooms[client.UserID] = make(map[*Client]struct{})
	}
	h.rooms[client.UserID][client] = struct{}{}

	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	metrics.Get().WSConnectionsActive.Inc()

	logger.Log.Info("client connected",
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()),
	)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[client.UserID]
	if !ok {
		return
	}
	if _, ok := room[client]; !ok {
		return
	}

	delete(room, client)
	if len(room) == 0 {
		delete(h.rooms, client.UserID)
	}
	close(client.send)

	h.stats.ActiveConnections.Add(-1)
	metrics.Get().WSConnectionsActive.Dec()

	logger.Log.Info("client disconnected",
		logger.WithUserID(client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()),
	)
}

// deliver pushes a message to every connection in the user's room.
// An empty room is a silent no-op.
func (h *Hub) deliver(userID string, message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[userID]
	if !ok || len(room) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Error("marshal delivery failed", zap.Error(err))
		return
	}

	for client := range room {
		select {
		case client.send <- data:
			h.stats.MessagesSent.Add(1)
			metrics.Get().WSMessagesSentTotal.Inc()
		default:
			// Buffer full; the connection is too slow to keep.
			h.stats.Dropped.Add(1)
			metrics.Get().WSMessagesDropped.WithLabelValues("slow_client").Inc()
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// SendToUser queues a message for every live connection of the user
func (h *Hub) SendToUser(userID string, message *Message) {
	select {
	case h.unicast <- &roomDelivery{userID: userID, message: message}:
	case <-h.ctx.Done():
	}
}

// Register adds a client to its room
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from its room
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// IsUserOnline reports whether the user has any live connection
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[userID]
	return ok && len(room) > 0
}

// MembersOf returns the user's live connections
func (h *Hub) MembersOf(userID string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room := h.rooms[userID]
	clients := make([]*Client, 0, len(room))
	for c := range room {
		clients = append(clients, c)
	}
	return clients
}

// OnlineUsers returns the ids of all users with live connections
func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.rooms))
	for userID := range h.rooms {
		users = append(users, userID)
	}
	return users
}

// Snapshot returns a point-in-time view of the channel counters
func (h *Hub) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:  h.stats.TotalConnections.Load(),
		ActiveConnections: h.stats.ActiveConnections.Load(),
		EventsReceived:    h.stats.EventsReceived.Load(),
		MessagesSent:      h.stats.MessagesSent.Load(),
		Errors:            h.stats.Errors.Load(),
		Dropped:           h.stats.Dropped.Load(),
	}
}

// StatsSnapshot is a point-in-time view of the channel counters
type StatsSnapshot struct {
	TotalConnections  int64 `json:"total_connections"`
	ActiveConnections int64 `json:"active_connections"`
	EventsReceived    int64 `json:"events_received"`
	MessagesSent      int64 `json:"messages_sent"`
	Errors            int64 `json:"errors"`
	Dropped           int64 `json:"dropped"`
}

// Shutdown stops the event loop and closes every connection
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		// closeAll runs inside Run; give it a moment to drain
		for h.stats.ActiveConnections.Load() > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		close(done)
	}()

	select {
	case <-done:
		logger.Log.Info("websocket hub shutdown complete")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown timeout: %w", ctx.Err())
	}
}

// closeAll notifies and closes every connection during shutdown
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, _ := json.Marshal(NewMessage(EventSystem, SystemPayload{
		Event: "server_shutdown",
	}))

	for _, room := range h.rooms {
		for client := range room {
			select {
			case client.send <- data:
			default:
			}
			close(client.send)
			h.stats.ActiveConnections.Add(-1)
			metrics.Get().WSConnectionsActive.Dec()
		}
	}
	h.rooms = make(map[string]map[*Client]struct{})
}

// GetRateLimitConfig returns the current throttling parameters
func (h *Hub) GetRateLimitConfig() RateLimitConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rateLimitConfig
}

// SetRateLimitConfig updates the throttling parameters
func (h *Hub) SetRateLimitConfig(config RateLimitConfig) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rateLimitConfig = config
}
