package realtime

import (
	"context"
	"sync"

	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one notification delivered to a listener
type Event struct {
	Name    string      `json:"event"`
	Payload interface{} `json:"data"`
}

// Client is a connected listener
type Client struct {
	ID     string
	events chan Event
}

// Events returns the client's delivery channel; it is closed on unsubscribe
func (c *Client) Events() <-chan Event {
	return c.events
}

// Hub fans events out to connected listeners. Delivery is at most once:
// a listener whose buffer is full misses the event.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	closed     bool
	bufferSize int
	logger     *zap.Logger
}

// NewHub creates a hub buffering up to bufferSize events per listener
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &Hub{
		clients:    make(map[string]*Client),
		bufferSize: bufferSize,
		logger:     util.GetLogger(),
	}
}

// Subscribe registers a new listener. On a closed hub the listener's
// channel is already closed.
func (h *Hub) Subscribe() *Client {
	client := &Client{
		ID:     uuid.New().String(),
		events: make(chan Event, h.bufferSize),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(client.events)
		return client
	}
	h.clients[client.ID] = client
	h.mu.Unlock()

	util.RealtimeClients.Inc()
	h.logger.Debug("Listener connected", zap.String("client_id", client.ID))
	return client
}

// Unsubscribe removes a listener and closes its channel
func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if ok {
		delete(h.clients, clientID)
		close(client.events)
	}
	h.mu.Unlock()

	if ok {
		util.RealtimeClients.Dec()
		h.logger.Debug("Listener disconnected", zap.String("client_id", clientID))
	}
}

// Close disconnects every listener and refuses new ones, which ends their
// streams
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[string]*Client)
	for _, client := range clients {
		close(client.events)
	}
	h.mu.Unlock()

	util.RealtimeClients.Sub(float64(len(clients)))
	h.logger.Info("Realtime hub closed", zap.Int("listeners", len(clients)))
}

// ClientCount returns the number of connected listeners
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastEvent delivers an event to every connected listener without blocking
func (h *Hub) BroadcastEvent(ctx context.Context, eventName string, payload interface{}) {
	event := Event{Name: eventName, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		h.deliver(client, event)
	}
}

// SendToClient delivers an event to one listener. Returns false when the
// listener is unknown or its buffer is full.
func (h *Hub) SendToClient(ctx context.Context, clientID, eventName string, payload interface{}) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, ok := h.clients[clientID]
	if !ok {
		return false
	}
	return h.deliver(client, Event{Name: eventName, Payload: payload})
}

func (h *Hub) deliver(client *Client, event Event) bool {
	select {
	case client.events <- event:
		return true
	default:
		util.StockEventsDroppedTotal.Inc()
		h.logger.Warn("Dropping event for slow listener",
			zap.String("client_id", client.ID),
			zap.String("event", event.Name))
		return false
	}
}
