package websocket

import (
	"encoding/json"
	"sync"

	"github.com/spsports/sps-backend/pkg/logger"
)

// Client is one websocket watching a single order.
type Client struct {
	Hub         *Hub
	Conn        *Conn
	OrderNumber string
	Send        chan []byte
}

type broadcastMessage struct {
	orderNumber string
	payload     []byte
}

// Hub fans out tracking updates to the clients watching each order.
type Hub struct {
	// order number -> watching clients
	watchers map[string]map[*Client]bool

	// unbuffered: Register returns only once Run has taken the client,
	// so any later PublishTracking reaches it
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMessage
	done       chan struct{}
	stopOnce   sync.Once

	allowedOrigins []string

	mu sync.RWMutex
}

// NewHub creates a hub. allowedOrigins limits websocket upgrades; "*" or an
// empty list allows any origin.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		watchers:       make(map[string]map[*Client]bool),
		register:       make(chan *Client),
		unregister:     make(chan *Client, 256),
		broadcast:      make(chan broadcastMessage, 1024),
		done:           make(chan struct{}),
		allowedOrigins: allowedOrigins,
	}
}

// Run processes registrations and broadcasts until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			set, ok := h.watchers[client.OrderNumber]
			if !ok {
				set = make(map[*Client]bool)
				h.watchers[client.OrderNumber] = set
			}
			set[client] = true
			count := len(set)
			h.mu.Unlock()
			logger.Info("Tracking watcher registered", map[string]interface{}{
				"order_number": client.OrderNumber,
				"watchers":     count,
			})

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.watchers[msg.orderNumber] {
				select {
				case client.Send <- msg.payload:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				logger.Warn("Watcher send buffer full, disconnecting", map[string]interface{}{
					"order_number": client.OrderNumber,
				})
				h.remove(client)
			}
		}
	}
}

// remove drops the client and closes its send channel exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.watchers[client.OrderNumber]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	if len(set) == 0 {
		delete(h.watchers, client.OrderNumber)
	}
	close(client.Send)

	logger.Info("Tracking watcher unregistered", map[string]interface{}{
		"order_number": client.OrderNumber,
		"watchers":     len(set),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for orderNumber, set := range h.watchers {
		for client := range set {
			close(client.Send)
		}
		delete(h.watchers, orderNumber)
	}
}

// Stop ends Run and disconnects every watcher.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// PublishTracking sends update to everyone watching orderNumber. Updates
// are dropped rather than blocking the caller when the hub is saturated.
func (h *Hub) PublishTracking(orderNumber string, update interface{}) {
	data, err := json.Marshal(update)
	if err != nil {
		logger.Error("Failed to marshal tracking update", err, map[string]interface{}{
			"order_number": orderNumber,
		})
		return
	}

	select {
	case h.broadcast <- broadcastMessage{orderNumber: orderNumber, payload: data}:
	default:
		logger.Warn("Broadcast channel full, tracking update dropped", map[string]interface{}{
			"order_number": orderNumber,
		})
	}
}

// WatcherCount returns how many clients watch orderNumber.
func (h *Hub) WatcherCount(orderNumber string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.watchers[orderNumber])
}
