// Package realtime streams x402 transaction events to websocket clients.
//
// Clients connect to /ws and may narrow the stream with query parameters
// (instructionType, agentId, minValue) or by sending a JSON Subscription
// message at any time. Events are produced by a Replayer walking the
// current dataset and by dataset resets.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/crogentx/crogentx/internal/idgen"
	"github.com/crogentx/crogentx/internal/metrics"
	"github.com/crogentx/crogentx/pkg/x402"
)

// normalCloseCodes are WebSocket close codes that indicate an expected disconnect.
var normalCloseCodes = []int{
	websocket.CloseNormalClosure,
	websocket.CloseGoingAway,
	websocket.CloseNoStatusReceived,
}

// EventType for real-time events
type EventType string

const (
	EventTransaction EventType = "transaction"
	EventReset       EventType = "reset"
)

// Event is one message pushed to clients
type Event struct {
	Type        EventType         `json:"type"`
	Timestamp   time.Time         `json:"timestamp"`
	Transaction *x402.Transaction `json:"transaction,omitempty"`
	Generation  int64             `json:"generation,omitempty"`
}

// Subscription filters transaction events for a client. Zero values match
// everything. Reset events are delivered to every client.
type Subscription struct {
	InstructionType x402.InstructionType `json:"instructionType,omitempty"`
	AgentID         string               `json:"agentId,omitempty"`
	MinValue        float64              `json:"minValue,omitempty"`
}

// SubscriptionFromQuery reads a subscription from websocket URL parameters.
// An unparseable minValue is ignored.
func SubscriptionFromQuery(r *http.Request) Subscription {
	q := r.URL.Query()
	sub := Subscription{
		InstructionType: x402.InstructionType(q.Get("instructionType")),
		AgentID:         q.Get("agentId"),
	}
	if v, err := strconv.ParseFloat(q.Get("minValue"), 64); err == nil && v > 0 {
		sub.MinValue = v
	}
	return sub
}

// Matches reports whether event should be delivered under this subscription
func (s Subscription) Matches(event *Event) bool {
	if event.Type != EventTransaction || event.Transaction == nil {
		return true
	}
	tx := event.Transaction
	if s.InstructionType != "" && tx.InstructionType != s.InstructionType {
		return false
	}
	if s.AgentID != "" && tx.AgentID != s.AgentID {
		return false
	}
	if s.MinValue > 0 && tx.ValueFloat() < s.MinValue {
		return false
	}
	return true
}

// Client represents a WebSocket connection
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	mu   sync.RWMutex
	sub  Subscription
}

func (c *Client) subscription() Subscription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sub
}

// MaxClients is the maximum number of concurrent WebSocket connections.
const MaxClients = 1000

// Stats are hub counters
type Stats struct {
	ConnectedClients int   `json:"connectedClients"`
	TotalEvents      int64 `json:"totalEvents"`
	TotalClients     int64 `json:"totalClients"`
	PeakClients      int64 `json:"peakClients"`
}

// Hub manages all WebSocket connections
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *slog.Logger
	done       chan struct{} // closed when Run exits
	maxClients int
	upgrader   websocket.Upgrader

	totalEvents  atomic.Int64
	totalClients atomic.Int64
	peakClients  atomic.Int64
}

// NewHub creates a hub. allowedOrigins lists browser origins permitted to
// connect; "*" allows any. Same-host and non-browser clients are always
// accepted.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
		done:       make(chan struct{}),
		maxClients: MaxClients,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if origin == "http://"+r.Host || origin == "https://"+r.Host {
				return true
			}
			return slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("realtime hub started")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send) // writePump sends CloseMessage on closed channel
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(0)
			h.logger.Info("realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.totalClients.Add(1)
			if current := int64(len(h.clients)); current > h.peakClients.Load() {
				h.peakClients.Store(current)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Debug("client connected", "client", client.id, "total", n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.ActiveWebSocketClients.Set(float64(n))
			h.logger.Debug("client disconnected", "client", client.id, "total", n)

		case event := <-h.broadcast:
			h.totalEvents.Add(1)
			metrics.WebSocketEventsTotal.WithLabelValues(string(event.Type)).Inc()
			msg, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to encode event", "type", event.Type, "error", err)
				continue
			}

			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				if client.subscription().Matches(event) {
					select {
					case client.send <- msg:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			// Remove slow clients under write lock
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						close(client.send)
						delete(h.clients, client)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// Broadcast queues an event for all matching clients. It never blocks; the
// event is dropped when the queue is full.
func (h *Hub) Broadcast(event *Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event", "type", event.Type)
	}
}

// BroadcastTransaction sends a transaction event
func (h *Hub) BroadcastTransaction(tx x402.Transaction) {
	h.Broadcast(&Event{Type: EventTransaction, Timestamp: time.Now().UTC(), Transaction: &tx})
}

// BroadcastReset tells clients the dataset was regenerated
func (h *Hub) BroadcastReset(generation int64) {
	h.Broadcast(&Event{Type: EventReset, Timestamp: time.Now().UTC(), Generation: generation})
}

// Stats returns hub statistics
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return Stats{
		ConnectedClients: len(h.clients),
		TotalEvents:      h.totalEvents.Load(),
		TotalClients:     h.totalClients.Load(),
		PeakClients:      h.peakClients.Load(),
	}
}

// HandleWebSocket upgrades HTTP to WebSocket
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	if n >= h.maxClients {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	sub := SubscriptionFromQuery(r)
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		id:   idgen.WithPrefix("ws_"),
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
		sub:  sub,
	}

	select {
	case h.register <- client:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// readPump reads subscription updates from the client
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, normalCloseCodes...) {
				c.hub.logger.Debug("websocket read error", "client", c.id, "error", err)
			}
			return
		}

		var sub Subscription
		if err := json.Unmarshal(message, &sub); err == nil {
			c.mu.Lock()
			c.sub = sub
			c.mu.Unlock()
		}
	}
}

// writePump writes messages to WebSocket
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("websocket write error", "client", c.id, "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
