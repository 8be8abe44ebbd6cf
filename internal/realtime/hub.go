// Package realtime is the publish/subscribe channel between the check-in
// service and the welcome screens and dashboards.  Clients connect over a
// websocket, join rooms by routing key and receive room-scoped or global
// events.  Delivery is best effort: an event reaches the clients connected
// at the moment it is broadcast and nobody else.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iliyamo/event-checkin/internal/metrics"
)

// Client and server event names.
const (
	EventJoinRoom    = "join-room"
	EventLeaveRoom   = "leave-room"
	EventPing        = "ping"
	EventRoomJoined  = "room-joined"
	EventRoomLeft    = "room-left"
	EventPong        = "pong"
	EventError       = "error"
	EventWelcome     = "welcome"
	EventStatsUpdate = "stats-update"
)

// AllRooms addresses every connected client.  The empty string does too.
const AllRooms = "*"

const defaultQueueSize = 64

// Envelope is the wire format of every websocket frame in both directions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// RoomAck is the payload of room-joined and room-left.
type RoomAck struct {
	Room string `json:"room"`
}

// Client is one connected websocket.  Its room set is owned by the hub and
// only changes in response to the client's own join/leave requests.
type Client struct {
	ID    string
	send  chan []byte
	rooms map[string]struct{}
}

// Hub tracks connected clients and room membership.
type Hub struct {
	mu        sync.RWMutex
	clients   map[*Client]struct{}
	rooms     map[string]map[*Client]struct{}
	queueSize int
	logger    *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:   make(map[*Client]struct{}),
		rooms:     make(map[string]map[*Client]struct{}),
		queueSize: defaultQueueSize,
		logger:    logger,
	}
}

// Register adds a new client with its own bounded send queue.
func (h *Hub) Register() *Client {
	c := &Client{
		ID:    uuid.NewString(),
		send:  make(chan []byte, h.queueSize),
		rooms: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()

	metrics.RealtimeClients.Inc()
	h.logger.Debug("realtime client connected", "client", c.ID, "clients", n)
	return c
}

// Unregister removes c from every room and closes its send queue.  It is
// safe to call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	for room := range c.rooms {
		h.removeFromRoomLocked(c, room)
	}
	delete(h.clients, c)
	close(c.send)
	h.mu.Unlock()

	metrics.RealtimeClients.Dec()
	h.logger.Debug("realtime client disconnected", "client", c.ID)
}

// Join adds c to room and acknowledges to c alone.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.SendTo(c, EventRoomJoined, RoomAck{Room: room})
}

// Leave removes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	h.removeFromRoomLocked(c, room)
	h.mu.Unlock()

	h.SendTo(c, EventRoomLeft, RoomAck{Room: room})
}

func (h *Hub) removeFromRoomLocked(c *Client, room string) {
	delete(c.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// SendTo queues one event for a single client.
func (h *Hub) SendTo(c *Client, event string, data any) {
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		h.logger.Error("realtime marshal failed", "event", event, "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		h.enqueueLocked(c, event, msg)
	}
}

// Broadcast queues event for every member of room, or for every connected
// client when room is "" or "*".  Events for one client are queued in call
// order; a client whose queue is full misses the event.
func (h *Hub) Broadcast(_ context.Context, room, event string, payload any) error {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := h.clients
	if room != "" && room != AllRooms {
		targets = h.rooms[room]
	}
	for c := range targets {
		h.enqueueLocked(c, event, msg)
	}
	return nil
}

func (h *Hub) enqueueLocked(c *Client, event string, msg []byte) {
	select {
	case c.send <- msg:
		metrics.RealtimeEventsTotal.WithLabelValues(event).Inc()
	default:
		metrics.RealtimeEventsDropped.Inc()
		h.logger.Warn("realtime queue full, dropping event", "client", c.ID, "event", event)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomSize returns the number of clients currently in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
