package ws

import (
	"sync"
)

// Hub tracks live clients and room membership and fans events out to rooms.
// Broadcasts target rooms, not individual sessions, so delivery to a user
// with several open devices needs no special casing.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[RoomID]map[*Client]struct{}
	joined  map[*Client]map[RoomID]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[RoomID]map[*Client]struct{}),
		joined:  make(map[*Client]map[RoomID]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	h.joined[c] = make(map[RoomID]struct{})
}

// Unregister drops the client from every room it joined and closes its send
// channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	for room := range h.joined[c] {
		h.leaveLocked(c, room)
	}
	delete(h.joined, c)
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) Join(c *Client, room RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.joined[c][room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room RoomID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
	if j, ok := h.joined[c]; ok {
		delete(j, room)
	}
}

func (h *Hub) leaveLocked(c *Client, room RoomID) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Broadcast delivers an event to every session joined to the room.
func (h *Hub) Broadcast(room RoomID, event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.Send(OutEvent{Event: event, Data: data})
	}
}

// BroadcastAll delivers an event to every connected session.
func (h *Hub) BroadcastAll(event string, data any) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.Send(OutEvent{Event: event, Data: data})
	}
}
