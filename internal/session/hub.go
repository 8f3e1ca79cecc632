package session

import (
	"sync"

	"cowrite/internal/models"
)

// Hub is the session registry: the process-wide map from document id to the
// room of currently present connections. It also coordinates room membership
// so that a client is in at most one room at any instant. Membership
// mutations are serialized through the hub lock; the broadcast fan-out only
// takes the affected room's lock.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func NewHub() *Hub { return &Hub{rooms: make(map[string]*Room)} }

// Join attaches the client to the document's room, leaving any previous room
// first, and notifies the other members. It returns the roster as of the
// moment the client joined.
func (h *Hub) Join(c *Client, documentID string) []models.ActiveUser {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.room != nil {
		h.leaveLocked(c)
	}

	room, ok := h.rooms[documentID]
	if !ok {
		room = newRoom(documentID)
		h.rooms[documentID] = room
	}
	room.add(c)
	c.room = room

	room.Broadcast(c, models.Frame("user-joined", models.UserEvent{
		User: models.ActiveUser{ID: c.User.ID, Name: c.User.Name},
	}))
	return room.Roster()
}

// Leave detaches the client from its current room, if any. Remaining members
// are told the user left; an emptied room is discarded outright. Safe to call
// repeatedly, so the disconnect path can always run it.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c)
}

func (h *Hub) leaveLocked(c *Client) {
	room := c.room
	if room == nil {
		return
	}
	c.room = nil

	removed, left := room.remove(c)
	if left == 0 {
		// The client's room pointer can be stale: its slot may have been
		// taken over, the room discarded and recreated under the same key.
		// Only deregister the room this client actually emptied.
		if cur, ok := h.rooms[room.ID]; ok && cur == room {
			delete(h.rooms, room.ID)
		}
		return
	}
	if removed {
		room.Broadcast(c, models.Frame("user-left", models.UserEvent{
			User: models.ActiveUser{ID: c.User.ID, Name: c.User.Name},
		}))
	}
}

// Relay forwards the frame verbatim to everyone else in the client's room.
// A client that is in no room relays to nobody; that is not an error. A
// client whose presence slot was taken over by a newer connection is no
// longer in the room either, whatever its own pointer still says.
func (h *Hub) Relay(c *Client, frame models.WSFrame) bool {
	room := c.room
	if room == nil || !room.Has(c) {
		return false
	}
	room.Broadcast(c, frame)
	return true
}

// Get returns the room for a document id, if one exists right now.
func (h *Hub) Get(documentID string) (*Room, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[documentID]
	return r, ok
}

// RoomCount reports how many rooms currently have members.
func (h *Hub) RoomCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}
