package session

import (
	"sort"
	"sync"
	"time"

	"cowrite/internal/models"
)

// presenceEntry is one user's live attendance record in a room. At most one
// entry exists per user id: a second join by the same user replaces the
// first, so the newest connection owns that user's presence slot.
type presenceEntry struct {
	client   *Client
	joinedAt time.Time
	seq      uint64
}

// Room tracks the connections present in one document. It holds no document
// content; it exists only while at least one member is attached and is
// rebuilt from nothing the next time someone joins.
type Room struct {
	ID      string
	mu      sync.RWMutex
	members map[uint]*presenceEntry
	nextSeq uint64
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make(map[uint]*presenceEntry)}
}

// add registers the client's presence, replacing any stale entry for the
// same user id.
func (r *Room) add(c *Client) {
	r.mu.Lock()
	r.nextSeq++
	r.members[c.User.ID] = &presenceEntry{client: c, joinedAt: time.Now(), seq: r.nextSeq}
	r.mu.Unlock()
}

// remove drops the client's presence entry and reports how many members are
// left. The entry survives if the user's slot has since been taken over by a
// newer connection, so a stale tab's teardown cannot evict its successor.
func (r *Room) remove(c *Client) (removed bool, left int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.members[c.User.ID]
	if ok && entry.client.ID == c.ID {
		delete(r.members, c.User.ID)
		removed = true
	}
	return removed, len(r.members)
}

// Roster lists the members in join order.
func (r *Room) Roster() []models.ActiveUser {
	r.mu.RLock()
	entries := make([]*presenceEntry, 0, len(r.members))
	for _, e := range r.members {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].seq < entries[j].seq
	})
	users := make([]models.ActiveUser, len(entries))
	for i, e := range entries {
		users[i] = models.ActiveUser{ID: e.client.User.ID, Name: e.client.User.Name}
	}
	return users
}

// Broadcast delivers the frame to every member except the sender. Delivery
// is best effort; a member whose write fails just misses the frame.
func (r *Room) Broadcast(sender *Client, frame models.WSFrame) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.members {
		if e.client == sender {
			continue
		}
		e.client.Send(frame)
	}
}

// Has reports whether the client still owns a presence entry here, i.e. its
// slot has not been taken over by a newer connection for the same user.
func (r *Room) Has(c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.members[c.User.ID]
	return ok && entry.client.ID == c.ID
}

func (r *Room) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
