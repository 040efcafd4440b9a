// Package presence keeps the volatile set of connections present in each
// room. Nothing here is persisted; an empty tracker after a restart is the
// correct state.
package presence

import (
	"sort"
	"sync"
	"time"
)

type Participant struct {
	ConnectionID string    `json:"-"`
	Pseudonym    string    `json:"pseudonym"`
	UserID       string    `json:"userId,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

// Tracker maps rooms to the connections present in them and keeps the
// reverse index used when a connection goes away.
type Tracker struct {
	mu    sync.RWMutex
	rooms map[string]map[string]Participant
	conns map[string]map[string]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		rooms: make(map[string]map[string]Participant),
		conns: make(map[string]map[string]struct{}),
	}
}

// Join adds p to the room. A connection already present is left as is and
// added is false.
func (t *Tracker) Join(roomID string, p Participant) (count int, added bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members, ok := t.rooms[roomID]
	if !ok {
		members = make(map[string]Participant)
		t.rooms[roomID] = members
	}
	if _, exists := members[p.ConnectionID]; exists {
		return len(members), false
	}
	if p.JoinedAt.IsZero() {
		p.JoinedAt = time.Now().UTC()
	}
	members[p.ConnectionID] = p

	rooms, ok := t.conns[p.ConnectionID]
	if !ok {
		rooms = make(map[string]struct{})
		t.conns[p.ConnectionID] = rooms
	}
	rooms[roomID] = struct{}{}

	return len(members), true
}

// Leave removes the connection from the room and reports who left and how
// many remain.
func (t *Tracker) Leave(roomID, connID string) (Participant, int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	members := t.rooms[roomID]
	p, ok := members[connID]
	if !ok {
		return Participant{}, len(members), false
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(t.rooms, roomID)
	}
	if rooms := t.conns[connID]; rooms != nil {
		delete(rooms, roomID)
		if len(rooms) == 0 {
			delete(t.conns, connID)
		}
	}
	return p, len(members), true
}

func (t *Tracker) Lookup(roomID, connID string) (Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.rooms[roomID][connID]
	return p, ok
}

// RoomsOf lists the rooms a connection is present in, sorted.
func (t *Tracker) RoomsOf(connID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rooms := make([]string, 0, len(t.conns[connID]))
	for roomID := range t.conns[connID] {
		rooms = append(rooms, roomID)
	}
	sort.Strings(rooms)
	return rooms
}

func (t *Tracker) ConnectionIDs(roomID string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ids := make([]string, 0, len(t.rooms[roomID]))
	for id := range t.rooms[roomID] {
		ids = append(ids, id)
	}
	return ids
}

func (t *Tracker) Count(roomID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rooms[roomID])
}

func (t *Tracker) Counts() map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	counts := make(map[string]int, len(t.rooms))
	for roomID, members := range t.rooms {
		counts[roomID] = len(members)
	}
	return counts
}

// Reset forgets every room. It runs on shutdown.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rooms = make(map[string]map[string]Participant)
	t.conns = make(map[string]map[string]struct{})
}
