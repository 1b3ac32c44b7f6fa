package room

import (
	"errors"
	"sync"
	"time"

	"openboard/internal/board"
	"openboard/internal/client"
)

// Element is a room UI area that moderators can hide.
type Element string

const (
	ElementWhiteboard Element = "whiteboard"
	ElementActionMenu Element = "actionMenu"
)

var ErrRoomFull = errors.New("room is full")

// Room is one collaborative room: its participants, its whiteboards and the
// per-board undo history. Board and undo state is shared mutable per room;
// Do serializes every action (mutation + undo push + broadcast) so actions
// appear atomic to each other.
type Room struct {
	ID int64

	Wbs  *board.Whiteboards
	Undo *board.UndoStacks

	clients    map[string]*client.Client
	hidden     map[Element]struct{}
	lastActive time.Time
	createdAt  time.Time

	actionMu sync.Mutex
	mu       sync.RWMutex
}

func New(id int64) *Room {
	return &Room{
		ID:         id,
		Wbs:        board.NewWhiteboards(id),
		Undo:       board.NewUndoStacks(),
		clients:    make(map[string]*client.Client),
		hidden:     make(map[Element]struct{}),
		lastActive: time.Now(),
		createdAt:  time.Now(),
	}
}

// Do runs fn holding the room action lock.
func (r *Room) Do(fn func()) {
	r.actionMu.Lock()
	defer r.actionMu.Unlock()
	fn()
}

// Join adds a participant to the room.
func (r *Room) Join(c *client.Client, maxRoomSize int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if maxRoomSize > 0 && len(r.clients) >= maxRoomSize {
		return ErrRoomFull
	}
	r.clients[c.UID] = c
	r.lastActive = time.Now()
	return nil
}

// Leave removes a participant from the room.
func (r *Room) Leave(c *client.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.clients, c.UID)
	r.lastActive = time.Now()
}

// RemoveClient removes a participant by uid (cleanup after failed writes).
func (r *Room) RemoveClient(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, uid)
}

// Clients returns a snapshot of current participants.
func (r *Room) Clients() []*client.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*client.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

func (r *Room) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Touch marks the room as active.
func (r *Room) Touch() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastActive = time.Now()
}

// Hidden reports whether a UI element is hidden in this room.
func (r *Room) Hidden(el Element) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.hidden[el]
	return ok
}

func (r *Room) SetHidden(el Element, hidden bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hidden {
		r.hidden[el] = struct{}{}
	} else {
		delete(r.hidden, el)
	}
}
