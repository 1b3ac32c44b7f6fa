package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var ErrTooManyRooms = errors.New("server at maximum room capacity")

// Manager is the room registry. Room whiteboard state lives only while the
// room session lives: rooms are created on first access and destroyed by the
// cleanup loop once empty and idle. Nothing is persisted unless a board was
// explicitly exported.
type Manager struct {
	rooms    map[int64]*Room
	maxRooms int
	maxIdle  time.Duration
	log      zerolog.Logger
	mu       sync.RWMutex
}

func NewManager(maxRooms int, maxIdle time.Duration, log zerolog.Logger) *Manager {
	return &Manager{
		rooms:    make(map[int64]*Room),
		maxRooms: maxRooms,
		maxIdle:  maxIdle,
		log:      log.With().Str("component", "rooms").Logger(),
	}
}

// GetOrCreate returns the room, creating it on first access.
func (m *Manager) GetOrCreate(roomID int64) (*Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rm, ok := m.rooms[roomID]; ok {
		return rm, nil
	}
	if m.maxRooms > 0 && len(m.rooms) >= m.maxRooms {
		return nil, ErrTooManyRooms
	}
	rm := New(roomID)
	m.rooms[roomID] = rm
	m.log.Info().Int64("room", roomID).Str("ruid", rm.Wbs.UID()).Msg("room created")
	return rm, nil
}

// Get returns the room if its session is active.
func (m *Manager) Get(roomID int64) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rm, ok := m.rooms[roomID]
	return rm, ok
}

// Destroy ends a room session, discarding its boards and undo history.
func (m *Manager) Destroy(roomID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, roomID)
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Cleanup removes rooms that are empty and idle past maxIdle.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for id, rm := range m.rooms {
		rm.mu.RLock()
		empty := len(rm.clients) == 0
		idle := now.Sub(rm.lastActive) > m.maxIdle
		rm.mu.RUnlock()

		if empty && idle {
			delete(m.rooms, id)
			m.log.Info().Int64("room", id).Msg("room session expired")
		}
	}
}

// StartCleanup runs Cleanup on the given interval until ctx is done.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Cleanup()
		}
	}
}
