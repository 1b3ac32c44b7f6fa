package client

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Session persists across disconnects so a returning user keeps their
// identity, color and last room.
type Session struct {
	UserID         string
	Token          string
	LastRoom       int64
	LastSeen       time.Time
	LastPointer    time.Time
	Color          string
	RateLimiter    *rate.Limiter
	PointerLimiter *rate.Limiter
}

// SessionManager manages user sessions and their tokens.
type SessionManager struct {
	sessions      map[string]*Session // userID -> session
	tokenToUserID map[string]string
	colors        *ColorGenerator
	ttl           time.Duration
	msgRate       rate.Limit
	msgBurst      int
	mu            sync.RWMutex
}

func NewSessionManager(ttl time.Duration, messagesPerSecond float64, burst int) *SessionManager {
	return &SessionManager{
		sessions:      make(map[string]*Session),
		tokenToUserID: make(map[string]string),
		colors:        NewColorGenerator(),
		ttl:           ttl,
		msgRate:       rate.Limit(messagesPerSecond),
		msgBurst:      burst,
	}
}

// GetOrCreate gets an existing session or creates a new one with a fresh
// token, color and rate limiters.
func (sm *SessionManager) GetOrCreate(userID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, exists := sm.sessions[userID]; exists {
		session.LastSeen = time.Now()
		return session
	}

	session := &Session{
		UserID:         userID,
		Token:          generateToken(),
		LastSeen:       time.Now(),
		Color:          sm.colors.NextColor(),
		RateLimiter:    rate.NewLimiter(sm.msgRate, sm.msgBurst),
		PointerLimiter: rate.NewLimiter(sm.msgRate*2, sm.msgBurst*2), // pointers are chattier
	}
	sm.sessions[userID] = session
	sm.tokenToUserID[session.Token] = userID
	return session
}

// ValidateToken validates a session token and returns the associated userID.
func (sm *SessionManager) ValidateToken(token string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	userID, exists := sm.tokenToUserID[token]
	if !exists {
		return "", false
	}
	session, ok := sm.sessions[userID]
	if !ok {
		return "", false
	}
	session.LastSeen = time.Now()
	return userID, true
}

// Get returns the session for userID.
func (sm *SessionManager) Get(userID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, ok := sm.sessions[userID]
	return s, ok
}

// Touch updates the last seen time for a user session.
func (sm *SessionManager) Touch(userID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, exists := sm.sessions[userID]; exists {
		session.LastSeen = time.Now()
	}
}

// Cleanup removes sessions idle past the configured ttl.
func (sm *SessionManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for userID, session := range sm.sessions {
		if now.Sub(session.LastSeen) > sm.ttl {
			delete(sm.tokenToUserID, session.Token)
			delete(sm.sessions, userID)
		}
	}
}

// generateToken returns a random opaque session token.
func generateToken() string {
	bytes := make([]byte, 24)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
