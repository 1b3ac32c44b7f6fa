package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionGetOrCreate(t *testing.T) {
	sm := NewSessionManager(time.Hour, 30, 10)

	s1 := sm.GetOrCreate("user-1")
	assert.NotEmpty(t, s1.Token)
	assert.NotEmpty(t, s1.Color)

	s2 := sm.GetOrCreate("user-1")
	assert.Same(t, s1, s2, "same user keeps the same session")

	s3 := sm.GetOrCreate("user-2")
	assert.NotEqual(t, s1.Token, s3.Token)
}

func TestValidateToken(t *testing.T) {
	sm := NewSessionManager(time.Hour, 30, 10)
	s := sm.GetOrCreate("user-1")

	userID, ok := sm.ValidateToken(s.Token)
	require.True(t, ok)
	assert.Equal(t, "user-1", userID)

	_, ok = sm.ValidateToken("bogus")
	assert.False(t, ok)
}

func TestSessionCleanup(t *testing.T) {
	sm := NewSessionManager(time.Millisecond, 30, 10)
	s := sm.GetOrCreate("user-1")
	s.LastSeen = time.Now().Add(-time.Minute)

	sm.Cleanup()

	_, ok := sm.Get("user-1")
	assert.False(t, ok)
	_, ok = sm.ValidateToken(s.Token)
	assert.False(t, ok, "expired sessions invalidate their tokens")
}

func TestClientRights(t *testing.T) {
	c := New("user-1", 1, nil, nil)
	assert.False(t, c.HasRight(RightPresenter))

	c.Grant(RightPresenter, RightWhiteboard)
	assert.True(t, c.HasRight(RightPresenter))
	assert.True(t, c.HasRight(RightWhiteboard))

	c.Revoke(RightPresenter)
	assert.False(t, c.HasRight(RightPresenter))
	assert.True(t, c.HasRight(RightWhiteboard))
}

func TestColorGeneratorDistinctColors(t *testing.T) {
	g := NewColorGenerator()
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		c := g.NextColor()
		assert.False(t, seen[c], "colors should not repeat early")
		seen[c] = true
	}
}
