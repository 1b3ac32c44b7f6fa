package files

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignURLRoundTrip(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Hour)

	signed, err := s.SignURL(42, "ruid-1", "obj-1", "client-1")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(signed, "/files/42?token="))

	u, err := url.Parse(signed)
	require.NoError(t, err)
	claims, err := s.Verify(u.Query().Get("token"))
	require.NoError(t, err)

	assert.Equal(t, int64(42), claims.FileID)
	assert.Equal(t, "ruid-1", claims.RoomUID)
	assert.Equal(t, "obj-1", claims.ObjectUID)
	assert.Equal(t, "client-1", claims.ClientUID)
}

func TestVerifyExpiredToken(t *testing.T) {
	s := NewSigner([]byte("secret"), -time.Minute)

	signed, err := s.SignURL(1, "r", "o", "c")
	require.NoError(t, err)

	u, _ := url.Parse(signed)
	_, err = s.Verify(u.Query().Get("token"))
	assert.Error(t, err)
}

func TestVerifyWrongSecret(t *testing.T) {
	s1 := NewSigner([]byte("secret-a"), time.Hour)
	s2 := NewSigner([]byte("secret-b"), time.Hour)

	signed, err := s1.SignURL(1, "r", "o", "c")
	require.NoError(t, err)

	u, _ := url.Parse(signed)
	_, err = s2.Verify(u.Query().Get("token"))
	assert.Error(t, err)
}

func TestVerifyGarbage(t *testing.T) {
	s := NewSigner([]byte("secret"), time.Hour)
	_, err := s.Verify("not-a-token")
	assert.Error(t, err)
}
