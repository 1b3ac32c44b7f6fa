package room

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openboard/internal/client"
)

type nopConn struct{}

func (nopConn) WriteMessage(int, []byte) error { return nil }
func (nopConn) Close() error                   { return nil }

func TestRoomJoinLeave(t *testing.T) {
	rm := New(1)
	c := client.New("user", 1, nil, nopConn{})

	require.NoError(t, rm.Join(c, 10))
	assert.Equal(t, 1, rm.ClientCount())

	rm.Leave(c)
	assert.Zero(t, rm.ClientCount())
}

func TestRoomJoinFull(t *testing.T) {
	rm := New(1)
	require.NoError(t, rm.Join(client.New("a", 1, nil, nopConn{}), 1))

	err := rm.Join(client.New("b", 1, nil, nopConn{}), 1)
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestRoomHiddenElements(t *testing.T) {
	rm := New(1)
	assert.False(t, rm.Hidden(ElementActionMenu))

	rm.SetHidden(ElementActionMenu, true)
	assert.True(t, rm.Hidden(ElementActionMenu))
	assert.False(t, rm.Hidden(ElementWhiteboard))

	rm.SetHidden(ElementActionMenu, false)
	assert.False(t, rm.Hidden(ElementActionMenu))
}

func TestRoomDoSerializes(t *testing.T) {
	rm := New(1)
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rm.Do(func() { counter++ })
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, counter)
}
