package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhiteboardsFirstBoardBecomesActive(t *testing.T) {
	s := NewWhiteboards(1)

	wb1 := s.Add(1)
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, wb1.ID(), active)

	s.Add(1)
	active, _ = s.Active()
	assert.Equal(t, wb1.ID(), active, "second board must not steal the active pointer")
}

func TestWhiteboardsRemoveActiveFallsBackToLowestID(t *testing.T) {
	s := NewWhiteboards(1)
	wb1 := s.Add(1)
	wb2 := s.Add(1)
	wb3 := s.Add(1)

	require.True(t, s.Activate(wb2.ID()))
	require.True(t, s.Remove(wb2.ID()))

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, wb1.ID(), active)

	require.True(t, s.Remove(wb1.ID()))
	active, _ = s.Active()
	assert.Equal(t, wb3.ID(), active)

	require.True(t, s.Remove(wb3.ID()))
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestWhiteboardsRemoveNonActiveKeepsActive(t *testing.T) {
	s := NewWhiteboards(1)
	wb1 := s.Add(1)
	wb2 := s.Add(1)

	require.True(t, s.Remove(wb2.ID()))
	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, wb1.ID(), active)
}

func TestWhiteboardsActivateUnknownIsNoop(t *testing.T) {
	s := NewWhiteboards(1)
	wb1 := s.Add(1)

	assert.False(t, s.Activate(99))
	active, _ := s.Active()
	assert.Equal(t, wb1.ID(), active)
}

func TestWhiteboardsIDsNeverReused(t *testing.T) {
	s := NewWhiteboards(1)
	wb1 := s.Add(1)
	require.True(t, s.Remove(wb1.ID()))

	wb2 := s.Add(1)
	assert.Greater(t, wb2.ID(), wb1.ID())
}

func TestWhiteboardsListOrder(t *testing.T) {
	s := NewWhiteboards(1)
	s.Add(1)
	s.Add(1)
	s.Add(1)

	list := s.List()
	require.Len(t, list, 3)
	assert.Equal(t, int64(1), list[0].ID())
	assert.Equal(t, int64(2), list[1].ID())
	assert.Equal(t, int64(3), list[2].ID())
}

func TestDefaultName(t *testing.T) {
	assert.Equal(t, "Whiteboard 1", DefaultName(1, 1))
	assert.Equal(t, "Pizarra 2", DefaultName(6, 2))
	assert.Equal(t, "Whiteboard 3", DefaultName(999, 3), "unknown language falls back to English")
}
