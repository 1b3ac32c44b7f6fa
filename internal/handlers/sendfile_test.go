package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openboard/internal/board"
	"openboard/internal/files"
)

func TestSendFileToWbAttachesImage(t *testing.T) {
	p, gw, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)

	item, err := store.Create(&files.Item{Name: "pic.png", Type: files.TypeImage, Width: 320, Height: 240}, []byte("png"))
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, wb.ID(), false))

	list := wb.List()
	require.Len(t, list, 1)
	fileID, ok := list[0].FileID()
	require.True(t, ok)
	assert.Equal(t, item.ID, fileID)
	assert.Equal(t, string(files.TypeImage), list[0].FileType())

	acts := actionsOf(gw.messages())
	assert.Contains(t, acts, "setSize")
	assert.Contains(t, acts, "createObj")
}

func TestSendFileToWbVideoGetsStatus(t *testing.T) {
	p, _, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)

	item, err := store.Create(&files.Item{Name: "clip.mp4", Type: files.TypeVideo, Width: 640, Height: 360}, []byte("mp4"))
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, wb.ID(), false))

	list := wb.List()
	require.Len(t, list, 1)
	assert.Equal(t, board.TypeVideo, list[0].OMType())
	status := list[0].Status()
	require.NotNil(t, status)
	assert.Equal(t, true, status["paused"])
}

func TestSendFileToWbCleanClearsWithUndo(t *testing.T) {
	p, _, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)
	wb.Put("old", board.Object{"uid": "old", "slide": 0})

	item, err := store.Create(&files.Item{Name: "pic.png", Type: files.TypeImage}, []byte("png"))
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, wb.ID(), true))

	_, ok := wb.Get("old")
	assert.False(t, ok)
	assert.Equal(t, 1, wb.Len())
	assert.Equal(t, 1, rm.Undo.Len(wb.ID()), "the clean sweep is undoable")
}

func TestSendFileToWbDefaultsToActiveBoard(t *testing.T) {
	p, _, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)

	item, err := store.Create(&files.Item{Name: "pic.png", Type: files.TypeImage}, []byte("png"))
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, 0, false))
	assert.Equal(t, 1, wb.Len())
}

func TestSendFileToWbFolderIsNoop(t *testing.T) {
	p, gw, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)

	item, err := store.Create(&files.Item{Name: "dir", Type: files.TypeFolder}, nil)
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, wb.ID(), false))
	assert.Zero(t, wb.Len())
	assert.Empty(t, gw.messages())
}

func TestSendFileToWbMergesSavedBoard(t *testing.T) {
	p, gw, store, rm := newTestProcessor(t)
	wb := rm.Wbs.Add(1)
	wb.Put("existing", board.Object{"uid": "existing", "slide": 0})

	saved := board.NewWhiteboard(9, "Saved")
	saved.SetSize(1024, 768)
	saved.Put("s1", board.Object{"uid": "s1", "slide": 0})
	contents, err := saved.MarshalJSON()
	require.NoError(t, err)
	item, err := store.Create(&files.Item{Name: "saved", Type: files.TypeWml}, contents)
	require.NoError(t, err)

	require.NoError(t, p.SendFileToWb(rm, item, wb.ID(), false))

	_, ok := wb.Get("existing")
	assert.True(t, ok, "merge keeps what was already on the board")
	_, ok = wb.Get("s1")
	assert.True(t, ok)
	assert.GreaterOrEqual(t, wb.Width(), 1024, "board grows to fit the artifact")

	acts := actionsOf(gw.messages())
	assert.Contains(t, acts, "setSize")
	assert.Contains(t, acts, "load")
}
