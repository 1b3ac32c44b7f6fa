package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"openboard/internal/board"
	"openboard/internal/files"
	"openboard/internal/room"
)

// SendFileToWb places a stored file onto a board. Images and media become
// file-attachment objects (URLs are signed per recipient at broadcast
// time); saved whiteboard artifacts are merged back into the board. When
// clean is set the board is cleared first, with the removed set recorded
// for undo like any other clear.
func (p *Processor) SendFileToWb(rm *room.Room, fi *files.Item, wbID int64, clean bool) error {
	var err error
	rm.Do(func() {
		err = p.sendFileToWb(rm, fi, wbID, clean)
	})
	return err
}

func (p *Processor) sendFileToWb(rm *room.Room, fi *files.Item, wbID int64, clean bool) error {
	if wbID == 0 {
		active, ok := rm.Wbs.Active()
		if !ok {
			return fmt.Errorf("room %d has no active board", rm.ID)
		}
		wbID = active
	}
	wb, found := rm.Wbs.Get(wbID)
	if !found {
		return fmt.Errorf("board %d not found in room %d", wbID, rm.ID)
	}

	switch fi.Type {
	case files.TypeFolder:
		return nil
	case files.TypeWml:
		return p.loadWmlFile(rm, wb, fi)
	default:
		return p.attachFile(rm, wb, fi, clean)
	}
}

// loadWmlFile merges a saved board artifact into the target board.
func (p *Processor) loadWmlFile(rm *room.Room, wb *board.Whiteboard, fi *files.Item) error {
	contents, err := p.store.ReadFile(fi)
	if err != nil {
		return fmt.Errorf("load board artifact: %w", err)
	}
	var saved board.Whiteboard
	if err := json.Unmarshal(contents, &saved); err != nil {
		return fmt.Errorf("load board artifact: %w", err)
	}

	loaded := saved.List()
	for _, o := range loaded {
		wb.Put(o.UID(), o)
	}
	if saved.Width() > wb.Width() || saved.Height() > wb.Height() {
		wb.SetSize(max(wb.Width(), saved.Width()), max(wb.Height(), saved.Height()))
	}
	p.gw.SendAll(rm.ID, ActionSetSize.String(), wb.AddJSON())
	p.gw.SendAll(rm.ID, ActionLoad.String(), map[string]any{"wbId": wb.ID(), "obj": objectList(loaded)})
	return nil
}

// attachFile drops a file object onto the board at the current slide.
func (p *Processor) attachFile(rm *room.Room, wb *board.Whiteboard, fi *files.Item, clean bool) error {
	width := fi.Width
	if width == 0 {
		width = board.DefaultWidth
	}
	height := fi.Height
	if height == 0 {
		height = board.DefaultHeight
	}

	obj := board.Object{
		board.AttrUID:      uuid.NewString(),
		board.AttrFileID:   fi.ID,
		board.AttrFileType: string(fi.Type),
		board.AttrType:     "image",
		board.AttrLeft:     0,
		board.AttrTop:      0,
		board.AttrWidth:    width,
		board.AttrHeight:   height,
		board.AttrSlide:    wb.Slide(),
		"count":            fi.Count,
	}
	if fi.Type == files.TypeVideo || fi.Type == files.TypeRecording {
		obj[board.AttrOMType] = board.TypeVideo
		obj[board.AttrStatus] = map[string]any{
			"paused":  true,
			"pos":     0.0,
			"updated": p.now().UnixMilli(),
		}
	}

	if clean {
		if removed := wb.Clear(); len(removed) > 0 {
			rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoRemove, Objects: removed})
		}
	}
	wb.Put(obj.UID(), obj)
	growBoard(wb, width, height)

	p.gw.SendAll(rm.ID, ActionSetSize.String(), wb.AddJSON())
	p.gw.SendAll(rm.ID, ActionCreateObj.String(), map[string]any{"wbId": wb.ID(), "obj": map[string]any(obj)})
	return nil
}

// growBoard widens the board to fit the file, never shrinking it.
func growBoard(wb *board.Whiteboard, w, h int) {
	scale := float64(wb.Width()) / float64(w)
	if scale < 1 {
		scale = 1
	}
	wb.SetSize(max(wb.Width(), int(float64(w)*scale)), max(wb.Height(), int(float64(h)*scale)))
}
