package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"openboard/internal/board"
	"openboard/internal/client"
	"openboard/internal/files"
	"openboard/internal/middleware"
	"openboard/internal/room"
)

var errBoardFull = errors.New("board at maximum object capacity")

// Processor authorizes and applies client-submitted whiteboard actions:
// capability check, board mutation, undo bookkeeping, persistence for
// exports, then broadcast. All steps for one action run under the room's
// action lock so concurrent actions on the same room serialize.
type Processor struct {
	gw        Gateway
	store     FileStore
	signer    URLSigner
	validator *ObjectValidator
	limits    *middleware.Limits
	log       zerolog.Logger
	now       func() time.Time
}

func NewProcessor(gw Gateway, store FileStore, signer URLSigner, limits *middleware.Limits, log zerolog.Logger) *Processor {
	return &Processor{
		gw:        gw,
		store:     store,
		signer:    signer,
		validator: NewObjectValidator(),
		limits:    limits,
		log:       log.With().Str("component", "processor").Logger(),
		now:       time.Now,
	}
}

// Process runs one action for the client. Denied and NotFound outcomes are
// deliberate no-ops with nothing sent back to the sender; errors cover
// malformed payloads and I/O failures and are surfaced to logs only.
func (p *Processor) Process(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	actionName, _ := payloadString(data, "action")
	a, err := ParseAction(actionName)
	if err != nil {
		return NotFound, err
	}

	var res Result
	rm.Do(func() {
		res, err = p.apply(rm, c, a, data)
	})
	if err == nil && res == Applied {
		rm.Touch()
	}
	return res, err
}

// authorize checks the action's capability tier before any mutation.
func (p *Processor) authorize(rm *room.Room, c *client.Client, a Action) bool {
	switch a {
	case ActionCreateWb, ActionRemoveWb, ActionActivateWb, ActionRenameWb,
		ActionSetSlide, ActionSetSize, ActionClearAll:
		return c.HasRight(client.RightPresenter)
	case ActionCreateObj, ActionModifyObj, ActionDeleteObj, ActionClearSlide,
		ActionSave, ActionUndo, ActionVideoStatus:
		return c.HasRight(client.RightPresenter) || c.HasRight(client.RightWhiteboard)
	case ActionDownload:
		return c.HasRight(client.RightModerator) && !rm.Hidden(room.ElementActionMenu)
	case ActionLoadVideos:
		return true
	default:
		return false
	}
}

func (p *Processor) apply(rm *room.Room, c *client.Client, a Action, data map[string]any) (Result, error) {
	if !p.authorize(rm, c, a) {
		p.log.Debug().Str("action", a.String()).Str("uid", c.UID).Msg("action denied")
		return Denied, nil
	}

	switch a {
	case ActionCreateWb:
		return p.createWb(rm, c)
	case ActionRemoveWb:
		return p.removeWb(rm, data)
	case ActionActivateWb:
		return p.activateWb(rm, data)
	case ActionRenameWb:
		return p.renameWb(rm, data)
	case ActionSetSlide:
		return p.setSlide(rm, c, data)
	case ActionSetSize:
		return p.setSize(rm, c, data)
	case ActionClearAll:
		return p.clearAll(rm, data)
	case ActionCreateObj:
		return p.createObj(rm, c, data)
	case ActionModifyObj:
		return p.modifyObj(rm, c, data)
	case ActionDeleteObj:
		return p.deleteObj(rm, data)
	case ActionClearSlide:
		return p.clearSlide(rm, data)
	case ActionSave:
		return p.save(rm, data)
	case ActionUndo:
		return p.undo(rm, data)
	case ActionVideoStatus:
		return p.videoStatus(rm, data)
	case ActionDownload:
		return p.download(rm, c, data)
	case ActionLoadVideos:
		return p.loadVideos(rm, c)
	default:
		return NotFound, fmt.Errorf("unhandled action: %s", a)
	}
}

func (p *Processor) createWb(rm *room.Room, c *client.Client) (Result, error) {
	wb := rm.Wbs.Add(c.LanguageID)
	p.gw.SendAll(rm.ID, ActionCreateWb.String(), wb.AddJSON())
	return Applied, nil
}

func (p *Processor) removeWb(rm *room.Room, data map[string]any) (Result, error) {
	id, ok := payloadInt64(data, "wbId")
	if !ok {
		return NotFound, errors.New("removeWb: missing wbId")
	}
	if !rm.Wbs.Remove(id) {
		return NotFound, nil
	}
	rm.Undo.Drop(id)
	p.gw.SendAll(rm.ID, ActionRemoveWb.String(), map[string]any{"wbId": id})
	return Applied, nil
}

func (p *Processor) activateWb(rm *room.Room, data map[string]any) (Result, error) {
	id, ok := payloadInt64(data, "wbId")
	if !ok {
		return NotFound, errors.New("activateWb: missing wbId")
	}
	// Unknown ids are a silent no-op; callers validate first.
	if !rm.Wbs.Activate(id) {
		return NotFound, nil
	}
	p.gw.SendAll(rm.ID, ActionActivateWb.String(), map[string]any{"wbId": id})
	return Applied, nil
}

func (p *Processor) renameWb(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	name, ok := payloadString(data, "name")
	if !ok {
		return NotFound, errors.New("renameWb: missing name")
	}
	wb.Rename(name)
	p.gw.SendAll(rm.ID, ActionRenameWb.String(), map[string]any{"wbId": wb.ID(), "name": name})
	return Applied, nil
}

func (p *Processor) setSlide(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	slide, _ := payloadInt(data, board.AttrSlide)
	wb.SetSlide(slide)
	p.gw.SendOthers(rm.ID, ActionSetSlide.String(), map[string]any{"wbId": wb.ID(), board.AttrSlide: wb.Slide()}, c.UID)
	return Applied, nil
}

func (p *Processor) setSize(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	width, wok := payloadInt(data, board.AttrWidth)
	height, hok := payloadInt(data, board.AttrHeight)
	zoom, zok := payloadFloat(data, "zoom")
	mode, mok := payloadString(data, "zoomMode")
	if !wok || !hok || !zok || !mok {
		return NotFound, errors.New("setSize: missing dimensions")
	}
	wb.SetSize(width, height)
	wb.SetZoom(zoom, board.ParseZoomMode(mode))
	p.gw.SendOthers(rm.ID, ActionSetSize.String(), wb.AddJSON(), c.UID)
	return Applied, nil
}

func (p *Processor) clearAll(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	removed := wb.Clear()
	if len(removed) > 0 {
		rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoRemove, Objects: removed})
	}
	p.gw.SendAll(rm.ID, ActionClearAll.String(), map[string]any{"wbId": wb.ID()})
	return Applied, nil
}

func (p *Processor) createObj(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	obj, ok := payloadObject(data)
	if !ok {
		return NotFound, errors.New("createObj: missing obj")
	}

	// Ephemeral cursor broadcast: forwarded, never stored, no undo.
	if obj.IsPointer() {
		if !allowPointer(c) {
			return Denied, nil
		}
		p.gw.SendOthers(rm.ID, ActionCreateObj.String(), map[string]any{"wbId": wb.ID(), "obj": map[string]any(obj)}, c.UID)
		return Applied, nil
	}

	if err := p.limits.ValidateObjectComplexity(obj); err != nil {
		return NotFound, fmt.Errorf("createObj: %w", err)
	}
	sanitized, err := p.validator.ValidateAndSanitize(obj)
	if err != nil {
		return NotFound, fmt.Errorf("createObj: %w", err)
	}
	if !p.limits.CanAddObject(wb) {
		return NotFound, errBoardFull
	}

	wb.Put(sanitized.UID(), sanitized)
	rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoAdd, Objects: []board.Object{sanitized.Clone()}})
	p.gw.SendOthers(rm.ID, ActionCreateObj.String(), map[string]any{"wbId": wb.ID(), "obj": map[string]any(sanitized)}, c.UID)
	return Applied, nil
}

func (p *Processor) modifyObj(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}

	// A single pointer object rides the modify action while being dragged.
	if obj, ok := payloadObject(data); ok && obj.IsPointer() {
		if !allowPointer(c) {
			return Denied, nil
		}
		p.gw.SendOthers(rm.ID, ActionModifyObj.String(), map[string]any{"wbId": wb.ID(), "obj": map[string]any(obj)}, c.UID)
		return Applied, nil
	}

	batch, ok := payloadObjects(data)
	if !ok {
		return NotFound, errors.New("modifyObj: missing obj batch")
	}

	// Validate the whole batch before touching the board; a malformed
	// element must not leave a half-applied batch behind.
	sanitized := make([]board.Object, 0, len(batch))
	for _, o := range batch {
		if o.IsPointer() {
			continue
		}
		s, err := p.validator.ValidateAndSanitize(o)
		if err != nil {
			return NotFound, fmt.Errorf("modifyObj: %w", err)
		}
		sanitized = append(sanitized, s)
	}

	var previous []board.Object
	for _, s := range sanitized {
		if prev, exists := wb.Get(s.UID()); exists {
			previous = append(previous, prev.Clone())
			wb.Put(s.UID(), s)
		}
	}
	// Only record history when at least one uid matched; an all-miss batch
	// must not leave an empty undo entry.
	if len(previous) > 0 {
		rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoModify, Objects: previous})
	}
	// Peers get the sanitized batch, the same values the board now holds.
	p.gw.SendOthers(rm.ID, ActionModifyObj.String(), map[string]any{"wbId": wb.ID(), "obj": objectList(sanitized)}, c.UID)
	return Applied, nil
}

func (p *Processor) deleteObj(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	batch, ok := payloadObjects(data)
	if !ok {
		return NotFound, errors.New("deleteObj: missing obj batch")
	}

	var removed []board.Object
	for _, o := range batch {
		if gone, found := wb.Remove(o.UID()); found {
			removed = append(removed, gone)
		}
	}
	if len(removed) > 0 {
		rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoRemove, Objects: removed})
	}
	// Deletes go to everyone, sender included, so the sender's UI reflects
	// the authoritative removal.
	p.gw.SendAll(rm.ID, ActionDeleteObj.String(), map[string]any{"wbId": wb.ID(), "obj": objectList(batch)})
	return Applied, nil
}

func (p *Processor) clearSlide(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	slide, ok := payloadInt(data, board.AttrSlide)
	if !ok {
		return NotFound, errors.New("clearSlide: missing slide")
	}
	removed := wb.ClearSlide(slide)
	if len(removed) > 0 {
		rm.Undo.Push(wb.ID(), board.UndoRecord{Kind: board.UndoRemove, Objects: removed})
	}
	p.gw.SendAll(rm.ID, ActionClearSlide.String(), map[string]any{"wbId": wb.ID(), board.AttrSlide: slide})
	return Applied, nil
}

func (p *Processor) save(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	name, ok := payloadString(data, "name")
	if !ok || name == "" {
		return NotFound, errors.New("save: missing name")
	}
	contents, err := wb.MarshalJSON()
	if err != nil {
		return Applied, fmt.Errorf("save: serialize board: %w", err)
	}
	_, err = p.store.Create(&files.Item{
		Type:   files.TypeWml,
		RoomID: rm.ID,
		Name:   name,
	}, contents)
	if err != nil {
		return Applied, fmt.Errorf("save: %w", err)
	}
	return Applied, nil
}

func (p *Processor) undo(rm *room.Room, data map[string]any) (Result, error) {
	wbID, ok := payloadInt64(data, "wbId")
	if !ok {
		return NotFound, errors.New("undo: missing wbId")
	}
	rec, ok := rm.Undo.Pop(wbID)
	if !ok {
		return NotFound, nil
	}
	wb, found := rm.Wbs.Get(wbID)
	if !found {
		return NotFound, nil
	}

	switch rec.Kind {
	case board.UndoAdd:
		o := rec.Objects[0]
		wb.Remove(o.UID())
		p.gw.SendAll(rm.ID, ActionDeleteObj.String(), map[string]any{"wbId": wbID, "obj": objectList(rec.Objects)})
	case board.UndoRemove:
		for _, o := range rec.Objects {
			wb.Put(o.UID(), o)
		}
		p.gw.SendAll(rm.ID, ActionCreateObj.String(), map[string]any{"wbId": wbID, "obj": objectList(rec.Objects)})
	case board.UndoModify:
		for _, o := range rec.Objects {
			wb.Put(o.UID(), o)
		}
		p.gw.SendAll(rm.ID, ActionModifyObj.String(), map[string]any{"wbId": wbID, "obj": objectList(rec.Objects)})
	}
	return Applied, nil
}

func (p *Processor) videoStatus(rm *room.Room, data map[string]any) (Result, error) {
	wb, res, err := p.board(rm, data)
	if wb == nil {
		return res, err
	}
	uid, ok := payloadString(data, board.AttrUID)
	if !ok {
		return NotFound, errors.New("videoStatus: missing uid")
	}
	po, found := wb.Get(uid)
	if !found || po.OMType() != board.TypeVideo {
		return NotFound, nil
	}
	status, ok := data[board.AttrStatus].(map[string]any)
	if !ok {
		return NotFound, errors.New("videoStatus: missing status")
	}

	merged := board.Object(status).Clone()
	merged["updated"] = p.now().UnixMilli()
	po[board.AttrStatus] = map[string]any(merged)
	wb.Put(uid, po)

	p.gw.SendAll(rm.ID, ActionVideoStatus.String(), map[string]any{
		"wbId":           wb.ID(),
		board.AttrUID:    uid,
		board.AttrStatus: map[string]any(merged),
		board.AttrSlide:  po.Slide(),
	})
	return Applied, nil
}

func (p *Processor) download(rm *room.Room, c *client.Client, data map[string]any) (Result, error) {
	fileID, ok := payloadInt64(data, board.AttrFileID)
	if !ok {
		return NotFound, errors.New("download: missing fileId")
	}
	item, err := p.store.Get(fileID)
	if err != nil {
		return NotFound, nil
	}
	url, err := p.signer.SignURL(item.ID, rm.Wbs.UID(), "", c.UID)
	if err != nil {
		return Applied, fmt.Errorf("download: %w", err)
	}
	p.gw.SendTo(c, ActionDownload.String(), map[string]any{
		"url":  url,
		"name": item.Name,
		"type": string(item.Type),
	})
	return Applied, nil
}

// loadVideos answers the sender with every Video/Recording object carrying
// a playback status, with positions advanced to the current server time.
func (p *Processor) loadVideos(rm *room.Room, c *client.Client) (Result, error) {
	nowMs := p.now().UnixMilli()
	var arr []any
	for _, wb := range rm.Wbs.List() {
		for _, o := range wb.List() {
			ft := o.FileType()
			if ft != string(files.TypeVideo) && ft != string(files.TypeRecording) {
				continue
			}
			status := o.Status()
			if status == nil {
				continue
			}
			sts := status.Clone()
			if pos, ok := payloadFloat(sts, "pos"); ok {
				if updated, ok := payloadInt64(sts, "updated"); ok {
					sts["pos"] = pos + float64(nowMs-updated)/1000.0
				}
			}
			arr = append(arr, map[string]any{
				"wbId":           wb.ID(),
				board.AttrUID:    o.UID(),
				board.AttrSlide:  o.Slide(),
				board.AttrStatus: map[string]any(sts),
			})
		}
	}
	p.gw.SendTo(c, ActionInitVideos.String(), map[string]any{"obj": arr})
	return Applied, nil
}

// allowPointer applies the pointer-specific rate limit; cursor streams are
// much chattier than drawing and get their own budget.
func allowPointer(c *client.Client) bool {
	if c.Session == nil || c.Session.PointerLimiter == nil {
		return true
	}
	return c.Session.PointerLimiter.Allow()
}

// board resolves the target whiteboard from the payload's wbId. A nil
// whiteboard means the caller should return (res, err) as-is.
func (p *Processor) board(rm *room.Room, data map[string]any) (*board.Whiteboard, Result, error) {
	id, ok := payloadInt64(data, "wbId")
	if !ok {
		return nil, NotFound, errors.New("missing wbId")
	}
	wb, found := rm.Wbs.Get(id)
	if !found {
		return nil, NotFound, nil
	}
	return wb, Applied, nil
}
