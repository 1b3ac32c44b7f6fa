package board

import (
	"encoding/json"
	"fmt"
)

const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// ZoomMode controls how the client fits the board into its viewport.
type ZoomMode string

const (
	ZoomFullFit   ZoomMode = "fullFit"
	ZoomPageWidth ZoomMode = "pageWidth"
	ZoomCustom    ZoomMode = "zoom"
)

// ParseZoomMode returns the mode for s, falling back to fullFit.
func ParseZoomMode(s string) ZoomMode {
	switch ZoomMode(s) {
	case ZoomPageWidth:
		return ZoomPageWidth
	case ZoomCustom:
		return ZoomCustom
	default:
		return ZoomFullFit
	}
}

// Whiteboard is one board surface within a room: metadata plus the
// uid -> object mapping in insertion order. It is not self-locking; the
// owning room serializes access.
type Whiteboard struct {
	id       int64
	name     string
	width    int
	height   int
	zoom     float64
	zoomMode ZoomMode
	slide    int

	order []string
	items map[string]Object
}

func NewWhiteboard(id int64, name string) *Whiteboard {
	return &Whiteboard{
		id:       id,
		name:     name,
		width:    DefaultWidth,
		height:   DefaultHeight,
		zoom:     1.0,
		zoomMode: ZoomFullFit,
		items:    make(map[string]Object),
	}
}

func (w *Whiteboard) ID() int64          { return w.id }
func (w *Whiteboard) Name() string       { return w.name }
func (w *Whiteboard) Width() int         { return w.width }
func (w *Whiteboard) Height() int        { return w.height }
func (w *Whiteboard) Zoom() float64      { return w.zoom }
func (w *Whiteboard) ZoomMode() ZoomMode { return w.zoomMode }
func (w *Whiteboard) Slide() int         { return w.slide }
func (w *Whiteboard) Len() int           { return len(w.items) }

func (w *Whiteboard) Rename(name string) { w.name = name }

func (w *Whiteboard) SetSlide(slide int) {
	if slide < 0 {
		slide = 0
	}
	w.slide = slide
}

func (w *Whiteboard) SetSize(width, height int) {
	w.width = width
	w.height = height
}

func (w *Whiteboard) SetZoom(zoom float64, mode ZoomMode) {
	w.zoom = zoom
	w.zoomMode = mode
}

// Put inserts or replaces the object under uid. A replace keeps the
// object's stacking position; a new uid is appended on top.
func (w *Whiteboard) Put(uid string, o Object) {
	if uid == "" {
		return
	}
	if _, ok := w.items[uid]; !ok {
		w.order = append(w.order, uid)
	}
	w.items[uid] = o
}

// Get returns the object under uid.
func (w *Whiteboard) Get(uid string) (Object, bool) {
	o, ok := w.items[uid]
	return o, ok
}

// Remove deletes and returns the object under uid.
func (w *Whiteboard) Remove(uid string) (Object, bool) {
	o, ok := w.items[uid]
	if !ok {
		return nil, false
	}
	delete(w.items, uid)
	for i, u := range w.order {
		if u == uid {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	return o, true
}

// List returns all objects in insertion (stacking) order.
func (w *Whiteboard) List() []Object {
	out := make([]Object, 0, len(w.items))
	for _, uid := range w.order {
		out = append(out, w.items[uid])
	}
	return out
}

// Clear removes every object and returns the removed set in order.
func (w *Whiteboard) Clear() []Object {
	out := w.List()
	w.order = nil
	w.items = make(map[string]Object)
	return out
}

// ClearSlide removes all objects on the given slide and returns them.
func (w *Whiteboard) ClearSlide(slide int) []Object {
	var removed []Object
	var keep []string
	for _, uid := range w.order {
		o := w.items[uid]
		if o.Slide() == slide {
			removed = append(removed, o)
			delete(w.items, uid)
		} else {
			keep = append(keep, uid)
		}
	}
	w.order = keep
	return removed
}

// AddJSON is the payload describing the board itself (no objects); used by
// createWb and setSize broadcasts.
func (w *Whiteboard) AddJSON() map[string]any {
	return map[string]any{
		"wbId":     w.id,
		"name":     w.name,
		AttrWidth:  w.width,
		AttrHeight: w.height,
		"zoom":     w.zoom,
		"zoomMode": string(w.zoomMode),
	}
}

type wbJSON struct {
	ID       int64             `json:"wbId"`
	Name     string            `json:"name"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Zoom     float64           `json:"zoom"`
	ZoomMode string            `json:"zoomMode"`
	Slide    int               `json:"slide"`
	Items    map[string]Object `json:"items"`
}

// MarshalJSON serializes the full board, objects included. Used by the
// save export.
func (w *Whiteboard) MarshalJSON() ([]byte, error) {
	return json.Marshal(wbJSON{
		ID:       w.id,
		Name:     w.name,
		Width:    w.width,
		Height:   w.height,
		Zoom:     w.zoom,
		ZoomMode: string(w.zoomMode),
		Slide:    w.slide,
		Items:    w.items,
	})
}

// UnmarshalJSON restores a board saved with MarshalJSON. Object stacking
// order is not part of the artifact.
func (w *Whiteboard) UnmarshalJSON(data []byte) error {
	var in wbJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("unmarshal whiteboard: %w", err)
	}
	w.id = in.ID
	w.name = in.Name
	w.width = in.Width
	w.height = in.Height
	w.zoom = in.Zoom
	w.zoomMode = ParseZoomMode(in.ZoomMode)
	w.slide = in.Slide
	w.items = make(map[string]Object, len(in.Items))
	w.order = nil
	for uid, o := range in.Items {
		w.Put(uid, o)
	}
	return nil
}
