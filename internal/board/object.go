package board

// Well-known object attribute keys. Objects are free-form: the client owns
// the full attribute set, the server only interprets the keys below.
const (
	AttrUID      = "uid"
	AttrType     = "type"
	AttrOMType   = "omType"
	AttrSlide    = "slide"
	AttrWidth    = "width"
	AttrHeight   = "height"
	AttrLeft     = "left"
	AttrTop      = "top"
	AttrFileID   = "fileId"
	AttrFileType = "fileType"
	AttrStatus   = "status"
	AttrSrc      = "src"
	AttrHidSrc   = "_src"
	AttrPoster   = "_poster"
	AttrDeleted  = "deleted"
)

// OMType values the server cares about.
const (
	TypePointer = "pointer"
	TypeVideo   = "Video"
)

// Object is one whiteboard object: a client-generated uid plus an arbitrary
// attribute set (JSON-shaped, so numbers are float64).
type Object map[string]any

// UID returns the object's client-generated id, or "".
func (o Object) UID() string {
	s, _ := o[AttrUID].(string)
	return s
}

// OMType returns the object type discriminator ("pointer", "Video", ...).
func (o Object) OMType() string {
	s, _ := o[AttrOMType].(string)
	return s
}

// Slide returns the slide index the object lives on, 0 when unset.
func (o Object) Slide() int {
	return asInt(o[AttrSlide])
}

// FileID returns the attached file id, false when the object carries no file.
func (o Object) FileID() (int64, bool) {
	switch v := o[AttrFileID].(type) {
	case float64:
		if v > 0 {
			return int64(v), true
		}
	case int64:
		if v > 0 {
			return v, true
		}
	case int:
		if v > 0 {
			return int64(v), true
		}
	}
	return 0, false
}

// FileType returns the attached file's type name, or "".
func (o Object) FileType() string {
	s, _ := o[AttrFileType].(string)
	return s
}

// Status returns the playback status block of a video object, or nil.
func (o Object) Status() Object {
	m, _ := o[AttrStatus].(map[string]any)
	return Object(m)
}

// IsPointer reports whether the object is an ephemeral cursor pointer.
// Pointers are broadcast but never stored.
func (o Object) IsPointer() bool {
	return o.OMType() == TypePointer
}

// Clone returns a deep copy; nested maps and slices are copied too.
func (o Object) Clone() Object {
	if o == nil {
		return nil
	}
	return Object(cloneMap(o))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case Object:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case int64:
		return int(t)
	}
	return 0
}
