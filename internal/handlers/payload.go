package handlers

import (
	"openboard/internal/board"
)

// Inbound payloads are JSON-shaped maps; numbers arrive as float64.

func payloadInt64(data map[string]any, key string) (int64, bool) {
	switch v := data[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	}
	return 0, false
}

func payloadInt(data map[string]any, key string) (int, bool) {
	v, ok := payloadInt64(data, key)
	return int(v), ok
}

func payloadFloat(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func payloadString(data map[string]any, key string) (string, bool) {
	s, ok := data[key].(string)
	return s, ok
}

// payloadObject returns data["obj"] as a single object.
func payloadObject(data map[string]any) (board.Object, bool) {
	switch v := data["obj"].(type) {
	case map[string]any:
		return board.Object(v), true
	case board.Object:
		return v, true
	}
	return nil, false
}

// payloadObjects returns data["obj"] as a batch. A single object is not a
// batch; the two forms are distinct in the protocol.
func payloadObjects(data map[string]any) ([]board.Object, bool) {
	switch v := data["obj"].(type) {
	case []any:
		out := make([]board.Object, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				out = append(out, board.Object(m))
			}
		}
		return out, true
	case []board.Object:
		return v, true
	}
	return nil, false
}

func objectList(objs []board.Object) []any {
	out := make([]any, len(objs))
	for i, o := range objs {
		out[i] = map[string]any(o)
	}
	return out
}
