package broadcast

import (
	"encoding/json"
	"fmt"

	"openboard/internal/board"
	"openboard/internal/client"
	"openboard/internal/files"
)

// hasFileRefs reports whether the payload carries file-attachment objects.
// Their URLs are single-session-scoped, so they force per-recipient encoding.
func hasFileRefs(payload map[string]any) bool {
	switch obj := payload["obj"].(type) {
	case map[string]any:
		_, ok := board.Object(obj).FileID()
		return ok
	case board.Object:
		_, ok := obj.FileID()
		return ok
	case []any:
		for _, e := range obj {
			if o, ok := asObject(e); ok {
				if _, has := o.FileID(); has {
					return true
				}
			}
		}
	case []board.Object:
		for _, o := range obj {
			if _, has := o.FileID(); has {
				return true
			}
		}
	}
	return false
}

func asObject(v any) (board.Object, bool) {
	switch t := v.(type) {
	case map[string]any:
		return board.Object(t), true
	case board.Object:
		return t, true
	}
	return nil, false
}

// clonePayload deep-copies via a JSON round trip, normalizing every nested
// value to map[string]any / []any.
func clonePayload(payload map[string]any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("clone payload: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone payload: %w", err)
	}
	return out, nil
}

// rewriteFileURLs resolves every file-attachment object in the (already
// cloned) payload and signs its URLs with the recipient's uid.
func (g *Gateway) rewriteFileURLs(payload map[string]any, ruid string, c *client.Client) {
	switch obj := payload["obj"].(type) {
	case map[string]any:
		g.rewriteObject(board.Object(obj), ruid, c)
	case []any:
		for _, e := range obj {
			if o, ok := asObject(e); ok {
				g.rewriteObject(o, ruid, c)
			}
		}
	}
}

func (g *Gateway) rewriteObject(o board.Object, ruid string, c *client.Client) {
	fileID, ok := o.FileID()
	if !ok {
		return
	}
	// Blobs are node-local. An event arriving over the cluster bus resolves
	// against this node's store, so a file ingested on another node is
	// marked deleted here until it is replicated out of band.
	item, err := g.store.Get(fileID)
	if err != nil {
		o[board.AttrDeleted] = true
		return
	}
	o[board.AttrDeleted] = !g.store.Exists(item)

	url, err := g.signer.SignURL(fileID, ruid, o.UID(), c.UID)
	if err != nil {
		g.log.Error().Err(err).Int64("file", fileID).Msg("url signing failed")
		return
	}
	switch item.Type {
	case files.TypeVideo, files.TypeRecording:
		o[board.AttrHidSrc] = url
		o[board.AttrPoster] = url + "&kind=poster"
	case files.TypePresentation:
		o[board.AttrHidSrc] = url
	default:
		o[board.AttrSrc] = url
	}
}
