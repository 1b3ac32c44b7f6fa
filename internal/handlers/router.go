package handlers

import (
	"encoding/json"
	"fmt"

	"openboard/internal/client"
	"openboard/internal/room"
)

// Router decodes raw messages and hands whiteboard actions to the
// processor.
type Router struct {
	processor *Processor
}

func NewRouter(processor *Processor) *Router {
	return &Router{processor: processor}
}

// Route processes one message from the client's read loop.
func (r *Router) Route(rm *room.Room, c *client.Client, msg []byte) (Result, error) {
	var data map[string]any
	if err := json.Unmarshal(msg, &data); err != nil {
		return NotFound, fmt.Errorf("unmarshal base message: %w", err)
	}
	if _, ok := data["action"].(string); !ok {
		return NotFound, fmt.Errorf("missing action")
	}
	return r.processor.Process(rm, c, data)
}
