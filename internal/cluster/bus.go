package cluster

// Message is one whiteboard event forwarded between server nodes hosting
// the same room. ExcludeUID carries the original sender so remote nodes
// apply the same all-but-sender filter.
type Message struct {
	Node       string         `json:"node"`
	RoomID     int64          `json:"roomId"`
	Action     string         `json:"action"`
	Payload    map[string]any `json:"payload"`
	ExcludeUID string         `json:"excludeUid,omitempty"`
}

// Handler receives messages published by other nodes.
type Handler func(Message)

// Bus fans whiteboard events out to other nodes. Publish is at-most-once:
// fire-and-forget, no acknowledgment, no retry. Callers must not rely on
// remote delivery.
type Bus interface {
	Publish(m Message)
	Close() error
}

// NoopBus is the single-node bus.
type NoopBus struct{}

func (NoopBus) Publish(Message) {}
func (NoopBus) Close() error    { return nil }
