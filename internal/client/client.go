package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the write side of a participant connection. *websocket.Conn
// satisfies it; tests use fakes.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one connected room participant.
type Client struct {
	UID        string // connection uid, unique per join
	UserID     string
	RoomID     int64
	LanguageID int64
	Session    *Session

	conn    Conn
	writeMu sync.Mutex

	rightsMu sync.RWMutex
	rights   map[Right]struct{}
}

// NewUserID mints an identity for a first-time participant.
func NewUserID() string {
	return uuid.NewString()
}

func New(userID string, roomID int64, session *Session, conn Conn) *Client {
	return &Client{
		UID:        uuid.NewString(),
		UserID:     userID,
		RoomID:     roomID,
		LanguageID: 1,
		Session:    session,
		conn:       conn,
		rights:     make(map[Right]struct{}),
	}
}

// HasRight reports whether the participant holds the capability.
func (c *Client) HasRight(r Right) bool {
	c.rightsMu.RLock()
	defer c.rightsMu.RUnlock()
	_, ok := c.rights[r]
	return ok
}

func (c *Client) Grant(rights ...Right) {
	c.rightsMu.Lock()
	defer c.rightsMu.Unlock()
	for _, r := range rights {
		c.rights[r] = struct{}{}
	}
}

func (c *Client) Revoke(r Right) {
	c.rightsMu.Lock()
	defer c.rightsMu.Unlock()
	delete(c.rights, r)
}

// WriteMessage writes to the connection; writes are serialized because
// broadcasts run concurrently.
func (c *Client) WriteMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// Ping writes a ping control message. The write deadline is set under the
// same lock that serializes data writes; gorilla connections allow only one
// writer at a time and count deadline changes as writes.
func (c *Client) Ping(timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if d, ok := c.conn.(interface{ SetWriteDeadline(time.Time) error }); ok {
		d.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// SendJSON marshals v and writes it as a text message.
func (c *Client) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
