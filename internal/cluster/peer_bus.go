package cluster

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	// Peer connections are server-to-server; origin checks do not apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PeerBus connects this node to its configured peers over WebSocket.
// Outbound connections are dialed lazily and dropped on the first write
// error; the inbound endpoint accepts peer connections and feeds received
// messages to the handler. Messages carry the publishing node id so a
// node never re-applies its own events.
type PeerBus struct {
	node    string
	peers   []string
	handler Handler
	log     zerolog.Logger

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewPeerBus(node string, peers []string, handler Handler, log zerolog.Logger) *PeerBus {
	return &PeerBus{
		node:    node,
		peers:   peers,
		handler: handler,
		log:     log.With().Str("component", "cluster").Logger(),
		conns:   make(map[string]*websocket.Conn),
	}
}

// Publish sends the message to every peer, best effort. Unreachable peers
// are skipped; failed connections are dropped and re-dialed next time.
func (b *PeerBus) Publish(m Message) {
	m.Node = b.node
	for _, peer := range b.peers {
		conn, err := b.conn(peer)
		if err != nil {
			b.log.Debug().Str("peer", peer).Err(err).Msg("peer unreachable")
			continue
		}
		if err := conn.WriteJSON(m); err != nil {
			b.log.Warn().Str("peer", peer).Err(err).Msg("peer publish failed")
			b.drop(peer)
		}
	}
}

func (b *PeerBus) conn(peer string) (*websocket.Conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if conn, ok := b.conns[peer]; ok {
		return conn, nil
	}
	conn, _, err := websocket.DefaultDialer.Dial(peer, nil)
	if err != nil {
		return nil, err
	}
	b.conns[peer] = conn
	return conn, nil
}

func (b *PeerBus) drop(peer string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if conn, ok := b.conns[peer]; ok {
		conn.Close()
		delete(b.conns, peer)
	}
}

// Close closes all outbound peer connections.
func (b *PeerBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for peer, conn := range b.conns {
		conn.Close()
		delete(b.conns, peer)
	}
	return nil
}

// ServeHTTP accepts inbound peer connections on /cluster.
func (b *PeerBus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.log.Error().Err(err).Msg("peer upgrade failed")
		return
	}
	defer conn.Close()

	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			return
		}
		b.Receive(m)
	}
}

// Receive applies one inbound message, ignoring this node's own echoes.
func (b *PeerBus) Receive(m Message) {
	if m.Node == b.node {
		return
	}
	if b.handler != nil {
		b.handler(m)
	}
}
