package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"openboard/internal/client"
	"openboard/internal/cluster"
	"openboard/internal/files"
	"openboard/internal/room"
)

// FileResolver is the slice of the file store the gateway needs to resolve
// file-attachment payloads at broadcast time.
type FileResolver interface {
	Get(id int64) (*files.Item, error)
	Exists(item *files.Item) bool
}

// Gateway fans whiteboard events out to room participants and publishes
// them to the cluster bus. Each message takes the publish path exactly
// once: locally originated sends publish, cluster-received sends do not,
// so events never loop between nodes.
type Gateway struct {
	rooms  *room.Manager
	bus    cluster.Bus
	store  FileResolver
	signer *files.Signer
	log    zerolog.Logger
}

func NewGateway(rooms *room.Manager, bus cluster.Bus, store FileResolver, signer *files.Signer, log zerolog.Logger) *Gateway {
	return &Gateway{
		rooms:  rooms,
		bus:    bus,
		store:  store,
		signer: signer,
		log:    log.With().Str("component", "gateway").Logger(),
	}
}

// SendAll delivers to every participant in the room's whiteboard channel
// and publishes to the cluster.
func (g *Gateway) SendAll(roomID int64, action string, payload map[string]any) {
	g.send(roomID, action, payload, "", true)
}

// SendOthers is SendAll excluding one participant.
func (g *Gateway) SendOthers(roomID int64, action string, payload map[string]any, excludeUID string) {
	g.send(roomID, action, payload, excludeUID, true)
}

// SendTo delivers to a single participant only; nothing is published.
func (g *Gateway) SendTo(c *client.Client, action string, payload map[string]any) {
	rm, ok := g.rooms.Get(c.RoomID)
	if !ok {
		return
	}
	ruid := rm.Wbs.UID()
	msg, err := g.encodeFor(c, ruid, action, payload)
	if err != nil {
		g.log.Error().Err(err).Str("action", action).Msg("encode failed")
		return
	}
	if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
		rm.RemoveClient(c.UID)
		c.Close()
	}
}

// HandleCluster applies an event received from another node: local
// delivery only, no re-publish.
func (g *Gateway) HandleCluster(m cluster.Message) {
	g.send(m.RoomID, m.Action, m.Payload, m.ExcludeUID, false)
}

func (g *Gateway) send(roomID int64, action string, payload map[string]any, excludeUID string, publish bool) {
	if publish {
		// Fire-and-forget: remote delivery is best effort.
		g.bus.Publish(cluster.Message{
			RoomID:     roomID,
			Action:     action,
			Payload:    payload,
			ExcludeUID: excludeUID,
		})
	}

	rm, ok := g.rooms.Get(roomID)
	if !ok {
		return
	}
	ruid := rm.Wbs.UID()

	recipients := make([]*client.Client, 0)
	for _, c := range rm.Clients() {
		if excludeUID != "" && c.UID == excludeUID {
			continue
		}
		recipients = append(recipients, c)
	}
	if len(recipients) == 0 {
		return
	}

	// Payloads without file attachments are marshaled once; file payloads
	// are re-signed per recipient.
	var shared []byte
	perRecipient := hasFileRefs(payload)
	if !perRecipient {
		var err error
		shared, err = json.Marshal(envelope(action, payload))
		if err != nil {
			g.log.Error().Err(err).Str("action", action).Msg("marshal failed")
			return
		}
	}

	var wg sync.WaitGroup
	var failedMu sync.Mutex
	var failed []*client.Client

	for _, c := range recipients {
		wg.Add(1)
		go func(c *client.Client) {
			defer wg.Done()

			msg := shared
			if perRecipient {
				var err error
				msg, err = g.encodeFor(c, ruid, action, payload)
				if err != nil {
					g.log.Error().Err(err).Str("action", action).Msg("encode failed")
					return
				}
			}
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				g.log.Warn().Str("uid", c.UID).Err(err).Msg("broadcast write failed")
				failedMu.Lock()
				failed = append(failed, c)
				failedMu.Unlock()
			}
		}(c)
	}
	wg.Wait()

	// Drop dead connections.
	for _, c := range failed {
		rm.RemoveClient(c.UID)
		c.Close()
	}
}

// encodeFor deep-copies the payload, re-signs file URLs for the recipient
// and marshals the outbound envelope.
func (g *Gateway) encodeFor(c *client.Client, ruid, action string, payload map[string]any) ([]byte, error) {
	out := payload
	if hasFileRefs(payload) {
		copied, err := clonePayload(payload)
		if err != nil {
			return nil, err
		}
		g.rewriteFileURLs(copied, ruid, c)
		out = copied
	}
	return json.Marshal(envelope(action, out))
}

func envelope(action string, payload map[string]any) map[string]any {
	return map[string]any{
		"type":  "wb",
		"func":  action,
		"param": payload,
	}
}
