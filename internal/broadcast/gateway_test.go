package broadcast

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"openboard/internal/client"
	"openboard/internal/cluster"
	"openboard/internal/files"
	"openboard/internal/room"
)

type recordConn struct {
	mu       sync.Mutex
	messages [][]byte
	failNext bool
}

func (c *recordConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failNext {
		return assert.AnError
	}
	c.messages = append(c.messages, data)
	return nil
}

func (c *recordConn) Close() error { return nil }

func (c *recordConn) received() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.messages...)
}

type recordBus struct {
	mu        sync.Mutex
	published []cluster.Message
}

func (b *recordBus) Publish(m cluster.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, m)
}

func (b *recordBus) Close() error { return nil }

type fakeResolver struct {
	items   map[int64]*files.Item
	missing bool
}

func (r *fakeResolver) Get(id int64) (*files.Item, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, files.ErrNotFound
	}
	return item, nil
}

func (r *fakeResolver) Exists(*files.Item) bool { return !r.missing }

func newTestGateway(t *testing.T) (*Gateway, *recordBus, *fakeResolver, *room.Room) {
	t.Helper()
	rooms := room.NewManager(10, time.Hour, zerolog.Nop())
	rm, err := rooms.GetOrCreate(1)
	require.NoError(t, err)

	bus := &recordBus{}
	resolver := &fakeResolver{items: make(map[int64]*files.Item)}
	signer := files.NewSigner([]byte("test-secret"), time.Hour)
	return NewGateway(rooms, bus, resolver, signer, zerolog.Nop()), bus, resolver, rm
}

func join(t *testing.T, rm *room.Room) (*client.Client, *recordConn) {
	t.Helper()
	conn := &recordConn{}
	c := client.New("user", rm.ID, nil, conn)
	require.NoError(t, rm.Join(c, 50))
	return c, conn
}

func decode(t *testing.T, data []byte) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestSendAllReachesEveryoneAndPublishes(t *testing.T) {
	gw, bus, _, rm := newTestGateway(t)
	_, conn1 := join(t, rm)
	_, conn2 := join(t, rm)

	gw.SendAll(rm.ID, "clearAll", map[string]any{"wbId": int64(1)})

	require.Len(t, conn1.received(), 1)
	require.Len(t, conn2.received(), 1)

	msg := decode(t, conn1.received()[0])
	assert.Equal(t, "wb", msg["type"])
	assert.Equal(t, "clearAll", msg["func"])
	assert.Equal(t, 1.0, msg["param"].(map[string]any)["wbId"])

	require.Len(t, bus.published, 1)
	assert.Equal(t, "clearAll", bus.published[0].Action)
	assert.Equal(t, rm.ID, bus.published[0].RoomID)
}

func TestSendOthersExcludesSender(t *testing.T) {
	gw, bus, _, rm := newTestGateway(t)
	sender, senderConn := join(t, rm)
	_, otherConn := join(t, rm)

	gw.SendOthers(rm.ID, "setSlide", map[string]any{"wbId": int64(1), "slide": 2}, sender.UID)

	assert.Empty(t, senderConn.received())
	assert.Len(t, otherConn.received(), 1)

	require.Len(t, bus.published, 1)
	assert.Equal(t, sender.UID, bus.published[0].ExcludeUID, "remote nodes apply the same exclusion")
}

func TestSendToSingleRecipientNoPublish(t *testing.T) {
	gw, bus, _, rm := newTestGateway(t)
	c, conn := join(t, rm)
	_, otherConn := join(t, rm)

	gw.SendTo(c, "load", map[string]any{"wbId": int64(1), "obj": []any{}})

	assert.Len(t, conn.received(), 1)
	assert.Empty(t, otherConn.received())
	assert.Empty(t, bus.published, "direct replies never fan out to the cluster")
}

func TestHandleClusterDeliversWithoutRepublish(t *testing.T) {
	gw, bus, _, rm := newTestGateway(t)
	_, conn := join(t, rm)

	gw.HandleCluster(cluster.Message{
		Node:    "other-node",
		RoomID:  rm.ID,
		Action:  "clearAll",
		Payload: map[string]any{"wbId": int64(1)},
	})

	assert.Len(t, conn.received(), 1)
	assert.Empty(t, bus.published, "cluster-received events must not echo back")
}

func TestFilePayloadSignedPerRecipient(t *testing.T) {
	gw, _, resolver, rm := newTestGateway(t)
	resolver.items[7] = &files.Item{ID: 7, Type: files.TypeImage, Name: "pic.png"}

	c1, conn1 := join(t, rm)
	c2, conn2 := join(t, rm)

	gw.SendAll(rm.ID, "createObj", map[string]any{
		"wbId": int64(1),
		"obj":  map[string]any{"uid": "a", "fileId": int64(7)},
	})

	require.Len(t, conn1.received(), 1)
	require.Len(t, conn2.received(), 1)

	obj1 := decode(t, conn1.received()[0])["param"].(map[string]any)["obj"].(map[string]any)
	obj2 := decode(t, conn2.received()[0])["param"].(map[string]any)["obj"].(map[string]any)

	src1 := obj1["src"].(string)
	src2 := obj2["src"].(string)
	assert.True(t, strings.HasPrefix(src1, "/files/7?token="))
	assert.NotEqual(t, src1, src2, "each recipient gets a URL bound to its own session")
	assert.Equal(t, false, obj1["deleted"])

	claims1 := verifyURL(t, gw.signer, src1)
	claims2 := verifyURL(t, gw.signer, src2)
	uids := map[string]bool{claims1.ClientUID: true, claims2.ClientUID: true}
	assert.True(t, uids[c1.UID])
	assert.True(t, uids[c2.UID])
}

func verifyURL(t *testing.T, s *files.Signer, signed string) *files.URLClaims {
	t.Helper()
	idx := strings.Index(signed, "token=")
	require.GreaterOrEqual(t, idx, 0)
	claims, err := s.Verify(signed[idx+len("token="):])
	require.NoError(t, err)
	return claims
}

func TestFilePayloadDoesNotMutateOriginal(t *testing.T) {
	gw, _, resolver, rm := newTestGateway(t)
	resolver.items[7] = &files.Item{ID: 7, Type: files.TypeImage}
	join(t, rm)

	obj := map[string]any{"uid": "a", "fileId": int64(7)}
	gw.SendAll(rm.ID, "createObj", map[string]any{"wbId": int64(1), "obj": obj})

	_, hasSrc := obj["src"]
	assert.False(t, hasSrc, "the authoritative payload stays URL-free")
}

func TestVideoFileGetsHiddenSrcAndPoster(t *testing.T) {
	gw, _, resolver, rm := newTestGateway(t)
	resolver.items[7] = &files.Item{ID: 7, Type: files.TypeVideo}
	_, conn := join(t, rm)

	gw.SendAll(rm.ID, "createObj", map[string]any{
		"wbId": int64(1),
		"obj":  map[string]any{"uid": "v", "fileId": int64(7)},
	})

	require.Len(t, conn.received(), 1)
	obj := decode(t, conn.received()[0])["param"].(map[string]any)["obj"].(map[string]any)
	assert.Contains(t, obj["_src"], "/files/7?token=")
	assert.Contains(t, obj["_poster"], "&kind=poster")
	_, hasSrc := obj["src"]
	assert.False(t, hasSrc)
}

func TestMissingFileMarkedDeleted(t *testing.T) {
	gw, _, _, rm := newTestGateway(t)
	_, conn := join(t, rm)

	gw.SendAll(rm.ID, "createObj", map[string]any{
		"wbId": int64(1),
		"obj":  map[string]any{"uid": "a", "fileId": int64(99)},
	})

	require.Len(t, conn.received(), 1)
	obj := decode(t, conn.received()[0])["param"].(map[string]any)["obj"].(map[string]any)
	assert.Equal(t, true, obj["deleted"])
	_, hasSrc := obj["src"]
	assert.False(t, hasSrc, "no URL is signed for a missing file")
}

func TestFailedWriteDropsClient(t *testing.T) {
	gw, _, _, rm := newTestGateway(t)
	_, goodConn := join(t, rm)
	_, badConn := join(t, rm)
	badConn.failNext = true

	gw.SendAll(rm.ID, "clearAll", map[string]any{"wbId": int64(1)})

	assert.Len(t, goodConn.received(), 1)
	assert.Equal(t, 1, rm.ClientCount(), "dead connections are removed from the room")
}
