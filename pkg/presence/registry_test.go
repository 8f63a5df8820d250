package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubConn struct {
	id     string
	closed bool
}

func (c *stubConn) Send(payload []byte) error { return nil }
func (c *stubConn) IsOpen() bool              { return !c.closed }
func (c *stubConn) Close() error              { c.closed = true; return nil }

func TestJoinAndGet(t *testing.T) {
	r := NewRegistry()
	conn := &stubConn{id: "a"}

	require.Nil(t, r.Join("alice", conn))
	got, ok := r.Get("alice")
	require.True(t, ok)
	require.Same(t, conn, got)
	require.Equal(t, 1, r.Size())
}

func TestJoinReturnsDisplacedConn(t *testing.T) {
	r := NewRegistry()
	first := &stubConn{id: "a"}
	second := &stubConn{id: "b"}

	require.Nil(t, r.Join("alice", first))
	prior := r.Join("alice", second)
	require.Same(t, first, prior)

	got, _ := r.Get("alice")
	require.Same(t, second, got)
	require.Equal(t, 1, r.Size())
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Join("alice", &stubConn{})

	require.True(t, r.Leave("alice"))
	require.False(t, r.Leave("alice"))
	require.Equal(t, 0, r.Size())

	_, ok := r.Get("alice")
	require.False(t, ok)
}

func TestAllIsASnapshot(t *testing.T) {
	r := NewRegistry()
	r.Join("alice", &stubConn{})
	r.Join("bob", &stubConn{})

	snapshot := r.All()
	require.Len(t, snapshot, 2)

	// Mutation after the snapshot must not affect it.
	r.Leave("alice")
	r.Leave("bob")
	require.Len(t, snapshot, 2)
	require.Equal(t, 0, r.Size())
}

func TestUsers(t *testing.T) {
	r := NewRegistry()
	r.Join("alice", &stubConn{})
	r.Join("bob", &stubConn{})

	require.ElementsMatch(t, []string{"alice", "bob"}, r.Users())
}

func TestNilMirrorIsNoOp(t *testing.T) {
	var m *Mirror

	m.Add("r1", "alice")
	m.Remove("r1", "alice")
	members, err := m.Members(context.Background(), "r1")
	require.NoError(t, err)
	require.Nil(t, members)
	require.NoError(t, m.Close())
}
