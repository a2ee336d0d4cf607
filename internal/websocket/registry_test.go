package websocket

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_BindAndLookup(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := &Client{userID: "alice"}

	// Given nobody is connected
	_, ok := registry.Lookup("alice")
	req.False(ok)

	// When alice binds
	replaced := registry.Bind("alice", alice)

	// Then her connection is found
	req.Nil(replaced)
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(alice, got)
	req.Equal(1, registry.Len())
}

func TestRegistry_BindReplacesPreviousConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &Client{userID: "alice"}
	second := &Client{userID: "alice"}

	registry.Bind("alice", first)
	replaced := registry.Bind("alice", second)

	req.Same(first, replaced)
	got, _ := registry.Lookup("alice")
	req.Same(second, got)
	req.Equal(1, registry.Len())

	// binding the same connection again replaces nothing
	req.Nil(registry.Bind("alice", second))
}

func TestRegistry_UnbindIsIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := &Client{userID: "alice"}
	registry.Bind("alice", alice)

	req.True(registry.Unbind("alice", alice))
	req.False(registry.Unbind("alice", alice))
	req.False(registry.Unbind("nobody", alice))

	_, ok := registry.Lookup("alice")
	req.False(ok)
	req.Zero(registry.Len())
}

func TestRegistry_StaleUnbindKeepsNewerConnection(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	first := &Client{userID: "alice"}
	second := &Client{userID: "alice"}

	registry.Bind("alice", first)
	registry.Bind("alice", second)

	// When the replaced connection goes away
	req.False(registry.Unbind("alice", first))

	// Then the newer one is still bound
	got, ok := registry.Lookup("alice")
	req.True(ok)
	req.Same(second, got)
}

func TestRegistry_OnlineAndOthers(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	alice := &Client{userID: "alice"}
	bob := &Client{userID: "bob"}
	carol := &Client{userID: "carol"}

	req.Empty(registry.Online())

	registry.Bind("carol", carol)
	registry.Bind("alice", alice)
	registry.Bind("bob", bob)

	req.Equal([]string{"alice", "bob", "carol"}, registry.Online())

	others := registry.Others("alice")
	req.Len(others, 2)
	req.ElementsMatch([]*Client{bob, carol}, others)
	req.Len(registry.Others("dave"), 3)
}

func TestNewClient_Identity(t *testing.T) {
	req := require.New(t)
	h := NewHub(NewRegistry(), nil, nil, WithSendBuffer(4))

	a := NewClient(h, nil, "alice")
	b := NewClient(h, nil, "alice")

	req.Equal("alice", a.UserID())
	req.NotEmpty(a.ConnID())
	req.NotEqual(a.ConnID(), b.ConnID())
	req.Equal(4, cap(a.send))
}
