package websocket

import (
	"slices"

	"github.com/samber/lo"
)

// Registry maps each user to the one connection that currently receives
// events routed to them. It is owned by the hub loop and must not be shared
// with other goroutines.
type Registry struct {
	clients map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// Bind makes c the connection for userID and returns the connection it
// replaced, if any.
func (r *Registry) Bind(userID string, c *Client) *Client {
	prev := r.clients[userID]
	r.clients[userID] = c
	if prev == c {
		return nil
	}
	return prev
}

func (r *Registry) Lookup(userID string) (*Client, bool) {
	c, ok := r.clients[userID]
	return c, ok
}

// Unbind removes userID only while it still points at c, so a connection
// that was already replaced cannot evict its successor. It reports whether
// an entry was removed and is safe to call repeatedly.
func (r *Registry) Unbind(userID string, c *Client) bool {
	if cur, ok := r.clients[userID]; !ok || cur != c {
		return false
	}
	delete(r.clients, userID)
	return true
}

// Online returns the bound user ids in sorted order.
func (r *Registry) Online() []string {
	ids := lo.Keys(r.clients)
	slices.Sort(ids)
	return ids
}

// Others returns every bound connection except the one for userID.
func (r *Registry) Others(userID string) []*Client {
	return lo.Filter(lo.Values(r.clients), func(c *Client, _ int) bool {
		return c.userID != userID
	})
}

func (r *Registry) Len() int {
	return len(r.clients)
}
