package websocket

import (
	"context"
	"sync"

	"dm-relay/internal/models"
	"dm-relay/pkg/logger"
)

// handleRegister binds c and announces its user to everyone else. The flag
// write is queued before the broadcast but not awaited.
func (h *Hub) handleRegister(c *Client) {
	h.clients[c] = struct{}{}

	if prev := h.registry.Bind(c.userID, c); prev != nil {
		logger.Info("User %s reconnected, connection %s replaces %s", c.userID, c.connID, prev.connID)
	} else {
		logger.Info("User %s connected (%s)", c.userID, c.connID)
	}

	h.flags.put(c.userID, true)
	h.broadcast(h.registry.Others(c.userID), models.EventUserOnline, models.PresencePayload{UserID: c.userID})
}

// handleUnregister closes c. Only the connection currently bound for the user
// marks it offline; a connection that was replaced leaves quietly.
func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	h.closeClient(c)

	if cur, ok := h.registry.Lookup(c.userID); !ok || cur != c {
		logger.Debug("Replaced connection %s of user %s closed", c.connID, c.userID)
		return
	}

	h.flags.put(c.userID, false)
	h.registry.Unbind(c.userID, c)
	logger.Info("User %s disconnected (%s)", c.userID, c.connID)

	h.broadcast(h.registry.Others(c.userID), models.EventUserOffline, models.PresencePayload{UserID: c.userID})
}

// writeFlags applies online flag writes one at a time, so a user's flag
// never commits out of order. The loop only queues; a stalled store holds up
// this goroutine and nothing else.
func (h *Hub) writeFlags() {
	defer close(h.flagsDone)

	for {
		w, ok, closed := h.flags.next()
		if !ok {
			if closed {
				return
			}
			<-h.flags.notify
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), h.storeTimeout)
		err := h.users.SetOnline(ctx, w.userID, w.online)
		cancel()
		if err != nil {
			logger.Error("Error setting user %s online=%t: %v", w.userID, w.online, err)
		}
	}
}

type flagWrite struct {
	userID string
	online bool
}

// flagQueue holds at most one pending flag per user. A newer flag replaces
// one that has not been written yet, so the queue stays bounded by the number
// of distinct users no matter how fast they reconnect.
type flagQueue struct {
	mu     sync.Mutex
	order  []string
	latest map[string]bool
	closed bool
	notify chan struct{}
}

func newFlagQueue() *flagQueue {
	return &flagQueue{
		latest: make(map[string]bool),
		notify: make(chan struct{}, 1),
	}
}

// put never blocks.
func (q *flagQueue) put(userID string, online bool) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	if _, pending := q.latest[userID]; !pending {
		q.order = append(q.order, userID)
	}
	q.latest[userID] = online
	q.mu.Unlock()

	q.wake()
}

func (q *flagQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

func (q *flagQueue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// next pops the oldest pending user. Writes queued before close are still
// handed out; closed is only reported once the queue is empty.
func (q *flagQueue) next() (w flagWrite, ok bool, closed bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.order) == 0 {
		return flagWrite{}, false, q.closed
	}
	userID := q.order[0]
	q.order = q.order[1:]
	online := q.latest[userID]
	delete(q.latest, userID)
	return flagWrite{userID: userID, online: online}, true, false
}
