package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"dm-relay/internal/database"
	"dm-relay/internal/models"
	"dm-relay/pkg/logger"

	"github.com/go-playground/validator/v10"
)

var (
	ErrHubStopped       = errors.New("hub stopped")
	errConnectionClosed = errors.New("connection closed")
	errSendBufferFull   = errors.New("send buffer full")
)

const (
	defaultStoreTimeout = 5 * time.Second
	defaultSendBuffer   = 256
)

type inbound struct {
	client *Client
	data   []byte
}

// Hub runs every event handler on the single goroutine started by Run, which
// is the only code that touches the registry. Store calls run on their own
// goroutines and hand their continuation back through resume, so other
// events can be processed while a write is in flight.
type Hub struct {
	registry *Registry
	clients  map[*Client]struct{}
	users    database.UserStore
	messages database.MessageStore
	validate *validator.Validate

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	resume     chan func()
	queries    chan func()
	flags      *flagQueue

	ctx       context.Context
	pending   sync.WaitGroup
	flagsDone chan struct{}
	done      chan struct{}
	stopped   chan struct{}

	storeTimeout time.Duration
	sendBuffer   int
}

type Option func(*Hub)

// WithStoreTimeout bounds every store call made on behalf of an event.
func WithStoreTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.storeTimeout = d
		}
	}
}

// WithSendBuffer sets how many outbound frames a connection may queue before
// it is dropped as a slow consumer.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

func NewHub(registry *Registry, users database.UserStore, messages database.MessageStore, opts ...Option) *Hub {
	h := &Hub{
		registry:     registry,
		clients:      make(map[*Client]struct{}),
		users:        users,
		messages:     messages,
		validate:     validator.New(validator.WithRequiredStructEnabled()),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		inbound:      make(chan inbound),
		resume:       make(chan func()),
		queries:      make(chan func()),
		flags:        newFlagQueue(),
		flagsDone:    make(chan struct{}),
		done:         make(chan struct{}),
		stopped:      make(chan struct{}),
		storeTimeout: defaultStoreTimeout,
		sendBuffer:   defaultSendBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes events until ctx is cancelled. On shutdown every connection
// is closed and every bound user is marked offline.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	go h.writeFlags()

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case in := <-h.inbound:
			h.handleInbound(in.client, in.data)

		case fn := <-h.resume:
			fn()

		case fn := <-h.queries:
			fn()
		}
	}
}

// Stopped is closed once Run has returned and pending flag writes are flushed.
func (h *Hub) Stopped() <-chan struct{} {
	return h.stopped
}

// Register hands c to the hub loop. It returns ErrHubStopped once the hub is
// shutting down, in which case c was never bound.
func (h *Hub) Register(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Dispatch hands one inbound frame from c to the hub loop.
func (h *Hub) Dispatch(c *Client, data []byte) {
	select {
	case h.inbound <- inbound{client: c, data: data}:
	case <-h.done:
	}
}

// Online returns the users that currently have a bound connection.
func (h *Hub) Online(ctx context.Context) ([]string, error) {
	reply := make(chan []string, 1)
	query := func() { reply <- h.registry.Online() }

	select {
	case h.queries <- query:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return <-reply, nil
}

func (h *Hub) handleInbound(c *Client, data []byte) {
	if c.closed {
		return
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		logger.Debug("Dropping malformed frame from user %s: %v", c.userID, err)
		return
	}

	switch env.Event {
	case models.EventMessageSend:
		if p, ok := decode[models.SendPayload](h, c, env); ok {
			h.handleSend(c, p)
		}
	case models.EventMessageRead:
		if p, ok := decode[models.ReadPayload](h, c, env); ok {
			h.handleRead(c, p)
		}
	case models.EventTypingStart, models.EventTypingStop:
		if p, ok := decode[models.TypingPayload](h, c, env); ok {
			h.handleTyping(c, env.Event, p)
		}
	default:
		logger.Debug("Dropping unknown event %q from user %s", env.Event, c.userID)
	}
}

func decode[T any](h *Hub, c *Client, env models.Envelope) (T, bool) {
	var payload T
	if err := json.Unmarshal(env.Data, &payload); err != nil {
		logger.Debug("Dropping %s from user %s: %v", env.Event, c.userID, err)
		return payload, false
	}
	if err := h.validate.Struct(payload); err != nil {
		logger.Debug("Dropping %s from user %s: %v", env.Event, c.userID, err)
		return payload, false
	}
	return payload, true
}

// await runs op off the loop and schedules then back on it with the result.
// Continuations still pending at shutdown are discarded.
func await[T any](h *Hub, op func(ctx context.Context) (T, error), then func(T, error)) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()

		ctx, cancel := context.WithTimeout(h.ctx, h.storeTimeout)
		v, err := op(ctx)
		cancel()

		select {
		case h.resume <- func() { then(v, err) }:
		case <-h.done:
		}
	}()
}

// emit encodes one event and queues it on c.
func (h *Hub) emit(c *Client, event models.EventName, payload any) error {
	data, err := models.NewEnvelope(event, payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", event, err)
	}
	return h.push(c, data)
}

func (h *Hub) broadcast(targets []*Client, event models.EventName, payload any) {
	data, err := models.NewEnvelope(event, payload)
	if err != nil {
		logger.Error("Error marshaling %s: %v", event, err)
		return
	}

	for _, c := range targets {
		_ = h.push(c, data)
	}
}

// push never blocks the loop: a connection whose buffer is full is dropped
// through the normal disconnect path.
func (h *Hub) push(c *Client, data []byte) error {
	if c.closed {
		return errConnectionClosed
	}

	select {
	case c.send <- data:
		return nil
	default:
		logger.Warn("Send buffer full for user %s (%s), dropping connection", c.userID, c.connID)
		h.handleUnregister(c)
		return errSendBufferFull
	}
}

func (h *Hub) closeClient(c *Client) {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (h *Hub) shutdown() {
	close(h.done)
	h.pending.Wait()

	online := h.registry.Online()
	for _, userID := range online {
		c, _ := h.registry.Lookup(userID)
		h.flags.put(userID, false)
		h.registry.Unbind(userID, c)
	}
	for c := range h.clients {
		h.closeClient(c)
	}
	h.clients = make(map[*Client]struct{})

	h.flags.close()
	<-h.flagsDone

	logger.Info("Hub stopped, %d users marked offline", len(online))
	close(h.stopped)
}
