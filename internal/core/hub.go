package core

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
)

// Defaults for the slot allocation engine.
const (
	DefaultMaxOutside   = 4
	DefaultClaimTimeout = 2 * time.Minute
)

// Options configures the hub.
type Options struct {
	// MaxOutside is the number of concurrently occupiable outside slots.
	MaxOutside int
	// ClaimTimeout is how long a notified queued identity may wait before
	// forfeiting its turn.
	ClaimTimeout time.Duration
	// MaxNameLength bounds sanitized display names.
	MaxNameLength int
	// Clock drives timestamps and claim timers. Defaults to the wall clock.
	Clock clock.Clock
}

func (o *Options) fillDefaults() {
	if o.MaxOutside <= 0 {
		o.MaxOutside = DefaultMaxOutside
	}
	if o.ClaimTimeout <= 0 {
		o.ClaimTimeout = DefaultClaimTimeout
	}
	if o.MaxNameLength <= 0 {
		o.MaxNameLength = DefaultMaxNameLength
	}
	if o.Clock == nil {
		o.Clock = clock.New()
	}
}

type inboundCommand struct {
	client *Client
	cmd    *Command
}

// expiry is a claim timer firing, re-entering the hub loop as a synthetic
// event. gen guards against timers that fired just before being cancelled.
type expiry struct {
	key string
	gen uint64
}

// Hub owns all mutable coordination state: the identity registry, the
// presence store, and the claim timers. Every inbound event, including timer
// expiries, is funneled through Run's single goroutine and processed to
// completion, so the allocator needs no locks.
type Hub struct {
	opts Options
	log  *zerolog.Logger

	registry *registry
	presence *presenceStore
	timers   *timerRegistry

	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	inbox      chan inboundCommand
	expired    chan expiry
	done       chan struct{}
}

// NewHub creates a hub with the given options.
func NewHub(opts Options, logger *zerolog.Logger) *Hub {
	opts.fillDefaults()
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		opts:       opts,
		log:        logger,
		registry:   newRegistry(opts.MaxNameLength),
		presence:   newPresenceStore(),
		timers:     newTimerRegistry(opts.Clock),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbox:      make(chan inboundCommand),
		expired:    make(chan expiry, 16),
		done:       make(chan struct{}),
	}
}

// RegisterClient hands a new connection to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient tells the hub a connection is gone. The hub closes the
// client's Events channel once cleanup is complete.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes events until ctx is cancelled. It is the sole goroutine that
// touches hub state.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.addClient(ctx, c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.inbox:
			h.handleCommand(in.client, in.cmd)
		case e := <-h.expired:
			h.handleExpiry(e)
		}
	}
}

func (h *Hub) addClient(ctx context.Context, c *Client) {
	h.clients[c] = struct{}{}
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")

	// Forward the client's commands into the single inbox. Ends when the
	// transport closes Commands.
	go func() {
		for cmd := range c.Commands {
			select {
			case h.inbox <- inboundCommand{client: c, cmd: cmd}:
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	changed := h.releaseBinding(c)
	close(c.Events)
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
	if changed {
		h.broadcastState()
		h.notifyPass()
	}
}

// releaseBinding detaches a connection from its identity. When it was the
// identity's last connection the identity is fully purged: presence record,
// claim timer, registry entry. Reports whether occupancy changed.
func (h *Hub) releaseBinding(c *Client) bool {
	key, last := h.registry.unregister(c)
	if key == "" || !last {
		return false
	}
	h.timers.cancel(key)
	rec, ok := h.presence.get(key)
	h.presence.remove(key)
	return ok && rec.Status != StatusIdle
}

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	if _, connected := h.clients[c]; !connected {
		// Command raced with disconnect; state is already purged.
		return
	}

	if cmd.Kind == CommandLogin {
		h.handleLogin(c, cmd.Name)
		return
	}

	key, ok := h.registry.keyOf(c)
	if !ok {
		// Not authenticated; drop silently.
		return
	}

	switch cmd.Kind {
	case CommandLeaveClass:
		h.applyTransition(key, h.leaveClass(key))
	case CommandComeBack:
		h.applyTransition(key, h.comeBack(key))
	case CommandLeaveQueue:
		h.applyTransition(key, h.leaveQueue(key))
	case CommandRequestState:
		if rec, ok := h.presence.get(key); ok {
			h.send(c, &Event{Kind: EventUserStatus, Status: rec.Status})
		}
	}
}

func (h *Hub) handleLogin(c *Client, rawName string) {
	_, key, err := h.registry.canonicalKey(rawName)
	if err != nil {
		h.log.Debug().Str("client_id", c.ID).Str("name", rawName).Str("code", ErrCodeInvalidName).Msg("login rejected")
		h.send(c, &Event{Kind: EventLoginError, Error: coreError(ErrCodeInvalidName, err.Error())})
		return
	}
	if !h.registry.claimable(key, c) {
		h.log.Debug().Str("client_id", c.ID).Str("name", rawName).Str("code", ErrCodeNameInUse).Msg("login rejected")
		h.send(c, &Event{Kind: EventLoginError, Error: coreError(ErrCodeNameInUse, ErrNameInUse.Error())})
		return
	}

	// Rename: the old binding is released only once the new name is known to
	// be claimable, so a rejected login leaves the caller exactly as it was.
	// The release goes through the same path as a disconnect.
	if oldKey, bound := h.registry.keyOf(c); bound && key != oldKey {
		if h.releaseBinding(c) {
			h.broadcastState()
			h.notifyPass()
		}
	}

	display, key, err := h.registry.register(rawName, c)
	if err != nil {
		h.send(c, &Event{Kind: EventLoginError, Error: coreError(ErrCodeInvalidName, err.Error())})
		return
	}
	h.finishLogin(c, key, display)
}

func (h *Hub) finishLogin(c *Client, key, display string) {
	h.presence.ensure(key, display, h.opts.Clock.Now())
	c.Name = display
	h.log.Info().Str("client_id", c.ID).Str("name", display).Msg("login")
	h.send(c, &Event{Kind: EventLoginSuccess, Name: display})
}

// applyTransition runs the broadcast-then-notify sequence after a state
// machine step that actually changed occupancy or queue composition.
func (h *Hub) applyTransition(key string, changed bool) {
	if !changed {
		return
	}
	h.broadcastState()
	h.notifyPass()
}

// leaveClass admits key to an outside slot when one is rightfully available,
// otherwise queues it. Reports whether the status changed.
func (h *Hub) leaveClass(key string) bool {
	rec, ok := h.presence.get(key)
	if !ok || rec.Status == StatusOutside {
		return false
	}

	outside := h.presence.outsideCount()
	queued := h.presence.queuedKeys()
	avail := h.opts.MaxOutside - outside

	var next Status
	switch {
	case len(queued) == 0:
		if avail > 0 {
			next = StatusOutside
		} else {
			next = StatusQueue
		}
	case rec.Status == StatusQueue:
		// A queued identity inside the free-slot window already holds a
		// notified claim; it promotes itself. Beyond the window the intent
		// is a no-op so re-sending it never costs queue position.
		pos := indexOf(queued, key)
		if pos >= 0 && pos < avail {
			next = StatusOutside
		} else {
			return false
		}
	default: // idle with a non-empty queue
		if len(queued) < avail {
			next = StatusOutside
		} else {
			next = StatusQueue
		}
	}

	h.setStatus(key, rec, next)
	return true
}

func (h *Hub) comeBack(key string) bool {
	rec, ok := h.presence.get(key)
	if !ok || rec.Status != StatusOutside {
		return false
	}
	h.setStatus(key, rec, StatusIdle)
	return true
}

func (h *Hub) leaveQueue(key string) bool {
	rec, ok := h.presence.get(key)
	if !ok || rec.Status != StatusQueue {
		return false
	}
	h.setStatus(key, rec, StatusIdle)
	return true
}

func (h *Hub) setStatus(key string, rec *PresenceRecord, next Status) {
	h.timers.cancel(key)
	rec.Status = next
	rec.Since = h.opts.Clock.Now()
	h.log.Debug().Str("name", rec.Display).Str("status", string(next)).Msg("status change")
}

// notifyPass re-derives which queued identities may claim a slot and arms
// their claim timers. It recomputes from scratch on every invocation, so at
// most the first avail queued identities ever hold an armed timer no matter
// how the previous capacity shape looked.
func (h *Hub) notifyPass() {
	outside := h.presence.outsideCount()
	queued := h.presence.queuedKeys()

	h.timers.cancelAll(queued)

	avail := h.opts.MaxOutside - outside
	if avail <= 0 || len(queued) == 0 {
		return
	}
	if avail > len(queued) {
		avail = len(queued)
	}

	for _, key := range queued[:avail] {
		key := key
		h.timers.arm(key, h.opts.ClaimTimeout, func(gen uint64) {
			select {
			case h.expired <- expiry{key: key, gen: gen}:
			case <-h.done:
			}
		})
		h.emitToIdentity(key, &Event{Kind: EventYourTurn})
	}
}

// handleExpiry processes a fired claim timer. The identity may have left the
// queue, disconnected, or been re-notified since arming, so everything is
// re-validated before acting.
func (h *Hub) handleExpiry(e expiry) {
	if !h.timers.claim(e.key, e.gen) {
		return
	}
	rec, ok := h.presence.get(e.key)
	if !ok || rec.Status != StatusQueue {
		return
	}

	rec.Status = StatusIdle
	rec.Since = h.opts.Clock.Now()
	h.log.Info().Str("name", rec.Display).Msg("claim window expired")

	h.emitToIdentity(e.key, &Event{Kind: EventQueueTimeout})
	h.broadcastState()
	h.notifyPass()
}

// broadcastState pushes the projected view to every connection.
func (h *Hub) broadcastState() {
	snap := h.presence.project()
	for c := range h.clients {
		h.send(c, &Event{Kind: EventStateUpdate, State: &snap})
	}
}

// emitToIdentity sends an event to every connection of one identity.
func (h *Hub) emitToIdentity(key string, ev *Event) {
	for _, c := range h.registry.clientsOf(key) {
		h.send(c, ev)
	}
}

func (h *Hub) send(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		// Drop if slow consumer.
	}
}

func indexOf(keys []string, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}
