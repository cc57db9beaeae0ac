package core

import (
	"time"

	"github.com/benbjohnson/clock"
)

type timerEntry struct {
	timer *clock.Timer
	gen   uint64
}

// timerRegistry holds the armed claim timers, keyed by canonical identity.
// Cancellation is idempotent so the notifier can bulk-reset every pass. Each
// armed timer carries a generation so a fire that raced with a cancel or
// re-arm can be told apart from a live one.
type timerRegistry struct {
	clk     clock.Clock
	nextGen uint64
	timers  map[string]*timerEntry
}

func newTimerRegistry(clk clock.Clock) *timerRegistry {
	return &timerRegistry{clk: clk, timers: make(map[string]*timerEntry)}
}

// arm replaces any existing timer for key with a fresh one. fire receives
// the new generation and runs on the clock's goroutine, so it must only
// hand the expiry off, never touch hub state.
func (t *timerRegistry) arm(key string, d time.Duration, fire func(gen uint64)) {
	t.cancel(key)
	t.nextGen++
	gen := t.nextGen
	t.timers[key] = &timerEntry{
		gen:   gen,
		timer: t.clk.AfterFunc(d, func() { fire(gen) }),
	}
}

// cancel stops and forgets the timer for key, if present.
func (t *timerRegistry) cancel(key string) {
	if e, ok := t.timers[key]; ok {
		e.timer.Stop()
		delete(t.timers, key)
	}
}

// cancelAll stops the timers of every listed key.
func (t *timerRegistry) cancelAll(keys []string) {
	for _, key := range keys {
		t.cancel(key)
	}
}

// claim validates a fired timer. It succeeds only when key still holds an
// armed timer of the same generation, consuming it.
func (t *timerRegistry) claim(key string, gen uint64) bool {
	e, ok := t.timers[key]
	if !ok || e.gen != gen {
		return false
	}
	delete(t.timers, key)
	return true
}

// armedCount returns the number of armed timers.
func (t *timerRegistry) armedCount() int {
	return len(t.timers)
}
