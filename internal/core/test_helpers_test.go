package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
)

func newTestHub(t *testing.T, opts Options) (*Hub, *clock.Mock) {
	t.Helper()

	mock := clock.NewMock()
	opts.Clock = mock
	hub := NewHub(opts, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	return hub, mock
}

// connect registers a fresh client under its own session lineage.
func connect(t *testing.T, hub *Hub, id string) *Client {
	t.Helper()
	c := NewClient(id, "session-"+id)
	hub.RegisterClient(c)
	return c
}

// loginAs claims name for c and waits for the confirmation.
func loginAs(t *testing.T, c *Client, name string) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandLogin, Name: name}
	ev := mustEvent(t, c.Events, EventLoginSuccess)
	if ev.Name == "" {
		t.Fatalf("login_success without a name")
	}
}

// awaitStatus uses request_state as a barrier: by the time the answer
// arrives, every command sent before it has been fully processed.
func awaitStatus(t *testing.T, c *Client) Status {
	t.Helper()
	c.Commands <- &Command{Kind: CommandRequestState}
	return mustEvent(t, c.Events, EventUserStatus).Status
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// nextEvent returns the next buffered event, failing after a short wait.
func nextEvent(t *testing.T, ch <-chan *Event) *Event {
	t.Helper()

	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("expected an event, got none")
		return nil
	}
}

// drainEvents discards everything currently buffered on ch.
func drainEvents(ch <-chan *Event) {
	for {
		select {
		case <-ch:
		default:
			return
		}
	}
}

// requireNoEvent fails if an event of the given kind is buffered on ch.
func requireNoEvent(t *testing.T, ch <-chan *Event, kind EventKind) {
	t.Helper()
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				t.Fatalf("unexpected event kind %v: %+v", kind, ev)
			}
		default:
			return
		}
	}
}

func names(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name)
	}
	return out
}

func testName(i int) string {
	return fmt.Sprintf("user%d", i)
}
