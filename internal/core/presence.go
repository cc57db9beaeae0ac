package core

import (
	"sort"
	"time"
)

// Status is the presence state of one identity.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusOutside Status = "outside"
	StatusQueue   Status = "queue"
)

// PresenceRecord tracks one identity's status. All connections of the
// identity share it, so every tab observes the same state.
type PresenceRecord struct {
	Display string
	Status  Status
	Since   time.Time
}

// Entry is one row of the projected state.
type Entry struct {
	Name  string
	Since time.Time
}

// StateSnapshot is the derived "who is outside / who is queued" view.
type StateSnapshot struct {
	Outside []Entry
	Queue   []Entry
}

// presenceStore holds the authoritative presence table, keyed by canonical
// identity. Mutated only by the hub goroutine.
type presenceStore struct {
	records map[string]*PresenceRecord
}

func newPresenceStore() *presenceStore {
	return &presenceStore{records: make(map[string]*PresenceRecord)}
}

func (s *presenceStore) get(key string) (*PresenceRecord, bool) {
	rec, ok := s.records[key]
	return rec, ok
}

// ensure creates an idle record for key if none exists yet.
func (s *presenceStore) ensure(key, display string, now time.Time) *PresenceRecord {
	if rec, ok := s.records[key]; ok {
		return rec
	}
	rec := &PresenceRecord{Display: display, Status: StatusIdle, Since: now}
	s.records[key] = rec
	return rec
}

func (s *presenceStore) remove(key string) {
	delete(s.records, key)
}

// project derives the outside/queue view, one entry per identity, ordered by
// ascending Since. The ordering is the sole source of truth for "who is next".
func (s *presenceStore) project() StateSnapshot {
	var snap StateSnapshot
	for _, rec := range s.records {
		entry := Entry{Name: rec.Display, Since: rec.Since}
		switch rec.Status {
		case StatusOutside:
			snap.Outside = append(snap.Outside, entry)
		case StatusQueue:
			snap.Queue = append(snap.Queue, entry)
		}
	}
	sort.Slice(snap.Outside, func(i, j int) bool {
		return snap.Outside[i].Since.Before(snap.Outside[j].Since)
	})
	sort.Slice(snap.Queue, func(i, j int) bool {
		return snap.Queue[i].Since.Before(snap.Queue[j].Since)
	})
	return snap
}

// queuedKeys returns canonical keys of all queued identities in FIFO order.
func (s *presenceStore) queuedKeys() []string {
	type queued struct {
		key   string
		since time.Time
	}
	var items []queued
	for key, rec := range s.records {
		if rec.Status == StatusQueue {
			items = append(items, queued{key: key, since: rec.Since})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].since.Before(items[j].since)
	})
	keys := make([]string, 0, len(items))
	for _, it := range items {
		keys = append(keys, it.key)
	}
	return keys
}

func (s *presenceStore) outsideCount() int {
	n := 0
	for _, rec := range s.records {
		if rec.Status == StatusOutside {
			n++
		}
	}
	return n
}
