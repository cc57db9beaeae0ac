package core

import "strings"

// DefaultMaxNameLength bounds the sanitized display name.
const DefaultMaxNameLength = 30

// nameStripper removes characters that must never appear in a display name.
var nameStripper = strings.NewReplacer(
	"<", "", ">", "", "'", "", `"`, "", "`", "", ";", "", "(", "", ")", "",
)

// SanitizeName strips disallowed characters and trims whitespace.
func SanitizeName(raw string) string {
	return strings.TrimSpace(nameStripper.Replace(raw))
}

// identity is one logical occupant: a display name plus the set of live
// connections currently authenticated as it. The session of the first
// successful login owns the name until every connection is gone; further
// tabs of the same session may attach to it.
type identity struct {
	display string
	session string
	clients map[*Client]struct{}
}

// registry maps canonical name keys to identities. An entry with an empty
// client set is never kept around; unregister purges it atomically.
type registry struct {
	maxNameLength int
	identities    map[string]*identity
	byClient      map[*Client]string
}

func newRegistry(maxNameLength int) *registry {
	if maxNameLength <= 0 {
		maxNameLength = DefaultMaxNameLength
	}
	return &registry{
		maxNameLength: maxNameLength,
		identities:    make(map[string]*identity),
		byClient:      make(map[*Client]string),
	}
}

// canonicalKey sanitizes rawName and derives its display and canonical forms.
// An empty or over-long result is ErrInvalidName.
func (r *registry) canonicalKey(rawName string) (display, key string, err error) {
	display = SanitizeName(rawName)
	if display == "" || len([]rune(display)) > r.maxNameLength {
		return "", "", ErrInvalidName
	}
	return display, strings.ToLower(display), nil
}

// claimable reports whether c may bind key: the name is free, already bound
// to c, or held by c's own session lineage. It does not mutate anything.
func (r *registry) claimable(key string, c *Client) bool {
	id, ok := r.identities[key]
	if !ok {
		return true
	}
	if _, mine := id.clients[c]; mine {
		return true
	}
	return c.Session != "" && c.Session == id.session
}

// register binds a client to the canonical form of rawName.
// The same client re-claiming its own name succeeds idempotently; another
// connection of the owning session (a second tab) attaches to the identity;
// a name held by a different session lineage is rejected with ErrNameInUse.
func (r *registry) register(rawName string, c *Client) (display, key string, err error) {
	display, key, err = r.canonicalKey(rawName)
	if err != nil {
		return "", "", err
	}

	if id, ok := r.identities[key]; ok {
		if _, mine := id.clients[c]; mine {
			return id.display, key, nil
		}
		if c.Session != "" && c.Session == id.session {
			id.clients[c] = struct{}{}
			r.byClient[c] = key
			return id.display, key, nil
		}
		return "", "", ErrNameInUse
	}

	r.identities[key] = &identity{
		display: display,
		session: c.Session,
		clients: map[*Client]struct{}{c: {}},
	}
	r.byClient[c] = key
	return display, key, nil
}

// keyOf returns the canonical key the client is bound to, if any.
func (r *registry) keyOf(c *Client) (string, bool) {
	key, ok := r.byClient[c]
	return key, ok
}

// clientsOf returns all live connections of one identity.
func (r *registry) clientsOf(key string) []*Client {
	id, ok := r.identities[key]
	if !ok {
		return nil
	}
	clients := make([]*Client, 0, len(id.clients))
	for c := range id.clients {
		clients = append(clients, c)
	}
	return clients
}

// unregister removes the client from its identity. It reports the key and
// whether that was the last connection, in which case the entry is deleted
// and the caller must purge presence state and timers.
func (r *registry) unregister(c *Client) (key string, last bool) {
	key, ok := r.byClient[c]
	if !ok {
		return "", false
	}
	delete(r.byClient, c)

	id, ok := r.identities[key]
	if !ok {
		return key, true
	}
	delete(id.clients, c)
	if len(id.clients) == 0 {
		delete(r.identities, key)
		return key, true
	}
	return key, false
}
