package scopedauth

import (
	"net/http"
	"strings"
	"time"
)

// Transport carries a token id between the client and the server.
//
// FetchToken is pure extraction: it performs no storage lookups and has no
// side effects. An empty string means no credential was presented.
// CommitToken writes id to the response; a zero expiresAt means a
// session-lifetime credential. RemoveToken instructs the client to forget the
// credential.
type Transport interface {
	FetchToken(r *http.Request) string
	CommitToken(w http.ResponseWriter, r *http.Request, id string, expiresAt time.Time)
	RemoveToken(w http.ResponseWriter, r *http.Request, id string)
}

// Transports is an ordered list of transports that behaves as one.
// FetchToken returns the first non-empty id in priority order. Commits and
// removals are written by every member.
type Transports []Transport

var _ Transport = Transports(nil)

// FetchToken returns the first id found by any member.
func (ts Transports) FetchToken(r *http.Request) string {
	_, id := ts.find(r)
	return id
}

// Select returns the transport that carried the token of r, or the first
// registered transport when r presented none. It returns nil for an empty
// list.
func (ts Transports) Select(r *http.Request) Transport {
	if t, _ := ts.find(r); t != nil {
		return t
	}
	if len(ts) == 0 {
		return nil
	}
	return ts[0]
}

// CommitToken writes id through every member.
func (ts Transports) CommitToken(w http.ResponseWriter, r *http.Request, id string, expiresAt time.Time) {
	for _, t := range ts {
		t.CommitToken(w, r, id, expiresAt)
	}
}

// RemoveToken removes id through every member.
func (ts Transports) RemoveToken(w http.ResponseWriter, r *http.Request, id string) {
	for _, t := range ts {
		t.RemoveToken(w, r, id)
	}
}

func (ts Transports) find(r *http.Request) (Transport, string) {
	for _, t := range ts {
		if id := t.FetchToken(r); id != "" {
			return t, id
		}
	}
	return nil, ""
}

// firstHeaderValue returns the first declared value of a possibly
// multi-valued header. Blank values are treated as absent.
func firstHeaderValue(h http.Header, name string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return ""
	}
	first, _, _ := strings.Cut(values[0], ",")
	return strings.TrimSpace(first)
}
