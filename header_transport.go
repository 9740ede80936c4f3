package scopedauth

import (
	"net/http"
	"strings"
	"time"
)

// DefaultHeaderName is the header used when NewHeaderTransport gets an empty
// name.
const DefaultHeaderName = "X-Auth-Token"

// HeaderTransport carries the raw token id in a named header, both on the
// request and on the response.
//
// Removal sends the header with an empty value. A response cannot force a
// client to drop a value it has already cached, so removal over headers is
// best-effort.
type HeaderTransport struct {
	Name string
}

var _ Transport = HeaderTransport{}

// NewHeaderTransport returns a HeaderTransport for the given header name.
func NewHeaderTransport(name string) HeaderTransport {
	if name == "" {
		name = DefaultHeaderName
	}
	return HeaderTransport{Name: http.CanonicalHeaderKey(name)}
}

// FetchToken returns the first declared value of the header.
func (t HeaderTransport) FetchToken(r *http.Request) string {
	return firstHeaderValue(r.Header, t.Name)
}

// CommitToken sets the header to id.
func (t HeaderTransport) CommitToken(w http.ResponseWriter, _ *http.Request, id string, _ time.Time) {
	w.Header().Set(t.Name, id)
}

// RemoveToken sets the header to an empty value.
func (t HeaderTransport) RemoveToken(w http.ResponseWriter, _ *http.Request, _ string) {
	w.Header().Set(t.Name, "")
}

// BearerTransport reads the token id from an "Authorization: Bearer <id>"
// request header. Clients cannot be told to set Authorization, so commits
// and removals are written to ResponseHeader instead.
type BearerTransport struct {
	ResponseHeader string
}

var _ Transport = BearerTransport{}

// FetchToken parses the Authorization header. A header that is not of the
// form "Bearer <id>" carries no token.
func (t BearerTransport) FetchToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// CommitToken writes id to the response header.
func (t BearerTransport) CommitToken(w http.ResponseWriter, _ *http.Request, id string, _ time.Time) {
	w.Header().Set(t.responseHeader(), id)
}

// RemoveToken clears the response header.
func (t BearerTransport) RemoveToken(w http.ResponseWriter, _ *http.Request, _ string) {
	w.Header().Set(t.responseHeader(), "")
}

func (t BearerTransport) responseHeader() string {
	if t.ResponseHeader == "" {
		return DefaultHeaderName
	}
	return t.ResponseHeader
}
