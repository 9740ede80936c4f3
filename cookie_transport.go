package scopedauth

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

// DefaultCookieName is the cookie used when NewCookieTransport gets an empty
// name.
const DefaultCookieName = "token"

// ErrCookiePathEmpty is returned by WithCookiePath for an empty path.
var ErrCookiePathEmpty = errors.New("cookie path cannot be empty")

// CookieTransport carries the token id in a cookie.
type CookieTransport struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
}

var _ Transport = (*CookieTransport)(nil)

// CookieOption configures a CookieTransport.
type CookieOption func(*CookieTransport) error

// NewCookieTransport returns a cookie transport with secure defaults:
// Path "/", Secure and HttpOnly set, SameSite=Lax.
//
// Example:
//
//	t, err := scopedauth.NewCookieTransport("session",
//	    scopedauth.WithCookieDomain("example.com"),
//	)
func NewCookieTransport(name string, opts ...CookieOption) (*CookieTransport, error) {
	if name == "" {
		name = DefaultCookieName
	}
	t := &CookieTransport{
		Name:     name,
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// WithCookiePath sets the cookie Path attribute.
func WithCookiePath(path string) CookieOption {
	return func(t *CookieTransport) error {
		if path == "" {
			return ErrCookiePathEmpty
		}
		t.Path = path
		return nil
	}
}

// WithCookieDomain sets the cookie Domain attribute.
func WithCookieDomain(domain string) CookieOption {
	return func(t *CookieTransport) error {
		t.Domain = domain
		return nil
	}
}

// WithCookieSecure toggles the Secure attribute. Only disable it for local
// development over plain HTTP.
func WithCookieSecure(secure bool) CookieOption {
	return func(t *CookieTransport) error {
		t.Secure = secure
		return nil
	}
}

// WithCookieSameSite sets the SameSite attribute.
func WithCookieSameSite(mode http.SameSite) CookieOption {
	return func(t *CookieTransport) error {
		t.SameSite = mode
		return nil
	}
}

// FetchToken returns the value of the first cookie named t.Name.
func (t *CookieTransport) FetchToken(r *http.Request) string {
	cookie, err := r.Cookie(t.Name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// CommitToken sets the cookie. Expires is written only for a non-zero
// expiresAt; otherwise the cookie lives for the browser session.
func (t *CookieTransport) CommitToken(w http.ResponseWriter, _ *http.Request, id string, expiresAt time.Time) {
	c := t.cookie(id)
	if !expiresAt.IsZero() {
		c.Expires = expiresAt.UTC()
	}
	http.SetCookie(w, c)
}

// RemoveToken overwrites the cookie with an already expired one.
func (t *CookieTransport) RemoveToken(w http.ResponseWriter, _ *http.Request, _ string) {
	c := t.cookie("")
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, c)
}

func (t *CookieTransport) cookie(value string) *http.Cookie {
	return &http.Cookie{
		Name:     t.Name,
		Value:    value,
		Path:     t.Path,
		Domain:   t.Domain,
		Secure:   t.Secure,
		HttpOnly: t.HTTPOnly,
		SameSite: t.SameSite,
	}
}
