package scopedauth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCookieTransport(t *testing.T) {
	ct, err := NewCookieTransport("token")
	require.NoError(t, err)

	t.Run("commit without expiry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ct.CommitToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), "abc123", time.Time{})

		setCookie := rec.Header().Get("Set-Cookie")
		assert.Contains(t, setCookie, "token=abc123")
		assert.Contains(t, setCookie, "Path=/")
		assert.Contains(t, setCookie, "Secure")
		assert.Contains(t, setCookie, "HttpOnly")
		assert.NotContains(t, setCookie, "Expires")
	})

	t.Run("commit with expiry", func(t *testing.T) {
		rec := httptest.NewRecorder()
		exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
		ct.CommitToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), "abc123", exp)

		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Expires=Wed, 02 Jan 2030 03:04:05 GMT")
	})

	t.Run("remove", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ct.RemoveToken(rec, httptest.NewRequest(http.MethodGet, "/", nil), "abc123")

		setCookie := rec.Header().Get("Set-Cookie")
		assert.Contains(t, setCookie, "token=;")
		assert.Contains(t, setCookie, "Max-Age=0")
		assert.Contains(t, setCookie, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
	})

	t.Run("fetch", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, ct.FetchToken(r))

		r.AddCookie(&http.Cookie{Name: "other", Value: "x"})
		assert.Empty(t, ct.FetchToken(r))

		r.AddCookie(&http.Cookie{Name: "token", Value: "abc123"})
		assert.Equal(t, "abc123", ct.FetchToken(r))
	})

	t.Run("empty cookie value is absent", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Cookie", "token=")
		assert.Empty(t, ct.FetchToken(r))
	})
}

func TestNewCookieTransport_Options(t *testing.T) {
	ct, err := NewCookieTransport("",
		WithCookiePath("/app"),
		WithCookieDomain("example.com"),
		WithCookieSecure(false),
		WithCookieSameSite(http.SameSiteStrictMode),
	)
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieName, ct.Name)

	rec := httptest.NewRecorder()
	ct.CommitToken(rec, nil, "abc", time.Time{})
	setCookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, setCookie, "Path=/app")
	assert.Contains(t, setCookie, "Domain=example.com")
	assert.Contains(t, setCookie, "SameSite=Strict")
	assert.NotContains(t, setCookie, "Secure")

	_, err = NewCookieTransport("token", WithCookiePath(""))
	assert.ErrorIs(t, err, ErrCookiePathEmpty)
}

func TestHeaderTransport(t *testing.T) {
	ht := NewHeaderTransport("x-auth-token")
	assert.Equal(t, "X-Auth-Token", ht.Name)

	testCases := []struct {
		name    string
		headers []string
		want    string
	}{
		{name: "missing header", want: ""},
		{name: "single value", headers: []string{"abc123"}, want: "abc123"},
		{name: "first of several header lines", headers: []string{"first", "second"}, want: "first"},
		{name: "first of a comma separated list", headers: []string{"first, second"}, want: "first"},
		{name: "empty value", headers: []string{""}, want: ""},
		{name: "whitespace value", headers: []string{"   "}, want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			for _, h := range tc.headers {
				r.Header.Add("X-Auth-Token", h)
			}
			assert.Equal(t, tc.want, ht.FetchToken(r))
		})
	}

	rec := httptest.NewRecorder()
	ht.CommitToken(rec, nil, "abc123", time.Now().Add(time.Hour))
	assert.Equal(t, "abc123", rec.Header().Get("X-Auth-Token"))

	ht.RemoveToken(rec, nil, "abc123")
	assert.Equal(t, []string{""}, rec.Header().Values("X-Auth-Token"))

	assert.Equal(t, DefaultHeaderName, NewHeaderTransport("").Name)
}

func TestBearerTransport(t *testing.T) {
	bt := BearerTransport{}

	testCases := []struct {
		name   string
		header string
		want   string
	}{
		{name: "no header", want: ""},
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "lower case scheme", header: "bearer abc123", want: "abc123"},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "missing token", header: "Bearer", want: ""},
		{name: "extra parts", header: "Bearer a b", want: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, bt.FetchToken(r))
		})
	}

	rec := httptest.NewRecorder()
	bt.CommitToken(rec, nil, "abc123", time.Time{})
	assert.Equal(t, "abc123", rec.Header().Get(DefaultHeaderName))

	rec = httptest.NewRecorder()
	BearerTransport{ResponseHeader: "X-Session"}.RemoveToken(rec, nil, "abc123")
	assert.Equal(t, []string{""}, rec.Header().Values("X-Session"))
}

func TestTransports(t *testing.T) {
	ct, err := NewCookieTransport("token")
	require.NoError(t, err)
	ht := NewHeaderTransport("X-Auth-Token")
	ts := Transports{ct, ht}

	t.Run("first hit wins in priority order", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "token", Value: "from-cookie"})
		r.Header.Set("X-Auth-Token", "from-header")

		assert.Equal(t, "from-cookie", ts.FetchToken(r))
		assert.Equal(t, ct, ts.Select(r))
	})

	t.Run("falls through to later transports", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("X-Auth-Token", "from-header")

		assert.Equal(t, "from-header", ts.FetchToken(r))
		assert.Equal(t, ht, ts.Select(r))
	})

	t.Run("select defaults to the first transport", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, ts.FetchToken(r))
		assert.Equal(t, ct, ts.Select(r))
		assert.Nil(t, Transports{}.Select(r))
	})

	t.Run("commit and remove reach every member", func(t *testing.T) {
		rec := httptest.NewRecorder()
		ts.CommitToken(rec, nil, "abc123", time.Time{})
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "token=abc123")
		assert.Equal(t, "abc123", rec.Header().Get("X-Auth-Token"))

		rec = httptest.NewRecorder()
		ts.RemoveToken(rec, nil, "abc123")
		assert.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
		assert.Equal(t, []string{""}, rec.Header().Values("X-Auth-Token"))
	})
}
