package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-scoped-auth/config"
)

func newTestServer(t *testing.T) (http.Handler, *prometheus.Registry, *logrustest.Hook) {
	t.Helper()

	cfg := config.Defaults()
	cfg.Transport.Cookie.Secure = false
	cfg.Auth.ExcludedURLs = []string{"/health"}

	log, hook := logrustest.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	reg := prometheus.NewRegistry()

	srv, err := newServer(context.Background(), &cfg, log, reg)
	require.NoError(t, err)
	t.Cleanup(srv.closeStore)

	return srv.handler, reg, hook
}

func serve(h http.Handler, method, target, body string, setup func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if setup != nil {
		setup(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_SessionLifecycle(t *testing.T) {
	h, reg, hook := newTestServer(t)

	rec := serve(h, http.MethodPost, "/login", `{"subject":"alice"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&login))
	require.NotEmpty(t, login.Token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	session := cookies[0]
	assert.Equal(t, "token", session.Name)
	assert.Equal(t, login.Token, session.Value)
	assert.False(t, session.Expires.IsZero())

	withCookie := func(r *http.Request) { r.AddCookie(&http.Cookie{Name: session.Name, Value: session.Value}) }

	t.Run("cookie", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/actions/whoami", "", withCookie)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"result":{"subject":"alice"}}`, rec.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/actions/echo", `{"n":1}`, func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+login.Token)
		})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"result":{"n":1}}`, rec.Body.String())
	})

	t.Run("unknown action", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/actions/nope", "", withCookie)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("logout", func(t *testing.T) {
		rec := serve(h, http.MethodPost, "/logout", "", withCookie)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		cleared := rec.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Less(t, cleared[0].MaxAge, 0)

		rec = serve(h, http.MethodPost, "/actions/whoami", "", withCookie)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	var issued bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "token issued" {
			issued = true
			assert.Equal(t, "alice", entry.Data["subject"])
		}
	}
	assert.True(t, issued)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["scopedauth_requests_total"])
	assert.True(t, names["scopedauth_actions_total"])
}

func TestServer_Anonymous(t *testing.T) {
	h, _, _ := newTestServer(t)

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{
			name:       "action requires an actor",
			method:     http.MethodPost,
			target:     "/actions/whoami",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "login without subject",
			method:     http.MethodPost,
			target:     "/login",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "logout without session",
			method:     http.MethodPost,
			target:     "/logout",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "health",
			method:     http.MethodGet,
			target:     "/health",
			wantStatus: http.StatusOK,
		},
		{
			name:       "metrics",
			method:     http.MethodGet,
			target:     "/metrics",
			wantStatus: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := serve(h, test.method, test.target, test.body, nil)
			assert.Equal(t, test.wantStatus, rec.Code)
		})
	}
}

func TestBuildTransports(t *testing.T) {
	cfg := config.Defaults().Transport
	cfg.Order = []string{"header", "cookie", "bearer"}

	transports, err := buildTransports(cfg)
	require.NoError(t, err)
	assert.Len(t, transports, 3)

	cfg.Order = []string{"pigeon"}
	_, err = buildTransports(cfg)
	assert.ErrorContains(t, err, `unknown transport "pigeon"`)
}

func TestSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteStrictMode, sameSite("Strict"))
	assert.Equal(t, http.SameSiteNoneMode, sameSite("none"))
	assert.Equal(t, http.SameSiteLaxMode, sameSite(""))
}
