package scopedecho

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	scopedauth "github.com/auth0/go-scoped-auth"
	"github.com/auth0/go-scoped-auth/authctx"
	"github.com/auth0/go-scoped-auth/token"
)

type unavailableStore struct{}

func (unavailableStore) Load(context.Context, string) (*token.Token, error) {
	return nil, token.NewStorageError("load", errors.New("connection refused"))
}

func (unavailableStore) Create(context.Context, token.Payload, time.Time) (*token.Token, error) {
	return nil, token.NewStorageError("create", errors.New("connection refused"))
}

func (unavailableStore) Delete(context.Context, *token.Token) error { return nil }

func newServer(t *testing.T, store token.Store, opts ...Option) (*echo.Echo, *context.Context) {
	t.Helper()

	m, err := scopedauth.New(
		scopedauth.WithStore(store),
		scopedauth.WithTransports(scopedauth.BearerTransport{}),
		scopedauth.WithActorResolver(authctx.ActorResolverFunc(func(_ context.Context, tok *token.Token) (authctx.Actor, error) {
			return tok.Subject(), nil
		})),
	)
	require.NoError(t, err)

	var handlerCtx context.Context
	e := echo.New()
	e.Use(New(m, opts...))
	e.GET("/me", func(c echo.Context) error {
		handlerCtx = c.Request().Context()
		name, _ := Actor[string](c)
		return c.JSON(http.StatusOK, map[string]string{"actor": name})
	})
	e.GET("/fail", func(c echo.Context) error {
		handlerCtx = c.Request().Context()
		return echo.NewHTTPError(http.StatusTeapot, "handler error")
	})
	return e, &handlerCtx
}

func TestNew(t *testing.T) {
	store := token.NewMemoryStore()
	tok, err := store.Create(context.Background(), token.NewPayload().With("sub", "alice"), time.Time{})
	require.NoError(t, err)

	e, handlerCtx := newServer(t, store)

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+tok.ID())
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"actor":"alice"}`, rec.Body.String())

		_, stillBound := authctx.FromContext(*handlerCtx)
		assert.False(t, stillBound, "scope must be torn down after the handler returns")
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"actor":""}`, rec.Body.String())
	})

	t.Run("handler errors pass through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

		assert.Equal(t, http.StatusTeapot, rec.Code)
		_, stillBound := authctx.FromContext(*handlerCtx)
		assert.False(t, stillBound)
	})
}

func TestNew_StorageFailure(t *testing.T) {
	t.Run("default error handler", func(t *testing.T) {
		e, _ := newServer(t, unavailableStore{})

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "Credential storage is unavailable.")
	})

	t.Run("custom error handler", func(t *testing.T) {
		e, _ := newServer(t, unavailableStore{}, WithErrorHandler(func(c echo.Context, err error) error {
			assert.ErrorIs(t, err, token.ErrStorageFailure)
			return c.NoContent(http.StatusServiceUnavailable)
		}))

		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer abc")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
