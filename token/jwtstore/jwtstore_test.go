package jwtstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth0/go-scoped-auth/token"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestNew(t *testing.T) {
	testCases := []struct {
		name      string
		key       []byte
		issuer    string
		wantError error
	}{
		{name: "short key", key: []byte("short"), issuer: "iss", wantError: ErrKeyTooShort},
		{name: "empty issuer", key: testKey, wantError: ErrIssuerEmpty},
		{name: "valid", key: testKey, issuer: "iss"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			s, err := New(testCase.key, testCase.issuer)
			if testCase.wantError != nil {
				assert.ErrorIs(t, err, testCase.wantError)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}

	s, err := New(testKey, "https://issuer.example.com/", token.WithClock(clock))
	require.NoError(t, err)

	t.Run("round trip keeps claims and order", func(t *testing.T) {
		tok, err := s.Create(ctx, token.NewPayload().With("sub", "alice").With("scope", "read"), time.Time{})
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(tok.ID(), "."))

		got, err := s.Load(ctx, tok.ID())
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"sub", "scope"}, got.Payload().Keys())
		assert.Equal(t, "alice", got.Subject())
	})

	t.Run("expiry is checked against the store clock", func(t *testing.T) {
		tok, err := s.Create(ctx, token.NewPayload(), clock.now.Add(time.Minute))
		require.NoError(t, err)

		got, err := s.Load(ctx, tok.ID())
		require.NoError(t, err)
		require.NotNil(t, got)

		later := &fakeClock{now: clock.now.Add(time.Hour)}
		laterStore, err := New(testKey, "https://issuer.example.com/", token.WithClock(later))
		require.NoError(t, err)

		got, err = laterStore.Load(ctx, tok.ID())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("tampered and foreign tokens are absent", func(t *testing.T) {
		tok, err := s.Create(ctx, token.NewPayload().With("sub", "alice"), time.Time{})
		require.NoError(t, err)

		got, err := s.Load(ctx, tok.ID()+"x")
		require.NoError(t, err)
		assert.Nil(t, got)

		other, err := New([]byte("ffffffffffffffffffffffffffffffff"), "https://issuer.example.com/")
		require.NoError(t, err)
		got, err = other.Load(ctx, tok.ID())
		require.NoError(t, err)
		assert.Nil(t, got)

		otherIssuer, err := New(testKey, "https://elsewhere.example.com/")
		require.NoError(t, err)
		got, err = otherIssuer.Load(ctx, tok.ID())
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = s.Load(ctx, "not-a-jwt")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete is a no-op", func(t *testing.T) {
		tok, err := s.Create(ctx, token.NewPayload(), time.Time{})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, tok))
		require.NoError(t, s.Delete(ctx, nil))
	})
}
