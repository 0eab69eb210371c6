package client

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func sessionStore(t *testing.T) *SessionStore {
	require := require.New(t)
	s, err := OpenSessionStore("")
	require.NoError(err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionStoreRoundTrip(t *testing.T) {
	require := require.New(t)
	s := sessionStore(t)

	got, err := s.Load()
	require.NoError(err)
	require.Nil(got)

	want := &StoredSession{
		AccessToken: "tok",
		AccountID:   uuid.New(),
		Email:       "alice@example.com",
		Identity:    selfPhone,
		ExpiresAt:   time.Date(2026, 5, 1, 12, 30, 0, 0, time.UTC),
	}
	require.NoError(s.Save(want))

	got, err = s.Load()
	require.NoError(err)
	require.Equal(want.AccessToken, got.AccessToken)
	require.Equal(want.AccountID, got.AccountID)
	require.Equal(want.Email, got.Email)
	require.Equal(want.Identity, got.Identity)
	require.True(want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(s.Clear())
	got, err = s.Load()
	require.NoError(err)
	require.Nil(got)
}

func TestStoredSessionExpired(t *testing.T) {
	now := time.Now()
	require.False(t, (&StoredSession{}).Expired(now))
	require.True(t, (&StoredSession{ExpiresAt: now.Add(-time.Minute)}).Expired(now))
	require.False(t, (&StoredSession{ExpiresAt: now.Add(time.Minute)}).Expired(now))
}
