package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func identityServer(t *testing.T, userStatus, profileStatus int, profileBody string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userStatus)
		if userStatus == http.StatusOK {
			w.Write([]byte(`{"account":{"id":"6f1c1f0e-8a39-4d0f-9d5e-2b7f4f6e1a11","email":"a@example.com"}}`))
		} else {
			w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"Invalid or expired token"}}`))
		}
	})
	mux.HandleFunc("GET /rest/v1/profile", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(profileStatus)
		w.Write([]byte(profileBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResolveOwnIdentity(t *testing.T) {
	require := require.New(t)
	srv, calls := identityServer(t, http.StatusOK, http.StatusOK, `{"phone":"9999999999"}`)

	api := NewAPI(srv.URL, srv.Client())
	api.SetToken("token-1")
	r := NewIdentityResolver(api)

	id, err := r.ResolveOwnIdentity(context.Background())
	require.NoError(err)
	require.Equal("9999999999", id)

	id, err = r.ResolveOwnIdentity(context.Background())
	require.NoError(err)
	require.Equal("9999999999", id)
	require.EqualValues(2, calls.Load(), "second call is served from the cache")

	r.Invalidate()
	_, err = r.ResolveOwnIdentity(context.Background())
	require.NoError(err)
	require.EqualValues(4, calls.Load())

	api.SetToken("token-2")
	_, err = r.ResolveOwnIdentity(context.Background())
	require.NoError(err)
	require.EqualValues(6, calls.Load(), "a new token is resolved again")
}

func TestResolveWithoutToken(t *testing.T) {
	srv, calls := identityServer(t, http.StatusOK, http.StatusOK, `{"phone":"9999999999"}`)
	r := NewIdentityResolver(NewAPI(srv.URL, srv.Client()))

	_, err := r.ResolveOwnIdentity(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
	require.Zero(t, calls.Load())
}

func TestResolveExpiredSession(t *testing.T) {
	srv, _ := identityServer(t, http.StatusUnauthorized, http.StatusOK, `{}`)
	api := NewAPI(srv.URL, srv.Client())
	api.SetToken("expired")

	_, err := NewIdentityResolver(api).ResolveOwnIdentity(context.Background())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestResolveProfileMissing(t *testing.T) {
	for name, tc := range map[string]struct {
		status int
		body   string
	}{
		"no row":      {http.StatusNotFound, `{"error":{"code":"PROFILE_NOT_FOUND","message":"Profile not found"}}`},
		"empty phone": {http.StatusOK, `{"phone":""}`},
	} {
		t.Run(name, func(t *testing.T) {
			srv, _ := identityServer(t, http.StatusOK, tc.status, tc.body)
			api := NewAPI(srv.URL, srv.Client())
			api.SetToken("token")

			_, err := NewIdentityResolver(api).ResolveOwnIdentity(context.Background())
			require.ErrorIs(t, err, ErrProfileMissing)
		})
	}
}
