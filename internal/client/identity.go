package client

import (
	"context"
	"errors"
	"sync"
)

// IdentityResolver maps the current session to the caller's phone identity.
// The result is cached per access token.
type IdentityResolver struct {
	api *API

	mu       sync.Mutex
	token    string
	identity string
}

func NewIdentityResolver(api *API) *IdentityResolver {
	return &IdentityResolver{api: api}
}

func (r *IdentityResolver) ResolveOwnIdentity(ctx context.Context) (string, error) {
	token := r.api.Token()
	if token == "" {
		return "", ErrNotAuthenticated
	}

	r.mu.Lock()
	if r.token == token && r.identity != "" {
		id := r.identity
		r.mu.Unlock()
		return id, nil
	}
	r.mu.Unlock()

	if _, err := r.api.Session(ctx); err != nil {
		if errors.Is(err, ErrNotAuthenticated) {
			return "", ErrNotAuthenticated
		}
		return "", &FetchError{Op: "load session", Err: err}
	}

	profile, err := r.api.Profile(ctx)
	if err != nil {
		switch {
		case isNotFound(err):
			return "", ErrProfileMissing
		case errors.Is(err, ErrNotAuthenticated):
			return "", ErrNotAuthenticated
		}
		return "", &FetchError{Op: "load profile", Err: err}
	}
	if profile.Phone == "" {
		return "", ErrProfileMissing
	}

	r.mu.Lock()
	r.token, r.identity = token, profile.Phone
	r.mu.Unlock()
	return profile.Phone, nil
}

// Invalidate forgets the cached identity, e.g. after a profile update or sign-out.
func (r *IdentityResolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token, r.identity = "", ""
}
