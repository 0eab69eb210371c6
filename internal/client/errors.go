package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotAuthenticated means there is no usable session. Callers send the user to login.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrProfileMissing means the session is valid but carries no phone identity.
	ErrProfileMissing = errors.New("profile has no phone number")
	ErrViewClosed     = errors.New("conversation view is closed")
	ErrNoSelection    = errors.New("no contact selected")
)

// ValidationError is a local input error. It never reaches the backend.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// PersistenceError is a rejected backend write.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// FetchError is a failed backend read.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// APIError is the backend's JSON error envelope together with the HTTP status.
type APIError struct {
	Status  int               `json:"-"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" && len(e.Fields) > 0 {
		for _, msg := range e.Fields {
			return fmt.Sprintf("%s: %s", e.Code, msg)
		}
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is lets a 401 from any endpoint match ErrNotAuthenticated.
func (e *APIError) Is(target error) bool {
	return target == ErrNotAuthenticated && e.Status == http.StatusUnauthorized
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
