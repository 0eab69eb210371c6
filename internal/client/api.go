package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/periskope/chat/internal/domain"
)

// API is a thin client for the chat backend's HTTP endpoints.
type API struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Session *domain.Session `json:"session"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func (a *API) BaseURL() string {
	return a.baseURL
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

func (a *API) SignUp(ctx context.Context, email, password, phone string) (*AuthResponse, error) {
	var resp AuthResponse
	body := map[string]string{"email": email, "password": password, "phone": phone}
	if err := a.do(ctx, http.MethodPost, "/auth/v1/signup", nil, body, &resp); err != nil {
		return nil, err
	}
	a.SetToken(resp.Session.AccessToken)
	return &resp, nil
}

func (a *API) SignIn(ctx context.Context, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	body := map[string]string{"email": email, "password": password}
	if err := a.do(ctx, http.MethodPost, "/auth/v1/token", nil, body, &resp); err != nil {
		return nil, err
	}
	a.SetToken(resp.Session.AccessToken)
	return &resp, nil
}

// SignOut drops the token even if the backend call fails.
func (a *API) SignOut(ctx context.Context) error {
	defer a.SetToken("")
	if a.Token() == "" {
		return nil
	}
	return a.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
}

// Session returns the account behind the current token.
func (a *API) Session(ctx context.Context) (*domain.Account, error) {
	if a.Token() == "" {
		return nil, ErrNotAuthenticated
	}
	var resp struct {
		Account *domain.Account `json:"account"`
	}
	if err := a.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Account == nil {
		return nil, ErrNotAuthenticated
	}
	return resp.Account, nil
}

func (a *API) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := a.do(ctx, http.MethodGet, "/rest/v1/profile", nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) UpdateProfile(ctx context.Context, update domain.ProfileUpdate) (*domain.Profile, error) {
	var p domain.Profile
	if err := a.do(ctx, http.MethodPatch, "/rest/v1/profile", nil, update, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *API) Stats(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	if err := a.do(ctx, http.MethodGet, "/rest/v1/stats", nil, nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (a *API) listContacts(ctx context.Context, owner string) ([]domain.Contact, error) {
	var contacts []domain.Contact
	q := url.Values{}
	if owner != "" {
		q.Set("phone", owner)
	}
	if err := a.do(ctx, http.MethodGet, "/rest/v1/contacts", q, nil, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

func (a *API) createContact(ctx context.Context, owner, name, number string) (*domain.Contact, error) {
	var c domain.Contact
	body := map[string]string{"phone": owner, "contact_name": name, "contact_number": number}
	if err := a.do(ctx, http.MethodPost, "/rest/v1/contacts", nil, body, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (a *API) listMessages(ctx context.Context, self, peer string) ([]domain.Message, error) {
	var messages []domain.Message
	q := url.Values{"self": {self}, "peer": {peer}}
	if err := a.do(ctx, http.MethodGet, "/rest/v1/messages", q, nil, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (a *API) createMessage(ctx context.Context, sender, recipient, content string) (*domain.Message, error) {
	var m domain.Message
	body := map[string]string{"sender": sender, "recipient": recipient, "content": content}
	if err := a.do(ctx, http.MethodPost, "/rest/v1/messages", nil, body, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *API) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := a.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Error == nil {
		return &APIError{Status: resp.StatusCode, Code: http.StatusText(resp.StatusCode), Message: strings.TrimSpace(string(data))}
	}
	envelope.Error.Status = resp.StatusCode
	return envelope.Error
}
