package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestParseToken(t *testing.T) {
	require := require.New(t)
	id := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	got, err := ParseToken(sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": id.String(), "exp": exp}), secret)
	require.NoError(err)
	require.Equal(id, got)

	for name, token := range map[string]string{
		"expired":      sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": id.String(), "exp": time.Now().Add(-time.Minute).Unix()}),
		"wrong secret": sign(t, jwt.SigningMethodHS256, "other", jwt.MapClaims{"sub": id.String(), "exp": exp}),
		"wrong alg":    sign(t, jwt.SigningMethodHS384, secret, jwt.MapClaims{"sub": id.String(), "exp": exp}),
		"bad subject":  sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": "alice", "exp": exp}),
		"no subject":   sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"exp": exp}),
		"malformed":    "a.b.c",
	} {
		_, err := ParseToken(token, secret)
		require.ErrorIs(err, ErrInvalidToken, name)
	}
}

func TestAuth(t *testing.T) {
	require := require.New(t)
	id := uuid.New()

	var seen uuid.UUID
	h := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer abc"} {
		req := httptest.NewRequest(http.MethodGet, "/rest/v1/profile", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(http.StatusUnauthorized, rec.Code, header)
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		require.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal("UNAUTHORIZED", body.Error.Code)
	}
	require.Equal(uuid.Nil, seen)

	req := httptest.NewRequest(http.MethodGet, "/rest/v1/profile", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{"sub": id.String(), "exp": time.Now().Add(time.Hour).Unix()}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(http.StatusNoContent, rec.Code)
	require.Equal(id, seen)
}

func TestCORSPreflight(t *testing.T) {
	require := require.New(t)
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodOptions, "/rest/v1/messages", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.False(called)
	require.NotEmpty(rec.Header().Get("Access-Control-Allow-Origin"))
}
