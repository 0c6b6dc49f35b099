package client

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tictactoe/internal/config"
)

// fakeToken builds an unsigned JWT carrying the given identity claims.
func fakeToken(t *testing.T, userID, username string) string {
	t.Helper()

	claims, err := json.Marshal(map[string]string{"uid": userID, "usn": username})
	require.NoError(t, err)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString(claims)

	return header + "." + payload + ".signature"
}

func newHTTPService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	hostPort := strings.TrimPrefix(server.URL, "http://")
	host, port, found := strings.Cut(hostPort, ":")
	require.True(t, found)

	return New(testLogger(), &config.Server{Host: host, Port: port, Key: "defaultkey"})
}

func TestService_Authenticate(t *testing.T) {
	t.Run("Derives credentials from the username and stores the session", func(t *testing.T) {
		// Given: an auth endpoint asserting the derived credentials
		token := fakeToken(t, "user-1", "Alice_99")
		service := newHTTPService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/account/authenticate/email", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("create"))
			assert.Equal(t, "Alice_99", r.URL.Query().Get("username"))

			key, _, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "defaultkey", key)

			var creds struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			assert.Equal(t, "alice_99@tictactoe.com", creds.Email)
			assert.Equal(t, "password123", creds.Password)

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
		}))

		// When: authenticating with a username that needs cleaning
		session, err := service.Authenticate(context.Background(), "  Alice_99!  ")

		// Then: the session carries the identity from the token claims
		require.NoError(t, err)
		assert.Equal(t, "user-1", session.UserID)
		assert.Equal(t, "Alice_99", session.Username)
		assert.Equal(t, token, session.Token)
		assert.Same(t, session, service.Session())
	})

	t.Run("Rejects usernames that are too short after cleaning", func(t *testing.T) {
		// Given: any service; the request must never leave the client
		service := newHTTPService(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("no request expected")
		}))

		// When: authenticating with a junk username
		_, err := service.Authenticate(context.Background(), "!&")

		// Then: the local validation fails
		assert.ErrorIs(t, err, ErrUsernameTooShort)
	})

	t.Run("Surfaces server rejections as errors", func(t *testing.T) {
		// Given: an auth endpoint that refuses
		service := newHTTPService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error":"invalid credentials"}`, http.StatusUnauthorized)
		}))

		// When: authenticating
		_, err := service.Authenticate(context.Background(), "alice")

		// Then: the failure is reported, session stays empty
		require.Error(t, err)
		assert.Nil(t, service.Session())
	})
}

func TestService_MatchRPCs(t *testing.T) {
	t.Run("FindMatch returns the match from a successful payload", func(t *testing.T) {
		// Given: an authenticated service against a find_match endpoint
		service := newHTTPService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/rpc/find_match", r.URL.Path)
			assert.Equal(t, "true", r.URL.Query().Get("unwrap"))
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "matchId": "match-1"})
		}))
		service.session = &Session{Token: "token", UserID: "user-1"}

		// When: finding a match
		matchID, err := service.FindMatch(context.Background())

		// Then: the match id is returned
		require.NoError(t, err)
		assert.Equal(t, "match-1", matchID)
	})

	t.Run("A success=false payload becomes an error", func(t *testing.T) {
		// Given: a find_match endpoint reporting a handled failure
		service := newHTTPService(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "registry down"})
		}))
		service.session = &Session{Token: "token"}

		// When: finding a match
		_, err := service.FindMatch(context.Background())

		// Then: the embedded error surfaces
		require.Error(t, err)
		assert.Contains(t, err.Error(), "registry down")
	})

	t.Run("RPCs require authentication", func(t *testing.T) {
		// Given: a service with no session
		service := newHTTPService(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("no request expected")
		}))

		// When: finding a match
		_, err := service.FindMatch(context.Background())

		// Then: it fails locally
		assert.Error(t, err)
	})

	t.Run("Health decodes the liveness payload", func(t *testing.T) {
		// Given: a health_check endpoint
		service := newHTTPService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v2/rpc/health_check", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":    "healthy",
				"timestamp": 1700000000000,
				"server":    "Tic-Tac-Toe Nakama Server",
				"version":   "1.0.0",
			})
		}))
		service.session = &Session{Token: "token"}

		// When: checking health
		status, err := service.Health(context.Background())

		// Then: the fields decode
		require.NoError(t, err)
		assert.Equal(t, "healthy", status.Status)
		assert.Equal(t, "1.0.0", status.Version)
	})
}
