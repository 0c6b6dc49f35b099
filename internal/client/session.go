// Package client wraps the hosted game server's HTTP and realtime APIs for
// the terminal client: authentication, socket connect, match discovery and
// membership, move submission, and decoding of inbound match events into a
// client-side state mirror.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"tictactoe/internal/apperror"
	"tictactoe/internal/config"
)

const (
	// Accounts are derived from the username alone; every player shares the
	// same throwaway password and an email in a reserved domain.
	emailDomain    = "@tictactoe.com"
	sharedPassword = "password123"
	minUsernameLen = 3
	requestTimeout = 10 * time.Second

	// LeaveTimeout bounds the goodbye exchange during shutdown.
	LeaveTimeout = 5 * time.Second
)

var (
	ErrUsernameTooShort = errors.New("username must be at least 3 characters")

	usernameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_]`)
)

type Session struct {
	Token    string
	UserID   string
	Username string
}

// Service is the client-side session service. It is not safe for concurrent
// use; the terminal client drives it from a single goroutine.
type Service struct {
	logger *slog.Logger
	server *config.Server

	httpClient *http.Client

	session *Session
	socket  *Socket
	matchID string
}

func New(logger *slog.Logger, server *config.Server) *Service {
	return &Service{
		logger:     logger.With("component", "client"),
		server:     server,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

func (that *Service) Session() *Session {
	return that.session
}

func (that *Service) MatchID() string {
	return that.matchID
}

// Authenticate registers or signs in the account derived from username and
// stores the resulting session token.
func (that *Service) Authenticate(ctx context.Context, username string) (*Session, error) {
	log := that.logger.With("method", "Authenticate")

	cleaned := usernameCleaner.ReplaceAllString(strings.TrimSpace(username), "")
	if len(cleaned) < minUsernameLen {
		return nil, ErrUsernameTooShort
	}

	body, err := json.Marshal(map[string]string{
		"email":    strings.ToLower(cleaned) + emailDomain,
		"password": sharedPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal credentials: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/account/authenticate/email?create=true&username=%s",
		that.server.BaseURL(), url.QueryEscape(cleaned))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.SetBasicAuth(that.server.Key, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read auth response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth rejected: %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err = json.Unmarshal(respBody, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal auth response: %w", err)
	}

	session, err := sessionFromToken(tokenResp.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	that.session = session

	log.Info("authenticated", "username", session.Username, "userID", session.UserID)

	return session, nil
}

// sessionFromToken pulls the user identity out of the session JWT claims.
func sessionFromToken(token string) (*Session, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("token is not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}

	var claims struct {
		UserID   string `json:"uid"`
		Username string `json:"usn"`
	}
	if err = json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token claims: %w", err)
	}

	return &Session{
		Token:    token,
		UserID:   claims.UserID,
		Username: claims.Username,
	}, nil
}

type matchResponse struct {
	Success bool   `json:"success"`
	MatchID string `json:"matchId"`
	Error   string `json:"error"`
}

// HealthStatus mirrors the health_check RPC payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Server    string `json:"server"`
	Version   string `json:"version"`
}

// FindMatch asks the server for an open match, creating one when none has a
// free slot.
func (that *Service) FindMatch(ctx context.Context) (string, error) {
	return that.matchRPC(ctx, "find_match")
}

// CreateMatch always creates a fresh match.
func (that *Service) CreateMatch(ctx context.Context) (string, error) {
	return that.matchRPC(ctx, "create_match")
}

func (that *Service) matchRPC(ctx context.Context, id string) (string, error) {
	body, err := that.rpc(ctx, id, struct{}{})
	if err != nil {
		return "", err
	}

	var result matchResponse
	if err = json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal %s response: %w", id, err)
	}

	if !result.Success {
		return "", fmt.Errorf("%s rejected: %s", id, result.Error)
	}

	return result.MatchID, nil
}

// Health calls the module liveness endpoint.
func (that *Service) Health(ctx context.Context) (*HealthStatus, error) {
	body, err := that.rpc(ctx, "health_check", struct{}{})
	if err != nil {
		return nil, err
	}

	var status HealthStatus
	if err = json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health response: %w", err)
	}

	return &status, nil
}

// rpc performs an authenticated RPC over HTTP with unwrapped payloads.
func (that *Service) rpc(ctx context.Context, id string, payload any) ([]byte, error) {
	if that.session == nil {
		return nil, apperror.ErrNotAuthenticated
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rpc payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/rpc/%s?unwrap=true", that.server.BaseURL(), url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build rpc request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+that.session.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := that.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc %s failed: %w", id, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rpc response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rpc %s rejected: %s: %s", id, resp.Status, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}
