// Package rpc holds the discovery and liveness endpoints exposed to
// clients. Infrastructure failures are folded into the response payload as
// {success:false, error}; the RPCs never return a transport-level error to
// the offending client.
package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/heroiclabs/nakama-common/runtime"

	"tictactoe/internal/match"
)

const (
	serverName    = "Tic-Tac-Toe Nakama Server"
	serverVersion = "1.0.0"

	matchListLimit = 10
)

type matchResponse struct {
	Success bool   `json:"success"`
	MatchID string `json:"matchId,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Server    string `json:"server"`
	Version   string `json:"version"`
}

// FindMatch reuses an open match that still has a free slot, creating a
// fresh one only when none exists.
func FindMatch(ctx context.Context, logger runtime.Logger, _ *sql.DB, nk runtime.NakamaModule, _ string) (string, error) {
	minSize, maxSize := 0, 1

	matches, err := nk.MatchList(ctx, matchListLimit, true, "", &minSize, &maxSize, "")
	if err != nil {
		logger.Error("match list failed: %v", err)
		return marshalMatchFailure(err)
	}

	if len(matches) > 0 {
		matchID := matches[0].GetMatchId()
		logger.Info("found existing match: %s", matchID)
		return marshalMatchSuccess(matchID)
	}

	matchID, err := nk.MatchCreate(ctx, match.ModuleName, nil)
	if err != nil {
		logger.Error("match create failed: %v", err)
		return marshalMatchFailure(err)
	}

	logger.Info("created new match: %s", matchID)

	return marshalMatchSuccess(matchID)
}

// CreateMatch always creates a fresh match.
func CreateMatch(ctx context.Context, logger runtime.Logger, _ *sql.DB, nk runtime.NakamaModule, _ string) (string, error) {
	matchID, err := nk.MatchCreate(ctx, match.ModuleName, nil)
	if err != nil {
		logger.Error("match create failed: %v", err)
		return marshalMatchFailure(err)
	}

	logger.Info("created new match: %s", matchID)

	return marshalMatchSuccess(matchID)
}

// HealthCheck reports module liveness.
func HealthCheck(_ context.Context, _ runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, _ string) (string, error) {
	response, err := json.Marshal(healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UnixMilli(),
		Server:    serverName,
		Version:   serverVersion,
	})
	if err != nil {
		return "", runtime.NewError("failed to marshal health response", 13)
	}

	return string(response), nil
}

func marshalMatchSuccess(matchID string) (string, error) {
	response, err := json.Marshal(matchResponse{Success: true, MatchID: matchID})
	if err != nil {
		return "", runtime.NewError("failed to marshal match response", 13)
	}
	return string(response), nil
}

func marshalMatchFailure(cause error) (string, error) {
	response, err := json.Marshal(matchResponse{Success: false, Error: cause.Error()})
	if err != nil {
		return "", runtime.NewError("failed to marshal match response", 13)
	}
	return string(response), nil
}
