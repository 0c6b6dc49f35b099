package match

import (
	"context"
	"database/sql"

	"github.com/heroiclabs/nakama-common/runtime"

	"tictactoe/internal/entity"
	"tictactoe/internal/tictactoe"
)

const (
	// ModuleName is the handler name matches are created under.
	ModuleName = "tictactoe"

	tickRate = 1
	label    = "Tic-Tac-Toe Match"

	rejectMatchFull = "Match is full"
)

// Handler implements runtime.Match for a single two-player tic-tac-toe
// match. All mutation goes through entity.MatchState and the tictactoe
// controller; this type only adapts the platform callbacks and broadcasts.
//
// Rule violations (wrong turn, occupied cell, out-of-range position, move
// while not active) are dropped without feedback to the sender. A production
// version should acknowledge rejected moves; kept as-is for now.
type Handler struct{}

// NewHandler is the factory registered with the platform; one Handler is
// created per match.
func NewHandler(_ context.Context, _ runtime.Logger, _ *sql.DB, _ runtime.NakamaModule) (runtime.Match, error) {
	return &Handler{}, nil
}

func (that *Handler) MatchInit(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, _ map[string]interface{}) (interface{}, int, string) {
	state := entity.NewMatchState()

	logger.Info("match initialized")

	return state, tickRate, label
}

func (that *Handler) MatchJoinAttempt(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, _ runtime.MatchDispatcher, _ int64, state interface{}, presence runtime.Presence, _ map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*entity.MatchState)
	if !ok {
		logger.Error("state is not a MatchState")
		return state, false, "internal error"
	}

	if !matchState.CanJoin() {
		logger.Warn("match full, rejecting player: %s", presence.GetUsername())
		return matchState, false, rejectMatchFull
	}

	return matchState, true, ""
}

func (that *Handler) MatchJoin(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, dispatcher runtime.MatchDispatcher, _ int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*entity.MatchState)
	if !ok {
		logger.Error("state is not a MatchState")
		return state
	}

	wasWaiting := matchState.IsWaiting()

	for _, presence := range presences {
		player := &entity.Player{
			UserID:    presence.GetUserId(),
			Username:  presence.GetUsername(),
			SessionID: presence.GetSessionId(),
		}

		if err := matchState.AddPlayer(player); err != nil {
			logger.Warn("could not seat player %s: %v", player.Username, err)
			continue
		}

		logger.Info("player joined: %s as %s", player.Username, player.Symbol)
	}

	if wasWaiting && matchState.IsActive() {
		logger.Info("both players connected, game starting")
		that.broadcastState(logger, dispatcher, TypeGameStart, matchState)
	}

	return matchState
}

func (that *Handler) MatchLeave(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, dispatcher runtime.MatchDispatcher, _ int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*entity.MatchState)
	if !ok {
		logger.Error("state is not a MatchState")
		return state
	}

	for _, presence := range presences {
		player, abandoned := matchState.RemovePlayer(presence.GetUserId())
		if player == nil {
			continue
		}

		logger.Info("player left: %s", player.Username)

		if !abandoned {
			continue
		}

		payload, err := encodeNoticeEvent(TypePlayerLeft, player.Username+" left the game")
		if err != nil {
			logger.Error("%v", err)
			continue
		}

		if err = dispatcher.BroadcastMessage(OpCodePlayerLeft, payload, nil, nil, true); err != nil {
			logger.Error("failed to broadcast player_left: %v", err)
		}
	}

	// free slot pair means the match is rematch-ready
	if matchState.PlayerCount() == 0 {
		matchState.Reset()
	}

	return matchState
}

func (that *Handler) MatchLoop(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, dispatcher runtime.MatchDispatcher, _ int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*entity.MatchState)
	if !ok {
		logger.Error("state is not a MatchState")
		return state
	}

	for _, message := range messages {
		decoded, err := decodeClientMessage(message.GetData())
		if err != nil {
			logger.Warn("dropping message from %s: %v", message.GetUserId(), err)
			continue
		}

		switch msg := decoded.(type) {
		case MoveMessage:
			that.handleMove(logger, dispatcher, matchState, message.GetUserId(), msg.Position)
		}
	}

	return matchState
}

func (that *Handler) MatchTerminate(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, _ runtime.MatchDispatcher, _ int64, state interface{}, graceSeconds int) interface{} {
	logger.Info("match terminating, grace %ds", graceSeconds)
	return state
}

func (that *Handler) MatchSignal(_ context.Context, _ runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, _ runtime.MatchDispatcher, _ int64, state interface{}, _ string) (interface{}, string) {
	return state, ""
}

// handleMove applies a move and, when it is accepted, broadcasts the new
// state. Rejected moves change nothing and stay silent.
func (that *Handler) handleMove(logger runtime.Logger, dispatcher runtime.MatchDispatcher, state *entity.MatchState, userID string, position int) {
	if err := tictactoe.MakeMove(state, userID, position); err != nil {
		logger.Warn("move rejected for %s: %v", userID, err)
		return
	}

	logger.Info("move accepted: %s at %d", userID, position)

	that.broadcastState(logger, dispatcher, TypeGameUpdate, state)
}

func (that *Handler) broadcastState(logger runtime.Logger, dispatcher runtime.MatchDispatcher, eventType string, state *entity.MatchState) {
	payload, err := encodeStateEvent(eventType, state)
	if err != nil {
		logger.Error("%v", err)
		return
	}

	if err = dispatcher.BroadcastMessage(OpCodeGameData, payload, nil, nil, true); err != nil {
		logger.Error("failed to broadcast %s: %v", eventType, err)
	}
}
