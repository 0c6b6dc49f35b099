package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/heroiclabs/nakama-common/runtime"

	"tictactoe/internal/match"
	"tictactoe/internal/rpc"
)

// InitModule is the plugin entry point the game server calls once at
// startup. All wiring happens here: the match handler factory and the RPC
// endpoints are registered exactly once, with no other global state.
func InitModule(_ context.Context, logger runtime.Logger, _ *sql.DB, _ runtime.NakamaModule, initializer runtime.Initializer) error {
	if err := initializer.RegisterMatch(match.ModuleName, match.NewHandler); err != nil {
		return fmt.Errorf("failed to register match handler: %w", err)
	}

	if err := initializer.RegisterRpc("find_match", rpc.FindMatch); err != nil {
		return fmt.Errorf("failed to register find_match: %w", err)
	}

	if err := initializer.RegisterRpc("create_match", rpc.CreateMatch); err != nil {
		return fmt.Errorf("failed to register create_match: %w", err)
	}

	if err := initializer.RegisterRpc("health_check", rpc.HealthCheck); err != nil {
		return fmt.Errorf("failed to register health_check: %w", err)
	}

	logger.Info("tic-tac-toe module loaded")

	return nil
}

// main is never called; the module is built with --buildmode=plugin and the
// server enters through InitModule.
func main() {}

