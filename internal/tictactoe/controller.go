package tictactoe

import (
	"fmt"

	"tictactoe/internal/apperror"
	"tictactoe/internal/entity"
)

// MakeMove applies one move to the match state. Validation order: game must
// be active, sender must hold the turn, position must be on the board, cell
// must be free. A failed validation leaves the state untouched.
func MakeMove(state *entity.MatchState, userID string, position int) error {
	if err := validateMove(state, userID, position); err != nil {
		return fmt.Errorf("invalid move: %w", err)
	}

	player := state.PlayerByID(userID)
	state.Board[position] = player.Symbol
	state.MoveCount++

	updateGameStatus(state, userID)

	return nil
}

// validateMove - checks if the move is valid.
func validateMove(state *entity.MatchState, userID string, position int) error {
	if !state.IsActive() {
		return apperror.ErrGameNotActive
	}

	if state.CurrentTurn != userID {
		return apperror.ErrNotYourTurn
	}

	if position < 0 || position >= len(state.Board) {
		return fmt.Errorf("%w: %d", apperror.ErrInvalidCell, position)
	}

	if state.Board[position] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	return nil
}

// updateGameStatus - resolves the board after a move: win, draw, or handoff.
func updateGameStatus(state *entity.MatchState, userID string) {
	if winner := Evaluate(state.Board); winner != "" {
		state.Winner = userID
		state.Status = entity.StatusEnded
		state.CurrentTurn = ""
		return
	}

	if state.MoveCount == len(state.Board) {
		state.Winner = entity.WinnerDraw
		state.Status = entity.StatusEnded
		state.CurrentTurn = ""
		return
	}

	// exactly one other seat is occupied while the game is active
	state.CurrentTurn = state.Opponent(userID).UserID
}
