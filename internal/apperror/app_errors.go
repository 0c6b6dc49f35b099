package apperror

import "errors"

var (
	ErrMatchFull     = errors.New("match is full")
	ErrGameNotActive = errors.New("game is not active")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrInvalidCell   = errors.New("invalid cell index")
	ErrCellOccupied  = errors.New("cell is already occupied")

	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotConnected     = errors.New("socket is not connected")
	ErrNoActiveMatch    = errors.New("not in a match")
)
