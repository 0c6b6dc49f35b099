package entity

import (
	"time"

	"tictactoe/internal/apperror"
)

const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
	StatusEnded   = "ended"

	SymbolX = "X"
	SymbolO = "O"

	WinnerDraw         = "draw"
	WinnerOpponentLeft = "opponent_left"

	EmptyCell = ""
)

// MatchState is the authoritative state of one match. It is owned by the
// match handler and mutated only through the lifecycle transitions below;
// the hosting platform serializes all calls, so no locking happens here.
type MatchState struct {
	Board       [9]string  `json:"board"`
	Players     [2]*Player `json:"players"`
	CurrentTurn string     `json:"currentTurn"`
	Status      string     `json:"gameStatus"`
	Winner      string     `json:"winner"`
	MoveCount   int        `json:"moveCount"`
	CreatedAt   int64      `json:"createdAt"`
}

func NewMatchState() *MatchState {
	return &MatchState{
		Status:    StatusWaiting,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// Reset returns the state to the fresh-match shape, freeing both slots.
func (that *MatchState) Reset() {
	*that = *NewMatchState()
}

func (that *MatchState) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *MatchState) IsActive() bool {
	return that.Status == StatusActive
}

func (that *MatchState) IsEnded() bool {
	return that.Status == StatusEnded
}

func (that *MatchState) PlayerCount() int {
	count := 0
	for _, player := range that.Players {
		if player != nil {
			count++
		}
	}
	return count
}

func (that *MatchState) PlayerByID(userID string) *Player {
	for _, player := range that.Players {
		if player != nil && player.UserID == userID {
			return player
		}
	}
	return nil
}

// Opponent returns the player occupying the other slot, or nil.
func (that *MatchState) Opponent(userID string) *Player {
	for _, player := range that.Players {
		if player != nil && player.UserID != userID {
			return player
		}
	}
	return nil
}

// CanJoin reports whether the match accepts another player. Only waiting
// matches do: a game that ended by abandonment keeps its remaining player
// seated and never returns to active.
func (that *MatchState) CanJoin() bool {
	return that.IsWaiting() && that.PlayerCount() < 2
}

// AddPlayer seats a participant in the first free slot. Symbols follow
// arrival order only: the first seated player is X and gets the first turn,
// the second is O. Seating the second player starts the game.
func (that *MatchState) AddPlayer(player *Player) error {
	if !that.CanJoin() {
		return apperror.ErrMatchFull
	}

	if that.PlayerCount() == 0 {
		player.Symbol = SymbolX
		that.CurrentTurn = player.UserID
	} else {
		player.Symbol = SymbolO
	}

	for i, slot := range that.Players {
		if slot == nil {
			that.Players[i] = player
			break
		}
	}

	if that.PlayerCount() == 2 {
		that.Status = StatusActive
	}

	return nil
}

// RemovePlayer frees the participant's slot. It reports the removed player
// and whether an active game was abandoned by the departure; abandoning ends
// the game with the opponent_left outcome. Departures during waiting free
// the slot without ending anything.
func (that *MatchState) RemovePlayer(userID string) (*Player, bool) {
	var removed *Player
	for i, player := range that.Players {
		if player != nil && player.UserID == userID {
			removed = player
			that.Players[i] = nil
			break
		}
	}

	if removed == nil {
		return nil, false
	}

	if !that.IsActive() {
		return removed, false
	}

	that.Status = StatusEnded
	that.Winner = WinnerOpponentLeft
	that.CurrentTurn = ""

	return removed, true
}
