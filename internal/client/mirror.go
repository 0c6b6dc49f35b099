package client

import (
	"tictactoe/internal/entity"
)

// Stats counts outcomes across one session.
type Stats struct {
	Wins   int
	Losses int
	Draws  int
}

// Mirror is the client-side projection of the authoritative match state plus
// UI-only fields. Every game_start/game_update broadcast replaces the game
// fields wholesale; the client never mutates the board locally, not even
// optimistically on move submission.
type Mirror struct {
	Board       [9]string
	Players     [2]*entity.Player
	CurrentTurn string
	Status      string
	Winner      string
	MoveCount   int

	MatchID  string
	UserID   string
	Username string
	MySymbol string

	IsAuthenticated bool
	IsLoading       bool

	LastMessage string
	Stats       Stats
}

func NewMirror() *Mirror {
	return &Mirror{Status: "idle"}
}

func (that *Mirror) SetUser(userID, username string) {
	that.UserID = userID
	that.Username = username
	that.IsAuthenticated = true
}

func (that *Mirror) SetMatch(matchID string) {
	that.MatchID = matchID
	that.Status = entity.StatusWaiting
}

// Apply folds one inbound event into the mirror.
func (that *Mirror) Apply(event Event) {
	switch event.Type {
	case "game_start", "game_update":
		that.applyState(event.State)
	case "player_left":
		that.LastMessage = event.Message
		that.endByDeparture()
	}
}

// endByDeparture mirrors the abandonment transition the server performs on
// leave. The departure notice carries no state envelope, so the mirror ends
// the game itself.
func (that *Mirror) endByDeparture() {
	if that.Status != entity.StatusActive {
		return
	}

	that.Status = entity.StatusEnded
	that.Winner = entity.WinnerOpponentLeft
	that.CurrentTurn = ""
	that.recordOutcome(entity.WinnerOpponentLeft)
}

func (that *Mirror) applyState(state *entity.MatchState) {
	wasEnded := that.Status == entity.StatusEnded

	that.Board = state.Board
	that.Players = state.Players
	that.CurrentTurn = state.CurrentTurn
	that.Status = state.Status
	that.Winner = state.Winner
	that.MoveCount = state.MoveCount

	if player := state.PlayerByID(that.UserID); player != nil {
		that.MySymbol = player.Symbol
	}

	if !wasEnded && state.IsEnded() {
		that.recordOutcome(state.Winner)
	}
}

func (that *Mirror) recordOutcome(winner string) {
	switch winner {
	case entity.WinnerDraw:
		that.Stats.Draws++
	case that.UserID, entity.WinnerOpponentLeft:
		// a departed opponent forfeits
		that.Stats.Wins++
	default:
		that.Stats.Losses++
	}
}

func (that *Mirror) IsMyTurn() bool {
	return that.Status == entity.StatusActive && that.CurrentTurn == that.UserID
}

// Opponent returns the other seated player, or nil while waiting.
func (that *Mirror) Opponent() *entity.Player {
	for _, player := range that.Players {
		if player != nil && player.UserID != that.UserID {
			return player
		}
	}
	return nil
}

// ResetGame clears the game fields but keeps identity and stats, leaving the
// mirror ready for the next match.
func (that *Mirror) ResetGame() {
	that.Board = [9]string{}
	that.Players = [2]*entity.Player{}
	that.CurrentTurn = ""
	that.Status = "idle"
	that.Winner = ""
	that.MoveCount = 0
	that.MatchID = ""
	that.MySymbol = ""
	that.LastMessage = ""
	that.IsLoading = false
}
