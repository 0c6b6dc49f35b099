package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	t.Run("Returns the symbol for every winning triple", func(t *testing.T) {
		// Given: each of the 8 winning triples filled with X
		for _, combo := range WinCombos {
			var board [9]string
			board[combo[0]] = "X"
			board[combo[1]] = "X"
			board[combo[2]] = "X"

			// When: evaluating the board
			winner := Evaluate(board)

			// Then: X is reported as the winner
			assert.Equal(t, "X", winner, "combo %v", combo)
		}
	})

	t.Run("Returns O when O completes a column", func(t *testing.T) {
		// Given: O occupies the first column
		board := [9]string{
			"O", "X", "X",
			"O", "", "",
			"O", "", "X",
		}

		// When: evaluating the board
		winner := Evaluate(board)

		// Then: O is the winner
		assert.Equal(t, "O", winner)
	})

	t.Run("Returns empty for a board still in progress", func(t *testing.T) {
		// Given: a partially filled board with no complete triple
		board := [9]string{
			"X", "O", "",
			"", "X", "",
			"", "", "O",
		}

		// When: evaluating the board
		winner := Evaluate(board)

		// Then: nobody has won
		assert.Empty(t, winner)
	})

	t.Run("Returns empty for a full board with no winner", func(t *testing.T) {
		// Given: a full board with no three-in-a-row; the caller decides the
		// draw from the move count, not from Evaluate
		board := [9]string{
			"X", "O", "X",
			"O", "X", "O",
			"O", "X", "O",
		}

		// When: evaluating the board
		winner := Evaluate(board)

		// Then: no winner is reported
		assert.Empty(t, winner)
	})

	t.Run("Returns empty for an empty board", func(t *testing.T) {
		// Given: a fresh board
		var board [9]string

		// When: evaluating the board
		winner := Evaluate(board)

		// Then: no winner is reported
		assert.Empty(t, winner)
	})
}
