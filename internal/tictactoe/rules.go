package tictactoe

// WinCombos enumerates the eight winning triples in a fixed order: rows,
// then columns, then diagonals. The order is deterministic so tests can
// rely on it; a legal board can hold at most one winning symbol anyway.
var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Evaluate returns the winning symbol, or an empty string when no triple is
// complete. It never decides a draw; that is the caller's job, keyed on the
// move count.
func Evaluate(board [9]string) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != "" && a == b && b == c {
			return a
		}
	}

	return ""
}
