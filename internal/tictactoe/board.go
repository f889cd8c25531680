package tictactoe

const (
	BoardSize = 25

	PlayerX   = "X"
	PlayerO   = "O"
	EmptyCell = ""

	NoBlockedCell = -1
)

// WinLines enumerates every 4-in-a-row and 5-in-a-row window of the 5x5
// board: rows, columns, then both diagonal directions. CheckWinner
// scans it in this exact order, so the first matching window is a
// stable contract for clients highlighting the line.
var WinLines = [][]int{
	{0, 1, 2, 3, 4}, {0, 1, 2, 3}, {1, 2, 3, 4},
	{5, 6, 7, 8, 9}, {5, 6, 7, 8}, {6, 7, 8, 9},
	{10, 11, 12, 13, 14}, {10, 11, 12, 13}, {11, 12, 13, 14},
	{15, 16, 17, 18, 19}, {15, 16, 17, 18}, {16, 17, 18, 19},
	{20, 21, 22, 23, 24}, {20, 21, 22, 23}, {21, 22, 23, 24},

	{0, 5, 10, 15, 20}, {0, 5, 10, 15}, {5, 10, 15, 20},
	{1, 6, 11, 16, 21}, {1, 6, 11, 16}, {6, 11, 16, 21},
	{2, 7, 12, 17, 22}, {2, 7, 12, 17}, {7, 12, 17, 22},
	{3, 8, 13, 18, 23}, {3, 8, 13, 18}, {8, 13, 18, 23},
	{4, 9, 14, 19, 24}, {4, 9, 14, 19}, {9, 14, 19, 24},

	{0, 6, 12, 18, 24}, {4, 8, 12, 16, 20},
	{0, 6, 12, 18}, {6, 12, 18, 24},
	{1, 7, 13, 19}, {5, 11, 17, 23},
	{4, 8, 12, 16}, {8, 12, 16, 20},
	{3, 7, 11, 15}, {9, 13, 17, 21},
}

// CheckWinner - scans the win table and returns the first fully-matched
// line's symbol plus its two endpoint cells.
func CheckWinner(board *[BoardSize]string) (winner string, start, end int, ok bool) {
	for _, line := range WinLines {
		symbol := board[line[0]]
		if symbol == EmptyCell {
			continue
		}

		matched := true
		for _, cell := range line[1:] {
			if board[cell] != symbol {
				matched = false
				break
			}
		}

		if matched {
			return symbol, line[0], line[len(line)-1], true
		}
	}

	return EmptyCell, 0, 0, false
}
