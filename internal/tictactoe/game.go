package tictactoe

import (
	"math/rand"

	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/game"
)

// Slot is one side of the board and its connection status.
type Slot struct {
	DisplayName string `json:"display_name"`
	IsOnline    bool   `json:"is_online"`
}

type Players struct {
	X Slot `json:"x"`
	O Slot `json:"o"`
}

// Game is the 5x5 blocked-cell variant: after every accepted move one
// random empty cell freezes for a turn.
type Game struct {
	Board       [BoardSize]string `json:"board"`
	Turn        string            `json:"turn"`
	Winner      string            `json:"winner,omitempty"`
	BlockedCell int               `json:"blocked_cell"`
	Players     Players           `json:"players"`
}

func NewGame() *Game {
	return &Game{
		Turn:        PlayerX,
		BlockedCell: NoBlockedCell,
	}
}

func (that *Game) IsFinished() bool {
	return that.Winner != EmptyCell
}

// Move - applies symbol at position, rotates the blocked cell and
// reports the move's events. Rejections leave the state untouched.
func (that *Game) Move(rng *rand.Rand, symbol string, position int) ([]game.Event, error) {
	if position < 0 || position >= BoardSize {
		return nil, apperror.ErrInvalidCell
	}

	if that.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	if that.Board[position] != EmptyCell {
		return nil, apperror.ErrCellOccupied
	}

	if position == that.BlockedCell {
		return nil, apperror.ErrCellBlocked
	}

	if that.Turn != symbol {
		return nil, apperror.ErrNotYourTurn
	}

	that.Board[position] = symbol
	that.toggleTurn()

	events := []game.Event{game.PutSymbol(position, symbol)}

	if winner, start, end, ok := CheckWinner(&that.Board); ok {
		that.Winner = winner
		that.BlockedCell = NoBlockedCell
		events = append(events, game.FinishGame(winner, start, end))

		return events, nil
	}

	if blocked, ok := that.chooseBlockedCell(rng); ok {
		that.BlockedCell = blocked
		events = append(events, game.BlockIndex(blocked))
	} else {
		that.BlockedCell = NoBlockedCell
	}

	return events, nil
}

func (that *Game) toggleTurn() {
	if that.Turn == PlayerX {
		that.Turn = PlayerO
	} else {
		that.Turn = PlayerX
	}
}

// chooseBlockedCell - picks uniformly among empty cells. The cell that
// just unblocked is excluded so it cannot freeze twice in a row.
func (that *Game) chooseBlockedCell(rng *rand.Rand) (int, bool) {
	previous := that.BlockedCell

	candidates := make([]int, 0, BoardSize)
	for i, cell := range that.Board {
		if cell == EmptyCell && i != previous {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return 0, false
	}

	return candidates[rng.Intn(len(candidates))], true
}
