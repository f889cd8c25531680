package apperror

import "errors"

var (
	ErrMatchNotFound      = errors.New("match not found")
	ErrMatchFinished      = errors.New("match is already finished")
	ErrNotParticipant     = errors.New("user is not a participant of this match")
	ErrTournamentNotFound = errors.New("tournament not found")

	ErrGameFinished = errors.New("game is already finished")
	ErrNotYourTurn  = errors.New("it's not your turn")
	ErrCellOccupied = errors.New("cell is already occupied")
	ErrCellBlocked  = errors.New("cell is blocked this turn")
	ErrInvalidCell  = errors.New("invalid cell index")
)
