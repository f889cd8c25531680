package game

// Event types fanned out to room subscribers alongside each snapshot.
const (
	EventWallHit     = "wall_hit"
	EventPaddleHit   = "paddle_hit"
	EventScoreUpdate = "score_update"
	EventGameStart   = "game_start"
	EventGameOver    = "game_over"
	EventPutSymbol   = "put_symbol"
	EventBlockIndex  = "block_index"
	EventFinishGame  = "finish_game"
)

// Event is one item of a tick's event list. Only the fields that belong
// to the event's type are set; index fields are pointers so position
// zero survives serialization.
type Event struct {
	Type          string `json:"type"`
	Winner        string `json:"winner,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	Position      *int   `json:"position,omitempty"`
	BlockIndex    *int   `json:"block_index,omitempty"`
	StartPosition *int   `json:"start_position,omitempty"`
	EndPosition   *int   `json:"end_position,omitempty"`
}

// Snapshot is the wire envelope published to a room after every tick or
// accepted move.
type Snapshot struct {
	Game   any     `json:"game"`
	Events []Event `json:"events"`
}

func WallHit() Event {
	return Event{Type: EventWallHit}
}

func PaddleHit() Event {
	return Event{Type: EventPaddleHit}
}

func ScoreUpdate() Event {
	return Event{Type: EventScoreUpdate}
}

func GameStart() Event {
	return Event{Type: EventGameStart}
}

func GameOver(winner string) Event {
	return Event{Type: EventGameOver, Winner: winner}
}

func PutSymbol(position int, symbol string) Event {
	return Event{Type: EventPutSymbol, Position: &position, Symbol: symbol}
}

func BlockIndex(index int) Event {
	return Event{Type: EventBlockIndex, BlockIndex: &index}
}

func FinishGame(winner string, startPosition, endPosition int) Event {
	return Event{
		Type:          EventFinishGame,
		Winner:        winner,
		StartPosition: &startPosition,
		EndPosition:   &endPosition,
	}
}
