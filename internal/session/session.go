package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/spindlegames/arena-backend/internal/entity"
	"github.com/spindlegames/arena-backend/internal/game"
	"github.com/spindlegames/arena-backend/internal/pong"
	"github.com/spindlegames/arena-backend/internal/tictactoe"
)

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusRunning  Status = "running"
	StatusFinished Status = "finished"
)

// aiIdentity is the placeholder participant for single-player matches.
const aiIdentity = "AI"

// Session is the in-memory state of one live room: lifecycle
// bookkeeping plus exactly one mode payload. The single mutex
// serializes player input against simulation ticks, so every broadcast
// reflects a consistent snapshot.
type Session struct {
	mu sync.Mutex

	RoomID string
	Match  *entity.Match

	status     Status
	online     map[string]bool
	lastActive time.Time
	finalized  bool

	rng *rand.Rand

	pong      *pongPayload
	ticTacToe *tictactoe.Game
}

type pongPayload struct {
	state        *pong.State
	ai           *pong.Controller
	singlePlayer bool
}

// NewPong - builds a head-to-head pong session for a match.
func NewPong(roomID string, match *entity.Match, rng *rand.Rand) *Session {
	return &Session{
		RoomID:     roomID,
		Match:      match,
		status:     StatusWaiting,
		online:     make(map[string]bool),
		lastActive: time.Now(),
		rng:        rng,
		pong:       &pongPayload{state: pong.NewState()},
	}
}

// NewSinglePlayerPong - pong against the AI; the right paddle belongs
// to the controller and the AI counts as a permanently-present player.
func NewSinglePlayerPong(roomID string, match *entity.Match, rng *rand.Rand, difficulty pong.Difficulty) *Session {
	sess := NewPong(roomID, match, rng)
	sess.pong.singlePlayer = true
	sess.pong.ai = pong.NewController(pong.ConfigFor(difficulty))
	sess.online[aiIdentity] = true

	return sess
}

// NewTicTacToe - builds a 5x5 blocked-cell session for a match. User1
// plays X, user2 plays O.
func NewTicTacToe(roomID string, match *entity.Match, rng *rand.Rand) *Session {
	board := tictactoe.NewGame()
	board.Players.X.DisplayName = match.User1.DisplayName
	board.Players.O.DisplayName = match.User2.DisplayName

	return &Session{
		RoomID:     roomID,
		Match:      match,
		status:     StatusWaiting,
		online:     make(map[string]bool),
		lastActive: time.Now(),
		rng:        rng,
		ticTacToe:  board,
	}
}

func (that *Session) IsPong() bool {
	return that.pong != nil
}

func (that *Session) IsSinglePlayer() bool {
	return that.pong != nil && that.pong.singlePlayer
}

func (that *Session) Status() Status {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.status
}

func (that *Session) LastActive() time.Time {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.lastActive
}

// Join - attaches an identity to the session. A returning player
// re-attaches without restarting anything. Returns true exactly once:
// when the required player count is reached and the session moves from
// waiting to running.
func (that *Session) Join(userID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.online[userID] = true
	that.lastActive = time.Now()

	if that.ticTacToe != nil {
		that.markOnlineLocked(userID, true)
	}

	if that.status != StatusWaiting {
		return false
	}

	required := 2
	if that.IsSinglePlayer() {
		required = 1
	}

	humans := 0
	for id, online := range that.online {
		if id != aiIdentity && online {
			humans++
		}
	}

	if humans < required {
		return false
	}

	that.status = StatusRunning
	if that.pong != nil {
		that.pong.state.Running = true
	}

	return true
}

// Disconnect - marks an identity offline. Returns true when no human
// participant remains, which is the caller's cue to finalize and drop
// the room.
func (that *Session) Disconnect(userID string) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.online[userID] = false
	that.lastActive = time.Now()

	if that.ticTacToe != nil {
		that.markOnlineLocked(userID, false)
	}

	for id, online := range that.online {
		if id != aiIdentity && online {
			return false
		}
	}

	if that.pong != nil {
		that.pong.state.Running = false
	}
	that.status = StatusFinished

	return true
}

func (that *Session) markOnlineLocked(userID string, online bool) {
	switch {
	case that.Match.User1.ID == userID:
		that.ticTacToe.Players.X.IsOnline = online
	case that.Match.User2.ID == userID:
		that.ticTacToe.Players.O.IsOnline = online
	}
}

// ApplyPongInput - applies a paddle key event under the room lock.
func (that *Session) ApplyPongInput(userID string, input pong.Input) {
	if that.pong == nil {
		return
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	side := pong.SideRight
	if that.Match.IsLeftUser(userID) {
		side = pong.SideLeft
	}

	that.pong.state.ApplyInput(side, input)
	that.lastActive = time.Now()
}

// ApplyClick - applies a tic-tac-toe move for the acting identity and
// returns the snapshot to broadcast. Illegal moves return the engine's
// rejection error with no snapshot.
func (that *Session) ApplyClick(userID string, position int) (game.Snapshot, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	symbol := tictactoe.PlayerO
	if that.Match.IsLeftUser(userID) {
		symbol = tictactoe.PlayerX
	}

	events, err := that.ticTacToe.Move(that.rng, symbol, position)
	if err != nil {
		return game.Snapshot{}, err
	}

	that.lastActive = time.Now()

	if that.ticTacToe.IsFinished() {
		that.status = StatusFinished
	}

	return game.Snapshot{Game: that.boardViewLocked(), Events: events}, nil
}

// boardViewLocked copies the board so a snapshot handed to the hub is
// not mutated by the opponent's next move.
func (that *Session) boardViewLocked() *tictactoe.Game {
	board := *that.ticTacToe

	return &board
}

// Tick - advances the pong simulation one frame and reports whether the
// loop should keep running. The winning side's display name rides on
// the game_over event.
func (that *Session) Tick(now time.Time) (game.Snapshot, bool) {
	that.mu.Lock()
	defer that.mu.Unlock()

	state := that.pong.state
	events, winnerSide := state.Tick(that.rng, that.pong.ai, now)

	if winnerSide != "" {
		that.status = StatusFinished
		events = append(events, game.GameOver(that.displayNameLocked(winnerSide)))
	}

	that.lastActive = now

	return game.Snapshot{Game: that.pongViewLocked(), Events: events}, state.Running
}

func (that *Session) displayNameLocked(side string) string {
	if side == pong.SideLeft {
		return that.Match.User1.DisplayName
	}

	if that.IsSinglePlayer() {
		return aiIdentity
	}

	return that.Match.User2.DisplayName
}

// Snapshot - the current state with an optional event list, for
// broadcasts outside the tick loop (joins, game_start).
func (that *Session) Snapshot(events ...game.Event) game.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.ticTacToe != nil {
		return game.Snapshot{Game: that.boardViewLocked(), Events: events}
	}

	return game.Snapshot{Game: that.pongViewLocked(), Events: events}
}

// pongView inlines the kernel state and adds the session's presence
// map, mirroring what clients render. It holds a copy of the state, so
// a snapshot handed to the hub stays consistent while the simulation
// keeps mutating the original under the session lock.
type pongView struct {
	pong.State
	Players map[string]bool `json:"players"`
}

func (that *Session) pongViewLocked() pongView {
	players := make(map[string]bool, len(that.online))
	for id, online := range that.online {
		players[id] = online
	}

	return pongView{State: *that.pong.state, Players: players}
}

// MarkFinalized - idempotence guard for outcome persistence; only the
// first caller gets true.
func (that *Session) MarkFinalized() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.finalized {
		return false
	}
	that.finalized = true

	return true
}

// Result - the session's outcome as durable-record fields. The winner
// is nil while the game is undecided or scores are tied at abandonment.
func (that *Session) Result() (winner *entity.UserRef, score1, score2 int) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.ticTacToe != nil {
		switch that.ticTacToe.Winner {
		case tictactoe.PlayerX:
			winner = &that.Match.User1
		case tictactoe.PlayerO:
			winner = &that.Match.User2
		}

		return winner, 0, 0
	}

	score := that.pong.state.Score
	switch {
	case score.Left > score.Right:
		winner = &that.Match.User1
	case score.Right > score.Left:
		winner = &that.Match.User2
	}

	return winner, score.Left, score.Right
}
