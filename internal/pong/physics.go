package pong

import (
	"math/rand"
	"time"

	"github.com/spindlegames/arena-backend/internal/game"
)

// Input is the inbound paddle control message.
type Input struct {
	Event string `json:"event"` // keydown or keyup
	Type  string `json:"type"`  // up or down
}

// ApplyInput - translates a key event into paddle velocity. Unknown
// events and directions are dropped without touching the state.
func (that *State) ApplyInput(side string, input Input) {
	paddle := &that.Paddles.Right
	if side == SideLeft {
		paddle = &that.Paddles.Left
	}

	var speed float64
	switch input.Event {
	case "keydown":
		speed = PaddleSpeed
	case "keyup":
		speed = 0
	default:
		return
	}

	switch input.Type {
	case "up":
		paddle.VY = -speed
	case "down":
		paddle.VY = speed
	}
}

// Tick - advances one frame: motion, optional AI steering, collisions,
// scoring. Returns the tick's events and the winning side once a score
// reaches the threshold ("" while the rally continues).
func (that *State) Tick(rng *rand.Rand, ai *Controller, now time.Time) ([]game.Event, string) {
	that.AdvanceBall(now)
	that.AdvancePaddles()

	if ai != nil {
		ai.Steer(that, now)
	}

	events := that.ResolveWallCollision()
	events = append(events, that.ResolvePaddleCollision()...)

	scoreEvents, winner := that.ResolveScoring(rng, now)
	events = append(events, scoreEvents...)

	if winner != "" {
		that.Running = false
	}

	return events, winner
}

// AdvanceBall - moves the ball unless it is inside a reset cooldown;
// an expired cooldown unfreezes it.
func (that *State) AdvanceBall(now time.Time) {
	ball := &that.Ball

	if !ball.Resetting {
		ball.X += ball.VX
		ball.Y += ball.VY
		return
	}

	if now.After(ball.ResetDeadline) {
		ball.Resetting = false
	}
}

// AdvancePaddles - applies paddle velocity, clamped to keep a 1-cell
// margin against the walls.
func (that *State) AdvancePaddles() {
	for _, paddle := range []*Paddle{&that.Paddles.Left, &that.Paddles.Right} {
		paddle.Y = clamp(paddle.Y+paddle.VY, 1.0, GridHeight-PaddleHeight-1.0)
	}
}

// ResolveWallCollision - bounces the ball off the top and bottom walls.
func (that *State) ResolveWallCollision() []game.Event {
	ball := &that.Ball

	if ball.Y < 1.0 || ball.Y > GridHeight-2.0 {
		ball.VY = -ball.VY
		return []game.Event{game.WallHit()}
	}

	return nil
}

// ResolvePaddleCollision - box-overlap test against each paddle's
// leading edge. The velocity sign decides which side can collide, so a
// ball leaving a paddle never re-triggers on it.
func (that *State) ResolvePaddleCollision() []game.Event {
	var events []game.Event

	ball := &that.Ball
	left := &that.Paddles.Left
	right := &that.Paddles.Right

	if ball.VX < 0 &&
		ball.X < left.X+left.Width && ball.X+ball.Width > left.X &&
		ball.Y > left.Y-ball.Height && ball.Y < left.Y+left.Height {
		that.bounceOffPaddle(left, left.X+left.Width)
		events = append(events, game.PaddleHit())
	}

	if ball.VX > 0 &&
		ball.X+ball.Width > right.X && ball.X < right.X+right.Width &&
		ball.Y > right.Y-ball.Height && ball.Y < right.Y+right.Height {
		that.bounceOffPaddle(right, right.X-ball.Width)
		events = append(events, game.PaddleHit())
	}

	return events
}

// bounceOffPaddle - flips the ball off a paddle, ramps its speed and
// steers the rebound by where it struck relative to the paddle center.
// The ball is clamped to the paddle's outer edge to prevent tunneling.
func (that *State) bounceOffPaddle(paddle *Paddle, newX float64) {
	ball := &that.Ball

	impact := ball.Y + ball.Height/2 - (paddle.Y + paddle.Height/2)
	normalized := clamp(impact/(paddle.Height/2), -1.0, 1.0)

	ball.rampSpeed()

	direction := -1.0
	if ball.VX < 0 {
		direction = 1.0
	}

	ball.VX = direction * BallSpeed * ball.SpeedMultiplier
	ball.VY = normalized * BallSpeed * ball.SpeedMultiplier
	ball.X = newX
}

// ResolveScoring - detects the ball leaving the field, credits the
// opposite side and resets the ball. Returns the winning side when the
// scorer reaches the win threshold.
func (that *State) ResolveScoring(rng *rand.Rand, now time.Time) ([]game.Event, string) {
	ball := &that.Ball

	if ball.X >= 0.0 && ball.X <= GridWidth-BallSize {
		return nil, ""
	}

	var side string
	var current int

	if ball.X < 0.0 {
		that.Score.Right++
		side = SideRight
		current = that.Score.Right
	} else {
		that.Score.Left++
		side = SideLeft
		current = that.Score.Left
	}

	events := []game.Event{game.ScoreUpdate()}
	ball.Reset(rng, now)

	if current >= WinScore {
		return events, side
	}

	return events, ""
}
