package pong

import (
	"math/rand"
	"time"
)

// Playfield tuning. The grid is 50x25 cells with a 1-cell wall on top
// and bottom; paddles sit 2 cells in from each side.
const (
	GridWidth     = 50.0
	GridHeight    = 25.0
	PaddleWidth   = 1.0
	PaddleHeight  = 5.0
	PaddleXOffset = 2.0
	PaddleSpeed   = 0.3
	BallSize      = 1.0
	BallSpeed     = 0.4
	WinScore      = 3

	initialSpeedHits   = 4
	mediumSpeedHits    = 8
	maxSpeedMultiplier = 1.5
)

const (
	SideLeft  = "left"
	SideRight = "right"
)

type Paddle struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VY     float64 `json:"vy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Ball struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Resetting       bool      `json:"resetting"`
	ResetDeadline   time.Time `json:"-"`
	Hits            int       `json:"hits"`
	SpeedMultiplier float64   `json:"speed_multiplier"`
}

type Paddles struct {
	Left  Paddle `json:"left"`
	Right Paddle `json:"right"`
}

type Score struct {
	Left  int `json:"left"`
	Right int `json:"right"`
}

// State is the full pong playfield for one session. It carries no
// locking; the owning session serializes access.
type State struct {
	Paddles Paddles `json:"paddles"`
	Ball    Ball    `json:"ball"`
	Score   Score   `json:"score"`
	Running bool    `json:"running"`
}

func NewState() *State {
	return &State{
		Paddles: Paddles{
			Left:  newPaddle(PaddleXOffset),
			Right: newPaddle(GridWidth - PaddleXOffset - PaddleWidth),
		},
		Ball: newBall(),
	}
}

func newPaddle(x float64) Paddle {
	return Paddle{
		X:      x,
		Y:      GridHeight/2 - PaddleHeight/2,
		Width:  PaddleWidth,
		Height: PaddleHeight,
	}
}

func newBall() Ball {
	return Ball{
		X:               GridWidth/2 - BallSize/2,
		Y:               GridHeight/2 - BallSize,
		VX:              BallSpeed,
		VY:              BallSpeed,
		Width:           BallSize,
		Height:          BallSize,
		SpeedMultiplier: 1.0,
	}
}

// Reset - recenters the ball with a randomized serve direction and
// vertical jitter, freezing it for a short cooldown.
func (that *Ball) Reset(rng *rand.Rand, now time.Time) {
	that.X = GridWidth/2 - BallSize/2
	that.Y = GridHeight/2 - BallSize
	that.VX = randomSign(rng) * BallSpeed
	that.VY = randomSign(rng) * BallSpeed * uniform(rng, 0.5, 1.5)
	that.Resetting = true
	that.ResetDeadline = now.Add(time.Duration(uniform(rng, 0.5, 1.5) * float64(time.Second)))
	that.SpeedMultiplier = 1.0
	that.Hits = 0
}

// rampSpeed - the first 4 hits add 0.15x each, the next 4 add 0.10x,
// after that 0.05x while the multiplier is under the cap.
func (that *Ball) rampSpeed() {
	var increase float64

	switch {
	case that.Hits < initialSpeedHits:
		increase = 0.15
	case that.Hits < mediumSpeedHits:
		increase = 0.10
	case that.SpeedMultiplier < maxSpeedMultiplier:
		increase = 0.05
	}

	that.SpeedMultiplier += increase
	that.Hits++
}

func randomSign(rng *rand.Rand) float64 {
	if rng.Intn(2) == 0 {
		return -1.0
	}

	return 1.0
}

func uniform(rng *rand.Rand, low, high float64) float64 {
	return low + rng.Float64()*(high-low)
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}

	if value > high {
		return high
	}

	return value
}
