package pong

import (
	"math"
	"time"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AIConfig is a fixed per-difficulty tuning set; it never changes
// mid-match.
type AIConfig struct {
	PredictionInterval time.Duration
	MaxBounces         int
	ReactionDelay      time.Duration
	SpeedMultiplier    float64
	ReturnToCenter     bool
}

// ConfigFor - resolves a difficulty name; unknown names fall back to
// medium.
func ConfigFor(difficulty Difficulty) AIConfig {
	switch difficulty {
	case DifficultyEasy:
		return AIConfig{
			PredictionInterval: 2 * time.Second,
			MaxBounces:         1,
			ReactionDelay:      300 * time.Millisecond,
			SpeedMultiplier:    0.7,
			ReturnToCenter:     false,
		}
	case DifficultyHard:
		return AIConfig{
			PredictionInterval: time.Second,
			MaxBounces:         4,
			ReactionDelay:      0,
			SpeedMultiplier:    1.2,
			ReturnToCenter:     true,
		}
	default:
		return AIConfig{
			PredictionInterval: 1500 * time.Millisecond,
			MaxBounces:         2,
			ReactionDelay:      100 * time.Millisecond,
			SpeedMultiplier:    1.0,
			ReturnToCenter:     true,
		}
	}
}

// Controller drives the right paddle in single-player mode. Prediction
// is throttled by the difficulty's interval and movement by its
// reaction delay, which is what makes lower difficulties beatable.
type Controller struct {
	config AIConfig

	targetY           float64
	hasTarget         bool
	lastBallDirection float64
	lastPrediction    time.Time
	lastMove          time.Time
}

func NewController(config AIConfig) *Controller {
	return &Controller{config: config}
}

// Steer - one tick of AI control over the right paddle.
func (that *Controller) Steer(state *State, now time.Time) {
	ball := &state.Ball
	paddle := &state.Paddles.Right

	if that.shouldIdle(ball) {
		paddle.VY = 0
		return
	}

	if now.Sub(that.lastPrediction) >= that.config.PredictionInterval {
		that.lastPrediction = now
		that.updateTarget(state)
	}

	that.move(paddle, now)
}

func (that *Controller) shouldIdle(ball *Ball) bool {
	return ball.VX == 0 || ball.VY == 0 || ball.X < 0 || ball.X > GridWidth-BallSize || ball.Resetting
}

// updateTarget - re-aims only when the ball's horizontal direction
// changed since the last sample.
func (that *Controller) updateTarget(state *State) {
	ball := &state.Ball

	if that.lastBallDirection == ball.VX {
		return
	}
	that.lastBallDirection = ball.VX

	if ball.VX < 0 && that.config.ReturnToCenter {
		that.targetY = GridHeight / 2
	} else {
		that.targetY = that.predictBallY(state)
	}
	that.hasTarget = true
}

// predictBallY - linear extrapolation to the paddle plane, reflected
// off the walls up to the difficulty's bounce budget.
func (that *Controller) predictBallY(state *State) float64 {
	ball := &state.Ball
	paddle := &state.Paddles.Right

	timeToReach := (paddle.X - ball.X) / ball.VX
	predicted := ball.Y + ball.VY*timeToReach

	return reflectOffWalls(predicted, that.config.MaxBounces)
}

func reflectOffWalls(y float64, maxBounces int) float64 {
	bounces := 0
	for y < 1.0 || y > GridHeight-2.0 {
		if y < 1.0 {
			y = 2.0 - y
		} else {
			y = 2*(GridHeight-2.0) - y
		}

		bounces++
		if bounces > maxBounces {
			break
		}
	}

	return y
}

func (that *Controller) move(paddle *Paddle, now time.Time) {
	if !that.hasTarget {
		return
	}

	if now.Sub(that.lastMove) < that.config.ReactionDelay {
		return
	}
	that.lastMove = now

	speed := PaddleSpeed * that.config.SpeedMultiplier
	center := paddle.Y + PaddleHeight/2

	if math.Abs(center-that.targetY) < speed {
		paddle.VY = 0
		return
	}

	if center < that.targetY {
		paddle.VY = speed
	} else {
		paddle.VY = -speed
	}
}
