package pong

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewState(t *testing.T) {
	// When: create a fresh playfield
	state := NewState()

	// Then: paddles sit vertically centered at their offsets
	require.NotNil(t, state)
	assert.InDelta(t, PaddleXOffset, state.Paddles.Left.X, 1e-9)
	assert.InDelta(t, GridWidth-PaddleXOffset-PaddleWidth, state.Paddles.Right.X, 1e-9)
	assert.InDelta(t, GridHeight/2-PaddleHeight/2, state.Paddles.Left.Y, 1e-9)

	// Then: the ball starts at the serve position with the base speed
	assert.InDelta(t, 24.5, state.Ball.X, 1e-9)
	assert.InDelta(t, 11.5, state.Ball.Y, 1e-9)
	assert.InDelta(t, 1.0, state.Ball.SpeedMultiplier, 1e-9)
	assert.False(t, state.Running)
}

func TestState_ApplyInput(t *testing.T) {
	t.Run("keydown moves the paddle", func(t *testing.T) {
		// Given: a fresh playfield
		state := NewState()

		// When: the left player presses up
		state.ApplyInput(SideLeft, Input{Event: "keydown", Type: "up"})

		// Then: only the left paddle gains upward velocity
		assert.InDelta(t, -PaddleSpeed, state.Paddles.Left.VY, 1e-9)
		assert.InDelta(t, 0, state.Paddles.Right.VY, 1e-9)
	})

	t.Run("keyup stops the paddle", func(t *testing.T) {
		// Given: a paddle already moving down
		state := NewState()
		state.ApplyInput(SideRight, Input{Event: "keydown", Type: "down"})
		require.InDelta(t, PaddleSpeed, state.Paddles.Right.VY, 1e-9)

		// When: the key is released
		state.ApplyInput(SideRight, Input{Event: "keyup", Type: "down"})

		// Then: the paddle stops
		assert.InDelta(t, 0, state.Paddles.Right.VY, 1e-9)
	})

	t.Run("unknown event is dropped", func(t *testing.T) {
		// Given: a paddle moving up
		state := NewState()
		state.ApplyInput(SideLeft, Input{Event: "keydown", Type: "up"})

		// When: a malformed event arrives
		state.ApplyInput(SideLeft, Input{Event: "doubleclick", Type: "up"})

		// Then: the paddle keeps its velocity
		assert.InDelta(t, -PaddleSpeed, state.Paddles.Left.VY, 1e-9)
	})
}

func TestState_AdvancePaddles(t *testing.T) {
	t.Run("paddle never leaves the wall margin", func(t *testing.T) {
		// Given: a paddle pressed against the top margin, still moving up
		state := NewState()
		state.Paddles.Left.Y = 1.0
		state.Paddles.Left.VY = -PaddleSpeed

		// When: many frames pass
		for i := 0; i < 100; i++ {
			state.AdvancePaddles()
		}

		// Then: the paddle is clamped at the margin
		assert.InDelta(t, 1.0, state.Paddles.Left.Y, 1e-9)

		// When: it runs toward the bottom instead
		state.Paddles.Left.VY = PaddleSpeed
		for i := 0; i < 1000; i++ {
			state.AdvancePaddles()
		}

		// Then: it stops one cell short of the bottom wall
		assert.InDelta(t, GridHeight-PaddleHeight-1.0, state.Paddles.Left.Y, 1e-9)
	})
}

func TestState_ResolveWallCollision(t *testing.T) {
	// Given: a ball crossing the top wall margin
	state := NewState()
	state.Ball.Y = 0.5
	state.Ball.VY = -BallSpeed

	// When: collisions are resolved
	events := state.ResolveWallCollision()

	// Then: the vertical velocity flips and a wall_hit is reported
	require.Len(t, events, 1)
	assert.Equal(t, "wall_hit", events[0].Type)
	assert.InDelta(t, BallSpeed, state.Ball.VY, 1e-9)
}

func TestState_ResolvePaddleCollision(t *testing.T) {
	t.Run("bounce off the left paddle", func(t *testing.T) {
		// Given: a ball inside the left paddle's box, heading left
		state := NewState()
		left := &state.Paddles.Left
		state.Ball.X = left.X + 0.5
		state.Ball.Y = left.Y + 2.0 // center of the paddle
		state.Ball.VX = -BallSpeed

		// When: collisions are resolved
		events := state.ResolvePaddleCollision()

		// Then: the ball bounces right off the paddle face with one ramp step
		require.Len(t, events, 1)
		assert.Equal(t, "paddle_hit", events[0].Type)
		assert.InDelta(t, left.X+left.Width, state.Ball.X, 1e-9)
		assert.InDelta(t, BallSpeed*1.15, state.Ball.VX, 1e-9)
		assert.Equal(t, 1, state.Ball.Hits)
	})

	t.Run("impact offset steers the rebound", func(t *testing.T) {
		// Given: a ball striking the very top of the right paddle
		state := NewState()
		right := &state.Paddles.Right
		state.Ball.X = right.X - 0.5
		state.Ball.Y = right.Y - BallSize/2
		state.Ball.VX = BallSpeed

		// When: collisions are resolved
		events := state.ResolvePaddleCollision()
		require.Len(t, events, 1)

		// Then: the rebound goes upward, scaled by the full normalized impact
		assert.Negative(t, state.Ball.VY)
		assert.InDelta(t, -BallSpeed*state.Ball.SpeedMultiplier, state.Ball.VY, 1e-9)
	})

	t.Run("ball moving away never re-triggers", func(t *testing.T) {
		// Given: a ball overlapping the left paddle but already heading right
		state := NewState()
		left := &state.Paddles.Left
		state.Ball.X = left.X + 0.5
		state.Ball.Y = left.Y + 2.0
		state.Ball.VX = BallSpeed

		// When: collisions are resolved
		events := state.ResolvePaddleCollision()

		// Then: nothing happens
		assert.Empty(t, events)
		assert.Equal(t, 0, state.Ball.Hits)
	})
}

func TestBall_RampSpeed(t *testing.T) {
	// Given: a fresh ball
	ball := newBall()

	// When: it is struck four times
	for i := 0; i < 4; i++ {
		ball.rampSpeed()
	}

	// Then: each of the first four hits added 0.15x
	assert.InDelta(t, 1.6, ball.SpeedMultiplier, 1e-9)

	// When: four more hits land
	for i := 0; i < 4; i++ {
		ball.rampSpeed()
	}

	// Then: each added 0.10x
	assert.InDelta(t, 2.0, ball.SpeedMultiplier, 1e-9)

	// When: the rally keeps going past the cap
	for i := 0; i < 20; i++ {
		ball.rampSpeed()
	}

	// Then: the multiplier has plateaued
	assert.InDelta(t, 2.0, ball.SpeedMultiplier, 1e-9)
}

func TestState_ResolveScoring(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	now := time.Now()

	t.Run("ball past the left edge credits the right side", func(t *testing.T) {
		// Given: a ball that escaped past the left edge
		state := NewState()
		state.Ball.X = -0.5

		// When: scoring is resolved
		events, winner := state.ResolveScoring(rng, now)

		// Then: the right side scores, the rally continues
		require.Len(t, events, 1)
		assert.Equal(t, "score_update", events[0].Type)
		assert.Equal(t, 1, state.Score.Right)
		assert.Empty(t, winner)

		// Then: the ball is recentered and frozen for the serve cooldown
		assert.InDelta(t, 24.5, state.Ball.X, 1e-9)
		assert.True(t, state.Ball.Resetting)
		assert.InDelta(t, 1.0, state.Ball.SpeedMultiplier, 1e-9)
		assert.Equal(t, 0, state.Ball.Hits)
	})

	t.Run("reaching the win threshold reports the side", func(t *testing.T) {
		// Given: the left side one point from winning
		state := NewState()
		state.Score.Left = WinScore - 1
		state.Ball.X = GridWidth + 0.5

		// When: scoring is resolved
		_, winner := state.ResolveScoring(rng, now)

		// Then: the left side wins
		assert.Equal(t, SideLeft, winner)
		assert.Equal(t, WinScore, state.Score.Left)
	})
}

func TestState_Tick(t *testing.T) {
	t.Run("winning tick stops the game", func(t *testing.T) {
		// Given: a running game with match point for the right side
		rng := rand.New(rand.NewSource(7))
		state := NewState()
		state.Running = true
		state.Score.Right = WinScore - 1
		state.Ball.X = -1.0
		state.Ball.VX = -BallSpeed
		state.Ball.VY = 0

		// When: a frame is simulated
		events, winner := state.Tick(rng, nil, time.Now())

		// Then: the right side wins and the simulation halts
		assert.Equal(t, SideRight, winner)
		assert.False(t, state.Running)

		require.NotEmpty(t, events)
		assert.Equal(t, "score_update", events[len(events)-1].Type)
	})

	t.Run("frozen ball waits out the serve cooldown", func(t *testing.T) {
		// Given: a ball inside its reset cooldown
		rng := rand.New(rand.NewSource(7))
		state := NewState()
		state.Running = true
		now := time.Now()
		state.Ball.Reset(rng, now)

		startX := state.Ball.X

		// When: a frame is simulated before the deadline
		_, winner := state.Tick(rng, nil, now)

		// Then: the ball has not moved
		assert.Empty(t, winner)
		assert.InDelta(t, startX, state.Ball.X, 1e-9)

		// When: a frame is simulated after the deadline
		_, _ = state.Tick(rng, nil, now.Add(2*time.Second))

		// Then: the ball is live again
		assert.False(t, state.Ball.Resetting)
	})
}
