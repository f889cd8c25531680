package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/spindlegames/arena-backend/internal/game"
)

// TickInterval is the fixed simulation step, roughly 30Hz.
const TickInterval = 33 * time.Millisecond

// Runner drives one pong session at a fixed tick rate, publishing a
// snapshot per frame. Exactly one runner exists per room; it stops
// cooperatively when the session stops running or the context is
// canceled. A tick that overruns its budget makes the next tick start
// immediately, there is no catch-up queue.
type Runner struct {
	logger   *slog.Logger
	interval time.Duration
}

func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		logger:   logger.With("component", "loop-runner"),
		interval: TickInterval,
	}
}

func (that *Runner) Run(ctx context.Context, sess *Session, publish func(game.Snapshot)) {
	log := that.logger.With("room", sess.RoomID)
	log.Info("simulation loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info("simulation loop canceled")
			return
		default:
		}

		start := time.Now()

		snapshot, running := sess.Tick(start)
		publish(snapshot)

		if !running {
			log.Info("simulation loop stopped")
			return
		}

		if sleep := that.interval - time.Since(start); sleep > 0 {
			select {
			case <-ctx.Done():
				log.Info("simulation loop canceled")
				return
			case <-time.After(sleep):
			}
		}
	}
}
