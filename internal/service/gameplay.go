package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/broadcast"
	"github.com/spindlegames/arena-backend/internal/entity"
	"github.com/spindlegames/arena-backend/internal/game"
	"github.com/spindlegames/arena-backend/internal/pong"
	"github.com/spindlegames/arena-backend/internal/repository"
	"github.com/spindlegames/arena-backend/internal/session"
)

type GamePlayService interface {
	JoinPong(ctx context.Context, matchID, userID string, singlePlayer bool, difficulty pong.Difficulty) (*session.Session, error)
	JoinTicTacToe(ctx context.Context, matchID, userID string) (*session.Session, error)

	HandlePongInput(sess *session.Session, userID string, input pong.Input)
	HandleClick(ctx context.Context, sess *session.Session, userID string, position int)

	Leave(ctx context.Context, sess *session.Session, userID string)
}

type gamePlayService struct {
	logger *slog.Logger

	// baseCtx outlives any single connection; simulation loops run on
	// it so a player dropping mid-rally does not kill the room.
	baseCtx context.Context

	matchRepo repository.MatchRepository
	registry  *session.Registry
	runner    *session.Runner
	rooms     broadcast.Publisher
	outcome   OutcomeService
	rng       *rand.Rand
}

func NewGamePlayService(
	ctx context.Context,
	logger *slog.Logger,
	matchRepo repository.MatchRepository,
	registry *session.Registry,
	runner *session.Runner,
	rooms broadcast.Publisher,
	outcome OutcomeService,
	rng *rand.Rand,
) GamePlayService {
	return &gamePlayService{
		logger:    logger,
		baseCtx:   ctx,
		matchRepo: matchRepo,
		registry:  registry,
		runner:    runner,
		rooms:     rooms,
		outcome:   outcome,
		rng:       rng,
	}
}

// JoinPong - admits an identity into a pong room, creating the session
// on first join and attaching on every later one. The refusal checks
// run before any session mutation.
func (that *gamePlayService) JoinPong(ctx context.Context, matchID, userID string, singlePlayer bool, difficulty pong.Difficulty) (*session.Session, error) {
	match, err := that.admitUser(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	sess, _ := that.registry.GetOrCreate(MatchRoom(matchID), func() *session.Session {
		if singlePlayer {
			return session.NewSinglePlayerPong(MatchRoom(matchID), match, that.rng, difficulty)
		}

		return session.NewPong(MatchRoom(matchID), match, that.rng)
	})

	that.attach(sess, userID)

	return sess, nil
}

// JoinTicTacToe - same admission flow for the 5x5 board.
func (that *gamePlayService) JoinTicTacToe(ctx context.Context, matchID, userID string) (*session.Session, error) {
	match, err := that.admitUser(ctx, matchID, userID)
	if err != nil {
		return nil, err
	}

	sess, _ := that.registry.GetOrCreate(MatchRoom(matchID), func() *session.Session {
		return session.NewTicTacToe(MatchRoom(matchID), match, that.rng)
	})

	that.attach(sess, userID)

	return sess, nil
}

// admitUser - the fatal-to-the-connection checks: the match must exist,
// must not be finished and must list the identity as a participant.
func (that *gamePlayService) admitUser(ctx context.Context, matchID, userID string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if match.IsFinished() {
		return nil, apperror.ErrMatchFinished
	}

	if !match.HasParticipant(userID) {
		return nil, apperror.ErrNotParticipant
	}

	return match, nil
}

func (that *gamePlayService) attach(sess *session.Session, userID string) {
	log := that.logger.With("method", "attach", "room", sess.RoomID, "user", userID)

	room := sess.RoomID
	that.rooms.Publish(room, sess.Snapshot())

	started := sess.Join(userID)

	switch {
	case started:
		that.rooms.Publish(room, sess.Snapshot(game.GameStart()))

		if sess.IsPong() {
			go that.runLoop(sess)
		}

		log.Info("game started")
	case sess.Status() == session.StatusRunning:
		// reconnect into a live game; re-announce so the client leaves
		// its waiting screen
		that.rooms.Publish(room, sess.Snapshot(game.GameStart()))

		log.Info("player re-attached to running game")
	default:
		log.Info("player joined, waiting for opponent")
	}
}

// runLoop - drives the simulation and finalizes the outcome once the
// loop ends on a win. Abandoned rooms are finalized by Leave instead.
func (that *gamePlayService) runLoop(sess *session.Session) {
	that.runner.Run(that.baseCtx, sess, func(snapshot game.Snapshot) {
		that.rooms.Publish(sess.RoomID, snapshot)
	})

	if sess.Status() == session.StatusFinished {
		that.outcome.FinalizeSession(that.baseCtx, sess)
	}
}

// HandlePongInput - paddle input; malformed directions die inside the
// kernel without a broadcast.
func (that *gamePlayService) HandlePongInput(sess *session.Session, userID string, input pong.Input) {
	sess.ApplyPongInput(userID, input)
}

// HandleClick - applies a board click. Illegal moves are dropped
// silently per the error taxonomy: no state change, no broadcast, no
// disconnect.
func (that *gamePlayService) HandleClick(ctx context.Context, sess *session.Session, userID string, position int) {
	snapshot, err := sess.ApplyClick(userID, position)
	if err != nil {
		that.logger.Debug("rejected move", "room", sess.RoomID, "user", userID, "error", err)
		return
	}

	that.rooms.Publish(sess.RoomID, snapshot)

	if sess.Status() == session.StatusFinished {
		that.outcome.FinalizeSession(ctx, sess)
	}
}

// Leave - detaches an identity; when the last human goes the room is
// removed from the registry and the outcome finalized from whatever
// the score was.
func (that *gamePlayService) Leave(ctx context.Context, sess *session.Session, userID string) {
	log := that.logger.With("method", "Leave", "room", sess.RoomID, "user", userID)

	if !sess.Disconnect(userID) {
		log.Info("player disconnected, session stays up")
		return
	}

	that.registry.Remove(sess.RoomID)
	that.outcome.FinalizeSession(ctx, sess)

	log.Info("all players left, session removed")
}
