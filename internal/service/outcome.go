package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/spindlegames/arena-backend/internal/broadcast"
	"github.com/spindlegames/arena-backend/internal/repository"
	"github.com/spindlegames/arena-backend/internal/session"
)

type bracketEngine interface {
	CheckRoundFinished(ctx context.Context, tournamentID string) (bool, error)
}

type OutcomeService interface {
	FinalizeSession(ctx context.Context, sess *session.Session)
}

type outcomeService struct {
	logger    *slog.Logger
	matchRepo repository.MatchRepository
	brackets  bracketEngine
	rooms     broadcast.Publisher
}

func NewOutcomeService(logger *slog.Logger, matchRepo repository.MatchRepository, brackets bracketEngine, rooms broadcast.Publisher) OutcomeService {
	return &outcomeService{
		logger:    logger,
		matchRepo: matchRepo,
		brackets:  brackets,
		rooms:     rooms,
	}
}

// tournamentNotice wakes a tournament lobby after one of its matches
// finishes.
type tournamentNotice struct {
	Type          string `json:"type"`
	TournamentID  string `json:"tournament_id"`
	RoundAdvanced bool   `json:"round_advanced"`
}

// FinalizeSession - persists a finished session's outcome exactly once
// and pokes the bracket engine when the match belongs to a tournament.
// A store failure is logged and swallowed: the players already saw the
// result, so the in-memory outcome stands and the durable record may
// lag. There is no retry path.
func (that *outcomeService) FinalizeSession(ctx context.Context, sess *session.Session) {
	log := that.logger.With("method", "FinalizeSession", "match", sess.Match.ID)

	if !sess.MarkFinalized() {
		return
	}

	winner, score1, score2 := sess.Result()

	applied, err := that.matchRepo.SaveOutcome(ctx, sess.Match.ID, winner, score1, score2, time.Now().UTC())
	if err != nil {
		log.Error("failed to persist match outcome", "error", err)
		return
	}

	if !applied {
		log.Info("match outcome was already persisted")
		return
	}

	log.Info("match outcome persisted")

	if !sess.Match.IsTournamentMatch() {
		return
	}

	advanced, err := that.brackets.CheckRoundFinished(ctx, sess.Match.TournamentID)
	if err != nil {
		log.Error("failed to check tournament round", "tournament", sess.Match.TournamentID, "error", err)
		return
	}

	that.rooms.Publish(TournamentRoom(sess.Match.TournamentID), tournamentNotice{
		Type:          "match_finished",
		TournamentID:  sess.Match.TournamentID,
		RoundAdvanced: advanced,
	})
}
