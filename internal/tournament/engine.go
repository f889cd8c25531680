package tournament

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/spindlegames/arena-backend/internal/entity"
	"github.com/spindlegames/arena-backend/internal/pkg"
)

// Repository is the narrow durable-store contract the bracket engine
// needs; the redis implementation lives in internal/repository.
type Repository interface {
	GetByID(ctx context.Context, id string) (*entity.Tournament, error)
	SaveRound(ctx context.Context, tournamentID string, roundNumber int, matches []*entity.Match, bye *entity.Bye) error
	Finalize(ctx context.Context, tournamentID string, winner *entity.TournamentPlayer, finishedAt time.Time) error
	ListMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error)
	ListPendingMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error)
}

// Engine advances single-elimination brackets. Pairing shuffles with an
// injected random source; the shuffle is deliberately unseeded in
// production for pairing fairness.
type Engine struct {
	logger *slog.Logger
	repo   Repository
	rng    *rand.Rand

	// mu serializes bracket mutations: without it two concurrent start
	// frames (or a start racing a match-finished check) would each read
	// an unstarted bracket and generate the same round twice.
	mu sync.Mutex
}

func NewEngine(logger *slog.Logger, repo Repository, rng *rand.Rand) *Engine {
	return &Engine{
		logger: logger.With("component", "bracket-engine"),
		repo:   repo,
		rng:    rng,
	}
}

// Start - generates round one from the full player list. Starting an
// already-started tournament is a no-op.
func (that *Engine) Start(ctx context.Context, tournamentID string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	tournament, err := that.repo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	if tournament.IsStarted() {
		return nil
	}

	if err := that.AdvanceRound(ctx, tournament); err != nil {
		return fmt.Errorf("failed to create first round: %w", err)
	}

	return nil
}

// CheckRoundFinished - level-triggered: advances the bracket exactly
// when no match of the current round is still pending. Redundant calls
// are safe. Returns whether the bracket advanced.
func (that *Engine) CheckRoundFinished(ctx context.Context, tournamentID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	tournament, err := that.repo.GetByID(ctx, tournamentID)
	if err != nil {
		return false, fmt.Errorf("failed to get tournament: %w", err)
	}

	if tournament.IsFinished() || !tournament.IsStarted() {
		return false, nil
	}

	pending, err := that.repo.ListPendingMatchesForRound(ctx, tournament.ID, tournament.CurrentRound)
	if err != nil {
		return false, fmt.Errorf("failed to list pending matches: %w", err)
	}

	if len(pending) > 0 {
		return false, nil
	}

	if err := that.AdvanceRound(ctx, tournament); err != nil {
		return false, fmt.Errorf("failed to advance round: %w", err)
	}

	return true, nil
}

// RoundWinners - the union of the current round's match winners and its
// bye recipients, by participant identity. A tournament that has not
// started yields every registered player.
func (that *Engine) RoundWinners(ctx context.Context, tournament *entity.Tournament) ([]entity.TournamentPlayer, error) {
	if !tournament.IsStarted() {
		winners := make([]entity.TournamentPlayer, len(tournament.Players))
		copy(winners, tournament.Players)

		return winners, nil
	}

	matches, err := that.repo.ListMatchesForRound(ctx, tournament.ID, tournament.CurrentRound)
	if err != nil {
		return nil, fmt.Errorf("failed to list round matches: %w", err)
	}

	var winners []entity.TournamentPlayer

	for _, match := range matches {
		if match.Winner == nil {
			continue
		}

		if player, ok := tournament.PlayerByUserID(match.Winner.ID); ok {
			winners = append(winners, player)
		}
	}

	for _, bye := range tournament.ByesForRound(tournament.CurrentRound) {
		if player, ok := tournament.PlayerByID(bye.PlayerID); ok {
			winners = append(winners, player)
		}
	}

	return winners, nil
}

// AdvanceRound - with one candidate or none the tournament finishes;
// otherwise candidates are shuffled, an odd count hands the first a
// bye, and the rest pair off into the new round, persisted as one
// batch.
func (that *Engine) AdvanceRound(ctx context.Context, tournament *entity.Tournament) error {
	log := that.logger.With("method", "AdvanceRound", "tournament", tournament.ID)

	winners, err := that.RoundWinners(ctx, tournament)
	if err != nil {
		return fmt.Errorf("failed to compute round winners: %w", err)
	}

	if len(winners) <= 1 {
		var champion *entity.TournamentPlayer
		if len(winners) == 1 {
			champion = &winners[0]
		}

		if err := that.repo.Finalize(ctx, tournament.ID, champion, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to finalize tournament: %w", err)
		}

		log.Info("tournament finished")

		return nil
	}

	that.rng.Shuffle(len(winners), func(i, j int) {
		winners[i], winners[j] = winners[j], winners[i]
	})

	newRound := tournament.CurrentRound + 1

	var bye *entity.Bye
	if len(winners)%2 != 0 {
		bye = &entity.Bye{
			ID:          pkg.NewID(),
			PlayerID:    winners[0].ID,
			RoundNumber: newRound,
		}
		winners = winners[1:]
	}

	matches := make([]*entity.Match, 0, len(winners)/2)
	for i := 0; i+1 < len(winners); i += 2 {
		match := entity.NewMatch(pkg.NewID(), winners[i].User, winners[i+1].User)
		match.RoundNumber = newRound
		match.TournamentID = tournament.ID
		matches = append(matches, match)
	}

	if err := that.repo.SaveRound(ctx, tournament.ID, newRound, matches, bye); err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}

	log.Info("round created", "round", newRound, "matches", len(matches), "bye", bye != nil)

	return nil
}
