package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/entity"
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *entity.Tournament) error
	GetByID(ctx context.Context, id string) (*entity.Tournament, error)
	SaveRound(ctx context.Context, tournamentID string, roundNumber int, matches []*entity.Match, bye *entity.Bye) error
	Finalize(ctx context.Context, tournamentID string, winner *entity.TournamentPlayer, finishedAt time.Time) error
	ListMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error)
	ListPendingMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error)
}

type dbTournament struct {
	client *redis.Client
}

func NewTournamentRepository(client *redis.Client) TournamentRepository {
	return &dbTournament{
		client: client,
	}
}

func tournamentKey(id string) string {
	return "tournament:" + id
}

func tournamentMatchesKey(id string) string {
	return tournamentKey(id) + ":matches"
}

func tournamentByesKey(id string) string {
	return tournamentKey(id) + ":byes"
}

func (that *dbTournament) Create(ctx context.Context, tournament *entity.Tournament) error {
	playersJSON, err := json.Marshal(tournament.Players)
	if err != nil {
		return fmt.Errorf("could not marshal players: %w", err)
	}

	fields := map[string]any{
		"id":            tournament.ID,
		"name":          tournament.Name,
		"current_round": tournament.CurrentRound,
		"players":       string(playersJSON),
	}

	if err = that.client.HSet(ctx, tournamentKey(tournament.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to set tournament: %w", err)
	}

	return nil
}

func (that *dbTournament) GetByID(ctx context.Context, id string) (*entity.Tournament, error) {
	fields, err := that.client.HGetAll(ctx, tournamentKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	if len(fields) == 0 {
		return nil, apperror.ErrTournamentNotFound
	}

	tournament := &entity.Tournament{
		ID:   fields["id"],
		Name: fields["name"],
	}

	if tournament.CurrentRound, err = parseIntField(fields, "current_round"); err != nil {
		return nil, err
	}

	if raw := fields["players"]; raw != "" {
		if err = json.Unmarshal([]byte(raw), &tournament.Players); err != nil {
			return nil, fmt.Errorf("failed to unmarshal players: %w", err)
		}
	}

	if raw, ok := fields["winner"]; ok && raw != "" {
		winner := &entity.TournamentPlayer{}
		if err = json.Unmarshal([]byte(raw), winner); err != nil {
			return nil, fmt.Errorf("failed to unmarshal winner: %w", err)
		}
		tournament.Winner = winner
	}

	startedAt, err := parseTimeField(fields, "started_at")
	if err != nil {
		return nil, err
	}
	if !startedAt.IsZero() {
		tournament.StartedAt = &startedAt
	}

	finishedAt, err := parseTimeField(fields, "finished_at")
	if err != nil {
		return nil, err
	}
	if !finishedAt.IsZero() {
		tournament.FinishedAt = &finishedAt
	}

	if tournament.MatchIDs, err = that.client.LRange(ctx, tournamentMatchesKey(id), 0, -1).Result(); err != nil {
		return nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}

	rawByes, err := that.client.LRange(ctx, tournamentByesKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament byes: %w", err)
	}

	for _, rawBye := range rawByes {
		var bye entity.Bye
		if err = json.Unmarshal([]byte(rawBye), &bye); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bye: %w", err)
		}
		tournament.Byes = append(tournament.Byes, bye)
	}

	return tournament, nil
}

// SaveRound - persists a whole round as one batch: the new round
// counter, every new match record and the bye, so a crash can never
// leave a half-created round behind.
func (that *dbTournament) SaveRound(ctx context.Context, tournamentID string, roundNumber int, matches []*entity.Match, bye *entity.Bye) error {
	key := tournamentKey(tournamentID)

	var byeJSON []byte
	if bye != nil {
		var err error
		if byeJSON, err = json.Marshal(bye); err != nil {
			return fmt.Errorf("could not marshal bye: %w", err)
		}
	}

	encodedMatches := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		fields, err := matchFields(match)
		if err != nil {
			return fmt.Errorf("could not encode match: %w", err)
		}
		encodedMatches = append(encodedMatches, fields)
	}

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "current_round", roundNumber)

		if roundNumber == 1 {
			pipe.HSet(ctx, key, "started_at", time.Now().UTC().Format(time.RFC3339Nano))
		}

		for i, match := range matches {
			pipe.HSet(ctx, matchKey(match.ID), encodedMatches[i])
			pipe.RPush(ctx, tournamentMatchesKey(tournamentID), match.ID)
		}

		if byeJSON != nil {
			pipe.RPush(ctx, tournamentByesKey(tournamentID), string(byeJSON))
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save round: %w", err)
	}

	return nil
}

// Finalize - stamps the champion and finish time once; repeated calls
// are no-ops thanks to the finished_at guard field.
func (that *dbTournament) Finalize(ctx context.Context, tournamentID string, winner *entity.TournamentPlayer, finishedAt time.Time) error {
	key := tournamentKey(tournamentID)

	applied, err := that.client.HSetNX(ctx, key, "finished_at", finishedAt.UTC().Format(time.RFC3339Nano)).Result()
	if err != nil {
		return fmt.Errorf("failed to mark tournament finished: %w", err)
	}

	if !applied || winner == nil {
		return nil
	}

	winnerJSON, err := json.Marshal(winner)
	if err != nil {
		return fmt.Errorf("could not marshal winner: %w", err)
	}

	if err = that.client.HSet(ctx, key, "winner", string(winnerJSON)).Err(); err != nil {
		return fmt.Errorf("failed to save tournament winner: %w", err)
	}

	return nil
}

func (that *dbTournament) ListMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error) {
	return that.listRoundMatches(ctx, tournamentID, roundNumber, false)
}

func (that *dbTournament) ListPendingMatchesForRound(ctx context.Context, tournamentID string, roundNumber int) ([]*entity.Match, error) {
	return that.listRoundMatches(ctx, tournamentID, roundNumber, true)
}

func (that *dbTournament) listRoundMatches(ctx context.Context, tournamentID string, roundNumber int, pendingOnly bool) ([]*entity.Match, error) {
	ids, err := that.client.LRange(ctx, tournamentMatchesKey(tournamentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tournament matches: %w", err)
	}

	var matches []*entity.Match

	for _, id := range ids {
		fields, err := that.client.HGetAll(ctx, matchKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to get match: %w", err)
		}

		if len(fields) == 0 {
			continue
		}

		match, err := parseMatch(fields)
		if err != nil {
			return nil, fmt.Errorf("failed to decode match: %w", err)
		}

		if match.RoundNumber != roundNumber {
			continue
		}

		if pendingOnly && match.Winner != nil {
			continue
		}

		matches = append(matches, match)
	}

	return matches, nil
}
