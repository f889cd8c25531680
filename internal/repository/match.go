package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/entity"
)

type MatchRepository interface {
	Create(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	SaveOutcome(ctx context.Context, id string, winner *entity.UserRef, score1, score2 int, finishedAt time.Time) (bool, error)
}

type dbMatch struct {
	client *redis.Client
}

func NewMatchRepository(client *redis.Client) MatchRepository {
	return &dbMatch{
		client: client,
	}
}

func matchKey(id string) string {
	return "match:" + id
}

func (that *dbMatch) Create(ctx context.Context, match *entity.Match) error {
	fields, err := matchFields(match)
	if err != nil {
		return fmt.Errorf("could not encode match: %w", err)
	}

	if err = that.client.HSet(ctx, matchKey(match.ID), fields).Err(); err != nil {
		return fmt.Errorf("failed to set match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	fields, err := that.client.HGetAll(ctx, matchKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	if len(fields) == 0 {
		return nil, apperror.ErrMatchNotFound
	}

	match, err := parseMatch(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to decode match: %w", err)
	}

	return match, nil
}

// SaveOutcome - writes winner, scores and finish time as per-field
// partial updates. The finished_at field doubles as the idempotence
// guard: only the first finalization lands, later calls report false
// and change nothing.
func (that *dbMatch) SaveOutcome(ctx context.Context, id string, winner *entity.UserRef, score1, score2 int, finishedAt time.Time) (bool, error) {
	key := matchKey(id)

	applied, err := that.client.HSetNX(ctx, key, "finished_at", finishedAt.UTC().Format(time.RFC3339Nano)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark match finished: %w", err)
	}

	if !applied {
		return false, nil
	}

	fields := map[string]any{
		"score1": score1,
		"score2": score2,
	}

	if winner != nil {
		winnerJSON, err := json.Marshal(winner)
		if err != nil {
			return false, fmt.Errorf("could not marshal winner: %w", err)
		}
		fields["winner"] = string(winnerJSON)
	}

	if err = that.client.HSet(ctx, key, fields).Err(); err != nil {
		return false, fmt.Errorf("failed to save match outcome: %w", err)
	}

	return true, nil
}

// matchFields - flattens a match into hash fields so later updates can
// stay scoped per field.
func matchFields(match *entity.Match) (map[string]any, error) {
	user1JSON, err := json.Marshal(match.User1)
	if err != nil {
		return nil, fmt.Errorf("could not marshal user1: %w", err)
	}

	user2JSON, err := json.Marshal(match.User2)
	if err != nil {
		return nil, fmt.Errorf("could not marshal user2: %w", err)
	}

	fields := map[string]any{
		"id":            match.ID,
		"user1":         string(user1JSON),
		"user2":         string(user2JSON),
		"score1":        match.Score1,
		"score2":        match.Score2,
		"round_number":  match.RoundNumber,
		"tournament_id": match.TournamentID,
		"started_at":    match.StartedAt.UTC().Format(time.RFC3339Nano),
	}

	if match.Winner != nil {
		winnerJSON, err := json.Marshal(match.Winner)
		if err != nil {
			return nil, fmt.Errorf("could not marshal winner: %w", err)
		}
		fields["winner"] = string(winnerJSON)
	}

	if match.FinishedAt != nil {
		fields["finished_at"] = match.FinishedAt.UTC().Format(time.RFC3339Nano)
	}

	return fields, nil
}

func parseMatch(fields map[string]string) (*entity.Match, error) {
	match := &entity.Match{
		ID:           fields["id"],
		TournamentID: fields["tournament_id"],
	}

	if err := json.Unmarshal([]byte(fields["user1"]), &match.User1); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user1: %w", err)
	}

	if err := json.Unmarshal([]byte(fields["user2"]), &match.User2); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user2: %w", err)
	}

	if raw, ok := fields["winner"]; ok && raw != "" {
		winner := &entity.UserRef{}
		if err := json.Unmarshal([]byte(raw), winner); err != nil {
			return nil, fmt.Errorf("failed to unmarshal winner: %w", err)
		}
		match.Winner = winner
	}

	var err error
	if match.Score1, err = parseIntField(fields, "score1"); err != nil {
		return nil, err
	}

	if match.Score2, err = parseIntField(fields, "score2"); err != nil {
		return nil, err
	}

	if match.RoundNumber, err = parseIntField(fields, "round_number"); err != nil {
		return nil, err
	}

	if match.StartedAt, err = parseTimeField(fields, "started_at"); err != nil {
		return nil, err
	}

	if raw, ok := fields["finished_at"]; ok && raw != "" {
		finishedAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		match.FinishedAt = &finishedAt
	}

	return match, nil
}

func parseIntField(fields map[string]string, name string) (int, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return value, nil
}

func parseTimeField(fields map[string]string, name string) (time.Time, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return time.Time{}, nil
	}

	value, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", name, err)
	}

	return value, nil
}
