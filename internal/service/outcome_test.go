package service

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/entity"
	"github.com/spindlegames/arena-backend/internal/session"
)

// fakeMatchRepository records finalizations with the same idempotence
// contract as the redis store.
type fakeMatchRepository struct {
	mu      sync.Mutex
	matches map[string]*entity.Match

	saveErr   error
	saveCalls int
}

func newFakeMatchRepository() *fakeMatchRepository {
	return &fakeMatchRepository{matches: make(map[string]*entity.Match)}
}

func (that *fakeMatchRepository) Create(_ context.Context, match *entity.Match) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	copied := *match
	that.matches[match.ID] = &copied

	return nil
}

func (that *fakeMatchRepository) GetByID(_ context.Context, id string) (*entity.Match, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	match, ok := that.matches[id]
	if !ok {
		return nil, apperror.ErrMatchNotFound
	}

	copied := *match

	return &copied, nil
}

func (that *fakeMatchRepository) SaveOutcome(_ context.Context, id string, winner *entity.UserRef, score1, score2 int, finishedAt time.Time) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.saveCalls++

	if that.saveErr != nil {
		return false, that.saveErr
	}

	match, ok := that.matches[id]
	if !ok {
		return false, apperror.ErrMatchNotFound
	}

	if match.FinishedAt != nil {
		return false, nil
	}

	match.Winner = winner
	match.Score1 = score1
	match.Score2 = score2
	match.FinishedAt = &finishedAt

	return true, nil
}

type fakeBrackets struct {
	advanced bool
	err      error
	calls    int
}

func (that *fakeBrackets) CheckRoundFinished(context.Context, string) (bool, error) {
	that.calls++

	return that.advanced, that.err
}

type publishedPayload struct {
	Room    string
	Payload any
}

type fakePublisher struct {
	mu        sync.Mutex
	published []publishedPayload
}

func (that *fakePublisher) Publish(roomID string, payload any) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.published = append(that.published, publishedPayload{Room: roomID, Payload: payload})
}

func (that *fakePublisher) all() []publishedPayload {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]publishedPayload(nil), that.published...)
}

func finishedPongSession(match *entity.Match) *session.Session {
	sess := session.NewPong(MatchRoom(match.ID), match, rand.New(rand.NewSource(1)))
	sess.Join(match.User1.ID)
	sess.Join(match.User2.ID)
	sess.Disconnect(match.User1.ID)
	sess.Disconnect(match.User2.ID)

	return sess
}

func TestOutcomeService_FinalizeSession(t *testing.T) {
	ctx := context.Background()

	newMatch := func() *entity.Match {
		return entity.NewMatch("m1",
			entity.UserRef{ID: "u1", DisplayName: "Alice"},
			entity.UserRef{ID: "u2", DisplayName: "Bob"},
		)
	}

	t.Run("persists the outcome once", func(t *testing.T) {
		// Given: a finished non-tournament session
		repo := newFakeMatchRepository()
		brackets := &fakeBrackets{}
		rooms := &fakePublisher{}

		match := newMatch()
		require.NoError(t, repo.Create(ctx, match))

		sess := finishedPongSession(match)
		outcome := NewOutcomeService(slog.Default(), repo, brackets, rooms)

		// When: the session is finalized twice
		outcome.FinalizeSession(ctx, sess)
		outcome.FinalizeSession(ctx, sess)

		// Then: the store was written exactly once
		assert.Equal(t, 1, repo.saveCalls)

		stored, err := repo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.True(t, stored.IsFinished())

		// Then: a tie at abandonment has no winner
		assert.Nil(t, stored.Winner)

		// Then: no tournament notice went out
		assert.Equal(t, 0, brackets.calls)
		assert.Empty(t, rooms.all())
	})

	t.Run("tournament match wakes the lobby", func(t *testing.T) {
		// Given: a finished tournament match
		repo := newFakeMatchRepository()
		brackets := &fakeBrackets{advanced: true}
		rooms := &fakePublisher{}

		match := newMatch()
		match.TournamentID = "t1"
		match.RoundNumber = 1
		require.NoError(t, repo.Create(ctx, match))

		sess := finishedPongSession(match)
		outcome := NewOutcomeService(slog.Default(), repo, brackets, rooms)

		// When: the session is finalized
		outcome.FinalizeSession(ctx, sess)

		// Then: the bracket was checked and the lobby notified
		assert.Equal(t, 1, brackets.calls)
		require.Len(t, rooms.all(), 1)
		assert.Equal(t, TournamentRoom("t1"), rooms.all()[0].Room)

		notice, ok := rooms.all()[0].Payload.(tournamentNotice)
		require.True(t, ok)
		assert.Equal(t, "match_finished", notice.Type)
		assert.Equal(t, "t1", notice.TournamentID)
		assert.True(t, notice.RoundAdvanced)
	})

	t.Run("store failure is swallowed", func(t *testing.T) {
		// Given: a store that refuses the write
		repo := newFakeMatchRepository()
		repo.saveErr = errors.New("redis down")
		brackets := &fakeBrackets{}
		rooms := &fakePublisher{}

		match := newMatch()
		match.TournamentID = "t1"

		sess := finishedPongSession(match)
		outcome := NewOutcomeService(slog.Default(), repo, brackets, rooms)

		// When: the session is finalized
		outcome.FinalizeSession(ctx, sess)

		// Then: the failure neither panics nor pokes the bracket
		assert.Equal(t, 1, repo.saveCalls)
		assert.Equal(t, 0, brackets.calls)
		assert.Empty(t, rooms.all())
	})

	t.Run("already-persisted outcome skips the bracket", func(t *testing.T) {
		// Given: a match that was finalized through another path
		repo := newFakeMatchRepository()
		brackets := &fakeBrackets{}
		rooms := &fakePublisher{}

		match := newMatch()
		match.TournamentID = "t1"
		require.NoError(t, repo.Create(ctx, match))

		_, err := repo.SaveOutcome(ctx, match.ID, nil, 0, 0, time.Now())
		require.NoError(t, err)

		sess := finishedPongSession(match)
		outcome := NewOutcomeService(slog.Default(), repo, brackets, rooms)

		// When: the session is finalized
		outcome.FinalizeSession(ctx, sess)

		// Then: no duplicate bracket check happens
		assert.Equal(t, 0, brackets.calls)
		assert.Empty(t, rooms.all())
	})
}
