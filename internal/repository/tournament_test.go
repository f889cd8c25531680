package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spindlegames/arena-backend/internal/apperror"
	"github.com/spindlegames/arena-backend/internal/entity"
	"github.com/spindlegames/arena-backend/testing/suite"
)

func testTournament() *entity.Tournament {
	return &entity.Tournament{
		ID:   "t1",
		Name: "Friday Cup",
		Players: []entity.TournamentPlayer{
			{ID: "p1", DisplayName: "Alice", User: entity.UserRef{ID: "u1", DisplayName: "Alice"}},
			{ID: "p2", DisplayName: "Bob", User: entity.UserRef{ID: "u2", DisplayName: "Bob"}},
			{ID: "p3", DisplayName: "Carol", User: entity.UserRef{ID: "u3", DisplayName: "Carol"}},
		},
	}
}

func roundOne() ([]*entity.Match, *entity.Bye) {
	match := entity.NewMatch("m1",
		entity.UserRef{ID: "u1", DisplayName: "Alice"},
		entity.UserRef{ID: "u2", DisplayName: "Bob"},
	)
	match.RoundNumber = 1
	match.TournamentID = "t1"

	bye := &entity.Bye{ID: "b1", PlayerID: "p3", RoundNumber: 1}

	return []*entity.Match{match}, bye
}

func TestTournamentRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		tournamentRepo := NewTournamentRepository(st.Storage)

		// Given: a registered tournament
		tournament := testTournament()
		require.NoError(t, tournamentRepo.Create(ctx, tournament))

		// When: GetByID is called
		retrieved, err := tournamentRepo.GetByID(ctx, tournament.ID)

		// Then: the registration round-trips
		require.NoError(t, err)
		assert.Equal(t, tournament.ID, retrieved.ID)
		assert.Equal(t, tournament.Name, retrieved.Name)
		assert.Equal(t, tournament.Players, retrieved.Players)
		assert.Equal(t, 0, retrieved.CurrentRound)
		assert.False(t, retrieved.IsStarted())
		assert.Empty(t, retrieved.MatchIDs)
		assert.Empty(t, retrieved.Byes)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		tournamentRepo := NewTournamentRepository(st.Storage)

		// When: GetByID is called with an unknown ID
		_, err := tournamentRepo.GetByID(ctx, "nope")

		// Then: the not-found error should be returned
		require.ErrorIs(t, err, apperror.ErrTournamentNotFound)
	})
}

func TestTournamentRepository_SaveRound(t *testing.T) {
	ctx, st := suite.New(t)

	tournamentRepo := NewTournamentRepository(st.Storage)
	matchRepo := NewMatchRepository(st.Storage)

	// Given: a registered tournament and a generated first round
	tournament := testTournament()
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	matches, bye := roundOne()

	// When: the round is saved
	err := tournamentRepo.SaveRound(ctx, tournament.ID, 1, matches, bye)
	require.NoError(t, err)

	// Then: the bracket advanced and got its start stamp
	retrieved, err := tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.CurrentRound)
	assert.True(t, retrieved.IsStarted())
	require.NotNil(t, retrieved.StartedAt)
	assert.Equal(t, []string{"m1"}, retrieved.MatchIDs)
	require.Len(t, retrieved.Byes, 1)
	assert.Equal(t, "p3", retrieved.Byes[0].PlayerID)

	// Then: the match record is readable through the match repository
	match, err := matchRepo.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 1, match.RoundNumber)
	assert.Equal(t, tournament.ID, match.TournamentID)

	// When: a later round is saved
	final := entity.NewMatch("m2",
		entity.UserRef{ID: "u1", DisplayName: "Alice"},
		entity.UserRef{ID: "u3", DisplayName: "Carol"},
	)
	final.RoundNumber = 2
	final.TournamentID = tournament.ID

	startStamp := *retrieved.StartedAt
	require.NoError(t, tournamentRepo.SaveRound(ctx, tournament.ID, 2, []*entity.Match{final}, nil))

	// Then: the start stamp is not rewritten
	retrieved, err = tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, retrieved.CurrentRound)
	assert.Equal(t, []string{"m1", "m2"}, retrieved.MatchIDs)
	require.NotNil(t, retrieved.StartedAt)
	assert.True(t, startStamp.Equal(*retrieved.StartedAt))
}

func TestTournamentRepository_ListMatchesForRound(t *testing.T) {
	ctx, st := suite.New(t)

	tournamentRepo := NewTournamentRepository(st.Storage)
	matchRepo := NewMatchRepository(st.Storage)

	// Given: a first round with one decided and one pending match
	tournament := testTournament()
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	first := entity.NewMatch("m1", entity.UserRef{ID: "u1"}, entity.UserRef{ID: "u2"})
	first.RoundNumber = 1
	first.TournamentID = tournament.ID

	second := entity.NewMatch("m2", entity.UserRef{ID: "u3"}, entity.UserRef{ID: "u4"})
	second.RoundNumber = 1
	second.TournamentID = tournament.ID

	require.NoError(t, tournamentRepo.SaveRound(ctx, tournament.ID, 1, []*entity.Match{first, second}, nil))

	applied, err := matchRepo.SaveOutcome(ctx, "m1", &entity.UserRef{ID: "u1"}, 3, 2, time.Now())
	require.NoError(t, err)
	require.True(t, applied)

	// When: the round's matches are listed
	matches, err := tournamentRepo.ListMatchesForRound(ctx, tournament.ID, 1)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	// When: only pending matches are listed
	pending, err := tournamentRepo.ListPendingMatchesForRound(ctx, tournament.ID, 1)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m2", pending[0].ID)

	// When: an empty round is listed
	empty, err := tournamentRepo.ListMatchesForRound(ctx, tournament.ID, 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTournamentRepository_Finalize(t *testing.T) {
	ctx, st := suite.New(t)

	tournamentRepo := NewTournamentRepository(st.Storage)

	// Given: a registered tournament
	tournament := testTournament()
	require.NoError(t, tournamentRepo.Create(ctx, tournament))

	champion := tournament.Players[0]
	firstFinish := time.Now().Add(-time.Minute)

	// When: the tournament is finalized
	require.NoError(t, tournamentRepo.Finalize(ctx, tournament.ID, &champion, firstFinish))

	// Then: champion and finish stamp are stored
	retrieved, err := tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.True(t, retrieved.IsFinished())
	require.NotNil(t, retrieved.Winner)
	assert.Equal(t, champion, *retrieved.Winner)

	// When: a conflicting second finalization arrives
	other := tournament.Players[1]
	require.NoError(t, tournamentRepo.Finalize(ctx, tournament.ID, &other, time.Now()))

	// Then: the first result stands
	retrieved, err = tournamentRepo.GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.Winner)
	assert.Equal(t, champion, *retrieved.Winner)
	require.NotNil(t, retrieved.FinishedAt)
	assert.True(t, firstFinish.UTC().Equal(retrieved.FinishedAt.UTC()))
}
