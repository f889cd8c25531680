package entity

import "time"

// Match is the durable record of one head-to-head game. It is created
// when matchmaking or a tournament round pairs two users and mutated
// once more at finalization.
type Match struct {
	ID           string     `json:"id"`
	User1        UserRef    `json:"user1"`
	User2        UserRef    `json:"user2"`
	Winner       *UserRef   `json:"winner,omitempty"`
	Score1       int        `json:"score1"`
	Score2       int        `json:"score2"`
	RoundNumber  int        `json:"round_number,omitempty"`
	TournamentID string     `json:"tournament_id,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func NewMatch(id string, user1, user2 UserRef) *Match {
	return &Match{
		ID:        id,
		User1:     user1,
		User2:     user2,
		StartedAt: time.Now().UTC(),
	}
}

func (that *Match) IsFinished() bool {
	return that.FinishedAt != nil
}

func (that *Match) HasParticipant(userID string) bool {
	return that.User1.ID == userID || that.User2.ID == userID
}

// IsLeftUser - user1 always guards the left paddle.
func (that *Match) IsLeftUser(userID string) bool {
	return that.User1.ID == userID
}

func (that *Match) IsTournamentMatch() bool {
	return that.TournamentID != ""
}
