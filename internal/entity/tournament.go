package entity

import "time"

// TournamentPlayer is a registration of a user in one tournament under
// a display name chosen for that tournament.
type TournamentPlayer struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	User        UserRef `json:"user"`
}

// Bye marks a player who advances a round automatically because the
// bracket size was odd.
type Bye struct {
	ID          string `json:"id"`
	PlayerID    string `json:"player_id"`
	RoundNumber int    `json:"round_number"`
}

// Tournament is the durable single-elimination bracket record.
// CurrentRound zero means the tournament has not started yet.
type Tournament struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	CurrentRound int                `json:"current_round"`
	Players      []TournamentPlayer `json:"players"`
	MatchIDs     []string           `json:"match_ids,omitempty"`
	Byes         []Bye              `json:"byes,omitempty"`
	Winner       *TournamentPlayer  `json:"winner,omitempty"`
	StartedAt    *time.Time         `json:"started_at,omitempty"`
	FinishedAt   *time.Time         `json:"finished_at,omitempty"`
}

func (that *Tournament) IsFinished() bool {
	return that.FinishedAt != nil
}

func (that *Tournament) IsStarted() bool {
	return that.CurrentRound > 0
}

func (that *Tournament) PlayerByUserID(userID string) (TournamentPlayer, bool) {
	for _, player := range that.Players {
		if player.User.ID == userID {
			return player, true
		}
	}

	return TournamentPlayer{}, false
}

func (that *Tournament) PlayerByID(id string) (TournamentPlayer, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return TournamentPlayer{}, false
}

func (that *Tournament) ByesForRound(round int) []Bye {
	var byes []Bye
	for _, bye := range that.Byes {
		if bye.RoundNumber == round {
			byes = append(byes, bye)
		}
	}

	return byes
}
