package service

// MatchRoom - broadcast room for one match's live game.
func MatchRoom(matchID string) string {
	return "match:" + matchID
}

// TournamentRoom - broadcast room for a tournament lobby; finished
// matches wake it so waiting players see the bracket move.
func TournamentRoom(tournamentID string) string {
	return "tournament:" + tournamentID
}
