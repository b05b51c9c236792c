package models

import "time"

// Match is one team-vs-team encounter inside a round.
type Match struct {
	ID            int        `json:"id" db:"id"`
	TournamentID  int        `json:"tournament_id" db:"tournament_id"`
	RoundID       int        `json:"round_id" db:"round_id"`
	RoundNumber   int        `json:"round_number" db:"round_number"`
	WhiteTeamID   int        `json:"white_team_id" db:"white_team_id"`
	BlackTeamID   int        `json:"black_team_id" db:"black_team_id"`
	WhiteScore    float64    `json:"white_score" db:"white_score"`
	BlackScore    float64    `json:"black_score" db:"black_score"`
	Result        Result     `json:"result" db:"result"`
	ScheduledDate *time.Time `json:"scheduled_date,omitempty" db:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty" db:"completed_date"`
	IsCompleted   bool       `json:"is_completed" db:"is_completed"`

	Games []Game `json:"games,omitempty" db:"-"`
}

// Involves reports whether teamID plays in the match.
func (m *Match) Involves(teamID int) bool {
	return m.WhiteTeamID == teamID || m.BlackTeamID == teamID
}
