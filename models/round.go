package models

import "time"

type Round struct {
	ID           int        `json:"id" db:"id"`
	TournamentID int        `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int        `json:"round_number" db:"round_number"`
	StartDate    *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate      *time.Time `json:"end_date,omitempty" db:"end_date"`
	IsCompleted  bool       `json:"is_completed" db:"is_completed"`
	ByeTeamID    *int       `json:"bye_team_id,omitempty" db:"bye_team_id"`

	Matches []Match `json:"matches,omitempty" db:"-"`
}
