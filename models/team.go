package models

import "time"

const (
	MinTeamSize = 4
	MaxTeamSize = 6
)

// Team хранит участника турнира вместе с производными показателями таблицы.
type Team struct {
	ID              int       `json:"id" db:"id"`
	TournamentID    int       `json:"tournament_id" db:"tournament_id"`
	Name            string    `json:"name" db:"name"`
	MatchPoints     int       `json:"match_points" db:"match_points"`
	GamePoints      float64   `json:"game_points" db:"game_points"`
	SonnebornBerger float64   `json:"sonneborn_berger" db:"sonneborn_berger"`
	Wins            int       `json:"wins" db:"wins"`
	Draws           int       `json:"draws" db:"draws"`
	Losses          int       `json:"losses" db:"losses"`
	MatchesPlayed   int       `json:"matches_played" db:"matches_played"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`

	Players []Player `json:"players,omitempty" db:"-"`
}
