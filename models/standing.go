package models

// TeamStanding is a row of the derived league table.
type TeamStanding struct {
	Position        int     `json:"position"`
	TeamID          int     `json:"team_id"`
	TeamName        string  `json:"team_name"`
	MatchPoints     int     `json:"match_points"`
	GamePoints      float64 `json:"game_points"`
	SonnebornBerger float64 `json:"sonneborn_berger"`
	Wins            int     `json:"wins"`
	Draws           int     `json:"draws"`
	Losses          int     `json:"losses"`
	MatchesPlayed   int     `json:"matches_played"`
}

// PlayerStat is a row of the individual ranking.
type PlayerStat struct {
	Rank              int     `json:"rank"`
	PlayerID          int     `json:"player_id"`
	Name              string  `json:"name"`
	TeamID            int     `json:"team_id"`
	TeamName          string  `json:"team_name"`
	Rating            int     `json:"rating"`
	BoardOrder        int     `json:"board_order"`
	GamesPlayed       int     `json:"games_played"`
	Wins              int     `json:"wins"`
	Draws             int     `json:"draws"`
	Losses            int     `json:"losses"`
	Points            float64 `json:"points"`
	WinPercentage     float64 `json:"win_percentage"`
	PerformanceRating int     `json:"performance_rating"`
}

// PlayerStatistics extends PlayerStat with color split for a single player.
type PlayerStatistics struct {
	PlayerStat
	GamesAsWhite int `json:"games_as_white"`
	GamesAsBlack int `json:"games_as_black"`
}
