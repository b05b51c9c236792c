package models

import "time"

const BoardsPerMatch = 4

// Game is a single board of a match.
type Game struct {
	ID            int        `json:"id" db:"id"`
	MatchID       int        `json:"match_id" db:"match_id"`
	BoardNumber   int        `json:"board_number" db:"board_number"`
	WhitePlayerID int        `json:"white_player_id" db:"white_player_id"`
	BlackPlayerID int        `json:"black_player_id" db:"black_player_id"`
	Result        Result     `json:"result" db:"result"`
	WhiteScore    float64    `json:"white_score" db:"white_score"`
	BlackScore    float64    `json:"black_score" db:"black_score"`
	IsCompleted   bool       `json:"is_completed" db:"is_completed"`
	Notes         *string    `json:"notes,omitempty" db:"notes"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
}

// Color identifies a side of the board.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

func (c Color) Valid() bool {
	return c == ColorWhite || c == ColorBlack
}
