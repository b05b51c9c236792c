package models

import "time"

const DefaultRating = 1200

type Player struct {
	ID          int       `json:"id" db:"id"`
	TeamID      int       `json:"team_id" db:"team_id"`
	Name        string    `json:"name" db:"name"`
	Rating      int       `json:"rating" db:"rating"`
	BoardOrder  int       `json:"board_order" db:"board_order"`
	GamesPlayed int       `json:"games_played" db:"games_played"`
	Wins        int       `json:"wins" db:"wins"`
	Draws       int       `json:"draws" db:"draws"`
	Losses      int       `json:"losses" db:"losses"`
	Points      float64   `json:"points" db:"points"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// RecordScore adds one finished game worth score (1, 0.5 or 0) to the totals.
func (p *Player) RecordScore(score float64) {
	p.GamesPlayed++
	p.Points += score
	switch score {
	case 1:
		p.Wins++
	case 0.5:
		p.Draws++
	default:
		p.Losses++
	}
}

// RevokeScore is the inverse of RecordScore.
func (p *Player) RevokeScore(score float64) {
	p.GamesPlayed--
	p.Points -= score
	switch score {
	case 1:
		p.Wins--
	case 0.5:
		p.Draws--
	default:
		p.Losses--
	}
}
