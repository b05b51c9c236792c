package services

import (
	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
)

// Broadcaster pushes live updates to subscribers of a room.
// *brackets.Hub implements it.
type Broadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

var _ Broadcaster = (*brackets.Hub)(nil)

type boardResultEvent struct {
	TournamentID int           `json:"tournament_id"`
	Game         *models.Game  `json:"game"`
	Match        *models.Match `json:"match"`
	CurrentRound int           `json:"current_round"`
	Status       string        `json:"status"`
}

type standingsEvent struct {
	TournamentID int                   `json:"tournament_id"`
	Standings    []models.TeamStanding `json:"standings"`
}

func publish(b Broadcaster, tournamentID int, msgType string, payload interface{}) {
	if b == nil {
		return
	}
	room := brackets.TournamentRoom(tournamentID)
	b.BroadcastToRoom(room, brackets.WebSocketMessage{Type: msgType, Payload: payload, RoomID: room})
}
