package brackets

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/chess-league/models"
)

var ErrInsufficientRoster = errors.New("team needs at least four players")

// BoardAssignment seats two players on one board of a match.
type BoardAssignment struct {
	BoardNumber   int `json:"board_number"`
	WhitePlayerID int `json:"white_player_id"`
	BlackPlayerID int `json:"black_player_id"`
}

// AssignBoards picks the four highest rated players of each side (ties go to
// the lower board order) and seats them board by board. The white-side team
// plays white on boards 1 and 3, the black-side team on boards 2 and 4.
func AssignBoards(white, black []*models.Player) ([]BoardAssignment, error) {
	whiteLineup, err := lineup(white)
	if err != nil {
		return nil, fmt.Errorf("white side: %w", err)
	}
	blackLineup, err := lineup(black)
	if err != nil {
		return nil, fmt.Errorf("black side: %w", err)
	}

	boards := make([]BoardAssignment, models.BoardsPerMatch)
	for i := 0; i < models.BoardsPerMatch; i++ {
		board := BoardAssignment{BoardNumber: i + 1}
		if i%2 == 0 {
			board.WhitePlayerID = whiteLineup[i].ID
			board.BlackPlayerID = blackLineup[i].ID
		} else {
			board.WhitePlayerID = blackLineup[i].ID
			board.BlackPlayerID = whiteLineup[i].ID
		}
		boards[i] = board
	}
	return boards, nil
}

func lineup(roster []*models.Player) ([]*models.Player, error) {
	if len(roster) < models.BoardsPerMatch {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientRoster, len(roster))
	}
	sorted := make([]*models.Player, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].BoardOrder < sorted[j].BoardOrder
	})
	return sorted[:models.BoardsPerMatch], nil
}
