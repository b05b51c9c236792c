package brackets

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidTournamentSize = errors.New("at least two teams are required")
	ErrDuplicateTeam         = errors.New("team appears more than once in the field")
)

// byeSlot marks the phantom opponent appended to odd fields.
const byeSlot = -1

// Pairing is a scheduled match between two teams. WhiteTeamID takes white on
// boards 1 and 3.
type Pairing struct {
	WhiteTeamID int `json:"white_team_id"`
	BlackTeamID int `json:"black_team_id"`
}

type ScheduledRound struct {
	Number    int       `json:"number"`
	Pairings  []Pairing `json:"pairings"`
	ByeTeamID *int      `json:"bye_team_id,omitempty"`
}

// RoundCount returns the number of rounds a single round robin over n teams needs.
func RoundCount(n int) int {
	if n < 2 {
		return 0
	}
	if n%2 != 0 {
		n++
	}
	return n - 1
}

// GenerateSchedule builds a single round robin with the circle method.
// The first team stays fixed while the others rotate one step per round.
// The fixed team's pairing alternates sides every round, every other pairing
// gives white to the team from the upper half of the circle, so each team's
// white and black counts differ by at most one.
func GenerateSchedule(teamIDs []int) ([]ScheduledRound, error) {
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTournamentSize, len(teamIDs))
	}
	seen := make(map[int]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: team %d", ErrDuplicateTeam, id)
		}
		seen[id] = struct{}{}
	}

	// Работаем с индексами, чтобы ID команды не конфликтовал с маркером bye.
	circle := make([]int, 0, len(teamIDs)+1)
	for i := range teamIDs {
		circle = append(circle, i)
	}
	if len(circle)%2 != 0 {
		circle = append(circle, byeSlot)
	}
	size := len(circle)

	rounds := make([]ScheduledRound, 0, size-1)
	for r := 0; r < size-1; r++ {
		round := ScheduledRound{
			Number:   r + 1,
			Pairings: make([]Pairing, 0, size/2),
		}
		for i := 0; i < size/2; i++ {
			upper, lower := circle[i], circle[size-1-i]
			if upper == byeSlot || lower == byeSlot {
				idle := upper
				if idle == byeSlot {
					idle = lower
				}
				byeTeam := teamIDs[idle]
				round.ByeTeamID = &byeTeam
				continue
			}
			if i == 0 && r%2 != 0 {
				upper, lower = lower, upper
			}
			round.Pairings = append(round.Pairings, Pairing{
				WhiteTeamID: teamIDs[upper],
				BlackTeamID: teamIDs[lower],
			})
		}
		rounds = append(rounds, round)
		rotate(circle)
	}
	return rounds, nil
}

// rotate moves the last element to position 1, keeping position 0 fixed.
func rotate(circle []int) {
	if len(circle) < 3 {
		return
	}
	last := circle[len(circle)-1]
	copy(circle[2:], circle[1:len(circle)-1])
	circle[1] = last
}

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket creates the full round → match → board skeleton for the
// rosters in params. Nothing is persisted here.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Skeleton, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return BuildSkeleton(params.Rosters)
}
