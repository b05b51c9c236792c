package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

// TeamRoster is a team together with the players it may field.
type TeamRoster struct {
	TeamID  int
	Players []*models.Player
}

type GenerateBracketParams struct {
	Tournament *models.Tournament
	Rosters    []TeamRoster
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) (*Skeleton, error)

	GetName() string
}

type SkeletonMatch struct {
	Pairing
	Boards []BoardAssignment `json:"boards"`
}

type SkeletonRound struct {
	Number    int             `json:"number"`
	ByeTeamID *int            `json:"bye_team_id,omitempty"`
	Matches   []SkeletonMatch `json:"matches"`
}

// Skeleton is the complete, not yet persisted, tournament structure.
type Skeleton struct {
	Rounds []SkeletonRound `json:"rounds"`
}

// MatchCount returns the total number of matches over all rounds.
func (s *Skeleton) MatchCount() int {
	total := 0
	for _, r := range s.Rounds {
		total += len(r.Matches)
	}
	return total
}

// BuildSkeleton runs the schedule generator over the rosters, in the given
// order, and seats players for every match. Any roster problem fails the
// whole build.
func BuildSkeleton(rosters []TeamRoster) (*Skeleton, error) {
	teamIDs := make([]int, len(rosters))
	byTeam := make(map[int][]*models.Player, len(rosters))
	for i, r := range rosters {
		teamIDs[i] = r.TeamID
		byTeam[r.TeamID] = r.Players
	}

	schedule, err := GenerateSchedule(teamIDs)
	if err != nil {
		return nil, err
	}

	// Ростер проверяем до раскладки, чтобы ошибка указывала на команду.
	for _, r := range rosters {
		if len(r.Players) < models.BoardsPerMatch {
			return nil, fmt.Errorf("team %d: %w", r.TeamID, ErrInsufficientRoster)
		}
	}

	skeleton := &Skeleton{Rounds: make([]SkeletonRound, 0, len(schedule))}
	for _, sr := range schedule {
		round := SkeletonRound{
			Number:    sr.Number,
			ByeTeamID: sr.ByeTeamID,
			Matches:   make([]SkeletonMatch, 0, len(sr.Pairings)),
		}
		for _, p := range sr.Pairings {
			boards, err := AssignBoards(byTeam[p.WhiteTeamID], byTeam[p.BlackTeamID])
			if err != nil {
				return nil, fmt.Errorf("round %d, teams %d vs %d: %w", sr.Number, p.WhiteTeamID, p.BlackTeamID, err)
			}
			round.Matches = append(round.Matches, SkeletonMatch{Pairing: p, Boards: boards})
		}
		skeleton.Rounds = append(skeleton.Rounds, round)
	}
	return skeleton, nil
}
