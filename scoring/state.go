// Package scoring holds the pure result bookkeeping of a tournament: board
// results flowing into matches, rounds and tournament progress, and the
// derived standings and player rankings. Nothing here touches storage.
package scoring

import (
	"errors"
	"sort"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrGameNotFound           = errors.New("game not found")
	ErrMatchNotFound          = errors.New("match not found")
	ErrRoundNotFound          = errors.New("round not found")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrResultAlreadySubmitted = errors.New("result already submitted for this board")
	ErrResultNotSubmitted     = errors.New("no result has been submitted for this board")
	ErrInvalidOutcome         = errors.New("result must be one of white_win, black_win or draw")
	ErrInvalidBoard           = errors.New("board is inconsistent with its match")
)

// State is an in-memory view of one tournament, keyed by record ID.
// Operations mutate the records in place and report what they touched.
type State struct {
	Tournament *models.Tournament
	Teams      map[int]*models.Team
	Players    map[int]*models.Player
	Rounds     map[int]*models.Round
	Matches    map[int]*models.Match
	Games      map[int]*models.Game

	// teamOrder keeps creation order for stable standings ties.
	teamOrder []int
}

func NewState(
	tournament *models.Tournament,
	teams []*models.Team,
	players []*models.Player,
	rounds []*models.Round,
	matches []*models.Match,
	games []*models.Game,
) *State {
	s := &State{
		Tournament: tournament,
		Teams:      make(map[int]*models.Team, len(teams)),
		Players:    make(map[int]*models.Player, len(players)),
		Rounds:     make(map[int]*models.Round, len(rounds)),
		Matches:    make(map[int]*models.Match, len(matches)),
		Games:      make(map[int]*models.Game, len(games)),
		teamOrder:  make([]int, 0, len(teams)),
	}
	for _, t := range teams {
		s.Teams[t.ID] = t
		s.teamOrder = append(s.teamOrder, t.ID)
	}
	for _, p := range players {
		s.Players[p.ID] = p
	}
	for _, r := range rounds {
		s.Rounds[r.ID] = r
	}
	for _, m := range matches {
		s.Matches[m.ID] = m
	}
	for _, g := range games {
		s.Games[g.ID] = g
	}
	return s
}

// OrderedTeams returns the teams in the order they were loaded.
func (s *State) OrderedTeams() []*models.Team {
	teams := make([]*models.Team, 0, len(s.teamOrder))
	for _, id := range s.teamOrder {
		teams = append(teams, s.Teams[id])
	}
	return teams
}

// OrderedMatches returns all matches sorted by round number, then ID.
func (s *State) OrderedMatches() []*models.Match {
	matches := make([]*models.Match, 0, len(s.Matches))
	for _, m := range s.Matches {
		matches = append(matches, m)
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundNumber != matches[j].RoundNumber {
			return matches[i].RoundNumber < matches[j].RoundNumber
		}
		return matches[i].ID < matches[j].ID
	})
	return matches
}

// GameByBoard finds the board of a match.
func (s *State) GameByBoard(matchID, boardNumber int) (*models.Game, bool) {
	for _, g := range s.Games {
		if g.MatchID == matchID && g.BoardNumber == boardNumber {
			return g, true
		}
	}
	return nil, false
}

func (s *State) gamesOf(matchID int) []*models.Game {
	var games []*models.Game
	for _, g := range s.Games {
		if g.MatchID == matchID {
			games = append(games, g)
		}
	}
	sort.Slice(games, func(i, j int) bool { return games[i].BoardNumber < games[j].BoardNumber })
	return games
}

func (s *State) completedRounds() int {
	n := 0
	for _, r := range s.Rounds {
		if r.IsCompleted {
			n++
		}
	}
	return n
}

// AllRoundsCompleted reports whether every round has all its matches played.
func (s *State) AllRoundsCompleted() bool {
	return len(s.Rounds) > 0 && s.completedRounds() == len(s.Rounds)
}

func (s *State) roundFinished(roundID int) bool {
	for _, m := range s.Matches {
		if m.RoundID == roundID && !m.IsCompleted {
			return false
		}
	}
	return true
}
