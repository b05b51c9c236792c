package scoring

import (
	"testing"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// newLeague builds an in-memory tournament with teamCount teams of four
// players each. Team IDs are 1..n, player IDs are teamID*100+board.
func newLeague(t *testing.T, teamCount int) *State {
	t.Helper()

	tournament := &models.Tournament{ID: 1, Name: "League", Status: models.StatusActive, CurrentRound: 1}
	var (
		teams   []*models.Team
		players []*models.Player
		rosters []brackets.TeamRoster
	)
	for i := 1; i <= teamCount; i++ {
		team := &models.Team{ID: i, TournamentID: tournament.ID, Name: string(rune('A' + i - 1))}
		teams = append(teams, team)
		roster := brackets.TeamRoster{TeamID: team.ID}
		for b := 1; b <= 4; b++ {
			p := &models.Player{ID: i*100 + b, TeamID: team.ID, Rating: 2000 - b*50, BoardOrder: b}
			players = append(players, p)
			roster.Players = append(roster.Players, p)
		}
		rosters = append(rosters, roster)
	}

	skeleton, err := brackets.BuildSkeleton(rosters)
	require.NoError(t, err)
	tournament.TotalRounds = len(skeleton.Rounds)

	var (
		rounds  []*models.Round
		matches []*models.Match
		games   []*models.Game
	)
	matchID, gameID := 0, 0
	for _, sr := range skeleton.Rounds {
		round := &models.Round{ID: sr.Number, TournamentID: tournament.ID, RoundNumber: sr.Number, ByeTeamID: sr.ByeTeamID}
		rounds = append(rounds, round)
		for _, sm := range sr.Matches {
			matchID++
			matches = append(matches, &models.Match{
				ID: matchID, TournamentID: tournament.ID, RoundID: round.ID, RoundNumber: round.RoundNumber,
				WhiteTeamID: sm.WhiteTeamID, BlackTeamID: sm.BlackTeamID, Result: models.ResultPending,
			})
			for _, b := range sm.Boards {
				gameID++
				games = append(games, &models.Game{
					ID: gameID, MatchID: matchID, BoardNumber: b.BoardNumber,
					WhitePlayerID: b.WhitePlayerID, BlackPlayerID: b.BlackPlayerID, Result: models.ResultPending,
				})
			}
		}
	}
	return NewState(tournament, teams, players, rounds, matches, games)
}

func boardOf(t *testing.T, s *State, matchID, board int) *models.Game {
	t.Helper()
	g, ok := s.GameByBoard(matchID, board)
	require.True(t, ok, "match %d board %d", matchID, board)
	return g
}

// playMatch submits all four boards of a match in board order.
func playMatch(t *testing.T, s *State, matchID int, results ...models.Result) *Changes {
	t.Helper()
	require.Len(t, results, 4)
	var last *Changes
	for i, r := range results {
		changes, err := ApplyBoardResult(s, boardOf(t, s, matchID, i+1).ID, r, testNow)
		require.NoError(t, err)
		last = changes
	}
	return last
}

func matchesInRound(s *State, roundNumber int) []*models.Match {
	var out []*models.Match
	for _, m := range s.OrderedMatches() {
		if m.RoundNumber == roundNumber {
			out = append(out, m)
		}
	}
	return out
}
