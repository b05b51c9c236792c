package scoring

import (
	"sort"

	"github.com/Dosada05/chess-league/models"
)

const (
	matchPointsWin  = 2
	matchPointsDraw = 1
)

// CalculateStandings derives the league table from completed matches.
// Sonneborn–Berger is computed in a second pass so it only ever sees the
// opponents' final match points. Ties keep the order of teams.
func CalculateStandings(teams []*models.Team, matches []*models.Match) []models.TeamStanding {
	rows := make([]models.TeamStanding, len(teams))
	index := make(map[int]int, len(teams))
	for i, t := range teams {
		rows[i] = models.TeamStanding{TeamID: t.ID, TeamName: t.Name}
		index[t.ID] = i
	}

	var played []*models.Match
	for _, m := range matches {
		if !m.IsCompleted {
			continue
		}
		wi, okW := index[m.WhiteTeamID]
		bi, okB := index[m.BlackTeamID]
		if !okW || !okB {
			continue
		}
		played = append(played, m)

		white, black := &rows[wi], &rows[bi]
		white.GamePoints += m.WhiteScore
		black.GamePoints += m.BlackScore
		switch models.ResultFromScores(m.WhiteScore, m.BlackScore) {
		case models.ResultWhiteWin:
			white.MatchPoints += matchPointsWin
			white.Wins++
			black.Losses++
		case models.ResultBlackWin:
			black.MatchPoints += matchPointsWin
			black.Wins++
			white.Losses++
		default:
			white.MatchPoints += matchPointsDraw
			black.MatchPoints += matchPointsDraw
			white.Draws++
			black.Draws++
		}
	}

	// Второй проход: очки соперников уже зафиксированы.
	sb := make([]float64, len(rows))
	for _, m := range played {
		wi, bi := index[m.WhiteTeamID], index[m.BlackTeamID]
		whiteMP, blackMP := float64(rows[wi].MatchPoints), float64(rows[bi].MatchPoints)
		switch models.ResultFromScores(m.WhiteScore, m.BlackScore) {
		case models.ResultWhiteWin:
			sb[wi] += blackMP
		case models.ResultBlackWin:
			sb[bi] += whiteMP
		default:
			sb[wi] += blackMP / 2
			sb[bi] += whiteMP / 2
		}
	}
	for i := range rows {
		rows[i].SonnebornBerger = sb[i]
		rows[i].MatchesPlayed = rows[i].Wins + rows[i].Draws + rows[i].Losses
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.MatchPoints != b.MatchPoints {
			return a.MatchPoints > b.MatchPoints
		}
		if a.GamePoints != b.GamePoints {
			return a.GamePoints > b.GamePoints
		}
		return a.SonnebornBerger > b.SonnebornBerger
	})
	for i := range rows {
		rows[i].Position = i + 1
	}
	return rows
}

// ApplyStandings copies the derived fields onto the team records.
func ApplyStandings(teams map[int]*models.Team, standings []models.TeamStanding) {
	for _, row := range standings {
		team, ok := teams[row.TeamID]
		if !ok {
			continue
		}
		team.MatchPoints = row.MatchPoints
		team.GamePoints = row.GamePoints
		team.SonnebornBerger = row.SonnebornBerger
		team.Wins = row.Wins
		team.Draws = row.Draws
		team.Losses = row.Losses
		team.MatchesPlayed = row.MatchesPlayed
	}
}
