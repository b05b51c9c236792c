package scoring

import (
	"math"
	"sort"

	"github.com/Dosada05/chess-league/models"
)

// performanceSpread is the rating swing for a 100% (or 0%) score.
const performanceSpread = 400

// PlayerStatOf derives the ranking figures of a single player. Rank is left
// at zero.
func PlayerStatOf(p *models.Player, teamName string) models.PlayerStat {
	stat := models.PlayerStat{
		PlayerID:          p.ID,
		Name:              p.Name,
		TeamID:            p.TeamID,
		TeamName:          teamName,
		Rating:            p.Rating,
		BoardOrder:        p.BoardOrder,
		GamesPlayed:       p.GamesPlayed,
		Wins:              p.Wins,
		Draws:             p.Draws,
		Losses:            p.Losses,
		Points:            p.Points,
		PerformanceRating: p.Rating,
	}
	if p.GamesPlayed > 0 {
		ratio := p.Points / float64(p.GamesPlayed)
		stat.WinPercentage = math.Round(ratio*100*100) / 100
		stat.PerformanceRating = p.Rating + int(math.Round((ratio-0.5)*performanceSpread))
	}
	return stat
}

// RankPlayers orders players by wins, then win percentage, then rating.
func RankPlayers(players []*models.Player, teamNames map[int]string) []models.PlayerStat {
	stats := make([]models.PlayerStat, len(players))
	for i, p := range players {
		stats[i] = PlayerStatOf(p, teamNames[p.TeamID])
	}
	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.WinPercentage != b.WinPercentage {
			return a.WinPercentage > b.WinPercentage
		}
		return a.Rating > b.Rating
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}
	return stats
}
