package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

// StandingRepository persists the derived table columns of teams.
type StandingRepository interface {
	SaveStandings(ctx context.Context, exec SQLExecutor, teams []*models.Team) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresStandingRepository) SaveStandings(ctx context.Context, exec SQLExecutor, teams []*models.Team) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE teams
		SET match_points = $1, game_points = $2, sonneborn_berger = $3,
		    wins = $4, draws = $5, losses = $6, matches_played = $7
		WHERE id = $8`
	for _, team := range teams {
		result, err := executor.ExecContext(ctx, query,
			team.MatchPoints, team.GamePoints, team.SonnebornBerger,
			team.Wins, team.Draws, team.Losses, team.MatchesPlayed, team.ID,
		)
		if err != nil {
			return fmt.Errorf("SaveStandings failed for team %d: %w", team.ID, err)
		}
		if err := checkAffectedRows(result, ErrTeamNotFound); err != nil {
			return fmt.Errorf("SaveStandings failed for team %d: %w", team.ID, err)
		}
	}
	return nil
}

// ListByTournament returns teams ordered by the stored table columns.
func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error) {
	query := `
		SELECT ` + teamColumns + `
		FROM teams
		WHERE tournament_id = $1
		ORDER BY match_points DESC, game_points DESC, sonneborn_berger DESC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanTeam)
}
