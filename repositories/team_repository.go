package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrTeamNotFound     = errors.New("team not found")
	ErrTeamNameConflict = errors.New("team name already exists in this tournament")
)

type TeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.Team) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const teamColumns = `id, tournament_id, name, match_points, game_points, sonneborn_berger, wins, draws, losses, matches_played, created_at`

func scanTeam(s rowScanner) (*models.Team, error) {
	var t models.Team
	err := s.Scan(
		&t.ID, &t.TournamentID, &t.Name, &t.MatchPoints, &t.GamePoints, &t.SonnebornBerger,
		&t.Wins, &t.Draws, &t.Losses, &t.MatchesPlayed, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.Team) error {
	if team.CreatedAt.IsZero() {
		team.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO teams (tournament_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query, team.TournamentID, team.Name, team.CreatedAt).Scan(&team.ID)
	if err != nil {
		if isUniqueViolation(err, "teams_tournament_name_key") {
			return ErrTeamNameConflict
		}
		return fmt.Errorf("failed to insert team %q: %w", team.Name, err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	return scanTeam(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

// ListByTournament returns teams in creation order.
func (r *postgresTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanTeam)
}
