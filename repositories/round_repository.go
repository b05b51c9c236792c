package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

var ErrRoundNotFound = errors.New("round not found")

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Round, error)
	UpdateCompletion(ctx context.Context, exec SQLExecutor, id int, completed bool) error
	UpdateDates(ctx context.Context, exec SQLExecutor, id int, start, end *time.Time) error
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundColumns = `id, tournament_id, round_number, start_date, end_date, is_completed, bye_team_id`

func scanRound(s rowScanner) (*models.Round, error) {
	var rd models.Round
	err := s.Scan(&rd.ID, &rd.TournamentID, &rd.RoundNumber, &rd.StartDate, &rd.EndDate, &rd.IsCompleted, &rd.ByeTeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &rd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, round *models.Round) error {
	query := `
		INSERT INTO rounds (tournament_id, round_number, start_date, end_date, is_completed, bye_team_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		round.TournamentID, round.RoundNumber, round.StartDate, round.EndDate, round.IsCompleted, round.ByeTeamID,
	).Scan(&round.ID)
	if err != nil {
		return fmt.Errorf("failed to insert round %d: %w", round.RoundNumber, err)
	}
	return nil
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE id = $1`
	return scanRound(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds WHERE tournament_id = $1 ORDER BY round_number ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanRound)
}

func (r *postgresRoundRepository) UpdateCompletion(ctx context.Context, exec SQLExecutor, id int, completed bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE rounds SET is_completed = $1 WHERE id = $2`, completed, id)
	if err != nil {
		return fmt.Errorf("failed to update round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) UpdateDates(ctx context.Context, exec SQLExecutor, id int, start, end *time.Time) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE rounds SET start_date = $1, end_date = $2 WHERE id = $3`, start, end, id)
	if err != nil {
		return fmt.Errorf("failed to update dates of round %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}
