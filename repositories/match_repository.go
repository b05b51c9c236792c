package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Match, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	SetScheduledDateForRound(ctx context.Context, exec SQLExecutor, roundID int, date *time.Time) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round_id, round_number, white_team_id, black_team_id,
	white_score, black_score, result, scheduled_date, completed_date, is_completed`

func scanMatch(s rowScanner) (*models.Match, error) {
	var m models.Match
	err := s.Scan(
		&m.ID, &m.TournamentID, &m.RoundID, &m.RoundNumber, &m.WhiteTeamID, &m.BlackTeamID,
		&m.WhiteScore, &m.BlackScore, &m.Result, &m.ScheduledDate, &m.CompletedDate, &m.IsCompleted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	if match.Result == "" {
		match.Result = models.ResultPending
	}
	query := `
		INSERT INTO matches
			(tournament_id, round_id, round_number, white_team_id, black_team_id, result, scheduled_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.RoundID, match.RoundNumber, match.WhiteTeamID, match.BlackTeamID,
		match.Result, match.ScheduledDate,
	).Scan(&match.ID)
	if err != nil {
		return fmt.Errorf("failed to insert match %d vs %d: %w", match.WhiteTeamID, match.BlackTeamID, err)
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return scanMatch(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1 ORDER BY round_number ASC, id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanMatch)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID int) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE round_id = $1 ORDER BY id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of round %d: %w", roundID, err)
	}
	return collectRows(rows, scanMatch)
}

// UpdateResult writes the aggregate columns result propagation derives.
func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET white_score = $1, black_score = $2, result = $3, completed_date = $4, is_completed = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.WhiteScore, match.BlackScore, match.Result, match.CompletedDate, match.IsCompleted, match.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update match %d: %w", match.ID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) SetScheduledDateForRound(ctx context.Context, exec SQLExecutor, roundID int, date *time.Time) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE matches SET scheduled_date = $1 WHERE round_id = $2`, date, roundID); err != nil {
		return fmt.Errorf("failed to reschedule matches of round %d: %w", roundID, err)
	}
	return nil
}
