package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetLatest(ctx context.Context, exec SQLExecutor) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.Tournament, error)
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateProgress(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, updatedAt time.Time) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `id, name, description, status, current_round, total_rounds, start_date, end_date, created_at, updated_at`

func scanTournament(s rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	err := s.Scan(
		&t.ID, &t.Name, &t.Description, &t.Status, &t.CurrentRound, &t.TotalRounds,
		&t.StartDate, &t.EndDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	now := time.Now().UTC()
	if tournament.CreatedAt.IsZero() {
		tournament.CreatedAt = now
	}
	tournament.UpdatedAt = tournament.CreatedAt
	query := `
		INSERT INTO tournaments (name, description, status, current_round, total_rounds, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		tournament.Name, tournament.Description, tournament.Status, tournament.CurrentRound, tournament.TotalRounds,
		tournament.StartDate, tournament.EndDate, tournament.CreatedAt, tournament.UpdatedAt,
	).Scan(&tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to insert tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetLatest(ctx context.Context, exec SQLExecutor) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY created_at DESC, id DESC LIMIT 1`
	return scanTournament(r.getExecutor(exec).QueryRowContext(ctx, query))
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, limit, offset int) ([]*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments ORDER BY id DESC LIMIT $1 OFFSET $2`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return collectRows(rows, scanTournament)
}

// Update overwrites the editable details of a tournament.
func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	tournament.UpdatedAt = time.Now().UTC()
	query := `
		UPDATE tournaments
		SET name = $1, description = $2, start_date = $3, end_date = $4, updated_at = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		tournament.Name, tournament.Description, tournament.StartDate, tournament.EndDate,
		tournament.UpdatedAt, tournament.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update tournament %d: %w", tournament.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// UpdateProgress persists the fields result propagation derives.
func (r *postgresTournamentRepository) UpdateProgress(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error {
	if tournament.UpdatedAt.IsZero() {
		tournament.UpdatedAt = time.Now().UTC()
	}
	query := `UPDATE tournaments SET current_round = $1, status = $2, updated_at = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		tournament.CurrentRound, tournament.Status, tournament.UpdatedAt, tournament.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update progress of tournament %d: %w", tournament.ID, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// UpdateStatus меняет только статус; прогресс туров пишет UpdateProgress.
func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus, updatedAt time.Time) error {
	query := `UPDATE tournaments SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, status, updatedAt, id)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}
