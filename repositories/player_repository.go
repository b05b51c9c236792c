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
	ErrPlayerNotFound     = errors.New("player not found")
	ErrPlayerNameConflict = errors.New("player name already exists in this team")
)

type PlayerRepository interface {
	Create(ctx context.Context, exec SQLExecutor, player *models.Player) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error)
	ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Player, error)
	Update(ctx context.Context, exec SQLExecutor, player *models.Player) error
	UpdateStats(ctx context.Context, exec SQLExecutor, player *models.Player) error
	ShiftBoardOrders(ctx context.Context, exec SQLExecutor, teamID, after int) error
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const playerColumns = `p.id, p.team_id, p.name, p.rating, p.board_order, p.games_played, p.wins, p.draws, p.losses, p.points, p.created_at`

func scanPlayer(s rowScanner) (*models.Player, error) {
	var p models.Player
	err := s.Scan(
		&p.ID, &p.TeamID, &p.Name, &p.Rating, &p.BoardOrder,
		&p.GamesPlayed, &p.Wins, &p.Draws, &p.Losses, &p.Points, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresPlayerRepository) handlePlayerError(err error) error {
	if isUniqueViolation(err, "players_team_name_key") {
		return ErrPlayerNameConflict
	}
	if isForeignKeyViolation(err) {
		return ErrTeamNotFound
	}
	return err
}

func (r *postgresPlayerRepository) Create(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	if player.CreatedAt.IsZero() {
		player.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO players (team_id, name, rating, board_order, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		player.TeamID, player.Name, player.Rating, player.BoardOrder, player.CreatedAt,
	).Scan(&player.ID)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players p WHERE p.id = $1`
	return scanPlayer(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresPlayerRepository) ListByTeam(ctx context.Context, exec SQLExecutor, teamID int) ([]*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players p WHERE p.team_id = $1 ORDER BY p.board_order ASC, p.id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of team %d: %w", teamID, err)
	}
	return collectRows(rows, scanPlayer)
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Player, error) {
	query := `
		SELECT ` + playerColumns + `
		FROM players p
		JOIN teams t ON t.id = p.team_id
		WHERE t.tournament_id = $1
		ORDER BY p.team_id ASC, p.board_order ASC, p.id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanPlayer)
}

// Update writes the roster fields (name, rating, board order).
func (r *postgresPlayerRepository) Update(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `UPDATE players SET name = $1, rating = $2, board_order = $3 WHERE id = $4`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, player.Name, player.Rating, player.BoardOrder, player.ID)
	if err != nil {
		return r.handlePlayerError(err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// UpdateStats writes the running game totals.
func (r *postgresPlayerRepository) UpdateStats(ctx context.Context, exec SQLExecutor, player *models.Player) error {
	query := `
		UPDATE players
		SET games_played = $1, wins = $2, draws = $3, losses = $4, points = $5
		WHERE id = $6`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		player.GamesPlayed, player.Wins, player.Draws, player.Losses, player.Points, player.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update stats of player %d: %w", player.ID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

// ShiftBoardOrders moves every player of teamID seated below after one board up.
func (r *postgresPlayerRepository) ShiftBoardOrders(ctx context.Context, exec SQLExecutor, teamID, after int) error {
	query := `UPDATE players SET board_order = board_order - 1 WHERE team_id = $1 AND board_order > $2`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, teamID, after); err != nil {
		return fmt.Errorf("failed to shift board orders of team %d: %w", teamID, err)
	}
	return nil
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete player %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
