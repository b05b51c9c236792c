package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/chess-league/models"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameBoardConflict = errors.New("board already exists for this match")
	ErrGameCompleted     = errors.New("game already has a result")
)

type GameRepository interface {
	Create(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error)
	GetByMatchAndBoard(ctx context.Context, exec SQLExecutor, matchID, boardNumber int) (*models.Game, error)
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Game, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Game, error)
	ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.Game, error)
	CountByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int, error)
	UpdateResult(ctx context.Context, exec SQLExecutor, game *models.Game) error
	UpdatePlayers(ctx context.Context, exec SQLExecutor, game *models.Game) error
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const gameColumns = `g.id, g.match_id, g.board_number, g.white_player_id, g.black_player_id, g.result,
	g.white_score, g.black_score, g.is_completed, g.notes, g.completed_at`

func scanGame(s rowScanner) (*models.Game, error) {
	var g models.Game
	err := s.Scan(
		&g.ID, &g.MatchID, &g.BoardNumber, &g.WhitePlayerID, &g.BlackPlayerID, &g.Result,
		&g.WhiteScore, &g.BlackScore, &g.IsCompleted, &g.Notes, &g.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresGameRepository) Create(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	if game.Result == "" {
		game.Result = models.ResultPending
	}
	query := `
		INSERT INTO games (match_id, board_number, white_player_id, black_player_id, result, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		game.MatchID, game.BoardNumber, game.WhitePlayerID, game.BlackPlayerID, game.Result, game.Notes,
	).Scan(&game.ID)
	if err != nil {
		if isUniqueViolation(err, "games_match_board_key") {
			return ErrGameBoardConflict
		}
		return fmt.Errorf("failed to insert game for match %d board %d: %w", game.MatchID, game.BoardNumber, err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.id = $1`
	return scanGame(r.getExecutor(exec).QueryRowContext(ctx, query, id))
}

func (r *postgresGameRepository) GetByMatchAndBoard(ctx context.Context, exec SQLExecutor, matchID, boardNumber int) (*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.match_id = $1 AND g.board_number = $2`
	return scanGame(r.getExecutor(exec).QueryRowContext(ctx, query, matchID, boardNumber))
}

func (r *postgresGameRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID int) ([]*models.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games g WHERE g.match_id = $1 ORDER BY g.board_number ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of match %d: %w", matchID, err)
	}
	return collectRows(rows, scanGame)
}

func (r *postgresGameRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		JOIN matches m ON m.id = g.match_id
		WHERE m.tournament_id = $1
		ORDER BY m.round_number ASC, g.match_id ASC, g.board_number ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of tournament %d: %w", tournamentID, err)
	}
	return collectRows(rows, scanGame)
}

func (r *postgresGameRepository) ListByPlayer(ctx context.Context, exec SQLExecutor, playerID int) ([]*models.Game, error) {
	query := `
		SELECT ` + gameColumns + `
		FROM games g
		JOIN matches m ON m.id = g.match_id
		WHERE g.white_player_id = $1 OR g.black_player_id = $1
		ORDER BY m.round_number ASC, g.id ASC`
	rows, err := r.getExecutor(exec).QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list games of player %d: %w", playerID, err)
	}
	return collectRows(rows, scanGame)
}

func (r *postgresGameRepository) CountByPlayer(ctx context.Context, exec SQLExecutor, playerID int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM games WHERE white_player_id = $1 OR black_player_id = $1`
	if err := r.getExecutor(exec).QueryRowContext(ctx, query, playerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count games of player %d: %w", playerID, err)
	}
	return count, nil
}

func (r *postgresGameRepository) UpdateResult(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		UPDATE games
		SET result = $1, white_score = $2, black_score = $3, is_completed = $4, completed_at = $5, notes = $6
		WHERE id = $7`
	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		game.Result, game.WhiteScore, game.BlackScore, game.IsCompleted, game.CompletedAt, game.Notes, game.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update game %d: %w", game.ID, err)
	}
	return checkAffectedRows(result, ErrGameNotFound)
}

func (r *postgresGameRepository) UpdatePlayers(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `UPDATE games SET white_player_id = $1, black_player_id = $2 WHERE id = $3 AND is_completed = FALSE`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, game.WhitePlayerID, game.BlackPlayerID, game.ID)
	if err != nil {
		return fmt.Errorf("failed to update players of game %d: %w", game.ID, err)
	}
	if err := checkAffectedRows(result, ErrGameCompleted); err != nil {
		if _, getErr := r.GetByID(ctx, exec, game.ID); getErr != nil {
			return getErr
		}
		return err
	}
	return nil
}
