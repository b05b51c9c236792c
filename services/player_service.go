package services

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/scoring"
)

type AddPlayerInput struct {
	Name   string `json:"name"`
	Rating *int   `json:"rating,omitempty"`
}

type UpdatePlayerInput struct {
	Name   *string `json:"name,omitempty"`
	Rating *int    `json:"rating,omitempty"`
}

type SubstituteInput struct {
	Color    models.Color `json:"color"`
	PlayerID int          `json:"player_id"`
}

type PlayerService interface {
	AddPlayer(ctx context.Context, teamID int, input AddPlayerInput) (*models.Player, error)
	UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput) (*models.Player, error)
	DeletePlayer(ctx context.Context, playerID int) error
	SwapBoardOrder(ctx context.Context, playerID, targetPlayerID int) ([]*models.Player, error)
	SubstituteBoardPlayer(ctx context.Context, gameID int, input SubstituteInput) (*models.Game, error)
	GetPlayerStatistics(ctx context.Context, playerID int) (*models.PlayerStatistics, error)
	ListPlayerGames(ctx context.Context, playerID int) ([]*models.Game, error)
}

type playerService struct {
	db     *sql.DB
	store  *leagueStore
	locks  *tournamentLocks
	logger *slog.Logger
}

func NewPlayerService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) PlayerService {
	return &playerService{
		db: db,
		store: &leagueStore{
			tournaments: tournamentRepo,
			teams:       teamRepo,
			players:     playerRepo,
			matches:     matchRepo,
			games:       gameRepo,
		},
		locks:  tournamentWriters,
		logger: loggerOrDefault(logger),
	}
}

// openTeam loads the team and fails if its tournament is already over.
func (s *playerService) openTeam(ctx context.Context, exec repositories.SQLExecutor, teamID int) (*models.Team, error) {
	team, err := s.store.teams.GetByID(ctx, exec, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	tournament, err := s.store.tournaments.GetByID(ctx, exec, team.TournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if tournament.Status == models.StatusCompleted {
		return nil, ErrTournamentCompleted
	}
	return team, nil
}

func (s *playerService) AddPlayer(ctx context.Context, teamID int, input AddPlayerInput) (*models.Player, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrPlayerNameRequired
	}
	rating := models.DefaultRating
	if input.Rating != nil {
		if *input.Rating <= 0 {
			return nil, ErrInvalidRating
		}
		rating = *input.Rating
	}

	var player *models.Player
	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if _, err := s.openTeam(ctx, tx, teamID); err != nil {
			return err
		}
		roster, err := s.store.players.ListByTeam(ctx, tx, teamID)
		if err != nil {
			return err
		}
		if len(roster) >= models.MaxTeamSize {
			return ErrTeamTooLarge
		}
		for _, p := range roster {
			if p.Name == name {
				return ErrPlayerNameConflict
			}
		}

		player = &models.Player{
			TeamID:     teamID,
			Name:       name,
			Rating:     rating,
			BoardOrder: len(roster) + 1,
			CreatedAt:  time.Now().UTC(),
		}
		return handleRepositoryError(s.store.players.Create(ctx, tx, player))
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "player added", slog.Int("team_id", teamID), slog.Int("player_id", player.ID))
	return player, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput) (*models.Player, error) {
	player, err := s.store.players.GetByID(ctx, nil, playerID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrPlayerNameRequired
		}
		player.Name = name
	}
	if input.Rating != nil {
		if *input.Rating <= 0 {
			return nil, ErrInvalidRating
		}
		player.Rating = *input.Rating
	}
	if err := s.store.players.Update(ctx, nil, player); err != nil {
		return nil, handleRepositoryError(err)
	}
	return player, nil
}

// DeletePlayer убирает запасного игрока. Игроки, уже сыгравшие или
// расставленные на доски, не удаляются.
func (s *playerService) DeletePlayer(ctx context.Context, playerID int) error {
	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		player, err := s.store.players.GetByID(ctx, tx, playerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if _, err := s.openTeam(ctx, tx, player.TeamID); err != nil {
			return err
		}
		roster, err := s.store.players.ListByTeam(ctx, tx, player.TeamID)
		if err != nil {
			return err
		}
		if len(roster)-1 < models.MinTeamSize {
			return fmt.Errorf("team %d: %w", player.TeamID, ErrInsufficientRoster)
		}
		games, err := s.store.games.CountByPlayer(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if games > 0 {
			return ErrPlayerHasGames
		}

		if err := s.store.players.Delete(ctx, tx, playerID); err != nil {
			return handleRepositoryError(err)
		}
		return s.store.players.ShiftBoardOrders(ctx, tx, player.TeamID, player.BoardOrder)
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "player deleted", slog.Int("player_id", playerID))
	return nil
}

func (s *playerService) SwapBoardOrder(ctx context.Context, playerID, targetPlayerID int) ([]*models.Player, error) {
	var roster []*models.Player
	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		player, err := s.store.players.GetByID(ctx, tx, playerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		target, err := s.store.players.GetByID(ctx, tx, targetPlayerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if player.TeamID != target.TeamID {
			return ErrPlayersNotTeammates
		}
		if _, err := s.openTeam(ctx, tx, player.TeamID); err != nil {
			return err
		}

		player.BoardOrder, target.BoardOrder = target.BoardOrder, player.BoardOrder
		if err := s.store.players.Update(ctx, tx, player); err != nil {
			return handleRepositoryError(err)
		}
		if err := s.store.players.Update(ctx, tx, target); err != nil {
			return handleRepositoryError(err)
		}
		roster, err = s.store.players.ListByTeam(ctx, tx, player.TeamID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

// SubstituteBoardPlayer сажает за доску другого игрока той же команды.
// Возможна только до внесения результата.
func (s *playerService) SubstituteBoardPlayer(ctx context.Context, gameID int, input SubstituteInput) (*models.Game, error) {
	if !input.Color.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, input.Color)
	}

	game, err := s.store.games.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	match, err := s.store.matches.GetByID(ctx, nil, game.MatchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	// Пересадка и внесение результата не должны пересекаться.
	unlock := s.locks.lock(match.TournamentID)
	defer unlock()

	err = withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		game, err = s.store.games.GetByID(ctx, tx, gameID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if game.IsCompleted {
			return ErrResultAlreadySubmitted
		}

		seat := &game.WhitePlayerID
		if input.Color == models.ColorBlack {
			seat = &game.BlackPlayerID
		}
		if *seat == input.PlayerID {
			return nil
		}

		current, err := s.store.players.GetByID(ctx, tx, *seat)
		if err != nil {
			return handleRepositoryError(err)
		}
		replacement, err := s.store.players.GetByID(ctx, tx, input.PlayerID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if replacement.TeamID != current.TeamID {
			return ErrSubstituteWrongTeam
		}
		if _, err := s.openTeam(ctx, tx, current.TeamID); err != nil {
			return err
		}

		boards, err := s.store.games.ListByMatch(ctx, tx, game.MatchID)
		if err != nil {
			return err
		}
		for _, b := range boards {
			if b.WhitePlayerID == replacement.ID || b.BlackPlayerID == replacement.ID {
				return fmt.Errorf("%w: board %d", ErrSubstituteAlreadySeated, b.BoardNumber)
			}
		}

		*seat = replacement.ID
		return handleRepositoryError(s.store.games.UpdatePlayers(ctx, tx, game))
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "board player substituted",
		slog.Int("game_id", gameID),
		slog.String("color", string(input.Color)),
		slog.Int("player_id", input.PlayerID),
	)
	return game, nil
}

func (s *playerService) GetPlayerStatistics(ctx context.Context, playerID int) (*models.PlayerStatistics, error) {
	player, err := s.store.players.GetByID(ctx, nil, playerID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	team, err := s.store.teams.GetByID(ctx, nil, player.TeamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	games, err := s.store.games.ListByPlayer(ctx, nil, playerID)
	if err != nil {
		return nil, err
	}

	stats := &models.PlayerStatistics{PlayerStat: scoring.PlayerStatOf(player, team.Name)}
	for _, g := range games {
		if !g.IsCompleted {
			continue
		}
		if g.WhitePlayerID == playerID {
			stats.GamesAsWhite++
		} else {
			stats.GamesAsBlack++
		}
	}
	return stats, nil
}

func (s *playerService) ListPlayerGames(ctx context.Context, playerID int) ([]*models.Game, error) {
	if _, err := s.store.players.GetByID(ctx, nil, playerID); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.store.games.ListByPlayer(ctx, nil, playerID)
}
