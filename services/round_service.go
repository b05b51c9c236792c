package services

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
)

type UpdateRoundInput struct {
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

type RoundService interface {
	UpdateRoundDates(ctx context.Context, roundID int, input UpdateRoundInput) (*models.Round, error)
	ListRoundMatches(ctx context.Context, roundID int) ([]*models.Match, error)
	ListTournamentMatches(ctx context.Context, tournamentID int) ([]*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type roundService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	roundRepo      repositories.RoundRepository
	matchRepo      repositories.MatchRepository
	gameRepo       repositories.GameRepository
	logger         *slog.Logger
}

func NewRoundService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		db:             db,
		tournamentRepo: tournamentRepo,
		roundRepo:      roundRepo,
		matchRepo:      matchRepo,
		gameRepo:       gameRepo,
		logger:         loggerOrDefault(logger),
	}
}

// UpdateRoundDates меняет даты тура. Новая дата начала становится
// плановой датой всех матчей тура.
func (s *roundService) UpdateRoundDates(ctx context.Context, roundID int, input UpdateRoundInput) (*models.Round, error) {
	var round *models.Round
	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		round, err = s.roundRepo.GetByID(ctx, tx, roundID)
		if err != nil {
			return handleRepositoryError(err)
		}

		if input.StartDate != nil {
			round.StartDate = input.StartDate
		}
		if input.EndDate != nil {
			round.EndDate = input.EndDate
		}
		if err := validateDateRange(round.StartDate, round.EndDate, ErrRoundInvalidDateRange); err != nil {
			return err
		}

		if err := s.roundRepo.UpdateDates(ctx, tx, round.ID, round.StartDate, round.EndDate); err != nil {
			return handleRepositoryError(err)
		}
		if input.StartDate != nil {
			return s.matchRepo.SetScheduledDateForRound(ctx, tx, round.ID, round.StartDate)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "round dates updated", slog.Int("round_id", roundID))
	return round, nil
}

// ListRoundMatches returns the matches of a round with their boards.
func (s *roundService) ListRoundMatches(ctx context.Context, roundID int) ([]*models.Match, error) {
	if _, err := s.roundRepo.GetByID(ctx, nil, roundID); err != nil {
		return nil, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByRound(ctx, nil, roundID)
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		if err := s.attachGames(ctx, m); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

// ListTournamentMatches returns every match of the tournament ordered by
// round, each with its boards.
func (s *roundService) ListTournamentMatches(ctx context.Context, tournamentID int) ([]*models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		return nil, handleRepositoryError(err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	games, err := s.gameRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}

	byMatch := make(map[int][]models.Game, len(matches))
	for _, g := range games {
		byMatch[g.MatchID] = append(byMatch[g.MatchID], *g)
	}
	for _, m := range matches {
		m.Games = byMatch[m.ID]
		if m.Games == nil {
			m.Games = []models.Game{}
		}
	}
	return matches, nil
}

func (s *roundService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := s.attachGames(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (s *roundService) attachGames(ctx context.Context, m *models.Match) error {
	games, err := s.gameRepo.ListByMatch(ctx, nil, m.ID)
	if err != nil {
		return err
	}
	m.Games = make([]models.Game, 0, len(games))
	for _, g := range games {
		m.Games = append(m.Games, *g)
	}
	return nil
}
