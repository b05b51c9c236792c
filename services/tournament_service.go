package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"golang.org/x/sync/errgroup"
)

const defaultListLimit = 20

type CreatePlayerInput struct {
	Name   string `json:"name"`
	Rating *int   `json:"rating,omitempty"`
}

type CreateTeamInput struct {
	Name    string              `json:"name"`
	Players []CreatePlayerInput `json:"players"`
}

type CreateTournamentInput struct {
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	StartDate   *time.Time        `json:"start_date,omitempty"`
	EndDate     *time.Time        `json:"end_date,omitempty"`
	Teams       []CreateTeamInput `json:"teams"`
}

type UpdateTournamentInput struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error)
	GetCurrentTournament(ctx context.Context) (*models.Tournament, error)
	ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error)
	GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error)
	UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error)
	UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error)
	DeleteTournament(ctx context.Context, id int) error
}

type tournamentService struct {
	db        *sql.DB
	store     *leagueStore
	generator brackets.BracketGenerator
	locks     *tournamentLocks
	logger    *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db: db,
		store: &leagueStore{
			tournaments: tournamentRepo,
			teams:       teamRepo,
			players:     playerRepo,
			rounds:      roundRepo,
			matches:     matchRepo,
			games:       gameRepo,
		},
		generator: brackets.NewRoundRobinGenerator(),
		locks:     tournamentWriters,
		logger:    loggerOrDefault(logger),
	}
}

func validateCreateInput(input *CreateTournamentInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return ErrTournamentNameRequired
	}
	input.Description = trimmedPtr(input.Description)
	if err := validateDateRange(input.StartDate, input.EndDate, ErrTournamentInvalidDateRange); err != nil {
		return err
	}
	if len(input.Teams) < 2 {
		return fmt.Errorf("%w: got %d teams", ErrInvalidTournamentSize, len(input.Teams))
	}

	teamNames := make(map[string]bool, len(input.Teams))
	for i := range input.Teams {
		team := &input.Teams[i]
		team.Name = strings.TrimSpace(team.Name)
		if team.Name == "" {
			return fmt.Errorf("team #%d: %w", i+1, ErrTeamNameRequired)
		}
		if teamNames[team.Name] {
			return fmt.Errorf("%w: %q", ErrTeamNameConflict, team.Name)
		}
		teamNames[team.Name] = true

		switch {
		case len(team.Players) < models.MinTeamSize:
			return fmt.Errorf("team %q: %w", team.Name, ErrInsufficientRoster)
		case len(team.Players) > models.MaxTeamSize:
			return fmt.Errorf("team %q: %w", team.Name, ErrTeamTooLarge)
		}

		playerNames := make(map[string]bool, len(team.Players))
		for j := range team.Players {
			p := &team.Players[j]
			p.Name = strings.TrimSpace(p.Name)
			if p.Name == "" {
				return fmt.Errorf("team %q, player #%d: %w", team.Name, j+1, ErrPlayerNameRequired)
			}
			if playerNames[p.Name] {
				return fmt.Errorf("team %q: %w: %q", team.Name, ErrPlayerNameConflict, p.Name)
			}
			playerNames[p.Name] = true
			if p.Rating != nil && *p.Rating <= 0 {
				return fmt.Errorf("player %q: %w", p.Name, ErrInvalidRating)
			}
		}
	}
	return nil
}

// CreateTournament сохраняет турнир, команды, игроков и полное расписание
// одной транзакцией. Либо создаётся всё, либо ничего.
func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tournament := &models.Tournament{
		Name:         input.Name,
		Description:  input.Description,
		Status:       models.StatusActive,
		CurrentRound: 1,
		TotalRounds:  brackets.RoundCount(len(input.Teams)),
		StartDate:    input.StartDate,
		EndDate:      input.EndDate,
		CreatedAt:    now,
	}

	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		if err := s.store.tournaments.Create(ctx, tx, tournament); err != nil {
			return fmt.Errorf("failed to create tournament: %w", err)
		}

		rosters := make([]brackets.TeamRoster, 0, len(input.Teams))
		tournament.Teams = make([]models.Team, 0, len(input.Teams))
		for _, in := range input.Teams {
			team := &models.Team{TournamentID: tournament.ID, Name: in.Name, CreatedAt: now}
			if err := s.store.teams.Create(ctx, tx, team); err != nil {
				return handleRepositoryError(err)
			}
			roster := brackets.TeamRoster{TeamID: team.ID, Players: make([]*models.Player, 0, len(in.Players))}
			for i, pin := range in.Players {
				rating := models.DefaultRating
				if pin.Rating != nil {
					rating = *pin.Rating
				}
				player := &models.Player{TeamID: team.ID, Name: pin.Name, Rating: rating, BoardOrder: i + 1, CreatedAt: now}
				if err := s.store.players.Create(ctx, tx, player); err != nil {
					return handleRepositoryError(err)
				}
				roster.Players = append(roster.Players, player)
				team.Players = append(team.Players, *player)
			}
			rosters = append(rosters, roster)
			tournament.Teams = append(tournament.Teams, *team)
		}

		skeleton, err := s.generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: tournament, Rosters: rosters})
		if err != nil {
			return err
		}
		return s.saveSkeleton(ctx, tx, tournament, skeleton)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("teams", len(tournament.Teams)),
		slog.Int("rounds", tournament.TotalRounds),
	)
	return tournament, nil
}

func (s *tournamentService) saveSkeleton(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, skeleton *brackets.Skeleton) error {
	tournament.Rounds = make([]models.Round, 0, len(skeleton.Rounds))
	for _, sr := range skeleton.Rounds {
		round := &models.Round{TournamentID: tournament.ID, RoundNumber: sr.Number, ByeTeamID: sr.ByeTeamID}
		// Дата старта известна только для первого тура.
		if sr.Number == 1 {
			round.StartDate = tournament.StartDate
		}
		if err := s.store.rounds.Create(ctx, tx, round); err != nil {
			return fmt.Errorf("failed to create round %d: %w", sr.Number, err)
		}

		for _, sm := range sr.Matches {
			match := &models.Match{
				TournamentID:  tournament.ID,
				RoundID:       round.ID,
				RoundNumber:   round.RoundNumber,
				WhiteTeamID:   sm.WhiteTeamID,
				BlackTeamID:   sm.BlackTeamID,
				Result:        models.ResultPending,
				ScheduledDate: round.StartDate,
			}
			if err := s.store.matches.Create(ctx, tx, match); err != nil {
				return fmt.Errorf("failed to create match in round %d: %w", sr.Number, err)
			}
			for _, b := range sm.Boards {
				game := &models.Game{
					MatchID:       match.ID,
					BoardNumber:   b.BoardNumber,
					WhitePlayerID: b.WhitePlayerID,
					BlackPlayerID: b.BlackPlayerID,
					Result:        models.ResultPending,
				}
				if err := s.store.games.Create(ctx, tx, game); err != nil {
					return fmt.Errorf("failed to create game on board %d of match %d: %w", b.BoardNumber, match.ID, err)
				}
				match.Games = append(match.Games, *game)
			}
			round.Matches = append(round.Matches, *match)
		}
		tournament.Rounds = append(tournament.Rounds, *round)
	}
	return nil
}

func (s *tournamentService) GetTournamentByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.store.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return tournament, nil
}

// GetCurrentTournament returns the most recently created tournament.
func (s *tournamentService) GetCurrentTournament(ctx context.Context) (*models.Tournament, error) {
	tournament, err := s.store.tournaments.GetLatest(ctx, nil)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return tournament, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, limit, offset int) ([]*models.Tournament, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.store.tournaments.List(ctx, nil, limit, offset)
}

// GetFullTournamentData загружает турнир со всеми командами, турами,
// матчами и партиями. Части читаются параллельно.
func (s *tournamentService) GetFullTournamentData(ctx context.Context, id int) (*models.Tournament, error) {
	var (
		tournament *models.Tournament
		teams      []*models.Team
		players    []*models.Player
		rounds     []*models.Round
		matches    []*models.Match
		games      []*models.Game
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.store.tournaments.GetByID(gCtx, nil, id)
		return handleRepositoryError(err)
	})
	g.Go(func() error {
		var err error
		teams, err = s.store.teams.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.store.players.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		rounds, err = s.store.rounds.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.store.matches.ListByTournament(gCtx, nil, id)
		return err
	})
	g.Go(func() error {
		var err error
		games, err = s.store.games.ListByTournament(gCtx, nil, id)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrTournamentNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load tournament %d: %w", id, err)
	}

	assembleTournament(tournament, teams, players, rounds, matches, games)
	return tournament, nil
}

// assembleTournament nests flat lists into the tournament tree. Input lists
// are expected in repository order.
func assembleTournament(t *models.Tournament, teams []*models.Team, players []*models.Player, rounds []*models.Round, matches []*models.Match, games []*models.Game) {
	playersByTeam := make(map[int][]models.Player, len(teams))
	for _, p := range players {
		playersByTeam[p.TeamID] = append(playersByTeam[p.TeamID], *p)
	}
	t.Teams = make([]models.Team, 0, len(teams))
	for _, team := range teams {
		team.Players = playersByTeam[team.ID]
		t.Teams = append(t.Teams, *team)
	}

	gamesByMatch := make(map[int][]models.Game, len(matches))
	for _, g := range games {
		gamesByMatch[g.MatchID] = append(gamesByMatch[g.MatchID], *g)
	}
	matchesByRound := make(map[int][]models.Match, len(rounds))
	for _, m := range matches {
		m.Games = gamesByMatch[m.ID]
		matchesByRound[m.RoundID] = append(matchesByRound[m.RoundID], *m)
	}
	t.Rounds = make([]models.Round, 0, len(rounds))
	for _, r := range rounds {
		r.Matches = matchesByRound[r.ID]
		t.Rounds = append(t.Rounds, *r)
	}
}

func (s *tournamentService) UpdateTournament(ctx context.Context, id int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.store.tournaments.GetByID(ctx, nil, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, ErrTournamentNameRequired
		}
		tournament.Name = name
	}
	if input.Description != nil {
		tournament.Description = trimmedPtr(input.Description)
	}
	if input.StartDate != nil {
		tournament.StartDate = input.StartDate
	}
	if input.EndDate != nil {
		tournament.EndDate = input.EndDate
	}
	if err := validateDateRange(tournament.StartDate, tournament.EndDate, ErrTournamentInvalidDateRange); err != nil {
		return nil, err
	}

	tournament.UpdatedAt = time.Now().UTC()
	if err := s.store.tournaments.Update(ctx, nil, tournament); err != nil {
		return nil, handleRepositoryError(err)
	}
	return tournament, nil
}

// UpdateTournamentStatus позволяет приостановить, возобновить или
// досрочно завершить турнир. Из completed выхода нет.
func (s *tournamentService) UpdateTournamentStatus(ctx context.Context, id int, status models.TournamentStatus) (*models.Tournament, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrTournamentInvalidStatus, status)
	}
	unlock := s.locks.lock(id)
	defer unlock()

	var (
		tournament *models.Tournament
		previous   models.TournamentStatus
	)
	err := withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		var err error
		tournament, err = s.store.tournaments.GetByID(ctx, tx, id)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !isValidStatusTransition(tournament.Status, status) {
			return fmt.Errorf("%w: from %s to %s", ErrTournamentInvalidStatusTransition, tournament.Status, status)
		}
		previous = tournament.Status
		if previous == status {
			return nil
		}

		tournament.Status = status
		tournament.UpdatedAt = time.Now().UTC()
		return handleRepositoryError(s.store.tournaments.UpdateStatus(ctx, tx, id, status, tournament.UpdatedAt))
	})
	if err != nil {
		return nil, err
	}
	if previous == status {
		return tournament, nil
	}

	s.logger.InfoContext(ctx, "tournament status changed",
		slog.Int("tournament_id", id),
		slog.String("from", string(previous)),
		slog.String("to", string(status)),
	)
	return tournament, nil
}

func (s *tournamentService) DeleteTournament(ctx context.Context, id int) error {
	if err := s.store.tournaments.Delete(ctx, nil, id); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tournament deleted", slog.Int("tournament_id", id))
	return nil
}
