package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/scoring"
)

type BoardResultInput struct {
	BoardNumber int           `json:"board_number,omitempty"`
	Result      models.Result `json:"result"`
	Notes       *string       `json:"notes,omitempty"`
}

// ResultOutcome describes the state after a result was recorded or reset.
type ResultOutcome struct {
	Games               []*models.Game        `json:"games"`
	Match               *models.Match         `json:"match"`
	Tournament          *models.Tournament    `json:"tournament"`
	MatchCompleted      bool                  `json:"match_completed"`
	RoundCompleted      bool                  `json:"round_completed"`
	TournamentCompleted bool                  `json:"tournament_completed"`
	Standings           []models.TeamStanding `json:"standings,omitempty"`
}

type ResultService interface {
	SubmitBoardResult(ctx context.Context, gameID int, input BoardResultInput) (*ResultOutcome, error)
	SubmitBoardResultByBoard(ctx context.Context, matchID, boardNumber int, input BoardResultInput) (*ResultOutcome, error)
	SubmitMatchResults(ctx context.Context, matchID int, results []BoardResultInput) (*ResultOutcome, error)
	ResetBoardResult(ctx context.Context, gameID int) (*ResultOutcome, error)
}

type resultService struct {
	db          *sql.DB
	store       *leagueStore
	standings   StandingsService
	broadcaster Broadcaster
	locks       *tournamentLocks
	logger      *slog.Logger
	now         func() time.Time
}

// NewResultService wires result propagation. broadcaster and standings may
// be nil; then live updates or auto-publishing are skipped.
func NewResultService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	gameRepo repositories.GameRepository,
	standingRepo repositories.StandingRepository,
	standings StandingsService,
	broadcaster Broadcaster,
	logger *slog.Logger,
) ResultService {
	return &resultService{
		db: db,
		store: &leagueStore{
			tournaments: tournamentRepo,
			teams:       teamRepo,
			players:     playerRepo,
			rounds:      roundRepo,
			matches:     matchRepo,
			games:       gameRepo,
			standings:   standingRepo,
		},
		standings:   standings,
		broadcaster: broadcaster,
		locks:       tournamentWriters,
		logger:      loggerOrDefault(logger),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// boardEdit is one engine operation together with its optional notes.
type boardEdit struct {
	gameID int
	result models.Result
	notes  *string
	reset  bool
}

func (s *resultService) SubmitBoardResult(ctx context.Context, gameID int, input BoardResultInput) (*ResultOutcome, error) {
	game, err := s.store.games.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.submit(ctx, game.MatchID, []boardEdit{{gameID: game.ID, result: input.Result, notes: trimmedPtr(input.Notes)}})
}

func (s *resultService) SubmitBoardResultByBoard(ctx context.Context, matchID, boardNumber int, input BoardResultInput) (*ResultOutcome, error) {
	if boardNumber < 1 || boardNumber > models.BoardsPerMatch {
		return nil, fmt.Errorf("%w: board number %d", ErrInvalidBoard, boardNumber)
	}
	game, err := s.store.games.GetByMatchAndBoard(ctx, nil, matchID, boardNumber)
	if err != nil {
		if errors.Is(err, repositories.ErrGameNotFound) {
			if _, mErr := s.store.matches.GetByID(ctx, nil, matchID); mErr != nil {
				return nil, handleRepositoryError(mErr)
			}
		}
		return nil, handleRepositoryError(err)
	}
	return s.submit(ctx, matchID, []boardEdit{{gameID: game.ID, result: input.Result, notes: trimmedPtr(input.Notes)}})
}

// SubmitMatchResults records several boards of one match atomically. If any
// board fails nothing is stored.
func (s *resultService) SubmitMatchResults(ctx context.Context, matchID int, results []BoardResultInput) (*ResultOutcome, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no board results provided", ErrValidationFailed)
	}
	games, err := s.store.games.ListByMatch(ctx, nil, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load boards of match %d: %w", matchID, err)
	}
	if len(games) == 0 {
		if _, err := s.store.matches.GetByID(ctx, nil, matchID); err != nil {
			return nil, handleRepositoryError(err)
		}
	}
	byBoard := make(map[int]int, len(games))
	for _, g := range games {
		byBoard[g.BoardNumber] = g.ID
	}

	edits := make([]boardEdit, 0, len(results))
	for _, in := range results {
		gameID, ok := byBoard[in.BoardNumber]
		if !ok {
			return nil, fmt.Errorf("%w: board number %d", ErrInvalidBoard, in.BoardNumber)
		}
		edits = append(edits, boardEdit{gameID: gameID, result: in.Result, notes: trimmedPtr(in.Notes)})
	}
	return s.submit(ctx, matchID, edits)
}

func (s *resultService) ResetBoardResult(ctx context.Context, gameID int) (*ResultOutcome, error) {
	game, err := s.store.games.GetByID(ctx, nil, gameID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.submit(ctx, game.MatchID, []boardEdit{{gameID: game.ID, reset: true}})
}

// submit applies edits to one match under the tournament lock inside a single
// transaction, then notifies subscribers.
func (s *resultService) submit(ctx context.Context, matchID int, edits []boardEdit) (*ResultOutcome, error) {
	match, err := s.store.matches.GetByID(ctx, nil, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	tournamentID := match.TournamentID

	unlock := s.locks.lock(tournamentID)
	defer unlock()

	var (
		outcome *ResultOutcome
		applied []*scoring.Changes
	)
	err = withTransaction(ctx, s.db, s.logger, func(tx *sql.Tx) error {
		state, err := s.store.loadState(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if state.Tournament.Status == models.StatusPaused {
			return ErrTournamentNotActive
		}
		if state.Tournament.Status == models.StatusCompleted {
			// Сброс разрешён только в турнире, завершённом последним результатом.
			for _, e := range edits {
				if !e.reset || !state.AllRoundsCompleted() {
					return ErrTournamentCompleted
				}
			}
		}

		now := s.now()
		applied = make([]*scoring.Changes, 0, len(edits))
		for _, e := range edits {
			var changes *scoring.Changes
			if e.reset {
				changes, err = scoring.ResetBoardResult(state, e.gameID, now)
			} else {
				changes, err = scoring.ApplyBoardResult(state, e.gameID, e.result, now)
			}
			if err != nil {
				return fmt.Errorf("game %d: %w", e.gameID, err)
			}
			if !e.reset && e.notes != nil {
				changes.Game.Notes = e.notes
			} else if e.reset {
				changes.Game.Notes = nil
			}
			if err := s.store.saveChanges(ctx, tx, state, changes); err != nil {
				return fmt.Errorf("failed to save changes for game %d: %w", e.gameID, err)
			}
			applied = append(applied, changes)
		}
		outcome = buildOutcome(state, applied)
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "board result rejected",
			slog.Int("tournament_id", tournamentID),
			slog.Int("match_id", matchID),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.logger.InfoContext(ctx, "board results recorded",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.Int("boards", len(applied)),
		slog.Bool("match_completed", outcome.MatchCompleted),
		slog.Int("current_round", outcome.Tournament.CurrentRound),
	)
	s.notify(ctx, edits[0].reset, outcome)
	return outcome, nil
}

func buildOutcome(state *scoring.State, applied []*scoring.Changes) *ResultOutcome {
	outcome := &ResultOutcome{Tournament: state.Tournament}
	for _, c := range applied {
		outcome.Games = append(outcome.Games, c.Game)
		outcome.Match = c.Match
		if c.Round != nil {
			outcome.RoundCompleted = c.Round.IsCompleted
		}
		if c.TournamentCompleted {
			outcome.TournamentCompleted = true
		}
		if c.Standings != nil {
			outcome.Standings = c.Standings
		}
	}
	outcome.MatchCompleted = outcome.Match.IsCompleted
	// Состояние турнира могло вернуться назад при сбросе в этой же пачке.
	outcome.TournamentCompleted = outcome.TournamentCompleted && state.Tournament.Status == models.StatusCompleted
	return outcome
}

func (s *resultService) notify(ctx context.Context, reset bool, outcome *ResultOutcome) {
	tournamentID := outcome.Tournament.ID
	msgType := brackets.MessageBoardResult
	if reset {
		msgType = brackets.MessageBoardReset
	}
	for _, g := range outcome.Games {
		publish(s.broadcaster, tournamentID, msgType, boardResultEvent{
			TournamentID: tournamentID,
			Game:         g,
			Match:        outcome.Match,
			CurrentRound: outcome.Tournament.CurrentRound,
			Status:       string(outcome.Tournament.Status),
		})
	}
	if outcome.Standings != nil {
		publish(s.broadcaster, tournamentID, brackets.MessageStandingsUpdated, standingsEvent{
			TournamentID: tournamentID,
			Standings:    outcome.Standings,
		})
	}
	if !outcome.TournamentCompleted {
		return
	}

	publish(s.broadcaster, tournamentID, brackets.MessageTournamentCompleted, standingsEvent{
		TournamentID: tournamentID,
		Standings:    outcome.Standings,
	})
	if s.standings == nil {
		return
	}
	if _, err := s.standings.PublishStandings(ctx, tournamentID); err != nil {
		if errors.Is(err, ErrPublishingDisabled) {
			s.logger.DebugContext(ctx, "standings publishing disabled, skipping", slog.Int("tournament_id", tournamentID))
			return
		}
		s.logger.ErrorContext(ctx, "failed to publish final standings", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
	}
}
