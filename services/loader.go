package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/scoring"
)

// leagueStore groups the repositories result propagation reads and writes.
type leagueStore struct {
	tournaments repositories.TournamentRepository
	teams       repositories.TeamRepository
	players     repositories.PlayerRepository
	rounds      repositories.RoundRepository
	matches     repositories.MatchRepository
	games       repositories.GameRepository
	standings   repositories.StandingRepository
}

// loadState reads a whole tournament. Queries run one after another because
// exec is usually a transaction.
func (s *leagueStore) loadState(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (*scoring.State, error) {
	tournament, err := s.tournaments.GetByID(ctx, exec, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	teams, err := s.teams.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load teams: %w", err)
	}
	players, err := s.players.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load players: %w", err)
	}
	rounds, err := s.rounds.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}
	matches, err := s.matches.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load matches: %w", err)
	}
	games, err := s.games.ListByTournament(ctx, exec, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("load games: %w", err)
	}
	return scoring.NewState(tournament, teams, players, rounds, matches, games), nil
}

// saveChanges writes exactly the records an engine operation touched.
func (s *leagueStore) saveChanges(ctx context.Context, exec repositories.SQLExecutor, state *scoring.State, changes *scoring.Changes) error {
	if err := s.games.UpdateResult(ctx, exec, changes.Game); err != nil {
		return err
	}
	for _, p := range changes.Players {
		if err := s.players.UpdateStats(ctx, exec, p); err != nil {
			return err
		}
	}
	if err := s.matches.UpdateResult(ctx, exec, changes.Match); err != nil {
		return err
	}
	if changes.Round != nil {
		if err := s.rounds.UpdateCompletion(ctx, exec, changes.Round.ID, changes.Round.IsCompleted); err != nil {
			return err
		}
	}
	if changes.TournamentChanged {
		if err := s.tournaments.UpdateProgress(ctx, exec, state.Tournament); err != nil {
			return handleRepositoryError(err)
		}
	}
	if len(changes.Teams) > 0 {
		if err := s.standings.SaveStandings(ctx, exec, changes.Teams); err != nil {
			return err
		}
	}
	return nil
}
