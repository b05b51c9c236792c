package scoring

import (
	"fmt"
	"time"

	"github.com/Dosada05/chess-league/models"
)

// Changes lists every record an operation modified. Callers persist exactly
// these records.
type Changes struct {
	Game    *models.Game
	Players []*models.Player
	Match   *models.Match

	// MatchStatusChanged is set when the match became complete or, on reset,
	// incomplete. Standings are only recomputed in that case.
	MatchStatusChanged bool
	// Round is set when its completion flag flipped.
	Round *models.Round
	// TournamentChanged is set when current_round or status moved.
	TournamentChanged bool
	// TournamentCompleted is set when the last round was just finished.
	TournamentCompleted bool

	Teams     []*models.Team
	Standings []models.TeamStanding
}

type boardRefs struct {
	game  *models.Game
	match *models.Match
	round *models.Round
	white *models.Player
	black *models.Player
}

// resolve checks every reference of a board before anything is mutated.
func (s *State) resolve(gameID int) (*boardRefs, error) {
	game, ok := s.Games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	match, ok := s.Matches[game.MatchID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrMatchNotFound, game.MatchID)
	}
	round, ok := s.Rounds[match.RoundID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrRoundNotFound, match.RoundID)
	}
	if game.BoardNumber < 1 || game.BoardNumber > models.BoardsPerMatch {
		return nil, fmt.Errorf("%w: board number %d", ErrInvalidBoard, game.BoardNumber)
	}
	white, ok := s.Players[game.WhitePlayerID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, game.WhitePlayerID)
	}
	black, ok := s.Players[game.BlackPlayerID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, game.BlackPlayerID)
	}
	if !match.Involves(white.TeamID) || !match.Involves(black.TeamID) || white.TeamID == black.TeamID {
		return nil, fmt.Errorf("%w: players %d and %d do not represent both sides", ErrInvalidBoard, white.ID, black.ID)
	}
	return &boardRefs{game: game, match: match, round: round, white: white, black: black}, nil
}

// ApplyBoardResult records the outcome of a pending board and propagates it
// to the players, the match, the round, the tournament and the standings.
// On error the state is left untouched.
func ApplyBoardResult(s *State, gameID int, result models.Result, now time.Time) (*Changes, error) {
	if _, ok := s.Games[gameID]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if !result.IsOutcome() {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidOutcome, result)
	}
	if s.Games[gameID].IsCompleted {
		return nil, ErrResultAlreadySubmitted
	}
	refs, err := s.resolve(gameID)
	if err != nil {
		return nil, err
	}

	whiteScore, blackScore := result.Scores()
	completedAt := now
	refs.game.Result = result
	refs.game.WhiteScore = whiteScore
	refs.game.BlackScore = blackScore
	refs.game.IsCompleted = true
	refs.game.CompletedAt = &completedAt

	refs.white.RecordScore(whiteScore)
	refs.black.RecordScore(blackScore)

	changes := &Changes{
		Game:    refs.game,
		Players: []*models.Player{refs.white, refs.black},
		Match:   refs.match,
	}
	s.propagate(refs, changes, now)
	return changes, nil
}

// ResetBoardResult returns a completed board to pending and reverses
// everything ApplyBoardResult derived from it.
func ResetBoardResult(s *State, gameID int, now time.Time) (*Changes, error) {
	game, ok := s.Games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrGameNotFound, gameID)
	}
	if !game.IsCompleted {
		return nil, ErrResultNotSubmitted
	}
	refs, err := s.resolve(gameID)
	if err != nil {
		return nil, err
	}

	refs.white.RevokeScore(game.WhiteScore)
	refs.black.RevokeScore(game.BlackScore)

	game.Result = models.ResultPending
	game.WhiteScore = 0
	game.BlackScore = 0
	game.IsCompleted = false
	game.CompletedAt = nil

	changes := &Changes{
		Game:    game,
		Players: []*models.Player{refs.white, refs.black},
		Match:   refs.match,
	}
	s.propagate(refs, changes, now)
	return changes, nil
}

func (s *State) propagate(refs *boardRefs, changes *Changes, now time.Time) {
	match := refs.match
	wasComplete := match.IsCompleted
	s.recomputeMatch(match, now)
	if match.IsCompleted == wasComplete {
		return
	}
	changes.MatchStatusChanged = true

	round := refs.round
	finished := s.roundFinished(round.ID)
	if round.IsCompleted != finished {
		round.IsCompleted = finished
		changes.Round = round
	}

	if s.Tournament != nil {
		changes.TournamentChanged, changes.TournamentCompleted = s.advanceTournament(now)
	}

	standings := CalculateStandings(s.OrderedTeams(), s.OrderedMatches())
	ApplyStandings(s.Teams, standings)
	changes.Teams = s.OrderedTeams()
	changes.Standings = standings
}

// recomputeMatch rebuilds side scores from the completed boards, crediting
// each score to the team its player belongs to.
func (s *State) recomputeMatch(match *models.Match, now time.Time) {
	match.WhiteScore, match.BlackScore = 0, 0
	boards := make(map[int]bool, models.BoardsPerMatch)
	for _, g := range s.gamesOf(match.ID) {
		if !g.IsCompleted {
			continue
		}
		boards[g.BoardNumber] = true
		s.credit(match, g.WhitePlayerID, g.WhiteScore)
		s.credit(match, g.BlackPlayerID, g.BlackScore)
	}

	complete := len(boards) == models.BoardsPerMatch
	for b := 1; b <= models.BoardsPerMatch && complete; b++ {
		complete = boards[b]
	}

	switch {
	case complete && !match.IsCompleted:
		completed := now
		match.IsCompleted = true
		match.CompletedDate = &completed
		match.Result = models.ResultFromScores(match.WhiteScore, match.BlackScore)
	case !complete && match.IsCompleted:
		match.IsCompleted = false
		match.CompletedDate = nil
		match.Result = models.ResultPending
	}
}

func (s *State) credit(match *models.Match, playerID int, score float64) {
	player, ok := s.Players[playerID]
	if !ok {
		return
	}
	switch player.TeamID {
	case match.WhiteTeamID:
		match.WhiteScore += score
	case match.BlackTeamID:
		match.BlackScore += score
	}
}

// advanceTournament derives current_round and status from round completion.
func (s *State) advanceTournament(now time.Time) (changed, completed bool) {
	t := s.Tournament
	done := s.completedRounds()

	current := done + 1
	if current > t.TotalRounds+1 {
		current = t.TotalRounds + 1
	}
	if current != t.CurrentRound {
		t.CurrentRound = current
		changed = true
	}

	allDone := s.AllRoundsCompleted()
	switch {
	case allDone && t.Status != models.StatusCompleted:
		t.Status = models.StatusCompleted
		changed, completed = true, true
	case !allDone && t.Status == models.StatusCompleted:
		t.Status = models.StatusActive
		changed = true
	}
	if changed {
		t.UpdatedAt = now
	}
	return changed, completed
}
