package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/db"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{files: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(_ context.Context, key string, _ string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.files[key] = data
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.files, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return "https://cdn.example.test/" + key
}

func (u *memoryUploader) keys() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	keys := make([]string, 0, len(u.files))
	for k := range u.files {
		keys = append(keys, k)
	}
	return keys
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages []brackets.WebSocketMessage
}

func (b *recordingBroadcaster) BroadcastToRoom(_ string, message interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, message.(brackets.WebSocketMessage))
}

func (b *recordingBroadcaster) types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.messages))
	for _, m := range b.messages {
		out = append(out, m.Type)
	}
	return out
}

type testEnv struct {
	db          *sql.DB
	tournaments TournamentService
	results     ResultService
	standings   StandingsService
	players     PlayerService
	rounds      RoundService
	uploader    *memoryUploader
	hub         *recordingBroadcaster
}

func newEnv(t *testing.T, withUploader bool) *testEnv {
	t.Helper()
	conn, err := db.Connect(db.DriverSQLite, "file::memory:?_foreign_keys=on", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite, nil))

	tournamentRepo := repositories.NewPostgresTournamentRepository(conn)
	teamRepo := repositories.NewPostgresTeamRepository(conn)
	playerRepo := repositories.NewPostgresPlayerRepository(conn)
	roundRepo := repositories.NewPostgresRoundRepository(conn)
	matchRepo := repositories.NewPostgresMatchRepository(conn)
	gameRepo := repositories.NewPostgresGameRepository(conn)
	standingRepo := repositories.NewPostgresStandingRepository(conn)

	env := &testEnv{db: conn, hub: &recordingBroadcaster{}}
	var uploader storage.FileUploader
	if withUploader {
		env.uploader = newMemoryUploader()
		uploader = env.uploader
	}

	env.tournaments = NewTournamentService(conn, tournamentRepo, teamRepo, playerRepo, roundRepo, matchRepo, gameRepo, nil)
	env.standings = NewStandingsService(tournamentRepo, teamRepo, playerRepo, matchRepo, uploader, nil)
	env.results = NewResultService(conn, tournamentRepo, teamRepo, playerRepo, roundRepo, matchRepo, gameRepo, standingRepo, env.standings, env.hub, nil)
	env.players = NewPlayerService(conn, tournamentRepo, teamRepo, playerRepo, matchRepo, gameRepo, nil)
	env.rounds = NewRoundService(conn, tournamentRepo, roundRepo, matchRepo, gameRepo, nil)
	return env
}

func teamInput(name string, size int) CreateTeamInput {
	team := CreateTeamInput{Name: name}
	for i := 1; i <= size; i++ {
		rating := 2000 - i*50
		team.Players = append(team.Players, CreatePlayerInput{Name: fmt.Sprintf("%s-%d", name, i), Rating: &rating})
	}
	return team
}

func leagueInput(teams ...string) CreateTournamentInput {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	input := CreateTournamentInput{Name: "Spring League", StartDate: &start}
	for _, name := range teams {
		input.Teams = append(input.Teams, teamInput(name, 4))
	}
	return input
}

func (e *testEnv) create(t *testing.T, input CreateTournamentInput) *models.Tournament {
	t.Helper()
	tournament, err := e.tournaments.CreateTournament(context.Background(), input)
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) full(t *testing.T, id int) *models.Tournament {
	t.Helper()
	tournament, err := e.tournaments.GetFullTournamentData(context.Background(), id)
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) player(t *testing.T, id int) *models.Player {
	t.Helper()
	stats, err := e.players.GetPlayerStatistics(context.Background(), id)
	require.NoError(t, err)
	return &models.Player{ID: id, GamesPlayed: stats.GamesPlayed, Wins: stats.Wins, Draws: stats.Draws, Losses: stats.Losses, Points: stats.Points}
}

func TestCreateTournament_BuildsFullSchedule(t *testing.T) {
	env := newEnv(t, false)
	created := env.create(t, leagueInput("Alpha", "Bravo", "Charlie", "Delta"))

	assert.Equal(t, models.StatusActive, created.Status)
	assert.Equal(t, 1, created.CurrentRound)
	assert.Equal(t, 3, created.TotalRounds)
	require.Len(t, created.Teams, 4)
	require.Len(t, created.Rounds, 3)

	full := env.full(t, created.ID)
	require.Len(t, full.Rounds, 3)
	for _, r := range full.Rounds {
		require.Len(t, r.Matches, 2)
		assert.Nil(t, r.ByeTeamID)
		for _, m := range r.Matches {
			require.Len(t, m.Games, models.BoardsPerMatch)
			for i, g := range m.Games {
				assert.Equal(t, i+1, g.BoardNumber)
				assert.Equal(t, models.ResultPending, g.Result)
			}
		}
	}
	require.NotNil(t, full.Rounds[0].StartDate)
	assert.True(t, created.StartDate.Equal(*full.Rounds[0].StartDate))
	require.NotNil(t, full.Rounds[0].Matches[0].ScheduledDate)
	assert.Nil(t, full.Rounds[1].StartDate)

	for _, team := range full.Teams {
		require.Len(t, team.Players, 4)
		for i, p := range team.Players {
			assert.Equal(t, i+1, p.BoardOrder)
		}
	}
}

func TestCreateTournament_OddTeamsGetByes(t *testing.T) {
	env := newEnv(t, false)
	created := env.create(t, leagueInput("A", "B", "C", "D", "E"))
	assert.Equal(t, 5, created.TotalRounds)

	byes := make(map[int]int)
	for _, r := range env.full(t, created.ID).Rounds {
		require.NotNil(t, r.ByeTeamID)
		byes[*r.ByeTeamID]++
		assert.Len(t, r.Matches, 2)
	}
	assert.Len(t, byes, 5)
	for _, n := range byes {
		assert.Equal(t, 1, n)
	}
}

func TestCreateTournament_Validation(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()

	end := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		mutate  func(in *CreateTournamentInput)
		wantErr error
	}{
		{"empty name", func(in *CreateTournamentInput) { in.Name = "  " }, ErrTournamentNameRequired},
		{"single team", func(in *CreateTournamentInput) { in.Teams = in.Teams[:1] }, ErrInvalidTournamentSize},
		{"short roster", func(in *CreateTournamentInput) { in.Teams[1].Players = in.Teams[1].Players[:3] }, ErrInsufficientRoster},
		{"large roster", func(in *CreateTournamentInput) { in.Teams[0] = teamInput("Alpha", 7) }, ErrTeamTooLarge},
		{"duplicate team", func(in *CreateTournamentInput) { in.Teams[1].Name = "Alpha" }, ErrTeamNameConflict},
		{"duplicate player", func(in *CreateTournamentInput) { in.Teams[0].Players[1].Name = "Alpha-1" }, ErrPlayerNameConflict},
		{"bad dates", func(in *CreateTournamentInput) { in.EndDate = &end }, ErrTournamentInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := leagueInput("Alpha", "Bravo")
			tt.mutate(&input)
			_, err := env.tournaments.CreateTournament(ctx, input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	list, err := env.tournaments.ListTournaments(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestResultService_FullTournamentFlow(t *testing.T) {
	env := newEnv(t, true)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	var last *ResultOutcome
	for i, g := range match.Games {
		outcome, err := env.results.SubmitBoardResult(ctx, g.ID, BoardResultInput{Result: models.ResultWhiteWin})
		require.NoError(t, err)
		if i < len(match.Games)-1 {
			assert.False(t, outcome.MatchCompleted)
			assert.Nil(t, outcome.Standings)
		}
		last = outcome
	}

	require.True(t, last.MatchCompleted)
	assert.True(t, last.RoundCompleted)
	assert.True(t, last.TournamentCompleted)
	assert.Equal(t, 4.0, last.Match.WhiteScore+last.Match.BlackScore)
	assert.Equal(t, models.ResultDraw, last.Match.Result)

	tournament, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, tournament.Status)
	assert.Equal(t, 2, tournament.CurrentRound)

	standings, err := env.standings.RecalculateStandings(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	for _, row := range standings {
		assert.Equal(t, 1, row.MatchPoints)
		assert.Equal(t, 2.0, row.GamePoints)
		assert.Equal(t, 1, row.Draws)
	}

	assert.ElementsMatch(t, []string{
		brackets.MessageBoardResult, brackets.MessageBoardResult, brackets.MessageBoardResult, brackets.MessageBoardResult,
		brackets.MessageStandingsUpdated, brackets.MessageTournamentCompleted,
	}, env.hub.types())

	keys := env.uploader.keys()
	require.Len(t, keys, 2)
	assert.Contains(t, keys, fmt.Sprintf("tournaments/%d/standings.json", created.ID))

	var snapshot StandingsSnapshot
	require.NoError(t, json.NewDecoder(bytes.NewReader(env.uploader.files[standingsKey(created.ID)])).Decode(&snapshot))
	assert.Len(t, snapshot.Standings, 2)
	assert.Len(t, snapshot.PlayerRankings, 8)
}

func TestResultService_DoubleSubmissionLeavesStateUnchanged(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	game := env.full(t, created.ID).Rounds[0].Matches[0].Games[0]

	_, err := env.results.SubmitBoardResult(ctx, game.ID, BoardResultInput{Result: models.ResultBlackWin})
	require.NoError(t, err)
	before := env.player(t, game.WhitePlayerID)

	_, err = env.results.SubmitBoardResult(ctx, game.ID, BoardResultInput{Result: models.ResultWhiteWin})
	assert.ErrorIs(t, err, ErrResultAlreadySubmitted)
	assert.Equal(t, before, env.player(t, game.WhitePlayerID))

	stored := env.full(t, created.ID).Rounds[0].Matches[0]
	assert.Equal(t, models.ResultBlackWin, stored.Games[0].Result)
	assert.Equal(t, 1.0, stored.WhiteScore+stored.BlackScore)
}

func TestResultService_RejectsBadInput(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	_, err := env.results.SubmitBoardResult(ctx, match.Games[0].ID, BoardResultInput{Result: models.ResultPending})
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = env.results.SubmitBoardResult(ctx, 9999, BoardResultInput{Result: models.ResultDraw})
	assert.ErrorIs(t, err, ErrGameNotFound)

	_, err = env.results.SubmitBoardResultByBoard(ctx, match.ID, 5, BoardResultInput{Result: models.ResultDraw})
	assert.ErrorIs(t, err, ErrInvalidBoard)

	_, err = env.results.SubmitBoardResultByBoard(ctx, 9999, 1, BoardResultInput{Result: models.ResultDraw})
	assert.ErrorIs(t, err, ErrMatchNotFound)

	_, err = env.results.ResetBoardResult(ctx, match.Games[0].ID)
	assert.ErrorIs(t, err, ErrResultNotSubmitted)
}

func TestResultService_SubmitByBoardStoresNotes(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	notes := " flag fall "
	outcome, err := env.results.SubmitBoardResultByBoard(ctx, match.ID, 2, BoardResultInput{Result: models.ResultDraw, Notes: &notes})
	require.NoError(t, err)
	require.Len(t, outcome.Games, 1)
	assert.Equal(t, 2, outcome.Games[0].BoardNumber)

	stored := env.full(t, created.ID).Rounds[0].Matches[0].Games[1]
	assert.Equal(t, models.ResultDraw, stored.Result)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, "flag fall", *stored.Notes)
}

func TestResultService_SubmitMatchResultsIsAtomic(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	_, err := env.results.SubmitMatchResults(ctx, match.ID, []BoardResultInput{
		{BoardNumber: 1, Result: models.ResultWhiteWin},
		{BoardNumber: 2, Result: models.ResultDraw},
		{BoardNumber: 2, Result: models.ResultDraw},
	})
	assert.ErrorIs(t, err, ErrResultAlreadySubmitted)

	stored := env.full(t, created.ID).Rounds[0].Matches[0]
	for _, g := range stored.Games {
		assert.False(t, g.IsCompleted)
	}

	outcome, err := env.results.SubmitMatchResults(ctx, match.ID, []BoardResultInput{
		{BoardNumber: 1, Result: models.ResultWhiteWin},
		{BoardNumber: 2, Result: models.ResultWhiteWin},
		{BoardNumber: 3, Result: models.ResultWhiteWin},
		{BoardNumber: 4, Result: models.ResultDraw},
	})
	require.NoError(t, err)
	assert.Len(t, outcome.Games, 4)
	assert.True(t, outcome.MatchCompleted)
	assert.True(t, outcome.TournamentCompleted)
	require.Len(t, outcome.Standings, 2)
	assert.Equal(t, 2, outcome.Standings[0].MatchPoints)
	assert.Equal(t, 2.5, outcome.Standings[0].GamePoints)
}

func TestResultService_ResetRevertsCompletion(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	for _, g := range match.Games {
		_, err := env.results.SubmitBoardResult(ctx, g.ID, BoardResultInput{Result: models.ResultDraw})
		require.NoError(t, err)
	}
	first := match.Games[0]
	require.Equal(t, 1, env.player(t, first.WhitePlayerID).Draws)

	outcome, err := env.results.ResetBoardResult(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, outcome.MatchCompleted)
	assert.False(t, outcome.TournamentCompleted)
	assert.Equal(t, models.StatusActive, outcome.Tournament.Status)
	assert.Equal(t, 1, outcome.Tournament.CurrentRound)
	assert.Contains(t, env.hub.types(), brackets.MessageBoardReset)

	white := env.player(t, first.WhitePlayerID)
	assert.Equal(t, 0, white.GamesPlayed)
	assert.Equal(t, 0.0, white.Points)

	standings, err := env.standings.RecalculateStandings(ctx, created.ID)
	require.NoError(t, err)
	for _, row := range standings {
		assert.Zero(t, row.MatchesPlayed)
	}

	stored := env.full(t, created.ID)
	assert.False(t, stored.Rounds[0].IsCompleted)
	assert.Equal(t, models.ResultPending, stored.Rounds[0].Matches[0].Result)
	for _, team := range stored.Teams {
		assert.Zero(t, team.MatchPoints)
	}
}

func TestResultService_PausedTournamentRejectsEntry(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	game := env.full(t, created.ID).Rounds[0].Matches[0].Games[0]

	_, err := env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusPaused)
	require.NoError(t, err)

	_, err = env.results.SubmitBoardResult(ctx, game.ID, BoardResultInput{Result: models.ResultDraw})
	assert.ErrorIs(t, err, ErrTournamentNotActive)

	_, err = env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusActive)
	require.NoError(t, err)
	_, err = env.results.SubmitBoardResult(ctx, game.ID, BoardResultInput{Result: models.ResultDraw})
	assert.NoError(t, err)
}

func TestResultService_ClosedTournamentRejectsResults(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	match := env.full(t, created.ID).Rounds[0].Matches[0]

	_, err := env.results.SubmitBoardResult(ctx, match.Games[0].ID, BoardResultInput{Result: models.ResultWhiteWin})
	require.NoError(t, err)
	_, err = env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusCompleted)
	require.NoError(t, err)

	_, err = env.results.SubmitBoardResult(ctx, match.Games[1].ID, BoardResultInput{Result: models.ResultDraw})
	assert.ErrorIs(t, err, ErrTournamentCompleted)
	_, err = env.results.SubmitMatchResults(ctx, match.ID, []BoardResultInput{
		{BoardNumber: 2, Result: models.ResultDraw},
		{BoardNumber: 3, Result: models.ResultDraw},
	})
	assert.ErrorIs(t, err, ErrTournamentCompleted)
	_, err = env.results.ResetBoardResult(ctx, match.Games[0].ID)
	assert.ErrorIs(t, err, ErrTournamentCompleted)

	stored := env.full(t, created.ID)
	assert.Equal(t, models.StatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.CurrentRound)
	games := stored.Rounds[0].Matches[0].Games
	assert.Equal(t, models.ResultWhiteWin, games[0].Result)
	assert.Equal(t, models.ResultPending, games[1].Result)
	assert.Equal(t, 1, env.player(t, match.Games[0].WhitePlayerID).Wins)
}

func TestResultService_RoundCompletionAdvancesByOne(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("A", "B", "C", "D"))
	round := env.full(t, created.ID).Rounds[0]

	for mi, m := range round.Matches {
		for _, g := range m.Games {
			outcome, err := env.results.SubmitBoardResult(ctx, g.ID, BoardResultInput{Result: models.ResultWhiteWin})
			require.NoError(t, err)
			if mi == 0 {
				assert.Equal(t, 1, outcome.Tournament.CurrentRound)
			}
		}
	}

	tournament, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, tournament.CurrentRound)
	assert.Equal(t, models.StatusActive, tournament.Status)
}

func TestTournamentService_StatusTransitions(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))

	_, err := env.tournaments.UpdateTournamentStatus(ctx, created.ID, "finished")
	assert.ErrorIs(t, err, ErrTournamentInvalidStatus)

	got, err := env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	_, err = env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusActive)
	assert.ErrorIs(t, err, ErrTournamentInvalidStatusTransition)

	_, err = env.tournaments.UpdateTournamentStatus(ctx, 9999, models.StatusPaused)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

// staleTournamentRepo отдаёт снимок турнира, сделанный до внесения результатов.
type staleTournamentRepo struct {
	repositories.TournamentRepository
	snapshot *models.Tournament
}

func (r *staleTournamentRepo) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	if r.snapshot == nil || r.snapshot.ID != id {
		return r.TournamentRepository.GetByID(ctx, exec, id)
	}
	snapshot := *r.snapshot
	return &snapshot, nil
}

// assertWaitsForWriters проверяет, что write ждёт, пока турнир занят другим писателем.
func assertWaitsForWriters(t *testing.T, tournamentID int, write func() error) {
	t.Helper()
	unlock := tournamentWriters.lock(tournamentID)
	done := make(chan error, 1)
	go func() { done <- write() }()

	select {
	case err := <-done:
		unlock()
		t.Fatalf("write finished while the tournament was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("write did not finish after the lock was released")
	}
}

func TestTournamentService_StatusChangeKeepsRoundProgress(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("A", "B", "C", "D"))

	snapshot, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, 1, snapshot.CurrentRound)

	for _, m := range env.full(t, created.ID).Rounds[0].Matches {
		for _, g := range m.Games {
			_, err := env.results.SubmitBoardResult(ctx, g.ID, BoardResultInput{Result: models.ResultWhiteWin})
			require.NoError(t, err)
		}
	}

	svc := NewTournamentService(env.db,
		&staleTournamentRepo{TournamentRepository: repositories.NewPostgresTournamentRepository(env.db), snapshot: snapshot},
		repositories.NewPostgresTeamRepository(env.db),
		repositories.NewPostgresPlayerRepository(env.db),
		repositories.NewPostgresRoundRepository(env.db),
		repositories.NewPostgresMatchRepository(env.db),
		repositories.NewPostgresGameRepository(env.db),
		nil,
	)
	_, err = svc.UpdateTournamentStatus(ctx, created.ID, models.StatusPaused)
	require.NoError(t, err)

	stored, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, stored.Status)
	assert.Equal(t, 2, stored.CurrentRound)
}

func TestTournamentService_StatusChangeWaitsForWriters(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))

	assertWaitsForWriters(t, created.ID, func() error {
		_, err := env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusPaused)
		return err
	})

	stored, err := env.tournaments.GetTournamentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaused, stored.Status)
}

func TestTournamentService_UpdateCurrentAndDelete(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	first := env.create(t, leagueInput("Alpha", "Bravo"))
	second := env.create(t, leagueInput("Charlie", "Delta"))

	current, err := env.tournaments.GetCurrentTournament(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, current.ID)

	name := "Autumn League"
	desc := "  second division "
	updated, err := env.tournaments.UpdateTournament(ctx, first.ID, UpdateTournamentInput{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "second division", *updated.Description)

	blank := " "
	_, err = env.tournaments.UpdateTournament(ctx, first.ID, UpdateTournamentInput{Name: &blank})
	assert.ErrorIs(t, err, ErrTournamentNameRequired)

	require.NoError(t, env.tournaments.DeleteTournament(ctx, first.ID))
	_, err = env.tournaments.GetFullTournamentData(ctx, first.ID)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.ErrorIs(t, env.tournaments.DeleteTournament(ctx, first.ID), ErrTournamentNotFound)
}

func TestStandingsService_EmptyTournament(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo", "Charlie"))

	standings, err := env.standings.RecalculateStandings(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)
	for i, row := range standings {
		assert.Equal(t, i+1, row.Position)
		assert.Equal(t, created.Teams[i].ID, row.TeamID)
		assert.Zero(t, row.MatchPoints)
	}

	rankings, err := env.standings.RecalculatePlayerRankings(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, rankings, 12)
	assert.Equal(t, 1950, rankings[0].Rating)
	assert.Equal(t, 1950, rankings[0].PerformanceRating)

	_, err = env.standings.RecalculateStandings(ctx, 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)

	_, err = env.standings.PublishStandings(ctx, created.ID)
	assert.ErrorIs(t, err, ErrPublishingDisabled)
}

func TestPlayerService_RosterChanges(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	alpha, bravo := created.Teams[0], created.Teams[1]

	reserve, err := env.players.AddPlayer(ctx, alpha.ID, AddPlayerInput{Name: "Alpha-5"})
	require.NoError(t, err)
	assert.Equal(t, 5, reserve.BoardOrder)
	assert.Equal(t, models.DefaultRating, reserve.Rating)

	_, err = env.players.AddPlayer(ctx, alpha.ID, AddPlayerInput{Name: "Alpha-1"})
	assert.ErrorIs(t, err, ErrPlayerNameConflict)

	sixth, err := env.players.AddPlayer(ctx, alpha.ID, AddPlayerInput{Name: "Alpha-6"})
	require.NoError(t, err)
	_, err = env.players.AddPlayer(ctx, alpha.ID, AddPlayerInput{Name: "Alpha-7"})
	assert.ErrorIs(t, err, ErrTeamTooLarge)

	err = env.players.DeletePlayer(ctx, alpha.Players[0].ID)
	assert.ErrorIs(t, err, ErrPlayerHasGames)

	require.NoError(t, env.players.DeletePlayer(ctx, reserve.ID))
	roster, err := env.players.SwapBoardOrder(ctx, alpha.Players[0].ID, alpha.Players[1].ID)
	require.NoError(t, err)
	require.Len(t, roster, 5)
	orders := make(map[int]int)
	for _, p := range roster {
		orders[p.ID] = p.BoardOrder
	}
	assert.Equal(t, 2, orders[alpha.Players[0].ID])
	assert.Equal(t, 1, orders[alpha.Players[1].ID])
	assert.Equal(t, 4, orders[alpha.Players[3].ID])
	assert.Equal(t, 5, orders[sixth.ID])
	assert.Equal(t, alpha.Players[1].ID, roster[0].ID)

	_, err = env.players.SwapBoardOrder(ctx, alpha.Players[0].ID, bravo.Players[0].ID)
	assert.ErrorIs(t, err, ErrPlayersNotTeammates)

	err = env.players.DeletePlayer(ctx, bravo.Players[3].ID)
	assert.ErrorIs(t, err, ErrInsufficientRoster)

	rating := 2400
	updated, err := env.players.UpdatePlayer(ctx, bravo.Players[0].ID, UpdatePlayerInput{Rating: &rating})
	require.NoError(t, err)
	assert.Equal(t, 2400, updated.Rating)
	assert.Equal(t, "Bravo-1", updated.Name)
}

func TestPlayerService_DeleteShiftsBoardOrders(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	input := leagueInput("Alpha", "Bravo")
	input.Teams[0] = teamInput("Alpha", 6)
	created := env.create(t, input)
	alpha := created.Teams[0]

	// Доски 5 и 6 не расставлены, их можно удалять.
	require.NoError(t, env.players.DeletePlayer(ctx, alpha.Players[4].ID))

	stats, err := env.players.GetPlayerStatistics(ctx, alpha.Players[5].ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.BoardOrder)
}

func TestPlayerService_Substitution(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	alpha, bravo := created.Teams[0], created.Teams[1]
	match := env.full(t, created.ID).Rounds[0].Matches[0]
	require.Equal(t, alpha.ID, match.WhiteTeamID)

	alphaReserve, err := env.players.AddPlayer(ctx, alpha.ID, AddPlayerInput{Name: "Alpha-5"})
	require.NoError(t, err)
	bravoReserve, err := env.players.AddPlayer(ctx, bravo.ID, AddPlayerInput{Name: "Bravo-5"})
	require.NoError(t, err)

	// Board 1: Alpha holds white.
	board1 := match.Games[0]
	_, err = env.players.SubstituteBoardPlayer(ctx, board1.ID, SubstituteInput{Color: models.ColorWhite, PlayerID: bravoReserve.ID})
	assert.ErrorIs(t, err, ErrSubstituteWrongTeam)

	_, err = env.players.SubstituteBoardPlayer(ctx, board1.ID, SubstituteInput{Color: models.ColorWhite, PlayerID: alpha.Players[1].ID})
	assert.ErrorIs(t, err, ErrSubstituteAlreadySeated)

	_, err = env.players.SubstituteBoardPlayer(ctx, board1.ID, SubstituteInput{Color: "red", PlayerID: alphaReserve.ID})
	assert.ErrorIs(t, err, ErrInvalidColor)

	game, err := env.players.SubstituteBoardPlayer(ctx, board1.ID, SubstituteInput{Color: models.ColorWhite, PlayerID: alphaReserve.ID})
	require.NoError(t, err)
	assert.Equal(t, alphaReserve.ID, game.WhitePlayerID)

	outcome, err := env.results.SubmitBoardResult(ctx, board1.ID, BoardResultInput{Result: models.ResultWhiteWin})
	require.NoError(t, err)
	assert.Equal(t, 1.0, outcome.Match.WhiteScore)

	_, err = env.players.SubstituteBoardPlayer(ctx, board1.ID, SubstituteInput{Color: models.ColorBlack, PlayerID: bravoReserve.ID})
	assert.ErrorIs(t, err, ErrResultAlreadySubmitted)

	stats, err := env.players.GetPlayerStatistics(ctx, alphaReserve.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.GamesAsWhite)
	assert.Equal(t, 100.0, stats.WinPercentage)
	assert.Equal(t, models.DefaultRating+200, stats.PerformanceRating)

	games, err := env.players.ListPlayerGames(ctx, alphaReserve.ID)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, board1.ID, games[0].ID)
}

func TestPlayerService_SubstitutionWaitsForWriters(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	board := env.full(t, created.ID).Rounds[0].Matches[0].Games[1]

	reserve, err := env.players.AddPlayer(ctx, created.Teams[0].ID, AddPlayerInput{Name: "Alpha-5"})
	require.NoError(t, err)

	var seated *models.Game
	assertWaitsForWriters(t, created.ID, func() error {
		var err error
		seated, err = env.players.SubstituteBoardPlayer(ctx, board.ID, SubstituteInput{Color: models.ColorWhite, PlayerID: reserve.ID})
		return err
	})
	require.NotNil(t, seated)
	assert.Equal(t, reserve.ID, seated.WhitePlayerID)
}

func TestPlayerService_CompletedTournamentIsFrozen(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("Alpha", "Bravo"))
	_, err := env.tournaments.UpdateTournamentStatus(ctx, created.ID, models.StatusCompleted)
	require.NoError(t, err)

	_, err = env.players.AddPlayer(ctx, created.Teams[0].ID, AddPlayerInput{Name: "Late"})
	assert.ErrorIs(t, err, ErrTournamentCompleted)

	_, err = env.players.AddPlayer(ctx, 9999, AddPlayerInput{Name: "Ghost"})
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestRoundService_UpdateDates(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("A", "B", "C", "D"))
	round := created.Rounds[1]

	start := time.Date(2025, 3, 8, 10, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 8, 18, 0, 0, 0, time.UTC)
	updated, err := env.rounds.UpdateRoundDates(ctx, round.ID, UpdateRoundInput{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.NotNil(t, updated.StartDate)
	assert.True(t, start.Equal(*updated.StartDate))

	matches, err := env.rounds.ListRoundMatches(ctx, round.ID)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.NotNil(t, m.ScheduledDate)
		assert.True(t, start.Equal(*m.ScheduledDate))
		assert.Len(t, m.Games, models.BoardsPerMatch)
	}

	early := start.Add(-time.Hour)
	_, err = env.rounds.UpdateRoundDates(ctx, round.ID, UpdateRoundInput{EndDate: &early})
	assert.ErrorIs(t, err, ErrRoundInvalidDateRange)

	_, err = env.rounds.UpdateRoundDates(ctx, 9999, UpdateRoundInput{StartDate: &start})
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestRoundService_MatchLookups(t *testing.T) {
	env := newEnv(t, false)
	ctx := context.Background()
	created := env.create(t, leagueInput("A", "B", "C"))

	matches, err := env.rounds.ListTournamentMatches(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	for i, m := range matches {
		assert.Len(t, m.Games, models.BoardsPerMatch)
		if i > 0 {
			assert.LessOrEqual(t, matches[i-1].RoundNumber, m.RoundNumber)
		}
	}

	match, err := env.rounds.GetMatch(ctx, matches[0].ID)
	require.NoError(t, err)
	assert.Equal(t, matches[0].WhiteTeamID, match.WhiteTeamID)
	require.Len(t, match.Games, models.BoardsPerMatch)
	assert.Equal(t, 1, match.Games[0].BoardNumber)

	_, err = env.rounds.GetMatch(ctx, 9999)
	assert.ErrorIs(t, err, ErrMatchNotFound)
	_, err = env.rounds.ListTournamentMatches(ctx, 9999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestIsValidStatusTransition(t *testing.T) {
	assert.True(t, isValidStatusTransition(models.StatusActive, models.StatusPaused))
	assert.True(t, isValidStatusTransition(models.StatusPaused, models.StatusActive))
	assert.True(t, isValidStatusTransition(models.StatusPaused, models.StatusCompleted))
	assert.True(t, isValidStatusTransition(models.StatusCompleted, models.StatusCompleted))
	assert.False(t, isValidStatusTransition(models.StatusCompleted, models.StatusActive))
}
