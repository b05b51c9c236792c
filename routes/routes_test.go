package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/db"
	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/middleware"
	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, limiter *middleware.IPRateLimiter) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	conn, err := db.Connect(db.DriverSQLite, "file::memory:?_foreign_keys=on", time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn, db.DriverSQLite, logger))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := brackets.NewHub(logger)
	go hub.Run(ctx)

	tournamentRepo := repositories.NewPostgresTournamentRepository(conn)
	teamRepo := repositories.NewPostgresTeamRepository(conn)
	playerRepo := repositories.NewPostgresPlayerRepository(conn)
	roundRepo := repositories.NewPostgresRoundRepository(conn)
	matchRepo := repositories.NewPostgresMatchRepository(conn)
	gameRepo := repositories.NewPostgresGameRepository(conn)
	standingRepo := repositories.NewPostgresStandingRepository(conn)

	ts := services.NewTournamentService(conn, tournamentRepo, teamRepo, playerRepo, roundRepo, matchRepo, gameRepo, logger)
	ss := services.NewStandingsService(tournamentRepo, teamRepo, playerRepo, matchRepo, nil, logger)
	rs := services.NewResultService(conn, tournamentRepo, teamRepo, playerRepo, roundRepo, matchRepo, gameRepo, standingRepo, ss, hub, logger)
	ps := services.NewPlayerService(conn, tournamentRepo, teamRepo, playerRepo, matchRepo, gameRepo, logger)
	rds := services.NewRoundService(conn, tournamentRepo, roundRepo, matchRepo, gameRepo, logger)

	router := chi.NewRouter()
	SetupRoutes(router,
		Options{Logger: logger, AllowedOrigins: []string{"*"}, RateLimiter: limiter},
		handlers.NewTournamentHandler(ts),
		handlers.NewStandingsHandler(ss),
		handlers.NewResultHandler(rs),
		handlers.NewPlayerHandler(ps),
		handlers.NewRoundHandler(rds),
		handlers.NewWebSocketHandler(hub, ts, []string{"*"}),
	)
	return router
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, key string, dst interface{}) {
	t.Helper()
	var envelope map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	raw, ok := envelope[key]
	require.True(t, ok, "missing %q in %s", key, rec.Body.String())
	require.NoError(t, json.Unmarshal(raw, dst))
}

func createLeague(t *testing.T, h http.Handler, teams ...string) models.Tournament {
	t.Helper()
	input := services.CreateTournamentInput{Name: "City League"}
	for _, name := range teams {
		team := services.CreateTeamInput{Name: name}
		for i := 1; i <= 4; i++ {
			team.Players = append(team.Players, services.CreatePlayerInput{Name: fmt.Sprintf("%s-%d", name, i)})
		}
		input.Teams = append(input.Teams, team)
	}
	rec := do(t, h, http.MethodPost, "/api/tournaments", input)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var tournament models.Tournament
	decode(t, rec, "tournament", &tournament)
	return tournament
}

func TestHealthAndSwagger(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))

	rec = do(t, h, http.MethodGet, "/swagger/doc.json", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chess League API")
}

func TestTournamentLifecycleOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)
	created := createLeague(t, h, "Rooks", "Knights")
	assert.Equal(t, models.StatusActive, created.Status)
	assert.Equal(t, 1, created.TotalRounds)

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/api/tournaments/%d/full", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var full models.Tournament
	decode(t, rec, "tournament", &full)
	require.Len(t, full.Rounds, 1)
	require.Len(t, full.Rounds[0].Matches, 1)
	games := full.Rounds[0].Matches[0].Games
	require.Len(t, games, 4)

	path := fmt.Sprintf("/api/games/%d/result", games[0].ID)
	rec = do(t, h, http.MethodPost, path, services.BoardResultInput{Result: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, path, services.BoardResultInput{Result: models.ResultWhiteWin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, path, services.BoardResultInput{Result: models.ResultDraw})
	assert.Equal(t, http.StatusConflict, rec.Code)

	matchID := full.Rounds[0].Matches[0].ID
	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/matches/%d/results", matchID), map[string]interface{}{
		"results": []services.BoardResultInput{
			{BoardNumber: 2, Result: models.ResultDraw},
			{BoardNumber: 3, Result: models.ResultBlackWin},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/matches/%d/boards/4/result", matchID), services.BoardResultInput{Result: models.ResultWhiteWin})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var outcome services.ResultOutcome
	decode(t, rec, "outcome", &outcome)
	assert.True(t, outcome.MatchCompleted)
	assert.True(t, outcome.TournamentCompleted)
	require.NotNil(t, outcome.Tournament)
	assert.Equal(t, models.StatusCompleted, outcome.Tournament.Status)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/tournaments/%d/standings", created.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/tournaments/%d/standings/publish", created.ID), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/matches/%d/boards/9/result", matchID), nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/matches/%d", matchID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var match models.Match
	decode(t, rec, "match", &match)
	assert.True(t, match.IsCompleted)
	assert.Len(t, match.Games, 4)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/tournaments/%d/matches", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []models.Match
	decode(t, rec, "matches", &matches)
	assert.Len(t, matches, 1)
}

func TestTournamentErrorsOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodGet, "/api/tournaments/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/tournaments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tournaments", map[string]interface{}{"name": "X", "unknown": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tournaments", services.CreateTournamentInput{
		Name:  "Solo",
		Teams: []services.CreateTeamInput{{Name: "Only", Players: []services.CreatePlayerInput{{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}}}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/tournaments/current", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusTransitionsOverHTTP(t *testing.T) {
	h := newTestRouter(t, nil)
	created := createLeague(t, h, "Rooks", "Knights", "Bishops")
	path := fmt.Sprintf("/api/tournaments/%d/status", created.ID)

	rec := do(t, h, http.MethodPatch, path, map[string]string{"status": "paused"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPatch, path, map[string]string{"status": "archived"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, path, map[string]string{"status": "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPatch, path, map[string]string{"status": "active"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/api/tournaments/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/tournaments/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRosterRoutes(t *testing.T) {
	h := newTestRouter(t, nil)
	created := createLeague(t, h, "Rooks", "Knights")

	rec := do(t, h, http.MethodGet, fmt.Sprintf("/api/tournaments/%d/full", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var full models.Tournament
	decode(t, rec, "tournament", &full)
	team := full.Teams[0]

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/teams/%d/players", team.ID), map[string]interface{}{"name": "Reserve"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var reserve models.Player
	decode(t, rec, "player", &reserve)
	assert.Equal(t, 5, reserve.BoardOrder)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/api/teams/%d/players", team.ID), map[string]interface{}{"name": "Reserve"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/players/%d/statistics", reserve.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodDelete, fmt.Sprintf("/api/players/%d", reserve.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodGet, fmt.Sprintf("/api/players/%d/games", team.Players[0].ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var games []models.Game
	decode(t, rec, "games", &games)
	assert.Len(t, games, 1)
}

func TestWriteRoutesAreRateLimited(t *testing.T) {
	h := newTestRouter(t, middleware.NewIPRateLimiter(0.001, 1))

	rec := do(t, h, http.MethodPost, "/api/tournaments", map[string]string{"name": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tournaments", map[string]string{"name": ""})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Чтение не ограничивается.
	for i := 0; i < 3; i++ {
		rec = do(t, h, http.MethodGet, "/api/tournaments", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}
