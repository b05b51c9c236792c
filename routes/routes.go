package routes

import (
	"log/slog"
	"net/http"
	"time"

	_ "github.com/Dosada05/chess-league/docs"
	"github.com/Dosada05/chess-league/handlers"
	"github.com/Dosada05/chess-league/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	RateLimiter    *middleware.IPRateLimiter
}

func SetupRoutes(
	router *chi.Mux,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	standingsHandler *handlers.StandingsHandler,
	resultHandler *handlers.ResultHandler,
	playerHandler *handlers.PlayerHandler,
	roundHandler *handlers.RoundHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// WebSocket соединение живёт дольше таймаута, поэтому вне группы с Timeout.
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	writeLimit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		writeLimit = middleware.RateLimit(opts.RateLimiter)
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.Get("/current", tournamentHandler.GetCurrentHandler)
			r.With(writeLimit).Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Get("/full", tournamentHandler.GetFullHandler)
				r.Get("/standings", standingsHandler.StandingsHandler)
				r.Get("/player-rankings", standingsHandler.PlayerRankingsHandler)
				r.Get("/matches", roundHandler.ListTournamentMatchesHandler)

				r.Group(func(r chi.Router) {
					r.Use(writeLimit)
					r.Put("/", tournamentHandler.UpdateHandler)
					r.Patch("/status", tournamentHandler.UpdateStatusHandler)
					r.Delete("/", tournamentHandler.DeleteHandler)
					r.Post("/standings/publish", standingsHandler.PublishHandler)
				})
			})
		})

		r.Route("/rounds/{roundID}", func(r chi.Router) {
			r.Get("/matches", roundHandler.ListMatchesHandler)
			r.With(writeLimit).Put("/", roundHandler.UpdateDatesHandler)
		})

		r.Get("/matches/{matchID}", roundHandler.GetMatchHandler)

		r.Group(func(r chi.Router) {
			r.Use(writeLimit)
			r.Post("/matches/{matchID}/boards/{boardNumber}/result", resultHandler.SubmitBoardResultHandler)
			r.Post("/matches/{matchID}/results", resultHandler.SubmitMatchResultsHandler)
			r.Post("/games/{gameID}/result", resultHandler.SubmitGameResultHandler)
			r.Delete("/games/{gameID}/result", resultHandler.ResetGameResultHandler)
			r.Put("/games/{gameID}/players", playerHandler.SubstituteHandler)
			r.Post("/teams/{teamID}/players", playerHandler.AddPlayerHandler)
		})

		r.Route("/players/{playerID}", func(r chi.Router) {
			r.Get("/statistics", playerHandler.StatisticsHandler)
			r.Get("/games", playerHandler.GamesHandler)

			r.Group(func(r chi.Router) {
				r.Use(writeLimit)
				r.Put("/", playerHandler.UpdatePlayerHandler)
				r.Delete("/", playerHandler.DeletePlayerHandler)
				r.Post("/swap", playerHandler.SwapBoardOrderHandler)
			})
		})
	})
}
