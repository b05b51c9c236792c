package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-league/services"
)

type StandingsHandler struct {
	standingsService services.StandingsService
}

func NewStandingsHandler(ss services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: ss}
}

// StandingsHandler godoc
// @Summary Турнирная таблица команд
// @Description Очки матчей, очки партий, коэффициент Зоннеборна-Бергера.
// @Tags standings
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/tournaments/{tournamentID}/standings [get]
func (h *StandingsHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	standings, err := h.standingsService.RecalculateStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PlayerRankingsHandler godoc
// @Summary Личный зачёт игроков
// @Tags standings
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/tournaments/{tournamentID}/player-rankings [get]
func (h *StandingsHandler) PlayerRankingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rankings, err := h.standingsService.RecalculatePlayerRankings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player_rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishHandler godoc
// @Summary Опубликовать таблицу в объектное хранилище
// @Tags standings
// @Produce json
// @Param tournamentID path int true "Tournament ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 503 {object} map[string]string "Хранилище не настроено"
// @Router /api/tournaments/{tournamentID}/standings/publish [post]
func (h *StandingsHandler) PublishHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	published, err := h.standingsService.PublishStandings(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"published": published}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
