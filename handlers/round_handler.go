package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

type RoundHandler struct {
	roundService services.RoundService
}

func NewRoundHandler(rs services.RoundService) *RoundHandler {
	return &RoundHandler{roundService: rs}
}

// ListMatchesHandler godoc
// @Summary Матчи тура с досками
// @Tags rounds
// @Produce json
// @Param roundID path int true "Round ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/rounds/{roundID}/matches [get]
func (h *RoundHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.roundService.ListRoundMatches(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if matches == nil {
		matches = []*models.Match{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateDatesHandler godoc
// @Summary Назначить даты тура
// @Description Дата начала копируется в плановую дату всех матчей тура.
// @Tags rounds
// @Accept json
// @Produce json
// @Param roundID path int true "Round ID"
// @Param body body services.UpdateRoundInput true "Даты"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/rounds/{roundID} [put]
func (h *RoundHandler) UpdateDatesHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdateRoundInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.UpdateRoundDates(r.Context(), roundID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
