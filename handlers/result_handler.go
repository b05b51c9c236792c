package handlers

import (
	"net/http"
	"strconv"

	"github.com/Dosada05/chess-league/services"
	"github.com/go-chi/chi/v5"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

type matchResultsInput struct {
	Results []services.BoardResultInput `json:"results"`
}

// SubmitGameResultHandler godoc
// @Summary Внести результат партии
// @Description result: white_win, black_win или draw. Пересчитывает матч, тур, турнир и таблицу.
// @Tags results
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param body body services.BoardResultInput true "Результат"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Недопустимый результат"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Результат уже внесён или турнир приостановлен"
// @Router /api/games/{gameID}/result [post]
func (h *ResultHandler) SubmitGameResultHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.BoardResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.resultService.SubmitBoardResult(r.Context(), gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitBoardResultHandler godoc
// @Summary Внести результат по номеру доски матча
// @Tags results
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param boardNumber path int true "Номер доски (1-4)"
// @Param body body services.BoardResultInput true "Результат"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/matches/{matchID}/boards/{boardNumber}/result [post]
func (h *ResultHandler) SubmitBoardResultHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	boardNumber, err := strconv.Atoi(chi.URLParam(r, "boardNumber"))
	if err != nil {
		badRequestResponse(w, r, services.ErrInvalidBoard)
		return
	}

	var input services.BoardResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.resultService.SubmitBoardResultByBoard(r.Context(), matchID, boardNumber, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitMatchResultsHandler godoc
// @Summary Внести результаты нескольких досок матча одной операцией
// @Tags results
// @Accept json
// @Produce json
// @Param matchID path int true "Match ID"
// @Param body body matchResultsInput true "Результаты по доскам"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /api/matches/{matchID}/results [post]
func (h *ResultHandler) SubmitMatchResultsHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input matchResultsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.resultService.SubmitMatchResults(r.Context(), matchID, input.Results)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ResetGameResultHandler godoc
// @Summary Отменить результат партии
// @Tags results
// @Produce json
// @Param gameID path int true "Game ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Результат ещё не внесён"
// @Router /api/games/{gameID}/result [delete]
func (h *ResultHandler) ResetGameResultHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	outcome, err := h.resultService.ResetBoardResult(r.Context(), gameID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"outcome": outcome}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
