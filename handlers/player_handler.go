package handlers

import (
	"net/http"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(ps services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: ps}
}

type swapBoardOrderInput struct {
	TargetPlayerID int `json:"target_player_id"`
}

// AddPlayerHandler godoc
// @Summary Добавить игрока в состав команды
// @Tags players
// @Accept json
// @Produce json
// @Param teamID path int true "Team ID"
// @Param body body services.AddPlayerInput true "Игрок"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Имя занято или турнир завершён"
// @Failure 422 {object} map[string]string "В команде уже 6 игроков"
// @Router /api/teams/{teamID}/players [post]
func (h *PlayerHandler) AddPlayerHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.AddPlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.AddPlayer(r.Context(), teamID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdatePlayerHandler godoc
// @Summary Изменить имя или рейтинг игрока
// @Tags players
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param body body services.UpdatePlayerInput true "Изменяемые поля"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /api/players/{playerID} [put]
func (h *PlayerHandler) UpdatePlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.UpdatePlayerInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	player, err := h.playerService.UpdatePlayer(r.Context(), playerID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DeletePlayerHandler godoc
// @Summary Удалить запасного игрока
// @Tags players
// @Param playerID path int true "Player ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Игрок уже расставлен на доски"
// @Failure 422 {object} map[string]string "В команде останется меньше 4 игроков"
// @Router /api/players/{playerID} [delete]
func (h *PlayerHandler) DeletePlayerHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.playerService.DeletePlayer(r.Context(), playerID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SwapBoardOrderHandler godoc
// @Summary Поменять местами порядок досок двух игроков команды
// @Tags players
// @Accept json
// @Produce json
// @Param playerID path int true "Player ID"
// @Param body body swapBoardOrderInput true "Второй игрок"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string "Игроки из разных команд"
// @Router /api/players/{playerID}/swap [post]
func (h *PlayerHandler) SwapBoardOrderHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input swapBoardOrderInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	roster, err := h.playerService.SwapBoardOrder(r.Context(), playerID, input.TargetPlayerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": roster}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubstituteHandler godoc
// @Summary Заменить игрока на доске до внесения результата
// @Tags players
// @Accept json
// @Produce json
// @Param gameID path int true "Game ID"
// @Param body body services.SubstituteInput true "Цвет и новый игрок"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string "Игрок не из той команды"
// @Router /api/games/{gameID}/players [put]
func (h *PlayerHandler) SubstituteHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := getIDFromURL(r, "gameID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubstituteInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	game, err := h.playerService.SubstituteBoardPlayer(r.Context(), gameID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"game": game}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StatisticsHandler godoc
// @Summary Статистика игрока
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/players/{playerID}/statistics [get]
func (h *PlayerHandler) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stats, err := h.playerService.GetPlayerStatistics(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"statistics": stats}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GamesHandler godoc
// @Summary Партии игрока
// @Tags players
// @Produce json
// @Param playerID path int true "Player ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /api/players/{playerID}/games [get]
func (h *PlayerHandler) GamesHandler(w http.ResponseWriter, r *http.Request) {
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	games, err := h.playerService.ListPlayerGames(r.Context(), playerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if games == nil {
		games = []*models.Game{}
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"games": games}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
