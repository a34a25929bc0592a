package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mcoot/whotscan/internal/api/request"
	"github.com/mcoot/whotscan/internal/api/response"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/services/games"
)

// HandHandler decodes and serves revealed hands
type HandHandler struct {
	games  *games.Service
	logger *slog.Logger
}

// NewHandHandler creates a new hand handler
func NewHandHandler(gameService *games.Service, logger *slog.Logger) *HandHandler {
	return &HandHandler{
		games:  gameService,
		logger: logger.With(slog.String("handler", "hand")),
	}
}

// Decode handles POST /api/v1/games/{id}/players/{index}/hand
func (h *HandHandler) Decode(w http.ResponseWriter, r *http.Request) {
	id, index, err := gameAndIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req request.DecodeHandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid request body"))
		return
	}

	clear0, err := model.ParseWord(req.ClearWord0)
	if err != nil {
		WriteError(w, err)
		return
	}
	clear1, err := model.ParseWord(req.ClearWord1)
	if err != nil {
		WriteError(w, err)
		return
	}

	hand, err := h.games.DecodeHand(r.Context(), id, index, clear0, clear1)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HandFromModel(hand))
}

// Get handles GET /api/v1/games/{id}/players/{index}/hand
func (h *HandHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, index, err := gameAndIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	hand, err := h.games.GetHand(r.Context(), id, index)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HandFromModel(hand))
}

// List handles GET /api/v1/games/{id}/hands
func (h *HandHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	hands, err := h.games.GetHands(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.HandListFromModel(id, hands))
}

// Clear handles DELETE /api/v1/games/{id}/hands, dropping everything cached for the game
func (h *HandHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	if err := h.games.Forget(r.Context(), id); err != nil {
		h.logger.Error("failed to clear game cache", slog.String("game_id", id.Dec()), slog.String("error", err.Error()))
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
