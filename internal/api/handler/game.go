package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/api/response"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/services/games"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
	maxBatchIDs        = 1000
)

// GameHandler handles game, player and commitment reads
type GameHandler struct {
	games *games.Service
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService *games.Service) *GameHandler {
	return &GameHandler{games: gameService}
}

// NextID handles GET /api/v1/games/next-id
func (h *GameHandler) NextID(w http.ResponseWriter, r *http.Request) {
	next, err := h.games.NextGameID(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.NextGameIDFromValue(next))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	snapshot, err := h.games.GetGame(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.gameResponse(&snapshot.ID, &snapshot.Game, snapshot.FetchedAt))
}

// List handles GET /api/v1/games?ids=1,2,3
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if raw == "" {
		WriteError(w, NewInvalidRequestError("ids query parameter is required"))
		return
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxBatchIDs {
		WriteError(w, NewInvalidRequestError("too many ids, at most "+strconv.Itoa(maxBatchIDs)))
		return
	}

	ids := make([]*uint256.Int, 0, len(parts))
	for _, p := range parts {
		id, err := model.ParseGameID(p)
		if err != nil {
			WriteError(w, err)
			return
		}
		ids = append(ids, id)
	}

	found, err := h.games.GetGames(r.Context(), ids)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Keep the caller's order, once per id
	list := response.GameList{Games: make([]response.Game, 0, len(found))}
	for _, id := range ids {
		game, ok := found[*id]
		if !ok {
			continue
		}
		delete(found, *id)
		list.Games = append(list.Games, h.gameResponse(id, &game, time.Time{}))
	}

	response.JSON(w, http.StatusOK, list)
}

// Recent handles GET /api/v1/games/recent?limit=N
func (h *GameHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and "+strconv.Itoa(maxRecentLimit)))
			return
		}
		limit = n
	}

	recent, err := h.games.RecentGames(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	list := response.GameList{Games: make([]response.Game, len(recent))}
	for i := range recent {
		list.Games[i] = h.gameResponse(&recent[i].ID, &recent[i].Game, recent[i].FetchedAt)
	}
	response.JSON(w, http.StatusOK, list)
}

// Players handles GET /api/v1/games/{id}/players
func (h *GameHandler) Players(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	players, err := h.games.GetPlayers(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	list := response.PlayerList{GameID: id.Dec(), Players: make([]response.Player, len(players))}
	for i := range players {
		list.Players[i] = response.PlayerFromModel(&players[i], h.games.DeckIndices(players[i].DeckMap))
	}
	response.JSON(w, http.StatusOK, list)
}

// Player handles GET /api/v1/games/{id}/players/{index}
func (h *GameHandler) Player(w http.ResponseWriter, r *http.Request) {
	id, index, err := gameAndIndex(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	player, err := h.games.GetPlayer(r.Context(), id, index)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.PlayerFromModel(player, h.games.DeckIndices(player.DeckMap)))
}

// Commitment handles GET /api/v1/games/{id}/commitment
func (h *GameHandler) Commitment(w http.ResponseWriter, r *http.Request) {
	id, err := gameID(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	commitment, err := h.games.GetCommitment(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.CommitmentFromModel(id, commitment))
}

// Health handles GET /api/v1/health
func (h *GameHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{
		Status:   "ok",
		Contract: h.games.Contract().Hex(),
	})
}

func (h *GameHandler) gameResponse(id *uint256.Int, g *model.GameRecord, fetchedAt time.Time) response.Game {
	return response.GameFromModel(id, g, h.games.DeckIndices(g.MarketDeckMap), h.games.MarketCards(g), fetchedAt)
}

func gameID(r *http.Request) (*uint256.Int, error) {
	return model.ParseGameID(mux.Vars(r)["id"])
}

func gameAndIndex(r *http.Request) (*uint256.Int, int, error) {
	id, err := gameID(r)
	if err != nil {
		return nil, 0, err
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil || index < 0 {
		return nil, 0, model.ErrInvalidPlayerIndex
	}
	return id, index, nil
}
