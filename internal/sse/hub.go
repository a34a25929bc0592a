package sse

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/api/response"
	"github.com/mcoot/whotscan/internal/dependencies/clock"
	"github.com/mcoot/whotscan/internal/model"
)

// Event names sent to clients
const (
	EventConnected   = "connected"
	EventGameUpdate  = "game-update"
	EventGameMissing = "game-missing"
	EventReadError   = "read-error"
)

// Source reads the game a hub watches. games.Service satisfies it.
// ReadGame must bypass any snapshot cache so each poll sees chain state.
type Source interface {
	ReadGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error)
	DeckIndices(dm model.DeckMap) []int
	MarketCards(game *model.GameRecord) []model.Card
}

// Hub polls one game and fans its changes out to SSE clients
type Hub struct {
	gameID   uint256.Int
	source   Source
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	// last event sent, replayed to clients that join later
	last []byte

	broadcast chan []byte
	done      chan struct{}
	stopOnce  sync.Once
}

// NewHub creates a new Hub for a game
func NewHub(gameID *uint256.Int, source Source, clk clock.Clock, interval time.Duration, logger *slog.Logger) *Hub {
	return &Hub{
		gameID:    *gameID,
		source:    source,
		clock:     clk,
		interval:  interval,
		logger:    logger.With(slog.String("game_id", gameID.Dec())),
		clients:   make(map[*Client]bool),
		broadcast: make(chan []byte, 16),
		done:      make(chan struct{}),
	}
}

// GameID returns the watched game id in decimal
func (h *Hub) GameID() string {
	return h.gameID.Dec()
}

// Run polls the game every interval until ctx ends or the hub is closed
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("sse hub started", slog.Duration("poll_interval", h.interval))

	ticker := h.clock.NewTicker(h.interval)
	defer ticker.Stop()

	var prev pollState
	prev = h.poll(ctx, prev)

	for {
		select {
		case <-ticker.C():
			prev = h.poll(ctx, prev)

		case message := <-h.broadcast:
			h.send(message)

		case <-ctx.Done():
			h.shutdown()
			return

		case <-h.done:
			h.shutdown()
			return
		}
	}
}

// pollState is what the last poll observed
type pollState struct {
	seen    bool
	missing bool
	game    model.GameRecord
}

// poll reads the game once and broadcasts when the observation changed.
// Read errors are reported on every failed poll.
func (h *Hub) poll(ctx context.Context, prev pollState) pollState {
	snapshot, err := h.source.ReadGame(ctx, &h.gameID)
	switch {
	case errors.Is(err, model.ErrGameNotFound):
		if !prev.seen || !prev.missing {
			h.send(formatSSEMessage(EventGameMissing, `{"game_id":"`+h.GameID()+`"}`))
		}
		return pollState{seen: true, missing: true}

	case err != nil:
		if ctx.Err() != nil {
			return prev
		}
		h.logger.Warn("sse poll failed", slog.String("error", err.Error()))
		data, _ := json.Marshal(map[string]string{"game_id": h.GameID(), "error": err.Error()})
		h.send(formatSSEMessage(EventReadError, string(data)))
		return prev
	}

	if prev.seen && !prev.missing && prev.game == snapshot.Game {
		return prev
	}

	game := response.GameFromModel(&snapshot.ID, &snapshot.Game,
		h.source.DeckIndices(snapshot.Game.MarketDeckMap),
		h.source.MarketCards(&snapshot.Game),
		snapshot.FetchedAt)
	data, err := json.Marshal(game)
	if err != nil {
		h.logger.Error("sse failed to encode game", slog.String("error", err.Error()))
		return prev
	}
	h.send(formatSSEMessage(EventGameUpdate, string(data)))
	return pollState{seen: true, game: snapshot.Game}
}

// send delivers a message to every client without blocking on slow ones
func (h *Hub) send(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.last = message
	dropped := 0
	for client := range h.clients {
		select {
		case client.send <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("sse message dropped - client buffer full", slog.Int("dropped", dropped))
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()
	h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", count))
}

// Register adds a client and replays the latest event to it
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	select {
	case <-h.done:
		close(client.send)
		return
	default:
	}

	h.clients[client] = true
	if h.last != nil {
		client.send <- h.last
	}
	h.logger.Info("sse client registered",
		slog.String("remote_addr", client.remoteAddr),
		slog.Int("total_clients", len(h.clients)))
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	h.logger.Info("sse client unregistered",
		slog.String("remote_addr", client.remoteAddr),
		slog.Duration("connection_duration", h.clock.Since(client.connectedAt)),
		slog.Int("total_clients", len(h.clients)))
}

// BroadcastEvent sends an SSE event with a name and data
func (h *Hub) BroadcastEvent(eventName, data string) {
	select {
	case h.broadcast <- formatSSEMessage(eventName, data):
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.stopOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE message with event name and data.
// Each line of data gets its own "data: " prefix.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, dropping carriage returns
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}

// HubManager owns one polling hub per watched game
type HubManager struct {
	source   Source
	clock    clock.Clock
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc

	hubs   map[uint256.Int]*Hub
	refs   map[*Hub]int
	mu     sync.Mutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(source Source, clk clock.Clock, interval time.Duration, logger *slog.Logger) *HubManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &HubManager{
		source:   source,
		clock:    clk,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		hubs:     make(map[uint256.Int]*Hub),
		refs:     make(map[*Hub]int),
		logger:   logger.With(slog.String("component", "sse")),
	}
}

// Acquire returns the hub for a game, starting its poll loop if needed.
// Every Acquire must be paired with a Release.
func (m *HubManager) Acquire(gameID *uint256.Int) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	hub, ok := m.hubs[*gameID]
	if !ok {
		hub = NewHub(gameID, m.source, m.clock, m.interval, m.logger)
		m.hubs[*gameID] = hub
		go hub.Run(m.ctx)
	}
	m.refs[hub]++
	return hub
}

// Release unregisters client (if any) and stops the hub once nobody holds it
func (m *HubManager) Release(hub *Hub, client *Client) {
	if client != nil {
		hub.Unregister(client)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs[hub]--
	if m.refs[hub] > 0 {
		return
	}
	delete(m.refs, hub)
	if m.hubs[hub.gameID] == hub {
		delete(m.hubs, hub.gameID)
	}
	hub.Close()
	m.logger.Info("sse hub removed", slog.String("game_id", hub.GameID()))
}

// GetHub returns the hub for a game, or nil if nobody is watching it
func (m *HubManager) GetHub(gameID *uint256.Int) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[*gameID]
}

// HubCount returns the number of running hubs
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// Close stops every hub
func (m *HubManager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
	m.refs = make(map[*Hub]int)
}
