package games

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/mcoot/whotscan/internal/dependencies/clock"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/services/decoder"
	"github.com/mcoot/whotscan/internal/services/reader"
	"github.com/mcoot/whotscan/internal/services/slots"
	"github.com/mcoot/whotscan/internal/storage"
)

// Config holds game service settings
type Config struct {
	// Contract is the game contract whose storage is read
	Contract common.Address
	// ChunkSize is the number of game ids read per batch call
	ChunkSize int
	// SnapshotTTL enables the snapshot cache when positive
	SnapshotTTL time.Duration
}

// DefaultConfig returns sensible defaults for the game service
func DefaultConfig() Config {
	return Config{
		ChunkSize: 50,
	}
}

// Service turns game ids into decoded on-chain records
type Service struct {
	cfg     Config
	slots   *slots.Service
	reader  *reader.Reader
	decoder *decoder.Service
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
}

// NewService creates a new game Service. storage may be nil to disable caching.
func NewService(
	cfg Config,
	slotService *slots.Service,
	rd *reader.Reader,
	dec *decoder.Service,
	storage storage.Storage,
	clock clock.Clock,
	logger *slog.Logger,
) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultConfig().ChunkSize
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Service{
		cfg:     cfg,
		slots:   slotService,
		reader:  rd,
		decoder: dec,
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "games")),
	}
}

// Contract returns the contract address the service reads from
func (s *Service) Contract() common.Address {
	return s.cfg.Contract
}

func (s *Service) cacheEnabled() bool {
	return s.storage != nil && s.cfg.SnapshotTTL > 0
}

// NextGameID reads the id the contract will assign to the next created game
func (s *Service) NextGameID(ctx context.Context) (*uint256.Int, error) {
	words, err := s.reader.ReadWords(ctx, s.cfg.Contract, []common.Hash{s.slots.NextGameIDSlot()})
	if err != nil {
		return nil, fmt.Errorf("reading next game id: %w", err)
	}
	return &words[0], nil
}

// GetGame returns one game, served from the snapshot cache while it is fresh
func (s *Service) GetGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error) {
	if s.cacheEnabled() {
		snapshot, err := s.storage.GetGame(ctx, id)
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, model.ErrGameNotFound) {
			s.logger.Warn("snapshot cache read failed",
				slog.String("game_id", id.Dec()),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.ReadGame(ctx, id)
}

// ReadGame always reads the game from chain and refreshes the snapshot cache
func (s *Service) ReadGame(ctx context.Context, id *uint256.Int) (*model.GameSnapshot, error) {
	words, err := s.reader.ReadWords(ctx, s.cfg.Contract, s.slots.GameSlots(id))
	if err != nil {
		return nil, fmt.Errorf("reading game %s: %w", id.Dec(), err)
	}

	game := s.decoder.DecodeGame(&words[0], &words[1])
	if !game.Exists() {
		return nil, model.ErrGameNotFound
	}

	snapshot := &model.GameSnapshot{
		ID:        *id,
		Game:      game,
		FetchedAt: s.clock.Now(),
	}

	if s.cacheEnabled() {
		if err := s.storage.SaveGame(ctx, snapshot); err != nil {
			s.logger.Warn("snapshot cache write failed",
				slog.String("game_id", id.Dec()),
				slog.String("error", err.Error()),
			)
		}
	}

	return snapshot, nil
}

// GetGames reads many games, ChunkSize ids per batch call. Chunks are read
// one after another. Ids without a created game are left out of the result.
func (s *Service) GetGames(ctx context.Context, ids []*uint256.Int) (map[uint256.Int]model.GameRecord, error) {
	unique := dedupe(ids)
	result := make(map[uint256.Int]model.GameRecord, len(unique))
	words := s.decoder.Layout().GameWordCount

	for start := 0; start < len(unique); start += s.cfg.ChunkSize {
		end := min(start+s.cfg.ChunkSize, len(unique))
		chunk := unique[start:end]

		keys := make([]common.Hash, 0, len(chunk)*words)
		for _, id := range chunk {
			keys = append(keys, s.slots.GameSlots(id)...)
		}

		values, err := s.reader.ReadWords(ctx, s.cfg.Contract, keys)
		if err != nil {
			return nil, fmt.Errorf("reading games %s..%s: %w", chunk[0].Dec(), chunk[len(chunk)-1].Dec(), err)
		}

		for i, id := range chunk {
			game := s.decoder.DecodeGame(&values[i*words], &values[i*words+1])
			if game.Exists() {
				result[*id] = game
			}
		}
	}

	s.logger.Debug("games scanned",
		slog.Int("requested", len(unique)),
		slog.Int("found", len(result)),
	)

	return result, nil
}

// RecentGames returns up to limit of the newest games, newest first
func (s *Service) RecentGames(ctx context.Context, limit int) ([]model.GameSnapshot, error) {
	if limit <= 0 {
		return []model.GameSnapshot{}, nil
	}

	next, err := s.NextGameID(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]*uint256.Int, 0, limit)
	id := new(uint256.Int).Set(next)
	for len(ids) < limit && !id.IsZero() {
		id = new(uint256.Int).SubUint64(id, 1)
		ids = append(ids, id)
	}

	games, err := s.GetGames(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	snapshots := make([]model.GameSnapshot, 0, len(games))
	for id, game := range games {
		snapshots = append(snapshots, model.GameSnapshot{ID: id, Game: game, FetchedAt: now})
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[j].ID.Lt(&snapshots[i].ID)
	})
	return snapshots, nil
}

// GetPlayers reads every seat of a game in one contiguous range read
func (s *Service) GetPlayers(ctx context.Context, id *uint256.Int) ([]model.PlayerRecord, error) {
	snapshot, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	count := snapshot.Game.MaxPlayers
	if count == 0 {
		return []model.PlayerRecord{}, nil
	}

	stride := s.decoder.Layout().PlayerWordCount
	words, err := s.reader.ReadRange(ctx, s.cfg.Contract, s.slots.PlayerBase(id, 0), count*stride)
	if err != nil {
		return nil, fmt.Errorf("reading players of game %s: %w", id.Dec(), err)
	}

	players := make([]model.PlayerRecord, count)
	for i := range players {
		w := words[i*stride:]
		players[i] = s.decoder.DecodePlayer(i, &w[0], &w[1], &w[2])
	}
	return players, nil
}

// GetPlayer reads a single seat. Indexes past the end decode as an empty record.
func (s *Service) GetPlayer(ctx context.Context, id *uint256.Int, index int) (*model.PlayerRecord, error) {
	if index < 0 {
		return nil, model.ErrInvalidPlayerIndex
	}

	words, err := s.reader.ReadWords(ctx, s.cfg.Contract, s.slots.PlayerSlots(id, index))
	if err != nil {
		return nil, fmt.Errorf("reading player %d of game %s: %w", index, id.Dec(), err)
	}

	player := s.decoder.DecodePlayer(index, &words[0], &words[1], &words[2])
	return &player, nil
}

// GetCommitment reads the move commitment slot of a game
func (s *Service) GetCommitment(ctx context.Context, id *uint256.Int) (*model.Commitment, error) {
	words, err := s.reader.ReadWords(ctx, s.cfg.Contract, []common.Hash{s.slots.CommitmentBase(id)})
	if err != nil {
		return nil, fmt.Errorf("reading commitment of game %s: %w", id.Dec(), err)
	}

	commitment := s.decoder.DecodeCommitment(&words[0])
	return &commitment, nil
}

// DecodeHand maps decrypted hand words onto cards using the player's current
// deck map, and keeps the result as the player's revealed hand
func (s *Service) DecodeHand(ctx context.Context, id *uint256.Int, index int, clear0, clear1 *uint256.Int) (*model.Hand, error) {
	player, err := s.GetPlayer(ctx, id, index)
	if err != nil {
		return nil, err
	}

	hand := &model.Hand{
		GameID:      *id,
		PlayerIndex: index,
		Cards:       s.decoder.DecodeHandCards(player.DeckMap, clear0, clear1),
		RevealedAt:  s.clock.Now(),
	}

	if s.storage != nil {
		if err := s.storage.SaveHand(ctx, hand); err != nil {
			return nil, fmt.Errorf("saving hand: %w", err)
		}
	}

	s.logger.Info("hand decoded",
		slog.String("game_id", id.Dec()),
		slog.Int("player_index", index),
		slog.Int("cards", len(hand.Cards)),
	)

	return hand, nil
}

// GetHand returns a previously revealed hand
func (s *Service) GetHand(ctx context.Context, id *uint256.Int, index int) (*model.Hand, error) {
	if s.storage == nil {
		return nil, model.ErrHandNotFound
	}
	return s.storage.GetHand(ctx, id, index)
}

// GetHands returns every revealed hand of a game, ordered by seat
func (s *Service) GetHands(ctx context.Context, id *uint256.Int) ([]*model.Hand, error) {
	if s.storage == nil {
		return []*model.Hand{}, nil
	}
	return s.storage.GetHandsForGame(ctx, id)
}

// Forget drops the cached snapshot and every revealed hand of a game
func (s *Service) Forget(ctx context.Context, id *uint256.Int) error {
	if s.storage == nil {
		return nil
	}
	if err := s.storage.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("deleting snapshot of game %s: %w", id.Dec(), err)
	}
	if err := s.storage.DeleteHandsForGame(ctx, id); err != nil {
		return fmt.Errorf("deleting hands of game %s: %w", id.Dec(), err)
	}

	s.logger.Info("game cache cleared", slog.String("game_id", id.Dec()))
	return nil
}

// MarketCards returns the cards currently in a game's market
func (s *Service) MarketCards(game *model.GameRecord) []model.Card {
	return s.decoder.MarketCards(game.MarketDeckMap)
}

// DeckIndices returns the set positions of a deck map within the reference deck
func (s *Service) DeckIndices(dm model.DeckMap) []int {
	return s.decoder.Indices(dm, s.decoder.Layout().ReferenceDeckSize)
}

func dedupe(ids []*uint256.Int) []*uint256.Int {
	seen := make(map[uint256.Int]struct{}, len(ids))
	out := make([]*uint256.Int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[*id]; ok {
			continue
		}
		seen[*id] = struct{}{}
		out = append(out, id)
	}
	return out
}
