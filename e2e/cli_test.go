package e2e_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/whotscan/internal/api"
	"github.com/mcoot/whotscan/internal/factory"
	"github.com/mcoot/whotscan/internal/model"
	"github.com/mcoot/whotscan/internal/testutil"
)

var (
	alice = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "whotscan-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/whotscan")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer manages a real HTTP server for e2e tests
type testServer struct {
	app      *factory.TestApp
	addr     string
	shutdown func()
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	app := factory.NewTestApp()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	router := api.NewRouter(api.RouterConfig{
		Logger:      logger,
		GameService: app.GameService,
		HubManager:  app.HubManager,
	})
	server := api.NewServer(router, api.DefaultServerConfig(), logger)

	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := "http://" + listener.Addr().String()
	waitForServer(t, serverURL+"/api/v1/health")

	return &testServer{
		app:  app,
		addr: serverURL,
		shutdown: func() {
			app.HubManager.Close()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(ctx)
			app.Close()
		},
	}
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// seedTable stores a started game with two seated players
func (ts *testServer) seedTable() {
	ts.app.SetNextGameID(3)
	ts.app.PutGame(1, testutil.Game{Creator: bob, Status: model.GameStatusEnded})
	ts.app.PutGame(2, testutil.Game{
		Creator:          alice,
		CallCard:         model.NewCard(model.ShapeCircle, 8),
		CurrentTurnIndex: 0,
		Status:           model.GameStatusStarted,
		LastMoveAt:       1_700_000_000,
		SeatOccupancy:    0b11,
		MarketDeckMap:    testutil.DeckMap(8, 10, 11, 12),
		InitialHandSize:  3,
	})
	ts.app.PutPlayer(2, 0, testutil.Player{Address: alice, DeckMap: testutil.DeckMap(8, 0, 1, 2)})
	ts.app.PutPlayer(2, 1, testutil.Player{Address: bob, DeckMap: testutil.DeckMap(8, 3, 4), Score: 1})
	ts.app.PutCommitment(2, uint256.NewInt(0xfeed))
}

// Response types for JSON parsing
type cardResponse struct {
	Shape  string `json:"shape"`
	Number uint8  `json:"number"`
}

type gameResponse struct {
	ID            string        `json:"id"`
	Creator       string        `json:"creator"`
	Status        string        `json:"status"`
	CallCard      *cardResponse `json:"call_card"`
	MarketSize    int           `json:"market_size"`
	PlayersJoined int           `json:"players_joined"`
}

type gameListResponse struct {
	Games []gameResponse `json:"games"`
}

type playerResponse struct {
	Index   int    `json:"index"`
	Address string `json:"address"`
	Empty   bool   `json:"empty"`
	Score   uint16 `json:"score"`
}

type handResponse struct {
	GameID      string         `json:"game_id"`
	PlayerIndex int            `json:"player_index"`
	Cards       []cardResponse `json:"cards"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Contract string `json:"contract"`
}

type eventLine struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, factory.TestContract.Hex(), resp.Contract)
}

func TestCLI_GameCommands(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	ts.seedTable()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("game", "get", "2")
	require.NoError(t, err, "output: %s", output)

	var game gameResponse
	require.NoError(t, json.Unmarshal([]byte(output), &game))
	assert.Equal(t, "2", game.ID)
	assert.Equal(t, "started", game.Status)
	assert.Equal(t, 3, game.MarketSize)
	assert.Equal(t, 2, game.PlayersJoined)
	require.NotNil(t, game.CallCard)
	assert.Equal(t, "circle", game.CallCard.Shape)

	output, err = cli.run("game", "recent", "--limit", "10")
	require.NoError(t, err, "output: %s", output)

	var recent gameListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &recent))
	require.Len(t, recent.Games, 2)
	assert.Equal(t, "2", recent.Games[0].ID)
	assert.Equal(t, "1", recent.Games[1].ID)

	output, err = cli.run("game", "list", "1", "2", "40")
	require.NoError(t, err, "output: %s", output)

	var list gameListResponse
	require.NoError(t, json.Unmarshal([]byte(output), &list))
	assert.Len(t, list.Games, 2)

	output, err = cli.run("game", "get", "40")
	require.Error(t, err)
	assert.Contains(t, output, "GAME_NOT_FOUND")
}

func TestCLI_PlayerAndHandFlow(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	ts.seedTable()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("player", "list", "2")
	require.NoError(t, err, "output: %s", output)

	var players struct {
		Players []playerResponse `json:"players"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &players))
	require.Len(t, players.Players, 2)
	assert.Equal(t, bob.Hex(), players.Players[1].Address)
	assert.Equal(t, uint16(1), players.Players[1].Score)

	w0, w1 := testutil.HandWords(8, map[int]model.Card{
		3: model.NewCard(model.ShapeStar, 2),
		4: model.NewCard(model.ShapeWhot, 20),
	})

	output, err = cli.run("hand", "decode", "2", "1", w0.Hex(), w1.Hex())
	require.NoError(t, err, "output: %s", output)

	var hand handResponse
	require.NoError(t, json.Unmarshal([]byte(output), &hand))
	require.Len(t, hand.Cards, 2)
	assert.Equal(t, "star", hand.Cards[0].Shape)
	assert.Equal(t, "whot", hand.Cards[1].Shape)

	output, err = cli.run("hand", "get", "2", "1")
	require.NoError(t, err, "output: %s", output)

	var stored handResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stored))
	assert.Equal(t, hand.Cards, stored.Cards)

	output, err = cli.run("hand", "get", "2", "0")
	require.Error(t, err)
	assert.Contains(t, output, "HAND_NOT_FOUND")
}

func TestCLI_WatchGame(t *testing.T) {
	ts := startTestServer(t)
	defer ts.shutdown()
	ts.seedTable()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("watch", "2", "--json", "--max-events", "2")
	require.NoError(t, err, "output: %s", output)

	lines := strings.Split(strings.TrimSpace(output), "\n")
	require.Len(t, lines, 2)

	var connected, update eventLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &connected))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &update))
	assert.Equal(t, "connected", connected.Event)
	assert.Equal(t, "game-update", update.Event)

	var game gameResponse
	require.NoError(t, json.Unmarshal([]byte(update.Data), &game))
	assert.Equal(t, "2", game.ID)
}
