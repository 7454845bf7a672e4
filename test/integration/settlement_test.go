package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakeboard/stakeboard/internal/auth"
	"github.com/stakeboard/stakeboard/internal/config"
	"github.com/stakeboard/stakeboard/internal/engine"
	"github.com/stakeboard/stakeboard/internal/treasury"
	"github.com/stakeboard/stakeboard/internal/web"
)

// startServer wires the full stack the way cmd/server does and serves
// it from an in-process listener.
func startServer(t *testing.T) (*httptest.Server, *treasury.Vault) {
	t.Helper()

	cfg := &config.Config{
		Engine: config.EngineConfig{
			FeeRateBps:      250,
			TimeoutSeconds:  3600,
			KFactor:         32,
			BaseRating:      1000,
			LeaderboardSize: 100,
			RecentWinsSize:  50,
			FeeRecipient:    "platform-fees",
			SupportedAssets: []string{"native"},
		},
		Auth:        config.AuthConfig{Secret: "integration-secret", TTLMinutes: 60},
		Development: config.DevelopmentConfig{FaucetAmount: 100_000},
	}

	vault := treasury.NewVault()
	hub := web.NewHub()
	go hub.Run()

	eng := engine.New(engine.Params{
		FeeRateBps:      cfg.Engine.FeeRateBps,
		Timeout:         cfg.Engine.Timeout(),
		KFactor:         cfg.Engine.KFactor,
		BaseRating:      cfg.Engine.BaseRating,
		LeaderboardSize: cfg.Engine.LeaderboardSize,
		RecentWinsSize:  cfg.Engine.RecentWinsSize,
		FeeRecipient:    cfg.Engine.FeeRecipient,
		SupportedAssets: cfg.Engine.SupportedAssets,
	}, vault, hub, zerolog.Nop())

	tokens := auth.NewManager(cfg.Auth.Secret, time.Duration(cfg.Auth.TTLMinutes)*time.Minute)
	service := web.NewService(eng, vault, tokens, cfg)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	service.RegisterRoutes(api)
	api.HandleFunc("/ws", service.WebSocketHandler(hub)).Methods("GET")

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, vault
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body interface{}) (*http.Response, []byte) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(c.t, err)
	return resp, out.Bytes()
}

func register(t *testing.T, base, address, username string) *client {
	t.Helper()

	c := &client{t: t, base: base}
	resp, body := c.do("POST", "/api/register", map[string]string{
		"address":  address,
		"username": username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.NotEmpty(t, out.Token)
	c.token = out.Token
	return c
}

// TestWagerSettlementFlow runs a full match over HTTP: register, stake,
// play to a win, claim the pot, and check ratings moved.
func TestWagerSettlementFlow(t *testing.T) {
	srv, vault := startServer(t)
	alice := register(t, srv.URL, "alice", "alice-the-bold")
	bob := register(t, srv.URL, "bob", "bob-the-brave")

	// Alice opens a 3x3 game for 1000 with the center square.
	resp, body := alice.do("POST", "/api/games", map[string]interface{}{
		"stake": 1000, "board_size": 3, "asset": "native", "opening_index": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var game engine.Game
	require.NoError(t, json.Unmarshal(body, &game))
	assert.Equal(t, engine.StatusActive, game.Status)
	assert.Equal(t, "alice", game.First)
	assert.Empty(t, game.Second)
	assert.Equal(t, int64(100_000-1000), vault.Balance("alice", "native"))

	resp, body = bob.do("POST", fmt.Sprintf("/api/games/%d/join", game.ID), map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, int64(2000), vault.Custody("native"))

	// Alice takes the middle row: 4 (opening), 3, 5. Bob blocks badly.
	for _, move := range []struct {
		player *client
		index  int
	}{
		{alice, 3},
		{bob, 8},
		{alice, 5},
	} {
		resp, body = move.player.do("POST", fmt.Sprintf("/api/games/%d/moves", game.ID), map[string]int{"index": move.index})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	}

	resp, body = alice.do("GET", fmt.Sprintf("/api/games/%d", game.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &game))
	assert.Equal(t, engine.StatusEnded, game.Status)
	assert.Equal(t, "alice", game.Winner)

	// Pot 2000, fee 2.5% = 50, winner share 1950. The fee is pushed to
	// the platform account at settlement; the pot waits for a claim.
	assert.Equal(t, int64(50), vault.Balance("platform-fees", "native"))

	resp, body = alice.do("POST", fmt.Sprintf("/api/games/%d/claim", game.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var claimed map[string]int64
	require.NoError(t, json.Unmarshal(body, &claimed))
	assert.Equal(t, int64(1950), claimed["amount"])
	assert.Equal(t, int64(100_000-1000+1950), vault.Balance("alice", "native"))
	assert.Equal(t, int64(0), vault.Custody("native"))

	// Ratings moved off the base in both directions.
	resp, body = alice.do("GET", "/api/players/alice", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var winner engine.PlayerRecord
	require.NoError(t, json.Unmarshal(body, &winner))
	assert.Greater(t, winner.Rating, int64(1000))
	assert.Equal(t, 1, winner.Wins)

	resp, body = bob.do("GET", "/api/players/bob", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loser engine.PlayerRecord
	require.NoError(t, json.Unmarshal(body, &loser))
	assert.Less(t, loser.Rating, int64(1000))
	assert.Equal(t, 1, loser.Losses)

	resp, body = alice.do("GET", "/api/leaderboard", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var board []engine.LeaderboardEntry
	require.NoError(t, json.Unmarshal(body, &board))
	require.Len(t, board, 2)
	assert.Equal(t, "alice", board[0].Address)
}

// TestChallengeFlow exercises the direct handshake: challenge, accept
// with an opening move, then cancel paths.
func TestChallengeFlow(t *testing.T) {
	srv, vault := startServer(t)
	alice := register(t, srv.URL, "alice", "alice-the-bold")
	bob := register(t, srv.URL, "bob", "bob-the-brave")

	resp, body := alice.do("POST", "/api/challenges", map[string]interface{}{
		"challenged": "bob", "stake": 500, "asset": "native", "board_size": 5,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var challenge engine.Challenge
	require.NoError(t, json.Unmarshal(body, &challenge))
	assert.Equal(t, int64(500), vault.Custody("native"))

	resp, body = bob.do("POST", fmt.Sprintf("/api/challenges/%d/accept", challenge.ID), map[string]int{"opening_index": 12})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var game engine.Game
	require.NoError(t, json.Unmarshal(body, &game))
	assert.Equal(t, "bob", game.First)
	assert.Equal(t, "alice", game.Second)
	assert.Equal(t, int64(1000), vault.Custody("native"))

	// A second challenge can still be cancelled for a refund.
	resp, body = alice.do("POST", "/api/challenges", map[string]interface{}{
		"challenged": "bob", "stake": 500, "asset": "native", "board_size": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var second engine.Challenge
	require.NoError(t, json.Unmarshal(body, &second))

	resp, _ = alice.do("POST", fmt.Sprintf("/api/challenges/%d/cancel", second.ID), nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, int64(100_000-500-500), vault.Balance("alice", "native"))
}

// TestHealthEndpoint verifies the unauthenticated surface is reachable.
func TestHealthEndpoint(t *testing.T) {
	srv, _ := startServer(t)

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
}
