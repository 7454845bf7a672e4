package engine

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/stakeboard/stakeboard/internal/treasury"
)

const (
	assetNative = "native"
	assetGold   = "token:gold"
	feeAccount  = "platform-fees"
)

// testClock lets tests move wall-clock time explicitly.
type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Unix(1_700_000_000, 0).UTC()}
}

func (c *testClock) Now() time.Time            { return c.current }
func (c *testClock) Advance(d time.Duration)   { c.current = c.current.Add(d) }
func (c *testClock) Set(t time.Time)           { c.current = t }

func testParams() Params {
	return Params{
		FeeRateBps:      500, // 5%
		Timeout:         time.Hour,
		KFactor:         32,
		BaseRating:      1000,
		LeaderboardSize: 3,
		RecentWinsSize:  2,
		FeeRecipient:    feeAccount,
		SupportedAssets: []string{assetNative, assetGold},
	}
}

// newTestEngine returns an engine over an in-memory vault with four
// funded, registered principals and a controllable clock.
func newTestEngine(t *testing.T) (*Engine, *treasury.Vault, *testClock) {
	t.Helper()
	vault := treasury.NewVault()
	e := New(testParams(), vault, nil, zerolog.Nop())
	clk := newTestClock()
	e.now = clk.Now

	for _, addr := range []string{"alice", "bob", "carol", "dave"} {
		vault.Credit(addr, assetNative, 1_000_000)
		vault.Credit(addr, assetGold, 1_000_000)
		if _, err := e.RegisterPlayer(addr, "user-"+addr); err != nil {
			t.Fatalf("register %s: %v", addr, err)
		}
	}
	return e, vault, clk
}

// playMoves applies alternating moves, failing the test on any error.
func playMoves(t *testing.T, e *Engine, gameID uint64, moves []struct {
	addr string
	cell int
}) {
	t.Helper()
	for _, mv := range moves {
		if _, err := e.PlayMove(mv.addr, gameID, mv.cell); err != nil {
			t.Fatalf("move %s at %d: %v", mv.addr, mv.cell, err)
		}
	}
}
