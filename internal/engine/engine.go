package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stakeboard/stakeboard/internal/treasury"
)

// Params is the read-only administrative configuration the engine
// consumes. Ranges are validated by the config loader.
type Params struct {
	FeeRateBps      int64         // 0..1000 (0-10%)
	Timeout         time.Duration // 1s..7d, move deadline and challenge expiry
	KFactor         int64         // 1..1000, max rating adjustment per game
	BaseRating      int64         // rating assigned at registration
	LeaderboardSize int           // K, maximum leaderboard entries
	RecentWinsSize  int           // recent-wins ring capacity
	FeeRecipient    string        // platform fee address
	SupportedAssets []string
}

// Engine is the single-writer settlement engine. All entry points
// serialize on one mutex: an admitted operation runs to completion or
// fails with no effect. External transfers happen through interact(),
// which keeps the busy latch up so a transfer callback re-entering any
// entry point is rejected rather than admitted mid-transaction.
type Engine struct {
	mu     sync.Mutex
	busy   bool
	paused bool

	params   Params
	assets   map[string]bool
	treasury treasury.Transferor
	emitter  Emitter
	log      zerolog.Logger
	now      func() time.Time

	games           map[uint64]*Game
	gameCount       uint64
	challenges      map[uint64]*Challenge
	challengeCount  uint64
	players         map[string]*PlayerRecord
	usernames       map[string]string // username -> address
	claimables      map[claimKey]int64
	leaderboard     []LeaderboardEntry
	leaderboardSeen map[string]bool
	recentWins      []RecentWin
}

func New(params Params, tr treasury.Transferor, emitter Emitter, logger zerolog.Logger) *Engine {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	assets := make(map[string]bool, len(params.SupportedAssets))
	for _, a := range params.SupportedAssets {
		assets[a] = true
	}
	return &Engine{
		params:          params,
		assets:          assets,
		treasury:        tr,
		emitter:         emitter,
		log:             logger,
		now:             time.Now,
		games:           make(map[uint64]*Game),
		challenges:      make(map[uint64]*Challenge),
		players:         make(map[string]*PlayerRecord),
		usernames:       make(map[string]string),
		claimables:      make(map[claimKey]int64),
		leaderboardSeen: make(map[string]bool),
	}
}

// enter admits one entry point: it takes the engine lock and rejects
// nested re-entry while an external interaction is in flight. The
// returned func releases the lock.
func (e *Engine) enter() (func(), error) {
	e.mu.Lock()
	if e.busy {
		e.mu.Unlock()
		return nil, ErrReentrantCall
	}
	return e.mu.Unlock, nil
}

// interact performs an external asset transfer while holding the busy
// latch. The lock is released for the duration of the call so that a
// malicious transferor blocking forever cannot wedge readers, but any
// attempt to re-enter a protected operation observes busy=true and
// fails. All internal state must be final before calling this.
func (e *Engine) interact(call func() error) error {
	e.busy = true
	e.mu.Unlock()
	err := call()
	e.mu.Lock()
	e.busy = false
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// collectStake escrows a principal's stake. No engine state may have
// been mutated yet when this is called: a failed collect aborts the
// whole operation with nothing to roll back.
func (e *Engine) collectStake(from, asset string, amount int64) error {
	return e.interact(func() error {
		return e.treasury.Collect(from, asset, amount)
	})
}

func (e *Engine) payout(to, asset string, amount int64) error {
	return e.interact(func() error {
		return e.treasury.Payout(to, asset, amount)
	})
}

// checkOpen gates every mutating entry point on the pause flag and the
// caller's registration.
func (e *Engine) checkOpen(caller string) error {
	if e.paused {
		return ErrPaused
	}
	if caller == "" {
		return ErrInvalidAddress
	}
	if _, ok := e.players[caller]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, caller)
	}
	return nil
}

// SetPaused flips the pause gate. Consumed by ops tooling; a paused
// engine rejects every mutating entry point with ErrPaused while the
// read-only surface stays available.
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = paused
	e.log.Info().Bool("paused", paused).Msg("pause gate changed")
}

// RegisterPlayer creates the rating record for a new principal.
// Usernames are unique and immutable once set.
func (e *Engine) RegisterPlayer(addr, username string) (*PlayerRecord, error) {
	done, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer done()

	if e.paused {
		return nil, ErrPaused
	}
	if addr == "" {
		return nil, ErrInvalidAddress
	}
	if username == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidUsername)
	}
	if _, ok := e.players[addr]; ok {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, addr)
	}
	if _, ok := e.usernames[username]; ok {
		return nil, fmt.Errorf("%w: %s", ErrUsernameTaken, username)
	}

	rec := &PlayerRecord{
		Address:  addr,
		Username: username,
		Rating:   e.params.BaseRating,
	}
	e.players[addr] = rec
	e.usernames[username] = addr
	e.emit(EventPlayerRegistered, map[string]string{
		"address":  addr,
		"username": username,
	})
	out := *rec
	return &out, nil
}

// ---------- read-only surface ----------

func (e *Engine) GetGame(id uint64) (*Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, ok := e.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: game %d", ErrNotFound, id)
	}
	out := *g
	out.Board = g.Board.Clone()
	return &out, nil
}

func (e *Engine) GetChallenge(id uint64) (*Challenge, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.challenges[id]
	if !ok {
		return nil, fmt.Errorf("%w: challenge %d", ErrNotFound, id)
	}
	out := *c
	return &out, nil
}

func (e *Engine) GetPlayer(addr string) (*PlayerRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.players[addr]
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, addr)
	}
	out := *rec
	return &out, nil
}

// Claimable returns the outstanding claimable balance a principal holds
// for a game. Zero means nothing to claim.
func (e *Engine) Claimable(gameID uint64, addr string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.claimables[claimKey{GameID: gameID, Addr: addr}]
}

// Leaderboard returns a copy of the current top-K list, rating
// descending.
func (e *Engine) Leaderboard() []LeaderboardEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]LeaderboardEntry, len(e.leaderboard))
	copy(out, e.leaderboard)
	return out
}

// RecentWins returns a copy of the recent-wins feed, oldest first.
func (e *Engine) RecentWins() []RecentWin {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RecentWin, len(e.recentWins))
	copy(out, e.recentWins)
	return out
}
