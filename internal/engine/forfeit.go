package engine

import (
	"fmt"
	"time"
)

// Forfeit lets the principal who is not on turn claim a forced win once
// the mover has been silent past the configured deadline. The check is
// a wall-clock comparison at call time; nothing fires on its own.
func (e *Engine) Forfeit(caller string, gameID uint64) (*Game, error) {
	done, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer done()

	if err := e.checkOpen(caller); err != nil {
		return nil, err
	}
	g, ok := e.games[gameID]
	if !ok {
		return nil, fmt.Errorf("%w: game %d", ErrNotFound, gameID)
	}
	if g.Status != StatusActive || g.Second == "" {
		return nil, fmt.Errorf("%w: game %d", ErrNotActive, gameID)
	}

	deadline := g.LastMoveAt.Add(e.params.Timeout)
	// now == deadline must still fail; only strictly past it succeeds.
	if !e.now().After(deadline) {
		return nil, fmt.Errorf("%w: deadline %s", ErrTimeoutNotReached, deadline.Format(time.RFC3339))
	}

	onTurn := g.principalFor(g.Turn)
	var eligible string
	if onTurn == g.First {
		eligible = g.Second
	} else {
		eligible = g.First
	}
	if caller != eligible {
		return nil, fmt.Errorf("%w: only %s may forfeit game %d", ErrUnauthorized, eligible, gameID)
	}

	g.Status = StatusForfeited
	g.Winner = caller
	e.emit(EventGameForfeited, map[string]string{
		"gameId":   u64(g.ID),
		"winner":   caller,
		"timedOut": onTurn,
	})
	if err := e.settleDecisive(g, caller); err != nil {
		return nil, err
	}
	return e.snapshot(g), nil
}

// TimeRemaining reports how long the principal on turn still has before
// the game becomes forfeitable. Zero means the deadline has passed.
func (e *Engine) TimeRemaining(gameID uint64) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, ok := e.games[gameID]
	if !ok {
		return 0, fmt.Errorf("%w: game %d", ErrNotFound, gameID)
	}
	if g.Status != StatusActive || g.Second == "" {
		return 0, fmt.Errorf("%w: game %d", ErrNotActive, gameID)
	}
	remaining := g.LastMoveAt.Add(e.params.Timeout).Sub(e.now())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}
