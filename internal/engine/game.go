package engine

import (
	"errors"
	"fmt"

	"github.com/stakeboard/stakeboard/internal/board"
)

// mapBoardErr translates board placement failures into the engine's
// caller-visible kinds.
func mapBoardErr(err error) error {
	switch {
	case errors.Is(err, board.ErrOutOfBounds):
		return fmt.Errorf("%w: %v", ErrInvalidMove, err)
	case errors.Is(err, board.ErrCellOccupied):
		return fmt.Errorf("%w: %v", ErrCellOccupied, err)
	case errors.Is(err, board.ErrBadSize):
		return fmt.Errorf("%w: %v", ErrInvalidSize, err)
	}
	return err
}

// CreateGame collects the creator's stake and opens a game with the
// creator's opening mark already placed. The turn then belongs to
// whichever principal joins second.
func (e *Engine) CreateGame(caller string, stake int64, boardSize int, asset string, openingIndex int) (*Game, error) {
	done, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer done()

	if err := e.checkOpen(caller); err != nil {
		return nil, err
	}
	if stake <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStake, stake)
	}
	b, err := board.New(boardSize)
	if err != nil {
		return nil, mapBoardErr(err)
	}
	if !e.assets[asset] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAsset, asset)
	}
	if err := b.Place(openingIndex, board.First); err != nil {
		return nil, mapBoardErr(err)
	}

	// Stake is escrowed before any state is created; a failed collect
	// aborts with no effect.
	if err := e.collectStake(caller, asset, stake); err != nil {
		return nil, err
	}

	now := e.now()
	e.gameCount++
	g := &Game{
		ID:         e.gameCount,
		First:      caller,
		Stake:      stake,
		Asset:      asset,
		Board:      b,
		Turn:       board.Second,
		Status:     StatusActive,
		CreatedAt:  now,
		LastMoveAt: now,
	}
	e.games[g.ID] = g

	e.emit(EventGameCreated, map[string]string{
		"gameId":  u64(g.ID),
		"creator": caller,
		"stake":   i64(stake),
		"asset":   asset,
		"size":    fmt.Sprintf("%d", boardSize),
	})
	e.emit(EventMovePlayed, map[string]string{
		"gameId": u64(g.ID),
		"by":     caller,
		"cell":   fmt.Sprintf("%d", openingIndex),
	})

	return e.snapshot(g), nil
}

// JoinGame collects the joiner's matching stake, seats them as the
// second principal and plays their first mark. Settlement evaluation
// runs after the placement like after every other move.
func (e *Engine) JoinGame(caller string, gameID uint64, index int) (*Game, error) {
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
	if g.Status != StatusActive {
		return nil, fmt.Errorf("%w: game %d is %s", ErrNotActive, gameID, g.Status)
	}
	if g.Second != "" {
		return nil, fmt.Errorf("%w: game %d", ErrAlreadyStarted, gameID)
	}
	if caller == g.First {
		return nil, ErrSelfPlay
	}
	// Validate the placement before touching funds or state.
	if index < 0 || index >= len(g.Board.Cells) {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidMove, index)
	}
	if g.Board.Cells[index] != board.Empty {
		return nil, fmt.Errorf("%w: index %d", ErrCellOccupied, index)
	}

	if err := e.collectStake(caller, g.Asset, g.Stake); err != nil {
		return nil, err
	}

	g.Second = caller
	if err := g.Board.Place(index, board.Second); err != nil {
		// Unreachable: the cell was validated above and the engine is
		// single-writer.
		return nil, mapBoardErr(err)
	}
	g.Turn = board.First
	g.LastMoveAt = e.now()

	e.emit(EventGameJoined, map[string]string{
		"gameId": u64(g.ID),
		"joiner": caller,
	})
	e.emit(EventMovePlayed, map[string]string{
		"gameId": u64(g.ID),
		"by":     caller,
		"cell":   fmt.Sprintf("%d", index),
	})

	if err := e.concludeIfDecided(g); err != nil {
		return nil, err
	}
	return e.snapshot(g), nil
}

// PlayMove places the caller's mark, flips the turn and evaluates for
// a conclusion.
func (e *Engine) PlayMove(caller string, gameID uint64, index int) (*Game, error) {
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
	if g.Status != StatusActive {
		return nil, fmt.Errorf("%w: game %d is %s", ErrNotActive, gameID, g.Status)
	}
	if onTurn := g.principalFor(g.Turn); onTurn == "" || caller != onTurn {
		return nil, fmt.Errorf("%w: game %d", ErrWrongTurn, gameID)
	}
	if err := g.Board.Place(index, g.Turn); err != nil {
		return nil, mapBoardErr(err)
	}
	if g.Turn == board.First {
		g.Turn = board.Second
	} else {
		g.Turn = board.First
	}
	g.LastMoveAt = e.now()

	e.emit(EventMovePlayed, map[string]string{
		"gameId": u64(g.ID),
		"by":     caller,
		"cell":   fmt.Sprintf("%d", index),
	})

	if err := e.concludeIfDecided(g); err != nil {
		return nil, err
	}
	return e.snapshot(g), nil
}

// Resign concludes an active two-player game in favor of the caller's
// opponent. Settlement is identical to a forfeit.
func (e *Engine) Resign(caller string, gameID uint64) (*Game, error) {
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
	var winner string
	switch caller {
	case g.First:
		winner = g.Second
	case g.Second:
		winner = g.First
	default:
		return nil, fmt.Errorf("%w: not a participant of game %d", ErrUnauthorized, gameID)
	}

	g.Status = StatusForfeited
	g.Winner = winner
	e.emit(EventGameResigned, map[string]string{
		"gameId":   u64(g.ID),
		"resigner": caller,
		"winner":   winner,
	})
	if err := e.settleDecisive(g, winner); err != nil {
		return nil, err
	}
	return e.snapshot(g), nil
}

// concludeIfDecided runs the settlement evaluation required after every
// placement. On "in progress" it has no effect; evaluation is pure so
// redundant invocation cannot change the outcome.
func (e *Engine) concludeIfDecided(g *Game) error {
	out := g.Board.Evaluate()
	switch {
	case out.Winner != board.Empty:
		winner := g.principalFor(out.Winner)
		g.Status = StatusEnded
		g.Winner = winner
		e.emit(EventGameWon, map[string]string{
			"gameId": u64(g.ID),
			"winner": winner,
		})
		return e.settleDecisive(g, winner)
	case out.Draw:
		g.Status = StatusEnded
		return e.settleDraw(g)
	}
	return nil
}

// snapshot returns a defensive copy handed to callers.
func (e *Engine) snapshot(g *Game) *Game {
	out := *g
	out.Board = g.Board.Clone()
	return &out
}
