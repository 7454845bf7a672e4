package engine

import (
	"fmt"

	"github.com/stakeboard/stakeboard/internal/board"
)

// CreateChallenge records a pending peer invitation and escrows the
// challenger's stake immediately. The escrow is held until acceptance
// or cancellation; unaccepted challenges expire after the configured
// timeout so funds can always be reclaimed.
func (e *Engine) CreateChallenge(challenger, challenged string, stake int64, asset string, boardSize int) (*Challenge, error) {
	done, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer done()

	if err := e.checkOpen(challenger); err != nil {
		return nil, err
	}
	if challenged == "" {
		return nil, ErrInvalidAddress
	}
	if challenged == challenger {
		return nil, ErrSelfChallenge
	}
	if _, ok := e.players[challenged]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, challenged)
	}
	if stake <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStake, stake)
	}
	if !e.assets[asset] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAsset, asset)
	}
	if _, err := board.New(boardSize); err != nil {
		return nil, mapBoardErr(err)
	}

	if err := e.collectStake(challenger, asset, stake); err != nil {
		return nil, err
	}

	now := e.now()
	e.challengeCount++
	c := &Challenge{
		ID:         e.challengeCount,
		Challenger: challenger,
		Challenged: challenged,
		Stake:      stake,
		Asset:      asset,
		BoardSize:  boardSize,
		CreatedAt:  now,
		ExpiresAt:  now.Add(e.params.Timeout),
	}
	e.challenges[c.ID] = c

	e.emit(EventChallengeCreated, map[string]string{
		"challengeId": u64(c.ID),
		"challenger":  challenger,
		"challenged":  challenged,
		"stake":       i64(stake),
		"asset":       asset,
	})
	out := *c
	return &out, nil
}

// AcceptChallenge escrows the challenged principal's matching stake and
// atomically instantiates the game. The acceptor plays the opening
// mark, so they take the first seat and the challenger moves next.
func (e *Engine) AcceptChallenge(caller string, challengeID uint64, openingIndex int) (*Game, error) {
	done, err := e.enter()
	if err != nil {
		return nil, err
	}
	defer done()

	if err := e.checkOpen(caller); err != nil {
		return nil, err
	}
	c, ok := e.challenges[challengeID]
	if !ok {
		return nil, fmt.Errorf("%w: challenge %d", ErrNotFound, challengeID)
	}
	if c.Cancelled {
		return nil, fmt.Errorf("%w: challenge %d", ErrChallengeCancelled, challengeID)
	}
	if c.Accepted {
		return nil, fmt.Errorf("%w: challenge %d", ErrAlreadyAccepted, challengeID)
	}
	if caller != c.Challenged {
		return nil, fmt.Errorf("%w: challenge %d is addressed to %s", ErrUnauthorized, challengeID, c.Challenged)
	}
	if e.now().After(c.ExpiresAt) {
		return nil, fmt.Errorf("%w: challenge %d", ErrChallengeExpired, challengeID)
	}
	b, err := board.New(c.BoardSize)
	if err != nil {
		return nil, mapBoardErr(err)
	}
	if err := b.Place(openingIndex, board.First); err != nil {
		return nil, mapBoardErr(err)
	}

	if err := e.collectStake(caller, c.Asset, c.Stake); err != nil {
		return nil, err
	}

	now := e.now()
	e.gameCount++
	g := &Game{
		ID:         e.gameCount,
		First:      caller,
		Second:     c.Challenger,
		Stake:      c.Stake,
		Asset:      c.Asset,
		Board:      b,
		Turn:       board.Second,
		Status:     StatusActive,
		CreatedAt:  now,
		LastMoveAt: now,
	}
	e.games[g.ID] = g
	c.Accepted = true
	c.GameID = g.ID

	e.emit(EventChallengeAccepted, map[string]string{
		"challengeId": u64(c.ID),
		"gameId":      u64(g.ID),
		"by":          caller,
	})
	e.emit(EventGameCreated, map[string]string{
		"gameId":  u64(g.ID),
		"creator": caller,
		"stake":   i64(g.Stake),
		"asset":   g.Asset,
		"size":    fmt.Sprintf("%d", c.BoardSize),
	})
	e.emit(EventMovePlayed, map[string]string{
		"gameId": u64(g.ID),
		"by":     caller,
		"cell":   fmt.Sprintf("%d", openingIndex),
	})

	return e.snapshot(g), nil
}

// CancelChallenge lets the challenger reclaim an unaccepted escrow.
func (e *Engine) CancelChallenge(caller string, challengeID uint64) error {
	done, err := e.enter()
	if err != nil {
		return err
	}
	defer done()

	if err := e.checkOpen(caller); err != nil {
		return err
	}
	c, ok := e.challenges[challengeID]
	if !ok {
		return fmt.Errorf("%w: challenge %d", ErrNotFound, challengeID)
	}
	if c.Accepted {
		return fmt.Errorf("%w: challenge %d", ErrAlreadyAccepted, challengeID)
	}
	if c.Cancelled {
		return fmt.Errorf("%w: challenge %d", ErrChallengeCancelled, challengeID)
	}
	if caller != c.Challenger {
		return fmt.Errorf("%w: only %s may cancel challenge %d", ErrUnauthorized, c.Challenger, challengeID)
	}

	c.Cancelled = true
	if err := e.payout(c.Challenger, c.Asset, c.Stake); err != nil {
		c.Cancelled = false
		return err
	}

	e.emit(EventChallengeCancelled, map[string]string{
		"challengeId": u64(c.ID),
		"refund":      i64(c.Stake),
	})
	return nil
}
