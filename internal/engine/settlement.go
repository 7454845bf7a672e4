package engine

import (
	"fmt"
)

// feeFor computes the platform cut of a pot. Integer division truncates
// toward zero; winnerShare + fee == pot always.
func feeFor(pot, feeRateBps int64) int64 {
	return pot * feeRateBps / 10000
}

// settleDecisive records the payout for a won or forfeited game. The
// winner's share becomes a claimable balance; the fee is pushed to the
// platform recipient as the final effect, after every piece of game,
// rating and ledger state has reached its terminal value.
func (e *Engine) settleDecisive(g *Game, winner string) error {
	pot := 2 * g.Stake
	fee := feeFor(pot, e.params.FeeRateBps)
	share := pot - fee

	e.claimables[claimKey{GameID: g.ID, Addr: winner}] = share

	loser := g.First
	if winner == g.First {
		loser = g.Second
	}
	e.applyDecisiveRating(winner, loser)
	e.recordRecentWin(g, winner, share)

	e.log.Info().
		Uint64("gameId", g.ID).
		Str("winner", winner).
		Int64("pot", pot).
		Int64("fee", fee).
		Int64("winnerShare", share).
		Msg("game settled")

	if fee == 0 {
		return nil
	}
	// The one push transfer in the engine. State is final at this
	// point, so a reentrant callback from the recipient observes a
	// fully settled game and is rejected by the busy latch anyway.
	if err := e.payout(e.params.FeeRecipient, g.Asset, fee); err != nil {
		// The pot is already in custody, so a failed push indicates a
		// broken treasury. Fall back to a claimable entry for the fee
		// recipient rather than destroying value; the caller's move
		// stays settled.
		e.claimables[claimKey{GameID: g.ID, Addr: e.params.FeeRecipient}] = fee
		e.log.Error().Err(err).Uint64("gameId", g.ID).Int64("fee", fee).
			Msg("fee push failed, fee left claimable")
	}
	return nil
}

// settleDraw refunds each principal their own stake as independent
// claimable entries. No fee is taken and ratings are untouched.
func (e *Engine) settleDraw(g *Game) error {
	e.claimables[claimKey{GameID: g.ID, Addr: g.First}] = g.Stake
	e.claimables[claimKey{GameID: g.ID, Addr: g.Second}] = g.Stake

	for _, addr := range []string{g.First, g.Second} {
		if rec, ok := e.players[addr]; ok {
			rec.Draws++
			rec.TotalGames++
		}
	}

	e.emit(EventGameDrawn, map[string]string{
		"gameId": u64(g.ID),
		"refund": i64(g.Stake),
	})
	e.log.Info().Uint64("gameId", g.ID).Int64("refund", g.Stake).Msg("draw settled")
	return nil
}

// Claim pays out the caller's claimable balance for a game. The balance
// is zeroed strictly before the external transfer so a reentrant claim
// during the transfer observes nothing to claim; on transfer failure
// the whole claim reverts atomically, balance included.
func (e *Engine) Claim(caller string, gameID uint64) (int64, error) {
	done, err := e.enter()
	if err != nil {
		return 0, err
	}
	defer done()

	if e.paused {
		return 0, ErrPaused
	}
	if caller == "" {
		return 0, ErrInvalidAddress
	}
	g, ok := e.games[gameID]
	if !ok {
		return 0, fmt.Errorf("%w: game %d", ErrNotFound, gameID)
	}

	key := claimKey{GameID: gameID, Addr: caller}
	amount := e.claimables[key]
	if amount == 0 {
		return 0, fmt.Errorf("%w: game %d, %s", ErrNothingToClaim, gameID, caller)
	}

	delete(e.claimables, key)
	if err := e.payout(caller, g.Asset, amount); err != nil {
		e.claimables[key] = amount
		return 0, err
	}

	e.emit(EventRewardClaimed, map[string]string{
		"gameId": u64(gameID),
		"by":     caller,
		"amount": i64(amount),
		"asset":  g.Asset,
	})
	return amount, nil
}
