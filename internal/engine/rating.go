package engine

import "sort"

// ratingDelta is the bounded linear adjustment applied to both sides of
// a decisive game. The winner's gain grows with how far below the loser
// they were rated (upset bonus), is never below 1 and never exceeds the
// K-factor.
func ratingDelta(winnerRating, loserRating, kFactor int64) int64 {
	delta := kFactor/2 + (loserRating-winnerRating)/8
	if delta < 1 {
		delta = 1
	}
	if delta > kFactor {
		delta = kFactor
	}
	return delta
}

// applyDecisiveRating adjusts both principals after a win or forfeit.
// Draws never reach here. The loser's rating is floored at zero.
func (e *Engine) applyDecisiveRating(winner, loser string) {
	wr, wok := e.players[winner]
	lr, lok := e.players[loser]
	if !wok || !lok {
		return
	}

	delta := ratingDelta(wr.Rating, lr.Rating, e.params.KFactor)
	wr.Rating += delta
	lr.Rating -= delta
	if lr.Rating < 0 {
		lr.Rating = 0
	}
	wr.Wins++
	wr.TotalGames++
	lr.Losses++
	lr.TotalGames++

	e.updateLeaderboard(wr)
	e.updateLeaderboard(lr)

	e.emit(EventRatingUpdated, map[string]string{
		"winner":       winner,
		"loser":        loser,
		"delta":        i64(delta),
		"winnerRating": i64(wr.Rating),
		"loserRating":  i64(lr.Rating),
	})
}

// updateLeaderboard keeps the bounded top-K list consistent with a
// changed rating record. Present entries are updated in place and the
// list re-sorted; absent principals are inserted only when they beat
// the lowest entry or the list still has room, evicting the lowest on
// overflow. O(K) scans are fine: K is small and fixed.
func (e *Engine) updateLeaderboard(rec *PlayerRecord) {
	if e.leaderboardSeen[rec.Address] {
		for i := range e.leaderboard {
			if e.leaderboard[i].Address == rec.Address {
				e.leaderboard[i].Rating = rec.Rating
				e.leaderboard[i].Wins = rec.Wins
				break
			}
		}
		e.sortLeaderboard()
		return
	}

	k := e.params.LeaderboardSize
	if len(e.leaderboard) >= k && rec.Rating <= e.leaderboard[len(e.leaderboard)-1].Rating {
		return
	}
	e.leaderboard = append(e.leaderboard, LeaderboardEntry{
		Address:  rec.Address,
		Username: rec.Username,
		Rating:   rec.Rating,
		Wins:     rec.Wins,
	})
	e.leaderboardSeen[rec.Address] = true
	e.sortLeaderboard()
	if len(e.leaderboard) > k {
		evicted := e.leaderboard[len(e.leaderboard)-1]
		delete(e.leaderboardSeen, evicted.Address)
		e.leaderboard = e.leaderboard[:k]
	}
}

// sortLeaderboard orders by rating descending; stable sort keeps
// insertion order between equal ratings.
func (e *Engine) sortLeaderboard() {
	sort.SliceStable(e.leaderboard, func(i, j int) bool {
		return e.leaderboard[i].Rating > e.leaderboard[j].Rating
	})
}

// recordRecentWin appends to the bounded feed, evicting the oldest
// entry first.
func (e *Engine) recordRecentWin(g *Game, winner string, amount int64) {
	win := RecentWin{
		GameID: g.ID,
		Winner: winner,
		Amount: amount,
		Asset:  g.Asset,
		WonAt:  e.now(),
	}
	if e.params.RecentWinsSize > 0 && len(e.recentWins) >= e.params.RecentWinsSize {
		e.recentWins = e.recentWins[1:]
	}
	e.recentWins = append(e.recentWins, win)
}
