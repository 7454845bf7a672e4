package engine

import (
	"time"

	"github.com/stakeboard/stakeboard/internal/board"
)

type GameStatus string

const (
	StatusActive    GameStatus = "active"
	StatusEnded     GameStatus = "ended"
	StatusForfeited GameStatus = "forfeited"
)

// Game is one wagered match. Stake is fixed at creation and never
// mutated; Second is empty until a principal joins; Winner is empty
// until the game is decided. Once the status leaves Active the record
// is terminal.
type Game struct {
	ID         uint64       `json:"id"`
	First      string       `json:"first"`
	Second     string       `json:"second,omitempty"`
	Stake      int64        `json:"stake"`
	Asset      string       `json:"asset"`
	Board      *board.Board `json:"board"`
	Turn       board.Mark   `json:"turn"`
	Winner     string       `json:"winner,omitempty"`
	Status     GameStatus   `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	LastMoveAt time.Time    `json:"lastMoveAt"`
}

// principalFor maps a board mark to the principal playing it.
func (g *Game) principalFor(m board.Mark) string {
	if m == board.First {
		return g.First
	}
	return g.Second
}

// Challenge is a pending peer invitation. Accepted flips false->true
// exactly once; the challenger's stake is escrowed from creation until
// acceptance, cancellation or expiry reclaim.
type Challenge struct {
	ID         uint64    `json:"id"`
	Challenger string    `json:"challenger"`
	Challenged string    `json:"challenged"`
	Stake      int64     `json:"stake"`
	Asset      string    `json:"asset"`
	BoardSize  int       `json:"boardSize"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	Accepted   bool      `json:"accepted"`
	Cancelled  bool      `json:"cancelled"`
	GameID     uint64    `json:"gameId,omitempty"`
}

// PlayerRecord is the rating record for one registered principal.
// Username is immutable once registered; counters only ever increase;
// Rating never drops below zero.
type PlayerRecord struct {
	Address    string `json:"address"`
	Username   string `json:"username"`
	Rating     int64  `json:"rating"`
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	Draws      int    `json:"draws"`
	TotalGames int    `json:"totalGames"`
}

// LeaderboardEntry is one row of the bounded top-K list. The username
// is a snapshot taken at insert/update time.
type LeaderboardEntry struct {
	Address  string `json:"address"`
	Username string `json:"username"`
	Rating   int64  `json:"rating"`
	Wins     int    `json:"wins"`
}

// RecentWin is one entry of the bounded recent-wins feed.
type RecentWin struct {
	GameID uint64    `json:"gameId"`
	Winner string    `json:"winner"`
	Amount int64     `json:"amount"`
	Asset  string    `json:"asset"`
	WonAt  time.Time `json:"wonAt"`
}

// claimKey addresses one claimable balance. Keying by (game, principal)
// lets draw refunds stay independent per principal.
type claimKey struct {
	GameID uint64
	Addr   string
}
