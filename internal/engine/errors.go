package engine

import "errors"

// Every rejected precondition surfaces a distinct kind so callers and
// off-system tooling can tell causes apart. Handlers match with
// errors.Is; wrapping adds context without changing the kind.
var (
	// validation
	ErrInvalidStake     = errors.New("invalid stake")
	ErrInvalidSize      = errors.New("invalid board size")
	ErrUnsupportedAsset = errors.New("unsupported asset")
	ErrInvalidMove      = errors.New("invalid move")
	ErrCellOccupied     = errors.New("cell occupied")
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidUsername  = errors.New("invalid username")

	// authorization
	ErrWrongTurn     = errors.New("not your turn")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrSelfPlay      = errors.New("cannot play against yourself")
	ErrSelfChallenge = errors.New("cannot challenge yourself")

	// state
	ErrNotFound           = errors.New("not found")
	ErrNotActive          = errors.New("game not active")
	ErrAlreadyStarted     = errors.New("game already has two players")
	ErrTimeoutNotReached  = errors.New("timeout not reached")
	ErrNothingToClaim     = errors.New("nothing to claim")
	ErrAlreadyAccepted    = errors.New("challenge already accepted")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrChallengeCancelled = errors.New("challenge cancelled")
	ErrNotRegistered      = errors.New("principal not registered")
	ErrAlreadyRegistered  = errors.New("principal already registered")
	ErrUsernameTaken      = errors.New("username taken")
	ErrPaused             = errors.New("engine paused")
	ErrReentrantCall      = errors.New("reentrant call rejected")

	// transfer
	ErrTransferFailed = errors.New("transfer failed")
)
