package treasury

import (
	"errors"
	"fmt"
	"sync"
)

// Transferor is the asset-transfer capability the engine calls but does
// not implement. Collect pulls a stake from a principal into custody
// (the transferFrom direction); Payout pushes custodied funds out to a
// recipient. Both must either complete in full or leave balances
// untouched.
type Transferor interface {
	Collect(from, asset string, amount int64) error
	Payout(to, asset string, amount int64) error
}

var (
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientCustody = errors.New("insufficient custody")
	ErrBadAmount           = errors.New("amount must be positive")
)

// Vault is an in-memory Transferor used by tests and by the server in
// development mode. Balances are (address, asset) -> amount; custody is
// the per-asset sum currently held on behalf of the engine.
type Vault struct {
	mu       sync.Mutex
	balances map[string]map[string]int64
	custody  map[string]int64
}

func NewVault() *Vault {
	return &Vault{
		balances: make(map[string]map[string]int64),
		custody:  make(map[string]int64),
	}
}

// Credit adds funds to a principal's balance. Faucet-style helper for
// development and tests.
func (v *Vault) Credit(addr, asset string, amount int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[addr] == nil {
		v.balances[addr] = make(map[string]int64)
	}
	v.balances[addr][asset] += amount
}

func (v *Vault) Balance(addr, asset string) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.balances[addr][asset]
}

// Custody returns the total amount held for the engine in the asset.
func (v *Vault) Custody(asset string) int64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.custody[asset]
}

func (v *Vault) Collect(from, asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrBadAmount, amount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.balances[from][asset] < amount {
		return fmt.Errorf("%w: %s has %d %s, need %d", ErrInsufficientFunds, from, v.balances[from][asset], asset, amount)
	}
	v.balances[from][asset] -= amount
	v.custody[asset] += amount
	return nil
}

func (v *Vault) Payout(to, asset string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrBadAmount, amount)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.custody[asset] < amount {
		return fmt.Errorf("%w: holding %d %s, need %d", ErrInsufficientCustody, v.custody[asset], asset, amount)
	}
	v.custody[asset] -= amount
	if v.balances[to] == nil {
		v.balances[to] = make(map[string]int64)
	}
	v.balances[to][asset] += amount
	return nil
}
