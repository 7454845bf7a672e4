package treasury

import (
	"errors"
	"testing"
)

func TestCollectMovesFundsIntoCustody(t *testing.T) {
	v := NewVault()
	v.Credit("alice", "native", 100)

	if err := v.Collect("alice", "native", 60); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if got := v.Balance("alice", "native"); got != 40 {
		t.Errorf("expected balance 40, got %d", got)
	}
	if got := v.Custody("native"); got != 60 {
		t.Errorf("expected custody 60, got %d", got)
	}
}

func TestCollectInsufficientFundsLeavesBalancesUntouched(t *testing.T) {
	v := NewVault()
	v.Credit("alice", "native", 10)

	err := v.Collect("alice", "native", 11)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if v.Balance("alice", "native") != 10 || v.Custody("native") != 0 {
		t.Errorf("partial collect observed: balance=%d custody=%d",
			v.Balance("alice", "native"), v.Custody("native"))
	}
}

func TestPayoutRequiresCustody(t *testing.T) {
	v := NewVault()
	if err := v.Payout("bob", "native", 1); !errors.Is(err, ErrInsufficientCustody) {
		t.Fatalf("expected ErrInsufficientCustody, got %v", err)
	}

	v.Credit("alice", "native", 50)
	if err := v.Collect("alice", "native", 50); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if err := v.Payout("bob", "native", 50); err != nil {
		t.Fatalf("payout failed: %v", err)
	}
	if got := v.Balance("bob", "native"); got != 50 {
		t.Errorf("expected bob to hold 50, got %d", got)
	}
}

func TestZeroAndNegativeAmountsRejected(t *testing.T) {
	v := NewVault()
	v.Credit("alice", "native", 10)
	for _, amt := range []int64{0, -5} {
		if err := v.Collect("alice", "native", amt); !errors.Is(err, ErrBadAmount) {
			t.Errorf("Collect(%d): expected ErrBadAmount, got %v", amt, err)
		}
		if err := v.Payout("alice", "native", amt); !errors.Is(err, ErrBadAmount) {
			t.Errorf("Payout(%d): expected ErrBadAmount, got %v", amt, err)
		}
	}
}

func TestAssetsAreIndependent(t *testing.T) {
	v := NewVault()
	v.Credit("alice", "native", 100)
	v.Credit("alice", "token:gold", 5)

	if err := v.Collect("alice", "token:gold", 5); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	if v.Balance("alice", "native") != 100 {
		t.Errorf("native balance disturbed: %d", v.Balance("alice", "native"))
	}
	if v.Custody("native") != 0 || v.Custody("token:gold") != 5 {
		t.Errorf("custody wrong: native=%d gold=%d", v.Custody("native"), v.Custody("token:gold"))
	}
}
