package custody

import (
	"context"
	"math/big"
	"sync"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]CustodyAccount
	total    uint64
}

// NewInMemory creates a concurrency-safe in-memory custody ledger. All checks
// and the mutation of one operation run under a single lock acquisition, so
// callers observe the same all-or-nothing semantics the on-chain host provides.
func NewInMemory() Ledger {
	return &inMemoryLedger{accounts: make(map[string]CustodyAccount)}
}

func (l *inMemoryLedger) CreateAccount(_ context.Context, caller, owner string, requiredSignatures uint32, insured bool) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[owner]; exists {
		return ErrAccountExists
	}
	if requiredSignatures < minRequiredSignatures {
		return ErrThresholdTooLow
	}

	l.accounts[owner] = CustodyAccount{
		Owner:              owner,
		Balance:            big.NewInt(0),
		RequiredSignatures: requiredSignatures,
		IsInsured:          insured,
		IsActive:           true,
	}
	l.total++
	return nil
}

func (l *inMemoryLedger) Deposit(_ context.Context, caller, owner string, amount *big.Int) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[owner]
	if !ok {
		return ErrAccountNotFound
	}
	if !account.IsActive {
		return ErrAccountInactive
	}

	account.Balance = new(big.Int).Add(account.Balance, amount)
	l.accounts[owner] = account
	return nil
}

func (l *inMemoryLedger) Withdraw(_ context.Context, caller, owner string, amount *big.Int, signaturesCount uint32) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	account, ok := l.accounts[owner]
	if !ok {
		return ErrAccountNotFound
	}
	if !account.IsActive {
		return ErrAccountInactive
	}
	if signaturesCount < account.RequiredSignatures {
		return ErrInsufficientSignatures
	}
	if account.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	account.Balance = new(big.Int).Sub(account.Balance, amount)
	l.accounts[owner] = account
	return nil
}

func (l *inMemoryLedger) View(_ context.Context, owner string) (CustodyAccount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, ok := l.accounts[owner]
	if !ok {
		return Sentinel(owner), nil
	}
	return account.clone(), nil
}

func (l *inMemoryLedger) TotalAccounts(_ context.Context) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, nil
}
