package custody

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"
)

func TestCreateAccount(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreateAccount(ctx, "alice", "alice", 2, true); err != nil {
		t.Fatalf("create account: %v", err)
	}

	account, err := l.View(ctx, "alice")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !account.IsActive {
		t.Fatal("expected account to be active")
	}
	if !account.IsInsured {
		t.Fatal("expected account to be insured")
	}
	if account.Balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", account.Balance)
	}
	if account.RequiredSignatures != 2 {
		t.Fatalf("expected threshold 2, got %d", account.RequiredSignatures)
	}

	total, err := l.TotalAccounts(ctx)
	if err != nil {
		t.Fatalf("total accounts: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 account, got %d", total)
	}
}

func TestCreateAccount_Duplicate(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreateAccount(ctx, "alice", "alice", 3, false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := l.CreateAccount(ctx, "alice", "alice", 2, true); err != ErrAccountExists {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}

	// First account must be untouched.
	account, _ := l.View(ctx, "alice")
	if account.RequiredSignatures != 3 || account.IsInsured {
		t.Fatalf("original account mutated: %+v", account)
	}

	total, _ := l.TotalAccounts(ctx)
	if total != 1 {
		t.Fatalf("counter moved on failed create, total=%d", total)
	}
}

func TestCreateAccount_ThresholdTooLow(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreateAccount(ctx, "alice", "alice", 1, false); err != ErrThresholdTooLow {
		t.Fatalf("expected ErrThresholdTooLow, got %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.IsActive || account.RequiredSignatures != 0 {
		t.Fatalf("account created despite low threshold: %+v", account)
	}

	total, _ := l.TotalAccounts(ctx)
	if total != 0 {
		t.Fatalf("counter moved on aborted create, total=%d", total)
	}
}

func TestCreateAccount_Unauthorized(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.CreateAccount(ctx, "mallory", "alice", 2, false); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := l.CreateAccount(ctx, "", "alice", 2, false); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for empty caller, got %v", err)
	}
}

func TestDeposit(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)

	if err := l.Deposit(ctx, "alice", "alice", big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("expected balance 100, got %s", account.Balance)
	}
}

func TestDeposit_Invalid(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)

	for _, amount := range []*big.Int{big.NewInt(0), big.NewInt(-5), nil} {
		if err := l.Deposit(ctx, "alice", "alice", amount); err != ErrInvalidAmount {
			t.Fatalf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	if err := l.Deposit(ctx, "bob", "bob", big.NewInt(10)); err != ErrAccountNotFound {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	deactivate(t, l, "alice")
	if err := l.Deposit(ctx, "alice", "alice", big.NewInt(10)); err != ErrAccountInactive {
		t.Fatalf("expected ErrAccountInactive, got %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.Balance.Sign() != 0 {
		t.Fatalf("balance mutated by failed deposits: %s", account.Balance)
	}
}

func TestWithdraw(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)
	seedBalance(t, l, "alice", 100)

	if err := l.Withdraw(ctx, "alice", "alice", big.NewInt(40), 2); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.Balance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected balance 60, got %s", account.Balance)
	}
	if account.RequiredSignatures != 2 || !account.IsActive {
		t.Fatalf("unrelated fields changed: %+v", account)
	}
}

func TestWithdraw_InsufficientSignatures(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 3)
	seedBalance(t, l, "alice", 100)

	if err := l.Withdraw(ctx, "alice", "alice", big.NewInt(40), 2); err != ErrInsufficientSignatures {
		t.Fatalf("expected ErrInsufficientSignatures, got %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("balance mutated by aborted withdrawal: %s", account.Balance)
	}
}

func TestWithdraw_InsufficientFunds(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)
	seedBalance(t, l, "alice", 30)

	if err := l.Withdraw(ctx, "alice", "alice", big.NewInt(40), 2); err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	account, _ := l.View(ctx, "alice")
	if account.Balance.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("balance mutated by aborted withdrawal: %s", account.Balance)
	}
}

func TestView_Sentinel(t *testing.T) {
	l := NewInMemory()

	account, err := l.View(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if account.Owner != "ghost" {
		t.Fatalf("expected sentinel to echo owner, got %q", account.Owner)
	}
	if account.IsActive || account.RequiredSignatures != 0 || account.Balance.Sign() != 0 || account.IsInsured {
		t.Fatalf("sentinel not zero-valued: %+v", account)
	}
}

func TestView_ReturnsCopy(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)
	seedBalance(t, l, "alice", 50)

	account, _ := l.View(ctx, "alice")
	account.Balance.SetInt64(0)

	again, _ := l.View(ctx, "alice")
	if again.Balance.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("stored balance aliased by View: %s", again.Balance)
	}
}

func TestTotalAccounts_CountsOnlySuccessfulCreates(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	owners := []string{"a", "b", "c"}
	for _, owner := range owners {
		if err := l.CreateAccount(ctx, owner, owner, 2, false); err != nil {
			t.Fatalf("create %s: %v", owner, err)
		}
	}
	// Failed attempts must not move the counter.
	_ = l.CreateAccount(ctx, "a", "a", 2, false)
	_ = l.CreateAccount(ctx, "d", "d", 1, false)

	total, _ := l.TotalAccounts(ctx)
	if total != uint64(len(owners)) {
		t.Fatalf("expected %d accounts, got %d", len(owners), total)
	}
}

func TestConcurrentDeposits(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	mustCreate(t, l, "alice", 2)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := l.Deposit(ctx, "alice", "alice", big.NewInt(500)); err != nil {
				t.Errorf("deposit %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	account, _ := l.View(ctx, "alice")
	if account.Balance.Cmp(big.NewInt(workers*500)) != 0 {
		t.Fatalf("expected balance %d, got %s", workers*500, account.Balance)
	}
}

func mustCreate(t *testing.T, l Ledger, owner string, threshold uint32) {
	t.Helper()
	if err := l.CreateAccount(context.Background(), owner, owner, threshold, false); err != nil {
		t.Fatalf("create account %s: %v", owner, err)
	}
}

// seedBalance writes the balance directly, bypassing Deposit.
func seedBalance(t *testing.T, l Ledger, owner string, amount int64) {
	t.Helper()
	mem := l.(*inMemoryLedger)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	account, ok := mem.accounts[owner]
	if !ok {
		t.Fatalf("seed balance: no account %s", owner)
	}
	account.Balance = big.NewInt(amount)
	mem.accounts[owner] = account
}

// deactivate flips the account inactive. No ledger operation toggles the flag;
// the inactive paths are only reachable this way until a deactivation entry
// point exists.
func deactivate(t *testing.T, l Ledger, owner string) {
	t.Helper()
	mem := l.(*inMemoryLedger)
	mem.mu.Lock()
	defer mem.mu.Unlock()
	account, ok := mem.accounts[owner]
	if !ok {
		t.Fatalf("deactivate: no account %s", owner)
	}
	account.IsActive = false
	mem.accounts[owner] = account
}

func TestConcurrentCreates(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			owner := fmt.Sprintf("owner-%d", i)
			if err := l.CreateAccount(ctx, owner, owner, 2, false); err != nil {
				t.Errorf("create %s: %v", owner, err)
			}
		}(i)
	}
	wg.Wait()

	total, _ := l.TotalAccounts(ctx)
	if total != workers {
		t.Fatalf("expected %d accounts, got %d", workers, total)
	}
}
