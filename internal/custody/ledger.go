// Package custody implements the custodial invariant engine: per-owner
// accounts with a balance, a fixed multi-sig threshold and an active flag,
// plus a global counter of accounts ever created.
//
// Every operation is all-or-nothing: any failing check aborts with zero
// observable state change. Withdraw trusts the caller-supplied signature
// count instead of verifying signer identities; that trust boundary comes
// from the contract this engine mirrors and is kept as-is.
package custody

import (
	"context"
	"errors"
	"math/big"
)

var (
	// ErrUnauthorized indicates the caller did not present a valid
	// authorization proof for the claimed owner identity.
	ErrUnauthorized = errors.New("caller is not the account owner")

	// ErrAccountExists rejects a second creation for the same owner.
	ErrAccountExists = errors.New("custody account already exists")

	// ErrThresholdTooLow rejects creation with fewer than two required signatures.
	ErrThresholdTooLow = errors.New("multi-sig requires at least 2 signatures")

	// ErrInvalidAmount rejects non-positive deposit or withdrawal amounts.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound indicates no custody account exists for the owner.
	ErrAccountNotFound = errors.New("custody account not found")

	// ErrAccountInactive indicates the account has been deactivated.
	ErrAccountInactive = errors.New("custody account is not active")

	// ErrInsufficientSignatures indicates the supplied signature count is
	// below the account's required threshold.
	ErrInsufficientSignatures = errors.New("insufficient signatures")

	// ErrInsufficientFunds indicates the balance cannot cover the withdrawal.
	ErrInsufficientFunds = errors.New("insufficient balance for withdrawal")
)

// minRequiredSignatures is the floor enforced at account creation.
const minRequiredSignatures = 2

// TotalAccountsCounter names the global counter row in persistent backends.
const TotalAccountsCounter = "total_accounts"

// Ledger defines the contract implemented by custody backends. The caller
// argument carries the identity authenticated by the execution host; each
// mutating operation requires caller == owner.
type Ledger interface {
	CreateAccount(ctx context.Context, caller, owner string, requiredSignatures uint32, insured bool) error
	Deposit(ctx context.Context, caller, owner string, amount *big.Int) error
	Withdraw(ctx context.Context, caller, owner string, amount *big.Int, signaturesCount uint32) error
	View(ctx context.Context, owner string) (CustodyAccount, error)
	TotalAccounts(ctx context.Context) (uint64, error)
}

func requireAuth(caller, owner string) error {
	if caller == "" || caller != owner {
		return ErrUnauthorized
	}
	return nil
}

func validAmount(amount *big.Int) bool {
	return amount != nil && amount.Sign() > 0
}
