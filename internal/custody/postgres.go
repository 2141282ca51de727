package custody

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger persists custody accounts in PostgreSQL. Each operation runs
// inside a single transaction so a failing invariant check rolls back with no
// partial effect, mirroring the host environment's transactional discipline.
//
// Balances are stored as base-10 text to retain full i128 width.
type PostgresLedger struct {
	db *pgxpool.Pool
}

// NewPostgresLedger constructs a Postgres-backed custody ledger.
func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) CreateAccount(ctx context.Context, caller, owner string, requiredSignatures uint32, insured bool) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	cmd, err := tx.Exec(ctx, `INSERT INTO custody_accounts (owner, balance, required_signatures, is_insured, is_active)
        VALUES ($1, '0', $2, $3, TRUE)
        ON CONFLICT (owner) DO NOTHING`, owner, requiredSignatures, insured)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountExists
	}
	// Checked after the insert attempt so a duplicate owner reports as such;
	// the rollback keeps the rejected row invisible.
	if requiredSignatures < minRequiredSignatures {
		return ErrThresholdTooLow
	}

	if _, err := tx.Exec(ctx, `INSERT INTO custody_counters (name, value) VALUES ($1, 1)
        ON CONFLICT (name) DO UPDATE SET value = custody_counters.value + 1`, TotalAccountsCounter); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (l *PostgresLedger) Deposit(ctx context.Context, caller, owner string, amount *big.Int) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, _, active, err := lockAccount(ctx, tx, owner)
	if err != nil {
		return err
	}
	if !active {
		return ErrAccountInactive
	}

	balance.Add(balance, amount)
	if _, err := tx.Exec(ctx, `UPDATE custody_accounts SET balance = $1 WHERE owner = $2`, balance.String(), owner); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (l *PostgresLedger) Withdraw(ctx context.Context, caller, owner string, amount *big.Int, signaturesCount uint32) error {
	if err := requireAuth(caller, owner); err != nil {
		return err
	}
	if !validAmount(amount) {
		return ErrInvalidAmount
	}

	tx, err := l.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	balance, required, active, err := lockAccount(ctx, tx, owner)
	if err != nil {
		return err
	}
	if !active {
		return ErrAccountInactive
	}
	if signaturesCount < required {
		return ErrInsufficientSignatures
	}
	if balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}

	balance.Sub(balance, amount)
	if _, err := tx.Exec(ctx, `UPDATE custody_accounts SET balance = $1 WHERE owner = $2`, balance.String(), owner); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (l *PostgresLedger) View(ctx context.Context, owner string) (CustodyAccount, error) {
	row := l.db.QueryRow(ctx, `SELECT balance, required_signatures, is_insured, is_active
        FROM custody_accounts WHERE owner = $1`, owner)

	var (
		balanceText string
		account     = CustodyAccount{Owner: owner}
	)
	if err := row.Scan(&balanceText, &account.RequiredSignatures, &account.IsInsured, &account.IsActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sentinel(owner), nil
		}
		return CustodyAccount{}, err
	}

	balance, err := parseBalance(balanceText)
	if err != nil {
		return CustodyAccount{}, err
	}
	account.Balance = balance
	return account, nil
}

func (l *PostgresLedger) TotalAccounts(ctx context.Context) (uint64, error) {
	var total uint64
	err := l.db.QueryRow(ctx, `SELECT value FROM custody_counters WHERE name = $1`, TotalAccountsCounter).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return total, nil
}

func lockAccount(ctx context.Context, tx pgx.Tx, owner string) (*big.Int, uint32, bool, error) {
	row := tx.QueryRow(ctx, `SELECT balance, required_signatures, is_active
        FROM custody_accounts WHERE owner = $1 FOR UPDATE`, owner)

	var (
		balanceText string
		required    uint32
		active      bool
	)
	if err := row.Scan(&balanceText, &required, &active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, false, ErrAccountNotFound
		}
		return nil, 0, false, err
	}

	balance, err := parseBalance(balanceText)
	if err != nil {
		return nil, 0, false, err
	}
	return balance, required, active, nil
}

func parseBalance(text string) (*big.Int, error) {
	balance, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("malformed stored balance %q", text)
	}
	return balance, nil
}
