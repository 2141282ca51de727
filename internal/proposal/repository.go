package proposal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProposalNotFound indicates an unknown proposal identifier.
var ErrProposalNotFound = errors.New("proposal not found")

// Repository is the registry of pending approval requests. AddSignature runs
// its dedupe and status recomputation inside the store's exclusive section so
// concurrent signers cannot interleave.
type Repository interface {
	Insert(ctx context.Context, p Proposal) error
	List(ctx context.Context) ([]Proposal, error)
	Get(ctx context.Context, id string) (Proposal, error)
	AddSignature(ctx context.Context, id, signature string) (Proposal, error)
}

// PostgresRepository stores proposals in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed proposal store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert persists a new proposal record.
func (r *PostgresRepository) Insert(ctx context.Context, p Proposal) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO proposals (id, proposer, destination, asset_code, amount, xdr_unsigned, signatures, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, p.Proposer, p.Destination, p.AssetCode, p.Amount, p.XDRUnsigned, p.Signatures, p.Status, p.CreatedAt.UTC())
	return err
}

// List returns all proposals in insertion order. The position column is a
// BIGSERIAL assigned at insert, so the order is exact even for rows created
// within the same timestamp.
func (r *PostgresRepository) List(ctx context.Context) ([]Proposal, error) {
	rows, err := r.db.Query(ctx, `SELECT id, proposer, destination, asset_code, amount, xdr_unsigned, signatures, status, created_at
        FROM proposals ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// Get fetches one proposal by identifier.
func (r *PostgresRepository) Get(ctx context.Context, id string) (Proposal, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return Proposal{}, ErrProposalNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, proposer, destination, asset_code, amount, xdr_unsigned, signatures, status, created_at
        FROM proposals WHERE id = $1`, proposalID)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Proposal{}, ErrProposalNotFound
	}
	return p, err
}

// AddSignature appends a signature under a row lock and recomputes the status.
func (r *PostgresRepository) AddSignature(ctx context.Context, id, signature string) (Proposal, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return Proposal{}, ErrProposalNotFound
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Proposal{}, err
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	row := tx.QueryRow(ctx, `SELECT id, proposer, destination, asset_code, amount, xdr_unsigned, signatures, status, created_at
        FROM proposals WHERE id = $1 FOR UPDATE`, proposalID)
	p, err := scanProposal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Proposal{}, ErrProposalNotFound
	}
	if err != nil {
		return Proposal{}, err
	}

	applySignature(&p, signature)

	if _, err := tx.Exec(ctx, `UPDATE proposals SET signatures = $1, status = $2 WHERE id = $3`,
		p.Signatures, p.Status, proposalID); err != nil {
		return Proposal{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Proposal{}, err
	}
	return p, nil
}

func scanProposal(row pgx.Row) (Proposal, error) {
	var (
		p         Proposal
		id        uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &p.Proposer, &p.Destination, &p.AssetCode, &p.Amount, &p.XDRUnsigned, &p.Signatures, &p.Status, &createdAt); err != nil {
		return Proposal{}, err
	}
	p.ID = id.String()
	p.CreatedAt = createdAt.UTC()
	if p.Signatures == nil {
		p.Signatures = []string{}
	}
	return p, nil
}
