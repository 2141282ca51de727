package proposal

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/asset-custody/asset_custody/internal/txbridge"
)

// ErrNotReady indicates the proposal has not reached quorum yet.
var ErrNotReady = errors.New("proposal not ready to submit")

// withdrawFunction is the ledger entry point invoked for approved proposals.
const withdrawFunction = "withdraw_assets"

// Service drives a proposal from creation through quorum to
// execution-readiness. The amount is carried as an opaque string; the ledger
// is the layer that validates it.
type Service struct {
	repo   Repository
	bridge txbridge.Invoker
	logger *slog.Logger
}

// NewService builds the proposal lifecycle service.
func NewService(repo Repository, bridge txbridge.Invoker, logger *slog.Logger) *Service {
	return &Service{repo: repo, bridge: bridge, logger: logger}
}

// SubmitInput captures the data needed to open a withdrawal proposal.
type SubmitInput struct {
	Proposer    string
	Destination string
	AssetCode   string
	Amount      string
	XDRUnsigned *string
}

// Submit registers a new proposal in pending state with no signatures.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (Proposal, error) {
	p := Proposal{
		ID:          uuid.NewString(),
		Proposer:    input.Proposer,
		Destination: input.Destination,
		AssetCode:   input.AssetCode,
		Amount:      input.Amount,
		XDRUnsigned: input.XDRUnsigned,
		Signatures:  []string{},
		Status:      StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, p); err != nil {
		return Proposal{}, err
	}
	s.logger.Info("new proposal", "id", p.ID, "proposer", p.Proposer, "destination", p.Destination)
	return p, nil
}

// List returns a snapshot of all proposals in insertion order.
func (s *Service) List(ctx context.Context) ([]Proposal, error) {
	return s.repo.List(ctx)
}

// Approve records a signature on the proposal. Duplicate signature values are
// ignored; once the quorum of distinct values is reached the proposal becomes
// ready to submit. The signer key is logged but not verified.
func (s *Service) Approve(ctx context.Context, id, signerKey, signature string) (Proposal, error) {
	p, err := s.repo.AddSignature(ctx, id, signature)
	if err != nil {
		return Proposal{}, err
	}
	s.logger.Info("proposal signed", "id", id, "key", signerKey, "status", p.Status)
	return p, nil
}

// WithdrawRequest is the ledger-invocation descriptor built from an approved
// proposal. SignaturesCount is the bare count the ledger will compare against
// its own threshold; signer identities never cross this boundary.
type WithdrawRequest struct {
	Owner           string
	Amount          string
	SignaturesCount int
}

func (w WithdrawRequest) params() map[string]string {
	return map[string]string{
		"owner":            w.Owner,
		"amount":           w.Amount,
		"signatures_count": strconv.Itoa(w.SignaturesCount),
	}
}

// Execute builds the unsigned withdrawal envelope for a proposal that reached
// quorum. The store lock is released before the bridge call, and the proposal
// status is intentionally not advanced: re-execution stays possible, the
// proposal id keys idempotent HTTP retries, and the ledger's own quorum and
// balance checks are the backstop against double withdrawal.
func (s *Service) Execute(ctx context.Context, id string) (string, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if p.Status != StatusReadyToSubmit {
		return "", ErrNotReady
	}

	req := WithdrawRequest{
		Owner:           p.Destination,
		Amount:          p.Amount,
		SignaturesCount: len(p.Signatures),
	}
	return s.bridge.BuildInvocation(ctx, withdrawFunction, req.params())
}
