package proposal

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/asset-custody/asset_custody/internal/custody"
	"github.com/asset-custody/asset_custody/internal/logging"
)

type fakeBridge struct {
	calls    int
	function string
	params   map[string]string
	xdr      string
	err      error
}

func (b *fakeBridge) BuildInvocation(_ context.Context, function string, params map[string]string) (string, error) {
	b.calls++
	b.function = function
	b.params = params
	if b.err != nil {
		return "", b.err
	}
	return b.xdr, nil
}

func newTestService(bridge *fakeBridge) *Service {
	return NewService(NewMemoryRepository(), bridge, logging.Discard())
}

func TestSubmitAndList(t *testing.T) {
	svc := newTestService(&fakeBridge{})
	ctx := context.Background()

	p, err := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: "40"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if p.Status != StatusPending {
		t.Fatalf("expected pending, got %s", p.Status)
	}
	if len(p.Signatures) != 0 || p.Signatures == nil {
		t.Fatalf("expected empty non-nil signature list, got %#v", p.Signatures)
	}

	proposals, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(proposals) != 1 || proposals[0].ID != p.ID {
		t.Fatalf("expected the submitted proposal exactly once, got %+v", proposals)
	}
}

func TestListPreservesInsertionOrder(t *testing.T) {
	svc := newTestService(&fakeBridge{})
	ctx := context.Background()

	var ids []string
	for _, amount := range []string{"1", "2", "3"} {
		p, err := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: amount})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		ids = append(ids, p.ID)
	}

	proposals, _ := svc.List(ctx)
	for i, p := range proposals {
		if p.ID != ids[i] {
			t.Fatalf("order not preserved at %d: %s != %s", i, p.ID, ids[i])
		}
	}
}

func TestApprove_DedupesByValue(t *testing.T) {
	svc := newTestService(&fakeBridge{})
	ctx := context.Background()
	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: "40"})

	first, err := svc.Approve(ctx, p.ID, "key-1", "s1")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if len(first.Signatures) != 1 || first.Status != StatusPending {
		t.Fatalf("unexpected state after one signature: %+v", first)
	}

	// Same exact value again, even from a different key, must not count twice.
	again, err := svc.Approve(ctx, p.ID, "key-2", "s1")
	if err != nil {
		t.Fatalf("approve duplicate: %v", err)
	}
	if len(again.Signatures) != 1 || again.Status != StatusPending {
		t.Fatalf("duplicate signature counted: %+v", again)
	}
}

func TestApprove_QuorumTransitionsStatus(t *testing.T) {
	svc := newTestService(&fakeBridge{})
	ctx := context.Background()
	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: "40"})

	if got, _ := svc.Approve(ctx, p.ID, "key-1", "s1"); got.Status != StatusPending {
		t.Fatalf("one signature should not reach quorum, got %s", got.Status)
	}
	got, err := svc.Approve(ctx, p.ID, "key-2", "s2")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got.Status != StatusReadyToSubmit {
		t.Fatalf("expected ready_to_submit, got %s", got.Status)
	}
	if len(got.Signatures) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(got.Signatures))
	}
}

func TestApprove_UnknownProposal(t *testing.T) {
	svc := newTestService(&fakeBridge{})

	if _, err := svc.Approve(context.Background(), "missing", "key", "sig"); !errors.Is(err, ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestExecute_NotReady(t *testing.T) {
	bridge := &fakeBridge{xdr: "XDR"}
	svc := newTestService(bridge)
	ctx := context.Background()
	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: "40"})

	if _, err := svc.Execute(ctx, p.ID); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	if bridge.calls != 0 {
		t.Fatal("bridge invoked for a pending proposal")
	}
}

func TestExecute_UnknownProposal(t *testing.T) {
	svc := newTestService(&fakeBridge{})

	if _, err := svc.Execute(context.Background(), "missing"); !errors.Is(err, ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestExecute_BuildsWithdrawalDescriptor(t *testing.T) {
	bridge := &fakeBridge{xdr: "AAAAunsigned=="}
	svc := newTestService(bridge)
	ctx := context.Background()

	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GOWNER", AssetCode: "XLM", Amount: "40"})
	svc.Approve(ctx, p.ID, "key-1", "s1")
	svc.Approve(ctx, p.ID, "key-2", "s2")

	xdr, err := svc.Execute(ctx, p.ID)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if xdr != "AAAAunsigned==" {
		t.Fatalf("unexpected envelope: %q", xdr)
	}
	if bridge.function != "withdraw_assets" {
		t.Fatalf("unexpected function: %s", bridge.function)
	}
	want := map[string]string{"owner": "GOWNER", "amount": "40", "signatures_count": "2"}
	for k, v := range want {
		if bridge.params[k] != v {
			t.Fatalf("param %s: expected %q, got %q", k, v, bridge.params[k])
		}
	}
}

func TestExecute_DoesNotAdvanceStatus(t *testing.T) {
	bridge := &fakeBridge{xdr: "XDR"}
	svc := newTestService(bridge)
	ctx := context.Background()

	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GO", AssetCode: "XLM", Amount: "40"})
	svc.Approve(ctx, p.ID, "k1", "s1")
	svc.Approve(ctx, p.ID, "k2", "s2")

	for i := 0; i < 2; i++ {
		if _, err := svc.Execute(ctx, p.ID); err != nil {
			t.Fatalf("execute %d: %v", i, err)
		}
	}
	if bridge.calls != 2 {
		t.Fatalf("expected 2 bridge calls, got %d", bridge.calls)
	}

	got, _ := svc.List(ctx)
	if got[0].Status != StatusReadyToSubmit {
		t.Fatalf("execute mutated status to %s", got[0].Status)
	}
}

// End-to-end path across both state machines: off-chain quorum followed by
// the ledger's own independent re-validation.
func TestWithdrawalFlowAgainstLedger(t *testing.T) {
	bridge := &fakeBridge{xdr: "XDR"}
	svc := newTestService(bridge)
	led := custody.NewInMemory()
	ctx := context.Background()

	if err := led.CreateAccount(ctx, "GOWNER", "GOWNER", 2, false); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if err := led.Deposit(ctx, "GOWNER", "GOWNER", big.NewInt(100)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	p, _ := svc.Submit(ctx, SubmitInput{Proposer: "GA", Destination: "GOWNER", AssetCode: "XLM", Amount: "40"})
	svc.Approve(ctx, p.ID, "k1", "s1")
	svc.Approve(ctx, p.ID, "k2", "s2")

	if _, err := svc.Execute(ctx, p.ID); err != nil {
		t.Fatalf("execute: %v", err)
	}

	amount, ok := new(big.Int).SetString(bridge.params["amount"], 10)
	if !ok {
		t.Fatalf("bridge amount not numeric: %q", bridge.params["amount"])
	}
	if err := led.Withdraw(ctx, "GOWNER", bridge.params["owner"], amount, 2); err != nil {
		t.Fatalf("ledger withdraw: %v", err)
	}

	account, _ := led.View(ctx, "GOWNER")
	if account.Balance.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("expected balance 60, got %s", account.Balance)
	}
}
