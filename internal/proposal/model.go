package proposal

import "time"

// Proposal statuses. StatusSubmitted and StatusCompleted are declared by the
// lifecycle but no operation currently produces them; execution deliberately
// leaves the record untouched (see Service.Execute).
const (
	StatusPending       = "pending"
	StatusReadyToSubmit = "ready_to_submit"
	StatusSubmitted     = "submitted"
	StatusCompleted     = "completed"
)

// readyThreshold is the approval layer's fixed quorum. It is independent of
// the per-account RequiredSignatures the custody ledger enforces; the two
// thresholds are deliberately not unified.
const readyThreshold = 2

// Proposal is an off-chain withdrawal request collecting approvals.
type Proposal struct {
	ID          string    `json:"id"`
	Proposer    string    `json:"proposer"`
	Destination string    `json:"destination"`
	AssetCode   string    `json:"asset_code"`
	Amount      string    `json:"amount"`
	XDRUnsigned *string   `json:"xdr_unsigned"`
	Signatures  []string  `json:"signatures"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"-"`
}

// clone returns a copy whose signature slice does not alias the original.
func (p Proposal) clone() Proposal {
	out := p
	out.Signatures = append([]string(nil), p.Signatures...)
	if out.Signatures == nil {
		out.Signatures = []string{}
	}
	return out
}

// applySignature appends the signature unless the exact value is already
// present (dedup is by value, not signer identity) and recomputes the status.
// Callers must hold the store's exclusive section.
func applySignature(p *Proposal, signature string) {
	present := false
	for _, existing := range p.Signatures {
		if existing == signature {
			present = true
			break
		}
	}
	if !present {
		p.Signatures = append(p.Signatures, signature)
	}
	if len(p.Signatures) >= readyThreshold {
		p.Status = StatusReadyToSubmit
	}
}
