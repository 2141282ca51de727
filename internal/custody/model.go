package custody

import "math/big"

// CustodyAccount is a per-owner ledger record tracking balance and withdrawal
// policy. Balance is kept as a big integer to match the i128 width used by the
// on-chain contract.
type CustodyAccount struct {
	Owner              string
	Balance            *big.Int
	RequiredSignatures uint32
	IsInsured          bool
	IsActive           bool
}

// Sentinel returns the zero-valued record reported for owners that never
// created an account. Absence is distinguishable from any real account by
// IsActive=false combined with RequiredSignatures=0.
func Sentinel(owner string) CustodyAccount {
	return CustodyAccount{Owner: owner, Balance: big.NewInt(0)}
}

// clone returns a deep copy so callers never share the stored balance.
func (a CustodyAccount) clone() CustodyAccount {
	out := a
	out.Balance = new(big.Int).Set(a.Balance)
	return out
}
