package store

import "time"

// Policy carries the behavioral knobs both backends honor. It is built once
// from configuration and handed to the backend constructor.
type Policy struct {
	// TransactionsEnabled gates the whole ledger; when false the Create*
	// transaction operations are no-ops.
	TransactionsEnabled bool
	// BalanceEnabled gates the balance side effect of ledger writes; when
	// false rows persist but balances stay untouched.
	BalanceEnabled bool
	// SessionRetention is how long an ephemeral session lives when the save
	// does not specify a retention.
	SessionRetention time.Duration
	// FileTTL is the expiry set on freshly created files.
	FileTTL time.Duration
	// PlanQuotas maps plan names to monthly comparison quotas; plans absent
	// from the map are unlimited.
	PlanQuotas map[string]int64
}

// DefaultPolicy mirrors the behavior of a stock deployment.
func DefaultPolicy() Policy {
	return Policy{
		TransactionsEnabled: true,
		BalanceEnabled:      true,
		SessionRetention:    24 * time.Hour,
		FileTTL:             time.Hour,
		PlanQuotas: map[string]int64{
			"free": 50,
		},
	}
}

// QuotaFor returns the comparison quota of plan, or -1 for unlimited.
func (p Policy) QuotaFor(plan string) int64 {
	if q, ok := p.PlanQuotas[plan]; ok {
		return q
	}
	return -1
}
