package lending

import "math/big"

// RiskParameters groups the administrator-configured lending terms. LTV and
// APR values are expressed in basis points for deterministic integer
// accounting.
type RiskParameters struct {
	// LTVBps bounds principal per rating tier: principal =
	// appraisedValue * LTVBps[rating] / 10_000, rounded down.
	LTVBps map[Rating]uint64
	// InterestRateBps is the simple annual interest rate per rating tier.
	InterestRateBps map[Rating]uint64
	// TermSeconds is the fixed loan term; dueBy = originatedAt + term.
	TermSeconds uint64
	// MinPrincipal rejects originations whose computed principal falls
	// below it. A nil value means any positive principal is accepted.
	MinPrincipal *big.Int
}

// DefaultRiskParameters mirrors the terms the deployment provisions when no
// overrides are configured.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		LTVBps: map[Rating]uint64{
			RatingA: 7000,
			RatingB: 5500,
			RatingC: 4000,
			RatingD: 3000,
		},
		InterestRateBps: map[Rating]uint64{
			RatingA: 800,
			RatingB: 1200,
			RatingC: 1800,
			RatingD: 2500,
		},
		TermSeconds:  30 * 24 * 60 * 60,
		MinPrincipal: big.NewInt(1),
	}
}

// LTV returns the loan-to-value bound for the rating, zero when the tier is
// not configured.
func (p RiskParameters) LTV(r Rating) uint64 {
	if p.LTVBps == nil {
		return 0
	}
	return p.LTVBps[r]
}

// RateTier returns the annual interest rate for the rating in basis points.
func (p RiskParameters) RateTier(r Rating) uint64 {
	if p.InterestRateBps == nil {
		return 0
	}
	return p.InterestRateBps[r]
}
