package lending

import "math/big"

const secondsPerYear = 31_536_000

var basisPoints = big.NewInt(10_000)

// AccruedInterest computes the simple interest owed on a principal over the
// elapsed duration at the supplied annual rate:
//
//	interest = principal * rateBps * elapsed / (10_000 * secondsPerYear)
//
// The division rounds down, so accrual can never credit the borrower with a
// fraction of a base unit. big.Int arithmetic makes the expression exact for
// any principal; there is no intermediate overflow to check. Zero elapsed
// time yields zero interest, which is what makes lazy accrual idempotent at
// a fixed timestamp.
func AccruedInterest(principal *big.Int, rateBps uint64, elapsed uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || rateBps == 0 || elapsed == 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, new(big.Int).SetUint64(elapsed))
	denom := new(big.Int).Mul(basisPoints, big.NewInt(secondsPerYear))
	return interest.Quo(interest, denom)
}

// principalForValue applies the loan-to-value bound to an appraised value,
// rounding down in the ledger's favour.
func principalForValue(appraised *big.Int, ltvBps uint64) *big.Int {
	if appraised == nil || appraised.Sign() <= 0 || ltvBps == 0 {
		return big.NewInt(0)
	}
	principal := new(big.Int).Mul(appraised, new(big.Int).SetUint64(ltvBps))
	return principal.Quo(principal, basisPoints)
}
