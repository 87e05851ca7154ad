package lending

import (
	"math/big"
	"testing"
)

func TestAccruedInterestRoundsDown(t *testing.T) {
	// 1000 units at 8% for one day: 1000*800*86400/(10000*31536000) = 0.219...
	got := AccruedInterest(big.NewInt(1000), 800, 86_400)
	if got.Sign() != 0 {
		t.Fatalf("fractional interest not floored: %s", got)
	}

	// Scale principal so the quotient is exact.
	principal := new(big.Int).Exp(big.NewInt(10), big.NewInt(21), nil)
	got = AccruedInterest(principal, 800, secondsPerYear)
	want := new(big.Int).Mul(big.NewInt(80), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	if got.Cmp(want) != 0 {
		t.Fatalf("full year interest: got %s want %s", got, want)
	}
}

func TestAccruedInterestZeroCases(t *testing.T) {
	if got := AccruedInterest(nil, 800, 100); got.Sign() != 0 {
		t.Fatalf("nil principal: %s", got)
	}
	if got := AccruedInterest(big.NewInt(0), 800, 100); got.Sign() != 0 {
		t.Fatalf("zero principal: %s", got)
	}
	if got := AccruedInterest(big.NewInt(100), 0, 100); got.Sign() != 0 {
		t.Fatalf("zero rate: %s", got)
	}
	if got := AccruedInterest(big.NewInt(100), 800, 0); got.Sign() != 0 {
		t.Fatalf("zero elapsed: %s", got)
	}
}

func TestAccruedInterestLargePrincipalExact(t *testing.T) {
	// 2^128 overflows any fixed-width intermediate; big.Int keeps it exact.
	principal := new(big.Int).Lsh(big.NewInt(1), 128)
	got := AccruedInterest(principal, 10_000, secondsPerYear)
	if got.Cmp(principal) != 0 {
		t.Fatalf("100%% APR over one year must equal principal: got %s", got)
	}
}

func TestPrincipalForValue(t *testing.T) {
	if got := principalForValue(big.NewInt(10_000), 7000); got.Cmp(big.NewInt(7000)) != 0 {
		t.Fatalf("A tier: got %s", got)
	}
	// 999 * 5500 / 10000 = 549.45, floored.
	if got := principalForValue(big.NewInt(999), 5500); got.Cmp(big.NewInt(549)) != 0 {
		t.Fatalf("floor division: got %s", got)
	}
	if got := principalForValue(big.NewInt(10_000), 0); got.Sign() != 0 {
		t.Fatalf("zero LTV: %s", got)
	}
	if got := principalForValue(nil, 7000); got.Sign() != 0 {
		t.Fatalf("nil appraisal: %s", got)
	}
}
