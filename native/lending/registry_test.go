package lending

import (
	"errors"
	"math/big"
	"testing"
)

func TestRegistryRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetSupportedCollateral(f.borrower, f.contract, true); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("collateral: expected ErrPermissionDenied, got %v", err)
	}
	if err := f.engine.SetSupportedPaymentToken(f.borrower, f.payToken, true, 18); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("payment token: expected ErrPermissionDenied, got %v", err)
	}
	if err := f.engine.SetValuation(f.borrower, f.contract, f.tokenID, e18(1), RatingA); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("valuation: expected ErrPermissionDenied, got %v", err)
	}
}

func TestPaymentTokenDecimalsImmutable(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetSupportedPaymentToken(f.admin, f.payToken, true, 18); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Re-registering with the same decimals is a no-op toggle.
	if err := f.engine.SetSupportedPaymentToken(f.admin, f.payToken, false, 18); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	record, ok, err := f.engine.GetPaymentToken(f.payToken)
	if err != nil || !ok {
		t.Fatalf("get payment token: %v ok=%v", err, ok)
	}
	if record.Supported {
		t.Fatalf("token still supported after removal")
	}

	// Different decimals can never land, even through a re-listing.
	if err := f.engine.SetSupportedPaymentToken(f.admin, f.payToken, true, 6); !errors.Is(err, ErrConfigurationConflict) {
		t.Fatalf("expected ErrConfigurationConflict, got %v", err)
	}
	record, _, _ = f.engine.GetPaymentToken(f.payToken)
	if record.Decimals != 18 {
		t.Fatalf("decimals mutated to %d", record.Decimals)
	}
}

func TestCollateralRemovalBlocksNewLoansOnly(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	if err := f.engine.SetSupportedCollateral(f.admin, f.contract, false); err != nil {
		t.Fatalf("delist: %v", err)
	}

	secondID := big.NewInt(7)
	f.custody.set(f.contract, secondID, f.borrower)
	if _, err := f.engine.OpenLoan(f.borrower, f.contract, secondID, f.payToken); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported after delisting, got %v", err)
	}

	// The existing loan still repays normally.
	if _, err := f.engine.Repay(f.borrower, loan.ID, e18(700)); err != nil {
		t.Fatalf("repay on delisted contract: %v", err)
	}
}

func TestSetValuationRequiresSupportedContract(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetValuation(f.admin, f.contract, f.tokenID, e18(1), RatingA); !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
}

func TestSetValuationValidatesInputs(t *testing.T) {
	f := newFixture(t)
	f.list(t)

	if err := f.engine.SetValuation(f.admin, f.contract, f.tokenID, big.NewInt(0), RatingA); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero value: expected ErrInvalidAmount, got %v", err)
	}
	if err := f.engine.SetValuation(f.admin, f.contract, f.tokenID, big.NewInt(-1), RatingA); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative value: expected ErrInvalidAmount, got %v", err)
	}
	if err := f.engine.SetValuation(f.admin, f.contract, f.tokenID, e18(1), Rating(9)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("bad rating: expected ErrInvalidAmount, got %v", err)
	}
	// A negative id would alias its positive counterpart at the storage key.
	if err := f.engine.SetValuation(f.admin, f.contract, big.NewInt(-42), e18(1), RatingA); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative token id: expected ErrInvalidAmount, got %v", err)
	}
}

func TestValuationOverwriteAndSnapshot(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	// Re-appraisal replaces the record but never reprices the open loan.
	f.appraise(t, e18(200), RatingD)
	val, err := f.engine.GetValuation(f.contract, f.tokenID)
	if err != nil {
		t.Fatalf("get valuation: %v", err)
	}
	if val.AppraisedValue.Cmp(e18(200)) != 0 || val.Rating != RatingD {
		t.Fatalf("valuation not overwritten: %s %s", val.AppraisedValue, val.Rating)
	}

	stored, err := f.engine.GetLoan(loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if stored.RatingAtOrigination != RatingA || stored.Principal.Cmp(e18(700)) != 0 {
		t.Fatalf("open loan repriced by revaluation: %s %s", stored.RatingAtOrigination, stored.Principal)
	}
}

func TestGetValuationMissing(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.GetValuation(f.contract, f.tokenID); !errors.Is(err, ErrNotAppraised) {
		t.Fatalf("expected ErrNotAppraised, got %v", err)
	}
}

func TestParseRating(t *testing.T) {
	for input, want := range map[string]Rating{"A": RatingA, "b": RatingB, "C": RatingC, "d": RatingD} {
		got, err := ParseRating(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %s want %s", input, got, want)
		}
	}
	if _, err := ParseRating("E"); err == nil {
		t.Fatalf("expected error for unknown tier")
	}
}
