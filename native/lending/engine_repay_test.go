package lending

import (
	"errors"
	"math/big"
	"testing"
)

const oneYear = uint64(secondsPerYear)

func TestAccrualMatchesSimpleInterest(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	// One year at 8% APR on 700e18 principal is 56e18.
	f.clock.now += oneYear
	quoted, err := f.engine.QuoteAccruedInterest(loan.ID)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quoted.Cmp(e18(56)) != 0 {
		t.Fatalf("unexpected interest: got %s want %s", quoted, e18(56))
	}
}

func TestQuoteDoesNotCommitAccrual(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	f.clock.now += oneYear
	if _, err := f.engine.QuoteAccruedInterest(loan.ID); err != nil {
		t.Fatalf("quote: %v", err)
	}

	stored, _, err := f.state.LendingGetLoan(loan.ID)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if stored.LastAccrualAt != loan.OriginatedAt {
		t.Fatalf("quote advanced lastAccrualAt: %d", stored.LastAccrualAt)
	}
	if stored.AccruedInterest.Sign() != 0 {
		t.Fatalf("quote capitalized interest: %s", stored.AccruedInterest)
	}
}

func TestAccrualIdempotentAtFixedTimestamp(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingB)
	loan := f.open(t)

	f.clock.now += oneYear / 2
	first, err := f.engine.QuoteAccruedInterest(loan.ID)
	if err != nil {
		t.Fatalf("first quote: %v", err)
	}
	second, err := f.engine.QuoteAccruedInterest(loan.ID)
	if err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if first.Cmp(second) != 0 {
		t.Fatalf("accrual not idempotent: %s vs %s", first, second)
	}

	// A partial repayment of zero interest is not possible, so capitalize
	// through a minimal payment and re-quote at the same instant.
	if _, err := f.engine.Repay(f.borrower, loan.ID, big.NewInt(1)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	third, err := f.engine.QuoteAccruedInterest(loan.ID)
	if err != nil {
		t.Fatalf("third quote: %v", err)
	}
	expected := new(big.Int).Sub(second, big.NewInt(1))
	if third.Cmp(expected) != 0 {
		t.Fatalf("capitalized accrual drifted: got %s want %s", third, expected)
	}
}

func TestFullRepaymentTransfersExactlyOwed(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	f.clock.now += oneYear
	owed := new(big.Int).Add(e18(700), e18(56))

	// Overpayment is capped: only the owed amount moves.
	overpay := new(big.Int).Add(owed, e18(100))
	closed, err := f.engine.Repay(f.borrower, loan.ID, overpay)
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if closed.State != LoanRepaid {
		t.Fatalf("unexpected state: %s", closed.State)
	}

	last := f.tokens.transfers[len(f.tokens.transfers)-1]
	if last.amount.Cmp(owed) != 0 {
		t.Fatalf("unexpected repayment transfer: got %s want %s", last.amount, owed)
	}
	if !last.from.Equal(f.borrower) || !last.to.Equal(f.treasury) {
		t.Fatalf("unexpected repayment route: %+v", last)
	}

	owner, err := f.custody.OwnerOf(f.contract, f.tokenID)
	if err != nil {
		t.Fatalf("owner of: %v", err)
	}
	if !owner.Equal(f.borrower) {
		t.Fatalf("collateral not returned to borrower: %s", owner)
	}
	if _, locked, _ := f.state.LendingGetLock(f.contract, f.tokenID); locked {
		t.Fatalf("lock survived repayment")
	}
}

func TestPartialRepaymentSettlesInterestFirst(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	f.clock.now += oneYear // 56e18 interest on 700e18

	updated, err := f.engine.Repay(f.borrower, loan.ID, e18(100))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if updated.State != LoanOpen {
		t.Fatalf("partial repayment closed loan: %s", updated.State)
	}
	if updated.AccruedInterest.Sign() != 0 {
		t.Fatalf("interest not settled first: %s", updated.AccruedInterest)
	}
	if updated.Principal.Cmp(e18(656)) != 0 {
		t.Fatalf("unexpected principal: got %s want %s", updated.Principal, e18(656))
	}

	owner, _ := f.custody.OwnerOf(f.contract, f.tokenID)
	if !owner.Equal(f.module) {
		t.Fatalf("collateral released on partial repayment")
	}
}

func TestPartialRepaymentWithinInterest(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	f.clock.now += oneYear
	updated, err := f.engine.Repay(f.borrower, loan.ID, e18(20))
	if err != nil {
		t.Fatalf("repay: %v", err)
	}
	if updated.AccruedInterest.Cmp(e18(36)) != 0 {
		t.Fatalf("unexpected residual interest: got %s want %s", updated.AccruedInterest, e18(36))
	}
	if updated.Principal.Cmp(e18(700)) != 0 {
		t.Fatalf("principal touched before interest cleared: %s", updated.Principal)
	}
}

func TestThirdPartyMayRepay(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	payer := makeAddress(0x0b)
	closed, err := f.engine.Repay(payer, loan.ID, e18(700))
	if err != nil {
		t.Fatalf("third party repay: %v", err)
	}
	if closed.State != LoanRepaid {
		t.Fatalf("unexpected state: %s", closed.State)
	}

	// Collateral returns to the borrower, never the payer.
	owner, _ := f.custody.OwnerOf(f.contract, f.tokenID)
	if !owner.Equal(f.borrower) {
		t.Fatalf("collateral misrouted to %s", owner)
	}
	last := f.tokens.transfers[len(f.tokens.transfers)-1]
	if !last.from.Equal(payer) {
		t.Fatalf("repayment not debited from payer")
	}
}

func TestRepayRejectsClosedLoan(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	if _, err := f.engine.Repay(f.borrower, loan.ID, e18(700)); err != nil {
		t.Fatalf("repay: %v", err)
	}
	if _, err := f.engine.Repay(f.borrower, loan.ID, e18(1)); !errors.Is(err, ErrLoanClosed) {
		t.Fatalf("expected ErrLoanClosed, got %v", err)
	}
}

func TestRepayRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	f.list(t)
	f.appraise(t, e18(1000), RatingA)
	loan := f.open(t)

	if _, err := f.engine.Repay(f.borrower, loan.ID, big.NewInt(0)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment for zero, got %v", err)
	}
	if _, err := f.engine.Repay(f.borrower, loan.ID, big.NewInt(-5)); !errors.Is(err, ErrInsufficientPayment) {
		t.Fatalf("expected ErrInsufficientPayment for negative, got %v", err)
	}
}

func TestRepayUnknownLoan(t *testing.T) {
	f := newFixture(t)
	if _, err := f.engine.Repay(f.borrower, 99, e18(1)); !errors.Is(err, ErrLoanNotFound) {
		t.Fatalf("expected ErrLoanNotFound, got %v", err)
	}
}
