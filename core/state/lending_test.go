package state

import (
	"math/big"
	"testing"

	"mvxlend/crypto"
	"mvxlend/native/lending"
	"mvxlend/storage"
)

func testAddress(suffix byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.MVXPrefix, raw)
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestLoanRoundTrip(t *testing.T) {
	m := newTestManager(t)

	loan := &lending.Loan{
		ID:                  7,
		Borrower:            testAddress(0x01),
		CollateralContract:  testAddress(0x02),
		TokenID:             big.NewInt(42),
		PaymentToken:        testAddress(0x03),
		Principal:           new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil),
		RatingAtOrigination: lending.RatingB,
		OriginatedAt:        1_700_000_000,
		LastAccrualAt:       1_700_000_500,
		AccruedInterest:     big.NewInt(123),
		DueBy:               1_702_592_000,
		State:               lending.LoanOpen,
	}
	if err := m.LendingPutLoan(loan); err != nil {
		t.Fatalf("put loan: %v", err)
	}

	got, ok, err := m.LendingGetLoan(7)
	if err != nil {
		t.Fatalf("get loan: %v", err)
	}
	if !ok {
		t.Fatalf("loan missing")
	}
	if got.ID != loan.ID || got.State != loan.State || got.RatingAtOrigination != loan.RatingAtOrigination {
		t.Fatalf("scalar fields mismatch: %+v", got)
	}
	if !got.Borrower.Equal(loan.Borrower) || !got.PaymentToken.Equal(loan.PaymentToken) {
		t.Fatalf("address fields mismatch")
	}
	if got.Borrower.Prefix() != crypto.MVXPrefix {
		t.Fatalf("address prefix lost: %s", got.Borrower.Prefix())
	}
	if got.Principal.Cmp(loan.Principal) != 0 || got.AccruedInterest.Cmp(loan.AccruedInterest) != 0 {
		t.Fatalf("amount fields mismatch")
	}
	if got.TokenID.Cmp(loan.TokenID) != 0 {
		t.Fatalf("token id mismatch: %s", got.TokenID)
	}
	if got.OriginatedAt != loan.OriginatedAt || got.LastAccrualAt != loan.LastAccrualAt || got.DueBy != loan.DueBy {
		t.Fatalf("timestamp fields mismatch")
	}

	if _, ok, err := m.LendingGetLoan(8); err != nil || ok {
		t.Fatalf("unknown loan: ok=%v err=%v", ok, err)
	}
}

func TestLoanSequenceStartsAtOne(t *testing.T) {
	m := newTestManager(t)
	for want := uint64(1); want <= 3; want++ {
		id, err := m.LendingNextLoanID()
		if err != nil {
			t.Fatalf("next id: %v", err)
		}
		if id != want {
			t.Fatalf("unexpected id: got %d want %d", id, want)
		}
	}
}

func TestRegistryRoundTrip(t *testing.T) {
	m := newTestManager(t)
	contract := testAddress(0x05)
	tok := testAddress(0x06)

	if err := m.LendingPutCollateral(&lending.CollateralContract{Address: contract, Supported: true}); err != nil {
		t.Fatalf("put collateral: %v", err)
	}
	coll, ok, err := m.LendingGetCollateral(contract)
	if err != nil || !ok {
		t.Fatalf("get collateral: ok=%v err=%v", ok, err)
	}
	if !coll.Supported || !coll.Address.Equal(contract) {
		t.Fatalf("collateral mismatch: %+v", coll)
	}

	if err := m.LendingPutPaymentToken(&lending.PaymentToken{Address: tok, Supported: true, Decimals: 6}); err != nil {
		t.Fatalf("put payment token: %v", err)
	}
	pay, ok, err := m.LendingGetPaymentToken(tok)
	if err != nil || !ok {
		t.Fatalf("get payment token: ok=%v err=%v", ok, err)
	}
	if pay.Decimals != 6 {
		t.Fatalf("decimals mismatch: %d", pay.Decimals)
	}

	if _, ok, _ := m.LendingGetCollateral(testAddress(0x09)); ok {
		t.Fatalf("unknown collateral reported present")
	}
}

func TestValuationRoundTripAndOverwrite(t *testing.T) {
	m := newTestManager(t)
	contract := testAddress(0x05)
	tokenID := big.NewInt(1)

	first := &lending.Valuation{
		Contract:       contract,
		TokenID:        tokenID,
		AppraisedValue: big.NewInt(1000),
		Rating:         lending.RatingA,
		SetAt:          100,
	}
	if err := m.LendingPutValuation(first); err != nil {
		t.Fatalf("put valuation: %v", err)
	}

	second := &lending.Valuation{
		Contract:       contract,
		TokenID:        tokenID,
		AppraisedValue: big.NewInt(400),
		Rating:         lending.RatingD,
		SetAt:          200,
	}
	if err := m.LendingPutValuation(second); err != nil {
		t.Fatalf("overwrite valuation: %v", err)
	}

	got, ok, err := m.LendingGetValuation(contract, tokenID)
	if err != nil || !ok {
		t.Fatalf("get valuation: ok=%v err=%v", ok, err)
	}
	if got.AppraisedValue.Cmp(big.NewInt(400)) != 0 || got.Rating != lending.RatingD || got.SetAt != 200 {
		t.Fatalf("overwrite not visible: %+v", got)
	}

	// Token ids on the same contract key independently.
	if _, ok, _ := m.LendingGetValuation(contract, big.NewInt(2)); ok {
		t.Fatalf("valuation leaked across token ids")
	}
}

func TestLockLifecycle(t *testing.T) {
	m := newTestManager(t)
	contract := testAddress(0x05)
	tokenID := big.NewInt(42)

	if _, ok, err := m.LendingGetLock(contract, tokenID); err != nil || ok {
		t.Fatalf("fresh lock: ok=%v err=%v", ok, err)
	}
	if err := m.LendingPutLock(contract, tokenID, 9); err != nil {
		t.Fatalf("put lock: %v", err)
	}
	id, ok, err := m.LendingGetLock(contract, tokenID)
	if err != nil || !ok {
		t.Fatalf("get lock: ok=%v err=%v", ok, err)
	}
	if id != 9 {
		t.Fatalf("lock loan id: %d", id)
	}
	if err := m.LendingDeleteLock(contract, tokenID); err != nil {
		t.Fatalf("delete lock: %v", err)
	}
	if _, ok, _ := m.LendingGetLock(contract, tokenID); ok {
		t.Fatalf("lock survived delete")
	}
}

func TestPausedFlag(t *testing.T) {
	m := newTestManager(t)
	paused, err := m.LendingPaused()
	if err != nil {
		t.Fatalf("paused: %v", err)
	}
	if paused {
		t.Fatalf("fresh state reports paused")
	}
	if err := m.LendingSetPaused(true); err != nil {
		t.Fatalf("set paused: %v", err)
	}
	paused, err = m.LendingPaused()
	if err != nil || !paused {
		t.Fatalf("paused after set: %v err=%v", paused, err)
	}
}

func TestTokenBalanceDefaultsToZero(t *testing.T) {
	m := newTestManager(t)
	tok := testAddress(0x06)
	holder := testAddress(0x07)

	balance, err := m.TokenBalance(tok, holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("fresh balance: %s", balance)
	}

	if err := m.TokenSetBalance(tok, holder, big.NewInt(55)); err != nil {
		t.Fatalf("set balance: %v", err)
	}
	balance, err = m.TokenBalance(tok, holder)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(big.NewInt(55)) != 0 {
		t.Fatalf("balance: %s", balance)
	}

	if err := m.TokenSetBalance(tok, holder, big.NewInt(-1)); err == nil {
		t.Fatalf("negative balance accepted")
	}
}

func TestNFTOwnerRoundTrip(t *testing.T) {
	m := newTestManager(t)
	contract := testAddress(0x05)
	owner := testAddress(0x08)
	tokenID := big.NewInt(3)

	if _, ok, err := m.NFTOwner(contract, tokenID); err != nil || ok {
		t.Fatalf("fresh owner: ok=%v err=%v", ok, err)
	}
	if err := m.NFTSetOwner(contract, tokenID, owner); err != nil {
		t.Fatalf("set owner: %v", err)
	}
	got, ok, err := m.NFTOwner(contract, tokenID)
	if err != nil || !ok {
		t.Fatalf("owner: ok=%v err=%v", ok, err)
	}
	if !got.Equal(owner) {
		t.Fatalf("owner mismatch: %s", got)
	}
}
