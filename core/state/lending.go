package state

import (
	"fmt"
	"math/big"

	"mvxlend/crypto"
	"mvxlend/native/lending"
)

// Stored record layouts. Addresses are persisted as raw 20-byte values and
// rehydrated with the ledger prefix on load.

type storedCollateral struct {
	Address   []byte
	Supported bool
}

type storedPaymentToken struct {
	Address   []byte
	Supported bool
	Decimals  uint8
}

type storedValuation struct {
	Contract       []byte
	TokenID        *big.Int
	AppraisedValue *big.Int
	Rating         uint8
	SetAt          uint64
}

type storedLoan struct {
	ID                  uint64
	Borrower            []byte
	CollateralContract  []byte
	TokenID             *big.Int
	PaymentToken        []byte
	Principal           *big.Int
	RatingAtOrigination uint8
	OriginatedAt        uint64
	LastAccrualAt       uint64
	AccruedInterest     *big.Int
	DueBy               uint64
	State               uint8
}

func restoreAddress(b []byte) crypto.Address {
	return crypto.NewAddress(crypto.MVXPrefix, b)
}

// LendingGetCollateral loads the registry record for an NFT contract. A
// missing record returns (nil, false, nil).
func (m *Manager) LendingGetCollateral(addr crypto.Address) (*lending.CollateralContract, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("lending: state manager not initialised")
	}
	var stored storedCollateral
	ok, err := m.KVGet(addrKey(lendingCollateralPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &lending.CollateralContract{
		Address:   restoreAddress(stored.Address),
		Supported: stored.Supported,
	}, true, nil
}

// LendingPutCollateral persists the registry record for an NFT contract.
func (m *Manager) LendingPutCollateral(record *lending.CollateralContract) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	if record == nil {
		return fmt.Errorf("lending: collateral record required")
	}
	stored := storedCollateral{
		Address:   record.Address.Bytes(),
		Supported: record.Supported,
	}
	return m.KVPut(addrKey(lendingCollateralPrefix, record.Address.Bytes()), &stored)
}

// LendingGetPaymentToken loads the registry record for a payment token.
func (m *Manager) LendingGetPaymentToken(addr crypto.Address) (*lending.PaymentToken, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("lending: state manager not initialised")
	}
	var stored storedPaymentToken
	ok, err := m.KVGet(addrKey(lendingPayTokenPrefix, addr.Bytes()), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &lending.PaymentToken{
		Address:   restoreAddress(stored.Address),
		Supported: stored.Supported,
		Decimals:  stored.Decimals,
	}, true, nil
}

// LendingPutPaymentToken persists the registry record for a payment token.
func (m *Manager) LendingPutPaymentToken(record *lending.PaymentToken) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	if record == nil {
		return fmt.Errorf("lending: payment token record required")
	}
	stored := storedPaymentToken{
		Address:   record.Address.Bytes(),
		Supported: record.Supported,
		Decimals:  record.Decimals,
	}
	return m.KVPut(addrKey(lendingPayTokenPrefix, record.Address.Bytes()), &stored)
}

// LendingGetValuation loads the appraisal on file for an NFT.
func (m *Manager) LendingGetValuation(contract crypto.Address, tokenID *big.Int) (*lending.Valuation, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("lending: state manager not initialised")
	}
	var stored storedValuation
	ok, err := m.KVGet(nftKey(lendingValuationPrefix, contract.Bytes(), tokenID), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &lending.Valuation{
		Contract:       restoreAddress(stored.Contract),
		TokenID:        stored.TokenID,
		AppraisedValue: stored.AppraisedValue,
		Rating:         lending.Rating(stored.Rating),
		SetAt:          stored.SetAt,
	}, true, nil
}

// LendingPutValuation persists the appraisal, replacing any prior record for
// the same NFT.
func (m *Manager) LendingPutValuation(record *lending.Valuation) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	if record == nil || record.TokenID == nil {
		return fmt.Errorf("lending: valuation record required")
	}
	stored := storedValuation{
		Contract:       record.Contract.Bytes(),
		TokenID:        record.TokenID,
		AppraisedValue: record.AppraisedValue,
		Rating:         uint8(record.Rating),
		SetAt:          record.SetAt,
	}
	return m.KVPut(nftKey(lendingValuationPrefix, record.Contract.Bytes(), record.TokenID), &stored)
}

// LendingGetLoan loads a loan record by id.
func (m *Manager) LendingGetLoan(id uint64) (*lending.Loan, bool, error) {
	if m == nil {
		return nil, false, fmt.Errorf("lending: state manager not initialised")
	}
	var stored storedLoan
	ok, err := m.KVGet(lendingLoanKey(id), &stored)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &lending.Loan{
		ID:                  stored.ID,
		Borrower:            restoreAddress(stored.Borrower),
		CollateralContract:  restoreAddress(stored.CollateralContract),
		TokenID:             stored.TokenID,
		PaymentToken:        restoreAddress(stored.PaymentToken),
		Principal:           stored.Principal,
		RatingAtOrigination: lending.Rating(stored.RatingAtOrigination),
		OriginatedAt:        stored.OriginatedAt,
		LastAccrualAt:       stored.LastAccrualAt,
		AccruedInterest:     stored.AccruedInterest,
		DueBy:               stored.DueBy,
		State:               lending.LoanState(stored.State),
	}, true, nil
}

// LendingPutLoan persists a loan record.
func (m *Manager) LendingPutLoan(loan *lending.Loan) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	if loan == nil || loan.TokenID == nil {
		return fmt.Errorf("lending: loan record required")
	}
	stored := storedLoan{
		ID:                  loan.ID,
		Borrower:            loan.Borrower.Bytes(),
		CollateralContract:  loan.CollateralContract.Bytes(),
		TokenID:             loan.TokenID,
		PaymentToken:        loan.PaymentToken.Bytes(),
		Principal:           loan.Principal,
		RatingAtOrigination: uint8(loan.RatingAtOrigination),
		OriginatedAt:        loan.OriginatedAt,
		LastAccrualAt:       loan.LastAccrualAt,
		AccruedInterest:     loan.AccruedInterest,
		DueBy:               loan.DueBy,
		State:               uint8(loan.State),
	}
	return m.KVPut(lendingLoanKey(loan.ID), &stored)
}

// LendingNextLoanID increments and returns the loan id sequence. Ids start
// at 1 and are assigned monotonically.
func (m *Manager) LendingNextLoanID() (uint64, error) {
	if m == nil {
		return 0, fmt.Errorf("lending: state manager not initialised")
	}
	var seq uint64
	if _, err := m.KVGet(lendingLoanSeqKeyBytes, &seq); err != nil {
		return 0, err
	}
	seq++
	if err := m.KVPut(lendingLoanSeqKeyBytes, seq); err != nil {
		return 0, err
	}
	return seq, nil
}

// LendingGetLock returns the id of the open loan backed by the NFT, if any.
func (m *Manager) LendingGetLock(contract crypto.Address, tokenID *big.Int) (uint64, bool, error) {
	if m == nil {
		return 0, false, fmt.Errorf("lending: state manager not initialised")
	}
	var loanID uint64
	ok, err := m.KVGet(nftKey(lendingLockPrefix, contract.Bytes(), tokenID), &loanID)
	if err != nil || !ok {
		return 0, ok, err
	}
	return loanID, true, nil
}

// LendingPutLock marks the NFT as collateralizing the loan.
func (m *Manager) LendingPutLock(contract crypto.Address, tokenID *big.Int, loanID uint64) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	return m.KVPut(nftKey(lendingLockPrefix, contract.Bytes(), tokenID), loanID)
}

// LendingDeleteLock releases the NFT lock.
func (m *Manager) LendingDeleteLock(contract crypto.Address, tokenID *big.Int) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	return m.KVDelete(nftKey(lendingLockPrefix, contract.Bytes(), tokenID))
}

// LendingPaused reports whether the lending module is halted.
func (m *Manager) LendingPaused() (bool, error) {
	if m == nil {
		return false, fmt.Errorf("lending: state manager not initialised")
	}
	var paused bool
	if _, err := m.KVGet(lendingPausedKeyBytes, &paused); err != nil {
		return false, err
	}
	return paused, nil
}

// LendingSetPaused persists the module pause flag.
func (m *Manager) LendingSetPaused(paused bool) error {
	if m == nil {
		return fmt.Errorf("lending: state manager not initialised")
	}
	return m.KVPut(lendingPausedKeyBytes, paused)
}
