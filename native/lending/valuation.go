package lending

import (
	"math/big"

	"mvxlend/crypto"
)

// SetValuation records the administrator appraisal for an NFT, overwriting
// any prior valuation. The contract must be a supported collateral contract
// and the value must be positive. Already-open loans keep the rating
// snapshotted at their origination; a revaluation never reprices them.
func (e *Engine) SetValuation(caller, contract crypto.Address, tokenID, value *big.Int, rating Rating) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.clock == nil {
		return errNilClock
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	record, ok, err := e.state.LendingGetCollateral(contract)
	if err != nil {
		return err
	}
	if !ok || !record.Supported {
		return ErrNotSupported
	}
	if tokenID == nil || tokenID.Sign() < 0 {
		return ErrInvalidAmount
	}
	if value == nil || value.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !rating.Valid() {
		return ErrInvalidAmount
	}
	valuation := &Valuation{
		Contract:       contract,
		TokenID:        new(big.Int).Set(tokenID),
		AppraisedValue: new(big.Int).Set(value),
		Rating:         rating,
		SetAt:          e.now(),
	}
	if err := e.state.LendingPutValuation(valuation); err != nil {
		return err
	}
	e.emit(ValuationSet{
		ID:             eventID(),
		Contract:       contract,
		TokenID:        new(big.Int).Set(tokenID),
		AppraisedValue: new(big.Int).Set(value),
		Rating:         rating,
	})
	return nil
}

// GetValuation returns the appraisal on file for the NFT. ErrNotAppraised is
// returned when no valuation exists.
func (e *Engine) GetValuation(contract crypto.Address, tokenID *big.Int) (*Valuation, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if tokenID == nil {
		return nil, ErrNotAppraised
	}
	valuation, ok, err := e.state.LendingGetValuation(contract, tokenID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotAppraised
	}
	return valuation, nil
}
