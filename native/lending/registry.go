package lending

import "mvxlend/crypto"

// SetSupportedCollateral toggles eligibility of an NFT contract for new
// loans. Existing loans are unaffected; removal only prevents new
// originations.
func (e *Engine) SetSupportedCollateral(caller, contract crypto.Address, supported bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if contract.IsZero() {
		return ErrNotSupported
	}
	record, ok, err := e.state.LendingGetCollateral(contract)
	if err != nil {
		return err
	}
	if !ok {
		record = &CollateralContract{Address: contract}
	}
	record.Supported = supported
	if err := e.state.LendingPutCollateral(record); err != nil {
		return err
	}
	e.emit(CollateralListed{ID: eventID(), Contract: contract, Supported: supported})
	return nil
}

// SetSupportedPaymentToken toggles eligibility of a loan currency. The first
// registration fixes the token's decimals permanently; a later call carrying
// different decimals fails with ErrConfigurationConflict.
func (e *Engine) SetSupportedPaymentToken(caller, token crypto.Address, supported bool, decimals uint8) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if token.IsZero() {
		return ErrNotSupported
	}
	record, ok, err := e.state.LendingGetPaymentToken(token)
	if err != nil {
		return err
	}
	if ok {
		if record.Decimals != decimals {
			return ErrConfigurationConflict
		}
	} else {
		record = &PaymentToken{Address: token, Decimals: decimals}
	}
	record.Supported = supported
	if err := e.state.LendingPutPaymentToken(record); err != nil {
		return err
	}
	e.emit(PaymentTokenListed{ID: eventID(), Token: token, Supported: supported, Decimals: decimals})
	return nil
}

// GetCollateral returns the registry record for the contract.
func (e *Engine) GetCollateral(contract crypto.Address) (*CollateralContract, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.LendingGetCollateral(contract)
}

// GetPaymentToken returns the registry record for the token.
func (e *Engine) GetPaymentToken(token crypto.Address) (*PaymentToken, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.LendingGetPaymentToken(token)
}
