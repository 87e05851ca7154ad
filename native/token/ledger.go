package token

import (
	"errors"
	"fmt"
	"math/big"

	"mvxlend/crypto"
)

var (
	ErrInvalidAmount     = errors.New("token: amount must be positive")
	ErrInsufficientFunds = errors.New("token: insufficient funds")
)

// ledgerState is the balance persistence surface.
type ledgerState interface {
	TokenBalance(token, holder crypto.Address) (*big.Int, error)
	TokenSetBalance(token, holder crypto.Address, balance *big.Int) error
}

// Ledger is the in-process fungible token ledger. It implements the
// debit/credit capability the loan ledger disburses and collects through.
// Balances are integers in each token's smallest unit.
type Ledger struct {
	state ledgerState
}

func NewLedger(state ledgerState) *Ledger {
	return &Ledger{state: state}
}

// Transfer debits amount from the payer and credits the recipient. The
// transfer fails without any balance change when the payer's funds are
// short.
func (l *Ledger) Transfer(token, from, to crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not configured")
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	fromBalance, err := l.state.TokenBalance(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	toBalance, err := l.state.TokenBalance(token, to)
	if err != nil {
		return err
	}
	if err := l.state.TokenSetBalance(token, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.state.TokenSetBalance(token, to, new(big.Int).Add(toBalance, amount))
}

// Mint credits freshly issued units to the holder. Provisioning entry point
// for deployments and tests.
func (l *Ledger) Mint(token, holder crypto.Address, amount *big.Int) error {
	if l == nil || l.state == nil {
		return fmt.Errorf("token: ledger not configured")
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	balance, err := l.state.TokenBalance(token, holder)
	if err != nil {
		return err
	}
	return l.state.TokenSetBalance(token, holder, new(big.Int).Add(balance, amount))
}

// BalanceOf reports the holder's balance in the token.
func (l *Ledger) BalanceOf(token, holder crypto.Address) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, fmt.Errorf("token: ledger not configured")
	}
	return l.state.TokenBalance(token, holder)
}
