package lending

import (
	"math/big"

	"github.com/google/uuid"

	"mvxlend/crypto"
)

// Event is a change notification emitted after a successful state
// transition, for off-core observers (metrics, indexers, webhooks).
type Event interface {
	EventType() string
}

// Emitter receives events. Emission happens after the enclosing operation
// has committed, so observers never see rolled-back transitions.
type Emitter interface {
	Emit(Event)
}

func eventID() string {
	return uuid.NewString()
}

type CollateralListed struct {
	ID        string
	Contract  crypto.Address
	Supported bool
}

func (CollateralListed) EventType() string { return "lending.collateral_listed" }

type PaymentTokenListed struct {
	ID        string
	Token     crypto.Address
	Supported bool
	Decimals  uint8
}

func (PaymentTokenListed) EventType() string { return "lending.payment_token_listed" }

type ValuationSet struct {
	ID             string
	Contract       crypto.Address
	TokenID        *big.Int
	AppraisedValue *big.Int
	Rating         Rating
}

func (ValuationSet) EventType() string { return "lending.valuation_set" }

type LoanOpened struct {
	ID        string
	LoanID    uint64
	Borrower  crypto.Address
	Principal *big.Int
	Rating    Rating
	DueBy     uint64
}

func (LoanOpened) EventType() string { return "lending.loan_opened" }

type LoanRepayment struct {
	ID     string
	LoanID uint64
	Payer  crypto.Address
	Amount *big.Int
	// Final is true when the repayment closed the loan.
	Final bool
}

func (LoanRepayment) EventType() string { return "lending.loan_repaid" }

type LoanLiquidation struct {
	ID        string
	LoanID    uint64
	Caller    crypto.Address
	Recipient crypto.Address
}

func (LoanLiquidation) EventType() string { return "lending.loan_liquidated" }

type LoanDefault struct {
	ID     string
	LoanID uint64
}

func (LoanDefault) EventType() string { return "lending.loan_defaulted" }
