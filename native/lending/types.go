package lending

import (
	"fmt"
	"math/big"

	"mvxlend/crypto"
)

// Rating is the discrete risk tier assigned to an appraised NFT. It selects
// both the loan-to-value bound and the interest rate tier at origination.
type Rating uint8

const (
	RatingA Rating = iota
	RatingB
	RatingC
	RatingD
)

// Valid reports whether the rating is one of the defined tiers.
func (r Rating) Valid() bool {
	return r <= RatingD
}

func (r Rating) String() string {
	switch r {
	case RatingA:
		return "A"
	case RatingB:
		return "B"
	case RatingC:
		return "C"
	case RatingD:
		return "D"
	default:
		return fmt.Sprintf("Rating(%d)", uint8(r))
	}
}

// ParseRating converts the letter form used by administrators into a Rating.
func ParseRating(s string) (Rating, error) {
	switch s {
	case "A", "a":
		return RatingA, nil
	case "B", "b":
		return RatingB, nil
	case "C", "c":
		return RatingC, nil
	case "D", "d":
		return RatingD, nil
	}
	return 0, fmt.Errorf("lending: unknown rating %q", s)
}

// LoanState tracks a loan through its lifecycle. Open is the only
// non-terminal state; no transition ever leaves a terminal state.
type LoanState uint8

const (
	LoanOpen LoanState = iota
	LoanRepaid
	LoanLiquidated
	LoanDefaulted
)

// Terminal reports whether the state admits no further transitions.
func (s LoanState) Terminal() bool {
	return s != LoanOpen
}

func (s LoanState) String() string {
	switch s {
	case LoanOpen:
		return "open"
	case LoanRepaid:
		return "repaid"
	case LoanLiquidated:
		return "liquidated"
	case LoanDefaulted:
		return "defaulted"
	default:
		return fmt.Sprintf("LoanState(%d)", uint8(s))
	}
}

// CollateralContract records a registered NFT contract. Removal only blocks
// new loans; existing loans keep referencing the contract.
type CollateralContract struct {
	Address   crypto.Address
	Supported bool
}

// PaymentToken records a registered loan currency. Decimals are fixed by the
// first registration and can never change afterwards, since repricing a
// token would silently reprice every open loan denominated in it.
type PaymentToken struct {
	Address   crypto.Address
	Supported bool
	Decimals  uint8
}

// Valuation is the administrator appraisal for a single NFT. Only the most
// recent valuation is retained.
type Valuation struct {
	Contract       crypto.Address
	TokenID        *big.Int
	AppraisedValue *big.Int
	Rating         Rating
	SetAt          uint64
}

// Loan is the central ledger entity. Amount values are integers in the
// payment token's smallest unit.
type Loan struct {
	ID                  uint64
	Borrower            crypto.Address
	CollateralContract  crypto.Address
	TokenID             *big.Int
	PaymentToken        crypto.Address
	Principal           *big.Int
	RatingAtOrigination Rating
	OriginatedAt        uint64
	LastAccrualAt       uint64
	AccruedInterest     *big.Int
	DueBy               uint64
	State               LoanState
}

// Owed returns principal plus capitalized interest as of LastAccrualAt.
func (l *Loan) Owed() *big.Int {
	owed := new(big.Int)
	if l == nil {
		return owed
	}
	if l.Principal != nil {
		owed.Add(owed, l.Principal)
	}
	if l.AccruedInterest != nil {
		owed.Add(owed, l.AccruedInterest)
	}
	return owed
}

// Clone returns a deep copy so callers can hand loans across API boundaries
// without aliasing ledger-owned big.Int values.
func (l *Loan) Clone() *Loan {
	if l == nil {
		return nil
	}
	clone := *l
	if l.TokenID != nil {
		clone.TokenID = new(big.Int).Set(l.TokenID)
	}
	if l.Principal != nil {
		clone.Principal = new(big.Int).Set(l.Principal)
	}
	if l.AccruedInterest != nil {
		clone.AccruedInterest = new(big.Int).Set(l.AccruedInterest)
	}
	return &clone
}
