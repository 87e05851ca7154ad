package lending

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"mvxlend/crypto"
	nativecommon "mvxlend/native/common"
)

const moduleName = "lending"

var errLiquidationRecipient = errors.New("lending engine: liquidation recipient not configured")

// engineState is the persistence surface the loan ledger mutates. The engine
// never talks to storage directly; the host binds a transactional state view
// per operation so a failed call leaves no partial writes behind.
type engineState interface {
	LendingGetCollateral(addr crypto.Address) (*CollateralContract, bool, error)
	LendingPutCollateral(record *CollateralContract) error
	LendingGetPaymentToken(addr crypto.Address) (*PaymentToken, bool, error)
	LendingPutPaymentToken(record *PaymentToken) error
	LendingGetValuation(contract crypto.Address, tokenID *big.Int) (*Valuation, bool, error)
	LendingPutValuation(record *Valuation) error
	LendingGetLoan(id uint64) (*Loan, bool, error)
	LendingPutLoan(loan *Loan) error
	LendingNextLoanID() (uint64, error)
	LendingGetLock(contract crypto.Address, tokenID *big.Int) (uint64, bool, error)
	LendingPutLock(contract crypto.Address, tokenID *big.Int, loanID uint64) error
	LendingDeleteLock(contract crypto.Address, tokenID *big.Int) error
	LendingPaused() (bool, error)
	LendingSetPaused(paused bool) error
}

// TokenLedger is the fungible debit/credit capability. A returned error is a
// hard abort of the enclosing ledger operation.
type TokenLedger interface {
	Transfer(token, from, to crypto.Address, amount *big.Int) error
}

// NFTCustodian moves NFT custody between accounts. Same abort-on-failure
// contract as TokenLedger.
type NFTCustodian interface {
	Transfer(contract, from, to crypto.Address, tokenID *big.Int) error
	OwnerOf(contract crypto.Address, tokenID *big.Int) (crypto.Address, error)
}

// Clock supplies the ledger's notion of now. Injectable so accrual and
// liquidation guards are testable without wall-clock sleeps.
type Clock interface {
	Now() time.Time
}

// Engine orchestrates the state transitions of the NFT-collateral loan
// ledger. While a loan is open the NFT is held by the engine's module
// address; principal is disbursed from, and repaid to, the treasury address.
type Engine struct {
	state                engineState
	tokens               TokenLedger
	custody              NFTCustodian
	clock                Clock
	params               RiskParameters
	moduleAddress        crypto.Address
	treasury             crypto.Address
	liquidationRecipient crypto.Address
	admins               map[string]struct{}
	pending              []Event
}

// NewEngine constructs a lending engine configured with the custody and
// treasury addresses plus the administrator-set risk parameters.
func NewEngine(moduleAddr, treasuryAddr crypto.Address, params RiskParameters) *Engine {
	return &Engine{
		moduleAddress: moduleAddr,
		treasury:      treasuryAddr,
		params:        params,
		admins:        make(map[string]struct{}),
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetTokenLedger wires the fungible token transfer capability.
func (e *Engine) SetTokenLedger(tokens TokenLedger) { e.tokens = tokens }

// SetCustody wires the NFT custody capability.
func (e *Engine) SetCustody(custody NFTCustodian) { e.custody = custody }

// SetClock wires the timestamp source used for accrual and due checks.
func (e *Engine) SetClock(clock Clock) { e.clock = clock }

// SetLiquidationRecipient configures where seized collateral is sent.
func (e *Engine) SetLiquidationRecipient(addr crypto.Address) {
	e.liquidationRecipient = addr
}

// SetAdmins replaces the administrator role table.
func (e *Engine) SetAdmins(addrs []crypto.Address) {
	admins := make(map[string]struct{}, len(addrs))
	for _, addr := range addrs {
		admins[string(addr.Bytes())] = struct{}{}
	}
	e.admins = admins
}

// DrainEvents returns the events recorded by the operations executed against
// this engine binding and clears the pending list. The host publishes them
// only after the enclosing state transaction has committed.
func (e *Engine) DrainEvents() []Event {
	events := e.pending
	e.pending = nil
	return events
}

func (e *Engine) emit(ev Event) {
	e.pending = append(e.pending, ev)
}

func (e *Engine) requireAdmin(caller crypto.Address) error {
	if _, ok := e.admins[string(caller.Bytes())]; !ok {
		return ErrPermissionDenied
	}
	return nil
}

type pauseFlag bool

func (p pauseFlag) IsPaused(string) bool { return bool(p) }

func (e *Engine) guard() error {
	paused, err := e.state.LendingPaused()
	if err != nil {
		return err
	}
	return nativecommon.Guard(pauseFlag(paused), moduleName)
}

func (e *Engine) ready() error {
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.tokens == nil:
		return errNilTokens
	case e.custody == nil:
		return errNilCustody
	case e.clock == nil:
		return errNilClock
	}
	return nil
}

func (e *Engine) now() uint64 {
	ts := e.clock.Now().Unix()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// SetPaused halts (or resumes) all borrower-facing mutations. Administrators
// stay able to reconfigure the module while it is paused.
func (e *Engine) SetPaused(caller crypto.Address, paused bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	return e.state.LendingSetPaused(paused)
}

// OpenLoan originates a loan for the borrower against the supplied NFT. The
// NFT moves into module custody and the principal, bounded by the appraised
// value and the rating's LTV, is disbursed from the treasury. The
// "not already locked" check and the lock write execute inside the same
// serialized state transaction, so two racing originations on one NFT can
// never both succeed.
func (e *Engine) OpenLoan(borrower, contract crypto.Address, tokenID *big.Int, paymentToken crypto.Address) (*Loan, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if borrower.IsZero() || tokenID == nil || tokenID.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	coll, ok, err := e.state.LendingGetCollateral(contract)
	if err != nil {
		return nil, err
	}
	if !ok || !coll.Supported {
		return nil, ErrNotSupported
	}
	tok, ok, err := e.state.LendingGetPaymentToken(paymentToken)
	if err != nil {
		return nil, err
	}
	if !ok || !tok.Supported {
		return nil, ErrNotSupported
	}

	valuation, ok, err := e.state.LendingGetValuation(contract, tokenID)
	if err != nil {
		return nil, err
	}
	if !ok || valuation.AppraisedValue == nil || valuation.AppraisedValue.Sign() <= 0 {
		return nil, ErrNotAppraised
	}

	if _, locked, err := e.state.LendingGetLock(contract, tokenID); err != nil {
		return nil, err
	} else if locked {
		return nil, ErrAlreadyLocked
	}

	principal := principalForValue(valuation.AppraisedValue, e.params.LTV(valuation.Rating))
	if principal.Sign() == 0 {
		return nil, ErrInsufficientCollateralRating
	}
	if e.params.MinPrincipal != nil && principal.Cmp(e.params.MinPrincipal) < 0 {
		return nil, ErrInsufficientCollateralRating
	}

	now := e.now()

	// Invariant checks are done; value transfers come last so any failure
	// aborts the whole operation before a loan record exists.
	if err := e.custody.Transfer(contract, borrower, e.moduleAddress, tokenID); err != nil {
		return nil, fmt.Errorf("lending: collateral transfer: %w", err)
	}
	if err := e.tokens.Transfer(paymentToken, e.treasury, borrower, principal); err != nil {
		return nil, fmt.Errorf("lending: principal disbursement: %w", err)
	}

	id, err := e.state.LendingNextLoanID()
	if err != nil {
		return nil, err
	}
	loan := &Loan{
		ID:                  id,
		Borrower:            borrower,
		CollateralContract:  contract,
		TokenID:             new(big.Int).Set(tokenID),
		PaymentToken:        paymentToken,
		Principal:           principal,
		RatingAtOrigination: valuation.Rating,
		OriginatedAt:        now,
		LastAccrualAt:       now,
		AccruedInterest:     big.NewInt(0),
		DueBy:               now + e.params.TermSeconds,
		State:               LoanOpen,
	}
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.LendingPutLock(contract, tokenID, id); err != nil {
		return nil, err
	}

	e.emit(LoanOpened{
		ID:        eventID(),
		LoanID:    id,
		Borrower:  borrower,
		Principal: new(big.Int).Set(principal),
		Rating:    valuation.Rating,
		DueBy:     loan.DueBy,
	})
	return loan.Clone(), nil
}

// Repay applies a payment to an open loan. Any account may pay on the
// borrower's behalf; funds always flow payer to treasury and the NFT always
// returns to the borrower. Interest is settled before principal. A payment
// covering the full owed amount transfers exactly that amount, never more,
// and closes the loan.
func (e *Engine) Repay(payer crypto.Address, loanID uint64, amount *big.Int) (*Loan, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInsufficientPayment
	}

	loan, ok, err := e.state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	if loan.State.Terminal() {
		return nil, ErrLoanClosed
	}

	e.accrue(loan, e.now())
	owed := loan.Owed()

	if amount.Cmp(owed) >= 0 {
		if err := e.tokens.Transfer(loan.PaymentToken, payer, e.treasury, owed); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInsufficientPayment, err)
		}
		if err := e.custody.Transfer(loan.CollateralContract, e.moduleAddress, loan.Borrower, loan.TokenID); err != nil {
			return nil, fmt.Errorf("lending: collateral release: %w", err)
		}
		loan.State = LoanRepaid
		if err := e.state.LendingPutLoan(loan); err != nil {
			return nil, err
		}
		if err := e.state.LendingDeleteLock(loan.CollateralContract, loan.TokenID); err != nil {
			return nil, err
		}
		e.emit(LoanRepayment{ID: eventID(), LoanID: loanID, Payer: payer, Amount: owed, Final: true})
		return loan.Clone(), nil
	}

	if err := e.tokens.Transfer(loan.PaymentToken, payer, e.treasury, amount); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientPayment, err)
	}
	remaining := new(big.Int).Set(amount)
	if remaining.Cmp(loan.AccruedInterest) <= 0 {
		loan.AccruedInterest = new(big.Int).Sub(loan.AccruedInterest, remaining)
	} else {
		remaining.Sub(remaining, loan.AccruedInterest)
		loan.AccruedInterest = big.NewInt(0)
		loan.Principal = new(big.Int).Sub(loan.Principal, remaining)
	}
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	e.emit(LoanRepayment{ID: eventID(), LoanID: loanID, Payer: payer, Amount: new(big.Int).Set(amount), Final: false})
	return loan.Clone(), nil
}

// Liquidate seizes the collateral of an overdue open loan. Callable by
// anyone; the guard is strict, so a call at exactly dueBy still fails.
func (e *Engine) Liquidate(caller crypto.Address, loanID uint64) (*Loan, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if e.liquidationRecipient.IsZero() {
		return nil, errLiquidationRecipient
	}

	loan, ok, err := e.state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	if loan.State.Terminal() {
		return nil, ErrLoanClosed
	}

	now := e.now()
	e.accrue(loan, now)
	if now <= loan.DueBy {
		return nil, ErrLoanNotOverdue
	}

	if err := e.custody.Transfer(loan.CollateralContract, e.moduleAddress, e.liquidationRecipient, loan.TokenID); err != nil {
		return nil, fmt.Errorf("lending: collateral seizure: %w", err)
	}
	loan.State = LoanLiquidated
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.LendingDeleteLock(loan.CollateralContract, loan.TokenID); err != nil {
		return nil, err
	}
	e.emit(LoanLiquidation{ID: eventID(), LoanID: loanID, Caller: caller, Recipient: e.liquidationRecipient})
	return loan.Clone(), nil
}

// MarkDefaulted is the administrative terminal path for collateral that
// cannot go through normal liquidation, e.g. a delisted contract. No value
// transfer happens; the NFT stays in module custody for out-of-band
// resolution, but the lock is released.
func (e *Engine) MarkDefaulted(caller crypto.Address, loanID uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.clock == nil {
		return nil, errNilClock
	}
	if err := e.requireAdmin(caller); err != nil {
		return nil, err
	}

	loan, ok, err := e.state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	if loan.State.Terminal() {
		return nil, ErrLoanClosed
	}

	e.accrue(loan, e.now())
	loan.State = LoanDefaulted
	if err := e.state.LendingPutLoan(loan); err != nil {
		return nil, err
	}
	if err := e.state.LendingDeleteLock(loan.CollateralContract, loan.TokenID); err != nil {
		return nil, err
	}
	e.emit(LoanDefault{ID: eventID(), LoanID: loanID})
	return loan.Clone(), nil
}

// GetLoan returns a copy of the loan record.
func (e *Engine) GetLoan(loanID uint64) (*Loan, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	loan, ok, err := e.state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	return loan.Clone(), nil
}

// QuoteAccruedInterest projects the interest owed as of now without
// committing the accrual, so the stored lastAccrualAt is untouched.
func (e *Engine) QuoteAccruedInterest(loanID uint64) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if e.clock == nil {
		return nil, errNilClock
	}
	loan, ok, err := e.state.LendingGetLoan(loanID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLoanNotFound
	}
	quoted := new(big.Int)
	if loan.AccruedInterest != nil {
		quoted.Set(loan.AccruedInterest)
	}
	if loan.State.Terminal() {
		return quoted, nil
	}
	now := e.now()
	if now > loan.LastAccrualAt {
		rate := e.params.RateTier(loan.RatingAtOrigination)
		quoted.Add(quoted, AccruedInterest(loan.Principal, rate, now-loan.LastAccrualAt))
	}
	return quoted, nil
}

// accrue capitalizes interest up to now. Accrual is monotonic and, because
// zero elapsed time yields zero interest, idempotent at a fixed timestamp.
func (e *Engine) accrue(loan *Loan, now uint64) {
	if loan == nil || now <= loan.LastAccrualAt {
		return
	}
	if loan.AccruedInterest == nil {
		loan.AccruedInterest = big.NewInt(0)
	}
	rate := e.params.RateTier(loan.RatingAtOrigination)
	interest := AccruedInterest(loan.Principal, rate, now-loan.LastAccrualAt)
	loan.AccruedInterest = new(big.Int).Add(loan.AccruedInterest, interest)
	loan.LastAccrualAt = now
}
