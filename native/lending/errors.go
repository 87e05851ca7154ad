package lending

import "errors"

// Ledger failure taxonomy. Every mutating entry point either fully succeeds
// or fails with one of these sentinels and no observable state change.
var (
	// ErrPermissionDenied rejects a non-administrator invoking an
	// admin-only entry point.
	ErrPermissionDenied = errors.New("lending: permission denied")
	// ErrNotSupported rejects collateral contracts or payment tokens that
	// are not registered.
	ErrNotSupported = errors.New("lending: contract or token not supported")
	// ErrNotAppraised rejects loans against NFTs without a valuation on
	// file.
	ErrNotAppraised = errors.New("lending: nft not appraised")
	// ErrAlreadyLocked rejects origination against an NFT that already
	// backs an open loan.
	ErrAlreadyLocked = errors.New("lending: nft already collateralized")
	// ErrInsufficientCollateralRating rejects loans whose computed
	// principal falls below the configured minimum.
	ErrInsufficientCollateralRating = errors.New("lending: collateral rating yields no principal")
	// ErrInsufficientPayment rejects repayments whose funds transfer fails
	// or whose amount is not positive.
	ErrInsufficientPayment = errors.New("lending: insufficient payment")
	// ErrLoanNotOverdue rejects liquidation before the due time has
	// passed.
	ErrLoanNotOverdue = errors.New("lending: loan not overdue")
	// ErrConfigurationConflict rejects changes to immutable configuration
	// such as a payment token's decimals.
	ErrConfigurationConflict = errors.New("lending: configuration conflict")
	// ErrLoanNotFound rejects operations referencing an unknown loan id.
	ErrLoanNotFound = errors.New("lending: loan not found")
	// ErrLoanClosed rejects mutations of loans in a terminal state.
	ErrLoanClosed = errors.New("lending: loan already closed")
	// ErrInvalidAmount rejects non-positive valuations or amounts.
	ErrInvalidAmount = errors.New("lending: amount must be positive")
)

var (
	errNilState   = errors.New("lending engine: state not configured")
	errNilTokens  = errors.New("lending engine: token ledger not configured")
	errNilCustody = errors.New("lending engine: nft custody not configured")
	errNilClock   = errors.New("lending engine: clock not configured")
)
