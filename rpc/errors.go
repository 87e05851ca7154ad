package rpc

import (
	"errors"
	"net/http"

	nativecommon "mvxlend/native/common"
	"mvxlend/native/lending"
	"mvxlend/native/nft"
	"mvxlend/native/token"
)

// writeLendingError translates ledger sentinels into JSON-RPC error codes.
func writeLendingError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, lending.ErrLoanNotFound),
		errors.Is(err, nft.ErrUnknownToken):
		writeError(w, http.StatusNotFound, id, codeNotFound, err.Error(), nil)
	case errors.Is(err, lending.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error(), nil)
	case errors.Is(err, nativecommon.ErrModulePaused):
		writeError(w, http.StatusServiceUnavailable, id, codePaused, err.Error(), nil)
	case errors.Is(err, lending.ErrConfigurationConflict),
		errors.Is(err, lending.ErrAlreadyLocked),
		errors.Is(err, lending.ErrLoanClosed),
		errors.Is(err, nft.ErrExists):
		writeError(w, http.StatusConflict, id, codeConflict, err.Error(), nil)
	case errors.Is(err, lending.ErrNotSupported),
		errors.Is(err, lending.ErrNotAppraised),
		errors.Is(err, lending.ErrInsufficientCollateralRating),
		errors.Is(err, lending.ErrInsufficientPayment),
		errors.Is(err, lending.ErrLoanNotOverdue),
		errors.Is(err, lending.ErrInvalidAmount),
		errors.Is(err, token.ErrInvalidAmount),
		errors.Is(err, token.ErrInsufficientFunds),
		errors.Is(err, nft.ErrNotOwner):
		writeError(w, http.StatusBadRequest, id, codeRejected, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, err.Error(), nil)
	}
}
