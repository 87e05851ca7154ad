package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"mvxlend/crypto"
	"mvxlend/native/lending"
)

type setNFTContractParams struct {
	Caller    string `json:"caller"`
	Contract  string `json:"contract"`
	Supported bool   `json:"supported"`
}

type setPaymentTokenParams struct {
	Caller    string `json:"caller"`
	Token     string `json:"token"`
	Supported bool   `json:"supported"`
	Decimals  uint8  `json:"decimals"`
}

type setValuationParams struct {
	Caller   string `json:"caller"`
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
	Value    string `json:"value"`
	Rating   string `json:"rating"`
}

type setPausedParams struct {
	Caller string `json:"caller"`
	Paused bool   `json:"paused"`
}

type openLoanParams struct {
	Borrower     string `json:"borrower"`
	Contract     string `json:"contract"`
	TokenID      string `json:"tokenId"`
	PaymentToken string `json:"paymentToken"`
}

type repayParams struct {
	Payer  string `json:"payer"`
	LoanID uint64 `json:"loanId"`
	Amount string `json:"amount"`
}

type loanCallParams struct {
	Caller string `json:"caller"`
	LoanID uint64 `json:"loanId"`
}

type loanQueryParams struct {
	LoanID uint64 `json:"loanId"`
}

type valuationQueryParams struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
}

type loanResult struct {
	ID                  uint64 `json:"id"`
	Borrower            string `json:"borrower"`
	CollateralContract  string `json:"collateralContract"`
	TokenID             string `json:"tokenId"`
	PaymentToken        string `json:"paymentToken"`
	Principal           string `json:"principal"`
	RatingAtOrigination string `json:"ratingAtOrigination"`
	OriginatedAt        uint64 `json:"originatedAt"`
	LastAccrualAt       uint64 `json:"lastAccrualAt"`
	AccruedInterest     string `json:"accruedInterest"`
	DueBy               uint64 `json:"dueBy"`
	State               string `json:"state"`
}

type valuationResult struct {
	Contract       string `json:"contract"`
	TokenID        string `json:"tokenId"`
	AppraisedValue string `json:"appraisedValue"`
	Rating         string `json:"rating"`
	SetAt          uint64 `json:"setAt"`
}

type quoteResult struct {
	LoanID          uint64 `json:"loanId"`
	AccruedInterest string `json:"accruedInterest"`
}

type ackResult struct {
	OK bool `json:"ok"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected a single parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(field, value string) (crypto.Address, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return crypto.Address{}, fmt.Errorf("%s: %w", field, err)
	}
	return addr, nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%s: invalid integer %q", field, value)
	}
	return amount, nil
}

func loanToResult(loan *lending.Loan) loanResult {
	return loanResult{
		ID:                  loan.ID,
		Borrower:            loan.Borrower.String(),
		CollateralContract:  loan.CollateralContract.String(),
		TokenID:             loan.TokenID.String(),
		PaymentToken:        loan.PaymentToken.String(),
		Principal:           loan.Principal.String(),
		RatingAtOrigination: loan.RatingAtOrigination.String(),
		OriginatedAt:        loan.OriginatedAt,
		LastAccrualAt:       loan.LastAccrualAt,
		AccruedInterest:     loan.AccruedInterest.String(),
		DueBy:               loan.DueBy,
		State:               loan.State.String(),
	}
}

func (s *Server) handleSetSupportedNFTContract(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setNFTContractParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	contract, err := parseAddress("contract", params.Contract)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.node.WithLending(func(engine *lending.Engine) error {
		return engine.SetSupportedCollateral(caller, contract, params.Supported)
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleSetSupportedPaymentToken(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setPaymentTokenParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenAddr, err := parseAddress("token", params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.node.WithLending(func(engine *lending.Engine) error {
		return engine.SetSupportedPaymentToken(caller, tokenAddr, params.Supported, params.Decimals)
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleSetNFTValuation(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setValuationParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	contract, err := parseAddress("contract", params.Contract)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := parseAmount("tokenId", params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := parseAmount("value", params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	rating, err := lending.ParseRating(params.Rating)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.node.WithLending(func(engine *lending.Engine) error {
		return engine.SetValuation(caller, contract, tokenID, value, rating)
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleSetPaused(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params setPausedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	err = s.node.WithLending(func(engine *lending.Engine) error {
		return engine.SetPaused(caller, params.Paused)
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleOpenLoan(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params openLoanParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	borrower, err := parseAddress("borrower", params.Borrower)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	contract, err := parseAddress("contract", params.Contract)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := parseAmount("tokenId", params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	paymentToken, err := parseAddress("paymentToken", params.PaymentToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var loan *lending.Loan
	err = s.node.WithLending(func(engine *lending.Engine) error {
		opened, openErr := engine.OpenLoan(borrower, contract, tokenID, paymentToken)
		if openErr != nil {
			return openErr
		}
		loan = opened
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

func (s *Server) handleRepay(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params repayParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	payer, err := parseAddress("payer", params.Payer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var loan *lending.Loan
	err = s.node.WithLending(func(engine *lending.Engine) error {
		repaid, repayErr := engine.Repay(payer, params.LoanID, amount)
		if repayErr != nil {
			return repayErr
		}
		loan = repaid
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

func (s *Server) handleLiquidate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanCallParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var loan *lending.Loan
	err = s.node.WithLending(func(engine *lending.Engine) error {
		liquidated, liqErr := engine.Liquidate(caller, params.LoanID)
		if liqErr != nil {
			return liqErr
		}
		loan = liquidated
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

func (s *Server) handleMarkDefaulted(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanCallParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var loan *lending.Loan
	err = s.node.WithLending(func(engine *lending.Engine) error {
		defaulted, defErr := engine.MarkDefaulted(caller, params.LoanID)
		if defErr != nil {
			return defErr
		}
		loan = defaulted
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

func (s *Server) handleGetLoan(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	var loan *lending.Loan
	err := s.node.ViewLending(func(engine *lending.Engine) error {
		found, getErr := engine.GetLoan(params.LoanID)
		if getErr != nil {
			return getErr
		}
		loan = found
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, loanToResult(loan))
}

func (s *Server) handleGetValuation(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params valuationQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	contract, err := parseAddress("contract", params.Contract)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := parseAmount("tokenId", params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	var valuation *lending.Valuation
	err = s.node.ViewLending(func(engine *lending.Engine) error {
		found, getErr := engine.GetValuation(contract, tokenID)
		if getErr != nil {
			return getErr
		}
		valuation = found
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, valuationResult{
		Contract:       valuation.Contract.String(),
		TokenID:        valuation.TokenID.String(),
		AppraisedValue: valuation.AppraisedValue.String(),
		Rating:         valuation.Rating.String(),
		SetAt:          valuation.SetAt,
	})
}

func (s *Server) handleQuoteInterest(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params loanQueryParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	var quoted *big.Int
	err := s.node.ViewLending(func(engine *lending.Engine) error {
		q, quoteErr := engine.QuoteAccruedInterest(params.LoanID)
		if quoteErr != nil {
			return quoteErr
		}
		quoted = q
		return nil
	})
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, quoteResult{LoanID: params.LoanID, AccruedInterest: quoted.String()})
}
