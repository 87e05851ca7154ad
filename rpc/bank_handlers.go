package rpc

import (
	"net/http"
)

type tokenMintParams struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
	Amount string `json:"amount"`
}

type tokenBalanceParams struct {
	Token  string `json:"token"`
	Holder string `json:"holder"`
}

type tokenBalanceResult struct {
	Token   string `json:"token"`
	Holder  string `json:"holder"`
	Balance string `json:"balance"`
}

type nftMintParams struct {
	Contract string `json:"contract"`
	Holder   string `json:"holder"`
	TokenID  string `json:"tokenId"`
}

type nftOwnerParams struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
}

type nftOwnerResult struct {
	Contract string `json:"contract"`
	TokenID  string `json:"tokenId"`
	Owner    string `json:"owner"`
}

func (s *Server) handleTokenMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	tok, err := parseAddress("token", params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	holder, err := parseAddress("holder", params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MintToken(tok, holder, amount); err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleTokenBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params tokenBalanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	tok, err := parseAddress("token", params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	holder, err := parseAddress("holder", params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.node.TokenBalance(tok, holder)
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenBalanceResult{
		Token:   tok.String(),
		Holder:  holder.String(),
		Balance: balance.String(),
	})
}

func (s *Server) handleNFTMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params nftMintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	contract, err := parseAddress("contract", params.Contract)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	holder, err := parseAddress("holder", params.Holder)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	tokenID, err := parseAmount("tokenId", params.TokenID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.node.MintNFT(contract, holder, tokenID); err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, ackResult{OK: true})
}

func (s *Server) handleNFTOwner(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params nftOwnerParams
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
	owner, err := s.node.NFTOwner(contract, tokenID)
	if err != nil {
		writeLendingError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, nftOwnerResult{
		Contract: contract.String(),
		TokenID:  tokenID.String(),
		Owner:    owner.String(),
	})
}
