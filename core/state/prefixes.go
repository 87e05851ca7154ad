package state

import (
	"encoding/binary"
	"math/big"
)

var (
	lendingLoanSeqKeyBytes  = []byte("lending/loan-seq")
	lendingPausedKeyBytes   = []byte("lending/paused")
	lendingLoanPrefix       = []byte("lending/loan/")
	lendingLockPrefix       = []byte("lending/lock/")
	lendingCollateralPrefix = []byte("lending/collateral/")
	lendingPayTokenPrefix   = []byte("lending/paytoken/")
	lendingValuationPrefix  = []byte("lending/valuation/")
	tokenBalancePrefix      = []byte("token/balance/")
	nftOwnerPrefix          = []byte("nft/owner/")
)

func lendingLoanKey(id uint64) []byte {
	buf := make([]byte, 0, len(lendingLoanPrefix)+8)
	buf = append(buf, lendingLoanPrefix...)
	var enc [8]byte
	binary.BigEndian.PutUint64(enc[:], id)
	return append(buf, enc[:]...)
}

// nftKey builds a key over a 20-byte contract address followed by the token
// identifier bytes. Contract addresses are fixed width, so the concatenation
// is unambiguous.
func nftKey(prefix, contract []byte, tokenID *big.Int) []byte {
	buf := make([]byte, 0, len(prefix)+len(contract)+16)
	buf = append(buf, prefix...)
	buf = append(buf, contract...)
	if tokenID != nil {
		buf = append(buf, tokenID.Bytes()...)
	}
	return buf
}

func addrKey(prefix, addr []byte) []byte {
	buf := make([]byte, 0, len(prefix)+len(addr))
	buf = append(buf, prefix...)
	return append(buf, addr...)
}

func tokenBalanceKey(token, holder []byte) []byte {
	buf := make([]byte, 0, len(tokenBalancePrefix)+len(token)+len(holder))
	buf = append(buf, tokenBalancePrefix...)
	buf = append(buf, token...)
	return append(buf, holder...)
}
