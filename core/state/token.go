package state

import (
	"fmt"
	"math/big"

	"mvxlend/crypto"
)

// TokenBalance returns the fungible balance a holder has in the given token.
// Unknown pairs report zero.
func (m *Manager) TokenBalance(token, holder crypto.Address) (*big.Int, error) {
	if m == nil {
		return nil, fmt.Errorf("token: state manager not initialised")
	}
	balance := new(big.Int)
	if _, err := m.KVGet(tokenBalanceKey(token.Bytes(), holder.Bytes()), balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// TokenSetBalance persists the holder's balance in the given token.
func (m *Manager) TokenSetBalance(token, holder crypto.Address, balance *big.Int) error {
	if m == nil {
		return fmt.Errorf("token: state manager not initialised")
	}
	if balance == nil || balance.Sign() < 0 {
		return fmt.Errorf("token: balance must be non-negative")
	}
	return m.KVPut(tokenBalanceKey(token.Bytes(), holder.Bytes()), balance)
}

// NFTOwner returns the current owner of the NFT. The boolean reports whether
// the token has been minted.
func (m *Manager) NFTOwner(contract crypto.Address, tokenID *big.Int) (crypto.Address, bool, error) {
	if m == nil {
		return crypto.Address{}, false, fmt.Errorf("nft: state manager not initialised")
	}
	var owner []byte
	ok, err := m.KVGet(nftKey(nftOwnerPrefix, contract.Bytes(), tokenID), &owner)
	if err != nil || !ok {
		return crypto.Address{}, ok, err
	}
	return restoreAddress(owner), true, nil
}

// NFTSetOwner persists the owner of the NFT.
func (m *Manager) NFTSetOwner(contract crypto.Address, tokenID *big.Int, owner crypto.Address) error {
	if m == nil {
		return fmt.Errorf("nft: state manager not initialised")
	}
	return m.KVPut(nftKey(nftOwnerPrefix, contract.Bytes(), tokenID), owner.Bytes())
}
