package nft

import (
	"errors"
	"fmt"
	"math/big"

	"mvxlend/crypto"
)

var (
	ErrUnknownToken = errors.New("nft: token not minted")
	ErrNotOwner     = errors.New("nft: sender does not own token")
	ErrExists       = errors.New("nft: token already minted")
)

type registryState interface {
	NFTOwner(contract crypto.Address, tokenID *big.Int) (crypto.Address, bool, error)
	NFTSetOwner(contract crypto.Address, tokenID *big.Int, owner crypto.Address) error
}

// Registry tracks NFT ownership per (contract, tokenId) and implements the
// custody capability the loan ledger locks and releases collateral through.
type Registry struct {
	state registryState
}

func NewRegistry(state registryState) *Registry {
	return &Registry{state: state}
}

// Transfer moves custody of the NFT from one account to another. It fails
// without state change when the token is unknown or from is not the owner.
func (r *Registry) Transfer(contract, from, to crypto.Address, tokenID *big.Int) error {
	if r == nil || r.state == nil {
		return fmt.Errorf("nft: registry not configured")
	}
	owner, ok, err := r.state.NFTOwner(contract, tokenID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownToken
	}
	if !owner.Equal(from) {
		return ErrNotOwner
	}
	return r.state.NFTSetOwner(contract, tokenID, to)
}

// OwnerOf returns the current owner of the NFT.
func (r *Registry) OwnerOf(contract crypto.Address, tokenID *big.Int) (crypto.Address, error) {
	if r == nil || r.state == nil {
		return crypto.Address{}, fmt.Errorf("nft: registry not configured")
	}
	owner, ok, err := r.state.NFTOwner(contract, tokenID)
	if err != nil {
		return crypto.Address{}, err
	}
	if !ok {
		return crypto.Address{}, ErrUnknownToken
	}
	return owner, nil
}

// Mint records a freshly issued NFT owned by the holder. Provisioning entry
// point for deployments and tests.
func (r *Registry) Mint(contract, holder crypto.Address, tokenID *big.Int) error {
	if r == nil || r.state == nil {
		return fmt.Errorf("nft: registry not configured")
	}
	_, ok, err := r.state.NFTOwner(contract, tokenID)
	if err != nil {
		return err
	}
	if ok {
		return ErrExists
	}
	return r.state.NFTSetOwner(contract, tokenID, holder)
}
