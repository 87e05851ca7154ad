package core

import (
	"fmt"
	"math/big"
	"sync"
	"time"

	"mvxlend/core/state"
	"mvxlend/crypto"
	"mvxlend/native/lending"
	"mvxlend/native/nft"
	"mvxlend/native/token"
	"mvxlend/storage"
)

// Config carries the ledger deployment parameters the node binds into every
// engine invocation.
type Config struct {
	// ModuleAddress holds NFT collateral while loans are open.
	ModuleAddress crypto.Address
	// Treasury disburses principal and receives repayments.
	Treasury crypto.Address
	// LiquidationRecipient receives seized collateral.
	LiquidationRecipient crypto.Address
	// Admins are the accounts allowed to call admin-only entry points.
	Admins []crypto.Address
	// Params are the administrator-set lending terms.
	Params lending.RiskParameters
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Node owns the database handle and serializes all ledger mutations. Each
// mutating call runs against a write overlay that only reaches the database
// when the whole operation succeeds, so a failed transfer can never leave a
// locked NFT without a loan record or vice versa.
type Node struct {
	mu      sync.Mutex
	db      storage.Database
	cfg     Config
	clock   lending.Clock
	emitter lending.Emitter
}

func NewNode(db storage.Database, cfg Config) (*Node, error) {
	if db == nil {
		return nil, fmt.Errorf("core: database required")
	}
	if cfg.ModuleAddress.IsZero() || cfg.Treasury.IsZero() {
		return nil, fmt.Errorf("core: module and treasury addresses required")
	}
	return &Node{db: db, cfg: cfg, clock: systemClock{}}, nil
}

// SetClock overrides the timestamp source. Intended for tests.
func (n *Node) SetClock(clock lending.Clock) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if clock != nil {
		n.clock = clock
	}
}

// SetEmitter wires the event sink notified after committed transitions.
func (n *Node) SetEmitter(emitter lending.Emitter) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emitter = emitter
}

func (n *Node) bindEngine(manager *state.Manager) *lending.Engine {
	engine := lending.NewEngine(n.cfg.ModuleAddress, n.cfg.Treasury, n.cfg.Params)
	engine.SetState(manager)
	engine.SetTokenLedger(token.NewLedger(manager))
	engine.SetCustody(nft.NewRegistry(manager))
	engine.SetClock(n.clock)
	engine.SetAdmins(n.cfg.Admins)
	engine.SetLiquidationRecipient(n.cfg.LiquidationRecipient)
	return engine
}

// WithLending runs fn against an engine bound to a transactional state view.
// The overlay is flushed only when fn returns nil; recorded events are
// published after the flush.
func (n *Node) WithLending(fn func(engine *lending.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	overlay := storage.NewOverlay(n.db)
	engine := n.bindEngine(state.NewManager(overlay))
	if err := fn(engine); err != nil {
		return err
	}
	if err := overlay.Flush(); err != nil {
		return err
	}
	if n.emitter != nil {
		for _, ev := range engine.DrainEvents() {
			n.emitter.Emit(ev)
		}
	}
	return nil
}

// ViewLending runs fn against an engine whose writes are discarded. Used for
// read views and live quotes that must not commit accrual.
func (n *Node) ViewLending(fn func(engine *lending.Engine) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	overlay := storage.NewOverlay(n.db)
	defer overlay.Close()
	return fn(n.bindEngine(state.NewManager(overlay)))
}

// MintToken provisions fungible balance for an account.
func (n *Node) MintToken(tok, holder crypto.Address, amount *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	overlay := storage.NewOverlay(n.db)
	ledger := token.NewLedger(state.NewManager(overlay))
	if err := ledger.Mint(tok, holder, amount); err != nil {
		return err
	}
	return overlay.Flush()
}

// TokenBalance reports an account's balance in the token.
func (n *Node) TokenBalance(tok, holder crypto.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return token.NewLedger(state.NewManager(n.db)).BalanceOf(tok, holder)
}

// MintNFT provisions an NFT owned by the holder.
func (n *Node) MintNFT(contract, holder crypto.Address, tokenID *big.Int) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	overlay := storage.NewOverlay(n.db)
	registry := nft.NewRegistry(state.NewManager(overlay))
	if err := registry.Mint(contract, holder, tokenID); err != nil {
		return err
	}
	return overlay.Flush()
}

// NFTOwner reports the current owner of the NFT.
func (n *Node) NFTOwner(contract crypto.Address, tokenID *big.Int) (crypto.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return nft.NewRegistry(state.NewManager(n.db)).OwnerOf(contract, tokenID)
}
