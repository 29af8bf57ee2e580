package custody

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"launchpad/native/assets"
	nativecommon "launchpad/native/common"
)

var errNilLedger = errors.New("custody: asset ledger not configured")

// Module custody accounts. Assets listed for sale sit in EscrowAccount until
// settlement, then in VaultAccount until claimed. Bid payments pass through
// PaymentsAccount before payout.
var (
	EscrowAccount   = ModuleAddress("sale.escrow")
	VaultAccount    = ModuleAddress("distribution.vault")
	PaymentsAccount = ModuleAddress("sale.payments")
)

// ModuleAddress derives the deterministic account owned by a native module.
func ModuleAddress(name string) common.Address {
	return common.BytesToAddress(ethcrypto.Keccak256([]byte("launchpad/module/" + name))[12:])
}

// Ledger is the asset contract surface the adapters drive.
type Ledger interface {
	Collection(addr common.Address) (*assets.Collection, error)
	Transfer(operator, collection, from, to common.Address, assetID, qty uint64) error
	BalanceOf(collection, holder common.Address, assetID uint64) (uint64, error)
	RoyaltyOf(collection common.Address, assetID uint64) (assets.Royalty, error)
}

// Adapter hides whether a collection holds single units or quantities so the
// sale and distribution engines stay kind-agnostic.
type Adapter interface {
	IsSingle() bool
	TransferUnit(operator, from, to common.Address, assetID, qty uint64) error
	BalanceOf(holder common.Address, assetID uint64) (uint64, error)
	RoyaltyOf(assetID uint64) (assets.Royalty, error)
}

// Router resolves the adapter for a collection.
type Router struct {
	ledger Ledger
}

func NewRouter(ledger Ledger) *Router { return &Router{ledger: ledger} }

// For returns the kind-specific adapter for collection.
func (r *Router) For(collection common.Address) (Adapter, error) {
	if r == nil || r.ledger == nil {
		return nil, errNilLedger
	}
	col, err := r.ledger.Collection(collection)
	if err != nil {
		return nil, err
	}
	base := ledgerAdapter{ledger: r.ledger, collection: collection}
	if col.IsSingle {
		return singleAdapter{base}, nil
	}
	return batchAdapter{base}, nil
}

type ledgerAdapter struct {
	ledger     Ledger
	collection common.Address
}

func (a ledgerAdapter) BalanceOf(holder common.Address, assetID uint64) (uint64, error) {
	return a.ledger.BalanceOf(a.collection, holder, assetID)
}

func (a ledgerAdapter) RoyaltyOf(assetID uint64) (assets.Royalty, error) {
	return a.ledger.RoyaltyOf(a.collection, assetID)
}

type singleAdapter struct{ ledgerAdapter }

func (singleAdapter) IsSingle() bool { return true }

func (a singleAdapter) TransferUnit(operator, from, to common.Address, assetID, qty uint64) error {
	if qty != 1 {
		return fmt.Errorf("%w: single-unit transfer of %d", nativecommon.ErrInvalidQuantity, qty)
	}
	return a.ledger.Transfer(operator, a.collection, from, to, assetID, 1)
}

type batchAdapter struct{ ledgerAdapter }

func (batchAdapter) IsSingle() bool { return false }

func (a batchAdapter) TransferUnit(operator, from, to common.Address, assetID, qty uint64) error {
	return a.ledger.Transfer(operator, a.collection, from, to, assetID, qty)
}
