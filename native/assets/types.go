package assets

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

// MaxRoyaltyBps bounds the royalty a collection may declare.
const MaxRoyaltyBps = 10_000

var (
	errNilState        = errors.New("assets: state not configured")
	errEmptyName       = errors.New("assets: name and symbol required")
	errRoyaltyTooHigh  = errors.New("assets: royalty exceeds 10000 bps")
	errZeroOwner       = errors.New("assets: owner must not be zero")
	errZeroDestination = errors.New("assets: destination must not be zero")
)

// Collection describes a deployed asset contract. Single-kind collections
// hold exactly one unit per asset id; multi-kind collections hold a quantity.
type Collection struct {
	Address         common.Address
	Owner           common.Address
	Name            string
	Symbol          string
	IsSingle        bool
	RoyaltyReceiver common.Address
	RoyaltyBps      uint64
	LastAssetID     uint64
	Controllers     []common.Address
}

// Clone returns a deep copy of the collection.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := *c
	out.Controllers = append([]common.Address(nil), c.Controllers...)
	return &out
}

func (c *Collection) isController(addr common.Address) bool {
	for _, ctrl := range c.Controllers {
		if ctrl == addr {
			return true
		}
	}
	return false
}

// Royalty is the declared royalty of an asset. Supported is false when the
// collection declares no receiver.
type Royalty struct {
	Supported bool
	Receiver  common.Address
	RateBps   uint64
}
