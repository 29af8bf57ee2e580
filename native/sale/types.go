package sale

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Mechanism selects how a sale is priced.
type Mechanism uint8

const (
	MechanismRaise Mechanism = iota + 1
	MechanismDutch
)

func (m Mechanism) String() string {
	switch m {
	case MechanismRaise:
		return "raise"
	case MechanismDutch:
		return "dutch"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a sale. Transitions are one-way:
// Open → Sold or Open → Closed.
type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusSold
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusSold:
		return "sold"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Sale is a single escrowed listing. Prices are per unit; Price applies to
// raise sales and MaxPrice/MinPrice/Decrement to dutch sales.
type Sale struct {
	ID         uint64
	ProjectID  uint64
	Collection common.Address
	AssetID    uint64
	Quantity   uint64
	Mechanism  Mechanism
	Price      *big.Int
	MaxPrice   *big.Int
	MinPrice   *big.Int
	Decrement  *big.Int
	Status     Status
	Buyer      common.Address
}

func (s *Sale) normalize() {
	s.Price = cloneBigInt(s.Price)
	s.MaxPrice = cloneBigInt(s.MaxPrice)
	s.MinPrice = cloneBigInt(s.MinPrice)
	s.Decrement = cloneBigInt(s.Decrement)
}

// Listing describes one unit (or quantity) to escrow when creating sales.
type Listing struct {
	AssetID   uint64
	Quantity  uint64
	Price     *big.Int
	MaxPrice  *big.Int
	MinPrice  *big.Int
	Decrement *big.Int
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
