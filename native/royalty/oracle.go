package royalty

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"launchpad/native/custody"
)

const (
	// BpsDenominator is the basis-point scale of royalty rates.
	BpsDenominator = 10_000
	// DefaultCapBps is the platform ceiling applied to declared rates.
	DefaultCapBps = 1_000
)

var (
	errNilRouter   = errors.New("royalty oracle: custody router not configured")
	errNilProjects = errors.New("royalty oracle: project lookup not configured")
	errCapTooHigh  = errors.New("royalty oracle: cap exceeds 10000 bps")
	errOverflow    = errors.New("royalty oracle: amount overflows 256 bits")
)

type adapterSource interface {
	For(collection common.Address) (custody.Adapter, error)
}

type projectLookup interface {
	CollectionOf(projectID uint64) (common.Address, error)
}

// Info is the royalty owed on a gross amount. Supported is false when the
// asset declares no royalty, in which case Amount is zero.
type Info struct {
	Supported bool
	Receiver  common.Address
	RateBps   uint64
	Amount    *big.Int
}

// Oracle resolves declared royalties through the custody adapters and caps
// them at the platform ceiling.
type Oracle struct {
	adapters adapterSource
	projects projectLookup
	capBps   uint64
}

func NewOracle(adapters adapterSource) *Oracle {
	return &Oracle{adapters: adapters, capBps: DefaultCapBps}
}

// SetProjects configures the lookup used by GetRoyaltyInfo.
func (o *Oracle) SetProjects(projects projectLookup) { o.projects = projects }

// SetCap overrides the platform royalty ceiling.
func (o *Oracle) SetCap(bps uint64) error {
	if bps > BpsDenominator {
		return errCapTooHigh
	}
	o.capBps = bps
	return nil
}

func (o *Oracle) Cap() uint64 { return o.capBps }

// GetRoyaltyInfo returns the royalty owed on gross for assetID of the
// project's collection.
func (o *Oracle) GetRoyaltyInfo(projectID, assetID uint64, gross *big.Int) (Info, error) {
	if o.projects == nil {
		return Info{}, errNilProjects
	}
	collection, err := o.projects.CollectionOf(projectID)
	if err != nil {
		return Info{}, err
	}
	return o.Info(collection, assetID, gross)
}

// Info returns the royalty owed on gross for assetID of collection.
func (o *Oracle) Info(collection common.Address, assetID uint64, gross *big.Int) (Info, error) {
	if o == nil || o.adapters == nil {
		return Info{}, errNilRouter
	}
	adapter, err := o.adapters.For(collection)
	if err != nil {
		return Info{}, err
	}
	declared, err := adapter.RoyaltyOf(assetID)
	if err != nil {
		return Info{}, err
	}
	if !declared.Supported {
		return Info{Amount: new(big.Int)}, nil
	}
	rate := declared.RateBps
	if rate > o.capBps {
		rate = o.capBps
	}
	amount, err := Amount(gross, rate)
	if err != nil {
		return Info{}, err
	}
	return Info{Supported: true, Receiver: declared.Receiver, RateBps: rate, Amount: amount}, nil
}

// Amount computes floor(gross × rateBps / 10000).
func Amount(gross *big.Int, rateBps uint64) (*big.Int, error) {
	if gross == nil || gross.Sign() <= 0 || rateBps == 0 {
		return new(big.Int), nil
	}
	g, overflow := uint256.FromBig(gross)
	if overflow {
		return nil, fmt.Errorf("%w: gross %s", errOverflow, gross)
	}
	out, overflow := new(uint256.Int).MulDivOverflow(g, uint256.NewInt(rateBps), uint256.NewInt(BpsDenominator))
	if overflow {
		return nil, errOverflow
	}
	return out.ToBig(), nil
}
