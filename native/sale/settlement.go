package sale

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	"launchpad/native/project"
)

var errSplitMismatch = errors.New("sale engine: settlement split does not balance")

// Split is the three-way division of a settled bid.
type Split struct {
	Gross    *big.Int
	Residual *big.Int
	Platform *big.Int
	Seller   *big.Int
	Royalty  *big.Int
}

// Total returns Platform + Seller + Royalty.
func (s Split) Total() *big.Int {
	out := new(big.Int).Add(s.Platform, s.Seller)
	return out.Add(out, s.Royalty)
}

// ComputeSplit divides gross between platform, seller and royalty receiver.
//
// Admin projects pay no seller share: the platform takes gross minus royalty.
// Owner projects pay the platform floor(gross × percent / 100%), cap royalty at
// the remainder and pay the seller what is left. The residual is added to the
// platform share in both cases.
func ComputeSplit(gross, residual, royaltyAmount *big.Int, createdByAdmin bool, percent uint64) (Split, error) {
	g, err := toU256(gross)
	if err != nil {
		return Split{}, err
	}
	res, err := toU256(residual)
	if err != nil {
		return Split{}, err
	}
	roy, err := toU256(royaltyAmount)
	if err != nil {
		return Split{}, err
	}
	if percent > project.MaxPercent {
		return Split{}, fmt.Errorf("sale engine: percent %d exceeds %d", percent, project.MaxPercent)
	}

	var platform, seller *uint256.Int
	if createdByAdmin {
		if roy.Gt(g) {
			roy = new(uint256.Int).Set(g)
		}
		platform = new(uint256.Int).Sub(g, roy)
		seller = new(uint256.Int)
	} else {
		var overflow bool
		platform, overflow = new(uint256.Int).MulDivOverflow(g, uint256.NewInt(percent), uint256.NewInt(project.MaxPercent))
		if overflow {
			return Split{}, fmt.Errorf("sale engine: platform share overflows")
		}
		remainder := new(uint256.Int).Sub(g, platform)
		if roy.Gt(remainder) {
			roy = remainder.Clone()
		}
		seller = new(uint256.Int).Sub(remainder, roy)
	}
	platform, overflow := new(uint256.Int).AddOverflow(platform, res)
	if overflow {
		return Split{}, fmt.Errorf("sale engine: platform share overflows")
	}

	split := Split{
		Gross:    g.ToBig(),
		Residual: res.ToBig(),
		Platform: platform.ToBig(),
		Seller:   seller.ToBig(),
		Royalty:  roy.ToBig(),
	}
	want := new(big.Int).Add(split.Gross, split.Residual)
	if split.Total().Cmp(want) != 0 {
		return Split{}, fmt.Errorf("%w: %s != %s", errSplitMismatch, split.Total(), want)
	}
	return split, nil
}
