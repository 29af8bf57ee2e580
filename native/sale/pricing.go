package sale

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"

	nativecommon "launchpad/native/common"
)

// StepDuration is the length of one dutch price step in seconds.
const StepDuration uint64 = 3600

// DutchPrice returns the unit price of a dutch sale at now:
//
//	max(minPrice, maxPrice − decrement × floor((now − saleStart) / StepDuration))
//
// Before saleStart the price is maxPrice.
func DutchPrice(maxPrice, minPrice, decrement *big.Int, saleStart, now uint64) (*big.Int, error) {
	maxP, err := toU256(maxPrice)
	if err != nil {
		return nil, err
	}
	minP, err := toU256(minPrice)
	if err != nil {
		return nil, err
	}
	dec, err := toU256(decrement)
	if err != nil {
		return nil, err
	}
	if minP.Gt(maxP) {
		return nil, fmt.Errorf("%w: min above max", nativecommon.ErrInvalidPricing)
	}
	if now <= saleStart {
		return maxP.ToBig(), nil
	}
	steps := uint256.NewInt((now - saleStart) / StepDuration)
	drop, overflow := new(uint256.Int).MulOverflow(dec, steps)
	span := new(uint256.Int).Sub(maxP, minP)
	if overflow || !drop.Lt(span) {
		return minP.ToBig(), nil
	}
	return new(uint256.Int).Sub(maxP, drop).ToBig(), nil
}

// total returns unit × quantity, failing on 256-bit overflow.
func total(unit *big.Int, quantity uint64) (*big.Int, error) {
	u, err := toU256(unit)
	if err != nil {
		return nil, err
	}
	out, overflow := new(uint256.Int).MulOverflow(u, uint256.NewInt(quantity))
	if overflow {
		return nil, fmt.Errorf("%w: total overflows", nativecommon.ErrInvalidPricing)
	}
	return out.ToBig(), nil
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative amount", nativecommon.ErrInvalidPricing)
	}
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: amount exceeds 256 bits", nativecommon.ErrInvalidPricing)
	}
	return out, nil
}

func validateListing(mechanism Mechanism, l Listing) error {
	if l.Quantity == 0 {
		return fmt.Errorf("%w: asset %d has zero quantity", nativecommon.ErrInvalidQuantity, l.AssetID)
	}
	switch mechanism {
	case MechanismRaise:
		if l.Price == nil || l.Price.Sign() <= 0 {
			return fmt.Errorf("%w: raise price must be positive", nativecommon.ErrInvalidPricing)
		}
		if _, err := total(l.Price, l.Quantity); err != nil {
			return err
		}
	case MechanismDutch:
		if l.MaxPrice == nil || l.MaxPrice.Sign() <= 0 {
			return fmt.Errorf("%w: max price must be positive", nativecommon.ErrInvalidPricing)
		}
		if l.MinPrice == nil || l.MinPrice.Sign() < 0 {
			return fmt.Errorf("%w: min price must not be negative", nativecommon.ErrInvalidPricing)
		}
		if l.MinPrice.Cmp(l.MaxPrice) > 0 {
			return fmt.Errorf("%w: min %s above max %s", nativecommon.ErrInvalidPricing, l.MinPrice, l.MaxPrice)
		}
		if l.Decrement == nil || l.Decrement.Sign() <= 0 {
			return fmt.Errorf("%w: decrement must be positive", nativecommon.ErrInvalidPricing)
		}
		if _, err := total(l.MaxPrice, l.Quantity); err != nil {
			return err
		}
		if _, err := toU256(l.Decrement); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown mechanism %d", nativecommon.ErrInvalidPricing, mechanism)
	}
	return nil
}
