package sale

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/types"
)

const (
	EventTypeSaleCreated = "sale.created"
	EventTypeWinnerSet   = "sale.winner_set"
	EventTypeBidSettled  = "sale.bid_settled"
	EventTypeSaleClosed  = "sale.closed"
)

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// NewSaleCreatedEvent returns the canonical payload for a new listing.
func NewSaleCreatedEvent(s *Sale) *types.Event {
	attrs := map[string]string{
		"saleId":     u64(s.ID),
		"projectId":  u64(s.ProjectID),
		"collection": s.Collection.Hex(),
		"assetId":    u64(s.AssetID),
		"quantity":   u64(s.Quantity),
		"mechanism":  s.Mechanism.String(),
	}
	if s.Mechanism == MechanismDutch {
		attrs["maxPrice"] = s.MaxPrice.String()
		attrs["minPrice"] = s.MinPrice.String()
		attrs["decrement"] = s.Decrement.String()
	} else {
		attrs["price"] = s.Price.String()
	}
	return &types.Event{Type: EventTypeSaleCreated, Attributes: attrs}
}

// NewWinnerSetEvent returns the payload for a winner membership change.
func NewWinnerSetEvent(saleID uint64, addr common.Address, isWinner bool) *types.Event {
	return &types.Event{Type: EventTypeWinnerSet, Attributes: map[string]string{
		"saleId":   u64(saleID),
		"address":  addr.Hex(),
		"isWinner": strconv.FormatBool(isWinner),
	}}
}

// NewBidSettledEvent returns the payload for a settled bid.
func NewBidSettledEvent(saleID uint64, payer common.Address, split Split) *types.Event {
	return &types.Event{Type: EventTypeBidSettled, Attributes: map[string]string{
		"saleId":        u64(saleID),
		"payer":         payer.Hex(),
		"gross":         split.Gross.String(),
		"residual":      split.Residual.String(),
		"platformShare": split.Platform.String(),
		"sellerShare":   split.Seller.String(),
		"royaltyShare":  split.Royalty.String(),
	}}
}

// NewSaleClosedEvent returns the payload for an unsold listing returned to
// its manager.
func NewSaleClosedEvent(s *Sale, manager common.Address) *types.Event {
	return &types.Event{Type: EventTypeSaleClosed, Attributes: map[string]string{
		"saleId":    u64(s.ID),
		"projectId": u64(s.ProjectID),
		"assetId":   u64(s.AssetID),
		"manager":   manager.Hex(),
	}}
}
