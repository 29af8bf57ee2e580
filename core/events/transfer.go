package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/types"
)

const (
	// TypeTransfer is emitted for native coin balance movements.
	TypeTransfer = "transfer.native"
	// TypeAssetTransfer is emitted when a unit (or quantity) of a collection changes holder.
	TypeAssetTransfer = "transfer.asset"
)

// Transfer describes a native coin movement between two accounts.
type Transfer struct {
	From   common.Address
	To     common.Address
	Amount *big.Int
	Reason string
}

func (Transfer) EventType() string { return TypeTransfer }

func (e Transfer) Event() *types.Event {
	attrs := map[string]string{
		"from":   e.From.Hex(),
		"to":     e.To.Hex(),
		"amount": formatAmount(e.Amount),
	}
	if e.Reason != "" {
		attrs["reason"] = e.Reason
	}
	return &types.Event{Type: TypeTransfer, Attributes: attrs}
}

// AssetTransfer describes a custody change for a collection unit.
type AssetTransfer struct {
	Collection common.Address
	Operator   common.Address
	From       common.Address
	To         common.Address
	AssetID    uint64
	Quantity   uint64
}

func (AssetTransfer) EventType() string { return TypeAssetTransfer }

func (e AssetTransfer) Event() *types.Event {
	return &types.Event{Type: TypeAssetTransfer, Attributes: map[string]string{
		"collection": e.Collection.Hex(),
		"operator":   e.Operator.Hex(),
		"from":       e.From.Hex(),
		"to":         e.To.Hex(),
		"assetId":    strconv.FormatUint(e.AssetID, 10),
		"quantity":   strconv.FormatUint(e.Quantity, 10),
	}}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
