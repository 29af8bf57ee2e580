package assets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
)

const (
	EventTypeCollectionDeployed = "assets.collection.deployed"
	EventTypeMinted             = "assets.minted"
	EventTypeApprovalForAll     = "assets.approval_for_all"
	EventTypeControllersSet     = "assets.controllers.set"
)

type engineState interface {
	nativecommon.Snapshotter
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	IndexAppend(key []byte, value []byte) (uint64, error)
	IndexList(key []byte) ([][]byte, error)
	NextID(name string) (uint64, error)
}

// Engine is the ledger of asset collections. It implements mint, operator
// approval and transfer for single-unit and multi-quantity collections.
type Engine struct {
	state   engineState
	emitter events.Emitter
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(events.Wrap(evt))
}

// Deploy registers a new collection owned by owner and returns its address.
// A zero royalty receiver declares no royalty support.
func (e *Engine) Deploy(owner common.Address, name, symbol string, isSingle bool, royaltyReceiver common.Address, royaltyBps uint64) (common.Address, error) {
	if e.state == nil {
		return common.Address{}, errNilState
	}
	if owner == (common.Address{}) {
		return common.Address{}, errZeroOwner
	}
	name = strings.TrimSpace(name)
	symbol = strings.TrimSpace(symbol)
	if name == "" || symbol == "" {
		return common.Address{}, errEmptyName
	}
	if royaltyBps > MaxRoyaltyBps {
		return common.Address{}, errRoyaltyTooHigh
	}
	var addr common.Address
	err := nativecommon.Atomic(e.state, func() error {
		nonce, err := e.state.NextID(collectionCounter)
		if err != nil {
			return err
		}
		addr = deriveAddress(owner, nonce)
		col := &Collection{
			Address:         addr,
			Owner:           owner,
			Name:            name,
			Symbol:          symbol,
			IsSingle:        isSingle,
			RoyaltyReceiver: royaltyReceiver,
			RoyaltyBps:      royaltyBps,
		}
		if royaltyReceiver == (common.Address{}) {
			col.RoyaltyBps = 0
		}
		if err := e.state.KVPut(collectionKey(addr), col); err != nil {
			return err
		}
		if _, err := e.state.IndexAppend(collectionIndex, addr.Bytes()); err != nil {
			return err
		}
		e.emit(&types.Event{Type: EventTypeCollectionDeployed, Attributes: map[string]string{
			"collection": addr.Hex(),
			"owner":      owner.Hex(),
			"symbol":     symbol,
			"single":     strconv.FormatBool(isSingle),
			"royaltyBps": strconv.FormatUint(col.RoyaltyBps, 10),
		}})
		return nil
	})
	if err != nil {
		return common.Address{}, err
	}
	return addr, nil
}

func deriveAddress(owner common.Address, nonce uint64) common.Address {
	seed := append([]byte("launchpad/collection/"), owner.Bytes()...)
	seed = strconv.AppendUint(append(seed, '/'), nonce, 10)
	return common.BytesToAddress(ethcrypto.Keccak256(seed)[12:])
}

// Collection returns the collection deployed at addr.
func (e *Engine) Collection(addr common.Address) (*Collection, error) {
	if e.state == nil {
		return nil, errNilState
	}
	col := new(Collection)
	ok, err := e.state.KVGet(collectionKey(addr), col)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", nativecommon.ErrCollectionNotFound, addr.Hex())
	}
	return col, nil
}

// Collections lists deployed collection addresses in deployment order.
func (e *Engine) Collections() ([]common.Address, error) {
	if e.state == nil {
		return nil, errNilState
	}
	raw, err := e.state.IndexList(collectionIndex)
	if err != nil {
		return nil, err
	}
	out := make([]common.Address, len(raw))
	for i, b := range raw {
		out[i] = common.BytesToAddress(b)
	}
	return out, nil
}

// SetControllers lets the collection owner grant or revoke mint rights.
func (e *Engine) SetControllers(caller, collection common.Address, addrs []common.Address, enabled bool) error {
	if e.state == nil {
		return errNilState
	}
	return nativecommon.Atomic(e.state, func() error {
		col, err := e.Collection(collection)
		if err != nil {
			return err
		}
		if caller != col.Owner {
			return fmt.Errorf("%w: collection owner required", nativecommon.ErrUnauthorized)
		}
		for _, addr := range addrs {
			present := col.isController(addr)
			switch {
			case enabled && !present:
				col.Controllers = append(col.Controllers, addr)
			case !enabled && present:
				kept := col.Controllers[:0]
				for _, ctrl := range col.Controllers {
					if ctrl != addr {
						kept = append(kept, ctrl)
					}
				}
				col.Controllers = kept
			}
		}
		if err := e.state.KVPut(collectionKey(collection), col); err != nil {
			return err
		}
		e.emit(&types.Event{Type: EventTypeControllersSet, Attributes: map[string]string{
			"collection": collection.Hex(),
			"count":      strconv.Itoa(len(addrs)),
			"enabled":    strconv.FormatBool(enabled),
		}})
		return nil
	})
}

// MintBatch creates one new asset id per entry in quantities and credits it
// to `to`. Single-kind collections only accept a quantity of one.
func (e *Engine) MintBatch(caller, collection, to common.Address, quantities []uint64) ([]uint64, error) {
	if e.state == nil {
		return nil, errNilState
	}
	if to == (common.Address{}) {
		return nil, errZeroDestination
	}
	if len(quantities) == 0 {
		return nil, fmt.Errorf("%w: empty mint", nativecommon.ErrInvalidQuantity)
	}
	var ids []uint64
	err := nativecommon.Atomic(e.state, func() error {
		col, err := e.Collection(collection)
		if err != nil {
			return err
		}
		if caller != col.Owner && !col.isController(caller) {
			return fmt.Errorf("%w: owner or controller required", nativecommon.ErrUnauthorized)
		}
		for _, qty := range quantities {
			if qty == 0 || (col.IsSingle && qty != 1) {
				return fmt.Errorf("%w: %d", nativecommon.ErrInvalidQuantity, qty)
			}
			col.LastAssetID++
			id := col.LastAssetID
			if err := e.state.KVPut(balanceKey(collection, id, to), qty); err != nil {
				return err
			}
			if col.IsSingle {
				if err := e.state.KVPut(ownerKey(collection, id), to); err != nil {
					return err
				}
			}
			ids = append(ids, id)
			e.emit(&types.Event{Type: EventTypeMinted, Attributes: map[string]string{
				"collection": collection.Hex(),
				"to":         to.Hex(),
				"assetId":    strconv.FormatUint(id, 10),
				"quantity":   strconv.FormatUint(qty, 10),
			}})
		}
		return e.state.KVPut(collectionKey(collection), col)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetApprovalForAll authorises operator to move every asset owner holds in
// the collection.
func (e *Engine) SetApprovalForAll(owner, collection, operator common.Address, approved bool) error {
	if e.state == nil {
		return errNilState
	}
	if _, err := e.Collection(collection); err != nil {
		return err
	}
	if owner == operator {
		return fmt.Errorf("assets: cannot approve self")
	}
	return nativecommon.Atomic(e.state, func() error {
		key := approvalKey(collection, owner, operator)
		if approved {
			if err := e.state.KVPut(key, true); err != nil {
				return err
			}
		} else if err := e.state.KVDelete(key); err != nil {
			return err
		}
		e.emit(&types.Event{Type: EventTypeApprovalForAll, Attributes: map[string]string{
			"collection": collection.Hex(),
			"owner":      owner.Hex(),
			"operator":   operator.Hex(),
			"approved":   strconv.FormatBool(approved),
		}})
		return nil
	})
}

func (e *Engine) IsApprovedForAll(collection, owner, operator common.Address) (bool, error) {
	if e.state == nil {
		return false, errNilState
	}
	var approved bool
	if _, err := e.state.KVGet(approvalKey(collection, owner, operator), &approved); err != nil {
		return false, err
	}
	return approved, nil
}

// BalanceOf returns the quantity of assetID held by holder.
func (e *Engine) BalanceOf(collection, holder common.Address, assetID uint64) (uint64, error) {
	if e.state == nil {
		return 0, errNilState
	}
	var qty uint64
	if _, err := e.state.KVGet(balanceKey(collection, assetID, holder), &qty); err != nil {
		return 0, err
	}
	return qty, nil
}

// OwnerOf returns the holder of a single-kind asset.
func (e *Engine) OwnerOf(collection common.Address, assetID uint64) (common.Address, error) {
	col, err := e.Collection(collection)
	if err != nil {
		return common.Address{}, err
	}
	if !col.IsSingle {
		return common.Address{}, fmt.Errorf("%w: collection %s is multi-kind", nativecommon.ErrKindMismatch, collection.Hex())
	}
	var owner common.Address
	ok, err := e.state.KVGet(ownerKey(collection, assetID), &owner)
	if err != nil {
		return common.Address{}, err
	}
	if !ok {
		return common.Address{}, fmt.Errorf("assets: asset %d not minted", assetID)
	}
	return owner, nil
}

// RoyaltyOf returns the declared royalty for assetID.
func (e *Engine) RoyaltyOf(collection common.Address, assetID uint64) (Royalty, error) {
	col, err := e.Collection(collection)
	if err != nil {
		return Royalty{}, err
	}
	if col.RoyaltyReceiver == (common.Address{}) || assetID == 0 || assetID > col.LastAssetID {
		return Royalty{}, nil
	}
	return Royalty{Supported: true, Receiver: col.RoyaltyReceiver, RateBps: col.RoyaltyBps}, nil
}

// Transfer moves qty units of assetID from `from` to `to`. The operator must
// be the holder or an approved operator of the holder, and the holder must
// hold at least qty.
func (e *Engine) Transfer(operator, collection, from, to common.Address, assetID, qty uint64) error {
	if e.state == nil {
		return errNilState
	}
	if to == (common.Address{}) {
		return errZeroDestination
	}
	if qty == 0 {
		return fmt.Errorf("%w: zero quantity", nativecommon.ErrInvalidQuantity)
	}
	return nativecommon.Atomic(e.state, func() error {
		col, err := e.Collection(collection)
		if err != nil {
			return err
		}
		if col.IsSingle && qty != 1 {
			return fmt.Errorf("%w: single-kind quantity %d", nativecommon.ErrInvalidQuantity, qty)
		}
		if operator != from {
			approved, err := e.IsApprovedForAll(collection, from, operator)
			if err != nil {
				return err
			}
			if !approved {
				return fmt.Errorf("%w: operator %s for %s", nativecommon.ErrNotOwnerOrNotApproved, operator.Hex(), from.Hex())
			}
		}
		fromBal, err := e.BalanceOf(collection, from, assetID)
		if err != nil {
			return err
		}
		if fromBal < qty {
			return fmt.Errorf("%w: %s holds %d of asset %d", nativecommon.ErrNotOwnerOrNotApproved, from.Hex(), fromBal, assetID)
		}
		if err := e.putBalance(collection, from, assetID, fromBal-qty); err != nil {
			return err
		}
		toBal, err := e.BalanceOf(collection, to, assetID)
		if err != nil {
			return err
		}
		if err := e.putBalance(collection, to, assetID, toBal+qty); err != nil {
			return err
		}
		if col.IsSingle {
			if err := e.state.KVPut(ownerKey(collection, assetID), to); err != nil {
				return err
			}
		}
		e.emitter.Emit(events.AssetTransfer{
			Collection: collection,
			Operator:   operator,
			From:       from,
			To:         to,
			AssetID:    assetID,
			Quantity:   qty,
		})
		return nil
	})
}

func (e *Engine) putBalance(collection, holder common.Address, assetID, qty uint64) error {
	key := balanceKey(collection, assetID, holder)
	if qty == 0 {
		return e.state.KVDelete(key)
	}
	return e.state.KVPut(key, qty)
}
