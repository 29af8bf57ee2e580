package sale

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
	"launchpad/native/project"
	"launchpad/native/royalty"
)

var (
	errNilState        = errors.New("sale engine: state not configured")
	errNilCollaborator = errors.New("sale engine: collaborators not configured")
	errNilTreasury     = errors.New("sale engine: platform treasury not configured")
)

type engineState interface {
	nativecommon.Snapshotter
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVDelete(key []byte) error
	IndexAppend(key []byte, value []byte) (uint64, error)
	IndexList(key []byte) ([][]byte, error)
	NextID(name string) (uint64, error)
	LastID(name string) (uint64, error)
}

type projectView interface {
	Project(id uint64) (*project.Project, error)
}

type accessView interface {
	IsController(addr common.Address) bool
}

type adapterSource interface {
	For(collection common.Address) (custody.Adapter, error)
}

type royaltySource interface {
	Info(collection common.Address, assetID uint64, gross *big.Int) (royalty.Info, error)
}

type payments interface {
	Transfer(from, to common.Address, amount *big.Int, reason string) error
}

// recordSink receives the outcome of a settled bid.
type recordSink interface {
	CreateRecord(saleID, projectID uint64, recipient, collection common.Address, assetID, quantity uint64) (uint64, error)
}

// Engine owns sale records. It escrows listed units, admits winners, settles
// bids and returns unsold units to the project manager.
type Engine struct {
	state     engineState
	projects  projectView
	access    accessView
	adapters  adapterSource
	royalties royaltySource
	bank      payments
	records   recordSink
	treasury  common.Address
	emitter   events.Emitter
	pauses    nativecommon.PauseView
	nowFn     func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }
func (e *Engine) SetProjects(projects projectView) { e.projects = projects }
func (e *Engine) SetAccess(access accessView) { e.access = access }
func (e *Engine) SetAdapters(adapters adapterSource) { e.adapters = adapters }
func (e *Engine) SetRoyalties(oracle royaltySource) { e.royalties = oracle }
func (e *Engine) SetPayments(bank payments) { e.bank = bank }
func (e *Engine) SetRecords(records recordSink) { e.records = records }
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetTreasury configures the payee of the platform share.
func (e *Engine) SetTreasury(addr common.Address) { e.treasury = addr }

// Treasury returns the configured platform payee.
func (e *Engine) Treasury() common.Address { return e.treasury }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
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

func (e *Engine) now() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.projects == nil || e.access == nil || e.adapters == nil || e.royalties == nil || e.bank == nil || e.records == nil {
		return errNilCollaborator
	}
	return nil
}

// Sale loads a sale record.
func (e *Engine) Sale(id uint64) (*Sale, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	s := new(Sale)
	ok, err := e.state.KVGet(saleKey(id), s)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", nativecommon.ErrSaleNotFound, id)
	}
	s.normalize()
	return s, nil
}

func (e *Engine) storeSale(s *Sale) error {
	s.normalize()
	return e.state.KVPut(saleKey(s.ID), s)
}

// LastSaleID returns the most recently allocated sale id.
func (e *Engine) LastSaleID() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.LastID(saleCounter)
}

// SalesOf lists the sale ids created for a project in creation order.
func (e *Engine) SalesOf(projectID uint64) ([]uint64, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	raw, err := e.state.IndexList(projectSalesKey(projectID))
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(raw))
	for _, b := range raw {
		id, err := strconv.ParseUint(string(b), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sale engine: corrupt project index: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsWinner reports whether addr is admitted to bid on the sale.
func (e *Engine) IsWinner(saleID uint64, addr common.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	var admitted bool
	if _, err := e.state.KVGet(winnerKey(saleID, addr), &admitted); err != nil {
		return false, err
	}
	return admitted, nil
}

// CurrentDutchPrice returns the instantaneous unit price of a dutch sale.
func (e *Engine) CurrentDutchPrice(saleID uint64) (*big.Int, error) {
	if e == nil || e.projects == nil {
		return nil, errNilCollaborator
	}
	s, err := e.Sale(saleID)
	if err != nil {
		return nil, err
	}
	if s.Mechanism != MechanismDutch {
		return nil, fmt.Errorf("%w: sale %d is not dutch", nativecommon.ErrKindMismatch, saleID)
	}
	p, err := e.projects.Project(s.ProjectID)
	if err != nil {
		return nil, err
	}
	if !p.IDO.IsSet() {
		return nil, fmt.Errorf("%w: project %d", nativecommon.ErrWindowNotSet, p.ID)
	}
	return DutchPrice(s.MaxPrice, s.MinPrice, s.Decrement, p.IDO.SaleStart, e.now())
}

func (e *Engine) managerOf(p *project.Project, caller common.Address) error {
	manager, ok := p.EffectiveManager()
	if !ok {
		return fmt.Errorf("%w: project %d", nativecommon.ErrManagerNotSet, p.ID)
	}
	if caller != manager {
		return fmt.Errorf("%w: manager required", nativecommon.ErrUnauthorized)
	}
	return nil
}

// CreateRaiseSingle lists single-unit assets at a flat price each.
func (e *Engine) CreateRaiseSingle(caller common.Address, projectID uint64, assetIDs []uint64, prices []*big.Int) ([]uint64, error) {
	if len(assetIDs) != len(prices) {
		return nil, fmt.Errorf("%w: %d assets, %d prices", nativecommon.ErrInvalidPricing, len(assetIDs), len(prices))
	}
	listings := make([]Listing, len(assetIDs))
	for i := range assetIDs {
		listings[i] = Listing{AssetID: assetIDs[i], Quantity: 1, Price: prices[i]}
	}
	return e.create(caller, projectID, MechanismRaise, true, listings)
}

// CreateRaiseMulti lists quantities of multi-kind assets at a flat unit price.
func (e *Engine) CreateRaiseMulti(caller common.Address, projectID uint64, assetIDs, quantities []uint64, prices []*big.Int) ([]uint64, error) {
	if len(assetIDs) != len(quantities) || len(assetIDs) != len(prices) {
		return nil, fmt.Errorf("%w: mismatched listing arrays", nativecommon.ErrInvalidPricing)
	}
	listings := make([]Listing, len(assetIDs))
	for i := range assetIDs {
		listings[i] = Listing{AssetID: assetIDs[i], Quantity: quantities[i], Price: prices[i]}
	}
	return e.create(caller, projectID, MechanismRaise, false, listings)
}

// CreateDutchSingle lists single-unit assets on a descending price schedule.
func (e *Engine) CreateDutchSingle(caller common.Address, projectID uint64, assetIDs []uint64, maxPrices, minPrices, decrements []*big.Int) ([]uint64, error) {
	n := len(assetIDs)
	if len(maxPrices) != n || len(minPrices) != n || len(decrements) != n {
		return nil, fmt.Errorf("%w: mismatched listing arrays", nativecommon.ErrInvalidPricing)
	}
	listings := make([]Listing, n)
	for i := range assetIDs {
		listings[i] = Listing{AssetID: assetIDs[i], Quantity: 1, MaxPrice: maxPrices[i], MinPrice: minPrices[i], Decrement: decrements[i]}
	}
	return e.create(caller, projectID, MechanismDutch, true, listings)
}

// CreateDutchMulti lists quantities of multi-kind assets on a descending unit
// price schedule.
func (e *Engine) CreateDutchMulti(caller common.Address, projectID uint64, assetIDs, quantities []uint64, maxPrices, minPrices, decrements []*big.Int) ([]uint64, error) {
	n := len(assetIDs)
	if len(quantities) != n || len(maxPrices) != n || len(minPrices) != n || len(decrements) != n {
		return nil, fmt.Errorf("%w: mismatched listing arrays", nativecommon.ErrInvalidPricing)
	}
	listings := make([]Listing, n)
	for i := range assetIDs {
		listings[i] = Listing{AssetID: assetIDs[i], Quantity: quantities[i], MaxPrice: maxPrices[i], MinPrice: minPrices[i], Decrement: decrements[i]}
	}
	return e.create(caller, projectID, MechanismDutch, false, listings)
}

func (e *Engine) create(caller common.Address, projectID uint64, mechanism Mechanism, single bool, listings []Listing) ([]uint64, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
		return nil, err
	}
	if len(listings) == 0 {
		return nil, fmt.Errorf("%w: no listings", nativecommon.ErrInvalidPricing)
	}
	for _, l := range listings {
		if err := validateListing(mechanism, l); err != nil {
			return nil, err
		}
	}
	var ids []uint64
	err := nativecommon.Atomic(e.state, func() error {
		p, err := e.projects.Project(projectID)
		if err != nil {
			return err
		}
		if err := e.managerOf(p, caller); err != nil {
			return err
		}
		if p.Ended {
			return fmt.Errorf("%w: project %d", nativecommon.ErrProjectEnded, projectID)
		}
		if p.IsSingle != single || p.IsRaise != (mechanism == MechanismRaise) {
			return fmt.Errorf("%w: project %d is single=%t raise=%t", nativecommon.ErrKindMismatch, projectID, p.IsSingle, p.IsRaise)
		}
		if p.IDO.IsSet() && e.now() >= p.IDO.JoinEnd {
			return fmt.Errorf("%w: join window ended at %d", nativecommon.ErrJoinClosed, p.IDO.JoinEnd)
		}
		adapter, err := e.adapters.For(p.Collection)
		if err != nil {
			return err
		}
		for _, l := range listings {
			id, err := e.state.NextID(saleCounter)
			if err != nil {
				return err
			}
			s := &Sale{
				ID:         id,
				ProjectID:  projectID,
				Collection: p.Collection,
				AssetID:    l.AssetID,
				Quantity:   l.Quantity,
				Mechanism:  mechanism,
				Price:      l.Price,
				MaxPrice:   l.MaxPrice,
				MinPrice:   l.MinPrice,
				Decrement:  l.Decrement,
				Status:     StatusOpen,
			}
			if err := e.storeSale(s); err != nil {
				return err
			}
			if _, err := e.state.IndexAppend(projectSalesKey(projectID), encodeID(id)); err != nil {
				return err
			}
			if err := adapter.TransferUnit(custody.EscrowAccount, caller, custody.EscrowAccount, l.AssetID, l.Quantity); err != nil {
				return fmt.Errorf("%w: escrow asset %d: %w", nativecommon.ErrTransfer, l.AssetID, err)
			}
			ids = append(ids, id)
			e.emit(NewSaleCreatedEvent(s))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// SetWinners toggles bid admission for addrs. Controllers only; allowed while
// the sale is open and before saleEnd.
func (e *Engine) SetWinners(caller common.Address, saleID uint64, addrs []common.Address, isWinner bool) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
		return err
	}
	if !e.access.IsController(caller) {
		return fmt.Errorf("%w: controller required", nativecommon.ErrUnauthorized)
	}
	return nativecommon.Atomic(e.state, func() error {
		s, err := e.Sale(saleID)
		if err != nil {
			return err
		}
		if s.Status != StatusOpen {
			return fmt.Errorf("%w: sale %d is %s", nativecommon.ErrSaleNotOpen, saleID, s.Status)
		}
		p, err := e.projects.Project(s.ProjectID)
		if err != nil {
			return err
		}
		if p.IDO.IsSet() && e.now() >= p.IDO.SaleEnd {
			return fmt.Errorf("%w: sale ended at %d", nativecommon.ErrExpired, p.IDO.SaleEnd)
		}
		for _, addr := range addrs {
			current, err := e.IsWinner(saleID, addr)
			if err != nil {
				return err
			}
			if current == isWinner {
				continue
			}
			key := winnerKey(saleID, addr)
			if isWinner {
				err = e.state.KVPut(key, true)
			} else {
				err = e.state.KVDelete(key)
			}
			if err != nil {
				return err
			}
			e.emit(NewWinnerSetEvent(saleID, addr, isWinner))
		}
		return nil
	})
}

// Close returns unsold listings to the project manager after saleEnd. Every
// listed sale is validated before any is closed; already closed sales are
// skipped.
func (e *Engine) Close(caller common.Address, projectID uint64, saleIDs []uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleSale); err != nil {
		return err
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.projects.Project(projectID)
		if err != nil {
			return err
		}
		if err := e.managerOf(p, caller); err != nil {
			return err
		}
		if !p.IDO.IsSet() {
			return fmt.Errorf("%w: project %d", nativecommon.ErrWindowNotSet, projectID)
		}
		if e.now() < p.IDO.SaleEnd {
			return fmt.Errorf("%w: sale ends at %d", nativecommon.ErrSaleNotEnded, p.IDO.SaleEnd)
		}
		for _, id := range saleIDs {
			s, err := e.Sale(id)
			if err != nil {
				return err
			}
			if s.ProjectID != projectID {
				return fmt.Errorf("%w: sale %d belongs to project %d", nativecommon.ErrSaleProjectMismatch, id, s.ProjectID)
			}
			if s.Status == StatusSold {
				return fmt.Errorf("%w: sale %d", nativecommon.ErrStillSold, id)
			}
		}
		adapter, err := e.adapters.For(p.Collection)
		if err != nil {
			return err
		}
		for _, id := range saleIDs {
			s, err := e.Sale(id)
			if err != nil {
				return err
			}
			if s.Status != StatusOpen {
				continue
			}
			s.Status = StatusClosed
			if err := e.storeSale(s); err != nil {
				return err
			}
			if err := adapter.TransferUnit(custody.EscrowAccount, custody.EscrowAccount, caller, s.AssetID, s.Quantity); err != nil {
				return fmt.Errorf("%w: return asset %d: %w", nativecommon.ErrTransfer, s.AssetID, err)
			}
			e.emit(NewSaleClosedEvent(s, caller))
		}
		return nil
	})
}
