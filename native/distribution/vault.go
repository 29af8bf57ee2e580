package distribution

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
	"launchpad/native/project"
	"launchpad/native/sale"
)

const (
	EventTypeRecordCreated = "distribution.record_created"
	EventTypeClaimed       = "distribution.claimed"

	recordCounter = "distribution.record"
)

var (
	errNilState        = errors.New("distribution vault: state not configured")
	errNilCollaborator = errors.New("distribution vault: collaborators not configured")
	errDuplicateRecord = errors.New("distribution vault: record already exists for sale")
)

var (
	recordPrefix    = []byte("distribution/record/")
	saleIndexPrefix = []byte("distribution/sale/")
)

func recordKey(id uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), recordPrefix...), id, 10)
}

func saleIndexKey(saleID uint64) []byte {
	return strconv.AppendUint(append([]byte(nil), saleIndexPrefix...), saleID, 10)
}

// Record is the vault's claim ticket for one settled sale.
type Record struct {
	ID         uint64
	SaleID     uint64
	ProjectID  uint64
	Recipient  common.Address
	Collection common.Address
	AssetID    uint64
	Quantity   uint64
	Claimed    bool
}

type engineState interface {
	nativecommon.Snapshotter
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	NextID(name string) (uint64, error)
	LastID(name string) (uint64, error)
}

type projectView interface {
	Project(id uint64) (*project.Project, error)
}

type saleView interface {
	Sale(id uint64) (*sale.Sale, error)
}

type adapterSource interface {
	For(collection common.Address) (custody.Adapter, error)
}

// Vault holds settled units until the project's distribution window opens and
// releases each exactly once to its recipient.
type Vault struct {
	state    engineState
	projects projectView
	sales    saleView
	adapters adapterSource
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	nowFn    func() int64
}

func NewVault() *Vault {
	return &Vault{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (v *Vault) SetState(state engineState) { v.state = state }
func (v *Vault) SetProjects(projects projectView) { v.projects = projects }
func (v *Vault) SetSales(sales saleView) { v.sales = sales }
func (v *Vault) SetAdapters(adapters adapterSource) { v.adapters = adapters }
func (v *Vault) SetPauses(p nativecommon.PauseView) { v.pauses = p }

func (v *Vault) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		v.emitter = events.NoopEmitter{}
		return
	}
	v.emitter = emitter
}

func (v *Vault) SetNowFunc(now func() int64) {
	if now == nil {
		v.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	v.nowFn = now
}

func (v *Vault) emit(evt *types.Event) {
	if v == nil || v.emitter == nil || evt == nil {
		return
	}
	v.emitter.Emit(events.Wrap(evt))
}

// CreateRecord stores the claim ticket for a settled sale. One record per
// sale.
func (v *Vault) CreateRecord(saleID, projectID uint64, recipient, collection common.Address, assetID, quantity uint64) (uint64, error) {
	if v == nil || v.state == nil {
		return 0, errNilState
	}
	var id uint64
	err := nativecommon.Atomic(v.state, func() error {
		var existing uint64
		ok, err := v.state.KVGet(saleIndexKey(saleID), &existing)
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("%w: sale %d", errDuplicateRecord, saleID)
		}
		next, err := v.state.NextID(recordCounter)
		if err != nil {
			return err
		}
		rec := &Record{
			ID:         next,
			SaleID:     saleID,
			ProjectID:  projectID,
			Recipient:  recipient,
			Collection: collection,
			AssetID:    assetID,
			Quantity:   quantity,
		}
		if err := v.state.KVPut(recordKey(next), rec); err != nil {
			return err
		}
		if err := v.state.KVPut(saleIndexKey(saleID), next); err != nil {
			return err
		}
		id = next
		v.emit(&types.Event{Type: EventTypeRecordCreated, Attributes: map[string]string{
			"recordId":  strconv.FormatUint(next, 10),
			"saleId":    strconv.FormatUint(saleID, 10),
			"recipient": recipient.Hex(),
		}})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Record returns the claim ticket of a sale.
func (v *Vault) Record(saleID uint64) (*Record, error) {
	if v == nil || v.state == nil {
		return nil, errNilState
	}
	var id uint64
	ok, err := v.state.KVGet(saleIndexKey(saleID), &id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: sale %d", nativecommon.ErrRecordNotFound, saleID)
	}
	return v.RecordByID(id)
}

// RecordByID returns a claim ticket by its record id.
func (v *Vault) RecordByID(id uint64) (*Record, error) {
	if v == nil || v.state == nil {
		return nil, errNilState
	}
	rec := new(Record)
	ok, err := v.state.KVGet(recordKey(id), rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: record %d", nativecommon.ErrRecordNotFound, id)
	}
	return rec, nil
}

// LastRecordID returns the most recently allocated record id.
func (v *Vault) LastRecordID() (uint64, error) {
	if v == nil || v.state == nil {
		return 0, errNilState
	}
	return v.state.LastID(recordCounter)
}

// Claim releases the vaulted unit of saleID to its recipient. The claimed
// flag is persisted before the unit leaves the vault.
func (v *Vault) Claim(caller common.Address, saleID uint64) error {
	if v == nil || v.state == nil {
		return errNilState
	}
	if v.projects == nil || v.sales == nil || v.adapters == nil {
		return errNilCollaborator
	}
	if err := nativecommon.Guard(v.pauses, nativecommon.ModuleDistribution); err != nil {
		return err
	}
	return nativecommon.Atomic(v.state, func() error {
		rec, err := v.Record(saleID)
		if err != nil {
			return err
		}
		if caller != rec.Recipient {
			return fmt.Errorf("%w: recipient required", nativecommon.ErrUnauthorized)
		}
		if rec.Claimed {
			return fmt.Errorf("%w: sale %d", nativecommon.ErrAlreadyClaimed, saleID)
		}
		p, err := v.projects.Project(rec.ProjectID)
		if err != nil {
			return err
		}
		now := v.nowFn()
		if now < 0 || uint64(now) < p.IDO.DistributionStart {
			return fmt.Errorf("%w: distribution opens at %d", nativecommon.ErrNotYetOpen, p.IDO.DistributionStart)
		}
		s, err := v.sales.Sale(saleID)
		if err != nil {
			return err
		}
		if s.Status != sale.StatusSold {
			return fmt.Errorf("%w: sale %d is %s", nativecommon.ErrSaleNotOpen, saleID, s.Status)
		}

		rec.Claimed = true
		if err := v.state.KVPut(recordKey(rec.ID), rec); err != nil {
			return err
		}
		adapter, err := v.adapters.For(rec.Collection)
		if err != nil {
			return err
		}
		if err := adapter.TransferUnit(custody.VaultAccount, custody.VaultAccount, caller, rec.AssetID, rec.Quantity); err != nil {
			return fmt.Errorf("%w: release asset %d: %w", nativecommon.ErrTransfer, rec.AssetID, err)
		}
		v.emit(&types.Event{Type: EventTypeClaimed, Attributes: map[string]string{
			"saleId":    strconv.FormatUint(saleID, 10),
			"recipient": caller.Hex(),
			"assetId":   strconv.FormatUint(rec.AssetID, 10),
			"quantity":  strconv.FormatUint(rec.Quantity, 10),
		}})
		return nil
	})
}
