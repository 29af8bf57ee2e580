package project

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
	"launchpad/native/custody"
)

var (
	errNilState   = errors.New("project engine: state not configured")
	errNilAccess  = errors.New("project engine: access control not configured")
	errNilAssets  = errors.New("project engine: custody router not configured")
	errZeroTarget = errors.New("project engine: address must not be zero")
)

type engineState interface {
	nativecommon.Snapshotter
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	NextID(name string) (uint64, error)
	LastID(name string) (uint64, error)
}

type accessView interface {
	IsAdmin(addr common.Address) bool
}

type adapterSource interface {
	For(collection common.Address) (custody.Adapter, error)
}

// Engine is the project registry: project records, manager assignment, time
// windows and the admin approval workflow. It never moves assets.
type Engine struct {
	state   engineState
	access  accessView
	assets  adapterSource
	emitter events.Emitter
	pauses  nativecommon.PauseView
	nowFn   func() int64
}

func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

func (e *Engine) SetState(state engineState) { e.state = state }

func (e *Engine) SetAccess(access accessView) { e.access = access }

// SetAssets configures the custody router used to check collection kinds.
func (e *Engine) SetAssets(assets adapterSource) { e.assets = assets }

func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used by the engine.
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
	switch {
	case e == nil || e.state == nil:
		return errNilState
	case e.access == nil:
		return errNilAccess
	}
	return nil
}

// Project loads a project together with its approval sub-record.
func (e *Engine) Project(id uint64) (*Project, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	p := new(Project)
	ok, err := e.state.KVGet(projectKey(id), p)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %d", nativecommon.ErrProjectNotFound, id)
	}
	if _, err := e.state.KVGet(approvalKey(id), &p.Approval); err != nil {
		return nil, err
	}
	return p, nil
}

func (e *Engine) storeProject(p *Project) error {
	return e.state.KVPut(projectKey(p.ID), p)
}

func (e *Engine) storeApproval(id uint64, a Approval) error {
	return e.state.KVPut(approvalKey(id), a)
}

// LastProjectID returns the most recently allocated project id.
func (e *Engine) LastProjectID() (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	return e.state.LastID(projectCounter)
}

// CollectionOf returns the asset collection a project sells.
func (e *Engine) CollectionOf(id uint64) (common.Address, error) {
	p, err := e.Project(id)
	if err != nil {
		return common.Address{}, err
	}
	return p.Collection, nil
}

// Manager returns the effective manager of the project.
func (e *Engine) Manager(id uint64) (common.Address, error) {
	p, err := e.Project(id)
	if err != nil {
		return common.Address{}, err
	}
	manager, ok := p.EffectiveManager()
	if !ok {
		return common.Address{}, fmt.Errorf("%w: project %d", nativecommon.ErrManagerNotSet, id)
	}
	return manager, nil
}

func (e *Engine) requireManager(p *Project, caller common.Address) error {
	manager, ok := p.EffectiveManager()
	if !ok {
		return fmt.Errorf("%w: project %d", nativecommon.ErrManagerNotSet, p.ID)
	}
	if caller != manager {
		return fmt.Errorf("%w: manager required", nativecommon.ErrUnauthorized)
	}
	return nil
}

// CreateProject registers a project selling units of collection. Callers
// holding admin capability create admin projects.
func (e *Engine) CreateProject(caller, collection common.Address, isSingle, isRaise bool) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return 0, err
	}
	if caller == (common.Address{}) || collection == (common.Address{}) {
		return 0, errZeroTarget
	}
	if e.assets == nil {
		return 0, errNilAssets
	}
	adapter, err := e.assets.For(collection)
	if err != nil {
		return 0, err
	}
	if adapter.IsSingle() != isSingle {
		return 0, fmt.Errorf("%w: collection single=%t", nativecommon.ErrKindMismatch, adapter.IsSingle())
	}
	var id uint64
	err = nativecommon.Atomic(e.state, func() error {
		next, err := e.state.NextID(projectCounter)
		if err != nil {
			return err
		}
		p := &Project{
			ID:             next,
			Owner:          caller,
			Collection:     collection,
			IsSingle:       isSingle,
			IsRaise:        isRaise,
			CreatedByAdmin: e.access.IsAdmin(caller),
		}
		if err := e.storeProject(p); err != nil {
			return err
		}
		if err := e.storeApproval(p.ID, Approval{}); err != nil {
			return err
		}
		id = next
		e.emit(newProjectCreatedEvent(p))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// SetManager assigns the project manager exactly once. Admin projects are
// managed by admins, owner projects by their owner.
func (e *Engine) SetManager(caller common.Address, id uint64, manager common.Address) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return err
	}
	if manager == (common.Address{}) {
		return errZeroTarget
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.Project(id)
		if err != nil {
			return err
		}
		if p.CreatedByAdmin {
			if !e.access.IsAdmin(caller) {
				return fmt.Errorf("%w: admin required", nativecommon.ErrUnauthorized)
			}
		} else if caller != p.Owner {
			return fmt.Errorf("%w: owner required", nativecommon.ErrUnauthorized)
		}
		if p.ManagerSet {
			return fmt.Errorf("%w: manager of project %d", nativecommon.ErrAlreadySet, id)
		}
		p.Manager = manager
		p.ManagerSet = true
		if err := e.storeProject(p); err != nil {
			return err
		}
		e.emit(newManagerSetEvent(id, manager))
		return nil
	})
}

// SetIDO configures the project windows. The windows may be overwritten until
// saleStart is reached.
func (e *Engine) SetIDO(caller common.Address, id uint64, w IDO) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return err
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.Project(id)
		if err != nil {
			return err
		}
		if err := e.requireManager(p, caller); err != nil {
			return err
		}
		if p.Ended {
			return fmt.Errorf("%w: project %d", nativecommon.ErrProjectEnded, id)
		}
		now := e.now()
		if p.IDO.IsSet() && now >= p.IDO.SaleStart {
			return fmt.Errorf("%w: sale started at %d", nativecommon.ErrWindowLocked, p.IDO.SaleStart)
		}
		if !w.Validate() {
			return fmt.Errorf("%w: windows out of order", nativecommon.ErrInvalidWindow)
		}
		if w.JoinStart <= now {
			return fmt.Errorf("%w: joinStart %d is not in the future", nativecommon.ErrInvalidWindow, w.JoinStart)
		}
		p.IDO = w
		if err := e.storeProject(p); err != nil {
			return err
		}
		e.emit(newIDOSetEvent(id, w))
		return nil
	})
}

// RequestApproval records the owner's requested platform percent, scaled by
// PercentScale.
func (e *Engine) RequestApproval(caller common.Address, id uint64, percent uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return err
	}
	if percent > MaxPercent {
		return fmt.Errorf("%w: %d exceeds %d", nativecommon.ErrInvalidPercent, percent, MaxPercent)
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.Project(id)
		if err != nil {
			return err
		}
		if p.CreatedByAdmin {
			return fmt.Errorf("%w: admin projects need no approval", nativecommon.ErrUnauthorized)
		}
		if caller != p.Owner {
			return fmt.Errorf("%w: owner required", nativecommon.ErrUnauthorized)
		}
		if p.Approval.Approved {
			return fmt.Errorf("%w: project %d", nativecommon.ErrAlreadyApproved, id)
		}
		if p.Approval.Pending() {
			return fmt.Errorf("%w: project %d", nativecommon.ErrDuplicateRequest, id)
		}
		p.Approval = Approval{Requested: true, Percent: percent}
		if err := e.storeApproval(id, p.Approval); err != nil {
			return err
		}
		e.emit(newApprovalEvent(EventTypeApprovalRequested, id, percent, caller))
		return nil
	})
}

// Approve accepts a pending request. The decision is irreversible.
func (e *Engine) Approve(caller common.Address, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return err
	}
	if !e.access.IsAdmin(caller) {
		return fmt.Errorf("%w: admin required", nativecommon.ErrUnauthorized)
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.Project(id)
		if err != nil {
			return err
		}
		if p.Approval.Approved {
			return fmt.Errorf("%w: project %d", nativecommon.ErrAlreadyApproved, id)
		}
		if !p.Approval.Pending() {
			return fmt.Errorf("%w: project %d", nativecommon.ErrNotRequested, id)
		}
		p.Approval.Approved = true
		if err := e.storeApproval(id, p.Approval); err != nil {
			return err
		}
		e.emit(newApprovalEvent(EventTypeApproved, id, p.Approval.Percent, caller))
		return nil
	})
}

// Approval returns the approval sub-record of a project.
func (e *Engine) Approval(id uint64) (Approval, error) {
	p, err := e.Project(id)
	if err != nil {
		return Approval{}, err
	}
	return p.Approval, nil
}

// End marks the project ended once its sale window has closed.
func (e *Engine) End(caller common.Address, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, nativecommon.ModuleProject); err != nil {
		return err
	}
	return nativecommon.Atomic(e.state, func() error {
		p, err := e.Project(id)
		if err != nil {
			return err
		}
		if err := e.requireManager(p, caller); err != nil {
			return err
		}
		if p.Ended {
			return fmt.Errorf("%w: project %d", nativecommon.ErrAlreadyEnded, id)
		}
		if !p.IDO.IsSet() {
			return fmt.Errorf("%w: project %d", nativecommon.ErrWindowNotSet, id)
		}
		if e.now() < p.IDO.SaleEnd {
			return fmt.Errorf("%w: sale ends at %d", nativecommon.ErrSaleNotEnded, p.IDO.SaleEnd)
		}
		p.Ended = true
		if err := e.storeProject(p); err != nil {
			return err
		}
		e.emit(newProjectEndedEvent(id, e.nowFn()))
		return nil
	})
}
