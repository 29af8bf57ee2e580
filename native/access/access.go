package access

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/core/events"
	"launchpad/core/types"
	nativecommon "launchpad/native/common"
)

const (
	RoleSuperAdmin = "LAUNCHPAD_SUPER_ADMIN"
	RoleAdmin      = "LAUNCHPAD_ADMIN"
	RoleController = "LAUNCHPAD_CONTROLLER"

	EventTypeRoleGranted = "access.role.granted"
	EventTypeRoleRevoked = "access.role.revoked"
)

var errNilState = errors.New("access engine: state not configured")

type engineState interface {
	nativecommon.Snapshotter
	SetRole(role string, addr common.Address) error
	RemoveRole(role string, addr common.Address) error
	RoleMembers(role string) ([]common.Address, error)
	HasRole(role string, addr common.Address) bool
}

// Engine maintains the platform role sets: a single super admin fixed at
// genesis, admins appointed by the super admin and controllers appointed by
// admins.
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

// SetEmitter configures the event emitter used by the engine. Passing nil resets
// the emitter to a no-op implementation.
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

func roleEvent(eventType, role string, subject, actor common.Address, ts int64) *types.Event {
	return &types.Event{Type: eventType, Attributes: map[string]string{
		"role":      role,
		"address":   subject.Hex(),
		"actor":     actor.Hex(),
		"timestamp": strconv.FormatInt(ts, 10),
	}}
}

// Bootstrap installs the super admin. It may only run once per state.
func (e *Engine) Bootstrap(superAdmin common.Address) error {
	if e.state == nil {
		return errNilState
	}
	if superAdmin == (common.Address{}) {
		return fmt.Errorf("access: super admin must not be zero")
	}
	return nativecommon.Atomic(e.state, func() error {
		members, err := e.state.RoleMembers(RoleSuperAdmin)
		if err != nil {
			return err
		}
		if len(members) > 0 {
			if members[0] == superAdmin {
				return nil
			}
			return fmt.Errorf("%w: super admin %s", nativecommon.ErrAlreadySet, members[0].Hex())
		}
		if err := e.state.SetRole(RoleSuperAdmin, superAdmin); err != nil {
			return err
		}
		e.emit(roleEvent(EventTypeRoleGranted, RoleSuperAdmin, superAdmin, superAdmin, e.nowFn()))
		return nil
	})
}

// SuperAdmin returns the installed super admin, or the zero address.
func (e *Engine) SuperAdmin() (common.Address, error) {
	if e.state == nil {
		return common.Address{}, errNilState
	}
	members, err := e.state.RoleMembers(RoleSuperAdmin)
	if err != nil || len(members) == 0 {
		return common.Address{}, err
	}
	return members[0], nil
}

func (e *Engine) IsSuperAdmin(addr common.Address) bool {
	return e.state != nil && e.state.HasRole(RoleSuperAdmin, addr)
}

// IsAdmin reports admin capability. The super admin is always an admin.
func (e *Engine) IsAdmin(addr common.Address) bool {
	if e.state == nil {
		return false
	}
	return e.state.HasRole(RoleAdmin, addr) || e.state.HasRole(RoleSuperAdmin, addr)
}

func (e *Engine) IsController(addr common.Address) bool {
	return e.state != nil && e.state.HasRole(RoleController, addr)
}

// SetAdmins grants or revokes the admin role. Only the super admin may call it.
func (e *Engine) SetAdmins(caller common.Address, addrs []common.Address, enabled bool) error {
	if e.state == nil {
		return errNilState
	}
	if !e.IsSuperAdmin(caller) {
		return fmt.Errorf("%w: super admin required", nativecommon.ErrUnauthorized)
	}
	return e.setMembers(RoleAdmin, caller, addrs, enabled)
}

// SetControllers grants or revokes the controller role. Admins only.
func (e *Engine) SetControllers(caller common.Address, addrs []common.Address, enabled bool) error {
	if e.state == nil {
		return errNilState
	}
	if !e.IsAdmin(caller) {
		return fmt.Errorf("%w: admin required", nativecommon.ErrUnauthorized)
	}
	return e.setMembers(RoleController, caller, addrs, enabled)
}

func (e *Engine) setMembers(role string, caller common.Address, addrs []common.Address, enabled bool) error {
	return nativecommon.Atomic(e.state, func() error {
		now := e.nowFn()
		for _, addr := range addrs {
			if addr == (common.Address{}) {
				return fmt.Errorf("access: zero address for %s", role)
			}
			had := e.state.HasRole(role, addr)
			switch {
			case enabled && !had:
				if err := e.state.SetRole(role, addr); err != nil {
					return err
				}
				e.emit(roleEvent(EventTypeRoleGranted, role, addr, caller, now))
			case !enabled && had:
				if err := e.state.RemoveRole(role, addr); err != nil {
					return err
				}
				e.emit(roleEvent(EventTypeRoleRevoked, role, addr, caller, now))
			}
		}
		return nil
	})
}
