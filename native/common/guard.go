package common

import "errors"

var ErrModulePaused = errors.New("module paused")

// Module names recognised by Guard.
const (
	ModuleProject      = "project"
	ModuleSale         = "sale"
	ModuleDistribution = "distribution"
)

type PauseView interface {
	IsPaused(module string) bool
}

// Pauses is a static PauseView keyed by module name.
type Pauses map[string]bool

// IsPaused implements PauseView.
func (p Pauses) IsPaused(module string) bool { return p[module] }

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}
