package common

import (
	"errors"
	"fmt"
)

// ErrModulePaused is the sentinel wrapped by Guard while a module is
// administratively halted. Callers match it with errors.Is; the wrapped
// message names the module that rejected the call.
var ErrModulePaused = errors.New("module paused")

// PauseView reports the pause flag for a named native module.
type PauseView interface {
	IsPaused(module string) bool
}

// Guard rejects the call when the view marks the module paused. A nil view or
// an unnamed module always passes, so partially wired engines stay usable for
// reads.
func Guard(view PauseView, module string) error {
	if view == nil || module == "" {
		return nil
	}
	if view.IsPaused(module) {
		return fmt.Errorf("%w: %s", ErrModulePaused, module)
	}
	return nil
}
