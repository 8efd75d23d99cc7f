package pipedecl

import (
	"fmt"

	"github.com/vkazantsev/flowcore/internal/pipestep"
)

// ActionRegistry maps the action names an HCL manifest may reference by
// string to the Go closures that actually run. A manifest only ever names
// an action; it never defines one.
type ActionRegistry struct {
	actions map[string]pipestep.Action
}

// NewActionRegistry creates an empty ActionRegistry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: map[string]pipestep.Action{}}
}

// Register adds action under name, panicking on a duplicate name — a
// programmer error caught at startup, not a runtime data error.
func (r *ActionRegistry) Register(name string, action pipestep.Action) *ActionRegistry {
	if _, exists := r.actions[name]; exists {
		panic(fmt.Sprintf("pipedecl: action %q registered twice", name))
	}
	r.actions[name] = action
	return r
}

// Lookup returns the action registered under name, or false if none was.
func (r *ActionRegistry) Lookup(name string) (pipestep.Action, bool) {
	a, ok := r.actions[name]
	return a, ok
}
