package pipectx

import "fmt"

// MissingValue is raised by Get, GetTracked and ViewGet when key has no
// entry.
type MissingValue struct {
	Key string
}

func (e *MissingValue) Error() string {
	return fmt.Sprintf("pipectx: missing value for key %q", e.Key)
}

// IllegalVariableAccess is raised by ViewGet and ViewGetOrNull when key is outside
// the view's allow-get set.
type IllegalVariableAccess struct {
	Key string
}

func (e *IllegalVariableAccess) Error() string {
	return fmt.Sprintf("pipectx: illegal read of key %q outside allow-get set", e.Key)
}

// IllegalVariableSet is raised by ViewSet when key is outside the
// view's allow-set set.
type IllegalVariableSet struct {
	Key string
}

func (e *IllegalVariableSet) Error() string {
	return fmt.Sprintf("pipectx: illegal write of key %q outside allow-set set", e.Key)
}
