package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for programmatic checking via errors.Is().
var (
	ErrDuplicateActivity  = errors.New("duplicate activity")
	ErrUnknownActivity    = errors.New("unknown activity reference")
	ErrInvalidDependency  = errors.New("invalid dependency")
	ErrCircularDependency = errors.New("circular dependency")
)

// DuplicateActivityError reports an activity id supplied more than once.
type DuplicateActivityError struct {
	ID    string
	Index int // position of the second occurrence
}

func (e *DuplicateActivityError) Error() string {
	return fmt.Sprintf("%s: %q at index %d", ErrDuplicateActivity, e.ID, e.Index)
}

func (e *DuplicateActivityError) Unwrap() error { return ErrDuplicateActivity }

// UnknownActivityError reports a dependency endpoint that names no activity.
type UnknownActivityError struct {
	Dependency int    // index into the dependency list
	Side       string // "predecessor" or "successor"
	ID         string
}

func (e *UnknownActivityError) Error() string {
	return fmt.Sprintf("%s: dependency %d %s %q", ErrUnknownActivity, e.Dependency, e.Side, e.ID)
}

func (e *UnknownActivityError) Unwrap() error { return ErrUnknownActivity }

// InvalidDependencyError reports a dependency with an unrecognised type.
type InvalidDependencyError struct {
	Dependency int
	Type       DepType
}

func (e *InvalidDependencyError) Error() string {
	return fmt.Sprintf("%s: dependency %d has type %q (want FS, SS, FF or SF)", ErrInvalidDependency, e.Dependency, e.Type)
}

func (e *InvalidDependencyError) Unwrap() error { return ErrInvalidDependency }

// CycleError carries the members of one offending cycle in traversal
// order. The closing edge runs from the last member back to the first.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCircularDependency.Error()
	}
	path := append(append([]string{}, e.Cycle...), e.Cycle[0])
	return fmt.Sprintf("%s: %s", ErrCircularDependency, strings.Join(path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCircularDependency }
