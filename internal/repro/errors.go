package repro

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is returned when a run is requested with neither a target
// nor all-pipelines mode. It is surfaced before any graph is consulted.
var ErrInvalidTarget = errors.New("neither a target nor all-pipelines mode was specified")

// errNotInGraph reports a stage that resolved from disk but has no node in
// the dependency graph.
var errNotInGraph = errors.New("stage is not part of the dependency graph")

// ReproductionError wraps a failure raised while reproducing one stage,
// identifying the failing stage by its repository-relative path. The rest of
// that traversal is abandoned; stages reproduced before the failure stay
// reproduced.
type ReproductionError struct {
	// Relpath identifies the failing stage.
	Relpath string
	// Err is the original cause.
	Err error
}

// Error implements the error interface.
func (e *ReproductionError) Error() string {
	return fmt.Sprintf("failed to reproduce '%s': %v", e.Relpath, e.Err)
}

// Unwrap exposes the original cause to errors.Is/As.
func (e *ReproductionError) Unwrap() error {
	return e.Err
}
