package pipeline

import (
	"fmt"

	"ciftidilate/pkg/cifti"
)

// State is a step of the dilation state machine.
type State int

const (
	Validating State = iota
	ExtractingSurfaces
	ExtractingVolumes
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Validating:
		return "validating"
	case ExtractingSurfaces:
		return "extracting surfaces"
	case ExtractingVolumes:
		return "extracting volumes"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error is the single failure surfaced by Process. It records the state the
// run was in and, when known, the structure being processed.
type Error struct {
	State     State
	Structure cifti.Structure
	Err       error
}

func (e *Error) Error() string {
	if e.Structure == cifti.StructureInvalid {
		return fmt.Sprintf("cifti dilate failed while %s: %v", e.State, e.Err)
	}
	return fmt.Sprintf("cifti dilate failed while %s %s: %v", e.State, e.Structure, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
