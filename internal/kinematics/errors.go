package kinematics

import (
	"errors"
	"fmt"
)

// Domain errors for target solving.
var (
	// ErrUnreachable is matched by every UnreachableError.
	ErrUnreachable = errors.New("kinematics: target unreachable")

	// ErrCenterDefect indicates a target inside the center defect radius.
	ErrCenterDefect = errors.New("kinematics: target inside center defect")

	// ErrOutOfRange indicates a target beyond the maximum scan radius.
	ErrOutOfRange = errors.New("kinematics: target outside maximum scan range")

	// ErrIndeterminate indicates angles that do not determine a unique point.
	ErrIndeterminate = errors.New("kinematics: angles do not determine a unique target")
)

// Reason classifies why a target cannot be reached.
type Reason int

const (
	CenterDefect Reason = iota
	OutOfRange
)

func (r Reason) String() string {
	switch r {
	case CenterDefect:
		return "center_defect"
	case OutOfRange:
		return "out_of_range"
	default:
		return "unknown"
	}
}

// UnreachableError reports a target outside the reachable annulus.
type UnreachableError struct {
	Reason Reason
	Radius float64
	// Limit is Rd for CenterDefect and Rmax for OutOfRange.
	Limit float64
}

func (e *UnreachableError) Error() string {
	switch e.Reason {
	case CenterDefect:
		return fmt.Sprintf("%v (r=%.3f mm < rd=%.3f mm)", ErrCenterDefect, e.Radius, e.Limit)
	default:
		return fmt.Sprintf("%v (r=%.3f mm > rmax=%.3f mm)", ErrOutOfRange, e.Radius, e.Limit)
	}
}

func (e *UnreachableError) Unwrap() error {
	if e.Reason == CenterDefect {
		return ErrCenterDefect
	}
	return ErrOutOfRange
}

func (e *UnreachableError) Is(target error) bool {
	return target == ErrUnreachable
}
