package kinematics

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound reports an unknown joint or node id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEndpoints reports a joint whose parent or child node does
	// not resolve in the scene.
	ErrInvalidEndpoints = errors.New("invalid joint endpoints")
	// ErrInvalidLimits reports lower > upper or a NaN bound.
	ErrInvalidLimits = errors.New("invalid joint limits")
	// ErrDuplicateJoint reports a joint id that is already registered.
	ErrDuplicateJoint = errors.New("duplicate joint id")
	// ErrInvalidJointType reports a JointType outside the declared set.
	ErrInvalidJointType = errors.New("invalid joint type")
	// ErrCyclicGraph reports a joint reached again while propagating from it.
	ErrCyclicGraph = errors.New("cyclic joint graph")
	// ErrReparent reports a scene that refused to move a joint's child
	// under its parent.
	ErrReparent = errors.New("child not re-parented")
	// ErrInvalidDuration reports a non-positive animation duration.
	ErrInvalidDuration = errors.New("invalid animation duration")
)

// OpError records the operation and the ids involved in a failure.
type OpError struct {
	Op    string
	Joint JointID
	Node  NodeID
	Path  []JointID // propagation path, set for cycle errors
	Err   error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString("kinematics: ")
	b.WriteString(e.Op)
	if e.Joint != "" {
		fmt.Fprintf(&b, " joint %s", e.Joint)
	}
	if e.Node != "" {
		fmt.Fprintf(&b, " node %s", e.Node)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, id := range e.Path {
			parts[i] = string(id)
		}
		fmt.Fprintf(&b, " (path %s)", strings.Join(parts, " -> "))
	}
	return b.String()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err was caused by an unknown id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCyclic reports whether err was caused by a cycle in the joint graph.
func IsCyclic(err error) bool {
	return errors.Is(err, ErrCyclicGraph)
}
