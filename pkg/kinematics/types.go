package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// JointID identifies a joint within a Context for its lifetime.
type JointID string

// NodeID is an opaque reference to a node in the host scene graph.
type NodeID string

// ChainID identifies a kinematic chain snapshot.
type ChainID string

// JointType enumerates the supported joint motion categories.
type JointType int

const (
	JointFixed       JointType = iota // rigid connection
	JointRevolute                     // rotation about Axis
	JointPrismatic                    // translation along Axis
	JointSpherical                    // ball joint, single reference axis driven
	JointCylindrical                  // rotation+translation, translation driven
	JointPlanar                       // planar translation, one direction driven
)

var jointTypeNames = [...]string{
	JointFixed:       "fixed",
	JointRevolute:    "revolute",
	JointPrismatic:   "prismatic",
	JointSpherical:   "spherical",
	JointCylindrical: "cylindrical",
	JointPlanar:      "planar",
}

func (t JointType) String() string {
	if t.Valid() {
		return jointTypeNames[t]
	}
	return fmt.Sprintf("JointType(%d)", int(t))
}

// Valid reports whether t is one of the declared joint types.
func (t JointType) Valid() bool {
	return t >= JointFixed && t <= JointPlanar
}

// ParseJointType maps a name such as "revolute" to its JointType.
func ParseJointType(s string) (JointType, error) {
	for i, name := range jointTypeNames {
		if name == s {
			return JointType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown joint type %q", s)
}

// MarshalText encodes the type by name.
func (t JointType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidJointType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *JointType) UnmarshalText(b []byte) error {
	v, err := ParseJointType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ActiveDOF returns the number of degrees of freedom the solver drives.
func (t JointType) ActiveDOF() int {
	if t == JointFixed {
		return 0
	}
	return 1
}

// NominalDOF returns the degrees of freedom of the physical joint type.
// For spherical, cylindrical and planar joints this exceeds ActiveDOF.
func (t JointType) NominalDOF() int {
	switch t {
	case JointFixed:
		return 0
	case JointRevolute, JointPrismatic:
		return 1
	case JointSpherical:
		return 3
	case JointCylindrical, JointPlanar:
		return 2
	}
	return 0
}

// Limits bounds a joint's scalar value. Angular limits are in radians,
// linear limits in the joint's working unit.
type Limits struct {
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
	MaxVelocity float64 `json:"maxVelocity"`
	MaxEffort   float64 `json:"maxEffort"`
}

// DefaultLimits is a full turn either way with nominal velocity and effort.
var DefaultLimits = Limits{Lower: -math.Pi, Upper: math.Pi, MaxVelocity: 1, MaxEffort: 100}

// Clamp returns v restricted to [Lower, Upper].
func (l Limits) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return l.Clamp(0)
	}
	return math.Max(l.Lower, math.Min(l.Upper, v))
}

// Valid reports whether the limits describe a non-empty range. NaN bounds
// are invalid.
func (l Limits) Valid() bool {
	return l.Lower <= l.Upper
}

// Contains reports whether v lies within the limits.
func (l Limits) Contains(v float64) bool {
	return v >= l.Lower && v <= l.Upper
}

// Pose is a local or world rigid transform.
type Pose struct {
	Position r3.Vec      `json:"position"`
	Rotation quat.Number `json:"rotation"`
}

// IdentityQuat is the rotation that leaves vectors unchanged.
var IdentityQuat = quat.Number{Real: 1}

// IdentityPose returns a pose with zero translation and no rotation.
func IdentityPose() Pose {
	return Pose{Rotation: IdentityQuat}
}

// Compose returns the pose of child expressed in the frame p is expressed in.
func (p Pose) Compose(child Pose) Pose {
	rot := r3.Rotation(p.Rotation)
	return Pose{
		Position: r3.Add(p.Position, rot.Rotate(child.Position)),
		Rotation: quat.Mul(p.Rotation, child.Rotation),
	}
}

var (
	unitX = r3.Vec{X: 1}
	unitY = r3.Vec{Y: 1}
	unitZ = r3.Vec{Z: 1}
)

// Joint is a single mechanical joint between two scene nodes.
type Joint struct {
	ID     JointID   `json:"id"`
	Name   string    `json:"name"`
	Type   JointType `json:"type"`
	Parent NodeID    `json:"parent"`
	Child  NodeID    `json:"child"`
	Axis   r3.Vec    `json:"axis"`   // unit length, parent-local
	Origin r3.Vec    `json:"origin"` // parent-local offset
	Limits Limits    `json:"limits"`

	Value    float64 `json:"value"`
	Velocity float64 `json:"velocity"`
	Effort   float64 `json:"effort"`

	ShowAxis   bool `json:"showAxis"`
	ShowLimits bool `json:"showLimits"`
}

// JointConfig is the creation payload for CreateJoint. Nil pointer fields
// and an empty ID or Name are filled with defaults.
type JointConfig struct {
	ID         JointID
	Name       string
	Type       JointType
	Parent     NodeID
	Child      NodeID
	Axis       *r3.Vec
	Origin     *r3.Vec
	Limits     *Limits
	Value      float64
	ShowAxis   bool
	ShowLimits bool
}

// JointInfo is the summary attached to a joint's child node so that
// inspectors can show joint state without querying the registry.
type JointInfo struct {
	ID    JointID   `json:"id"`
	Name  string    `json:"name"`
	Type  JointType `json:"type"`
	Value float64   `json:"value"`
	Lower float64   `json:"lower"`
	Upper float64   `json:"upper"`
}

func (j *Joint) info() *JointInfo {
	return &JointInfo{
		ID:    j.ID,
		Name:  j.Name,
		Type:  j.Type,
		Value: j.Value,
		Lower: j.Limits.Lower,
		Upper: j.Limits.Upper,
	}
}
