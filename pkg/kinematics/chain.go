package kinematics

import (
	"fmt"

	"github.com/google/uuid"
)

// ChainType is an informational topology tag; it is not enforced.
type ChainType int

const (
	ChainSerial ChainType = iota
	ChainParallel
	ChainTree
	ChainClosed
)

var chainTypeNames = [...]string{
	ChainSerial:   "serial",
	ChainParallel: "parallel",
	ChainTree:     "tree",
	ChainClosed:   "closed",
}

func (t ChainType) String() string {
	if t.Valid() {
		return chainTypeNames[t]
	}
	return fmt.Sprintf("ChainType(%d)", int(t))
}

// Valid reports whether t is one of the declared chain types.
func (t ChainType) Valid() bool {
	return t >= ChainSerial && t <= ChainClosed
}

// ParseChainType maps a name such as "serial" to its ChainType.
func ParseChainType(s string) (ChainType, error) {
	for i, name := range chainTypeNames {
		if name == s {
			return ChainType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown chain type %q", s)
}

// MarshalText encodes the type by name.
func (t ChainType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid chain type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name.
func (t *ChainType) UnmarshalText(b []byte) error {
	v, err := ParseChainType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// KinematicChain is a snapshot of the joints reachable from a root node.
type KinematicChain struct {
	ID     ChainID   `json:"id"`
	Name   string    `json:"name"`
	Type   ChainType `json:"type"`
	Root   NodeID    `json:"root"`
	Joints []JointID `json:"joints"` // parent before child along each branch
	DOF    int       `json:"dof"`
}

// CreateChain walks the joint graph depth first from root and returns the
// joints it discovers. Each node is expanded at most once, so cycles in the
// graph terminate; the joint leading back into a visited node is still
// listed. A root without outgoing joints yields an empty chain.
func (c *Context) CreateChain(name string, root NodeID, typ ChainType) KinematicChain {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chain := KinematicChain{
		ID:     ChainID(uuid.NewString()),
		Name:   name,
		Type:   typ,
		Root:   root,
		Joints: []JointID{},
	}

	visited := make(map[NodeID]bool)
	var walk func(node NodeID)
	walk = func(node NodeID) {
		if visited[node] {
			return
		}
		visited[node] = true
		for _, j := range c.childrenOfLocked(node) {
			chain.Joints = append(chain.Joints, j.ID)
			if j.Type != JointFixed {
				chain.DOF++
			}
			walk(j.Child)
		}
	}
	walk(root)

	c.log.Debug("chain created", "chain", chain.Name, "root", root, "joints", len(chain.Joints), "dof", chain.DOF)
	return chain
}
