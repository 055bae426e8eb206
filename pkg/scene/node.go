package scene

import (
	"github.com/chazu/armature/pkg/kernel"
	"github.com/chazu/armature/pkg/kinematics"
)

// Body is a physics body attached to a node. Sync receives the node's
// world pose after kinematics moved it.
type Body interface {
	Sync(world kinematics.Pose)
}

// RigidBody is a minimal Body that records the last synced pose.
type RigidBody struct {
	Mass  float64
	Pose  kinematics.Pose
	Syncs int
}

// Sync stores world as the body's pose.
func (b *RigidBody) Sync(world kinematics.Pose) {
	b.Pose = world
	b.Syncs++
}

// Node is a single element of the scene tree.
type Node struct {
	ID    kinematics.NodeID
	Name  string
	Local kinematics.Pose
	Solid kernel.Solid // link geometry in the node frame, may be nil
	Body  Body         // may be nil

	parent   *Node
	children []*Node
	joint    *kinematics.JointInfo
}

// NewNode returns a node at the identity pose.
func NewNode(id kinematics.NodeID, name string) *Node {
	return &Node{ID: id, Name: name, Local: kinematics.IdentityPose()}
}

// NodeID implements kinematics.NodeHandle.
func (n *Node) NodeID() kinematics.NodeID {
	return n.ID
}

// isAncestorOf reports whether n is other or one of other's ancestors.
func (n *Node) isAncestorOf(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

func (n *Node) removeChild(c *Node) {
	for i, ch := range n.children {
		if ch == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			return
		}
	}
}
