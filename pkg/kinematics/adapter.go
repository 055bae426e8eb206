package kinematics

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// NodeHandle is a resolved reference to a scene node.
type NodeHandle interface {
	NodeID() NodeID
}

// SceneAdapter is the narrow contract the kinematics core needs from the
// host scene graph.
type SceneAdapter interface {
	Node(id NodeID) (NodeHandle, bool)
	Parent(h NodeHandle) (NodeHandle, bool)
	// SetParent moves child under parent. Propagation fails with
	// ErrReparent if child is not under parent afterwards.
	SetParent(child, parent NodeHandle)
	LocalPose(h NodeHandle) Pose
	SetLocalPosition(h NodeHandle, p r3.Vec)
	SetLocalRotation(h NodeHandle, q quat.Number)
	// ResyncPhysics pushes the node's pose to its physics body, if any.
	ResyncPhysics(h NodeHandle)
	// SetJointInfo attaches a joint summary to the node. nil clears it.
	SetJointInfo(h NodeHandle, info *JointInfo)
}

// GeometryQuerier is implemented by scenes that can report mesh geometry.
// It is required by SuggestGroundNode.
type GeometryQuerier interface {
	// Descendants returns h and every node below it, depth first.
	Descendants(h NodeHandle) []NodeHandle
	// MeshBounds returns the world-space bounding box of the node's own
	// mesh, or false if the node carries no mesh.
	MeshBounds(h NodeHandle) (min, max r3.Vec, ok bool)
}

// HelperRenderer is implemented by scenes that draw joint debug visuals.
type HelperRenderer interface {
	ShowJointHelpers(j Joint)
	HideJointHelpers(id JointID)
}
