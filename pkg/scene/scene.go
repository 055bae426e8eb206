package scene

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/chazu/armature/pkg/kinematics"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Compile-time interface checks.
var (
	_ kinematics.SceneAdapter    = (*Scene)(nil)
	_ kinematics.GeometryQuerier = (*Scene)(nil)
	_ kinematics.HelperRenderer  = (*Scene)(nil)
)

// Scene is a tree (forest) of nodes. It is safe for concurrent use.
type Scene struct {
	mu      sync.RWMutex
	nodes   map[kinematics.NodeID]*Node
	roots   []*Node
	names   map[string]kinematics.NodeID
	helpers map[kinematics.JointID]kinematics.Joint
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{
		nodes:   make(map[kinematics.NodeID]*Node),
		names:   make(map[string]kinematics.NodeID),
		helpers: make(map[kinematics.JointID]kinematics.Joint),
	}
}

// AddNode inserts n under parent, or as a root when parent is empty.
func (s *Scene) AddNode(n *Node, parent kinematics.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID == "" {
		return fmt.Errorf("scene: node has no id")
	}
	if _, exists := s.nodes[n.ID]; exists {
		return fmt.Errorf("scene: node %q already exists", n.ID)
	}
	if n.Name != "" {
		if _, exists := s.names[n.Name]; exists {
			return fmt.Errorf("scene: node name %q already used", n.Name)
		}
	}
	if n.Local.Rotation == (quat.Number{}) {
		n.Local.Rotation = kinematics.IdentityQuat
	}
	if parent == "" {
		s.roots = append(s.roots, n)
	} else {
		p, ok := s.nodes[parent]
		if !ok {
			return fmt.Errorf("scene: parent %q of node %q does not exist", parent, n.ID)
		}
		n.parent = p
		p.children = append(p.children, n)
	}
	s.nodes[n.ID] = n
	if n.Name != "" {
		s.names[n.Name] = n.ID
	}
	return nil
}

// Get returns the node with the given id, or nil.
func (s *Scene) Get(id kinematics.NodeID) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// Lookup returns the node with the given name, or nil.
func (s *Scene) Lookup(name string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.names[name]
	if !ok {
		return nil
	}
	return s.nodes[id]
}

// Roots returns the top-level nodes in insertion order.
func (s *Scene) Roots() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Node(nil), s.roots...)
}

// Children returns the direct children of the node with the given id.
func (s *Scene) Children(id kinematics.NodeID) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[id]
	if n == nil {
		return nil
	}
	return append([]*Node(nil), n.children...)
}

// ParentID returns the id of the node's parent, or "" for roots.
func (s *Scene) ParentID(id kinematics.NodeID) kinematics.NodeID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.nodes[id]; n != nil && n.parent != nil {
		return n.parent.ID
	}
	return ""
}

// NodeCount returns the total number of nodes.
func (s *Scene) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// JointInfo returns the joint summary attached to a node.
func (s *Scene) JointInfo(id kinematics.NodeID) (kinematics.JointInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[id]
	if n == nil || n.joint == nil {
		return kinematics.JointInfo{}, false
	}
	return *n.joint, true
}

// Helpers returns the joints whose debug visuals are shown, sorted by id.
func (s *Scene) Helpers() []kinematics.Joint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]kinematics.Joint, 0, len(s.helpers))
	for _, j := range s.helpers {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WorldPose composes local poses from the root down to the node.
func (s *Scene) WorldPose(id kinematics.NodeID) (kinematics.Pose, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[id]
	if n == nil {
		return kinematics.Pose{}, false
	}
	return worldPose(n), true
}

// WorldMatrix returns the node's world transform as an sdfx matrix.
func (s *Scene) WorldMatrix(id kinematics.NodeID) (sdf.M44, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[id]
	if n == nil {
		return sdf.Identity3d(), false
	}
	m := localMatrix(n.Local)
	for p := n.parent; p != nil; p = p.parent {
		m = localMatrix(p.Local).Mul(m)
	}
	return m, true
}

// WorldPosition is the node origin in world space, taken from WorldMatrix.
func (s *Scene) WorldPosition(id kinematics.NodeID) (r3.Vec, bool) {
	m, ok := s.WorldMatrix(id)
	if !ok {
		return r3.Vec{}, false
	}
	p := m.MulPosition(v3.Vec{})
	return r3.Vec{X: p.X, Y: p.Y, Z: p.Z}, true
}

// ---------------------------------------------------------------------------
// kinematics.SceneAdapter
// ---------------------------------------------------------------------------

// Node resolves a node id to a handle.
func (s *Scene) Node(id kinematics.NodeID) (kinematics.NodeHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.nodes[id]
	if n == nil {
		return nil, false
	}
	return n, true
}

// Parent returns the node's parent handle, or false for roots.
func (s *Scene) Parent(h kinematics.NodeHandle) (kinematics.NodeHandle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.resolve(h)
	if n == nil || n.parent == nil {
		return nil, false
	}
	return n.parent, true
}

// SetParent moves child under parent, keeping its local pose. When child is
// an ancestor of parent, the subtree holding parent is first lifted to
// child's parent with its world pose unchanged. Putting a node under itself
// is ignored.
func (s *Scene) SetParent(child, parent kinematics.NodeHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, p := s.resolve(child), s.resolve(parent)
	if c == nil || p == nil || c == p || c.parent == p {
		return
	}
	if c.isAncestorOf(p) {
		top := p
		for top.parent != c {
			top = top.parent
		}
		top.Local = c.Local.Compose(top.Local)
		s.attach(top, c.parent)
	}
	s.attach(c, p)
}

// attach detaches n and adds it under parent, or as a root when parent is
// nil.
func (s *Scene) attach(n, parent *Node) {
	if n.parent != nil {
		n.parent.removeChild(n)
	} else {
		for i, r := range s.roots {
			if r == n {
				s.roots = append(s.roots[:i], s.roots[i+1:]...)
				break
			}
		}
	}
	n.parent = parent
	if parent == nil {
		s.roots = append(s.roots, n)
		return
	}
	parent.children = append(parent.children, n)
}

// LocalPose returns the node's pose relative to its parent.
func (s *Scene) LocalPose(h kinematics.NodeHandle) kinematics.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.resolve(h); n != nil {
		return n.Local
	}
	return kinematics.IdentityPose()
}

// SetLocalPosition sets the node's translation relative to its parent.
func (s *Scene) SetLocalPosition(h kinematics.NodeHandle, p r3.Vec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.resolve(h); n != nil {
		n.Local.Position = p
	}
}

// SetLocalRotation sets the node's rotation relative to its parent.
func (s *Scene) SetLocalRotation(h kinematics.NodeHandle, q quat.Number) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.resolve(h); n != nil {
		n.Local.Rotation = q
	}
}

// ResyncPhysics pushes the node's world pose to its body, if it has one.
func (s *Scene) ResyncPhysics(h kinematics.NodeHandle) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n := s.resolve(h); n != nil && n.Body != nil {
		n.Body.Sync(worldPose(n))
	}
}

// SetJointInfo attaches or clears the node's joint summary.
func (s *Scene) SetJointInfo(h kinematics.NodeHandle, info *kinematics.JointInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.resolve(h); n != nil {
		if info == nil {
			n.joint = nil
			return
		}
		cp := *info
		n.joint = &cp
	}
}

// ---------------------------------------------------------------------------
// kinematics.GeometryQuerier
// ---------------------------------------------------------------------------

// Descendants returns h and all nodes below it in depth-first pre-order.
func (s *Scene) Descendants(h kinematics.NodeHandle) []kinematics.NodeHandle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []kinematics.NodeHandle
	var walk func(n *Node)
	walk = func(n *Node) {
		out = append(out, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	if n := s.resolve(h); n != nil {
		walk(n)
	}
	return out
}

// MeshBounds returns the world-space axis-aligned box around the node's
// solid.
func (s *Scene) MeshBounds(h kinematics.NodeHandle) (min, max r3.Vec, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := s.resolve(h)
	if n == nil || n.Solid == nil {
		return r3.Vec{}, r3.Vec{}, false
	}
	lo, hi := n.Solid.BoundingBox()
	world := worldPose(n)
	rot := r3.Rotation(world.Rotation)

	min = r3.Vec{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)}
	max = r3.Vec{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)}
	for i := 0; i < 8; i++ {
		corner := r3.Vec{X: lo[0], Y: lo[1], Z: lo[2]}
		if i&1 != 0 {
			corner.X = hi[0]
		}
		if i&2 != 0 {
			corner.Y = hi[1]
		}
		if i&4 != 0 {
			corner.Z = hi[2]
		}
		p := r3.Add(world.Position, rot.Rotate(corner))
		min = r3.Vec{X: math.Min(min.X, p.X), Y: math.Min(min.Y, p.Y), Z: math.Min(min.Z, p.Z)}
		max = r3.Vec{X: math.Max(max.X, p.X), Y: math.Max(max.Y, p.Y), Z: math.Max(max.Z, p.Z)}
	}
	return min, max, true
}

// ---------------------------------------------------------------------------
// kinematics.HelperRenderer
// ---------------------------------------------------------------------------

// ShowJointHelpers records that a joint's helpers are visible.
func (s *Scene) ShowJointHelpers(j kinematics.Joint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.helpers[j.ID] = j
}

// HideJointHelpers removes a joint's helpers.
func (s *Scene) HideJointHelpers(id kinematics.JointID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.helpers, id)
}

// resolve maps a handle back to a node owned by this scene.
func (s *Scene) resolve(h kinematics.NodeHandle) *Node {
	n, ok := h.(*Node)
	if !ok || n == nil || s.nodes[n.ID] != n {
		return nil
	}
	return n
}

func worldPose(n *Node) kinematics.Pose {
	pose := n.Local
	for p := n.parent; p != nil; p = p.parent {
		pose = p.Local.Compose(pose)
	}
	return pose
}

// localMatrix converts a pose to translate-after-rotate matrix form.
func localMatrix(p kinematics.Pose) sdf.M44 {
	t := sdf.Translate3d(v3.Vec{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z})
	return t.Mul(rotationMatrix(p.Rotation))
}

// rotationMatrix converts a unit quaternion to an sdfx rotation via its
// axis-angle form.
func rotationMatrix(q quat.Number) sdf.M44 {
	n := quat.Abs(q)
	if n == 0 {
		return sdf.Identity3d()
	}
	if n != 1 {
		q = quat.Scale(1/n, q)
	}
	w := math.Max(-1, math.Min(1, q.Real))
	sinHalf := math.Sqrt(1 - w*w)
	if sinHalf < 1e-12 {
		return sdf.Identity3d()
	}
	axis := v3.Vec{X: q.Imag / sinHalf, Y: q.Jmag / sinHalf, Z: q.Kmag / sinHalf}
	return sdf.Rotate3d(axis, 2*math.Acos(w))
}
