package kinematics

import (
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
)

// GroundNode marks node as a fixed reference and snapshots its local pose.
// It returns false, leaving the grounding set unchanged, if the node does
// not exist. Grounding has no effect on forward kinematics.
func (c *Context) GroundNode(node NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.scene.Node(node)
	if !ok {
		c.log.Warn("ground of unknown node", "node", node)
		return false
	}
	c.grounded[node] = c.scene.LocalPose(h)
	return true
}

// UngroundNode clears the grounded flag. It returns false if node was not
// grounded.
func (c *Context) UngroundNode(node NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.grounded[node]; !ok {
		return false
	}
	delete(c.grounded, node)
	return true
}

// IsGrounded reports whether node is in the grounding set.
func (c *Context) IsGrounded(node NodeID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.grounded[node]
	return ok
}

// GroundedPose returns the pose captured when node was grounded.
func (c *Context) GroundedPose(node NodeID) (Pose, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.grounded[node]
	return p, ok
}

// GroundedNodes returns the grounded node ids in sorted order.
func (c *Context) GroundedNodes() []NodeID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]NodeID, 0, len(c.grounded))
	for id := range c.grounded {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// GroundCandidate describes a mesh-bearing node considered by
// SuggestGroundNode.
type GroundCandidate struct {
	Node   NodeID
	Height float64 // bounding-box centre along the up axis
	Volume float64 // bounding-box volume
}

// GroundScorer ranks candidates; the highest score wins.
type GroundScorer func(GroundCandidate) float64

// DefaultGroundScore prefers low, bulky parts: -height + 0.1*volume.
// It is a heuristic for picking a plausible base, not a physical stability
// analysis.
func DefaultGroundScore(c GroundCandidate) float64 {
	return -c.Height + 0.1*c.Volume
}

// SuggestGroundNode scores every mesh-bearing node at or below root and
// returns the best one. It returns false if root is unknown, the scene
// cannot report geometry, or no node carries a mesh.
func (c *Context) SuggestGroundNode(root NodeID) (NodeID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	gq, ok := c.scene.(GeometryQuerier)
	if !ok {
		c.log.Warn("scene does not expose geometry; cannot suggest ground node")
		return "", false
	}
	h, ok := c.scene.Node(root)
	if !ok {
		c.log.Warn("ground suggestion for unknown node", "node", root)
		return "", false
	}

	up := normalizeAxis(c.settings.UpAxis)
	var (
		best      NodeID
		bestScore float64
		found     bool
	)
	for _, d := range gq.Descendants(h) {
		min, max, ok := gq.MeshBounds(d)
		if !ok {
			continue
		}
		center := r3.Scale(0.5, r3.Add(min, max))
		size := r3.Sub(max, min)
		cand := GroundCandidate{
			Node:   d.NodeID(),
			Height: r3.Dot(center, up),
			Volume: boxVolume(size),
		}
		score := c.scorer(cand)
		if !found || score > bestScore {
			best, bestScore, found = cand.Node, score, true
		}
	}
	return best, found
}

func boxVolume(size r3.Vec) float64 {
	if !(size.X > 0 && size.Y > 0 && size.Z > 0) {
		return 0
	}
	return size.X * size.Y * size.Z
}
