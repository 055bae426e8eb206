package kinematics

import (
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

// CreateJoint registers a joint between two existing scene nodes and
// returns its id. Missing fields are defaulted: a generated id, +Z axis,
// zero origin and the Context's default limits. The initial value is
// clamped into the limits.
func (c *Context) CreateJoint(cfg JointConfig) (JointID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fail := func(err error) (JointID, error) {
		opErr := &OpError{Op: "create", Joint: cfg.ID, Err: err}
		c.log.Warn("joint creation rejected", "joint", cfg.ID, "parent", cfg.Parent, "child", cfg.Child, "error", err)
		return "", opErr
	}

	if !cfg.Type.Valid() {
		return fail(fmt.Errorf("%w: %d", ErrInvalidJointType, int(cfg.Type)))
	}
	_, okParent := c.scene.Node(cfg.Parent)
	child, okChild := c.scene.Node(cfg.Child)
	if !okParent || !okChild || cfg.Parent == cfg.Child {
		return fail(ErrInvalidEndpoints)
	}

	id := cfg.ID
	if id == "" {
		id = JointID("joint-" + uuid.NewString())
	}
	if _, exists := c.joints[id]; exists {
		return fail(ErrDuplicateJoint)
	}

	limits := c.settings.DefaultLimits
	if cfg.Limits != nil {
		limits = *cfg.Limits
	}
	if !limits.Valid() {
		return fail(fmt.Errorf("%w: lower %g, upper %g", ErrInvalidLimits, limits.Lower, limits.Upper))
	}

	axis := unitZ
	if cfg.Axis != nil {
		axis = normalizeAxis(*cfg.Axis)
	}
	var origin r3.Vec
	if cfg.Origin != nil {
		origin = *cfg.Origin
	}
	name := cfg.Name
	if name == "" {
		name = string(id)
	}

	j := &Joint{
		ID:         id,
		Name:       name,
		Type:       cfg.Type,
		Parent:     cfg.Parent,
		Child:      cfg.Child,
		Axis:       axis,
		Origin:     origin,
		Limits:     limits,
		Value:      limits.Clamp(cfg.Value),
		ShowAxis:   cfg.ShowAxis,
		ShowLimits: cfg.ShowLimits,
	}
	c.joints[id] = j
	c.order = append(c.order, id)

	c.scene.SetJointInfo(child, j.info())
	c.syncHelpersLocked(j)

	c.log.Debug("joint created", "joint", id, "type", j.Type, "parent", j.Parent, "child", j.Child)
	return id, nil
}

// DeleteJoint removes a joint, its debug helpers and the child node's joint
// summary. It returns false for unknown ids.
func (c *Context) DeleteJoint(id JointID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.joints[id]
	if !ok {
		c.log.Warn("delete of unknown joint", "joint", id)
		return false
	}
	if a := c.animations[id]; a != nil {
		a.cancel()
	}
	delete(c.joints, id)
	for i, oid := range c.order {
		if oid == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	if hr, ok := c.scene.(HelperRenderer); ok {
		hr.HideJointHelpers(id)
	}
	if child, ok := c.scene.Node(j.Child); ok {
		c.scene.SetJointInfo(child, nil)
	}
	c.log.Debug("joint deleted", "joint", id)
	return true
}

// Joint returns a copy of the joint with the given id.
func (c *Context) Joint(id JointID) (Joint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	j, ok := c.joints[id]
	if !ok {
		return Joint{}, false
	}
	return *j, true
}

// Joints returns copies of all joints in creation order.
func (c *Context) Joints() []Joint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Joint, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.joints[id])
	}
	return out
}

// NodeJoints returns the joints for which node is the parent or the child.
func (c *Context) NodeJoints(node NodeID) []Joint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Joint
	for _, id := range c.order {
		j := c.joints[id]
		if j.Parent == node || j.Child == node {
			out = append(out, *j)
		}
	}
	return out
}

// SetJointDisplay toggles a joint's axis and limit helpers.
func (c *Context) SetJointDisplay(id JointID, showAxis, showLimits bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	j, ok := c.joints[id]
	if !ok {
		c.log.Warn("display change for unknown joint", "joint", id)
		return &OpError{Op: "display", Joint: id, Err: ErrNotFound}
	}
	j.ShowAxis = showAxis
	j.ShowLimits = showLimits
	c.syncHelpersLocked(j)
	return nil
}

// childrenOfLocked returns joints whose parent is node, in creation order.
func (c *Context) childrenOfLocked(node NodeID) []*Joint {
	var out []*Joint
	for _, id := range c.order {
		if j := c.joints[id]; j.Parent == node {
			out = append(out, j)
		}
	}
	return out
}

func (c *Context) syncHelpersLocked(j *Joint) {
	hr, ok := c.scene.(HelperRenderer)
	if !ok {
		return
	}
	if j.ShowAxis || j.ShowLimits {
		hr.ShowJointHelpers(*j)
	} else {
		hr.HideJointHelpers(j.ID)
	}
}

// normalizeAxis returns a unit vector along v, or +Z for a zero vector.
func normalizeAxis(v r3.Vec) r3.Vec {
	if r3.Norm(v) == 0 {
		return unitZ
	}
	return r3.Unit(v)
}
