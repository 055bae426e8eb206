package kinematics

import (
	"errors"
	"sort"
)

type visitState int

const (
	unvisited visitState = iota
	inProgress
	written
)

// propagation tracks one update as it fans out to descendant joints.
type propagation struct {
	state   map[JointID]visitState
	path    []JointID
	written int
}

// UpdateJointPosition clamps value into the joint's limits, stores it and
// writes the resulting local transform onto the child node. Every joint
// hanging off the child node is then rewritten with its current value,
// parent before children. Reaching a joint that is still being propagated
// aborts with ErrCyclicGraph; transforms already written are kept.
func (c *Context) UpdateJointPosition(id JointID, value float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.updateLocked("update", id, value)
}

// SolveChain applies every value in values. Updates are applied in id
// order and are not rolled back when one of them fails; the returned error
// joins all failures.
func (c *Context) SolveChain(values map[JointID]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.applyValuesLocked("solve", values)
}

// ResetToHome drives every joint to zero, clamped into its limits.
func (c *Context) ResetToHome() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for _, id := range append([]JointID(nil), c.order...) {
		if err := c.updateLocked("reset", id, 0); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JointValues returns a snapshot of every joint's current value.
func (c *Context) JointValues() map[JointID]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[JointID]float64, len(c.joints))
	for id, j := range c.joints {
		out[id] = j.Value
	}
	return out
}

// SetJointValues restores a snapshot taken with JointValues. Unknown ids
// are reported in the returned error; the remaining values are applied.
func (c *Context) SetJointValues(values map[JointID]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.applyValuesLocked("restore", values)
}

func (c *Context) applyValuesLocked(op string, values map[JointID]float64) error {
	ids := make([]JointID, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs []error
	for _, id := range ids {
		if err := c.updateLocked(op, id, values[id]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Context) updateLocked(op string, id JointID, value float64) error {
	if j, ok := c.joints[id]; ok && j.Limits.Clamp(value) != value {
		c.metrics.clamped()
		c.log.Debug("joint value clamped", "joint", id, "requested", value,
			"lower", j.Limits.Lower, "upper", j.Limits.Upper)
	}

	p := &propagation{state: make(map[JointID]visitState)}
	err := c.propagateLocked(op, id, value, p)
	switch {
	case err == nil:
		c.metrics.update("ok", p.written)
	case IsCyclic(err):
		c.metrics.cycle()
		c.metrics.update("cyclic", p.written)
		c.log.Error("joint propagation aborted", "op", op, "joint", id, "error", err)
	case IsNotFound(err):
		c.metrics.update("not_found", p.written)
		c.log.Warn("joint update failed", "op", op, "joint", id, "error", err)
	default:
		c.metrics.update("error", p.written)
		c.log.Warn("joint update failed", "op", op, "joint", id, "error", err)
	}
	return err
}

func (c *Context) isParentLocked(child, parent NodeHandle) bool {
	cur, ok := c.scene.Parent(child)
	return ok && cur.NodeID() == parent.NodeID()
}

func (c *Context) propagateLocked(op string, id JointID, value float64, p *propagation) error {
	j, ok := c.joints[id]
	if !ok {
		return &OpError{Op: op, Joint: id, Err: ErrNotFound}
	}
	switch p.state[id] {
	case inProgress:
		path := append(append([]JointID(nil), p.path...), id)
		return &OpError{Op: op, Joint: id, Path: path, Err: ErrCyclicGraph}
	case written:
		return nil
	}
	p.state[id] = inProgress
	p.path = append(p.path, id)

	j.Value = j.Limits.Clamp(value)
	local, err := LocalTransform(*j, c.settings.LinearScale)
	if err != nil {
		return &OpError{Op: op, Joint: id, Err: err}
	}

	parent, ok := c.scene.Node(j.Parent)
	if !ok {
		return &OpError{Op: op, Joint: id, Node: j.Parent, Err: ErrNotFound}
	}
	child, ok := c.scene.Node(j.Child)
	if !ok {
		return &OpError{Op: op, Joint: id, Node: j.Child, Err: ErrNotFound}
	}

	if !c.isParentLocked(child, parent) {
		c.scene.SetParent(child, parent)
		if !c.isParentLocked(child, parent) {
			return &OpError{Op: op, Joint: id, Node: j.Child, Err: ErrReparent}
		}
	}
	c.scene.SetLocalPosition(child, local.Position)
	c.scene.SetLocalRotation(child, local.Rotation)
	c.scene.ResyncPhysics(child)
	c.scene.SetJointInfo(child, j.info())
	p.written++

	for _, next := range c.childrenOfLocked(j.Child) {
		if err := c.propagateLocked(op, next.ID, next.Value, p); err != nil {
			return err
		}
	}

	p.path = p.path[:len(p.path)-1]
	p.state[id] = written
	return nil
}
