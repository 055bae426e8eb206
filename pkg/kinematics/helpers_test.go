package kinematics_test

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newRig builds a scene from "id" or "id:parent" specs and a Context on it.
func newRig(t *testing.T, nodes []string, opts ...kinematics.Option) (*kinematics.Context, *scene.Scene) {
	t.Helper()
	s := scene.New()
	for _, entry := range nodes {
		id, parent, _ := strings.Cut(entry, ":")
		require.NoError(t, s.AddNode(scene.NewNode(kinematics.NodeID(id), id), kinematics.NodeID(parent)))
	}
	opts = append([]kinematics.Option{kinematics.WithLogger(quietLogger())}, opts...)
	return kinematics.New(s, opts...), s
}

func vec(x, y, z float64) *r3.Vec {
	return &r3.Vec{X: x, Y: y, Z: z}
}

func limits(lo, hi float64) *kinematics.Limits {
	return &kinematics.Limits{Lower: lo, Upper: hi, MaxVelocity: 1, MaxEffort: 10}
}

func mustJoint(t *testing.T, c *kinematics.Context, cfg kinematics.JointConfig) kinematics.JointID {
	t.Helper()
	id, err := c.CreateJoint(cfg)
	require.NoError(t, err)
	return id
}

// serialArm creates base -> l1 -> l2 -> l3 joined by revolute joints about
// +Z, each offset 100 along +Z.
func serialArm(t *testing.T, opts ...kinematics.Option) (*kinematics.Context, *scene.Scene, []kinematics.JointID) {
	t.Helper()
	c, s := newRig(t, []string{"base", "l1", "l2", "l3"}, opts...)
	var ids []kinematics.JointID
	parent := "base"
	for i, child := range []string{"l1", "l2", "l3"} {
		ids = append(ids, mustJoint(t, c, kinematics.JointConfig{
			ID:     kinematics.JointID("j" + string(rune('1'+i))),
			Type:   kinematics.JointRevolute,
			Parent: kinematics.NodeID(parent),
			Child:  kinematics.NodeID(child),
			Axis:   vec(0, 0, 1),
			Origin: vec(0, 0, 100),
		}))
		parent = child
	}
	return c, s, ids
}
