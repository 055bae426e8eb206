package kinematics_test

import (
	"math"
	"testing"

	"github.com/chazu/armature/pkg/kinematics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestLocalTransform(t *testing.T) {
	origin := r3.Vec{X: 1, Y: 2, Z: 3}
	axis := r3.Vec{X: 1}

	tests := []struct {
		name  string
		typ   kinematics.JointType
		value float64
		pos   r3.Vec
		rot   quat.Number
	}{
		{"fixed ignores value", kinematics.JointFixed, 5, origin, kinematics.IdentityQuat},
		{"revolute", kinematics.JointRevolute, math.Pi / 2, origin, quat.Number(r3.NewRotation(math.Pi/2, axis))},
		{"prismatic", kinematics.JointPrismatic, 4, r3.Vec{X: 5, Y: 2, Z: 3}, kinematics.IdentityQuat},
		{"spherical turns about +Y", kinematics.JointSpherical, math.Pi / 3, origin, quat.Number(r3.NewRotation(math.Pi/3, r3.Vec{Y: 1}))},
		{"cylindrical translates", kinematics.JointCylindrical, -2, r3.Vec{X: -1, Y: 2, Z: 3}, kinematics.IdentityQuat},
		{"planar translates", kinematics.JointPlanar, 0.5, r3.Vec{X: 1.5, Y: 2, Z: 3}, kinematics.IdentityQuat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := kinematics.Joint{Type: tt.typ, Axis: axis, Origin: origin, Value: tt.value}
			pose, err := kinematics.LocalTransform(j, 1)
			require.NoError(t, err)
			assertVec(t, tt.pos, pose.Position)
			assertQuat(t, tt.rot, pose.Rotation)
		})
	}

	_, err := kinematics.LocalTransform(kinematics.Joint{Type: kinematics.JointType(-1)}, 1)
	assert.ErrorIs(t, err, kinematics.ErrInvalidJointType)
}

func TestLocalTransformScale(t *testing.T) {
	j := kinematics.Joint{Type: kinematics.JointPrismatic, Axis: r3.Vec{Z: 1}, Origin: r3.Vec{Z: 10}, Value: 10}
	pose, err := kinematics.LocalTransform(j, 0.1)
	require.NoError(t, err)
	assertVec(t, r3.Vec{Z: 2}, pose.Position)
}

func TestPoseCompose(t *testing.T) {
	parent := kinematics.Pose{
		Position: r3.Vec{X: 10},
		Rotation: quat.Number(r3.NewRotation(math.Pi/2, r3.Vec{Z: 1})),
	}
	child := kinematics.Pose{Position: r3.Vec{X: 1}, Rotation: kinematics.IdentityQuat}

	world := parent.Compose(child)
	assertVec(t, r3.Vec{X: 10, Y: 1}, world.Position)
	assertQuat(t, parent.Rotation, world.Rotation)
}

func TestLimits(t *testing.T) {
	l := kinematics.Limits{Lower: -1, Upper: 1}
	assert.Equal(t, -1.0, l.Clamp(-3))
	assert.Equal(t, 0.25, l.Clamp(0.25))
	assert.Equal(t, 1.0, l.Clamp(math.Inf(1)))
	assert.Zero(t, l.Clamp(math.NaN()))
	assert.True(t, l.Contains(1))
	assert.False(t, l.Contains(1.01))

	assert.True(t, l.Valid())
	assert.True(t, kinematics.Limits{Lower: 2, Upper: 2}.Valid())
	assert.False(t, kinematics.Limits{Lower: 1, Upper: -1}.Valid())
	assert.False(t, kinematics.Limits{Lower: math.NaN(), Upper: 1}.Valid())
	assert.False(t, kinematics.Limits{Lower: -1, Upper: math.NaN()}.Valid())
}
