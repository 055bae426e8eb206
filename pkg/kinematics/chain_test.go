package kinematics_test

import (
	"encoding/json"
	"testing"

	"github.com/chazu/armature/pkg/kinematics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateChainDOF(t *testing.T) {
	c, _ := newRig(t, []string{"base", "shoulder", "elbow", "wrist", "tool"})
	for _, j := range []kinematics.JointConfig{
		{ID: "j1", Type: kinematics.JointRevolute, Parent: "base", Child: "shoulder"},
		{ID: "j2", Type: kinematics.JointSpherical, Parent: "shoulder", Child: "elbow"},
		{ID: "j3", Type: kinematics.JointPrismatic, Parent: "elbow", Child: "wrist"},
		{ID: "mount", Type: kinematics.JointFixed, Parent: "wrist", Child: "tool"},
	} {
		mustJoint(t, c, j)
	}

	chain := c.CreateChain("arm", "base", kinematics.ChainSerial)
	assert.Equal(t, "arm", chain.Name)
	assert.Equal(t, kinematics.NodeID("base"), chain.Root)
	assert.Equal(t, kinematics.ChainSerial, chain.Type)
	assert.NotEmpty(t, chain.ID)
	assert.Equal(t, []kinematics.JointID{"j1", "j2", "j3", "mount"}, chain.Joints)
	assert.Equal(t, 3, chain.DOF)

	again := c.CreateChain("arm", "base", kinematics.ChainSerial)
	assert.Equal(t, chain.Joints, again.Joints)
	assert.Equal(t, chain.DOF, again.DOF)
	assert.NotEqual(t, chain.ID, again.ID)

	sub := c.CreateChain("forearm", "elbow", kinematics.ChainSerial)
	assert.Equal(t, []kinematics.JointID{"j3", "mount"}, sub.Joints)
	assert.Equal(t, 1, sub.DOF)
}

func TestCreateChainLeafAndUnknownRoot(t *testing.T) {
	c, _ := newRig(t, []string{"a", "b"})
	mustJoint(t, c, kinematics.JointConfig{Type: kinematics.JointRevolute, Parent: "a", Child: "b"})

	for _, root := range []kinematics.NodeID{"b", "ghost"} {
		chain := c.CreateChain("empty", root, kinematics.ChainTree)
		assert.NotNil(t, chain.Joints)
		assert.Empty(t, chain.Joints)
		assert.Zero(t, chain.DOF)
	}
}

func TestCreateChainBranches(t *testing.T) {
	c, _ := newRig(t, []string{"palm", "f1", "f2", "tip"})
	mustJoint(t, c, kinematics.JointConfig{ID: "a", Type: kinematics.JointRevolute, Parent: "palm", Child: "f1"})
	mustJoint(t, c, kinematics.JointConfig{ID: "b", Type: kinematics.JointRevolute, Parent: "palm", Child: "f2"})
	mustJoint(t, c, kinematics.JointConfig{ID: "c", Type: kinematics.JointRevolute, Parent: "f1", Child: "tip"})

	chain := c.CreateChain("hand", "palm", kinematics.ChainTree)
	assert.Equal(t, []kinematics.JointID{"a", "c", "b"}, chain.Joints)
	assert.Equal(t, 3, chain.DOF)
}

func TestCreateChainTerminatesOnCycle(t *testing.T) {
	c, _ := newRig(t, []string{"a", "b"})
	mustJoint(t, c, kinematics.JointConfig{ID: "ab", Type: kinematics.JointRevolute, Parent: "a", Child: "b"})
	mustJoint(t, c, kinematics.JointConfig{ID: "ba", Type: kinematics.JointFixed, Parent: "b", Child: "a"})

	chain := c.CreateChain("loop", "a", kinematics.ChainClosed)
	assert.Equal(t, []kinematics.JointID{"ab", "ba"}, chain.Joints)
	assert.Equal(t, 1, chain.DOF)
}

func TestChainTypeNames(t *testing.T) {
	for _, typ := range []kinematics.ChainType{kinematics.ChainSerial, kinematics.ChainParallel, kinematics.ChainTree, kinematics.ChainClosed} {
		parsed, err := kinematics.ParseChainType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}
	_, err := kinematics.ParseChainType("ring")
	assert.Error(t, err)
	assert.Equal(t, "ChainType(7)", kinematics.ChainType(7).String())
}

func TestChainTypeText(t *testing.T) {
	b, err := kinematics.ChainTree.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "tree", string(b))

	var typ kinematics.ChainType
	require.NoError(t, typ.UnmarshalText(b))
	assert.Equal(t, kinematics.ChainTree, typ)

	_, err = kinematics.ChainType(7).MarshalText()
	assert.Error(t, err)
	_, err = json.Marshal(kinematics.KinematicChain{Type: kinematics.ChainType(-1)})
	assert.Error(t, err)
}
