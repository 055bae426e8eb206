package engine

import (
	"errors"
	"fmt"

	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
)

// ChainSpec is a chain declared with (chain ...). It is resolved against
// the joint graph when the mechanism is built.
type ChainSpec struct {
	Name string
	Root kinematics.NodeID
	Type kinematics.ChainType
}

// Mechanism is the result of evaluating a mechanism description: a scene of
// links plus the joints, grounding and chains declared on top of it.
type Mechanism struct {
	Scene    *scene.Scene
	Joints   []kinematics.JointConfig // declaration order
	Grounded []kinematics.NodeID
	Chains   []ChainSpec
	Warnings []EvalWarning
}

// NewMechanism returns an empty mechanism with a fresh scene.
func NewMechanism() *Mechanism {
	return &Mechanism{Scene: scene.New()}
}

// Build registers the mechanism's joints, grounding and chains with kc and
// drives every joint to its declared value. kc must have been created on
// m.Scene. Failures are joined; everything that could be built is kept.
func (m *Mechanism) Build(kc *kinematics.Context) ([]kinematics.KinematicChain, error) {
	var errs []error

	values := make(map[kinematics.JointID]float64, len(m.Joints))
	for _, cfg := range m.Joints {
		id, err := kc.CreateJoint(cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		j, _ := kc.Joint(id)
		values[id] = j.Value
	}
	if err := kc.SolveChain(values); err != nil {
		errs = append(errs, err)
	}

	for _, node := range m.Grounded {
		if !kc.GroundNode(node) {
			errs = append(errs, fmt.Errorf("ground %q: %w", node, kinematics.ErrNotFound))
		}
	}

	chains := make([]kinematics.KinematicChain, 0, len(m.Chains))
	for _, cs := range m.Chains {
		chains = append(chains, kc.CreateChain(cs.Name, cs.Root, cs.Type))
	}
	return chains, errors.Join(errs...)
}
