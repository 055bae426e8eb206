// Package tessellate walks a mechanism scene and produces triangle meshes
// using a geometry kernel. One mesh is produced per link that has a shape,
// placed at the link's current world pose.
package tessellate

import (
	"fmt"
	"math"

	"github.com/chazu/armature/pkg/kernel"
	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
	"gonum.org/v1/gonum/num/quat"
)

// poseStack accumulates world poses during scene traversal.
type poseStack struct {
	poses []kinematics.Pose
}

func (ps *poseStack) push(local kinematics.Pose) kinematics.Pose {
	world := local
	if n := len(ps.poses); n > 0 {
		world = ps.poses[n-1].Compose(local)
	}
	ps.poses = append(ps.poses, world)
	return world
}

func (ps *poseStack) pop() {
	if len(ps.poses) > 0 {
		ps.poses = ps.poses[:len(ps.poses)-1]
	}
}

// Tessellate walks the scene depth first from its roots and produces one
// triangle mesh per link with a shape. The tessellator is read-only and
// never mutates the scene.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}

	var meshes []*kernel.Mesh
	ps := &poseStack{}
	for _, root := range s.Roots() {
		collected, err := walkNode(s, k, root, ps)
		if err != nil {
			return nil, fmt.Errorf("tessellate: error walking root %s: %w", root.ID, err)
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// walkNode meshes n, then recurses into its children with n's world pose
// on the stack.
func walkNode(s *scene.Scene, k kernel.Kernel, n *scene.Node, ps *poseStack) ([]*kernel.Mesh, error) {
	world := ps.push(s.LocalPose(n))
	defer ps.pop()

	var meshes []*kernel.Mesh
	if n.Solid != nil {
		mesh, err := k.ToMesh(Place(k, n.Solid, world))
		if err != nil {
			return nil, fmt.Errorf("ToMesh failed for link %s: %w", n.ID, err)
		}
		mesh.LinkName = n.Name
		if mesh.LinkName == "" {
			mesh.LinkName = string(n.ID)
		}
		meshes = append(meshes, mesh)
	}

	for _, child := range s.Children(n.ID) {
		collected, err := walkNode(s, k, child, ps)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// Place rotates solid by pose's rotation, then translates it by pose's
// position.
func Place(k kernel.Kernel, solid kernel.Solid, pose kinematics.Pose) kernel.Solid {
	if axis, angle := axisAngle(pose.Rotation); angle != 0 {
		solid = k.RotateAxis(solid, axis, angle)
	}
	p := pose.Position
	if p.X != 0 || p.Y != 0 || p.Z != 0 {
		solid = k.Translate(solid, p.X, p.Y, p.Z)
	}
	return solid
}

// axisAngle converts a unit quaternion to a rotation axis and an angle in
// radians. The identity rotation yields a zero angle.
func axisAngle(q quat.Number) ([3]float64, float64) {
	n := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if n < 1e-12 {
		return [3]float64{0, 0, 1}, 0
	}
	angle := 2 * math.Atan2(n, q.Real)
	return [3]float64{q.Imag / n, q.Jmag / n, q.Kmag / n}, angle
}
