package tessellate_test

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/chazu/armature/pkg/kernel"
	"github.com/chazu/armature/pkg/kernel/sdfx"
	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
	"github.com/chazu/armature/pkg/tessellate"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// newKernel returns a coarse sdfx kernel so tests mesh quickly.
func newKernel() kernel.Kernel {
	return sdfx.NewWithCells(40)
}

// addLink adds a link with an optional box shape to s.
func addLink(t *testing.T, s *scene.Scene, k kernel.Kernel, name, parent string, at r3.Vec, box ...float64) *scene.Node {
	t.Helper()
	n := scene.NewNode(kinematics.NodeID(name), name)
	n.Local.Position = at
	if len(box) == 3 {
		n.Solid = k.Box(box[0], box[1], box[2])
	}
	if err := s.AddNode(n, kinematics.NodeID(parent)); err != nil {
		t.Fatalf("AddNode(%s): %v", name, err)
	}
	return n
}

func checkCentroid(t *testing.T, m *kernel.Mesh, want [3]float64) {
	t.Helper()
	// Generous tolerance since marching cubes is approximate.
	const tol = 10.0
	got := m.Centroid()
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("%s centroid = %v, expected near %v", m.LinkName, got, want)
			return
		}
	}
}

func TestSingleLink(t *testing.T) {
	k := newKernel()
	s := scene.New()
	addLink(t, s, k, "base", "", r3.Vec{}, 100, 50, 10)

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.IsEmpty() {
		t.Fatal("mesh should not be empty")
	}
	if m.LinkName != "base" {
		t.Errorf("expected LinkName %q, got %q", "base", m.LinkName)
	}
	checkCentroid(t, m, [3]float64{0, 0, 0})
}

func TestNestedLinksUseWorldPose(t *testing.T) {
	k := newKernel()
	s := scene.New()
	addLink(t, s, k, "base", "", r3.Vec{X: 200, Y: 100}, 100, 50, 10)
	addLink(t, s, k, "arm", "base", r3.Vec{Z: 50}, 20, 20, 60)

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	if meshes[0].LinkName != "base" || meshes[1].LinkName != "arm" {
		t.Errorf("meshes out of depth-first order: %s, %s", meshes[0].LinkName, meshes[1].LinkName)
	}
	checkCentroid(t, meshes[0], [3]float64{200, 100, 0})
	checkCentroid(t, meshes[1], [3]float64{200, 100, 50})
}

func TestLinksWithoutShapeAreSkipped(t *testing.T) {
	k := newKernel()
	s := scene.New()
	addLink(t, s, k, "frame", "", r3.Vec{Z: 10})
	addLink(t, s, k, "tool", "frame", r3.Vec{Z: 10}, 10, 10, 10)

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	checkCentroid(t, meshes[0], [3]float64{0, 0, 20})
}

func TestMeshesFollowJointMotion(t *testing.T) {
	k := newKernel()
	s := scene.New()
	addLink(t, s, k, "base", "", r3.Vec{}, 20, 20, 20)
	// Offset along +X so a turn about +Z moves it onto +Y.
	arm := scene.NewNode("arm", "arm")
	arm.Solid = k.Translate(k.Box(40, 10, 10), 50, 0, 0)
	if err := s.AddNode(arm, ""); err != nil {
		t.Fatal(err)
	}

	kc := kinematics.New(s, kinematics.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	id, err := kc.CreateJoint(kinematics.JointConfig{
		Type:   kinematics.JointRevolute,
		Parent: "base",
		Child:  "arm",
		Axis:   &r3.Vec{Z: 1},
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := kc.UpdateJointPosition(id, 0); err != nil {
		t.Fatal(err)
	}
	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	checkCentroid(t, meshes[1], [3]float64{50, 0, 0})

	if err := kc.UpdateJointPosition(id, math.Pi/2); err != nil {
		t.Fatal(err)
	}
	meshes, err = tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}
	checkCentroid(t, meshes[1], [3]float64{0, 50, 0})
}

func TestEmptyScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(scene.New(), newKernel())
	if err != nil {
		t.Fatalf("Tessellate failed: %v", err)
	}
	if len(meshes) != 0 {
		t.Fatalf("expected 0 meshes, got %d", len(meshes))
	}

	meshes, err = tessellate.Tessellate(nil, newKernel())
	if err != nil || meshes != nil {
		t.Fatalf("nil scene: got %v, %v", meshes, err)
	}
}

// recordingKernel records the transforms Place applies.
type recordingKernel struct {
	kernel.Kernel
	axis  [3]float64
	angle float64
	moved [3]float64
	calls []string
}

func (r *recordingKernel) RotateAxis(s kernel.Solid, axis [3]float64, angle float64) kernel.Solid {
	r.axis, r.angle = axis, angle
	r.calls = append(r.calls, "rotate")
	return s
}

func (r *recordingKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	r.moved = [3]float64{x, y, z}
	r.calls = append(r.calls, "translate")
	return s
}

func TestPlace(t *testing.T) {
	t.Run("identity is a no-op", func(t *testing.T) {
		rk := &recordingKernel{}
		tessellate.Place(rk, nil, kinematics.IdentityPose())
		if len(rk.calls) != 0 {
			t.Errorf("expected no transforms, got %v", rk.calls)
		}
	})

	t.Run("rotate then translate", func(t *testing.T) {
		rk := &recordingKernel{}
		pose := kinematics.Pose{
			Position: r3.Vec{X: 1, Y: 2, Z: 3},
			Rotation: quat.Number(r3.NewRotation(math.Pi/3, r3.Vec{Y: 1})),
		}
		tessellate.Place(rk, nil, pose)
		if len(rk.calls) != 2 || rk.calls[0] != "rotate" || rk.calls[1] != "translate" {
			t.Fatalf("calls = %v, want [rotate translate]", rk.calls)
		}
		if math.Abs(rk.angle-math.Pi/3) > 1e-9 {
			t.Errorf("angle = %g, want pi/3", rk.angle)
		}
		if math.Abs(rk.axis[1]-1) > 1e-9 {
			t.Errorf("axis = %v, want +Y", rk.axis)
		}
		if rk.moved != [3]float64{1, 2, 3} {
			t.Errorf("translation = %v", rk.moved)
		}
	})
}
