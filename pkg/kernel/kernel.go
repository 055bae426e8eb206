// Package kernel defines the abstract geometry kernel interface.
// Link shapes in a mechanism are built through it, and the scene uses the
// resulting solids for bounding boxes and meshes. The abstraction keeps the
// kinematics code independent of the modelling backend.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives, centred on the origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64, segments int) Solid

	Union(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid
	RotateAxis(s Solid, axis [3]float64, angle float64) Solid // angle in radians

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}
