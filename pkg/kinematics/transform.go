package kinematics

import (
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// sphericalReferenceAxis is the single axis a spherical joint rotates
// about. The remaining two rotational DOFs are not driven.
var sphericalReferenceAxis = unitY

// LocalTransform returns the child's pose in the parent frame for the
// joint's current value. Translations are multiplied by linearScale.
func LocalTransform(j Joint, linearScale float64) (Pose, error) {
	pose := IdentityPose()
	v := j.Value

	switch j.Type {
	case JointFixed:
		pose.Position = j.Origin
	case JointRevolute:
		pose.Position = j.Origin
		pose.Rotation = axisAngle(j.Axis, v)
	case JointPrismatic:
		pose.Position = r3.Add(j.Origin, r3.Scale(v, j.Axis))
	case JointSpherical:
		pose.Position = j.Origin
		pose.Rotation = axisAngle(sphericalReferenceAxis, v)
	case JointCylindrical:
		// Rotation about the axis is not driven.
		pose.Position = r3.Add(j.Origin, r3.Scale(v, j.Axis))
	case JointPlanar:
		// Only the axis direction of the plane is driven.
		pose.Position = r3.Add(j.Origin, r3.Scale(v, j.Axis))
	default:
		return Pose{}, fmt.Errorf("%w: %d", ErrInvalidJointType, int(j.Type))
	}

	pose.Position = r3.Scale(linearScale, pose.Position)
	return pose, nil
}

// axisAngle returns the unit quaternion rotating by angle radians about axis.
func axisAngle(axis r3.Vec, angle float64) quat.Number {
	return quat.Number(r3.NewRotation(angle, normalizeAxis(axis)))
}
