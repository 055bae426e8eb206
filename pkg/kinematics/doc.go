// Package kinematics models mechanisms as a graph of joints between scene
// nodes and propagates joint values into rigid transforms (forward
// kinematics).
//
// A Context owns the joint registry, the grounding set and any running
// animations. It reads and writes node transforms only through a
// SceneAdapter; it never owns scene nodes. Chains built with CreateChain are
// snapshots of the joint graph at the time of the call.
//
// Spherical, cylindrical and planar joints are driven by a single scalar.
// JointType.ActiveDOF and JointType.NominalDOF report the difference.
package kinematics
