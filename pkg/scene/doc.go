// Package scene is an in-memory scene graph that implements the
// kinematics.SceneAdapter contract. Nodes carry a local pose, an optional
// link solid from the geometry kernel and an optional physics body.
package scene
