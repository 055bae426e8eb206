package kinematics

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Settings tunes a Context. Use DefaultSettings as the starting point.
type Settings struct {
	// LinearScale converts joint linear units into scene units.
	LinearScale float64
	// DefaultLimits is applied to joints created without limits.
	DefaultLimits Limits
	// UpAxis is the scene's vertical direction, used for ground suggestion.
	UpAxis r3.Vec
	// FrameInterval is the animation frame period.
	FrameInterval time.Duration
	// AnimationPause is the hold at the upper limit before easing back.
	AnimationPause time.Duration
}

// DefaultSettings returns millimetre-in-millimetre-scene settings with a +Z
// up axis and 60 Hz animation frames. Mechanisms are built along +Z.
func DefaultSettings() Settings {
	return Settings{
		LinearScale:    1,
		DefaultLimits:  DefaultLimits,
		UpAxis:         unitZ,
		FrameInterval:  time.Second / 60,
		AnimationPause: 500 * time.Millisecond,
	}
}
