package kinematics

import (
	"context"
	"errors"
	"sync"
	"time"
)

// FrameFunc receives each animation frame's applied joint value.
type FrameFunc func(id JointID, value float64)

// Animation is a handle to a running joint animation. The joint eases from
// its starting value to its upper limit, holds, then eases back.
type Animation struct {
	joint    JointID
	start    float64
	target   float64
	duration time.Duration
	pause    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
	owner  *sync.RWMutex // the Context lock frames are applied under

	mu  sync.Mutex
	err error
}

// Joint returns the animated joint's id.
func (a *Animation) Joint() JointID { return a.joint }

// Cancel stops the animation. No frame is applied after Cancel returns. It
// is safe to call more than once and after completion.
func (a *Animation) Cancel() {
	if a.owner != nil {
		a.owner.Lock()
		defer a.owner.Unlock()
	}
	a.cancel()
}

// Done is closed when the animation completes, is cancelled or fails.
func (a *Animation) Done() <-chan struct{} { return a.done }

// Err returns nil after a completed run, context.Canceled after Cancel, or
// the update error that stopped the animation. It is only meaningful once
// Done is closed.
func (a *Animation) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// Total returns the full length of the animation including the pause.
func (a *Animation) Total() time.Duration {
	return 2*a.duration + a.pause
}

// step returns the joint value at elapsed and whether the animation is over.
func (a *Animation) step(elapsed time.Duration) (float64, bool) {
	switch {
	case elapsed < a.duration:
		t := float64(elapsed) / float64(a.duration)
		return lerp(a.start, a.target, easeInOutQuad(t)), false
	case elapsed < a.duration+a.pause:
		return a.target, false
	case elapsed < a.Total():
		t := float64(elapsed-a.duration-a.pause) / float64(a.duration)
		return lerp(a.target, a.start, easeInOutQuad(t)), false
	}
	return a.start, true
}

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// AnimateJoint starts animating a joint and returns its handle. Frames are
// applied through UpdateJointPosition every FrameInterval on a separate
// goroutine; onFrame, if non-nil, is called after each frame without the
// Context lock held. A running animation of the same joint is cancelled.
// Cancelling ctx stops the animation as well.
func (c *Context) AnimateJoint(ctx context.Context, id JointID, duration time.Duration, onFrame FrameFunc) (*Animation, error) {
	if duration <= 0 {
		return nil, &OpError{Op: "animate", Joint: id, Err: ErrInvalidDuration}
	}

	c.mu.Lock()
	j, ok := c.joints[id]
	if !ok {
		c.mu.Unlock()
		c.log.Warn("animation of unknown joint", "joint", id)
		return nil, &OpError{Op: "animate", Joint: id, Err: ErrNotFound}
	}
	if prev := c.animations[id]; prev != nil {
		prev.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	a := &Animation{
		joint:    id,
		start:    j.Value,
		target:   j.Limits.Upper,
		duration: duration,
		pause:    c.settings.AnimationPause,
		cancel:   cancel,
		done:     make(chan struct{}),
		owner:    &c.mu,
	}
	c.animations[id] = a
	c.mu.Unlock()

	go c.runAnimation(runCtx, a, onFrame)
	return a, nil
}

// CancelAnimation cancels the running animation of a joint, if any.
func (c *Context) CancelAnimation(id JointID) bool {
	c.mu.RLock()
	a := c.animations[id]
	c.mu.RUnlock()

	if a == nil {
		return false
	}
	a.Cancel()
	return true
}

// Animating reports whether a joint has a running animation.
func (c *Context) Animating(id JointID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.animations[id] != nil
}

func (c *Context) runAnimation(ctx context.Context, a *Animation, onFrame FrameFunc) {
	interval := c.settings.FrameInterval
	if interval <= 0 {
		interval = DefaultSettings().FrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	began := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.finishAnimation(a, ctx.Err())
			return
		case <-ticker.C:
		}
		value, finished := a.step(time.Since(began))
		applied, err := c.applyFrame(ctx, a, value)
		if err != nil {
			c.finishAnimation(a, err)
			return
		}
		if onFrame != nil {
			onFrame(a.joint, applied)
		}
		if finished {
			c.finishAnimation(a, nil)
			return
		}
	}
}

// applyFrame writes one frame and returns the clamped value, unless the
// animation was cancelled or replaced. The check and the write happen
// under the lock cancellation takes, so a stale frame never lands.
func (c *Context) applyFrame(ctx context.Context, a *Animation, value float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if c.animations[a.joint] != a {
		return 0, context.Canceled
	}
	if err := c.updateLocked("animate", a.joint, value); err != nil {
		return 0, err
	}
	return c.joints[a.joint].Value, nil
}

func (c *Context) finishAnimation(a *Animation, err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
	a.cancel()

	c.mu.Lock()
	if c.animations[a.joint] == a {
		delete(c.animations, a.joint)
	}
	c.mu.Unlock()

	switch {
	case err == nil:
		c.metrics.animation("completed")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.metrics.animation("cancelled")
	default:
		c.metrics.animation("failed")
		c.log.Warn("animation stopped", "joint", a.joint, "error", err)
	}
	close(a.done)
}
