package kinematics

import (
	"log/slog"
	"sync"
)

// Context owns all kinematics state for one scene: the joint registry, the
// grounding set and running animations. It is safe for concurrent use; a
// single lock serialises writers.
type Context struct {
	mu sync.RWMutex

	scene    SceneAdapter
	settings Settings
	log      *slog.Logger
	metrics  *Metrics
	scorer   GroundScorer

	joints   map[JointID]*Joint
	order    []JointID // creation order
	grounded map[NodeID]Pose

	animations map[JointID]*Animation
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the structured logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics records operation metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(c *Context) { c.metrics = m }
}

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(c *Context) { c.settings = s }
}

// WithGroundScorer replaces DefaultGroundScore in SuggestGroundNode.
func WithGroundScorer(s GroundScorer) Option {
	return func(c *Context) {
		if s != nil {
			c.scorer = s
		}
	}
}

// New creates an empty Context bound to scene.
func New(scene SceneAdapter, opts ...Option) *Context {
	c := &Context{
		scene:      scene,
		settings:   DefaultSettings(),
		log:        slog.Default(),
		scorer:     DefaultGroundScore,
		joints:     make(map[JointID]*Joint),
		grounded:   make(map[NodeID]Pose),
		animations: make(map[JointID]*Animation),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.settings.LinearScale == 0 {
		c.settings.LinearScale = 1
	}
	c.log = c.log.With("component", "kinematics")
	return c
}

// Settings returns the settings the Context was built with.
func (c *Context) Settings() Settings {
	return c.settings
}
