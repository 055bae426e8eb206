// Package config loads Armature's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/chazu/armature/pkg/engine"
	"github.com/chazu/armature/pkg/kernel/sdfx"
	"github.com/chazu/armature/pkg/kinematics"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Kinematics   KinematicsConfig   `yaml:"kinematics"`
	Animation    AnimationConfig    `yaml:"animation"`
	Engine       EngineConfig       `yaml:"engine"`
	Tessellation TessellationConfig `yaml:"tessellation"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// KinematicsConfig tunes the forward kinematics solver.
type KinematicsConfig struct {
	LinearScale   float64      `yaml:"linear_scale"` // joint units to scene units
	UpAxis        [3]float64   `yaml:"up_axis"`
	DefaultLimits LimitsConfig `yaml:"default_limits"`
}

// LimitsConfig is applied to joints declared without limits.
type LimitsConfig struct {
	Lower       float64 `yaml:"lower"`
	Upper       float64 `yaml:"upper"`
	MaxVelocity float64 `yaml:"max_velocity"`
	MaxEffort   float64 `yaml:"max_effort"`
}

// AnimationConfig controls joint preview animations.
type AnimationConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	Pause         time.Duration `yaml:"pause"`
}

// EngineConfig controls mechanism source evaluation.
type EngineConfig struct {
	EvalTimeout time.Duration `yaml:"eval_timeout"`
}

// TessellationConfig controls link meshing.
type TessellationConfig struct {
	MeshCells int `yaml:"mesh_cells"` // marching cubes cells along the longest axis
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ks := kinematics.DefaultSettings()
	return &Config{
		Kinematics: KinematicsConfig{
			LinearScale: ks.LinearScale,
			UpAxis:      [3]float64{ks.UpAxis.X, ks.UpAxis.Y, ks.UpAxis.Z},
			DefaultLimits: LimitsConfig{
				Lower:       ks.DefaultLimits.Lower,
				Upper:       ks.DefaultLimits.Upper,
				MaxVelocity: ks.DefaultLimits.MaxVelocity,
				MaxEffort:   ks.DefaultLimits.MaxEffort,
			},
		},
		Animation: AnimationConfig{
			FrameInterval: ks.FrameInterval,
			Pause:         ks.AnimationPause,
		},
		Engine:       EngineConfig{EvalTimeout: engine.DefaultEvalTimeout},
		Tessellation: TessellationConfig{MeshCells: sdfx.DefaultMeshCells},
		Metrics:      MetricsConfig{Enabled: true, Namespace: "armature"},
	}
}

// Load reads and validates a configuration file. Keys missing from the
// file keep their Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if !(c.Kinematics.LinearScale > 0) {
		errs = append(errs, errors.New("kinematics.linear_scale must be positive"))
	}
	if up := c.Kinematics.UpAxis; up == [3]float64{} {
		errs = append(errs, errors.New("kinematics.up_axis must be non-zero"))
	}
	if l := c.Kinematics.DefaultLimits; !(l.Lower <= l.Upper) {
		errs = append(errs, fmt.Errorf("kinematics.default_limits: lower %g and upper %g do not form a range", l.Lower, l.Upper))
	}
	if c.Animation.FrameInterval <= 0 {
		errs = append(errs, errors.New("animation.frame_interval must be positive"))
	}
	if c.Animation.Pause < 0 {
		errs = append(errs, errors.New("animation.pause must not be negative"))
	}
	if c.Engine.EvalTimeout <= 0 {
		errs = append(errs, errors.New("engine.eval_timeout must be positive"))
	}
	if c.Tessellation.MeshCells <= 0 {
		errs = append(errs, errors.New("tessellation.mesh_cells must be positive"))
	}
	if c.Metrics.Enabled && !namespacePattern.MatchString(c.Metrics.Namespace) {
		errs = append(errs, fmt.Errorf("metrics.namespace %q is not a valid metric name prefix", c.Metrics.Namespace))
	}
	return errors.Join(errs...)
}

// KinematicsSettings converts the kinematics and animation sections into
// solver settings.
func (c *Config) KinematicsSettings() kinematics.Settings {
	k := c.Kinematics
	return kinematics.Settings{
		LinearScale: k.LinearScale,
		DefaultLimits: kinematics.Limits{
			Lower:       k.DefaultLimits.Lower,
			Upper:       k.DefaultLimits.Upper,
			MaxVelocity: k.DefaultLimits.MaxVelocity,
			MaxEffort:   k.DefaultLimits.MaxEffort,
		},
		UpAxis:         r3.Vec{X: k.UpAxis[0], Y: k.UpAxis[1], Z: k.UpAxis[2]},
		FrameInterval:  c.Animation.FrameInterval,
		AnimationPause: c.Animation.Pause,
	}
}
