package main

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"github.com/chazu/armature/pkg/config"
	"github.com/chazu/armature/pkg/engine"
	"github.com/chazu/armature/pkg/kernel"
	"github.com/chazu/armature/pkg/kernel/sdfx"
	"github.com/chazu/armature/pkg/kinematics"
	"github.com/chazu/armature/pkg/scene"
	"github.com/chazu/armature/pkg/tessellate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// Events emitted to the frontend.
const (
	EventJointFrame   = "joint:frame"
	EventAnimationEnd = "joint:animation-end"
)

// colorPalette is a default palette used to assign distinct colors to links.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via bindings.
type App struct {
	ctx      context.Context
	cfg      *config.Config
	engine   *engine.Engine
	kernel   kernel.Kernel
	registry *prometheus.Registry
	metrics  *kinematics.Metrics
	logger   *slog.Logger

	// emit delivers frontend events; tests replace it.
	emit func(event string, data ...interface{})

	mu     sync.Mutex // guards the loaded mechanism
	mech   *engine.Mechanism
	kc     *kinematics.Context
	chains []kinematics.KinematicChain
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	LinkName string    `json:"linkName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LinkPose is a link's world pose. Rotation is a unit quaternion
// (w, x, y, z).
type LinkPose struct {
	Link     string     `json:"link"`
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
}

// LoadResult is the full result of loading a mechanism.
type LoadResult struct {
	Meshes   []MeshData                  `json:"meshes"`
	Joints   []kinematics.Joint          `json:"joints"`
	Chains   []kinematics.KinematicChain `json:"chains"`
	Grounded []string                    `json:"grounded"`
	Poses    []LinkPose                  `json:"poses"`
	Errors   []EvalErrorData             `json:"errors"`
	Warnings []EvalErrorData             `json:"warnings"`
}

// PoseResult reports link poses after a joint change.
type PoseResult struct {
	Poses []LinkPose `json:"poses"`
	Error string     `json:"error,omitempty"`
}

// FrameEvent is the payload of EventJointFrame.
type FrameEvent struct {
	Joint string     `json:"joint"`
	Value float64    `json:"value"`
	Poses []LinkPose `json:"poses"`
}

// AnimationEndEvent is the payload of EventAnimationEnd.
type AnimationEndEvent struct {
	Joint string `json:"joint"`
	Error string `json:"error,omitempty"`
}

// GroundSuggestion is the result of SuggestGround.
type GroundSuggestion struct {
	Link  string `json:"link"`
	Found bool   `json:"found"`
}

// NewApp creates an App with the default configuration.
func NewApp() *App {
	app, err := NewAppWithConfig(config.Default())
	if err != nil {
		// The default configuration always validates.
		panic(err)
	}
	return app
}

// NewAppWithConfig creates an App from cfg.
func NewAppWithConfig(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	k := sdfx.NewWithCells(cfg.Tessellation.MeshCells)
	a := &App{
		cfg:      cfg,
		engine:   engine.NewEngine(engine.WithTimeout(cfg.Engine.EvalTimeout), engine.WithKernel(k)),
		kernel:   k,
		registry: prometheus.NewRegistry(),
		logger:   slog.Default(),
	}
	if cfg.Metrics.Enabled {
		a.metrics = kinematics.NewMetrics(cfg.Metrics.Namespace)
		if err := a.metrics.Register(a.registry); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	a.emit = a.emitRuntime
	return a, nil
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// shutdown is called by Wails when the app closes.
func (a *App) shutdown(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancelAnimationsLocked()
}

func (a *App) emitRuntime(event string, data ...interface{}) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, event, data...)
}

// Load evaluates mechanism source, builds its joints and chains, and
// returns link meshes at their initial pose. A failed load keeps the
// previously loaded mechanism.
// This is the primary binding called by the frontend editor.
func (a *App) Load(source string) LoadResult {
	result := LoadResult{
		Meshes:   []MeshData{},
		Joints:   []kinematics.Joint{},
		Chains:   []kinematics.KinematicChain{},
		Grounded: []string{},
		Poses:    []LinkPose{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	// zygomys sandboxes share global state, so loads are serialised.
	a.mu.Lock()
	defer a.mu.Unlock()

	// Step 1: Evaluate the source into a mechanism.
	mech, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Load fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
		}
		return result
	}
	for _, w := range mech.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}

	// Step 2: Register joints, grounding and chains.
	kc := kinematics.New(mech.Scene,
		kinematics.WithLogger(a.logger),
		kinematics.WithSettings(a.cfg.KinematicsSettings()),
		kinematics.WithMetrics(a.metrics),
	)
	chains, err := mech.Build(kc)
	if err != nil {
		log.Printf("Build error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "build failed: " + err.Error()})
		return result
	}

	// Step 3: Tessellate the links at their initial pose.
	meshes, err := tessellate.Tessellate(mech.Scene, a.kernel)
	if err != nil {
		log.Printf("Tessellate error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	a.cancelAnimationsLocked()
	a.mech, a.kc, a.chains = mech, kc, chains

	result.Meshes = meshData(meshes)
	result.Joints = kc.Joints()
	result.Chains = chains
	for _, n := range kc.GroundedNodes() {
		result.Grounded = append(result.Grounded, string(n))
	}
	result.Poses = linkPoses(mech.Scene)
	return result
}

// Meshes re-tessellates the loaded mechanism at its current pose.
func (a *App) Meshes() ([]MeshData, error) {
	a.mu.Lock()
	mech := a.mech
	a.mu.Unlock()

	if mech == nil {
		return []MeshData{}, nil
	}
	meshes, err := tessellate.Tessellate(mech.Scene, a.kernel)
	if err != nil {
		return nil, err
	}
	return meshData(meshes), nil
}

// Joints returns the loaded joints in declaration order.
func (a *App) Joints() []kinematics.Joint {
	kc, _ := a.current()
	if kc == nil {
		return []kinematics.Joint{}
	}
	return kc.Joints()
}

// Chains returns the chains built at load time.
func (a *App) Chains() []kinematics.KinematicChain {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]kinematics.KinematicChain{}, a.chains...)
}

// SetJoint moves one joint, clamped into its limits.
func (a *App) SetJoint(id string, value float64) PoseResult {
	return a.apply(func(kc *kinematics.Context) error {
		return kc.UpdateJointPosition(kinematics.JointID(id), value)
	})
}

// Solve applies several joint values at once.
func (a *App) Solve(values map[string]float64) PoseResult {
	return a.apply(func(kc *kinematics.Context) error {
		return kc.SolveChain(toJointValues(values))
	})
}

// ResetToHome drives every joint to zero, clamped into its limits.
func (a *App) ResetToHome() PoseResult {
	return a.apply(func(kc *kinematics.Context) error {
		return kc.ResetToHome()
	})
}

// JointValues returns every joint's current value.
func (a *App) JointValues() map[string]float64 {
	out := map[string]float64{}
	kc, _ := a.current()
	if kc == nil {
		return out
	}
	for id, v := range kc.JointValues() {
		out[string(id)] = v
	}
	return out
}

// SetJointValues restores values returned by JointValues.
func (a *App) SetJointValues(values map[string]float64) PoseResult {
	return a.apply(func(kc *kinematics.Context) error {
		return kc.SetJointValues(toJointValues(values))
	})
}

// SetJointDisplay toggles a joint's axis and limit helpers.
func (a *App) SetJointDisplay(id string, showAxis, showLimits bool) error {
	kc, _ := a.current()
	if kc == nil {
		return fmt.Errorf("no mechanism loaded")
	}
	return kc.SetJointDisplay(kinematics.JointID(id), showAxis, showLimits)
}

// Animate previews a joint's range of motion over the given number of
// seconds each way. Frames are emitted as EventJointFrame and the end of
// the animation as EventAnimationEnd.
func (a *App) Animate(id string, seconds float64) error {
	kc, mech := a.current()
	if kc == nil {
		return fmt.Errorf("no mechanism loaded")
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	duration := time.Duration(seconds * float64(time.Second))
	anim, err := kc.AnimateJoint(ctx, kinematics.JointID(id), duration, func(jid kinematics.JointID, value float64) {
		a.emit(EventJointFrame, FrameEvent{Joint: string(jid), Value: value, Poses: linkPoses(mech.Scene)})
	})
	if err != nil {
		return err
	}

	go func() {
		<-anim.Done()
		ev := AnimationEndEvent{Joint: id}
		if err := anim.Err(); err != nil {
			ev.Error = err.Error()
		}
		a.emit(EventAnimationEnd, ev)
	}()
	return nil
}

// CancelAnimation stops a running joint animation.
func (a *App) CancelAnimation(id string) bool {
	kc, _ := a.current()
	if kc == nil {
		return false
	}
	return kc.CancelAnimation(kinematics.JointID(id))
}

// SuggestGround proposes a link to ground, searching from root.
func (a *App) SuggestGround(root string) GroundSuggestion {
	kc, _ := a.current()
	if kc == nil {
		return GroundSuggestion{}
	}
	link, ok := kc.SuggestGroundNode(kinematics.NodeID(root))
	return GroundSuggestion{Link: string(link), Found: ok}
}

// GroundLink marks a link as a fixed reference.
func (a *App) GroundLink(link string) bool {
	kc, _ := a.current()
	return kc != nil && kc.GroundNode(kinematics.NodeID(link))
}

// UngroundLink clears a link's grounded flag.
func (a *App) UngroundLink(link string) bool {
	kc, _ := a.current()
	return kc != nil && kc.UngroundNode(kinematics.NodeID(link))
}

// Metrics returns the kinematics metrics in Prometheus text format.
func (a *App) Metrics() (string, error) {
	families, err := a.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func (a *App) current() (*kinematics.Context, *engine.Mechanism) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.kc, a.mech
}

// apply runs fn against the loaded mechanism and reports the new poses.
func (a *App) apply(fn func(*kinematics.Context) error) PoseResult {
	kc, mech := a.current()
	if kc == nil {
		return PoseResult{Poses: []LinkPose{}, Error: "no mechanism loaded"}
	}
	res := PoseResult{}
	if err := fn(kc); err != nil {
		res.Error = err.Error()
	}
	res.Poses = linkPoses(mech.Scene)
	return res
}

func (a *App) cancelAnimationsLocked() {
	if a.kc == nil {
		return
	}
	for _, j := range a.kc.Joints() {
		a.kc.CancelAnimation(j.ID)
	}
}

func meshData(meshes []*kernel.Mesh) []MeshData {
	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			LinkName: m.LinkName,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out
}

// linkPoses returns the world pose of every link, parents first.
func linkPoses(s *scene.Scene) []LinkPose {
	out := []LinkPose{}
	var walk func(n *scene.Node)
	walk = func(n *scene.Node) {
		if p, ok := s.WorldPose(n.ID); ok {
			q := p.Rotation
			out = append(out, LinkPose{
				Link:     string(n.ID),
				Position: [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
				Rotation: [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag},
			})
		}
		for _, c := range s.Children(n.ID) {
			walk(c)
		}
	}
	for _, r := range s.Roots() {
		walk(r)
	}
	return out
}

func toJointValues(values map[string]float64) map[kinematics.JointID]float64 {
	out := make(map[kinematics.JointID]float64, len(values))
	for id, v := range values {
		out[kinematics.JointID(id)] = v
	}
	return out
}
