package kinematics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the kinematics counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	JointUpdates      *prometheus.CounterVec
	ClampedUpdates    prometheus.Counter
	CycleDetections   prometheus.Counter
	Animations        *prometheus.CounterVec
	PropagationJoints prometheus.Histogram
}

// NewMetrics creates unregistered metrics under the given namespace.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		JointUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "kinematics",
				Name:      "joint_updates_total",
				Help:      "Joint position updates by outcome",
			},
			[]string{"outcome"},
		),
		ClampedUpdates: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "kinematics",
				Name:      "clamped_updates_total",
				Help:      "Requested joint values that were clamped into limits",
			},
		),
		CycleDetections: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "kinematics",
				Name:      "cycle_detections_total",
				Help:      "Propagations aborted because the joint graph is cyclic",
			},
		),
		Animations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "kinematics",
				Name:      "animations_total",
				Help:      "Finished joint animations by outcome",
			},
			[]string{"outcome"},
		),
		PropagationJoints: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "kinematics",
				Name:      "propagation_joints",
				Help:      "Joints written by a single position update, including descendants",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
			},
		),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.JointUpdates, m.ClampedUpdates, m.CycleDetections, m.Animations, m.PropagationJoints,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) update(outcome string, joints int) {
	if m == nil {
		return
	}
	m.JointUpdates.WithLabelValues(outcome).Inc()
	if joints > 0 {
		m.PropagationJoints.Observe(float64(joints))
	}
}

func (m *Metrics) clamped() {
	if m == nil {
		return
	}
	m.ClampedUpdates.Inc()
}

func (m *Metrics) cycle() {
	if m == nil {
		return
	}
	m.CycleDetections.Inc()
}

func (m *Metrics) animation(outcome string) {
	if m == nil {
		return
	}
	m.Animations.WithLabelValues(outcome).Inc()
}
