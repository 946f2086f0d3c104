// Package telemetry exposes Prometheus metrics for a running simulation.
package telemetry

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/rays"
	"github.com/san-kum/risley/internal/sim"
)

// Rejection reasons used as label values.
const (
	ReasonCenterDefect = "center_defect"
	ReasonOutOfRange   = "out_of_range"
	ReasonCapacity     = "capacity"
	ReasonOther        = "other"
)

// Collector bundles the simulator metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RaysAdded  prometheus.Counter
	Rejections *prometheus.CounterVec
	Ticks      prometheus.Counter
	Exports    prometheus.Counter

	ActiveRays    prometheus.Gauge
	StaleRays     prometheus.Gauge
	Rmax          prometheus.Gauge
	Rd            prometheus.Gauge
	TrackingError prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.RaysAdded, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risley_rays_added_total",
		Help: "Targets accepted into the ray set.",
	}), "risley_rays_added_total"); err != nil {
		return nil, err
	}
	if c.Rejections, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risley_targets_rejected_total",
		Help: "Targets rejected, labeled by reason.",
	}, []string{"reason"}), "risley_targets_rejected_total"); err != nil {
		return nil, err
	}
	if c.Ticks, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risley_ticks_total",
		Help: "Animation frames advanced.",
	}), "risley_ticks_total"); err != nil {
		return nil, err
	}
	if c.Exports, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "risley_exports_total",
		Help: "Reports written.",
	}), "risley_exports_total"); err != nil {
		return nil, err
	}

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&c.ActiveRays, "risley_active_rays", "Rays currently in the set."},
		{&c.StaleRays, "risley_stale_rays", "Rays whose target left the reachable annulus."},
		{&c.Rmax, "risley_envelope_rmax_mm", "Outer scan radius in millimeters."},
		{&c.Rd, "risley_envelope_rd_mm", "Center defect radius in millimeters."},
		{&c.TrackingError, "risley_tracking_error_rad", "Largest prism angle error to the current target."},
	}
	for _, g := range gauges {
		gauge, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}), g.name)
		if err != nil {
			return nil, err
		}
		*g.dst = gauge
	}

	return c, nil
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordAdd counts the outcome of an add attempt.
func (c *Collector) RecordAdd(err error) {
	if c == nil {
		return
	}
	if err == nil {
		c.RaysAdded.Inc()
		return
	}
	c.Rejections.WithLabelValues(RejectionReason(err)).Inc()
}

func (c *Collector) RecordTick() {
	if c == nil {
		return
	}
	c.Ticks.Inc()
}

func (c *Collector) RecordExport() {
	if c == nil {
		return
	}
	c.Exports.Inc()
}

// Observe copies gauge values from a snapshot.
func (c *Collector) Observe(snap sim.Snapshot) {
	if c == nil {
		return
	}
	stale := 0
	for _, r := range snap.Rays {
		if r.Stale {
			stale++
		}
	}
	c.ActiveRays.Set(float64(len(snap.Rays)))
	c.StaleRays.Set(float64(stale))
	c.Rmax.Set(snap.Envelope.Rmax)
	c.Rd.Set(snap.Envelope.Rd)
	c.TrackingError.Set(snap.TrackingError())
}

// RejectionReason maps an add error to its label value.
func RejectionReason(err error) string {
	switch {
	case errors.Is(err, kinematics.ErrCenterDefect):
		return ReasonCenterDefect
	case errors.Is(err, kinematics.ErrOutOfRange):
		return ReasonOutOfRange
	case errors.Is(err, rays.ErrCapacityExceeded):
		return ReasonCapacity
	default:
		return ReasonOther
	}
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
