package telemetry

import (
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/rays"
	"github.com/san-kum/risley/internal/sim"
)

func newCollector(t *testing.T) (*Collector, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	return c, reg
}

func TestRecordAdd(t *testing.T) {
	c, _ := newCollector(t)
	env := optics.Recompute(optics.DefaultParameters())

	_, centerErr := kinematics.Solve(0.5, 0, env)
	_, farErr := kinematics.Solve(env.Rmax+1, 0, env)

	c.RecordAdd(nil)
	c.RecordAdd(nil)
	c.RecordAdd(centerErr)
	c.RecordAdd(farErr)
	c.RecordAdd(farErr)
	c.RecordAdd(fmt.Errorf("add: %w", rays.ErrCapacityExceeded))

	if got := testutil.ToFloat64(c.RaysAdded); got != 2 {
		t.Errorf("rays added = %v, want 2", got)
	}
	want := map[string]float64{
		ReasonCenterDefect: 1,
		ReasonOutOfRange:   2,
		ReasonCapacity:     1,
	}
	for reason, n := range want {
		if got := testutil.ToFloat64(c.Rejections.WithLabelValues(reason)); got != n {
			t.Errorf("rejections[%s] = %v, want %v", reason, got, n)
		}
	}
}

func TestRejectionReason_Other(t *testing.T) {
	if got := RejectionReason(errors.New("disk full")); got != ReasonOther {
		t.Errorf("got %q, want %q", got, ReasonOther)
	}
}

func TestObserve(t *testing.T) {
	c, _ := newCollector(t)

	ctrl, err := sim.New(optics.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	env := ctrl.Envelope()
	if _, err := ctrl.AddTarget(0, env.Rmax*0.5); err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.AddTarget(env.Rmax*0.6, 0); err != nil {
		t.Fatal(err)
	}

	c.Observe(ctrl.Snapshot())

	if got := testutil.ToFloat64(c.ActiveRays); got != 2 {
		t.Errorf("active rays = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.StaleRays); got != 0 {
		t.Errorf("stale rays = %v, want 0", got)
	}
	if got := testutil.ToFloat64(c.Rmax); got != env.Rmax {
		t.Errorf("rmax = %v, want %v", got, env.Rmax)
	}
	if got := testutil.ToFloat64(c.TrackingError); got <= 0 {
		t.Errorf("tracking error = %v, want > 0 before any tick", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.RecordAdd(nil)
	c.RecordTick()
	c.RecordExport()
	c.Observe(sim.Snapshot{})
	if c.Handler() == nil {
		t.Error("nil collector must still return a handler")
	}
}

func TestReRegisterReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	first.RecordTick()
	second.RecordTick()
	if got := testutil.ToFloat64(first.Ticks); got != 2 {
		t.Errorf("ticks = %v, want shared counter at 2", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c, _ := newCollector(t)
	c.RecordExport()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), "risley_exports_total 1") {
		t.Errorf("metrics output missing export counter:\n%s", body)
	}
}
