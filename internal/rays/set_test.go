package rays

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/risley/internal/kinematics"
	"github.com/san-kum/risley/internal/optics"
)

func testEnvelope() optics.Envelope {
	return optics.Recompute(optics.DefaultParameters())
}

// validPoint returns a reachable target at the i-th bearing.
func validPoint(env optics.Envelope, i int) (float64, float64) {
	r := (env.Rd + env.Rmax) / 2
	phi := float64(i) * 0.4
	return r * math.Cos(phi), r * math.Sin(phi)
}

func TestSetAdd(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)

	x, y := validPoint(env, 0)
	ray, err := s.Add(x, y, env)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if ray.ID != 1 {
		t.Errorf("expected id 1, got %d", ray.ID)
	}
	if ray.Color != Palette[0] || ray.ColorIndex != 0 {
		t.Errorf("expected first palette colour, got %s (%d)", ray.Color, ray.ColorIndex)
	}

	want, _ := kinematics.Solve(x, y, env)
	if ray.Theta1 != want.Theta1 || ray.Theta2 != want.Theta2 {
		t.Errorf("angles %v/%v, want %+v", ray.Theta1, ray.Theta2, want)
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 ray, got %d", s.Len())
	}
}

func TestSetAdd_CapacityExceeded(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)

	for i := 0; i < DefaultCapacity; i++ {
		x, y := validPoint(env, i)
		if _, err := s.Add(x, y, env); err != nil {
			t.Fatalf("add %d failed: %v", i, err)
		}
	}

	x, y := validPoint(env, 11)
	if _, err := s.Add(x, y, env); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}

	// capacity wins over reachability
	if _, err := s.Add(0, 0, env); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded for unreachable target, got %v", err)
	}
	if s.Len() != DefaultCapacity {
		t.Errorf("expected %d rays, got %d", DefaultCapacity, s.Len())
	}
}

func TestSetAdd_Unreachable(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)

	if _, err := s.Add(0, 0, env); !errors.Is(err, kinematics.ErrCenterDefect) {
		t.Errorf("expected ErrCenterDefect, got %v", err)
	}
	if _, err := s.Add(env.Rmax*2, 0, env); !errors.Is(err, kinematics.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("failed adds should not insert, got %d rays", s.Len())
	}

	// failed adds do not consume ids
	x, y := validPoint(env, 0)
	ray, _ := s.Add(x, y, env)
	if ray.ID != 1 {
		t.Errorf("expected id 1 after failed adds, got %d", ray.ID)
	}
}

func TestSetAdd_ZeroDefectCenter(t *testing.T) {
	env := optics.Envelope{R1: 5, R2: 5, Rd: 0, Rmax: 10}
	s := NewSet(DefaultCapacity)

	ray, err := s.Add(0, 0, env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ray.Theta1 != 0 || ray.Theta2 != 0 {
		t.Errorf("expected home angles, got %v/%v", ray.Theta1, ray.Theta2)
	}
}

func TestSetRemove(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)
	for i := 0; i < 3; i++ {
		x, y := validPoint(env, i)
		s.Add(x, y, env)
	}

	if !s.Remove(2) {
		t.Error("expected ray 2 to be removed")
	}
	if s.Remove(2) {
		t.Error("second remove should report false")
	}
	if s.Remove(42) {
		t.Error("removing unknown id should report false")
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != 1 || list[1].ID != 3 {
		t.Errorf("unexpected rays after remove: %+v", list)
	}
}

func TestSetIDsMonotonic(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)

	x, y := validPoint(env, 0)
	a, _ := s.Add(x, y, env)
	s.Remove(a.ID)
	s.Clear()
	b, _ := s.Add(x, y, env)
	if b.ID <= a.ID {
		t.Errorf("ids must keep increasing: %d then %d", a.ID, b.ID)
	}
}

func TestSetColors(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)

	for i := 0; i < 4; i++ {
		x, y := validPoint(env, i)
		ray, _ := s.Add(x, y, env)
		if ray.Color != Palette[i] {
			t.Errorf("ray %d colour %s, want %s", i, ray.Color, Palette[i])
		}
	}

	s.Clear()
	x, y := validPoint(env, 0)
	ray, _ := s.Add(x, y, env)
	if ray.ColorIndex != 0 {
		t.Errorf("colour should restart after clear, got %d", ray.ColorIndex)
	}
}

func TestSetRecomputeAll(t *testing.T) {
	p := optics.DefaultParameters()
	env := optics.Recompute(p)
	s := NewSet(DefaultCapacity)
	for i := 0; i < 5; i++ {
		x, y := validPoint(env, i)
		s.Add(x, y, env)
	}
	before := s.List()

	p.ScreenDistance = 300
	wider := optics.Recompute(p)
	s.RecomputeAll(wider)
	first := s.List()
	s.RecomputeAll(wider)
	second := s.List()

	for i := range first {
		if first[i] != second[i] {
			t.Errorf("RecomputeAll not idempotent at %d: %+v vs %+v", i, first[i], second[i])
		}
		if first[i].ID != before[i].ID || first[i].TargetX != before[i].TargetX || first[i].Color != before[i].Color {
			t.Errorf("RecomputeAll changed identity of ray %d", i)
		}
		want, _ := kinematics.Solve(first[i].TargetX, first[i].TargetY, wider)
		if first[i].Theta1 != want.Theta1 || first[i].Theta2 != want.Theta2 {
			t.Errorf("ray %d not re-solved", i)
		}
	}
}

func TestSetRecomputeAll_KeepsStaleRays(t *testing.T) {
	p := optics.DefaultParameters()
	env := optics.Recompute(p)
	s := NewSet(DefaultCapacity)

	ray, err := s.Add(env.Rmax*0.95, 0, env)
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	p.ScreenDistance = 50
	shrunk := optics.Recompute(p)
	if shrunk.Contains(ray.Radius()) {
		t.Fatal("test setup: target should be unreachable after shrink")
	}
	s.RecomputeAll(shrunk)

	got, ok := s.Get(ray.ID)
	if !ok {
		t.Fatal("unreachable ray must not be deleted")
	}
	if !got.Stale {
		t.Error("expected ray to be flagged stale")
	}
	if got.Theta1 != ray.Theta1 || got.Theta2 != ray.Theta2 {
		t.Error("stale ray should keep its last good angles")
	}

	s.RecomputeAll(env)
	got, _ = s.Get(ray.ID)
	if got.Stale {
		t.Error("ray should be fresh again once reachable")
	}
}

func TestSetRestore(t *testing.T) {
	s := NewSet(2)
	if err := s.Restore(Ray{ID: 7, TargetX: 1, ColorIndex: 3}); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	r, ok := s.Get(7)
	if !ok || r.Color != Palette[3] {
		t.Errorf("unexpected restored ray %+v", r)
	}

	env := testEnvelope()
	x, y := validPoint(env, 0)
	next, _ := s.Add(x, y, env)
	if next.ID != 8 {
		t.Errorf("expected next id 8, got %d", next.ID)
	}
	if err := s.Restore(Ray{ID: 9}); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("expected ErrCapacityExceeded, got %v", err)
	}
}

func TestSetListIsCopy(t *testing.T) {
	env := testEnvelope()
	s := NewSet(DefaultCapacity)
	x, y := validPoint(env, 0)
	s.Add(x, y, env)

	list := s.List()
	list[0].TargetX = 999
	if r, _ := s.Get(1); r.TargetX == 999 {
		t.Error("List must return a copy")
	}
}
