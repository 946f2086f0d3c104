package viz

import (
	"bytes"
	"errors"
	"image/gif"
	"testing"

	"github.com/san-kum/risley/internal/optics"
	"github.com/san-kum/risley/internal/sim"
)

func scanFixture(t *testing.T) (sim.Snapshot, Viewport, *Canvas) {
	t.Helper()
	ctrl, err := sim.New(optics.DefaultParameters())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctrl.AddTarget(20, 10); err != nil {
		t.Fatal(err)
	}
	c := NewCanvas(50, 25)
	return ctrl.Snapshot(), NewViewport(c.PixelWidth(), c.PixelHeight(), ctrl.Envelope().Rmax), c
}

func TestDrawScan_RingsAndTargets(t *testing.T) {
	snap, vp, c := scanFixture(t)
	DrawScan(c, vp, snap, Point{-15, -15}, ThemeLab)

	cx, cy := vp.ToPixel(0, 0)
	if !c.IsSet(cx+vp.Radius(snap.Envelope.Rmax), cy) {
		t.Error("Rmax ring missing on the +x axis")
	}

	tx, ty := vp.ToPixel(20, 10)
	if !c.IsSet(tx, ty) {
		t.Error("target marker missing")
	}
	if c.Colors[ty/4][tx/2] != "#FF6B6B" {
		t.Errorf("target drawn in %q, want first palette colour", c.Colors[ty/4][tx/2])
	}

	kx, ky := vp.ToPixel(-15, -15)
	if !c.IsSet(kx+2, ky) || !c.IsSet(kx, ky+2) {
		t.Error("cursor crosshair missing")
	}
}

func TestDrawScan_StaleTargetNotJoined(t *testing.T) {
	snap, vp, c := scanFixture(t)
	snap.Rays[0].Stale = true
	DrawScan(c, vp, snap, Point{}, ThemeMinimal)

	// the midpoint of the center-to-target segment stays dark
	mx, my := vp.ToPixel(10, 5)
	if c.IsSet(mx, my) && c.Colors[my/4][mx/2] == "#FF6B6B" {
		t.Error("stale ray should not be drawn as a beam line")
	}
}

func TestOpticalTrain_RendersBothPrisms(t *testing.T) {
	snap, _, _ := scanFixture(t)
	w := OpticalTrain(snap, ThemeLab)

	var p1, p2 int
	for _, e := range w.Edges {
		switch e.Color {
		case ThemeLab.Prism1:
			p1++
		case ThemeLab.Prism2:
			p2++
		}
	}
	if p1 == 0 || p2 == 0 {
		t.Fatalf("prism edges missing: %d, %d", p1, p2)
	}

	c := NewCanvas(40, 12)
	Render3D(c, w, NewCamera())
	lit := 0
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if c.IsSet(x, y) {
				lit++
			}
		}
	}
	if lit == 0 {
		t.Error("optical train rendered nothing")
	}
}

func TestScreenPoint(t *testing.T) {
	p := ScreenPoint(Point{X: 10, Y: -5}, 40)
	if p.X != screenAt {
		t.Errorf("screen point not on screen plane: %v", p.X)
	}
	if p.Z <= 0 || p.Y >= 0 {
		t.Errorf("axis mapping wrong: %+v", p)
	}
}

func TestCameraProjectCenter(t *testing.T) {
	cam := &Camera{Distance: 60, Zoom: 1}
	x, y, _, ok := cam.Project(Vec3{}, 100, 80)
	if !ok || x != 50 || y != 40 {
		t.Errorf("origin projected to (%d, %d, %v)", x, y, ok)
	}
	if _, _, _, ok := cam.Project(Vec3{0, 0, 70}, 100, 80); ok {
		t.Error("point behind the camera should not project")
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder
	var buf bytes.Buffer
	if err := r.Encode(&buf, 2); !errors.Is(err, ErrNoFrames) {
		t.Fatalf("expected ErrNoFrames, got %v", err)
	}

	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	r.Capture(c)
	r.Capture(c)
	if r.Len() != 2 {
		t.Fatalf("expected 2 frames, got %d", r.Len())
	}

	if err := r.Encode(&buf, 2); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 {
		t.Error("encode should reset the recorder")
	}
	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("invalid gif: %v", err)
	}
	if len(anim.Image) != 2 {
		t.Errorf("decoded %d frames", len(anim.Image))
	}
	if b := anim.Image[0].Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Errorf("frame size %v", b)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
	seen := map[string]bool{}
	name := Themes[0].Name
	for range Themes {
		seen[name] = true
		name = NextTheme(name).Name
	}
	if len(seen) != len(Themes) || name != Themes[0].Name {
		t.Errorf("NextTheme does not cycle: %v", seen)
	}
}
