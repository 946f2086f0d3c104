package viz

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestCanvas_SetUnset(t *testing.T) {
	c := NewCanvas(4, 2)

	c.Set(0, 0)
	if c.Grid[0][0] != 0x2801 {
		t.Errorf("expected dot 1, got %U", c.Grid[0][0])
	}
	c.Set(1, 3)
	if c.Grid[0][0] != 0x2881 {
		t.Errorf("expected dots 1 and 8, got %U", c.Grid[0][0])
	}
	if !c.IsSet(1, 3) {
		t.Error("IsSet(1, 3) = false")
	}

	c.Unset(0, 0)
	if c.Grid[0][0] != 0x2880 {
		t.Errorf("expected dot 8 only, got %U", c.Grid[0][0])
	}

	// out of bounds is ignored
	c.Set(-1, 0)
	c.Set(100, 100)
	c.Unset(-1, -1)
	if c.IsSet(-1, 0) || c.IsSet(8, 0) {
		t.Error("out of bounds pixel reported as set")
	}
}

func TestCanvas_Clear(t *testing.T) {
	c := NewCanvas(3, 3)
	c.Pen("#ff0000")
	c.DrawLine(0, 0, 5, 11)
	c.Clear()

	for i := range c.Grid {
		for j := range c.Grid[i] {
			if c.Grid[i][j] != brailleBlank || c.Colors[i][j] != "" {
				t.Fatalf("cell %d,%d not cleared", i, j)
			}
		}
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 0)
	for x := 0; x < 20; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("pixel %d not set on horizontal line", x)
		}
	}

	c.Clear()
	c.DrawLine(3, 3, 12, 15)
	if !c.IsSet(3, 3) || !c.IsSet(12, 15) {
		t.Error("line endpoints not set")
	}
}

func TestCanvas_DrawCircleSymmetric(t *testing.T) {
	c := NewCanvas(20, 10)
	cx, cy, r := 20, 20, 8
	c.DrawCircle(cx, cy, r)

	for _, p := range [][2]int{{cx + r, cy}, {cx - r, cy}, {cx, cy + r}, {cx, cy - r}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("cardinal point %v not set", p)
		}
	}
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			mx := 2*cx - x
			if c.IsSet(x, y) && mx >= 0 && mx < c.PixelWidth() && !c.IsSet(mx, y) {
				t.Fatalf("circle not mirror symmetric at %d,%d", x, y)
			}
		}
	}
	if c.IsSet(cx, cy) {
		t.Error("circle center should be empty")
	}
}

func TestCanvas_Dot(t *testing.T) {
	c := NewCanvas(5, 5)
	c.Dot(4, 4, 1)
	count := 0
	for y := 0; y < c.PixelHeight(); y++ {
		for x := 0; x < c.PixelWidth(); x++ {
			if c.IsSet(x, y) {
				count++
			}
		}
	}
	if count != 9 {
		t.Errorf("expected 9 pixels, got %d", count)
	}
}

func TestCanvas_Plain(t *testing.T) {
	c := NewCanvas(3, 2)
	out := c.Plain()
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, l := range lines {
		if utf8.RuneCountInString(l) != 3 {
			t.Errorf("expected 3 cells, got %q", l)
		}
	}
}

func TestCanvas_PenColorsCells(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Pen("#4ECDC4")
	c.Set(0, 0)
	c.Pen("")
	c.Set(2, 0)

	if c.Colors[0][0] != "#4ECDC4" {
		t.Errorf("cell 0 colour = %q", c.Colors[0][0])
	}
	if c.Colors[0][1] != "" {
		t.Errorf("cell 1 colour = %q", c.Colors[0][1])
	}
}
