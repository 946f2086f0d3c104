package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
const brailleBlank = 0x2800

var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid. Each cell holds 2x4 sub-pixels and the
// colour of the last pen that touched it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Colors        [][]lipgloss.Color

	pen lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Colors: make([][]lipgloss.Color, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Colors[i] = make([]lipgloss.Color, w)
	}
	c.Clear()
	return c
}

// PixelWidth and PixelHeight are the canvas size in sub-pixels.
func (c *Canvas) PixelWidth() int  { return c.Width * 2 }
func (c *Canvas) PixelHeight() int { return c.Height * 4 }

// Pen sets the colour for subsequent drawing. An empty colour draws with
// the terminal default.
func (c *Canvas) Pen(color lipgloss.Color) { c.pen = color }

// Set sets a pixel at sub-pixel coordinates (x, y).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Colors[row][col] = c.pen
}

// IsSet reports whether the sub-pixel is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &^= rune(pixelMap[y%4][x%2])
	c.Grid[row][col] |= brailleBlank
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
			c.Colors[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws a circle outline with the midpoint algorithm.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	x, y := r, 0
	d := 1 - r
	for x >= y {
		c.Set(cx+x, cy+y)
		c.Set(cx+y, cy+x)
		c.Set(cx-y, cy+x)
		c.Set(cx-x, cy+y)
		c.Set(cx-x, cy-y)
		c.Set(cx-y, cy-x)
		c.Set(cx+y, cy-x)
		c.Set(cx+x, cy-y)
		y++
		if d < 0 {
			d += 2*y + 1
		} else {
			x--
			d += 2*(y-x) + 1
		}
	}
}

// DrawDottedCircle lights every step-th degree of a circle.
func (c *Canvas) DrawDottedCircle(cx, cy, r, step int) {
	if step <= 0 {
		step = 1
	}
	for deg := 0; deg < 360; deg += step {
		a := float64(deg) * math.Pi / 180
		c.Set(cx+int(math.Round(float64(r)*math.Cos(a))), cy+int(math.Round(float64(r)*math.Sin(a))))
	}
}

// Dot fills a square of side 2*size+1 around (x, y).
func (c *Canvas) Dot(x, y, size int) {
	for dy := -size; dy <= size; dy++ {
		for dx := -size; dx <= size; dx++ {
			c.Set(x+dx, y+dy)
		}
	}
}

// Plain renders the grid without colour.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

func (c *Canvas) String() string {
	styles := make(map[lipgloss.Color]lipgloss.Style)
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			color := c.Colors[i][j]
			if color == "" || r == brailleBlank {
				b.WriteRune(r)
				continue
			}
			st, ok := styles[color]
			if !ok {
				st = lipgloss.NewStyle().Foreground(color)
				styles[color] = st
			}
			b.WriteString(st.Render(string(r)))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
