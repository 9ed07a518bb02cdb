package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Braille cells are 2 dots wide and 4 dots tall:
//
//	1 4
//	2 5
//	3 6
//	7 8
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille characters addressed in dot coordinates.
// A canvas of Width x Height cells has (2*Width) x (4*Height) dots.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (int, int) { return 2 * c.Width, 4 * c.Height }

// Set lights the dot at (x, y). Dots outside the canvas are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.cells[row][col] |= dotBits[y%4][x%2]
}

// IsSet reports whether the dot at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.cells[y/4][x/2]&dotBits[y%4][x%2] != 0
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		for j := range c.cells[i] {
			c.cells[i][j] = brailleBlank
		}
	}
}

// Plot lights the dot for a point of the rectangle [0,w) x [0,h), with y
// pointing up. Coordinates outside the rectangle are wrapped into it.
func (c *Canvas) Plot(x, y, w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	dw, dh := c.Dots()
	fx := wrap(x, w) / w
	fy := wrap(y, h) / h
	c.Set(int(fx*float64(dw)), dh-1-int(fy*float64(dh)))
}

// DrawLine draws a line between two dots with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 > -dy {
			e -= dy
			x0 += sx
		}
		if e2 < dx {
			e += dx
			y0 += sy
		}
	}
}

// Frame outlines the canvas border.
func (c *Canvas) Frame() {
	dw, dh := c.Dots()
	c.DrawLine(0, 0, dw-1, 0)
	c.DrawLine(dw-1, 0, dw-1, dh-1)
	c.DrawLine(dw-1, dh-1, 0, dh-1)
	c.DrawLine(0, dh-1, 0, 0)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func wrap(x, l float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	x = math.Mod(x, l)
	if x < 0 {
		x += l
	}
	if x >= l {
		x = 0
	}
	return x
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
