package viz

import (
	"math"
	"strings"
)

// braille dot bits of one cell, indexed [row][col]
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

const brailleBlank = 0x2800

// Canvas is a grid of braille cells addressed in dots: a canvas of
// Width x Height cells holds (2*Width) x (4*Height) dots, origin top left.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, Grid: make([][]rune, h)}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// DotsWide and DotsHigh are the canvas size in dots.
func (c *Canvas) DotsWide() int { return c.Width * 2 }
func (c *Canvas) DotsHigh() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 || x >= c.DotsWide() || y >= c.DotsHigh() {
		return nil, 0, false
	}
	return &c.Grid[y/4][x/2], dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r &^= bit
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	r, bit, ok := c.cell(x, y)
	return ok && *r&bit != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a segment with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawRect draws the outline of the axis-aligned rectangle spanning both corners.
func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// DrawCircle draws a circle outline of radius r dots, at least one dot.
func (c *Canvas) DrawCircle(cx, cy int, r float64) {
	if r < 1 {
		c.Set(cx, cy)
		return
	}
	n := int(math.Ceil(2 * math.Pi * r))
	for i := 0; i < n; i++ {
		s, co := math.Sincos(2 * math.Pi * float64(i) / float64(n))
		c.Set(cx+int(math.Round(co*r)), cy+int(math.Round(s*r)))
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
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
