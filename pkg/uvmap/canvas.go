package uvmap

import (
	"image"
	"image/color"
	stdmath "math"

	"github.com/Faultbox/morphkit/pkg/math"
)

type canvas struct {
	img  *image.NRGBA
	size int
}

func newCanvas(size int) *canvas {
	return &canvas{img: image.NewNRGBA(image.Rect(0, 0, size, size)), size: size}
}

func (c *canvas) clear(col color.NRGBA) {
	for i := 0; i < len(c.img.Pix); i += 4 {
		c.img.Pix[i] = col.R
		c.img.Pix[i+1] = col.G
		c.img.Pix[i+2] = col.B
		c.img.Pix[i+3] = col.A
	}
}

// pixel maps a UV coordinate to a texel column and row.
func (c *canvas) pixel(uv math.Vec2) (int, int) {
	x := int(stdmath.Floor(float64(uv.X) * float64(c.size)))
	y := int(stdmath.Floor(float64(uv.Y) * float64(c.size)))
	return x, c.size - 1 - y
}

func (c *canvas) set(x, y int, col color.NRGBA) {
	if x < 0 || y < 0 || x >= c.size || y >= c.size {
		return
	}
	c.img.SetNRGBA(x, y, col)
}

func (c *canvas) clamp(v int) int {
	return min(max(v, 0), c.size-1)
}

// line draws the part of a segment that falls inside the unit square.
// Points on the far border land on the last row or column.
func (c *canvas) line(a, b math.Vec2, col color.NRGBA) {
	size := float64(c.size)
	x0, y0 := float64(a.X)*size, float64(a.Y)*size
	x1, y1 := float64(b.X)*size, float64(b.Y)*size
	x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1, size)
	if !ok {
		return
	}

	px0, py0 := c.clamp(int(x0)), c.size-1-c.clamp(int(y0))
	px1, py1 := c.clamp(int(x1)), c.size-1-c.clamp(int(y1))
	steps := max(abs(px1-px0), abs(py1-py0))
	if steps == 0 {
		c.set(px0, py0, col)
		return
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(stdmath.Round(float64(px0) + t*float64(px1-px0)))
		y := int(stdmath.Round(float64(py0) + t*float64(py1-py0)))
		c.set(x, y, col)
	}
}

// clipSegment clips a segment to the square [0, size] on both axes
// (Liang-Barsky). ok is false when nothing of it is inside or an
// endpoint is not finite.
func clipSegment(x0, y0, x1, y1, size float64) (ax, ay, bx, by float64, ok bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if stdmath.IsNaN(v) || stdmath.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{{-dx, x0}, {dx, size - x0}, {-dy, y0}, {dy, size - y0}} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, r)
		}
	}
	return x0 + t0*dx, y0 + t0*dy, x0 + t1*dx, y0 + t1*dy, true
}

// fillTriangle fills every texel whose corner lies on or inside the triangle,
// for either winding.
func (c *canvas) fillTriangle(t [3]math.Vec2, col color.NRGBA) {
	var px, py [3]int
	for i := range t {
		px[i], py[i] = c.pixel(t[i])
	}
	minX := c.clamp(min(px[0], px[1], px[2]))
	maxX := c.clamp(max(px[0], px[1], px[2]))
	minY := c.clamp(min(py[0], py[1], py[2]))
	maxY := c.clamp(max(py[0], py[1], py[2]))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edge(px[1], py[1], px[2], py[2], x, y)
			w1 := edge(px[2], py[2], px[0], py[0], x, y)
			w2 := edge(px[0], py[0], px[1], py[1], x, y)
			if (w0 >= 0 && w1 >= 0 && w2 >= 0) || (w0 <= 0 && w1 <= 0 && w2 <= 0) {
				c.img.SetNRGBA(x, y, col)
			}
		}
	}
}

func edge(ax, ay, bx, by, cx, cy int) int {
	return (cx-ax)*(by-ay) - (cy-ay)*(bx-ax)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
