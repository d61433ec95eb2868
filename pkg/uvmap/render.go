// Package uvmap draws a mesh's UV layout into an image.
package uvmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	stdmath "math"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// UV map errors.
var (
	ErrNoUVs       = errors.New("mesh has no texture coordinates")
	ErrInvalidSize = errors.New("invalid image size")
)

// Options controls how the layout is drawn.
type Options struct {
	Size        int
	Supersample int // render at Size*Supersample and scale down

	Background  color.NRGBA
	Transparent bool // background alpha forced to 0
	LineColor   color.NRGBA
	DrawLines   bool

	Fill      bool
	AutoColor bool // hue from the triangle's mean UV distance to the origin
	FillColor color.NRGBA
}

// DefaultOptions returns black lines on white at 1024x1024.
func DefaultOptions() Options {
	return Options{
		Size:        1024,
		Supersample: 1,
		Background:  color.NRGBA{255, 255, 255, 255},
		LineColor:   color.NRGBA{0, 0, 0, 255},
		DrawLines:   true,
		FillColor:   color.NRGBA{128, 128, 128, 255},
	}
}

// Render draws the triangles of every submesh using UV set uvSet. Filled
// triangles are drawn first and edges on top. Edges are always drawn when
// fill is off. V points up, so v=0 is the bottom row.
func Render(m *blendshape.Mesh, uvSet int, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 || opts.Size > 16384 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)
	}
	ss := max(opts.Supersample, 1)
	if uvSet < 0 || uvSet >= len(m.UVs) || len(m.UVs[uvSet]) != m.VertexCount() || m.VertexCount() == 0 {
		return nil, fmt.Errorf("%w: uv set %d", ErrNoUVs, uvSet)
	}
	uvs := m.UVs[uvSet]

	c := newCanvas(opts.Size * ss)
	bg := opts.Background
	if opts.Transparent {
		bg.A = 0
	}
	c.clear(bg)

	var tris [][3]math.Vec2
	for _, sm := range m.SubMeshes {
		for i := 0; i+2 < len(sm.Indices); i += 3 {
			tris = append(tris, [3]math.Vec2{uvs[sm.Indices[i]], uvs[sm.Indices[i+1]], uvs[sm.Indices[i+2]]})
		}
	}

	if opts.Fill {
		for _, t := range tris {
			fill := opts.FillColor
			fill.A = 255
			if opts.AutoColor {
				fill = autoColor(t)
			}
			c.fillTriangle(t, fill)
		}
	}
	if opts.DrawLines || !opts.Fill {
		for _, t := range tris {
			c.line(t[0], t[1], opts.LineColor)
			c.line(t[1], t[2], opts.LineColor)
			c.line(t[2], t[0], opts.LineColor)
		}
	}

	if ss == 1 {
		return c.img, nil
	}
	return downsample(c.img, opts.Size), nil
}

func autoColor(t [3]math.Vec2) color.NRGBA {
	avg := t[0].Add(t[1]).Add(t[2]).Scale(1.0 / 3)
	hue := stdmath.Mod(float64(avg.Length()), 1)
	return hsvToRGB(hue, 1, 1)
}

// hsvToRGB converts hue, saturation and value in [0,1] to an opaque colour.
func hsvToRGB(h, s, v float64) color.NRGBA {
	h = stdmath.Mod(h, 1) * 6
	i := int(stdmath.Floor(h))
	f := h - float64(i)
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.NRGBA{to8(r), to8(g), to8(b), 255}
}

func to8(v float64) uint8 {
	return uint8(stdmath.Round(stdmath.Max(0, stdmath.Min(1, v)) * 255))
}
