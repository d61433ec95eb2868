package uvmap

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	stdmath "math"
	"testing"

	"github.com/Faultbox/morphkit/pkg/blendshape"
	"github.com/Faultbox/morphkit/pkg/math"
)

// buildQuadMesh creates a unit quad split into two triangles covering the
// lower-left half of UV space.
func buildQuadMesh() *blendshape.Mesh {
	return &blendshape.Mesh{
		Name:     "quad",
		Vertices: make([]math.Vec3, 4),
		UVs: [][]math.Vec2{{
			{X: 0, Y: 0}, {X: 0.5, Y: 0}, {X: 0.5, Y: 0.5}, {X: 0, Y: 0.5},
		}},
		SubMeshes: []blendshape.SubMesh{{VertexCount: 4, Indices: []uint32{0, 1, 2, 0, 2, 3}}},
	}
}

func TestRender_LinesOnly(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 64

	img, err := Render(buildQuadMesh(), 0, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 64 {
		t.Fatalf("size = %v", img.Bounds())
	}
	// UV (0,0) is the bottom-left texel.
	if got := img.NRGBAAt(0, 63); got != opts.LineColor {
		t.Errorf("bottom-left = %v, want line colour", got)
	}
	// Inside a triangle but away from edges stays background.
	if got := img.NRGBAAt(8, 60); got != opts.Background {
		t.Errorf("interior = %v, want background", got)
	}
	// The upper half of UV space is untouched.
	if got := img.NRGBAAt(48, 8); got != opts.Background {
		t.Errorf("outside = %v, want background", got)
	}
}

func TestRender_FillWithoutLines(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 64
	opts.Fill = true
	opts.DrawLines = false
	opts.FillColor = color.NRGBA{200, 10, 10, 40}

	img, err := Render(buildQuadMesh(), 0, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := color.NRGBA{200, 10, 10, 255}
	if got := img.NRGBAAt(8, 60); got != want {
		t.Errorf("interior = %v, want opaque fill %v", got, want)
	}
	if got := img.NRGBAAt(0, 63); got != want {
		t.Errorf("corner = %v, want fill (no lines)", got)
	}
}

func TestRender_LinesAlwaysDrawnWithoutFill(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 32
	opts.DrawLines = false

	img, err := Render(buildQuadMesh(), 0, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := img.NRGBAAt(0, 31); got != opts.LineColor {
		t.Errorf("edges missing when fill is off: %v", got)
	}
}

func TestRender_TransparentSupersampled(t *testing.T) {
	opts := DefaultOptions()
	opts.Size = 32
	opts.Supersample = 4
	opts.Transparent = true

	img, err := Render(buildQuadMesh(), 0, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("size = %v, want 32x32", img.Bounds())
	}
	if got := img.NRGBAAt(28, 4); got.A != 0 {
		t.Errorf("background alpha = %d, want 0", got.A)
	}
	if got := img.NRGBAAt(0, 31); got.A == 0 {
		t.Error("edge texel vanished after downsampling")
	}
}

func TestRender_FarOutUVsClipped(t *testing.T) {
	m := &blendshape.Mesh{
		Name:     "stray",
		Vertices: make([]math.Vec3, 3),
		UVs: [][]math.Vec2{{
			{X: 0.5, Y: 0.5}, {X: 1e6, Y: 0.5}, {X: 0.5, Y: -1e6},
		}},
		SubMeshes: []blendshape.SubMesh{{VertexCount: 3, Indices: []uint32{0, 1, 2}}},
	}
	opts := DefaultOptions()
	opts.Size = 64

	img, err := Render(m, 0, opts)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// The horizontal edge runs to the right border, the vertical one to the bottom.
	for _, p := range []image.Point{{32, 31}, {63, 31}, {32, 63}} {
		if got := img.NRGBAAt(p.X, p.Y); got != opts.LineColor {
			t.Errorf("texel %v = %v, want line colour", p, got)
		}
	}
	for _, p := range []image.Point{{8, 8}, {48, 48}, {8, 56}} {
		if got := img.NRGBAAt(p.X, p.Y); got != opts.Background {
			t.Errorf("texel %v = %v, want background", p, got)
		}
	}
}

func TestClipSegment(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 float64
		ok             bool
		ax, ay, bx, by float64
	}{
		{"inside", 1, 2, 3, 4, true, 1, 2, 3, 4},
		{"crosses right", 5, 5, 15, 5, true, 5, 5, 10, 5},
		{"crosses both", -10, 5, 20, 5, true, 0, 5, 10, 5},
		{"outside", 20, 20, 30, 40, false, 0, 0, 0, 0},
		{"far away", 6.4e7, 5, 5, -6.4e7, false, 0, 0, 0, 0},
		{"not finite", 1, 1, stdmath.Inf(1), 1, false, 0, 0, 0, 0},
		{"nan", stdmath.NaN(), 1, 2, 2, false, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ax, ay, bx, by, ok := clipSegment(tt.x0, tt.y0, tt.x1, tt.y1, 10)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			got := [4]float64{ax, ay, bx, by}
			want := [4]float64{tt.ax, tt.ay, tt.bx, tt.by}
			for i := range got {
				if stdmath.Abs(got[i]-want[i]) > 1e-9 {
					t.Errorf("clipped = %v, want %v", got, want)
					break
				}
			}
		})
	}
}

func TestRender_Errors(t *testing.T) {
	m := buildQuadMesh()
	opts := DefaultOptions()

	if _, err := Render(m, 1, opts); !errors.Is(err, ErrNoUVs) {
		t.Errorf("missing uv set: %v", err)
	}
	opts.Size = 0
	if _, err := Render(m, 0, opts); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("zero size: %v", err)
	}
}

func TestHSVToRGB(t *testing.T) {
	tests := []struct {
		h    float64
		want color.NRGBA
	}{
		{0, color.NRGBA{255, 0, 0, 255}},
		{1.0 / 3, color.NRGBA{0, 255, 0, 255}},
		{2.0 / 3, color.NRGBA{0, 0, 255, 255}},
	}
	for _, tt := range tests {
		if got := hsvToRGB(tt.h, 1, 1); got != tt.want {
			t.Errorf("hsvToRGB(%v) = %v, want %v", tt.h, got, tt.want)
		}
	}
}

func TestEncode(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for _, f := range []Format{PNG, WebP, TGA} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, f); err != nil {
			t.Errorf("Encode(%s): %v", f, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Encode(%s) wrote nothing", f)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, PNG); err != nil {
		t.Fatal(err)
	}
	if _, err := png.Decode(&buf); err != nil {
		t.Errorf("PNG output does not decode: %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"out/uv.png":  PNG,
		"out/uv.WEBP": WebP,
		"uv.tga":      TGA,
		"uv.bmp":      PNG,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{"#ffffff", color.NRGBA{255, 255, 255, 255}, false},
		{"000", color.NRGBA{0, 0, 0, 255}, false},
		{"#f80", color.NRGBA{0xff, 0x88, 0x00, 255}, false},
		{"#11223344", color.NRGBA{0x11, 0x22, 0x33, 0x44}, false},
		{"#12345", color.NRGBA{}, true},
		{"#gggggg", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
