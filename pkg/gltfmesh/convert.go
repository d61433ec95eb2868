package gltfmesh

import "github.com/Faultbox/morphkit/pkg/math"

// The gltf document model uses float64 for node transforms and weights.
// These helpers convert from whichever float width a field uses.

type float interface{ ~float32 | ~float64 }

type index interface{ ~int | ~uint32 }

func vec3Of[T float](a [3]T) math.Vec3 {
	return math.Vec3{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2])}
}

func quatOf[T float](a [4]T) math.Quat {
	return math.Quat{X: float32(a[0]), Y: float32(a[1]), Z: float32(a[2]), W: float32(a[3])}
}

func mat4Of[T float](a [16]T) math.Mat4 {
	var m math.Mat4
	for i := range a {
		m[i] = float32(a[i])
	}
	return m
}

func floatsOf[T float](a []T) []float32 {
	out := make([]float32, len(a))
	for i, v := range a {
		out[i] = float32(v)
	}
	return out
}

func setFloats[T float](dst *[]T, src []float32) {
	out := make([]T, len(src))
	for i, v := range src {
		out[i] = T(v)
	}
	*dst = out
}

func idx[T index](i T) int {
	return int(i)
}

func optIdx[T index](p *T) (int, bool) {
	if p == nil {
		return 0, false
	}
	return int(*p), true
}
