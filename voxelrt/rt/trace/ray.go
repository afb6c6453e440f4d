package trace

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DirEpsilon bounds direction magnitudes away from zero before inversion.
const DirEpsilon = 0.001

type Ray struct {
	Origin mgl32.Vec3
	Dir    mgl32.Vec3
	// InvDir holds 1/max(|Dir|, DirEpsilon) per axis. It is a magnitude; the
	// sign lives in Dir.
	InvDir mgl32.Vec3
}

// NewRay normalizes dir and precomputes the clamped reciprocal.
func NewRay(origin, dir mgl32.Vec3) Ray {
	if l := dir.Len(); l > 0 {
		dir = dir.Mul(1 / l)
	}
	return Ray{
		Origin: origin,
		Dir:    dir,
		InvDir: mgl32.Vec3{
			1 / math32.Max(math32.Abs(dir.X()), DirEpsilon),
			1 / math32.Max(math32.Abs(dir.Y()), DirEpsilon),
			1 / math32.Max(math32.Abs(dir.Z()), DirEpsilon),
		},
	}
}

// At returns the point at distance t along the ray.
func (r Ray) At(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Dir.Mul(t))
}

// Valid reports whether every component is finite and the direction is non-zero.
func (r Ray) Valid() bool {
	for i := 0; i < 3; i++ {
		if !finite(r.Origin[i]) || !finite(r.Dir[i]) {
			return false
		}
	}
	return r.Dir.LenSqr() > 0
}

func finite(x float32) bool {
	return !math32.IsNaN(x) && !math32.IsInf(x, 0)
}
