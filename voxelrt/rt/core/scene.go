package core

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Cube is an axis-aligned box.
type Cube struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (c Cube) corner(side int) mgl32.Vec3 {
	if side == 0 {
		return c.Min
	}
	return c.Max
}

// Intersect runs the slab test for a ray with origin o and per-axis signed
// inverse direction inv. It returns the entry distance and whether the box is
// hit in front of the origin.
func (c Cube) Intersect(o, inv mgl32.Vec3) (float32, bool) {
	var sign [3]int
	for i := 0; i < 3; i++ {
		if inv[i] < 0 {
			sign[i] = 1
		}
	}

	tmin := (c.corner(sign[0]).X() - o.X()) * inv.X()
	tmax := (c.corner(1-sign[0]).X() - o.X()) * inv.X()
	tymin := (c.corner(sign[1]).Y() - o.Y()) * inv.Y()
	tymax := (c.corner(1-sign[1]).Y() - o.Y()) * inv.Y()

	if tmin > tymax || tymin > tmax {
		return 0, false
	}
	tmin = max(tmin, tymin)
	tmax = min(tmax, tymax)

	tzmin := (c.corner(sign[2]).Z() - o.Z()) * inv.Z()
	tzmax := (c.corner(1-sign[2]).Z() - o.Z()) * inv.Z()
	if tmin > tzmax || tzmin > tmax {
		return 0, false
	}
	tmin = max(tmin, tzmin)
	tmax = min(tmax, tzmax)

	if tmax < 0 {
		return 0, false
	}
	return max(tmin, 0), true
}

// Scene is the list of boxes drawn by the box render mode.
type Scene struct {
	Cubes []Cube
}

func NewScene() *Scene {
	return &Scene{
		Cubes: []Cube{},
	}
}

func (s *Scene) AddCube(c Cube) {
	s.Cubes = append(s.Cubes, c)
}

// Intersect returns the index of the nearest cube hit, or -1.
func (s *Scene) Intersect(o, inv mgl32.Vec3) (int, float32) {
	best := -1
	var bestT float32
	for i, c := range s.Cubes {
		t, ok := c.Intersect(o, inv)
		if !ok {
			continue
		}
		if best < 0 || t < bestT {
			best, bestT = i, t
		}
	}
	return best, bestT
}
