package volume

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Class is the occupancy of one octree cell.
type Class uint8

const (
	Empty Class = iota
	Subdivide
	Solid
)

func (c Class) String() string {
	switch c {
	case Empty:
		return "empty"
	case Subdivide:
		return "subdivide"
	case Solid:
		return "solid"
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Oracle classifies a cell given its minimum corner and edge length.
// Implementations must be pure: the same cell is classified many times per
// frame from different goroutines.
type Oracle interface {
	Classify(origin mgl32.Vec3, size float32) Class
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(origin mgl32.Vec3, size float32) Class

func (f OracleFunc) Classify(origin mgl32.Vec3, size float32) Class {
	return f(origin, size)
}

// Constant returns an oracle that answers c for every cell.
func Constant(c Class) Oracle {
	return OracleFunc(func(mgl32.Vec3, float32) Class { return c })
}

const (
	DefaultEmptyCells   = 0.5
	DefaultSubdivisions = 0.95
)

// HashOracle generates the infinite octree from a hash of the cell address.
type HashOracle struct {
	EmptyCells   float32 // hash values below this are empty
	Subdivisions float32 // hash values below this (and above EmptyCells) subdivide
	// OpenSpawnColumn keeps every cell with origin x == 0 and y == 0 empty so
	// the camera path through the origin column stays clear.
	OpenSpawnColumn bool
}

func NewHashOracle() HashOracle {
	return HashOracle{
		EmptyCells:      DefaultEmptyCells,
		Subdivisions:    DefaultSubdivisions,
		OpenSpawnColumn: true,
	}
}

func (o HashOracle) Classify(origin mgl32.Vec3, size float32) Class {
	if o.OpenSpawnColumn && origin.X() == 0 && origin.Y() == 0 {
		return Empty
	}
	return o.ClassifyValue(Hash4([4]float32{origin.X(), origin.Y(), origin.Z(), size}))
}

// ClassifyValue maps a hash in [0,1) onto the three classes.
func (o HashOracle) ClassifyValue(v float32) Class {
	switch {
	case v < o.EmptyCells:
		return Empty
	case v < o.Subdivisions:
		return Subdivide
	default:
		return Solid
	}
}

var hash4Weights = [4]float32{13.46, 41.74, -73.36, 14.24}

// Hash4 is the cell hash: fract(4e4*sin(dot(v, w)+17.34)).
func Hash4(v [4]float32) float32 {
	var d float32
	for i := range v {
		d += v[i] * hash4Weights[i]
	}
	return fract(4e4 * math32.Sin(d+17.34))
}

// Hash33 returns three decorrelated values in [0,1) for a point.
func Hash33(p mgl32.Vec3) mgl32.Vec3 {
	p3 := mgl32.Vec3{
		fract(p.X() * 0.1031),
		fract(p.Y() * 0.1030),
		fract(p.Z() * 0.0973),
	}
	d := p3.Dot(mgl32.Vec3{p3.Y() + 33.33, p3.X() + 33.33, p3.Z() + 33.33})
	p3 = mgl32.Vec3{p3.X() + d, p3.Y() + d, p3.Z() + d}
	return mgl32.Vec3{
		fract((p3.X() + p3.Y()) * p3.Z()),
		fract((p3.X() + p3.X()) * p3.Y()),
		fract((p3.Y() + p3.X()) * p3.X()),
	}
}

func fract(x float32) float32 {
	return x - math32.Floor(x)
}
