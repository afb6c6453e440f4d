package core

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Palette derives a base colour from a cell address.
type Palette struct {
	Weights     mgl32.Vec3
	Frequencies mgl32.Vec3
}

func DefaultPalette() Palette {
	return Palette{
		Weights:     mgl32.Vec3{15.23, 754.345, 3.454},
		Frequencies: mgl32.Vec3{39.896, 57.3225, 48.25},
	}
}

// Color returns the linear base colour of the cell with minimum corner cell.
// Every component is in [0,1].
func (p Palette) Color(cell mgl32.Vec3) mgl32.Vec3 {
	v := cell.Dot(p.Weights)
	v -= math32.Floor(v)
	return mgl32.Vec3{
		math32.Sin(v*p.Frequencies.X())*0.5 + 0.5,
		math32.Sin(v*p.Frequencies.Y())*0.5 + 0.5,
		math32.Sin(v*p.Frequencies.Z())*0.5 + 0.5,
	}
}
