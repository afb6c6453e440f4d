package render

import (
	"image/color"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/trace"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	// edgeSharpness scales how fast colour falls off towards a cell border.
	edgeSharpness = 80
	gridLineWidth = 0.02
	gridDarkening = 0.5
)

// Shading holds the per-renderer feature toggles of the pixel shader.
type Shading struct {
	EdgeDarkening bool
	WhiteBorders  bool
	GridOverlay   bool
	Fog           bool
	Palette       core.Palette
}

func ShadingFromConfig(cfg core.Config) Shading {
	return Shading{
		EdgeDarkening: cfg.Render.EdgeDarkening,
		WhiteBorders:  cfg.Render.WhiteBorders,
		GridOverlay:   cfg.Render.GridOverlay,
		Fog:           cfg.Render.Fog,
		Palette:       cfg.BuildPalette(),
	}
}

// Background is the colour of a ray that hits nothing.
func (s Shading) Background() mgl32.Vec3 {
	if s.WhiteBorders {
		return mgl32.Vec3{1, 1, 1}
	}
	return mgl32.Vec3{}
}

// Shade returns the linear colour of a traversal result. maxDist is the
// distance budget used for fog.
func (s Shading) Shade(res trace.Result, maxDist float32) mgl32.Vec3 {
	if !res.Hit() {
		return s.Background()
	}

	col := s.Palette.Color(res.Cell)
	light := res.Normal.Mul(0.25).Add(mgl32.Vec3{0.75, 0.75, 0.75})
	col = mul(col, light)

	if s.EdgeDarkening {
		edge := edgeFactor(res.Local, res.Mask, res.Size)
		if s.WhiteBorders {
			col = mix(mgl32.Vec3{1, 1, 1}, col, edge)
		} else {
			col = col.Mul(edge)
		}
	}

	if s.GridOverlay && onGridLine(res.Position(), res.Mask) {
		col = col.Mul(gridDarkening)
	}

	if s.Fog && maxDist > 0 {
		col = col.Mul(clamp01(1 - res.Dist/maxDist))
	}
	return col
}

// edgeFactor is 1 in the middle of the entered face and falls to 0 at its
// border.
func edgeFactor(local, mask mgl32.Vec3, size float32) float32 {
	var q float32
	for i := 0; i < 3; i++ {
		v := math32.Abs(local[i]/size-0.5) * (1 - mask[i])
		if v > q {
			q = v
		}
	}
	return clamp01(-(q - 0.5) * edgeSharpness * size)
}

func onGridLine(p, mask mgl32.Vec3) bool {
	for i := 0; i < 3; i++ {
		if mask[i] != 0 {
			continue
		}
		f := p[i] - math32.Floor(p[i])
		if f < gridLineWidth || f > 1-gridLineWidth {
			return true
		}
	}
	return false
}

// Pack gamma-encodes a linear colour and packs it as A<<24|B<<16|G<<8|R with
// full alpha.
func Pack(c mgl32.Vec3) uint32 {
	r := quantize(math32.Sqrt(math32.Max(c.X(), 0)))
	g := quantize(math32.Sqrt(math32.Max(c.Y(), 0)))
	b := quantize(math32.Sqrt(math32.Max(c.Z(), 0)))
	return 0xff<<24 | b<<16 | g<<8 | r
}

func PackRGBA(c color.RGBA) uint32 {
	return uint32(c.A)<<24 | uint32(c.B)<<16 | uint32(c.G)<<8 | uint32(c.R)
}

func Unpack(p uint32) color.RGBA {
	return color.RGBA{
		R: uint8(p),
		G: uint8(p >> 8),
		B: uint8(p >> 16),
		A: uint8(p >> 24),
	}
}

func quantize(v float32) uint32 {
	return uint32(math32.Round(clamp01(v) * 255))
}

func clamp01(v float32) float32 {
	if v < 0 || math32.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func mul(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

func mix(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}
