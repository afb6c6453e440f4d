package volume

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape of the detail carved into solid leaf cells. All lengths are in the
// cell-local frame where the cell spans [-0.5, 0.5]^3.
const (
	frameHalfExtent = 0.38
	frameBar        = 0.06
	frameRounding   = 0.03
	knobRadius      = 0.16
)

var knobCenter = mgl32.Vec3{0.27, 0.27, 0.27}

// FlipFor returns the per-cell mirror vector, each component -1 or +1.
func FlipFor(cell mgl32.Vec3) mgl32.Vec3 {
	h := Hash33(cell)
	return mgl32.Vec3{
		math32.Floor(h.X()+0.5)*2 - 1,
		math32.Floor(h.Y()+0.5)*2 - 1,
		math32.Floor(h.Z()+0.5)*2 - 1,
	}
}

// SurfaceDistance is the signed distance to a rounded wireframe box with a
// knob on one corner. The flip vector mirrors the shape so neighbouring cells
// put the knob on different corners.
func SurfaceDistance(p, flip mgl32.Vec3) float32 {
	q := mgl32.Vec3{p.X() * flip.X(), p.Y() * flip.Y(), p.Z() * flip.Z()}
	frame := boxFrame(q, frameHalfExtent, frameBar) - frameRounding
	knob := q.Sub(knobCenter).Len() - knobRadius
	return math32.Min(frame, knob)
}

// SurfaceNormal is the central-difference gradient of SurfaceDistance.
func SurfaceNormal(p mgl32.Vec3, eps float32, flip mgl32.Vec3) mgl32.Vec3 {
	var n mgl32.Vec3
	for i := 0; i < 3; i++ {
		var e mgl32.Vec3
		e[i] = eps
		n[i] = SurfaceDistance(p.Add(e), flip) - SurfaceDistance(p.Sub(e), flip)
	}
	l := n.Len()
	if l == 0 || math32.IsNaN(l) {
		return mgl32.Vec3{0, 1, 0}
	}
	return n.Mul(1 / l)
}

// boxFrame is the exact distance to the edges of a box with half extent b and
// bar thickness e.
func boxFrame(p mgl32.Vec3, b, e float32) float32 {
	p = mgl32.Vec3{math32.Abs(p.X()) - b, math32.Abs(p.Y()) - b, math32.Abs(p.Z()) - b}
	q := mgl32.Vec3{math32.Abs(p.X()+e) - e, math32.Abs(p.Y()+e) - e, math32.Abs(p.Z()+e) - e}

	n1 := maxZero(mgl32.Vec3{p.X(), q.Y(), q.Z()}).Len() + math32.Min(math32.Max(p.X(), math32.Max(q.Y(), q.Z())), 0)
	n2 := maxZero(mgl32.Vec3{q.X(), p.Y(), q.Z()}).Len() + math32.Min(math32.Max(q.X(), math32.Max(p.Y(), q.Z())), 0)
	n3 := maxZero(mgl32.Vec3{q.X(), q.Y(), p.Z()}).Len() + math32.Min(math32.Max(q.X(), math32.Max(q.Y(), p.Z())), 0)
	return math32.Min(n1, math32.Min(n2, n3))
}

func maxZero(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Max(v.X(), 0), math32.Max(v.Y(), 0), math32.Max(v.Z(), 0)}
}
