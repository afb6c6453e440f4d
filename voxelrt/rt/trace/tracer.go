package trace

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/go-gl/mathgl/mgl32"
)

// State of the traversal state machine.
type State uint8

const (
	Ascending State = iota
	Classifying
	Stepping
	Hit
	Exhausted
)

func (s State) String() string {
	switch s {
	case Ascending:
		return "ascending"
	case Classifying:
		return "classifying"
	case Stepping:
		return "stepping"
	case Hit:
		return "hit"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Reason explains why a traversal ended without a hit.
type Reason uint8

const (
	NoReason Reason = iota
	StepBudget
	DistanceBudget
	InvalidRay
	Aborted
	// RefinementMiss ends a ray whose surface march found nothing inside a
	// solid leaf.
	RefinementMiss
)

func (r Reason) String() string {
	switch r {
	case NoReason:
		return "none"
	case StepBudget:
		return "step budget"
	case DistanceBudget:
		return "distance budget"
	case InvalidRay:
		return "invalid ray"
	case Aborted:
		return "aborted"
	case RefinementMiss:
		return "refinement miss"
	}
	return fmt.Sprintf("reason(%d)", uint8(r))
}

const (
	// ascendEpsilon is the tolerance of the "still leaving the parent" face test.
	ascendEpsilon = 0.1
	// surfaceEpsilon ends the hybrid march.
	surfaceEpsilon = 0.001
	normalEpsilon  = 0.001
)

type Settings struct {
	MaxDetail   int     // deepest subdivision level
	Steps       int     // iteration budget
	MaxDistance float32 // distance budget
	// HybridRefinementSteps enables a short distance-field march inside solid
	// leaf cells. Zero disables it.
	HybridRefinementSteps int
}

func DefaultSettings() Settings {
	return Settings{
		MaxDetail:   5,
		Steps:       300,
		MaxDistance: 30,
	}
}

// Cursor is the traversal state handed to a Walk visitor after each iteration.
type Cursor struct {
	Iteration int
	State     State
	Cell      mgl32.Vec3 // minimum corner of the current cell
	Local     mgl32.Vec3 // position relative to Cell, in [0, Size)
	Size      float32
	Depth     int
	Dist      float32
	Mask      mgl32.Vec3
	Ascend    bool // an ascend is pending for the next iteration
}

type Result struct {
	State  State // Hit or Exhausted
	Reason Reason
	Cell   mgl32.Vec3
	Local  mgl32.Vec3
	Size   float32
	Depth  int
	Dist   float32
	Steps  int
	Mask   mgl32.Vec3 // face the ray entered the hit cell through
	Normal mgl32.Vec3
	// Refined is set when the hybrid march produced Local and Normal.
	Refined bool
}

func (r Result) Hit() bool {
	return r.State == Hit
}

// Position is the world-space hit point.
func (r Result) Position() mgl32.Vec3 {
	return r.Cell.Add(r.Local)
}

// Tracer walks the implicit octree defined by Oracle. It holds no per-ray
// state and may be shared between goroutines.
type Tracer struct {
	Oracle   volume.Oracle
	Settings Settings
}

func NewTracer(oracle volume.Oracle, settings Settings) *Tracer {
	return &Tracer{Oracle: oracle, Settings: settings}
}

func (t *Tracer) Trace(ray Ray) Result {
	return t.Walk(ray, nil)
}

// Walk traces ray, calling visit (if non-nil) once per iteration. A visitor
// returning false stops the walk with reason Aborted.
func (t *Tracer) Walk(ray Ray, visit func(Cursor) bool) Result {
	s := t.Settings
	if !ray.Valid() {
		return Result{State: Exhausted, Reason: InvalidRay}
	}

	size := float32(1)
	lro := modVec(ray.Origin, size)
	fro := ray.Origin.Sub(lro)
	sgn := signVec(ray.Dir)

	var mask, lastMask mgl32.Vec3
	ascend := false
	depth := 0
	dist := float32(0)

	res := Result{State: Exhausted, Reason: StepBudget}
	emit := func(i int, st State) bool {
		if visit == nil {
			return true
		}
		return visit(Cursor{
			Iteration: i,
			State:     st,
			Cell:      fro,
			Local:     lro,
			Size:      size,
			Depth:     depth,
			Dist:      dist,
			Mask:      mask,
			Ascend:    ascend,
		})
	}

	i := 0
loop:
	for ; i < s.Steps; i++ {
		if dist > s.MaxDistance {
			res.Reason = DistanceBudget
			break
		}

		for ascend {
			twice := size * 2
			parent := floorVec(fro.Mul(1 / twice)).Mul(twice)
			lro = lro.Add(fro.Sub(parent))
			fro = parent
			depth--
			size = twice
			ascend = depth > 0 && leavingParent(fro, size, mask, sgn)
			if !emit(i, Ascending) {
				res.Reason = Aborted
				break loop
			}
		}

		class := t.Oracle.Classify(fro, size)
		if class == volume.Subdivide {
			if depth < s.MaxDetail {
				depth++
				size *= 0.5
				child := stepVec(size, lro)
				fro = fro.Add(child.Mul(size))
				lro = lro.Sub(child.Mul(size))
				if !emit(i, Classifying) {
					res.Reason = Aborted
					break
				}
				continue
			}
			class = volume.Empty
		}

		if class == volume.Solid {
			if s.HybridRefinementSteps <= 0 {
				res = t.hit(ray, fro, lro, size, depth, dist, lastMask)
				break
			}
			if local, travel, normal, ok := t.refine(ray, fro, lro, size); ok {
				res = t.hit(ray, fro, local, size, depth, dist+travel, lastMask)
				res.Normal = normal
				res.Refined = true
				break
			}
			res.Reason = RefinementMiss
			i++
			break
		}

		var step float32
		mask, step = volume.FaceMask(volume.ExitOffsets(lro, ray.Dir, ray.InvDir, size))
		dist += step
		lro = lro.Add(ray.Dir.Mul(step)).Sub(mulVec(mask, sgn).Mul(size))
		next := fro.Add(mulVec(mask, sgn).Mul(size))
		ascend = depth > 0 && parentIndex(next, size) != parentIndex(fro, size)
		fro = next
		lastMask = mask

		if !emit(i, Stepping) {
			res.Reason = Aborted
			break
		}
		if dist > s.MaxDistance {
			res.Reason = DistanceBudget
			i++
			break
		}
	}

	res.Steps = i
	if res.State == Hit {
		res.Steps = i + 1
		return res
	}
	res.Cell, res.Local, res.Size, res.Depth, res.Dist, res.Mask = fro, lro, size, depth, dist, lastMask
	return res
}

func (t *Tracer) hit(ray Ray, fro, lro mgl32.Vec3, size float32, depth int, dist float32, mask mgl32.Vec3) Result {
	if mask == (mgl32.Vec3{}) {
		// Started inside a solid cell: no face was crossed, so use the face the
		// ray is looking into.
		mask = dominantAxis(ray.Dir)
	}
	return Result{
		State:  Hit,
		Cell:   fro,
		Local:  lro,
		Size:   size,
		Depth:  depth,
		Dist:   dist,
		Mask:   mask,
		Normal: volume.FaceNormal(mask, ray.Dir),
	}
}

// refine marches the carved surface of a solid cell in cell-normalized units.
// It returns the refined local position, the extra world distance and the
// surface normal.
func (t *Tracer) refine(ray Ray, fro, lro mgl32.Vec3, size float32) (mgl32.Vec3, float32, mgl32.Vec3, bool) {
	flip := volume.FlipFor(fro)
	center := mgl32.Vec3{0.5, 0.5, 0.5}
	p := lro.Mul(1 / size)
	var march float32
	for j := 0; j < t.Settings.HybridRefinementSteps; j++ {
		q := p.Add(ray.Dir.Mul(march))
		if !insideUnit(q, surfaceEpsilon) {
			return mgl32.Vec3{}, 0, mgl32.Vec3{}, false
		}
		d := volume.SurfaceDistance(q.Sub(center), flip)
		if d < surfaceEpsilon {
			n := volume.SurfaceNormal(q.Sub(center), normalEpsilon, flip)
			return q.Mul(size), march * size, n, true
		}
		march += d
	}
	return mgl32.Vec3{}, 0, mgl32.Vec3{}, false
}

// leavingParent reports whether the cell at fro (edge size) still sits on the
// parent face the ray is crossing along mask.
func leavingParent(fro mgl32.Vec3, size float32, mask, sgn mgl32.Vec3) bool {
	var d float32
	for i := 0; i < 3; i++ {
		v := glslMod(fro[i]/size+0.5, 2) - 1 + mask[i]*sgn[i]*0.5
		d += v * mask[i]
	}
	return math32.Abs(d) < ascendEpsilon
}

func parentIndex(fro mgl32.Vec3, size float32) [3]float32 {
	return [3]float32{
		math32.Floor(fro.X()/size*0.5 + 0.25),
		math32.Floor(fro.Y()/size*0.5 + 0.25),
		math32.Floor(fro.Z()/size*0.5 + 0.25),
	}
}

func dominantAxis(v mgl32.Vec3) mgl32.Vec3 {
	axis := 0
	for i := 1; i < 3; i++ {
		if math32.Abs(v[i]) > math32.Abs(v[axis]) {
			axis = i
		}
	}
	var m mgl32.Vec3
	m[axis] = 1
	return m
}

func insideUnit(p mgl32.Vec3, eps float32) bool {
	for i := 0; i < 3; i++ {
		if p[i] < -eps || p[i] > 1+eps {
			return false
		}
	}
	return true
}

// glslMod is x - y*floor(x/y); unlike math.Mod the result takes the sign of y.
func glslMod(x, y float32) float32 {
	return x - y*math32.Floor(x/y)
}

func modVec(v mgl32.Vec3, y float32) mgl32.Vec3 {
	return mgl32.Vec3{glslMod(v.X(), y), glslMod(v.Y(), y), glslMod(v.Z(), y)}
}

func floorVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{math32.Floor(v.X()), math32.Floor(v.Y()), math32.Floor(v.Z())}
}

func signVec(v mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{volume.Sign(v.X()), volume.Sign(v.Y()), volume.Sign(v.Z())}
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

// stepVec is GLSL step(edge, v): 1 where v >= edge.
func stepVec(edge float32, v mgl32.Vec3) mgl32.Vec3 {
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		if v[i] >= edge {
			out[i] = 1
		}
	}
	return out
}
