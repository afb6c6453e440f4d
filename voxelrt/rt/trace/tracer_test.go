package trace

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRayNormalizesAndClamps(t *testing.T) {
	r := NewRay(mgl32.Vec3{}, mgl32.Vec3{0, 0, 2})
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, r.Dir)
	assert.InDelta(t, 1.0/DirEpsilon, float64(r.InvDir.X()), 1e-3)
	assert.InDelta(t, 1.0, float64(r.InvDir.Z()), 1e-6)
	assert.True(t, r.Valid())

	assert.False(t, NewRay(mgl32.Vec3{}, mgl32.Vec3{}).Valid())
	assert.False(t, NewRay(mgl32.Vec3{math32.NaN(), 0, 0}, mgl32.Vec3{0, 0, 1}).Valid())
	assert.False(t, NewRay(mgl32.Vec3{}, mgl32.Vec3{math32.Inf(1), 0, 0}).Valid())
}

func TestTraceAlwaysSolidHitsImmediately(t *testing.T) {
	tr := NewTracer(volume.Constant(volume.Solid), DefaultSettings())
	res := tr.Trace(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1}))

	require.True(t, res.Hit())
	assert.Equal(t, NoReason, res.Reason)
	assert.Equal(t, 1, res.Steps)
	assert.Equal(t, float32(0), res.Dist)
	assert.Equal(t, mgl32.Vec3{0, 0, -1}, res.Normal)
	assert.Equal(t, mgl32.Vec3{0, 0, 1}, res.Mask)
	assert.Equal(t, mgl32.Vec3{0.5, 0.5, 0.5}, res.Position())
}

func TestTraceAlwaysEmptyRunsOutOfDistance(t *testing.T) {
	tr := NewTracer(volume.Constant(volume.Empty), DefaultSettings())
	res := tr.Trace(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1}))

	assert.False(t, res.Hit())
	assert.Equal(t, Exhausted, res.State)
	assert.Equal(t, DistanceBudget, res.Reason)
	assert.Greater(t, res.Dist, float32(30))
	// 0.5 to the first face, then one unit per cell.
	assert.Equal(t, 31, res.Steps)
}

func TestTraceZeroDistanceMissesInOneIteration(t *testing.T) {
	s := DefaultSettings()
	s.MaxDistance = 1e-6
	tr := NewTracer(volume.Constant(volume.Empty), s)

	res := tr.Trace(NewRay(mgl32.Vec3{0.3, 0.6, 0.2}, mgl32.Vec3{0.2, -0.4, 1}))
	assert.False(t, res.Hit())
	assert.Equal(t, DistanceBudget, res.Reason)
	assert.Equal(t, 1, res.Steps)
}

func TestTraceStepBudget(t *testing.T) {
	s := DefaultSettings()
	s.Steps = 4
	s.MaxDistance = 1000
	tr := NewTracer(volume.Constant(volume.Empty), s)

	res := tr.Trace(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{1, 0, 0}))
	assert.Equal(t, StepBudget, res.Reason)
	assert.Equal(t, 4, res.Steps)
	assert.InDelta(t, 3.5, float64(res.Dist), 1e-5)
}

func TestTraceInvalidRay(t *testing.T) {
	tr := NewTracer(volume.Constant(volume.Solid), DefaultSettings())
	res := tr.Trace(Ray{Origin: mgl32.Vec3{math32.NaN(), 0, 0}, Dir: mgl32.Vec3{0, 0, 1}})
	assert.Equal(t, Exhausted, res.State)
	assert.Equal(t, InvalidRay, res.Reason)
	assert.Zero(t, res.Steps)
}

func TestWalkDistanceNeverDecreases(t *testing.T) {
	s := DefaultSettings()
	tr := NewTracer(volume.NewHashOracle(), s)

	dirs := []mgl32.Vec3{
		{0, 0, 1},
		{0.3, 0.1, 1},
		{-0.5, 0.7, 0.2},
		{0.9, -0.9, -0.4},
		{0.01, 0.02, -1},
	}
	for _, d := range dirs {
		last := float32(-1)
		visits := 0
		res := tr.Walk(NewRay(mgl32.Vec3{0.5, 0.5, 0.25}, d), func(c Cursor) bool {
			visits++
			if c.Dist < last-1e-4 {
				t.Errorf("dir %v: distance went from %v to %v", d, last, c.Dist)
			}
			if c.Depth < 0 || c.Depth > s.MaxDetail {
				t.Errorf("dir %v: depth %d outside [0,%d]", d, c.Depth, s.MaxDetail)
			}
			last = c.Dist
			return true
		})
		assert.LessOrEqual(t, res.Steps, s.Steps, "dir %v", d)
		assert.LessOrEqual(t, res.Depth, s.MaxDetail, "dir %v", d)
		assert.GreaterOrEqual(t, res.Dist, last-1e-4, "dir %v", d)
		assert.NotZero(t, visits, "dir %v", d)
	}
}

func TestWalkSubdivideStopsAtMaxDetail(t *testing.T) {
	s := DefaultSettings()
	s.MaxDetail = 3
	s.Steps = 50
	tr := NewTracer(volume.Constant(volume.Subdivide), s)

	maxDepth := 0
	minSize := float32(1)
	res := tr.Walk(NewRay(mgl32.Vec3{0.4, 0.6, 0.3}, mgl32.Vec3{0.2, 0.1, 1}), func(c Cursor) bool {
		if c.Depth > maxDepth {
			maxDepth = c.Depth
		}
		if c.Size < minSize {
			minSize = c.Size
		}
		return true
	})

	assert.False(t, res.Hit())
	assert.Equal(t, 3, maxDepth)
	assert.Equal(t, float32(0.125), minSize)
}

func TestWalkAscendRestoresParentCell(t *testing.T) {
	// Solid only at the unit cell (1,0,0): a ray that starts one level down in
	// cell 0 must climb back out before it can hit it.
	oracle := volume.OracleFunc(func(origin mgl32.Vec3, size float32) volume.Class {
		switch {
		case origin == (mgl32.Vec3{0, 0, 0}) && size == 1:
			return volume.Subdivide
		case origin == (mgl32.Vec3{1, 0, 0}) && size == 1:
			return volume.Solid
		case size < 1:
			return volume.Empty
		}
		return volume.Empty
	})
	tr := NewTracer(oracle, DefaultSettings())

	ascended := false
	res := tr.Walk(NewRay(mgl32.Vec3{0.1, 0.2, 0.2}, mgl32.Vec3{1, 0, 0}), func(c Cursor) bool {
		if c.State == Ascending {
			ascended = true
		}
		return true
	})

	require.True(t, res.Hit())
	assert.True(t, ascended)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, res.Cell)
	assert.Equal(t, float32(1), res.Size)
	assert.Equal(t, 0, res.Depth)
	assert.InDelta(t, 0.9, float64(res.Dist), 1e-5)
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, res.Normal)
}

func TestWalkAbort(t *testing.T) {
	tr := NewTracer(volume.Constant(volume.Empty), DefaultSettings())
	calls := 0
	res := tr.Walk(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 1, 0}), func(Cursor) bool {
		calls++
		return calls < 3
	})
	assert.Equal(t, Aborted, res.Reason)
	assert.Equal(t, 3, calls)
}

func TestHybridRefinement(t *testing.T) {
	s := DefaultSettings()
	s.HybridRefinementSteps = 64
	tr := NewTracer(volume.Constant(volume.Solid), s)

	t.Run("hits frame bar", func(t *testing.T) {
		// Start on the cell face right below a vertical frame bar.
		res := tr.Trace(NewRay(mgl32.Vec3{0.85, 0.85, 0}, mgl32.Vec3{0, 0, 1}))
		require.True(t, res.Hit())
		assert.True(t, res.Refined)
		assert.Less(t, res.Dist, float32(0.1))
		assert.InDelta(t, 1.0, float64(res.Normal.Len()), 1e-3)
	})

	t.Run("missed march ends the ray", func(t *testing.T) {
		res := tr.Trace(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, mgl32.Vec3{0, 0, 1}))
		assert.False(t, res.Hit())
		assert.Equal(t, Exhausted, res.State)
		assert.Equal(t, RefinementMiss, res.Reason)
		assert.Equal(t, 1, res.Steps)
		assert.Equal(t, float32(0), res.Dist)
		assert.Equal(t, mgl32.Vec3{}, res.Cell)
	})

	t.Run("no hit after a missed march", func(t *testing.T) {
		// Every cell is solid, so a ray either resolves in the first cell or
		// not at all.
		dirs := []mgl32.Vec3{
			{0.209, 0.881, 0.329},
			{0, 0, 1},
			{-0.3, 0.2, 0.9},
			{0.7, -0.7, 0.1},
			{0.1, 0.1, -1},
		}
		for _, d := range dirs {
			res := tr.Trace(NewRay(mgl32.Vec3{0.5, 0.5, 0.5}, d))
			assert.Equal(t, 1, res.Steps, "dir %v", d)
			assert.Equal(t, mgl32.Vec3{}, res.Cell, "dir %v", d)
			if !res.Hit() {
				assert.Equal(t, RefinementMiss, res.Reason, "dir %v", d)
			}
		}
	})
}

func TestStateAndReasonStrings(t *testing.T) {
	assert.Equal(t, "hit", Hit.String())
	assert.Equal(t, "ascending", Ascending.String())
	assert.Equal(t, "distance budget", DistanceBudget.String())
	assert.Equal(t, "reason(42)", Reason(42).String())
}

func TestGLSLMod(t *testing.T) {
	tests := []struct {
		x, y, expected float32
	}{
		{2.5, 2, 0.5},
		{-0.5, 2, 1.5},
		{-2, 2, 0},
		{0.25, 1, 0.25},
	}
	for _, tc := range tests {
		if got := glslMod(tc.x, tc.y); got != tc.expected {
			t.Errorf("glslMod(%v, %v): expected %v, got %v", tc.x, tc.y, tc.expected, got)
		}
	}
}
