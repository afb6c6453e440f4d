package render

import (
	"testing"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCamera looks down +Z with a field of view narrow enough that Z is the
// dominant axis of every ray.
func testCamera(w, h int, pos mgl32.Vec3) *core.CameraState {
	cam := core.NewCameraState()
	cam.Position = pos
	cam.FOV = 60
	cam.Resize(w, h)
	return cam
}

type fixedCamera struct {
	origin mgl32.Vec3
	dirs   []mgl32.Vec3
}

func (c fixedCamera) Origin(uint64) mgl32.Vec3     { return c.origin }
func (c fixedCamera) RayDirections() []mgl32.Vec3 { return c.dirs }

func testConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Render.Workers = 3
	return cfg
}

func TestRendererResizeIsIdempotent(t *testing.T) {
	r := NewRenderer(testConfig(), volume.Constant(volume.Empty), nil)
	r.Resize(4, 3)
	require.Len(t, r.Pixels(), 12)
	first := &r.Pixels()[0]

	r.Resize(4, 3)
	assert.Same(t, first, &r.Pixels()[0])

	r.Resize(5, 3)
	assert.Len(t, r.Pixels(), 15)
	assert.Equal(t, 5, r.Width())
	assert.Equal(t, 3, r.Height())

	r.Resize(-1, 2)
	assert.Empty(t, r.Pixels())
}

func TestRenderAlwaysSolidIsUniform(t *testing.T) {
	tests := []struct {
		name string
		pos  mgl32.Vec3
	}{
		{"world origin", mgl32.Vec3{}},
		{"cell centre", mgl32.Vec3{0.5, 0.5, 0.5}},
	}
	// Normal -Z lights the palette colour of cell 0 with (0.75, 0.75, 0.5).
	base := core.DefaultPalette().Color(mgl32.Vec3{})
	want := Pack(mgl32.Vec3{base.X() * 0.75, base.Y() * 0.75, base.Z() * 0.5})
	assert.NotEqual(t, uint32(0xff000000), want)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Render.EdgeDarkening = false
			r := NewRenderer(cfg, volume.Constant(volume.Solid), nil)
			r.Resize(8, 6)

			pixels := r.RenderFrame(testCamera(8, 6, tc.pos), 0)
			require.Len(t, pixels, 48)
			for i, p := range pixels {
				if p != want {
					t.Fatalf("pixel %d: expected %#08x, got %#08x", i, want, p)
				}
			}

			stats := r.LastStats()
			assert.Equal(t, int64(48), stats.Hits)
			assert.Zero(t, stats.Misses)
			assert.Equal(t, int64(48), stats.Iterations)
			assert.Zero(t, stats.MaxDepth)
			assert.Equal(t, 1.0, stats.HitRatio())
			assert.Equal(t, uint64(1), r.FrameIndex())
		})
	}
}

func TestRenderAlwaysEmptyIsBackground(t *testing.T) {
	for _, white := range []bool{false, true} {
		cfg := testConfig()
		cfg.Render.WhiteBorders = white
		r := NewRenderer(cfg, volume.Constant(volume.Empty), nil)
		r.Resize(6, 4)

		want := uint32(0xff000000)
		if white {
			want = 0xffffffff
		}
		for i, p := range r.RenderFrame(testCamera(6, 4, mgl32.Vec3{0.5, 0.5, 0.5}), 0) {
			if p != want {
				t.Fatalf("white=%v pixel %d: expected %#08x, got %#08x", white, i, want, p)
			}
		}
		assert.Equal(t, int64(24), r.LastStats().Misses)
	}
}

func TestRenderZeroDistanceMissesInOneStep(t *testing.T) {
	cfg := testConfig()
	cfg.Render.MaxDistance = 1e-6
	r := NewRenderer(cfg, volume.NewHashOracle(), nil)
	r.Resize(5, 5)

	for _, p := range r.RenderFrame(testCamera(5, 5, mgl32.Vec3{0.5, 0.5, 0.5}), 0) {
		require.Equal(t, uint32(0xff000000), p)
	}
	assert.Equal(t, int64(25), r.LastStats().Iterations)
}

func TestRenderIsIndependentOfWorkerCount(t *testing.T) {
	render := func(workers int) []uint32 {
		cfg := testConfig()
		cfg.Render.Workers = workers
		cfg.Render.HybridRefinementSteps = 16
		r := NewRenderer(cfg, volume.NewHashOracle(), nil)
		r.Resize(16, 12)
		cam := testCamera(16, 12, cfg.Camera.Position)
		cam.Autopilot = true
		return append([]uint32(nil), r.RenderFrame(cam, 30)...)
	}
	assert.Equal(t, render(1), render(7))
}

func TestRenderCameraMismatchDrawsBackground(t *testing.T) {
	r := NewRenderer(testConfig(), volume.Constant(volume.Solid), nil)
	r.Resize(4, 4)

	cam := fixedCamera{dirs: make([]mgl32.Vec3, 3)}
	for _, p := range r.RenderFrame(cam, 0) {
		require.Equal(t, uint32(0xff000000), p)
	}
	r.RenderFrame(cam, 1)
	assert.Equal(t, uint64(2), r.FrameIndex())
}

func TestRenderBoxesMode(t *testing.T) {
	cfg := testConfig()
	cfg.Render.Mode = core.ModeBoxes
	r := NewRenderer(cfg, volume.Constant(volume.Solid), nil)
	r.Resize(8, 6)

	pixels := r.RenderFrame(testCamera(8, 6, mgl32.Vec3{}), 0)
	assert.Equal(t, boxHit, pixels[4+3*8], "centre pixel")
	assert.Equal(t, boxMiss, pixels[0], "corner pixel")
	assert.Equal(t, uint32(0xffff00ff), boxHit)
}

func TestRenderBeforeResize(t *testing.T) {
	r := NewRenderer(testConfig(), volume.Constant(volume.Solid), nil)
	pixels := r.RenderFrame(fixedCamera{}, 0)
	assert.Empty(t, pixels)
	assert.Equal(t, uint64(1), r.FrameIndex())
}
