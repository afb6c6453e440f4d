package render

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/trace"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	boxHit  uint32 = 0xffff00ff
	boxMiss uint32 = 0xff000000
)

// Camera supplies the ray origin for a frame and one direction per pixel in
// row-major order. Neither may change while a frame is being rendered.
type Camera interface {
	Origin(frame uint64) mgl32.Vec3
	RayDirections() []mgl32.Vec3
}

// Stats summarizes the last rendered frame.
type Stats struct {
	Pixels     int
	Hits       int64
	Misses     int64
	Iterations int64
	MaxDepth   int64
	Duration   time.Duration
}

func (s Stats) HitRatio() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Pixels)
}

func (s Stats) AvgSteps() float64 {
	if s.Pixels == 0 {
		return 0
	}
	return float64(s.Iterations) / float64(s.Pixels)
}

// Renderer casts one ray per pixel into the octree and owns the packed frame
// buffer. RenderFrame and Resize must not be called concurrently.
type Renderer struct {
	width  int
	height int
	pixels []uint32

	tracer  *trace.Tracer
	shading Shading
	scene   *core.Scene
	mode    string
	workers int
	logger  core.Logger

	frames      atomic.Uint64
	stats       Stats
	warnedSize  bool
	missPixel   uint32
	maxDistance float32
}

func NewRenderer(cfg core.Config, oracle volume.Oracle, logger core.Logger) *Renderer {
	workers := cfg.Render.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	shading := ShadingFromConfig(cfg)
	settings := cfg.TraceSettings()
	return &Renderer{
		tracer:      trace.NewTracer(oracle, settings),
		shading:     shading,
		scene:       cfg.BuildScene(),
		mode:        cfg.Render.Mode,
		workers:     workers,
		logger:      core.OrNop(logger),
		missPixel:   Pack(shading.Background()),
		maxDistance: settings.MaxDistance,
	}
}

func (r *Renderer) Tracer() *trace.Tracer { return r.tracer }
func (r *Renderer) Shading() Shading      { return r.shading }
func (r *Renderer) Mode() string          { return r.mode }
func (r *Renderer) Width() int            { return r.width }
func (r *Renderer) Height() int           { return r.height }

// Pixels returns the buffer of the last frame.
func (r *Renderer) Pixels() []uint32 { return r.pixels }

// FrameIndex is the number of completed frames.
func (r *Renderer) FrameIndex() uint64 { return r.frames.Load() }

func (r *Renderer) LastStats() Stats { return r.stats }

// Resize reallocates the frame buffer. It is a no-op when the size is
// unchanged, and safe to call before the first frame.
func (r *Renderer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	if width == r.width && height == r.height && r.pixels != nil {
		return
	}
	r.width, r.height = width, height
	r.pixels = make([]uint32, width*height)
	r.warnedSize = false
	r.logger.Debugf("frame buffer resized to %dx%d", width, height)
}

// RenderFrame fills every pixel of the frame buffer and returns it. The buffer
// is owned by the renderer and is overwritten by the next call.
func (r *Renderer) RenderFrame(cam Camera, frame uint64) []uint32 {
	if r.pixels == nil {
		r.Resize(r.width, r.height)
	}
	start := time.Now()
	dirs := cam.RayDirections()
	origin := cam.Origin(frame)

	if len(dirs) != len(r.pixels) {
		if !r.warnedSize {
			r.logger.Warnf("camera has %d ray directions for a %dx%d frame, drawing background", len(dirs), r.width, r.height)
			r.warnedSize = true
		}
		for i := range r.pixels {
			r.pixels[i] = r.missPixel
		}
		r.stats = Stats{Pixels: len(r.pixels), Misses: int64(len(r.pixels)), Duration: time.Since(start)}
		r.frames.Add(1)
		return r.pixels
	}

	var (
		nextRow    atomic.Int64
		hits       atomic.Int64
		misses     atomic.Int64
		iterations atomic.Int64
		maxDepth   atomic.Int64
		wg         sync.WaitGroup
	)

	workers := min(r.workers, r.height)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				y := int(nextRow.Add(1) - 1)
				if y >= r.height {
					return
				}
				var row rowStats
				base := y * r.width
				for x := 0; x < r.width; x++ {
					r.pixels[base+x] = r.shadePixel(origin, dirs[base+x], &row)
				}
				hits.Add(row.hits)
				misses.Add(row.misses)
				iterations.Add(row.iterations)
				for {
					cur := maxDepth.Load()
					if row.maxDepth <= cur || maxDepth.CompareAndSwap(cur, row.maxDepth) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	r.stats = Stats{
		Pixels:     len(r.pixels),
		Hits:       hits.Load(),
		Misses:     misses.Load(),
		Iterations: iterations.Load(),
		MaxDepth:   maxDepth.Load(),
		Duration:   time.Since(start),
	}
	r.frames.Add(1)
	return r.pixels
}

type rowStats struct {
	hits       int64
	misses     int64
	iterations int64
	maxDepth   int64
}

func (r *Renderer) shadePixel(origin, dir mgl32.Vec3, st *rowStats) uint32 {
	if r.mode == core.ModeBoxes {
		if idx, _ := r.scene.Intersect(origin, signedInverse(dir)); idx >= 0 {
			st.hits++
			return boxHit
		}
		st.misses++
		return boxMiss
	}

	res := r.tracer.Trace(trace.NewRay(origin, dir))
	st.iterations += int64(res.Steps)
	if int64(res.Depth) > st.maxDepth {
		st.maxDepth = int64(res.Depth)
	}
	if !res.Hit() {
		st.misses++
		return r.missPixel
	}
	st.hits++
	return Pack(r.shading.Shade(res, r.maxDistance))
}

// signedInverse is 1/dir with each magnitude clamped to trace.DirEpsilon. A
// zero component counts as positive.
func signedInverse(dir mgl32.Vec3) mgl32.Vec3 {
	var inv mgl32.Vec3
	for i := 0; i < 3; i++ {
		v := 1 / math32.Max(math32.Abs(dir[i]), trace.DirEpsilon)
		if dir[i] < 0 {
			v = -v
		}
		inv[i] = v
	}
	return inv
}
