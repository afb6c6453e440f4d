package editor

import (
	"fmt"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/trace"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"

	"github.com/go-gl/mathgl/mgl32"
)

// Editor inspects octree cells under the cursor.
type Editor struct {
	Tracer   *trace.Tracer
	Selected *HitResult
	logger   core.Logger
}

func NewEditor(tracer *trace.Tracer, logger core.Logger) *Editor {
	return &Editor{
		Tracer: tracer,
		logger: core.OrNop(logger),
	}
}

// GetPickRay builds the ray through window position (mouseX, mouseY) for the
// given frame. Window coordinates are scaled to the camera's image size.
func (e *Editor) GetPickRay(mouseX, mouseY float64, width, height int, camera *core.CameraState, frame uint64) trace.Ray {
	camW, camH := camera.Size()
	px, py := float32(mouseX), float32(mouseY)
	if width > 0 && height > 0 && camW > 0 && camH > 0 {
		px = px * float32(camW) / float32(width)
		py = py * float32(camH) / float32(height)
	}
	return trace.NewRay(camera.Origin(frame), camera.RayDirection(px, py))
}

type HitResult struct {
	Cell     mgl32.Vec3
	Size     float32
	Depth    int
	Class    volume.Class
	Position mgl32.Vec3
	Normal   mgl32.Vec3
	T        float32
	Steps    int
	Refined  bool
}

func (h *HitResult) String() string {
	return fmt.Sprintf("cell %v size %g depth %d (%s) at %v normal %v dist %.3f after %d steps",
		h.Cell, h.Size, h.Depth, h.Class, h.Position, h.Normal, h.T, h.Steps)
}

func (e *Editor) Pick(ray trace.Ray) *HitResult {
	res := e.Tracer.Trace(ray)
	if !res.Hit() {
		e.logger.Debugf("pick missed: %s after %d steps", res.Reason, res.Steps)
		return nil
	}
	return &HitResult{
		Cell:     res.Cell,
		Size:     res.Size,
		Depth:    res.Depth,
		Class:    e.Tracer.Oracle.Classify(res.Cell, res.Size),
		Position: res.Position(),
		Normal:   res.Normal,
		T:        res.Dist,
		Steps:    res.Steps,
		Refined:  res.Refined,
	}
}

// Select picks along ray and remembers the result, clearing the selection on
// a miss.
func (e *Editor) Select(ray trace.Ray) *HitResult {
	e.Selected = e.Pick(ray)
	if e.Selected != nil {
		e.logger.Infof("selected %s", e.Selected)
	}
	return e.Selected
}

// Path records every cell the ray visits up to the first hit. Useful to see
// why a pixel resolved the way it did.
func (e *Editor) Path(ray trace.Ray) []trace.Cursor {
	var path []trace.Cursor
	e.Tracer.Walk(ray, func(c trace.Cursor) bool {
		path = append(path, c)
		return true
	})
	return path
}

// LogPath writes the walk of ray to the debug log, one line per visited cell,
// and returns the number of lines written.
func (e *Editor) LogPath(ray trace.Ray) int {
	if !e.logger.DebugEnabled() {
		return 0
	}
	path := e.Path(ray)
	for _, c := range path {
		e.logger.Debugf("  #%d %s cell %v size %g depth %d dist %.3f", c.Iteration, c.State, c.Cell, c.Size, c.Depth, c.Dist)
	}
	return len(path)
}
