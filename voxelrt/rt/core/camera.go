package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

var worldUp = mgl32.Vec3{0, 1, 0}

// Autopilot path radius around the spawn column.
const autopilotRadius = 0.4

// CameraState is a Y-up pinhole camera that looks down +Z at zero yaw and
// pitch. Angles are in degrees.
type CameraState struct {
	Position    mgl32.Vec3
	Yaw         float32
	Pitch       float32
	FOV         float32 // vertical field of view
	Speed       float32
	Sensitivity float32
	// Autopilot moves the origin along the spawn column as frames advance.
	Autopilot bool
	TimeStep  float32

	width  int
	height int
	dirs   []mgl32.Vec3
	dirty  bool
}

func NewCameraState() *CameraState {
	return &CameraState{
		Position:    mgl32.Vec3{0.5, 0.5, 0},
		FOV:         90,
		Speed:       2,
		Sensitivity: 0.1,
		TimeStep:    1.0 / 60.0,
		dirty:       true,
	}
}

func NewCameraFromConfig(cfg CameraConfig) *CameraState {
	return &CameraState{
		Position:    cfg.Position,
		Yaw:         cfg.Yaw,
		Pitch:       cfg.Pitch,
		FOV:         cfg.FOV,
		Speed:       cfg.Speed,
		Sensitivity: cfg.Sensitivity,
		Autopilot:   cfg.Autopilot,
		TimeStep:    cfg.TimeStep,
		dirty:       true,
	}
}

func (c *CameraState) GetForward() mgl32.Vec3 {
	yaw := float64(mgl32.DegToRad(c.Yaw))
	pitch := float64(mgl32.DegToRad(c.Pitch))
	return mgl32.Vec3{
		float32(math.Sin(yaw) * math.Cos(pitch)),
		float32(math.Sin(pitch)),
		float32(math.Cos(yaw) * math.Cos(pitch)),
	}
}

func (c *CameraState) GetRight() mgl32.Vec3 {
	return worldUp.Cross(c.GetForward()).Normalize()
}

func (c *CameraState) GetUp() mgl32.Vec3 {
	return c.GetForward().Cross(c.GetRight())
}

// Resize sets the image size the direction table is built for.
func (c *CameraState) Resize(width, height int) {
	if width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	c.dirty = true
}

func (c *CameraState) Size() (int, int) {
	return c.width, c.height
}

// Origin returns the ray origin for the given frame.
func (c *CameraState) Origin(frame uint64) mgl32.Vec3 {
	if !c.Autopilot {
		return c.Position
	}
	t := float64(frame) * float64(c.TimeStep)
	return c.Position.Add(mgl32.Vec3{
		float32(math.Sin(t)) * autopilotRadius,
		float32(math.Cos(t)) * autopilotRadius,
		float32(t),
	})
}

// RayDirections returns one normalized direction per pixel in row-major
// order. The table is rebuilt only after a resize or a rotation, and must not
// be rebuilt while a frame is being rendered.
func (c *CameraState) RayDirections() []mgl32.Vec3 {
	if !c.dirty && len(c.dirs) == c.width*c.height {
		return c.dirs
	}
	n := c.width * c.height
	if cap(c.dirs) < n {
		c.dirs = make([]mgl32.Vec3, n)
	}
	c.dirs = c.dirs[:n]

	forward, right, up := c.GetForward(), c.GetRight(), c.GetUp()
	for y := 0; y < c.height; y++ {
		for x := 0; x < c.width; x++ {
			c.dirs[x+y*c.width] = c.direction(float32(x)+0.5, float32(y)+0.5, forward, right, up)
		}
	}
	c.dirty = false
	return c.dirs
}

// RayDirection returns the direction through screen position (px, py) given
// in pixels from the top-left corner.
func (c *CameraState) RayDirection(px, py float32) mgl32.Vec3 {
	return c.direction(px, py, c.GetForward(), c.GetRight(), c.GetUp())
}

func (c *CameraState) direction(px, py float32, forward, right, up mgl32.Vec3) mgl32.Vec3 {
	if c.width == 0 || c.height == 0 {
		return forward
	}
	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(c.FOV)) / 2))
	aspect := float32(c.width) / float32(c.height)
	u := (px/float32(c.width)*2 - 1) * aspect * tanHalf
	v := (1 - py/float32(c.height)*2) * tanHalf
	return forward.Add(right.Mul(u)).Add(up.Mul(v)).Normalize()
}

// Fly applies one frame of free-flight input. move holds right/up/forward
// axis inputs in [-1,1]; look is the mouse delta in pixels.
func (c *CameraState) Fly(move mgl32.Vec3, look mgl32.Vec2, dt float32) {
	if look[0] != 0 || look[1] != 0 {
		c.Yaw += look[0] * c.Sensitivity
		c.Pitch -= look[1] * c.Sensitivity
		if c.Pitch > 89.0 {
			c.Pitch = 89.0
		}
		if c.Pitch < -89.0 {
			c.Pitch = -89.0
		}
		c.dirty = true
	}

	forward, right := c.GetForward(), c.GetRight()
	moveDir := right.Mul(move[0]).Add(worldUp.Mul(move[1])).Add(forward.Mul(move[2]))
	if moveDir.Len() > 0 && dt > 0 {
		c.Position = c.Position.Add(moveDir.Normalize().Mul(c.Speed * dt))
	}
}
