package volume

import (
	"github.com/go-gl/mathgl/mgl32"
)

// ExitOffsets returns, per axis, the ray distance from local (a point inside a
// cube of edge size whose minimum corner is the local origin) to the cube face
// the ray is heading towards on that axis.
func ExitOffsets(local, dir, invDir mgl32.Vec3, size float32) mgl32.Vec3 {
	half := size * 0.5
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		out[i] = -(Sign(dir[i])*(local[i]-half) - half) * invDir[i]
	}
	return out
}

// FaceMask picks the axis with the smallest exit offset. It returns a one-hot
// mask for that axis and the offset itself. Ties go to the lower axis index so
// exactly one component is ever set.
func FaceMask(offsets mgl32.Vec3) (mgl32.Vec3, float32) {
	axis := 0
	if offsets[1] < offsets[axis] {
		axis = 1
	}
	if offsets[2] < offsets[axis] {
		axis = 2
	}
	var mask mgl32.Vec3
	mask[axis] = 1
	return mask, offsets[axis]
}

// FaceNormal is the outward normal of the face selected by mask, as seen by a
// ray travelling along dir.
func FaceNormal(mask, dir mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		-mask.X() * Sign(dir.X()),
		-mask.Y() * Sign(dir.Y()),
		-mask.Z() * Sign(dir.Z()),
	}
}

// Sign returns -1, 0 or 1.
func Sign(x float32) float32 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
