package render

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() *PackedImage {
	pix := make([]uint32, 4*3)
	for i := range pix {
		pix[i] = 0xff000000
	}
	pix[0] = PackRGBA(color.RGBA{R: 255, A: 255})
	pix[5] = PackRGBA(color.RGBA{G: 128, B: 64, A: 255})
	return NewPackedImage(pix, 4, 3)
}

func TestPackedImage(t *testing.T) {
	img := testFrame()
	assert.Equal(t, image.Rect(0, 0, 4, 3), img.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, img.At(0, 0))
	assert.Equal(t, color.RGBA{}, img.At(9, 9))

	img.Set(3, 2, color.White)
	assert.Equal(t, uint32(0xffffffff), img.Pix[11])
	img.Set(-1, 0, color.White)

	rgba := img.ToRGBA()
	assert.Equal(t, color.RGBA{G: 128, B: 64, A: 255}, rgba.RGBAAt(1, 1))
	assert.Len(t, img.Bytes(), 4*3*4)
}

func TestSnapshotterWritesPNGAndEXR(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(core.SnapshotConfig{Dir: filepath.Join(dir, "shots"), Scale: 2, EXR: true}, nil)

	paths, err := s.Save(testFrame(), 7)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.True(t, strings.HasSuffix(paths[0], "-000007.png"))
	assert.True(t, strings.HasPrefix(filepath.Base(paths[0]), s.Session.String()[:8]))

	f, err := os.Open(paths[0])
	require.NoError(t, err)
	defer f.Close()
	decoded, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, decoded.Bounds().Dx())
	assert.Equal(t, 6, decoded.Bounds().Dy())

	hdr, err := exr.DecodeFile(paths[1])
	require.NoError(t, err)
	r, g, _, a := hdr.RGBA(0, 0)
	assert.InDelta(t, 1.0, r, 1e-3)
	assert.InDelta(t, 0.0, g, 1e-3)
	assert.InDelta(t, 1.0, a, 1e-3)
	_, g, _, _ = hdr.RGBA(1, 1)
	assert.InDelta(t, 0.252, g, 2e-3)
}

func TestRescale(t *testing.T) {
	img := testFrame().ToRGBA()
	assert.Same(t, img, Rescale(img, 1).(*image.RGBA))
	assert.Same(t, img, Rescale(img, 0).(*image.RGBA))
	assert.Equal(t, 2, Rescale(img, 0.5).Bounds().Dx())
}

func TestWriteGIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.gif")
	frames := []image.Image{testFrame().ToRGBA(), testFrame().ToRGBA()}
	require.NoError(t, WriteGIF(path, frames, 5))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}
