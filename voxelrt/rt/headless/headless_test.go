package headless

import (
	"image/gif"
	"image/png"
	"os"
	"testing"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.Window.Width = 16
	cfg.Window.Height = 12
	cfg.Render.Workers = 2
	cfg.HUD.Enabled = false
	return cfg
}

func TestRunWritesFramesAndGIF(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(smallConfig(), Options{Frames: 3, OutDir: dir, GIF: true}, nil)
	require.NoError(t, err)

	require.Len(t, res.Frames, 3)
	require.Len(t, res.Stats, 3)
	assert.Equal(t, 3, res.Timing.Frames)
	for _, st := range res.Stats {
		assert.Equal(t, 16*12, st.Pixels)
		assert.Equal(t, int64(st.Pixels), st.Hits+st.Misses)
	}

	f, err := os.Open(res.Frames[2])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())
	assert.Equal(t, 12, img.Bounds().Dy())

	g, err := os.Open(res.GIF)
	require.NoError(t, err)
	defer g.Close()
	anim, err := gif.DecodeAll(g)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 3)
}

func TestRunEmptyWorldIsBackground(t *testing.T) {
	dir := t.TempDir()
	res, err := Run(smallConfig(), Options{Frames: 1, OutDir: dir, Oracle: volume.Constant(volume.Empty)}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.GIF)
	assert.Equal(t, int64(0), res.Stats[0].Hits)

	f, err := os.Open(res.Frames[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	r, g, b, a := img.At(5, 5).RGBA()
	assert.Equal(t, []uint32{0, 0, 0, 0xffff}, []uint32{r, g, b, a})
}

func TestRunWithHUD(t *testing.T) {
	cfg := smallConfig()
	cfg.Window.Width = 120
	cfg.Window.Height = 40
	cfg.HUD.Enabled = true
	res, err := Run(cfg, Options{Frames: 1, OutDir: t.TempDir(), Oracle: volume.Constant(volume.Empty)}, nil)
	require.NoError(t, err)

	f, err := os.Open(res.Frames[0])
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	lit := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 120; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit++
			}
		}
	}
	assert.NotZero(t, lit)
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run(smallConfig(), Options{Frames: 0, OutDir: t.TempDir()}, nil)
	assert.Error(t, err)

	_, err = Run(smallConfig(), Options{Frames: 1}, nil)
	assert.Error(t, err)

	cfg := smallConfig()
	cfg.Render.Mode = "wireframe"
	_, err = Run(cfg, Options{Frames: 1, OutDir: t.TempDir()}, nil)
	assert.ErrorContains(t, err, "invalid config")
}
