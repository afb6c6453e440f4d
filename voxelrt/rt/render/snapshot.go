package render

import (
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/google/uuid"
	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/nfnt/resize"
)

// Snapshotter writes frames to disk. File names carry a per-run session id so
// several runs can share one directory.
type Snapshotter struct {
	Dir     string
	Scale   float64
	EXR     bool
	Session uuid.UUID
	logger  core.Logger
}

func NewSnapshotter(cfg core.SnapshotConfig, logger core.Logger) *Snapshotter {
	return &Snapshotter{
		Dir:     cfg.Dir,
		Scale:   cfg.Scale,
		EXR:     cfg.EXR,
		Session: uuid.New(),
		logger:  core.OrNop(logger),
	}
}

func (s *Snapshotter) prefix() string {
	return s.Session.String()[:8]
}

// Save writes the frame as PNG, plus a linear EXR when enabled. It returns the
// written paths.
func (s *Snapshotter) Save(frame *PackedImage, index uint64) ([]string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}

	base := filepath.Join(s.Dir, fmt.Sprintf("%s-%06d", s.prefix(), index))
	pngPath := base + ".png"
	if err := WritePNG(pngPath, Rescale(frame.ToRGBA(), s.Scale)); err != nil {
		return nil, err
	}
	paths := []string{pngPath}

	if s.EXR {
		exrPath := base + ".exr"
		if err := WriteEXR(exrPath, frame); err != nil {
			return paths, err
		}
		paths = append(paths, exrPath)
	}

	s.logger.Infof("snapshot %d written to %v", index, paths)
	return paths, nil
}

// Rescale resizes img by factor. Factors of 0 or 1 return img unchanged.
func Rescale(img image.Image, factor float64) image.Image {
	if factor <= 0 || factor == 1 {
		return img
	}
	w := uint(float64(img.Bounds().Dx()) * factor)
	if w == 0 {
		w = 1
	}
	return resize.Resize(w, 0, img, resize.Bilinear)
}

func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

// WriteEXR undoes the display gamma and stores linear float colour.
func WriteEXR(path string, frame *PackedImage) error {
	img := exr.NewRGBAImage(frame.Bounds())
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			c := Unpack(frame.Pix[x+y*frame.Width])
			img.SetRGBA(x, y, linear(c.R), linear(c.G), linear(c.B), float32(c.A)/255)
		}
	}
	if err := exr.EncodeFile(path, img); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}

func linear(v uint8) float32 {
	f := float32(v) / 255
	return f * f
}

// WriteGIF stores frames as an endless animation. delay is in 100ths of a
// second.
func WriteGIF(path string, frames []image.Image, delay int) error {
	out := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(frames)),
		Delay: make([]int, 0, len(frames)),
	}
	for _, frame := range frames {
		pimg := image.NewPaletted(frame.Bounds(), palette.Plan9)
		draw.FloydSteinberg.Draw(pimg, pimg.Bounds(), frame, frame.Bounds().Min)
		out.Image = append(out.Image, pimg)
		out.Delay = append(out.Delay, delay)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := gif.EncodeAll(f, out); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
