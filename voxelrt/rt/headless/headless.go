// Package headless renders a fixed number of frames without a window and
// writes them to disk.
package headless

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/render"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
)

// gifDelay is the per-frame delay of the run strip in 100ths of a second.
const gifDelay = 4

type Options struct {
	Frames int
	OutDir string
	// GIF also writes run.gif with every frame.
	GIF bool
	// Oracle overrides the configured hash oracle when set.
	Oracle volume.Oracle
}

type Result struct {
	Frames []string
	GIF    string
	Stats  []render.Stats
	Timing core.FrameStats
}

func Run(cfg core.Config, opts Options, logger core.Logger) (Result, error) {
	logger = core.OrNop(logger)
	var res Result

	if opts.Frames <= 0 {
		return res, fmt.Errorf("frame count %d must be positive", opts.Frames)
	}
	if opts.OutDir == "" {
		return res, errors.New("output directory is required")
	}
	if err := cfg.Validate(); err != nil {
		return res, fmt.Errorf("invalid config: %w", err)
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return res, fmt.Errorf("failed to create output dir: %w", err)
	}

	oracle := opts.Oracle
	if oracle == nil {
		oracle = cfg.Oracle()
	}

	cam := core.NewCameraFromConfig(cfg.Camera)
	cam.Resize(cfg.Window.Width, cfg.Window.Height)
	renderer := render.NewRenderer(cfg, oracle, logger)
	renderer.Resize(cfg.Window.Width, cfg.Window.Height)
	profiler := core.NewProfiler()

	var hud *core.TextRenderer
	if cfg.HUD.Enabled {
		tr, err := core.NewTextRenderer(cfg.HUD.FontPath, cfg.HUD.FontSize)
		if err != nil {
			logger.Warnf("HUD disabled: %v", err)
		} else {
			hud = tr
		}
	}

	var strip []image.Image
	for i := 0; i < opts.Frames; i++ {
		frame := renderer.FrameIndex()

		profiler.BeginScope("render")
		pix := renderer.RenderFrame(cam, frame)
		profiler.EndScope("render")
		st := renderer.LastStats()
		profiler.AddFrame(st.Duration)
		res.Stats = append(res.Stats, st)

		img := render.NewPackedImage(pix, renderer.Width(), renderer.Height())
		if hud != nil {
			fps := 0.0
			if st.Duration > 0 {
				fps = 1 / st.Duration.Seconds()
			}
			render.DrawHUD(hud, img, render.HUDItems(hud, fps, frame, cam.Origin(frame), st))
		}

		profiler.BeginScope("write")
		rgba := img.ToRGBA()
		path := filepath.Join(opts.OutDir, fmt.Sprintf("frame-%04d.png", i))
		if err := render.WritePNG(path, render.Rescale(rgba, cfg.Snapshot.Scale)); err != nil {
			return res, err
		}
		profiler.EndScope("write")
		res.Frames = append(res.Frames, path)
		if opts.GIF {
			strip = append(strip, rgba)
		}

		logger.Debugf("frame %d: %d hits, %.1f avg steps, %v", frame, st.Hits, st.AvgSteps(), st.Duration)
	}

	if opts.GIF {
		res.GIF = filepath.Join(opts.OutDir, "run.gif")
		if err := render.WriteGIF(res.GIF, strip, gifDelay); err != nil {
			return res, err
		}
	}

	profiler.SetCount("frames", opts.Frames)
	profiler.SetCount("pixels", renderer.Width()*renderer.Height())
	res.Timing = profiler.FrameStats()
	logger.Infof("headless run finished\n%s", profiler.GetStatsString())
	return res, nil
}
