package main

import (
	"flag"
	"runtime"

	"github.com/gekko3d/voxsim/voxelrt/rt/app"
	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/headless"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "JSON config file (defaults are used when empty)")
	debug := flag.Bool("debug", false, "Enable debug logging and the profiler overlay")
	width := flag.Int("width", 0, "Override window width")
	height := flag.Int("height", 0, "Override window height")
	batch := flag.Bool("headless", false, "Render without a window and write frames to -out")
	frames := flag.Int("frames", 60, "Frames to render in headless mode")
	out := flag.String("out", "out", "Output directory for headless mode")
	mode := flag.String("mode", "", "Render mode: octree or boxes")
	detail := flag.Int("detail", -1, "Override maximum octree depth")
	flag.Parse()

	cfg := core.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = core.LoadConfig(*configPath)
		if err != nil {
			panic(err)
		}
	}
	if *debug {
		cfg.Debug = true
	}
	if *width > 0 {
		cfg.Window.Width = *width
	}
	if *height > 0 {
		cfg.Window.Height = *height
	}
	if *mode != "" {
		cfg.Render.Mode = *mode
	}
	if *detail >= 0 {
		cfg.Render.MaxDetail = *detail
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	logger := core.NewDefaultLogger("voxsim", cfg.Debug)

	if *batch {
		res, err := headless.Run(cfg, headless.Options{Frames: *frames, OutDir: *out, GIF: true}, logger)
		if err != nil {
			panic(err)
		}
		logger.Infof("wrote %d frames and %s (mean %.2f ms, p95 %.2f ms)", len(res.Frames), res.GIF, res.Timing.MeanMs, res.Timing.P95Ms)
		return
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, logger)
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.OnCursorMoved(xpos, ypos)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		application.OnKey(key, action)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleClick(button, action)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
