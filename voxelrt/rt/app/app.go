package app

import (
	"fmt"
	"image"
	"time"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/editor"
	"github.com/gekko3d/voxsim/voxelrt/rt/gpu"
	"github.com/gekko3d/voxsim/voxelrt/rt/render"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Presenter    *gpu.Presenter
	Renderer     *render.Renderer
	Camera       *core.CameraState
	Editor       *editor.Editor
	TextRenderer *core.TextRenderer
	Profiler     *core.Profiler
	Snapshotter  *render.Snapshotter

	MouseX, MouseY float64
	MouseCaptured  bool
	DebugMode      bool

	mouseDX, mouseDY float64
	lastMouseX       float64
	lastMouseY       float64
	haveMouse        bool
	snapshotPending  bool

	LastTime       float64
	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64

	cfg    core.Config
	logger core.Logger
}

func NewApp(window *glfw.Window, cfg core.Config, logger core.Logger) *App {
	logger = core.OrNop(logger)
	renderer := render.NewRenderer(cfg, cfg.Oracle(), logger)
	return &App{
		Window:      window,
		Renderer:    renderer,
		Camera:      core.NewCameraFromConfig(cfg.Camera),
		Editor:      editor.NewEditor(renderer.Tracer(), logger),
		Profiler:    core.NewProfiler(),
		Snapshotter: render.NewSnapshotter(cfg.Snapshot, logger),
		DebugMode:   cfg.Debug,
		cfg:         cfg,
		logger:      logger,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)

	surface := a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))
	a.Surface = surface

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("failed to request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("failed to request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	presentMode := wgpu.PresentModeFifo
	if !a.cfg.Window.VSync {
		presentMode = wgpu.PresentModeImmediate
	}
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: presentMode,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, a.Device, a.Config)

	a.Presenter, err = gpu.NewPresenter(a.Device, a.Queue, format, a.logger)
	if err != nil {
		return err
	}

	if a.cfg.HUD.Enabled {
		a.TextRenderer, err = core.NewTextRenderer(a.cfg.HUD.FontPath, a.cfg.HUD.FontSize)
		if err != nil {
			a.logger.Warnf("failed to initialize text renderer: %v", err)
		}
	}

	a.resizeFrame(width, height)
	a.LastTime = glfw.GetTime()
	a.logger.Infof("initialized %dx%d, mode %s, detail %d", width, height, a.Renderer.Mode(), a.cfg.Render.MaxDetail)
	return nil
}

// resizeFrame keeps the camera table, the CPU frame buffer and the GPU
// texture at the framebuffer size.
func (a *App) resizeFrame(w, h int) {
	a.Camera.Resize(w, h)
	a.Renderer.Resize(w, h)
	if err := a.Presenter.Resize(w, h); err != nil {
		a.logger.Errorf("presenter resize: %v", err)
	}
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		a.resizeFrame(w, h)
	}
}

// OnCursorMoved accumulates look deltas while the mouse is captured.
func (a *App) OnCursorMoved(x, y float64) {
	a.MouseX, a.MouseY = x, y
	if a.MouseCaptured && a.haveMouse {
		a.mouseDX += x - a.lastMouseX
		a.mouseDY += y - a.lastMouseY
	}
	a.lastMouseX, a.lastMouseY = x, y
	a.haveMouse = true
}

func (a *App) OnKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press {
		return
	}
	switch key {
	case glfw.KeyTab:
		a.MouseCaptured = !a.MouseCaptured
		a.haveMouse = false
		if a.MouseCaptured {
			a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
			// Manual flight replaces the scripted path from the current spot.
			if a.Camera.Autopilot {
				a.Camera.Position = a.Camera.Origin(a.Renderer.FrameIndex())
				a.Camera.Autopilot = false
			}
		} else {
			a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
		}
	case glfw.KeyEscape:
		a.Window.SetShouldClose(true)
	case glfw.KeyP:
		a.snapshotPending = true
	case glfw.KeyF3:
		a.DebugMode = !a.DebugMode
	}
}

func (a *App) Update() {
	now := glfw.GetTime()
	dt := float32(now - a.LastTime)
	a.LastTime = now

	var move mgl32.Vec3
	if a.MouseCaptured {
		if a.Window.GetKey(glfw.KeyD) == glfw.Press {
			move[0]++
		}
		if a.Window.GetKey(glfw.KeyA) == glfw.Press {
			move[0]--
		}
		if a.Window.GetKey(glfw.KeySpace) == glfw.Press {
			move[1]++
		}
		if a.Window.GetKey(glfw.KeyLeftControl) == glfw.Press {
			move[1]--
		}
		if a.Window.GetKey(glfw.KeyW) == glfw.Press {
			move[2]++
		}
		if a.Window.GetKey(glfw.KeyS) == glfw.Press {
			move[2]--
		}
	}
	look := mgl32.Vec2{float32(a.mouseDX), float32(a.mouseDY)}
	a.mouseDX, a.mouseDY = 0, 0
	a.Camera.Fly(move, look, dt)
}

func (a *App) Render() {
	a.Profiler.Reset()
	frameStart := time.Now()

	frame := a.Renderer.FrameIndex()
	a.Profiler.BeginScope("trace")
	pixels := a.Renderer.RenderFrame(a.Camera, frame)
	a.Profiler.EndScope("trace")
	stats := a.Renderer.LastStats()
	img := render.NewPackedImage(pixels, a.Renderer.Width(), a.Renderer.Height())

	if a.snapshotPending {
		a.snapshotPending = false
		if _, err := a.Snapshotter.Save(img, frame); err != nil {
			a.logger.Errorf("snapshot failed: %v", err)
		}
	}

	a.Profiler.BeginScope("hud")
	if a.TextRenderer != nil {
		render.DrawHUD(a.TextRenderer, img, render.HUDItems(a.TextRenderer, a.FPS, frame, a.Camera.Origin(frame), stats))
		if a.DebugMode {
			report := a.Profiler.GetStatsString()
			_, h := a.TextRenderer.MeasureText(report)
			a.TextRenderer.Draw(img, []core.TextItem{{
				Text:     report,
				Position: image.Pt(8, a.Renderer.Height()-h-8),
				Shadow:   true,
			}})
		}
	}
	a.Profiler.EndScope("hud")

	a.Profiler.BeginScope("upload")
	if err := a.Presenter.Upload(pixels, a.Renderer.Width(), a.Renderer.Height()); err != nil {
		a.logger.Errorf("upload failed: %v", err)
		return
	}
	a.Profiler.EndScope("upload")

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{0, 0, 0, 1},
		}},
	})
	a.Presenter.Encode(rPass)
	if err := rPass.End(); err != nil {
		a.logger.Errorf("render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.logger.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.Profiler.AddFrame(time.Since(frameStart))
	a.Profiler.SetCount("hits", int(stats.Hits))
	a.Profiler.SetCount("iterations", int(stats.Iterations))
	a.Profiler.SetCount("max depth", int(stats.MaxDepth))

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			a.logger.Debugf("%.1f fps, %.1f avg steps, hit ratio %.2f", a.FPS, stats.AvgSteps(), stats.HitRatio())
		}
	}
	a.LastRenderTime = now
}

// HandleClick inspects the cell under the cursor on a left click.
func (a *App) HandleClick(button glfw.MouseButton, action glfw.Action) {
	if a.MouseCaptured || action != glfw.Press || button != glfw.MouseButtonLeft {
		return
	}

	x, y := a.Window.GetCursorPos()
	w, h := a.Window.GetSize()

	ray := a.Editor.GetPickRay(x, y, w, h, a.Camera, a.Renderer.FrameIndex())
	if hit := a.Editor.Select(ray); hit == nil {
		a.logger.Infof("nothing under cursor at %.0f,%.0f", x, y)
	}
	if a.DebugMode {
		a.Editor.LogPath(ray)
	}
}

func (a *App) Release() {
	if a.Presenter != nil {
		a.Presenter.Release()
	}
	if a.Queue != nil {
		a.Queue.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
