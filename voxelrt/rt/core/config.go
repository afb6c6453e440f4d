package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gekko3d/voxsim/voxelrt/rt/trace"
	"github.com/gekko3d/voxsim/voxelrt/rt/volume"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	ModeOctree = "octree"
	ModeBoxes  = "boxes"
)

type WindowConfig struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Title  string `json:"title"`
	VSync  bool   `json:"vsync"`
}

type RenderConfig struct {
	Mode        string  `json:"mode"`
	MaxDetail   int     `json:"maxDetail"`
	Steps       int     `json:"steps"`
	MaxDistance float32 `json:"maxDistance"`

	EmptyCells      float32 `json:"emptyCells"`
	Subdivisions    float32 `json:"subdivisions"`
	OpenSpawnColumn bool    `json:"openSpawnColumn"`

	EdgeDarkening         bool `json:"edgeDarkening"`
	WhiteBorders          bool `json:"whiteBorders"`
	HybridRefinementSteps int  `json:"hybridRefinementSteps,omitempty"`
	GridOverlay           bool `json:"gridOverlay,omitempty"`
	Fog                   bool `json:"fog"`

	// Workers is the number of render goroutines; 0 means GOMAXPROCS.
	Workers int `json:"workers,omitempty"`
}

type CameraConfig struct {
	Position    mgl32.Vec3 `json:"position"`
	Yaw         float32    `json:"yawDeg"`
	Pitch       float32    `json:"pitchDeg"`
	FOV         float32    `json:"fovDeg"`
	Speed       float32    `json:"speed"`
	Sensitivity float32    `json:"sensitivity"` // degrees per pixel of mouse motion
	Autopilot   bool       `json:"autopilot"`
	TimeStep    float32    `json:"timeStep"` // autopilot time advanced per frame
}

type PaletteConfig struct {
	Weights     mgl32.Vec3 `json:"weights"`
	Frequencies mgl32.Vec3 `json:"frequencies"`
}

type CubeConfig struct {
	Min mgl32.Vec3 `json:"min"`
	Max mgl32.Vec3 `json:"max"`
}

type SceneConfig struct {
	Cubes []CubeConfig `json:"cubes,omitempty"`
}

type SnapshotConfig struct {
	Dir   string  `json:"dir"`
	Scale float64 `json:"scale,omitempty"` // 1 keeps the frame size
	EXR   bool    `json:"exr,omitempty"`
}

type HUDConfig struct {
	Enabled  bool    `json:"enabled"`
	FontPath string  `json:"fontPath,omitempty"` // empty uses the built-in bitmap face
	FontSize float64 `json:"fontSize,omitempty"`
}

type Config struct {
	Window   WindowConfig   `json:"window"`
	Render   RenderConfig   `json:"render"`
	Camera   CameraConfig   `json:"camera"`
	Palette  PaletteConfig  `json:"palette"`
	Scene    SceneConfig    `json:"scene"`
	Snapshot SnapshotConfig `json:"snapshot"`
	HUD      HUDConfig      `json:"hud"`
	Debug    bool           `json:"debug,omitempty"`
}

func DefaultConfig() Config {
	settings := trace.DefaultSettings()
	return Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "voxsim",
			VSync:  true,
		},
		Render: RenderConfig{
			Mode:            ModeOctree,
			MaxDetail:       settings.MaxDetail,
			Steps:           settings.Steps,
			MaxDistance:     settings.MaxDistance,
			EmptyCells:      volume.DefaultEmptyCells,
			Subdivisions:    volume.DefaultSubdivisions,
			OpenSpawnColumn: true,
			EdgeDarkening:   true,
			Fog:             true,
		},
		Camera: CameraConfig{
			Position:    mgl32.Vec3{0.5, 0.5, 0},
			FOV:         90,
			Speed:       2,
			Sensitivity: 0.1,
			Autopilot:   true,
			TimeStep:    1.0 / 60.0,
		},
		Palette: PaletteConfig{
			Weights:     DefaultPalette().Weights,
			Frequencies: DefaultPalette().Frequencies,
		},
		Scene: SceneConfig{
			Cubes: []CubeConfig{{Min: mgl32.Vec3{-0.5, -0.5, 2}, Max: mgl32.Vec3{0.5, 0.5, 3}}},
		},
		Snapshot: SnapshotConfig{
			Dir:   "snapshots",
			Scale: 1,
		},
		HUD: HUDConfig{
			Enabled:  true,
			FontSize: 14,
		},
	}
}

// LoadConfig overlays the JSON file at path on DefaultConfig and validates
// the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height))
	}
	switch c.Render.Mode {
	case ModeOctree, ModeBoxes:
	default:
		errs = append(errs, fmt.Errorf("unknown render mode %q", c.Render.Mode))
	}
	if c.Render.MaxDetail < 0 {
		errs = append(errs, fmt.Errorf("maxDetail %d must not be negative", c.Render.MaxDetail))
	}
	if c.Render.Steps <= 0 {
		errs = append(errs, fmt.Errorf("steps %d must be positive", c.Render.Steps))
	}
	if c.Render.MaxDistance < 0 {
		errs = append(errs, fmt.Errorf("maxDistance %v must not be negative", c.Render.MaxDistance))
	}
	if c.Render.EmptyCells > c.Render.Subdivisions {
		errs = append(errs, fmt.Errorf("emptyCells %v above subdivisions %v", c.Render.EmptyCells, c.Render.Subdivisions))
	}
	if c.Render.HybridRefinementSteps < 0 {
		errs = append(errs, errors.New("hybridRefinementSteps must not be negative"))
	}
	if c.Render.Workers < 0 {
		errs = append(errs, errors.New("workers must not be negative"))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("fovDeg %v must be in (0, 180)", c.Camera.FOV))
	}
	for i, cube := range c.Scene.Cubes {
		if cube.Min.X() > cube.Max.X() || cube.Min.Y() > cube.Max.Y() || cube.Min.Z() > cube.Max.Z() {
			errs = append(errs, fmt.Errorf("cube %d has min %v above max %v", i, cube.Min, cube.Max))
		}
	}
	if c.Snapshot.Scale < 0 {
		errs = append(errs, fmt.Errorf("snapshot scale %v must not be negative", c.Snapshot.Scale))
	}
	return errors.Join(errs...)
}

func (c Config) TraceSettings() trace.Settings {
	return trace.Settings{
		MaxDetail:             c.Render.MaxDetail,
		Steps:                 c.Render.Steps,
		MaxDistance:           c.Render.MaxDistance,
		HybridRefinementSteps: c.Render.HybridRefinementSteps,
	}
}

func (c Config) Oracle() volume.HashOracle {
	return volume.HashOracle{
		EmptyCells:      c.Render.EmptyCells,
		Subdivisions:    c.Render.Subdivisions,
		OpenSpawnColumn: c.Render.OpenSpawnColumn,
	}
}

func (c Config) BuildPalette() Palette {
	return Palette{Weights: c.Palette.Weights, Frequencies: c.Palette.Frequencies}
}

func (c Config) BuildScene() *Scene {
	s := NewScene()
	for _, cube := range c.Scene.Cubes {
		s.AddCube(Cube{Min: cube.Min, Max: cube.Max})
	}
	return s
}
