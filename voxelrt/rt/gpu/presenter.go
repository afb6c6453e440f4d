package gpu

import (
	"fmt"
	"unsafe"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/gekko3d/voxsim/voxelrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
)

// Presenter uploads CPU-rendered frames into a texture and blits it to the
// surface with a fullscreen triangle.
type Presenter struct {
	Device *wgpu.Device
	Queue  *wgpu.Queue

	Pipeline  *wgpu.RenderPipeline
	Sampler   *wgpu.Sampler
	Texture   *wgpu.Texture
	View      *wgpu.TextureView
	BindGroup *wgpu.BindGroup

	width  int
	height int
	logger core.Logger
}

func NewPresenter(device *wgpu.Device, queue *wgpu.Queue, format wgpu.TextureFormat, logger core.Logger) (*Presenter, error) {
	p := &Presenter{
		Device: device,
		Queue:  queue,
		logger: core.OrNop(logger),
	}

	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Fullscreen VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.FullscreenWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blit shader: %w", err)
	}
	defer module.Release()

	p.Pipeline, err = device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "Blit Pipeline",
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create blit pipeline: %w", err)
	}

	// Nearest keeps the voxel edges crisp when the window is larger than the frame.
	p.Sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeNearest,
		MagFilter:     wgpu.FilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}
	return p, nil
}

// Resize recreates the frame texture and its bind group. Unchanged sizes are
// a no-op.
func (p *Presenter) Resize(w, h int) error {
	if w <= 0 || h <= 0 || (w == p.width && h == p.height && p.Texture != nil) {
		return nil
	}
	p.releaseTexture()

	var err error
	p.Texture, err = p.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Frame Tex",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("failed to create frame texture: %w", err)
	}
	p.View, err = p.Texture.CreateView(nil)
	if err != nil {
		return fmt.Errorf("failed to create frame view: %w", err)
	}

	p.BindGroup, err = p.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: p.Pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: p.View},
			{Binding: 1, Sampler: p.Sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create blit bind group: %w", err)
	}

	p.width, p.height = w, h
	p.logger.Debugf("presenter texture %dx%d", w, h)
	return nil
}

// Upload copies a packed frame (A<<24|B<<16|G<<8|R per pixel, which is RGBA8
// byte order in memory) into the frame texture.
func (p *Presenter) Upload(pixels []uint32, w, h int) error {
	if len(pixels) == 0 {
		return nil
	}
	if len(pixels) != w*h {
		return fmt.Errorf("frame has %d pixels, expected %dx%d", len(pixels), w, h)
	}
	if err := p.Resize(w, h); err != nil {
		return err
	}
	data := unsafe.Slice((*byte)(unsafe.Pointer(&pixels[0])), len(pixels)*4)
	p.Queue.WriteTexture(p.Texture.AsImageCopy(), data, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(w * 4),
		RowsPerImage: uint32(h),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1})
	return nil
}

// Encode records the blit into an open render pass.
func (p *Presenter) Encode(pass *wgpu.RenderPassEncoder) {
	if p.BindGroup == nil {
		return
	}
	pass.SetPipeline(p.Pipeline)
	pass.SetBindGroup(0, p.BindGroup, nil)
	pass.Draw(3, 1, 0, 0)
}

func (p *Presenter) releaseTexture() {
	if p.BindGroup != nil {
		p.BindGroup.Release()
		p.BindGroup = nil
	}
	if p.View != nil {
		p.View.Release()
		p.View = nil
	}
	if p.Texture != nil {
		p.Texture.Release()
		p.Texture = nil
	}
}

func (p *Presenter) Release() {
	p.releaseTexture()
	if p.Sampler != nil {
		p.Sampler.Release()
	}
	if p.Pipeline != nil {
		p.Pipeline.Release()
	}
}
