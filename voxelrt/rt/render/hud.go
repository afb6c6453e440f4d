package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gekko3d/voxsim/voxelrt/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

var hudColor = color.RGBA{R: 255, G: 255, A: 255}

// HUDItems lays out the overlay for one frame: throughput on the first block,
// traversal statistics below it.
func HUDItems(tr *core.TextRenderer, fps float64, frame uint64, pos mgl32.Vec3, st Stats) []core.TextItem {
	lh := tr.GetLineHeight()
	items := []core.TextItem{
		{
			Text:     fmt.Sprintf("FPS: %.1f  frame %d\npos %.2f %.2f %.2f", fps, frame, pos.X(), pos.Y(), pos.Z()),
			Position: image.Pt(8, 8),
			Color:    hudColor,
			Shadow:   true,
		},
		{
			Text: fmt.Sprintf("hits %.1f%%  avg steps %.1f  max depth %d  %.1f ms",
				st.HitRatio()*100, st.AvgSteps(), st.MaxDepth, float64(st.Duration.Microseconds())/1000.0),
			Position: image.Pt(8, 8+2*lh+4),
			Color:    color.White,
			Shadow:   true,
		},
	}
	return items
}

// DrawHUD rasterizes items into the frame in place.
func DrawHUD(tr *core.TextRenderer, frame *PackedImage, items []core.TextItem) {
	if tr == nil || frame == nil || len(items) == 0 {
		return
	}
	tr.Draw(frame, items)
}
