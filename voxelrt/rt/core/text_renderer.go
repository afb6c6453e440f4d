package core

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// TextItem is one block of overlay text. Position is the top-left corner in
// pixels.
type TextItem struct {
	Text     string
	Position image.Point
	Color    color.Color
	Shadow   bool
}

// TextRenderer rasterizes overlay text straight into a frame.
type TextRenderer struct {
	Face font.Face
}

// NewTextRenderer loads an OpenType face from fontPath. An empty path selects
// the built-in 7x13 bitmap face.
func NewTextRenderer(fontPath string, fontSize float64) (*TextRenderer, error) {
	if fontPath == "" {
		return &TextRenderer{Face: basicfont.Face7x13}, nil
	}

	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file: %w", err)
	}

	f, err := opentype.Parse(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    fontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}

	return &TextRenderer{Face: face}, nil
}

func (tr *TextRenderer) Draw(dst draw.Image, items []TextItem) {
	if tr == nil {
		return
	}
	metrics := tr.Face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()

	for _, item := range items {
		col := item.Color
		if col == nil {
			col = color.White
		}
		for i, line := range strings.Split(item.Text, "\n") {
			dot := fixed.P(item.Position.X, item.Position.Y+ascent+i*lineHeight)
			if item.Shadow {
				tr.drawLine(dst, line, dot.Add(fixed.P(1, 1)), color.Black)
			}
			tr.drawLine(dst, line, dot, col)
		}
	}
}

func (tr *TextRenderer) drawLine(dst draw.Image, text string, dot fixed.Point26_6, col color.Color) {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: tr.Face,
		Dot:  dot,
	}
	d.DrawString(text)
}

func (tr *TextRenderer) MeasureText(text string) (int, int) {
	if tr == nil {
		return 0, 0
	}

	maxW := 0
	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if w := font.MeasureString(tr.Face, line).Ceil(); w > maxW {
			maxW = w
		}
	}
	return maxW, tr.GetLineHeight() * len(lines)
}

func (tr *TextRenderer) GetLineHeight() int {
	if tr == nil {
		return 0
	}
	return tr.Face.Metrics().Height.Ceil()
}
