package render

import (
	"image"
	"image/color"
)

// PackedImage views a packed frame buffer as a draw.Image so overlays can be
// drawn into it in place.
type PackedImage struct {
	Pix    []uint32
	Width  int
	Height int
}

func NewPackedImage(pix []uint32, width, height int) *PackedImage {
	return &PackedImage{Pix: pix, Width: width, Height: height}
}

func (p *PackedImage) ColorModel() color.Model { return color.RGBAModel }

func (p *PackedImage) Bounds() image.Rectangle { return image.Rect(0, 0, p.Width, p.Height) }

func (p *PackedImage) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return color.RGBA{}
	}
	return Unpack(p.Pix[x+y*p.Width])
}

func (p *PackedImage) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Bounds())) {
		return
	}
	p.Pix[x+y*p.Width] = PackRGBA(color.RGBAModel.Convert(c).(color.RGBA))
}

// ToRGBA copies the frame into a standard image.
func (p *PackedImage) ToRGBA() *image.RGBA {
	img := image.NewRGBA(p.Bounds())
	for i, px := range p.Pix[:p.Width*p.Height] {
		c := Unpack(px)
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

// Bytes returns the frame as tightly packed RGBA8 bytes, the layout the
// presenter texture expects.
func (p *PackedImage) Bytes() []byte {
	return p.ToRGBA().Pix
}
