package domain

import (
	"image"
	"image/color"
)

// RGB is an exact 8-bit color triple.
type RGB struct {
	R, G, B uint8
}

// Black is the fill color of masked-out pixels.
var Black = RGB{}

// Raster is a row-major grid of RGB pixels with its origin at (0,0).
type Raster struct {
	Width  int
	Height int
	Pix    []RGB
}

// NewRaster allocates a black raster. Negative dimensions are treated as zero.
func NewRaster(width, height int) *Raster {
	width = max(width, 0)
	height = max(height, 0)
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}
}

// NewUniformRaster allocates a raster with every pixel set to c.
func NewUniformRaster(width, height int, c RGB) *Raster {
	r := NewRaster(width, height)
	for i := range r.Pix {
		r.Pix[i] = c
	}
	return r
}

// FromImage copies any decoded image into a Raster, dropping alpha.
// The image's bounds are translated so that Min maps to (0,0).
func FromImage(img image.Image) *Raster {
	b := img.Bounds()
	r := NewRaster(b.Dx(), b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			r.Set(x-b.Min.X, y-b.Min.Y, RGB{R: c.R, G: c.G, B: c.B})
		}
	}
	return r
}

// Bounds returns the raster's rectangle.
func (r *Raster) Bounds() image.Rectangle {
	return image.Rect(0, 0, r.Width, r.Height)
}

// Len is the total pixel count.
func (r *Raster) Len() int {
	return len(r.Pix)
}

// At returns the pixel at (x, y). Callers must stay within Bounds.
func (r *Raster) At(x, y int) RGB {
	return r.Pix[y*r.Width+x]
}

// Set writes the pixel at (x, y). Callers must stay within Bounds.
func (r *Raster) Set(x, y int, c RGB) {
	r.Pix[y*r.Width+x] = c
}

// SubRaster copies the pixels inside rect (clipped to the raster) into a new Raster.
func (r *Raster) SubRaster(rect image.Rectangle) *Raster {
	rect = rect.Intersect(r.Bounds())
	out := NewRaster(rect.Dx(), rect.Dy())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		copy(out.Pix[(y-rect.Min.Y)*out.Width:(y-rect.Min.Y+1)*out.Width], r.Pix[y*r.Width+rect.Min.X:y*r.Width+rect.Max.X])
	}
	return out
}
