package domain

import (
	"image"
	"image/color"
)

// Point is an integer pixel coordinate.
type Point struct {
	X int
	Y int
}

// MaxCoordinate bounds circle centers and radii so the ellipse test cannot
// overflow int64.
const MaxCoordinate = 1 << 20

// Circle is the region of interest inside a radar image.
type Circle struct {
	Center Point
	Radius int
}

// Box returns the circle's bounding box with inclusive corners,
// [cx-r, cy-r, cx+r, cy+r].
func (c Circle) Box() (left, top, right, bottom int) {
	return c.Center.X - c.Radius, c.Center.Y - c.Radius, c.Center.X + c.Radius, c.Center.Y + c.Radius
}

// Contains reports whether the pixel at (x, y) falls inside the ellipse
// inscribed in the circle's inclusive bounding box. The box spans 2r+1
// pixels, so the test compares against a radius of r+½ using the pixel
// center; pixels on the boundary are included.
func (c Circle) Contains(x, y int) bool {
	dx := int64(x - c.Center.X)
	dy := int64(y - c.Center.Y)
	d := int64(2*c.Radius + 1)
	return 4*(dx*dx+dy*dy) <= d*d
}

// CropRect is the rectangle MaskCircle crops to: the bounding box clamped
// to a width×height image, with right and bottom exclusive.
func (c Circle) CropRect(width, height int) image.Rectangle {
	left, top, right, bottom := c.Box()
	return image.Rectangle{
		Min: image.Pt(max(0, left), max(0, top)),
		Max: image.Pt(min(width, right), min(height, bottom)),
	}
}

// MaskCircle keeps only the pixels inside c, paints everything else black,
// and crops the result to the circle's clamped bounding box. A circle that
// lies entirely outside the raster yields an empty raster.
func MaskCircle(src *Raster, c Circle) *Raster {
	mask := circleMask(src.Width, src.Height, c)

	canvas := NewRaster(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		for x := 0; x < src.Width; x++ {
			if mask.AlphaAt(x, y).A == 0xff {
				canvas.Set(x, y, src.At(x, y))
			}
		}
	}

	crop := c.CropRect(src.Width, src.Height)
	if crop.Empty() {
		return NewRaster(0, 0)
	}
	return canvas.SubRaster(crop)
}

// circleMask rasterizes c into an alpha mask the size of the source image.
func circleMask(width, height int, c Circle) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	left, top, right, bottom := c.Box()
	for y := max(0, top); y <= min(height-1, bottom); y++ {
		for x := max(0, left); x <= min(width-1, right); x++ {
			if c.Contains(x, y) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	return mask
}
