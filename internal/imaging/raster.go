package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/clone"
)

// Raster is a read-only 8-bit RGB view of an image with a (0,0) origin.
//
// The pixel accessor is what the signal extractors sample from; it avoids
// the per-pixel color.Color allocation of image.Image.At.
type Raster struct {
	pix    []uint8
	stride int
	width  int
	height int

	// premultiplied is set when pix holds image.RGBA data.
	premultiplied bool
}

// NewRaster wraps img. *image.NRGBA and *image.RGBA pixels are shared;
// other images are converted once.
func NewRaster(img image.Image) *Raster {
	if n, ok := img.(*image.NRGBA); ok {
		b := n.Bounds()
		return &Raster{
			pix:    n.Pix[n.PixOffset(b.Min.X, b.Min.Y):],
			stride: n.Stride,
			width:  b.Dx(),
			height: b.Dy(),
		}
	}

	rgba := clone.AsShallowRGBA(img)
	b := rgba.Bounds()
	return &Raster{
		pix:           rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y):],
		stride:        rgba.Stride,
		width:         b.Dx(),
		height:        b.Dy(),
		premultiplied: true,
	}
}

// Width returns the raster width in pixels.
func (r *Raster) Width() int { return r.width }

// Height returns the raster height in pixels.
func (r *Raster) Height() int { return r.height }

// Pixels returns width*height.
func (r *Raster) Pixels() int { return r.width * r.height }

// RGB returns the straight (non-premultiplied) 8-bit channels at (x, y).
// Coordinates must be in range. Fully transparent premultiplied pixels carry
// no colour and read as (0,0,0).
func (r *Raster) RGB(x, y int) (int, int, int) {
	i := y*r.stride + x*4
	p := r.pix[i : i+4 : i+4]
	red, green, blue := int(p[0]), int(p[1]), int(p[2])
	if a := int(p[3]); r.premultiplied && a != 0 && a != 0xff {
		red, green, blue = red*0xff/a, green*0xff/a, blue*0xff/a
	}
	return red, green, blue
}
