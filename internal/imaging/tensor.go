package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// TensorLayout is the memory order a model expects for image input.
type TensorLayout int

const (
	// LayoutNCHW stores all red values, then green, then blue.
	LayoutNCHW TensorLayout = iota
	// LayoutNHWC interleaves channels per pixel.
	LayoutNHWC
)

func (l TensorLayout) String() string {
	if l == LayoutNHWC {
		return "nhwc"
	}
	return "nchw"
}

// PackTensor resizes img to width x height and returns its RGB channels
// normalized to [0, 1] in the requested layout. The result has
// 3*width*height elements.
func PackTensor(img image.Image, width, height int, layout TensorLayout) ([]float32, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid tensor size %dx%d", width, height)
	}

	resized := imaging.Resize(img, width, height, imaging.Linear)
	plane := width * height
	out := make([]float32, 3*plane)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := resized.PixOffset(x, y)
			r := float32(resized.Pix[i]) / 255
			g := float32(resized.Pix[i+1]) / 255
			b := float32(resized.Pix[i+2]) / 255

			p := y*width + x
			if layout == LayoutNHWC {
				out[p*3] = r
				out[p*3+1] = g
				out[p*3+2] = b
			} else {
				out[p] = r
				out[plane+p] = g
				out[2*plane+p] = b
			}
		}
	}
	return out, nil
}
