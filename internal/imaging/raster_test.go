package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestNewRaster(t *testing.T) {
	img := createInMemoryImage(30, 20, color.RGBA{255, 128, 64, 255})
	r := NewRaster(img)

	if r.Width() != 30 || r.Height() != 20 || r.Pixels() != 600 {
		t.Fatalf("dimensions: got %dx%d (%d px)", r.Width(), r.Height(), r.Pixels())
	}
	red, green, blue := r.RGB(29, 19)
	if red != 255 || green != 128 || blue != 64 {
		t.Errorf("RGB: got (%d,%d,%d), want (255,128,64)", red, green, blue)
	}
}

func TestNewRaster_OffsetBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 20, 20))
	img.Set(10, 10, color.RGBA{1, 2, 3, 255})

	r := NewRaster(img)
	red, green, blue := r.RGB(0, 0)
	if red != 1 || green != 2 || blue != 3 {
		t.Errorf("origin pixel: got (%d,%d,%d), want (1,2,3)", red, green, blue)
	}
}

func TestNewRaster_ConvertsNonRGBA(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(2, 2, color.Gray{Y: 77})

	r := NewRaster(img)
	red, green, blue := r.RGB(2, 2)
	if red != 77 || green != 77 || blue != 77 {
		t.Errorf("gray pixel: got (%d,%d,%d), want (77,77,77)", red, green, blue)
	}
}

func TestNewRaster_StraightAlpha(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want [3]int
	}{
		{
			"nrgba keeps colour under transparency",
			func() image.Image {
				img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
				img.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 0})
				return img
			}(),
			[3]int{200, 100, 50},
		},
		{
			"nrgba semi-transparent",
			func() image.Image {
				img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
				img.SetNRGBA(1, 1, color.NRGBA{200, 100, 50, 128})
				return img
			}(),
			[3]int{200, 100, 50},
		},
		{
			"rgba is un-premultiplied",
			func() image.Image {
				img := image.NewRGBA(image.Rect(0, 0, 2, 2))
				img.SetRGBA(1, 1, color.RGBA{100, 50, 25, 128})
				return img
			}(),
			[3]int{199, 99, 49},
		},
		{
			"nrgba offset bounds",
			func() image.Image {
				img := image.NewNRGBA(image.Rect(5, 5, 8, 8))
				img.SetNRGBA(6, 6, color.NRGBA{9, 8, 7, 255})
				return img
			}(),
			[3]int{9, 8, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			red, green, blue := NewRaster(tt.img).RGB(1, 1)
			if got := [3]int{red, green, blue}; got != tt.want {
				t.Errorf("RGB(1,1) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPackTensor(t *testing.T) {
	img := createInMemoryImage(8, 8, color.RGBA{255, 0, 51, 255})

	t.Run("nchw", func(t *testing.T) {
		data, err := PackTensor(img, 4, 2, LayoutNCHW)
		if err != nil {
			t.Fatalf("PackTensor failed: %v", err)
		}
		if len(data) != 24 {
			t.Fatalf("length: got %d, want 24", len(data))
		}
		if !near(data[0], 1) || !near(data[8], 0) || !near(data[16], 0.2) {
			t.Errorf("unexpected planes: r=%v g=%v b=%v", data[0], data[8], data[16])
		}
	})

	t.Run("nhwc", func(t *testing.T) {
		data, err := PackTensor(img, 4, 2, LayoutNHWC)
		if err != nil {
			t.Fatalf("PackTensor failed: %v", err)
		}
		if !near(data[0], 1) || !near(data[1], 0) || !near(data[2], 0.2) {
			t.Errorf("unexpected pixel: %v", data[:3])
		}
	})

	t.Run("invalid size", func(t *testing.T) {
		if _, err := PackTensor(img, 0, 4, LayoutNCHW); err == nil {
			t.Error("expected error for zero width")
		}
	})
}

func near(got, want float32) bool {
	d := got - want
	return d > -0.01 && d < 0.01
}

func TestFingerprint(t *testing.T) {
	a := createInMemoryImage(64, 64, color.RGBA{10, 10, 10, 255})
	for x := 0; x < 32; x++ {
		for y := 0; y < 64; y++ {
			a.Set(x, y, color.RGBA{240, 240, 240, 255})
		}
	}

	first := Fingerprint(a)
	if first == "" {
		t.Fatal("Fingerprint returned empty string")
	}
	if second := Fingerprint(a); second != first {
		t.Errorf("Fingerprint not deterministic: %s vs %s", first, second)
	}
}
