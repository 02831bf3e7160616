package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

// 3x2 source with distinct pixels, addressed by their (x, y)
func orientationSource() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 0xff})
		}
	}
	return img
}

func pixel(img image.Image, x, y int) [2]uint8 {
	c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
	return [2]uint8{c.R, c.G}
}

func TestApplyOrientation(t *testing.T) {
	tests := []struct {
		name        string
		orientation int
		width       int
		height      int
		topLeft     [2]uint8
		bottomRight [2]uint8
	}{
		{name: "normal", orientation: 1, width: 3, height: 2, topLeft: [2]uint8{0, 0}, bottomRight: [2]uint8{2, 1}},
		{name: "mirror_horizontal", orientation: 2, width: 3, height: 2, topLeft: [2]uint8{2, 0}, bottomRight: [2]uint8{0, 1}},
		{name: "rotate_180", orientation: 3, width: 3, height: 2, topLeft: [2]uint8{2, 1}, bottomRight: [2]uint8{0, 0}},
		{name: "mirror_vertical", orientation: 4, width: 3, height: 2, topLeft: [2]uint8{0, 1}, bottomRight: [2]uint8{2, 0}},
		{name: "transpose", orientation: 5, width: 2, height: 3, topLeft: [2]uint8{0, 0}, bottomRight: [2]uint8{2, 1}},
		{name: "rotate_90_cw", orientation: 6, width: 2, height: 3, topLeft: [2]uint8{0, 1}, bottomRight: [2]uint8{2, 0}},
		{name: "transverse", orientation: 7, width: 2, height: 3, topLeft: [2]uint8{2, 1}, bottomRight: [2]uint8{0, 0}},
		{name: "rotate_270_cw", orientation: 8, width: 2, height: 3, topLeft: [2]uint8{2, 0}, bottomRight: [2]uint8{0, 1}},
		{name: "out_of_range", orientation: 9, width: 3, height: 2, topLeft: [2]uint8{0, 0}, bottomRight: [2]uint8{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := applyOrientation(orientationSource(), tt.orientation)
			b := out.Bounds()
			assert.Equal(t, tt.width, b.Dx())
			assert.Equal(t, tt.height, b.Dy())
			assert.Equal(t, tt.topLeft, pixel(out, b.Min.X, b.Min.Y))
			assert.Equal(t, tt.bottomRight, pixel(out, b.Max.X-1, b.Max.Y-1))
		})
	}
}

func TestReadOrientation_NoExif(t *testing.T) {
	assert.Equal(t, 1, readOrientation([]byte("not an image")))
}

func TestScaledSize(t *testing.T) {
	w, h := scaledSize(3000, 1500, 1920)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 960, h)

	w, h = scaledSize(4000, 3, 1920)
	assert.Equal(t, 1920, w)
	assert.Equal(t, 1, h)

	w, h = scaledSize(1000, 700, 1920)
	assert.Equal(t, 1000, w)
	assert.Equal(t, 700, h)
}
