package skinfilter

import (
	"image"
)

// rgbToGrayscale converts an image to grayscale mode and
// returns the pixel values as an one dimensional array.
// The face detector consumes this representation.
func rgbToGrayscale(src *image.NRGBA) []uint8 {
	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	gray := make([]uint8, width*height)

	for y := 0; y < height; y++ {
		si := src.PixOffset(src.Bounds().Min.X, src.Bounds().Min.Y+y)
		for x := 0; x < width; x++ {
			gray[y*width+x] = uint8(Luma(
				float64(src.Pix[si+0]),
				float64(src.Pix[si+1]),
				float64(src.Pix[si+2]),
			))
			si += 4
		}
	}
	return gray
}
