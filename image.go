package skinfilter

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/image/bmp"
)

// Channels is the number of color planes an Image has to carry.
const Channels = 3

// Image is a planar RGB image laid out as (channels, height, width).
// Samples are non-negative and stored as float64, usually in the [0, 255] range.
type Image struct {
	Channels int
	Height   int
	Width    int
	Pix      []float64
}

// NewImage allocates a zero filled image with the given dimensions.
func NewImage(channels, height, width int) *Image {
	return &Image{
		Channels: channels,
		Height:   height,
		Width:    width,
		Pix:      make([]float64, channels*height*width),
	}
}

// Validate checks the (3, height, width) layout invariant.
func (img *Image) Validate() error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrShapeMismatch)
	}
	if img.Channels != Channels {
		return fmt.Errorf("got %d channels: %w", img.Channels, ErrShapeMismatch)
	}
	if img.Height < 0 || img.Width < 0 {
		return fmt.Errorf("negative dimensions %dx%d: %w", img.Width, img.Height, ErrShapeMismatch)
	}
	if len(img.Pix) != img.Channels*img.Height*img.Width {
		return fmt.Errorf("pixel buffer holds %d samples, expected %d: %w",
			len(img.Pix), img.Channels*img.Height*img.Width, ErrShapeMismatch)
	}
	return nil
}

// Plane returns the samples of channel c as a height*width row-major slice.
func (img *Image) Plane(c int) []float64 {
	n := img.Height * img.Width
	return img.Pix[c*n : (c+1)*n]
}

// At returns the sample of channel c at row y and column x.
func (img *Image) At(c, y, x int) float64 {
	return img.Pix[(c*img.Height+y)*img.Width+x]
}

// Set sets the sample of channel c at row y and column x.
func (img *Image) Set(c, y, x int, v float64) {
	img.Pix[(c*img.Height+y)*img.Width+x] = v
}

// SetRGB sets all three channels of the pixel at row y and column x.
func (img *Image) SetRGB(y, x int, r, g, b float64) {
	img.Set(0, y, x, r)
	img.Set(1, y, x, g)
	img.Set(2, y, x, b)
}

// Fill sets every pixel to the same color.
func (img *Image) Fill(r, g, b float64) {
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			img.SetRGB(y, x, r, g, b)
		}
	}
}

// Crop returns a copy of the region enclosed by the bounding box.
func (img *Image) Crop(box BoundingBox) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := box.within(img.Height, img.Width); err != nil {
		return nil, err
	}
	h, w := box.Bottom-box.Top, box.Right-box.Left
	dst := NewImage(img.Channels, h, w)
	for c := 0; c < img.Channels; c++ {
		for y := 0; y < h; y++ {
			src := img.Pix[(c*img.Height+box.Top+y)*img.Width+box.Left:]
			copy(dst.Pix[(c*h+y)*w:(c*h+y+1)*w], src[:w])
		}
	}
	return dst, nil
}

// Apply returns a copy of the image where the pixels outside of the mask are set to zero.
func (img *Image) Apply(mask *Mask) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if mask.Height != img.Height || mask.Width != img.Width {
		return nil, fmt.Errorf("mask %dx%d over image %dx%d: %w",
			mask.Width, mask.Height, img.Width, img.Height, ErrMaskShape)
	}
	dst := NewImage(img.Channels, img.Height, img.Width)
	copy(dst.Pix, img.Pix)
	n := img.Height * img.Width
	for i, keep := range mask.Bits {
		if !keep {
			for c := 0; c < img.Channels; c++ {
				dst.Pix[c*n+i] = 0
			}
		}
	}
	return dst, nil
}

// FromImage converts any image type to a planar 8-bit valued Image.
// The alpha channel is dropped.
func FromImage(src image.Image) *Image {
	nrgba := imgToNRGBA(src)
	b := nrgba.Bounds()
	dx, dy := b.Dx(), b.Dy()
	img := NewImage(Channels, dy, dx)

	for y := 0; y < dy; y++ {
		si := nrgba.PixOffset(0, y)
		for x := 0; x < dx; x++ {
			img.SetRGB(y, x,
				float64(nrgba.Pix[si+0]),
				float64(nrgba.Pix[si+1]),
				float64(nrgba.Pix[si+2]),
			)
			si += 4
		}
	}
	return img
}

// ToNRGBA converts the image back to an opaque *image.NRGBA, clamping samples to [0, 255].
func (img *Image) ToNRGBA() *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		di := dst.PixOffset(0, y)
		for x := 0; x < img.Width; x++ {
			dst.Pix[di+0] = clampUint8(img.At(0, y, x))
			dst.Pix[di+1] = clampUint8(img.At(1, y, x))
			dst.Pix[di+2] = clampUint8(img.At(2, y, x))
			dst.Pix[di+3] = 0xff
			di += 4
		}
	}
	return dst
}

func clampUint8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}

// encodeImg encodes an image to a destination of type io.Writer.
// The output format is derived from the file extension when the writer is a file,
// otherwise it defaults to jpeg.
func encodeImg(w io.Writer, img image.Image) error {
	switch w := w.(type) {
	case *os.File:
		switch filepath.Ext(w.Name()) {
		case "", ".jpg", ".jpeg":
			return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
		case ".png":
			return png.Encode(w, img)
		case ".bmp":
			return bmp.Encode(w, img)
		default:
			return errors.New("unsupported image format")
		}
	default:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	}
}

// imgToNRGBA converts any image type to *image.NRGBA with min-point at (0, 0).
func imgToNRGBA(img image.Image) *image.NRGBA {
	srcBounds := img.Bounds()
	if srcBounds.Min.X == 0 && srcBounds.Min.Y == 0 {
		if src0, ok := img.(*image.NRGBA); ok {
			return src0
		}
	}
	srcMinX := srcBounds.Min.X
	srcMinY := srcBounds.Min.Y

	dstBounds := srcBounds.Sub(srcBounds.Min)
	dstW := dstBounds.Dx()
	dstH := dstBounds.Dy()
	dst := image.NewNRGBA(dstBounds)

	switch src := img.(type) {
	case *image.NRGBA:
		rowSize := dstW * 4
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			si := src.PixOffset(srcMinX, srcMinY+dstY)
			copy(dst.Pix[di:di+rowSize], src.Pix[si:si+rowSize])
		}
	case *image.YCbCr:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				srcX := srcMinX + dstX
				srcY := srcMinY + dstY
				siy := src.YOffset(srcX, srcY)
				sic := src.COffset(srcX, srcY)
				r, g, b := color.YCbCrToRGB(src.Y[siy], src.Cb[sic], src.Cr[sic])
				dst.Pix[di+0] = r
				dst.Pix[di+1] = g
				dst.Pix[di+2] = b
				dst.Pix[di+3] = 0xff
				di += 4
			}
		}
	default:
		for dstY := 0; dstY < dstH; dstY++ {
			di := dst.PixOffset(0, dstY)
			for dstX := 0; dstX < dstW; dstX++ {
				c := color.NRGBAModel.Convert(img.At(srcMinX+dstX, srcMinY+dstY)).(color.NRGBA)
				dst.Pix[di+0] = c.R
				dst.Pix[di+1] = c.G
				dst.Pix[di+2] = c.B
				dst.Pix[di+3] = c.A
				di += 4
			}
		}
	}
	return dst
}
