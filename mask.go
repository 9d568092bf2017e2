package skinfilter

import (
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Axis selects the image dimension the circular mask radius is scaled by.
type Axis int

const (
	// AxisWidth scales the radius by the image width, non-square images included.
	AxisWidth Axis = iota
	// AxisHeight scales the radius by the image height.
	AxisHeight
)

// String implements the fmt.Stringer interface.
func (a Axis) String() string {
	switch a {
	case AxisHeight:
		return "height"
	default:
		return "width"
	}
}

// ParseAxis converts a flag value into an Axis.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "", "width", "w":
		return AxisWidth, nil
	case "height", "h":
		return AxisHeight, nil
	}
	return AxisWidth, fmt.Errorf("unknown radius axis %q", s)
}

// Mask is a boolean (height, width) array stored in row-major order.
type Mask struct {
	Height int
	Width  int
	Bits   []bool
}

// NewMask allocates an all-false mask.
func NewMask(height, width int) *Mask {
	return &Mask{
		Height: height,
		Width:  width,
		Bits:   make([]bool, height*width),
	}
}

// At reports whether the pixel at row y and column x is selected.
func (m *Mask) At(y, x int) bool {
	return m.Bits[y*m.Width+x]
}

// Set sets the pixel at row y and column x.
func (m *Mask) Set(y, x int, v bool) {
	m.Bits[y*m.Width+x] = v
}

// Count returns the number of selected pixels.
func (m *Mask) Count() int {
	var n int
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// And returns the element-wise logical AND of the two masks.
func (m *Mask) And(other *Mask) (*Mask, error) {
	if m.Height != other.Height || m.Width != other.Width {
		return nil, fmt.Errorf("%dx%d and %dx%d: %w",
			m.Width, m.Height, other.Width, other.Height, ErrMaskShape)
	}
	dst := NewMask(m.Height, m.Width)
	for i := range m.Bits {
		dst.Bits[i] = m.Bits[i] && other.Bits[i]
	}
	return dst, nil
}

// Gray renders the mask as a black and white image, selected pixels being white.
func (m *Mask) Gray() *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.At(y, x) {
				dst.Pix[y*dst.Stride+x] = 0xff
			}
		}
	}
	return dst
}

// CircularMask selects the pixels lying inside a circle centered on the image.
// The center is (height/2, width/2) using integer division and the radius is
// radiusRatio times the dimension picked by axis.
func CircularMask(img *Image, radiusRatio float64, axis Axis) *Mask {
	mask := NewMask(img.Height, img.Width)

	cy, cx := img.Height/2, img.Width/2
	radius := radiusRatio * float64(img.Width)
	if axis == AxisHeight {
		radius = radiusRatio * float64(img.Height)
	}
	r2 := radius * radius

	for y := 0; y < img.Height; y++ {
		dy := float64(y - cy)
		for x := 0; x < img.Width; x++ {
			dx := float64(x - cx)
			mask.Set(y, x, dx*dx+dy*dy < r2)
		}
	}
	return mask
}

// Luma returns the perceived brightness of an RGB triplet.
func Luma(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// lumaTolerance is the smallest half width of the luma band, relative to the mean luma.
// It keeps a uniformly lit sample from rejecting its own pixels.
const lumaTolerance = 1e-9

// LumaMask prunes the pixels whose luma deviates from the mean luma of the
// circular region by more than deviation times its standard deviation.
// The statistics are computed over the circular region only, the band is
// applied to the whole image. The circular mask must have the image's spatial shape.
func LumaMask(img *Image, circular *Mask, deviation float64) *Mask {
	mask := NewMask(img.Height, img.Width)
	rp, gp, bp := img.Plane(0), img.Plane(1), img.Plane(2)

	luma := make([]float64, len(circular.Bits))
	inside := make([]float64, 0, len(circular.Bits))
	for i := range luma {
		luma[i] = Luma(rp[i], gp[i], bp[i])
		if circular.Bits[i] {
			inside = append(inside, luma[i])
		}
	}
	if len(inside) == 0 {
		return mask
	}

	// Biased estimator: the deviation is divided by N, not N-1.
	mean, std := stat.PopMeanStdDev(inside, nil)
	band := math.Max(deviation*std, lumaTolerance*math.Max(1, math.Abs(mean)))

	lo, hi := mean-band, mean+band
	for i, l := range luma {
		mask.Bits[i] = l > lo && l < hi
	}
	return mask
}
