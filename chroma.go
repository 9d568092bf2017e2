package skinfilter

// Chroma holds the normalized rg chromaticity planes of an image.
type Chroma struct {
	Height int
	Width  int
	R      []float64
	G      []float64
}

// Chromaticity converts the image to the normalized rg color space:
// r = R/(R+G+B) and g = G/(R+G+B). Black pixels map to (0, 0).
func Chromaticity(img *Image) *Chroma {
	n := img.Height * img.Width
	ch := &Chroma{
		Height: img.Height,
		Width:  img.Width,
		R:      make([]float64, n),
		G:      make([]float64, n),
	}
	rp, gp, bp := img.Plane(0), img.Plane(1), img.Plane(2)

	for i := 0; i < n; i++ {
		if rp[i] > 0 || gp[i] > 0 || bp[i] > 0 {
			sum := rp[i] + gp[i] + bp[i]
			ch.R[i] = rp[i] / sum
			ch.G[i] = gp[i] / sum
		}
	}
	return ch
}

// Select returns the chromaticity values of the pixels enabled in the mask.
func (ch *Chroma) Select(mask *Mask) (r, g []float64) {
	n := mask.Count()
	r = make([]float64, 0, n)
	g = make([]float64, 0, n)
	for i, ok := range mask.Bits {
		if ok {
			r = append(r, ch.R[i])
			g = append(g, ch.G[i])
		}
	}
	return r, g
}
