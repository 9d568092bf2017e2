package skinfilter

import (
	"errors"
	"fmt"
	"math"

	"github.com/esimov/skinfilter/utils"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Default model parameters.
const (
	DefaultRadiusRatio   = 0.4
	DefaultLumaDeviation = 1.5
)

// gaussian holds the parameters of a fitted distribution.
// Every Fit call builds a new value; it is never updated in place.
type gaussian struct {
	mean       *mat.VecDense
	covariance *mat.SymDense
	inverse    *mat.Dense
	selection  *Mask
	samples    int
}

func zeroGaussian() *gaussian {
	return &gaussian{
		mean:       mat.NewVecDense(2, nil),
		covariance: mat.NewSymDense(2, nil),
		inverse:    mat.NewDense(2, 2, nil),
	}
}

// Model is a skin color model: a 2D Gaussian in the normalized rg color space,
// estimated from a sample (face) image. It is based on the work published in
// "Adaptive skin segmentation via feature-based face detection",
// M.J. Taylor and T. Morris, Proc SPIE Photonics Europe, 2014.
//
// A Model must not be fitted while it is used for classification.
type Model struct {
	// RadiusRatio is the radius of the circular sampling region relative to the image size.
	RadiusRatio float64
	// RadiusAxis selects which image dimension RadiusRatio is relative to.
	RadiusAxis Axis
	// LumaDeviation is the number of standard deviations of luma a sample pixel may deviate by.
	LumaDeviation float64
	// Workers is the number of goroutines the probability map is computed with.
	Workers int

	params *gaussian
}

// NewModel returns a model with zero mean and zero covariance and the default parameters.
func NewModel() *Model {
	return &Model{
		RadiusRatio:   DefaultRadiusRatio,
		RadiusAxis:    AxisWidth,
		LumaDeviation: DefaultLumaDeviation,
		Workers:       1,
		params:        zeroGaussian(),
	}
}

// Fit estimates the mean and the covariance of the skin color from the sample image.
// Only the pixels inside the circular mask having a plausible luma are considered.
// If no pixel survives the masking the model is reset to zero and ErrInsufficientSamples is returned.
func (m *Model) Fit(sample *Image) error {
	if err := sample.Validate(); err != nil {
		return err
	}

	circular := CircularMask(sample, m.RadiusRatio, m.RadiusAxis)
	luma := LumaMask(sample, circular, m.LumaDeviation)
	selection, err := circular.And(luma)
	if err != nil {
		return err
	}

	r, g := Chromaticity(sample).Select(selection)
	params, err := fitGaussian(r, g)
	params.selection = selection
	m.params = params

	return err
}

// fitGaussian computes the sample mean and the unbiased sample covariance of the (r, g) pairs.
func fitGaussian(r, g []float64) (*gaussian, error) {
	n := len(r)
	if n == 0 {
		return zeroGaussian(), ErrInsufficientSamples
	}
	params := zeroGaussian()
	params.samples = n

	mr, mg := stat.Mean(r, nil), stat.Mean(g, nil)
	params.mean.SetVec(0, mr)
	params.mean.SetVec(1, mg)

	// A single sample has no spread; its covariance stays zero.
	if n > 1 {
		centered := mat.NewDense(2, n, nil)
		for i := 0; i < n; i++ {
			centered.Set(0, i, r[i]-mr)
			centered.Set(1, i, g[i]-mg)
		}
		// Sum of the outer products of the centered samples divided by n-1.
		params.covariance.SymOuterK(1/float64(n-1), centered)
	}

	// A singular covariance yields a zero inverse, hence a probability of 1 everywhere.
	if mat.Det(params.covariance) != 0 {
		var cond mat.Condition
		if err := params.inverse.Inverse(params.covariance); err != nil {
			if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
				params.inverse.Zero()
			}
		}
	}
	return params, nil
}

// parameters returns the fitted parameters. A model that was never
// fitted, the zero Model included, has a zero mean and a zero covariance.
func (m *Model) parameters() *gaussian {
	if m.params == nil {
		return zeroGaussian()
	}
	return m.params
}

// Mean returns the fitted mean in the rg color space.
func (m *Model) Mean() [2]float64 {
	mean := m.parameters().mean
	return [2]float64{mean.AtVec(0), mean.AtVec(1)}
}

// Covariance returns the fitted covariance matrix.
func (m *Model) Covariance() [2][2]float64 {
	return toArray(m.parameters().covariance)
}

// CovarianceInverse returns the inverse of the covariance matrix,
// or the zero matrix if the covariance is singular.
func (m *Model) CovarianceInverse() [2][2]float64 {
	return toArray(m.parameters().inverse)
}

// Degenerate reports whether the fitted covariance is singular.
func (m *Model) Degenerate() bool {
	return mat.Det(m.parameters().covariance) == 0
}

// Samples returns the number of pixels the model was fitted on.
func (m *Model) Samples() int {
	return m.parameters().samples
}

// Selection returns the sample pixels selected by the last Fit call, or nil before fitting.
func (m *Model) Selection() *Mask {
	return m.parameters().selection
}

func toArray(a mat.Matrix) [2][2]float64 {
	return [2][2]float64{
		{a.At(0, 0), a.At(0, 1)},
		{a.At(1, 0), a.At(1, 1)},
	}
}

// Probability computes the skin color probability of every pixel of the image:
// exp(-0.5 * kᵗ Σ⁻¹ k), k being the pixel chromaticity minus the model mean.
// The image may have a different size than the fitted sample.
func (m *Model) Probability(img *Image) (*ProbabilityMap, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	chroma := Chromaticity(img)
	pm := NewProbabilityMap(img.Height, img.Width)

	params := m.parameters()
	var (
		mr, mg   = params.mean.AtVec(0), params.mean.AtVec(1)
		inv      = toArray(params.inverse)
		rowRange = func(y0, y1 int) {
			for i := y0 * img.Width; i < y1*img.Width; i++ {
				k0, k1 := chroma.R[i]-mr, chroma.G[i]-mg
				term := k0*(inv[0][0]*k0+inv[0][1]*k1) + k1*(inv[1][0]*k0+inv[1][1]*k1)
				pm.Values[i] = math.Exp(-0.5 * term)
			}
		}
	)

	workers := m.Workers
	if workers <= 1 || img.Height < 2 {
		rowRange(0, img.Height)
		return pm, nil
	}
	if workers > img.Height {
		workers = img.Height
	}

	// Every band writes a disjoint slice of the map.
	var eg errgroup.Group
	eg.SetLimit(workers)
	band := (img.Height + workers - 1) / workers
	for y0 := 0; y0 < img.Height; y0 += band {
		y0, y1 := y0, utils.Min(y0+band, img.Height)
		eg.Go(func() error {
			rowRange(y0, y1)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("computing the probability map: %w", err)
	}
	return pm, nil
}

// Classify returns the mask of the pixels whose skin probability is greater than threshold.
// The threshold is not validated: a threshold of 1 or above selects nothing.
func (m *Model) Classify(img *Image, threshold float64) (*Mask, error) {
	pm, err := m.Probability(img)
	if err != nil {
		return nil, err
	}
	return pm.Threshold(threshold), nil
}

// ProbabilityMap holds the skin probability of every pixel of an image.
type ProbabilityMap struct {
	Height int
	Width  int
	Values []float64
}

// NewProbabilityMap allocates a zero filled probability map.
func NewProbabilityMap(height, width int) *ProbabilityMap {
	return &ProbabilityMap{
		Height: height,
		Width:  width,
		Values: make([]float64, height*width),
	}
}

// At returns the probability at row y and column x.
func (pm *ProbabilityMap) At(y, x int) float64 {
	return pm.Values[y*pm.Width+x]
}

// Threshold returns the mask of the values strictly greater than t.
func (pm *ProbabilityMap) Threshold(t float64) *Mask {
	mask := NewMask(pm.Height, pm.Width)
	for i, p := range pm.Values {
		mask.Bits[i] = p > t
	}
	return mask
}
