package skinfilter

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/esimov/skinfilter/chromaplot"
	"github.com/esimov/skinfilter/utils"
	_ "golang.org/x/image/bmp"
)

// Processor options
type Processor struct {
	// Threshold is the skin probability a pixel has to exceed.
	Threshold     float64
	RadiusRatio   float64
	RadiusAxis    Axis
	LumaDeviation float64
	// Workers is the number of goroutines used to classify a single image.
	Workers int

	// Box, when set, is the sample region and disables the face detection.
	Box        *BoundingBox
	FaceDetect bool
	FaceAngle  float64
	// Classifier is the path of the pigo cascade file used for face detection.
	Classifier   string
	FaceDetector *FaceDetector

	// MaskOnly outputs the binary skin mask instead of the skin pixels.
	MaskOnly bool
	// PlotPath, when set, is where the chromaticity plot of the sample is saved.
	PlotPath string

	Spinner *utils.Spinner
}

// NewProcessor returns a processor with the default model parameters.
func NewProcessor() *Processor {
	return &Processor{
		Threshold:     0.5,
		RadiusRatio:   DefaultRadiusRatio,
		RadiusAxis:    AxisWidth,
		LumaDeviation: DefaultLumaDeviation,
		Workers:       1,
	}
}

// Model returns a new skin color model configured from the processor options.
func (p *Processor) Model() *Model {
	m := NewModel()
	m.RadiusRatio = p.RadiusRatio
	m.RadiusAxis = p.RadiusAxis
	m.LumaDeviation = p.LumaDeviation
	m.Workers = p.Workers
	return m
}

// loadFaceDetector unpacks the cascade classifier once. It has to run before
// the processor is shared between goroutines.
func (p *Processor) loadFaceDetector() error {
	if !p.FaceDetect || p.FaceDetector != nil {
		return nil
	}
	if len(p.Classifier) == 0 {
		return errors.New("please specify a face classifier when using face detection")
	}
	fd, err := LoadFaceDetector(p.Classifier)
	if err != nil {
		return err
	}
	fd.Angle = p.FaceAngle
	p.FaceDetector = fd
	return nil
}

// sampleRegion picks the part of the image the skin color is learned from:
// the explicit box, then the detected face, then the whole image.
func (p *Processor) sampleRegion(src image.Image) (BoundingBox, error) {
	b := src.Bounds()
	if p.Box != nil {
		box := *p.Box
		if err := box.within(b.Dy(), b.Dx()); err != nil {
			return BoundingBox{}, err
		}
		return box, nil
	}
	if p.FaceDetect {
		if err := p.loadFaceDetector(); err != nil {
			return BoundingBox{}, err
		}
		return p.FaceDetector.Detect(src)
	}
	return BoundingBox{Top: 0, Bottom: b.Dy(), Left: 0, Right: b.Dx()}, nil
}

// Filter fits a skin color model on the sample region of the image
// and returns the fitted model together with the skin mask of the whole image.
func (p *Processor) Filter(src image.Image) (*Model, *Mask, error) {
	img := imgToNRGBA(src)

	box, err := p.sampleRegion(img)
	if err != nil {
		return nil, nil, err
	}
	sample := FromImage(imaging.Crop(img, box.Rect()))

	model := p.Model()
	if err := model.Fit(sample); err != nil {
		return nil, nil, fmt.Errorf("fitting the skin color model: %w", err)
	}

	if len(p.PlotPath) > 0 {
		r, g := Chromaticity(sample).Select(model.Selection())
		if err := chromaplot.Save(p.PlotPath, r, g, model.Mean()); err != nil {
			return nil, nil, fmt.Errorf("saving the chromaticity plot: %w", err)
		}
	}

	mask, err := model.Classify(FromImage(img), p.Threshold)
	if err != nil {
		return nil, nil, err
	}
	return model, mask, nil
}

// Render returns the output image: either the binary mask or the
// source image with the non-skin pixels set to black.
func (p *Processor) Render(src image.Image, mask *Mask) (image.Image, error) {
	if p.MaskOnly {
		return mask.Gray(), nil
	}
	skin, err := FromImage(src).Apply(mask)
	if err != nil {
		return nil, err
	}
	return skin.ToNRGBA(), nil
}

// Process decodes the source image, detects its skin pixels and
// encodes the result into an io.Writer interface.
// We are using the io package, since we can provide different input and output types,
// as long as they implement the io.Reader and io.Writer interface.
func (p *Processor) Process(r io.Reader, w io.Writer) error {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return err
	}

	_, mask, err := p.Filter(src)
	if err != nil {
		return err
	}

	res, err := p.Render(src, mask)
	if err != nil {
		return err
	}
	return encodeImg(w, res)
}
