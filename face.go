package skinfilter

import (
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/esimov/skinfilter/utils"
	pigo "github.com/esimov/pigo/core"
)

// BoundingBox delimits a face region. Bottom and Right are exclusive.
type BoundingBox struct {
	Top, Bottom, Left, Right int
}

// Rect converts the bounding box to an image.Rectangle.
func (b BoundingBox) Rect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Right, b.Bottom)
}

// Empty reports whether the box encloses no pixel.
func (b BoundingBox) Empty() bool {
	return b.Bottom <= b.Top || b.Right <= b.Left
}

// within checks that the box is not empty and fits inside a height x width image.
func (b BoundingBox) within(height, width int) error {
	if b.Empty() || b.Top < 0 || b.Left < 0 || b.Bottom > height || b.Right > width {
		return fmt.Errorf("box %+v over a %dx%d image: %w", b, width, height, ErrInvalidBox)
	}
	return nil
}

// BoxFromRect converts an image.Rectangle to a bounding box.
func BoxFromRect(r image.Rectangle) BoundingBox {
	return BoundingBox{Top: r.Min.Y, Bottom: r.Max.Y, Left: r.Min.X, Right: r.Max.X}
}

// ParseBox parses a "top,bottom,left,right" flag value.
func ParseBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("expected top,bottom,left,right, got %q: %w", s, ErrInvalidBox)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box coordinate %q: %w", p, err)
		}
		v[i] = n
	}
	box := BoundingBox{Top: v[0], Bottom: v[1], Left: v[2], Right: v[3]}
	if box.Empty() {
		return BoundingBox{}, fmt.Errorf("%q: %w", s, ErrInvalidBox)
	}
	return box, nil
}

// FaceDetector locates the face region a skin color sample is taken from.
type FaceDetector struct {
	// MinSize and MaxSize bound the face size in pixels. A zero MaxSize means
	// the larger image dimension.
	MinSize     int
	MaxSize     int
	ShiftFactor float64
	ScaleFactor float64
	// Angle is the in-plane rotation of the faces, in the [0, 1] range.
	Angle float64
	// IoUThreshold is used when clustering the overlapping detections.
	IoUThreshold float64
	// MinQuality is the detection score a face needs to be accepted.
	MinQuality float32

	classifier *pigo.Pigo
}

// NewFaceDetector unpacks a pigo cascade classifier.
func NewFaceDetector(cascade []byte) (*FaceDetector, error) {
	p := pigo.NewPigo()
	classifier, err := p.Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	return &FaceDetector{
		MinSize:      20,
		ShiftFactor:  0.1,
		ScaleFactor:  1.1,
		IoUThreshold: 0.2,
		MinQuality:   5.0,
		classifier:   classifier,
	}, nil
}

// LoadFaceDetector reads the cascade classifier from a file.
func LoadFaceDetector(path string) (*FaceDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read the cascade file: %w", err)
	}
	return NewFaceDetector(cascade)
}

// Detect returns the bounding box of the best scoring face found in the image,
// clipped to the image bounds.
func (fd *FaceDetector) Detect(src image.Image) (BoundingBox, error) {
	img := imgToNRGBA(src)
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()

	maxSize := fd.MaxSize
	if maxSize == 0 {
		maxSize = utils.Max(dx, dy)
	}
	cParams := pigo.CascadeParams{
		MinSize:     fd.MinSize,
		MaxSize:     maxSize,
		ShiftFactor: fd.ShiftFactor,
		ScaleFactor: fd.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: rgbToGrayscale(img),
			Rows:   dy,
			Cols:   dx,
			Dim:    dx,
		},
	}

	// The result contains quadruplets representing the row, column, scale and detection score.
	faces := fd.classifier.RunCascade(cParams, fd.Angle)
	faces = fd.classifier.ClusterDetections(faces, fd.IoUThreshold)

	return bestFace(faces, fd.MinQuality, dy, dx)
}

// bestFace picks the highest scoring detection and converts it to a bounding box.
func bestFace(faces []pigo.Detection, minQuality float32, height, width int) (BoundingBox, error) {
	best := -1
	for i, face := range faces {
		if face.Q < minQuality {
			continue
		}
		if best < 0 || face.Q > faces[best].Q {
			best = i
		}
	}
	if best < 0 {
		return BoundingBox{}, ErrNoFaceDetected
	}

	face := faces[best]
	rect := image.Rect(
		face.Col-face.Scale/2,
		face.Row-face.Scale/2,
		face.Col+face.Scale/2,
		face.Row+face.Scale/2,
	).Intersect(image.Rect(0, 0, width, height))

	if rect.Empty() {
		return BoundingBox{}, ErrNoFaceDetected
	}
	return BoxFromRect(rect), nil
}
