package skinfilter

import "errors"

var (
	// ErrShapeMismatch is returned when an image is not a (3, height, width) array
	// or its pixel buffer does not match the declared dimensions.
	ErrShapeMismatch = errors.New("image must have 3 channels laid out as (channels, height, width)")

	// ErrMaskShape is returned when two masks of different sizes are combined.
	ErrMaskShape = errors.New("mask dimensions do not match")

	// ErrInsufficientSamples is returned by Fit when the circular and luma masks
	// leave no pixel to estimate the skin color distribution from.
	ErrInsufficientSamples = errors.New("no sample pixels left after circular and luma masking")

	// ErrInvalidBox is returned for an empty bounding box or one lying outside of the image.
	ErrInvalidBox = errors.New("invalid bounding box")

	// ErrNoFaceDetected is returned by the face detector when no face passes the quality threshold.
	ErrNoFaceDetected = errors.New("no face detected in the image")
)
