/*
Package skinfilter is an adaptive skin color detection library. It learns the skin tone of a
person from a sample region of an image, usually the face, and uses it to find the skin pixels
of the whole image.

The sample pixels are selected by a circular mask centered on the sample and by a luma band
pruning the too dark and too bright pixels (eyes, hair, highlights). The selected pixels are
projected into the normalized rg chromaticity space, where a 2D Gaussian is fitted on them.
A pixel is classified as skin when exp(-0.5 * d²), d being its Mahalanobis distance to the
mean, exceeds a threshold.

The package provides a command line interface, supporting various flags for picking the sample region
and tuning the model. To check the supported commands type:

	$ skinfilter --help

In case you wish to integrate the API in a self constructed environment here is a simple example:

	package main

	import (
		"fmt"
		"github.com/esimov/skinfilter"
	)

	func main() {
		model := skinfilter.NewModel()
		if err := model.Fit(face); err != nil {
			fmt.Printf("Error fitting the skin color model: %s", err.Error())
		}

		mask, err := model.Classify(img, 0.5)
		if err != nil {
			fmt.Printf("Error classifying the image: %s", err.Error())
		}
	}
*/
package skinfilter
