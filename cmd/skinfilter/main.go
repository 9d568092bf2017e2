package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"github.com/esimov/skinfilter"
	"github.com/esimov/skinfilter/utils"
)

const HelpBanner = `
┌─┐┬┌─┬┌┐┌┌─┐┬┬ ┌┬┐┌─┐┬─┐
└─┐├┴┐││││├┤ ││  │ ├┤ ├┬┘
└─┘┴ ┴┴┘└┘└  ┴┴─┘┴ └─┘┴└─

Adaptive skin color detection.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source        = flag.String("in", pipeName, "Source")
	destination   = flag.String("out", pipeName, "Destination")
	threshold     = flag.Float64("t", 0.5, "Skin probability threshold")
	radiusRatio   = flag.Float64("radius", skinfilter.DefaultRadiusRatio, "Radius of the circular sample region relative to the sample size")
	radiusAxis    = flag.String("axis", "width", "Sample dimension the radius is relative to (width|height)")
	lumaDeviation = flag.Float64("luma", skinfilter.DefaultLumaDeviation, "Allowed luma deviation of the sample pixels, in standard deviations")
	faceDetect    = flag.Bool("face", false, "Learn the skin color from the detected face")
	cascade       = flag.String("cc", "", "Cascade classifier")
	faceAngle     = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	box           = flag.String("box", "", "Sample region as top,bottom,left,right")
	maskOnly      = flag.Bool("mask", false, "Output the binary skin mask")
	plotPath      = flag.String("plot", "", "Save the chromaticity plot of the sample (png, svg, pdf)")
	workers       = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	classWorkers  = flag.Int("workers", 1, "Number of goroutines classifying a single image")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	axis, err := skinfilter.ParseAxis(*radiusAxis)
	if err != nil {
		fatal(err)
	}

	proc := skinfilter.NewProcessor()
	proc.Threshold = *threshold
	proc.RadiusRatio = *radiusRatio
	proc.RadiusAxis = axis
	proc.LumaDeviation = *lumaDeviation
	proc.Workers = *classWorkers
	proc.FaceDetect = *faceDetect
	proc.FaceAngle = *faceAngle
	proc.Classifier = *cascade
	proc.MaskOnly = *maskOnly
	proc.PlotPath = *plotPath

	if len(*box) > 0 {
		b, err := skinfilter.ParseBox(*box)
		if err != nil {
			fatal(err)
		}
		proc.Box = &b
	}

	if *faceDetect && len(*cascade) == 0 {
		flag.Usage()
		fatal(fmt.Errorf("please specify a face classifier in case you are using the -face flag"))
	}

	spinnerText := utils.StatusLine("is detecting the skin pixels...", utils.DefaultMessage)
	proc.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)

	op := &skinfilter.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	}
	if err := proc.Execute(op); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	log.Fatal(fmt.Sprintf("%s%s",
		utils.DecorateText(fmt.Sprintf("\n%v", err), utils.ErrorMessage),
		utils.DefaultColor,
	))
}
