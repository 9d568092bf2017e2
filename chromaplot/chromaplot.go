// Package chromaplot draws the normalized rg chromaticity of the pixels a skin color
// model was fitted on, together with the fitted mean.
//
// It is mainly used to debug the sampling stage: a tight cluster around the mean means
// the circular and luma masks did their job, while a stretched or split cloud
// indicates that background or hair pixels leaked into the sample.
package chromaplot

import (
	"errors"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Size is the edge length of the rendered plot.
const Size = 5 * vg.Inch

var (
	sampleColor = color.NRGBA{R: 0xd9, G: 0x8c, B: 0x5f, A: 0xa0}
	meanColor   = color.NRGBA{R: 0x1f, G: 0x3a, B: 0x93, A: 0xff}
)

// New builds the scatter plot of the (r, g) samples and the mean.
func New(r, g []float64, mean [2]float64) (*plot.Plot, error) {
	if len(r) != len(g) {
		return nil, errors.New("chromaticity planes differ in length")
	}

	p := plot.New()
	p.Title.Text = "Skin color sample"
	p.X.Label.Text = "r = R/(R+G+B)"
	p.Y.Label.Text = "g = G/(R+G+B)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(r))
	for i := range r {
		pts[i].X = r[i]
		pts[i].Y = g[i]
	}
	samples, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	samples.GlyphStyle.Color = sampleColor
	samples.GlyphStyle.Radius = vg.Points(1)
	samples.GlyphStyle.Shape = draw.CircleGlyph{}

	center, err := plotter.NewScatter(plotter.XYs{{X: mean[0], Y: mean[1]}})
	if err != nil {
		return nil, err
	}
	center.GlyphStyle.Color = meanColor
	center.GlyphStyle.Radius = vg.Points(4)
	center.GlyphStyle.Shape = draw.CrossGlyph{}

	p.Add(samples, center)
	p.Legend.Add("samples", samples)
	p.Legend.Add("mean", center)
	p.Legend.Top = true

	return p, nil
}

// Save renders the plot to a file. The format is taken from the file extension.
func Save(path string, r, g []float64, mean [2]float64) error {
	p, err := New(r, g, mean)
	if err != nil {
		return err
	}
	return p.Save(Size, Size, path)
}
