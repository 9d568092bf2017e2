package skinfilter

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	imgWidth  = 40
	imgHeight = 40
)

var (
	background = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
	skinBox    = BoundingBox{Top: 10, Bottom: 30, Left: 10, Right: 30}
)

// makeSkinImage returns a blue image with a noisy skin colored square in the middle.
func makeSkinImage(seed int64) *image.NRGBA {
	rnd := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			c := background
			if image.Pt(x, y).In(skinBox.Rect()) {
				c = color.NRGBA{
					R: uint8(170 + rnd.Intn(40)),
					G: uint8(110 + rnd.Intn(30)),
					B: uint8(80 + rnd.Intn(25)),
					A: 255,
				}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestProcessor_Defaults(t *testing.T) {
	p := NewProcessor()
	assert.Equal(t, 0.5, p.Threshold)

	m := p.Model()
	assert.Equal(t, DefaultRadiusRatio, m.RadiusRatio)
	assert.Equal(t, AxisWidth, m.RadiusAxis)
	assert.Equal(t, DefaultLumaDeviation, m.LumaDeviation)
}

func TestProcessor_FilterWithBox(t *testing.T) {
	p := NewProcessor()
	box := skinBox
	p.Box = &box

	model, mask, err := p.Filter(makeSkinImage(1))
	require.NoError(t, err)
	assert.False(t, model.Degenerate())
	assert.Equal(t, imgHeight, mask.Height)
	assert.Equal(t, imgWidth, mask.Width)

	var skin int
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			if !image.Pt(x, y).In(skinBox.Rect()) {
				assert.False(t, mask.At(y, x), "background pixel (%d, %d)", x, y)
			} else if mask.At(y, x) {
				skin++
			}
		}
	}
	assert.Greater(t, skin, 40)
}

func TestProcessor_SampleRegion(t *testing.T) {
	img := makeSkinImage(1)
	p := NewProcessor()

	box, err := p.sampleRegion(img)
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{Top: 0, Bottom: imgHeight, Left: 0, Right: imgWidth}, box)

	p.Box = &BoundingBox{Top: 0, Bottom: imgHeight + 1, Left: 0, Right: 10}
	_, err = p.sampleRegion(img)
	assert.ErrorIs(t, err, ErrInvalidBox)
}

func TestProcessor_FaceDetectNeedsClassifier(t *testing.T) {
	p := NewProcessor()
	p.FaceDetect = true

	_, _, err := p.Filter(makeSkinImage(1))
	assert.Error(t, err)
	assert.Nil(t, p.FaceDetector)
}

func TestProcessor_ProcessToFile(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, makeSkinImage(2)))

	p := NewProcessor()
	p.Box = &skinBox
	p.PlotPath = filepath.Join(t.TempDir(), "chroma.png")

	out, err := os.Create(filepath.Join(t.TempDir(), "skin.png"))
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, p.Process(&src, out))

	_, err = out.Seek(0, 0)
	require.NoError(t, err)
	res, err := png.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, imgWidth, imgHeight), res.Bounds())

	// Background pixels are blacked out.
	r, g, b, _ := res.At(0, 0).RGBA()
	assert.Equal(t, [3]uint32{0, 0, 0}, [3]uint32{r, g, b})

	var kept int
	for y := skinBox.Top; y < skinBox.Bottom; y++ {
		for x := skinBox.Left; x < skinBox.Right; x++ {
			if r, _, _, _ := res.At(x, y).RGBA(); r > 0 {
				kept++
			}
		}
	}
	assert.Greater(t, kept, 40)

	info, err := os.Stat(p.PlotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProcessor_MaskOnly(t *testing.T) {
	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, makeSkinImage(3)))

	p := NewProcessor()
	p.Box = &skinBox
	p.MaskOnly = true
	p.Workers = 4

	out, err := os.Create(filepath.Join(t.TempDir(), "mask.png"))
	require.NoError(t, err)
	defer out.Close()
	require.NoError(t, p.Process(&src, out))

	_, err = out.Seek(0, 0)
	require.NoError(t, err)
	res, err := png.Decode(out)
	require.NoError(t, err)

	gray, ok := res.(*image.Gray)
	require.True(t, ok, "expected a grayscale mask, got %T", res)
	for _, v := range gray.Pix {
		assert.Contains(t, []uint8{0, 0xff}, v)
	}
	assert.Equal(t, uint8(0), gray.GrayAt(0, 0).Y)
	assert.Equal(t, uint8(0), gray.GrayAt(imgWidth-1, imgHeight-1).Y)
}

func TestProcessor_InvalidSource(t *testing.T) {
	p := NewProcessor()
	var out bytes.Buffer
	assert.Error(t, p.Process(bytes.NewReader([]byte("not an image")), &out))
}
