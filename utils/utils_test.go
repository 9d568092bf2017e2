package utils

import (
	"bytes"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func TestUtils_ShouldDownloadImage(t *testing.T) {
	data := encodePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	f, err := DownloadImage(srv.URL + "/sample.png")
	require.NoError(t, err)
	defer os.Remove(f.Name())
	defer f.Close()

	assert.True(t, strings.HasPrefix(filepath.Base(f.Name()), "skinfilter-"))
	_, err = png.Decode(f)
	assert.NoError(t, err, "the temporary file should be rewound")
}

func TestUtils_ShouldRejectNonImageDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>not an image</body></html>"))
	}))
	defer srv.Close()

	f, err := DownloadImage(srv.URL)
	if f != nil {
		f.Close()
		os.Remove(f.Name())
	}
	assert.Error(t, err)
}

func TestUtils_ShouldFailOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f, err := DownloadImage(srv.URL)
	assert.Nil(t, f)
	assert.Error(t, err)
}

func TestUtils_ShouldBeValidUrl(t *testing.T) {
	assert.True(t, IsValidUrl("https://github.com/esimov/skinfilter/"))
	assert.False(t, IsValidUrl("testdata/sample.png"))
	assert.False(t, IsValidUrl("-"))
}

func TestUtils_ShouldDetectValidFileType(t *testing.T) {
	sampleImg := filepath.Join(t.TempDir(), "sample.png")
	require.NoError(t, os.WriteFile(sampleImg, encodePNG(t), 0644))

	ftype, err := DetectContentType(sampleImg)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ftype)
}

func TestUtils_FormatTime(t *testing.T) {
	assert.Equal(t, "1.50s", FormatTime(1500*time.Millisecond))
	assert.Equal(t, "2m 5.00s", FormatTime(2*time.Minute+5*time.Second))
	assert.Equal(t, "1h 1m 1.00s", FormatTime(time.Hour+time.Minute+time.Second))
	assert.Equal(t, "1d 2h 0m 0.00s", FormatTime(26*time.Hour))
	assert.Equal(t, "59.99s", FormatTime(59990*time.Millisecond))
}

func TestUtils_DecorateText(t *testing.T) {
	assert.Equal(t, SuccessColor+"ok"+DefaultColor, DecorateText("ok", SuccessMessage))
	assert.Equal(t, ErrorColor+"fail"+DefaultColor, DecorateText("fail", ErrorMessage))
	assert.Equal(t, "plain", DecorateText("plain", MessageType(42)))
}

func TestUtils_StatusLine(t *testing.T) {
	line := StatusLine("done", SuccessMessage)
	assert.Equal(t, StatusColor+AppName+DefaultColor+" "+SuccessColor+"done"+DefaultColor, line)
}
