package ocr

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner replays canned stdout per command and records invocations.
type fakeRunner struct {
	outputs map[string][]byte // command name -> stdout
	fail    map[string]error
	calls   [][]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if err := r.fail[name]; err != nil {
		return nil, []byte("boom"), err
	}
	return r.outputs[name], nil, nil
}

func TestNormalize(t *testing.T) {
	in := "Pago  recibido\r\n\r\n\r\n\r\nABONADO   \t ok  \n____\n"
	got := Normalize(in)
	assert.NotContains(t, got, "\r")
	assert.NotContains(t, got, "\n\n\n")
	assert.Contains(t, got, "ABONADO ok")
	// receipt numbers with leading zeros survive untouched
	assert.Equal(t, "No. 00123", Normalize("No.  00123"))
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	_, err := e.Extract(context.Background(), "/in/notes.txt")
	assert.Error(t, err)
}

func TestExtractImageUsesTesseract(t *testing.T) {
	e := NewExtractor(Config{TesseractLang: "spa"}, nil)
	runner := &fakeRunner{outputs: map[string][]byte{"tesseract": []byte("ABONADO  $150.000")}}
	e.runner = runner

	res, err := e.Extract(context.Background(), "/in/soporte.png")
	require.NoError(t, err)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, 1, res.Pages)
	assert.Equal(t, "ABONADO $150.000", res.Text)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "tesseract", call[0])
	assert.Contains(t, call, "-l")
	assert.Contains(t, call, "spa")
	assert.Contains(t, call, "stdout")
}

func TestExtractImageTesseractFailure(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	e.runner = &fakeRunner{fail: map[string]error{"tesseract": fmt.Errorf("exit status 1")}}

	_, err := e.Extract(context.Background(), "/in/soporte.png")
	assert.Error(t, err)
}

// writeTestImage writes a white png with the given size.
func writeTestImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestExtractRegionsImageCropsBands(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "soporte.png")
	writeTestImage(t, imgPath, 60, 300)

	e := NewExtractor(Config{}, nil)
	runner := &fakeRunner{outputs: map[string][]byte{"tesseract": []byte("ABONADO")}}
	e.runner = runner

	got, err := e.ExtractRegions(context.Background(), imgPath, SupportRegions)
	require.NoError(t, err)
	require.Len(t, got, len(SupportRegions))

	for i, rt := range got {
		assert.Equal(t, 0, rt.Page)
		assert.Equal(t, SupportRegions[i], rt.Region)
		assert.Equal(t, "ABONADO", rt.Text)
	}
	// one tesseract invocation per band, each on its own cropped file
	require.Len(t, runner.calls, len(SupportRegions))
	seen := map[string]bool{}
	for _, call := range runner.calls {
		seen[call[1]] = true
	}
	assert.Len(t, seen, len(SupportRegions))
}

func TestSupportRegionsOverlapAndCoverPage(t *testing.T) {
	require.Len(t, SupportRegions, 3)
	assert.Equal(t, 0.0, SupportRegions[0].Top)
	assert.Equal(t, 1.0, SupportRegions[2].Bottom)
	for i := 1; i < len(SupportRegions); i++ {
		// each band starts before the previous one ends
		assert.Less(t, SupportRegions[i].Top, SupportRegions[i-1].Bottom)
	}
}

func TestRasterizeArgs(t *testing.T) {
	e := NewExtractor(Config{DPI: 150}, nil)
	runner := &fakeRunner{}
	e.runner = runner

	// No pngs appear because the fake runner renders nothing; we only care
	// about the invocation.
	_, cleanup, _, err := e.rasterize(context.Background(), "/in/scan.pdf")
	if cleanup != nil {
		defer cleanup()
	}
	assert.Error(t, err)

	require.Len(t, runner.calls, 1)
	call := strings.Join(runner.calls[0], " ")
	assert.Contains(t, call, "pdftoppm")
	assert.Contains(t, call, "-r 150")
	assert.Contains(t, call, "-png")
	assert.Contains(t, call, "/in/scan.pdf")
}
