// Package pdfdoc builds the merged per-transaction output document: the
// transfer pages followed by the support pages, the support optionally
// cropped to the band that carried the confirmation keyword.
package pdfdoc

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // support photos come in as jpg/png
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/common"
)

// Band is a horizontal slice of a page in fractions of the page height,
// measured from the top edge.
type Band struct {
	Top    float64
	Bottom float64
}

// Assembler merges transfer and support documents with pdfkit.
type Assembler struct {
	logger *slog.Logger
}

func NewAssembler(logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{logger: logger}
}

// MergeToFile writes transfer pages followed by support pages into outPath.
// supportCrop, when non-nil, crops every support PDF page to that band; it is
// ignored for image supports. Page order within each source is preserved.
func (a *Assembler) MergeToFile(ctx context.Context, transferPath, supportPath string, supportCrop *Band, outPath string) error {
	b := builder.NewBuilder()

	if err := a.appendDocument(ctx, b, transferPath, nil); err != nil {
		return common.WrapError(err, "append transfer")
	}
	if err := a.appendDocument(ctx, b, supportPath, supportCrop); err != nil {
		return common.WrapError(err, "append support")
	}

	doc, err := b.Build()
	if err != nil {
		return common.NewAppError("PDF_BUILD", "build merged document", err)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return common.NewAppError("PDF_WRITE", fmt.Sprintf("create %s", outPath), err)
	}

	w := writer.NewWriter()
	werr := w.Write(ctx, doc, out, writer.Config{Version: writer.PDF17, Compression: 9})
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return common.NewAppError("PDF_WRITE", fmt.Sprintf("write %s", outPath), werr)
	}

	a.logger.Debug("pdf.merge.ok", "transfer", transferPath, "support", supportPath, "out", outPath)
	return nil
}

// appendDocument adds the pages of one input file to the builder, dispatching
// on format. The file handle is released before returning.
func (a *Assembler) appendDocument(ctx context.Context, b builder.PDFBuilder, path string, crop *Band) error {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return a.appendPDF(ctx, b, path, crop)
	case constants.IMAGE:
		return a.appendImage(b, path)
	default:
		return common.NewAppError("PDF_FORMAT", fmt.Sprintf("unsupported extension %q", ext), common.ErrFileNotReadable)
	}
}

func (a *Assembler) appendPDF(ctx context.Context, b builder.PDFBuilder, path string, crop *Band) error {
	f, err := os.Open(path)
	if err != nil {
		return common.NewAppError("PDF_OPEN", path, common.ErrFileNotReadable)
	}
	defer f.Close()

	pipe := ir.NewDefault()
	doc, err := pipe.Parse(ctx, f)
	if err != nil {
		return common.NewAppError("PDF_PARSE", path, common.ErrFileNotReadable)
	}

	for _, page := range doc.Pages {
		if crop != nil {
			cropPage(page, *crop)
		}
		b.AddPage(page)
	}
	return nil
}

// cropPage narrows a page's visible area to the band. Band fractions are
// measured from the top of the page; PDF rectangles grow upward, hence the
// inversion.
func cropPage(page *semantic.Page, band Band) {
	box := page.MediaBox
	height := box.URY - box.LLY

	upper := box.URY - band.Top*height
	lower := box.URY - band.Bottom*height

	clipped := semantic.Rectangle{LLX: box.LLX, LLY: lower, URX: box.URX, URY: upper}
	page.CropBox = clipped
	page.MediaBox = clipped
	page.Dirty = true
}

// appendImage places a png/jpg support on its own page sized to the image.
func (a *Assembler) appendImage(b builder.PDFBuilder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return common.NewAppError("IMG_OPEN", path, common.ErrFileNotReadable)
	}
	img, _, err := image.Decode(f)
	if cerr := f.Close(); cerr != nil {
		a.logger.Warn("close image", "path", path, "error", cerr)
	}
	if err != nil {
		return common.NewAppError("IMG_DECODE", path, common.ErrFileNotReadable)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	pdfImg := &semantic.Image{
		Width:            width,
		Height:           height,
		BitsPerComponent: 8,
		ColorSpace:       semantic.DeviceColorSpace{Name: "DeviceRGB"},
		Data:             imageToRGB(img),
	}

	b.NewPage(float64(width), float64(height)).
		DrawImage(pdfImg, 0, 0, float64(width), float64(height), builder.ImageOptions{}).
		Finish()
	return nil
}

func imageToRGB(img image.Image) []byte {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	data := make([]byte, w*h*3)
	idx := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			data[idx] = byte(r >> 8)
			data[idx+1] = byte(g >> 8)
			data[idx+2] = byte(bl >> 8)
			idx += 3
		}
	}
	return data
}
