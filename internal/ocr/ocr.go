// Package ocr extracts text from support and transfer documents. PDFs with
// embedded text are read directly; scanned PDFs are rasterized with pdftoppm
// and run through tesseract; images go to tesseract as-is. The external
// engines sit behind the Runner interface so the package is testable without
// them.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/common"
)

// Region is a horizontal band of a page, expressed as fractions of the page
// height measured from the top. Regions may overlap.
type Region struct {
	Top    float64
	Bottom float64
}

// SupportRegions are the three bands each support page is divided into.
// They overlap slightly so content near a boundary is never cut off.
var SupportRegions = []Region{
	{Top: 0.0, Bottom: 0.34},
	{Top: 0.32, Bottom: 0.68},
	{Top: 0.64, Bottom: 1.0},
}

// RegionText is the extracted text of one region of one page.
type RegionText struct {
	Page   int // 0-indexed
	Region Region
	Text   string
}

// ExtractionResult carries whole-document text plus extraction metadata.
type ExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language string
	Duration time.Duration
	Warnings []string
}

// TextExtractor is the narrow interface the reconciliation logic depends on.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ExtractionResult, error)
	ExtractRegions(ctx context.Context, path string, regions []Region) ([]RegionText, error)
}

// Config for the command-line OCR engines.
type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "spa"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit
}

// Extractor implements TextExtractor over pdfkit and the external engines.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "spa"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return ExtractionResult{}, common.NewAppError("OCR_EXT", fmt.Sprintf("unsupported extension: %q", ext), common.ErrFileNotReadable)
	}
}

// ExtractRegions extracts text per region band. For embedded-text PDFs the
// whole page text is returned for each band (the text layer carries no
// reliable coordinates after decoding); for scanned PDFs and images each band
// is cropped out of the rasterized page before OCR.
func (e *Extractor) ExtractRegions(ctx context.Context, path string, regions []Region) ([]RegionText, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		return e.pdfRegions(ctx, path, regions)
	case constants.IMAGE:
		return e.imageRegions(ctx, path, regions)
	default:
		return nil, common.NewAppError("OCR_EXT", fmt.Sprintf("unsupported extension: %q", ext), common.ErrFileNotReadable)
	}
}
