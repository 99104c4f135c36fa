package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wudi/pdfkit/extractor"
	"github.com/wudi/pdfkit/ir"
)

// pdfEmbeddedText pulls the text layer out of a PDF, one string per page.
// An empty slice (or all-blank pages) means the document is a scan.
func pdfEmbeddedText(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	pipe := ir.NewDefault()
	doc, err := pipe.Parse(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	dec := doc.Decoded()
	if dec == nil {
		return nil, fmt.Errorf("pipeline produced no decoded document")
	}

	ext, err := extractor.New(dec)
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	pages, err := ext.ExtractText()
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	out := make([]string, len(doc.Pages))
	for _, p := range pages {
		if p.Page >= 0 && p.Page < len(out) {
			out[p.Page] = p.Content
		}
	}
	return out, nil
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	pages, err := pdfEmbeddedText(ctx, path)
	if err == nil && hasText(pages) {
		return ExtractionResult{
			Text:     Normalize(strings.Join(pages, "\n\f\n")),
			Pages:    len(pages),
			Method:   "pdf-text",
			Language: e.cfg.TesseractLang,
		}, nil
	}

	var warns []string
	if err != nil {
		warns = append(warns, err.Error())
	}

	text, n, w, err := e.pdfToOCR(ctx, path)
	warns = append(warns, w...)
	if err != nil {
		return ExtractionResult{Warnings: warns}, err
	}
	return ExtractionResult{
		Text:     Normalize(text),
		Pages:    n,
		Method:   "pdf-ocr",
		Language: e.cfg.TesseractLang,
		Warnings: warns,
	}, nil
}

// pdfToOCR rasterizes every page and runs tesseract over the images.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	pngs, cleanup, warns, err := e.rasterize(ctx, path)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return "", 0, warns, err
	}

	var b strings.Builder
	for _, img := range pngs {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(pngs), warns, nil
}

// rasterize renders the PDF into per-page PNGs under a temp dir.
// Call cleanup() to remove them.
func (e *Extractor) rasterize(ctx context.Context, path string) (pngs []string, cleanup func(), warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "tbc-pp-*")
	if err != nil {
		return nil, nil, nil, err
	}
	cleanup = func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return nil, cleanup, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return nil, cleanup, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}
	return matches, cleanup, nil, nil
}

func (e *Extractor) pdfRegions(ctx context.Context, path string, regions []Region) ([]RegionText, error) {
	pages, err := pdfEmbeddedText(ctx, path)
	if err == nil && hasText(pages) {
		// The decoded text layer carries no usable coordinates, so every
		// band of a page gets the full page text. Keyword checks only care
		// about presence, not position.
		var out []RegionText
		for i, p := range pages {
			norm := Normalize(p)
			for _, r := range regions {
				out = append(out, RegionText{Page: i, Region: r, Text: norm})
			}
		}
		return out, nil
	}

	pngs, cleanup, _, err := e.rasterize(ctx, path)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		return nil, err
	}

	var out []RegionText
	for i, img := range pngs {
		bands, err := e.imageBandOCR(ctx, img, regions)
		if err != nil {
			e.logger.Warn("region ocr failed", "path", path, "page", i, "error", err)
			continue
		}
		for j, txt := range bands {
			out = append(out, RegionText{Page: i, Region: regions[j], Text: txt})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no regions extracted from %s", path)
	}
	return out, nil
}
