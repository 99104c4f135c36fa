package ocr

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // register jpeg decoding for support photos
	"image/png"
	"os"
	"path/filepath"
)

func (e *Extractor) extractImage(ctx context.Context, path string) (ExtractionResult, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return ExtractionResult{Warnings: warn}, err
	}
	return ExtractionResult{
		Text:     Normalize(txt),
		Pages:    1,
		Method:   "image-ocr",
		Language: e.cfg.TesseractLang,
		Warnings: warn,
	}, nil
}

func (e *Extractor) imageRegions(ctx context.Context, path string, regions []Region) ([]RegionText, error) {
	bands, err := e.imageBandOCR(ctx, path, regions)
	if err != nil {
		return nil, err
	}
	out := make([]RegionText, 0, len(bands))
	for j, txt := range bands {
		out = append(out, RegionText{Page: 0, Region: regions[j], Text: txt})
	}
	return out, nil
}

// imageBandOCR crops each region band out of the image and OCRs it
// separately. Bands are written as temp PNGs because tesseract reads files.
func (e *Extractor) imageBandOCR(ctx context.Context, path string, regions []Region) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	img, _, err := image.Decode(f)
	if cerr := f.Close(); cerr != nil {
		e.logger.Warn("close image", "path", path, "error", cerr)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	tmpDir, err := os.MkdirTemp("", "tbc-band-*")
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := os.RemoveAll(tmpDir); rerr != nil {
			e.logger.Warn("remove temp dir", "dir", tmpDir, "error", rerr)
		}
	}()

	bounds := img.Bounds()
	height := bounds.Dy()

	texts := make([]string, len(regions))
	for j, r := range regions {
		top := bounds.Min.Y + int(r.Top*float64(height))
		bottom := bounds.Min.Y + int(r.Bottom*float64(height))
		if bottom <= top {
			continue
		}
		band := cropImage(img, image.Rect(bounds.Min.X, top, bounds.Max.X, bottom))

		bandPath := filepath.Join(tmpDir, fmt.Sprintf("band-%d.png", j))
		if err := writePNG(bandPath, band); err != nil {
			return nil, err
		}
		txt, _, err := e.tesseractOCR(ctx, bandPath)
		if err != nil {
			return nil, err
		}
		texts[j] = Normalize(txt)
	}
	return texts, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func cropImage(img image.Image, rect image.Rectangle) image.Image {
	if s, ok := img.(subImager); ok {
		return s.SubImage(rect)
	}
	// Fallback copy for decoders without SubImage.
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			dst.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return dst
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(out, img); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
