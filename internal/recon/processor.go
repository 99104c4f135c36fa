// Package recon runs the reconciliation batch: for every control record it
// locates the support and transfer documents, classifies the support, merges
// the pair into one output PDF and records a result row. One record at a
// time, and one record's failure never aborts the rest.
package recon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/common"
	"github.com/dfmorales/tb-conciliador/internal/entity"
	"github.com/dfmorales/tb-conciliador/internal/match"
	"github.com/dfmorales/tb-conciliador/internal/ocr"
	"github.com/dfmorales/tb-conciliador/internal/pdfdoc"
)

// Merger is what the processor needs from the PDF layer.
type Merger interface {
	MergeToFile(ctx context.Context, transferPath, supportPath string, supportCrop *pdfdoc.Band, outPath string) error
}

// Summary aggregates one run.
type Summary struct {
	Total     int
	Paid      int
	Rejected  int
	Unmatched int
	Outputs   int
}

// Processor wires matcher, extractor, classifier and merger together.
type Processor struct {
	matcher    *match.Matcher
	extractor  ocr.TextExtractor
	classifier *Classifier
	merger     Merger
	logger     *slog.Logger

	// Progress, when set, is called after every record.
	Progress func(done, total int)
}

func NewProcessor(matcher *match.Matcher, extractor ocr.TextExtractor, classifier *Classifier, merger Merger, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		matcher:    matcher,
		extractor:  extractor,
		classifier: classifier,
		merger:     merger,
		logger:     logger,
	}
}

// Run processes every record sequentially and always returns a full result
// set; the error is reserved for being unable to create the output directory.
func (p *Processor) Run(ctx context.Context, records []entity.ControlRecord, supports, transfers []entity.Document, outDir string) ([]entity.ResultRow, Summary, error) {
	runID := uuid.New()
	start := time.Now()
	logger := p.logger.With("run_id", runID.String())

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, Summary{}, fmt.Errorf("create output dir %s: %w", outDir, err)
	}

	// Extracted text is cached per document so a file is read once per run
	// regardless of how many records probe it.
	textCache := map[string]string{}
	textOf := func(d entity.Document) string {
		if txt, ok := textCache[d.Path]; ok {
			return txt
		}
		res, err := p.extractor.Extract(ctx, d.Path)
		if err != nil {
			logger.Warn("text lookup failed", "path", d.Path, "error", err)
			textCache[d.Path] = ""
			return ""
		}
		textCache[d.Path] = res.Text
		return res.Text
	}

	rows := make([]entity.ResultRow, 0, len(records))
	var sum Summary
	sum.Total = len(records)

	for i, rec := range records {
		row := p.processRecord(ctx, logger, rec, supports, transfers, textOf, outDir)
		rows = append(rows, row)

		switch row.Status {
		case constants.StatusPaid:
			sum.Paid++
		case constants.StatusRejected:
			sum.Rejected++
		default:
			sum.Unmatched++
		}
		if row.OutputPath != "" {
			sum.Outputs++
		}
		if p.Progress != nil {
			p.Progress(i+1, len(records))
		}
	}

	logger.Info("recon.run.ok",
		"records", sum.Total,
		"paid", sum.Paid,
		"rejected", sum.Rejected,
		"unmatched", sum.Unmatched,
		"outputs", sum.Outputs,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return rows, sum, nil
}

func (p *Processor) processRecord(ctx context.Context, logger *slog.Logger, rec entity.ControlRecord, supports, transfers []entity.Document, textOf func(entity.Document) string, outDir string) entity.ResultRow {
	row := entity.ResultRow{
		ReceiptNumber: rec.ReceiptNumber,
		Payer:         rec.Payer,
		Status:        constants.StatusUnmatched,
	}

	// 1. Unique support document.
	supRes := p.matcher.FindSupport(rec, supports, textOf)
	switch supRes.Outcome {
	case match.OutcomeNone:
		logger.Warn("support not matched", "receipt", rec.ReceiptNumber, "error", common.ErrNoCandidateFound)
		row.Reason = "no candidate support found"
		return row
	case match.OutcomeAmbiguous:
		logger.Warn("support not matched", "receipt", rec.ReceiptNumber, "error", common.ErrAmbiguousCandidates)
		row.Reason = fmt.Sprintf("ambiguous support candidates (%d)", len(supRes.Candidates))
		return row
	}
	support := supRes.Best.Doc

	// 2. Region texts and classification.
	var cls Classification
	regions, err := p.extractor.ExtractRegions(ctx, support.Path, ocr.SupportRegions)
	if err != nil {
		logger.Warn("region extraction failed", "receipt", rec.ReceiptNumber, "path", support.Path,
			"error", common.WrapError(err, common.ErrOCRFailure.Error()))
		cls = Classification{Status: constants.StatusRejected, Reason: fmt.Sprintf("ocr failure: %v", err)}
	} else {
		cls = p.classifier.Classify(rec, regions)
	}

	// 3. Unique transfer document. Missing transfer unmatches the record
	// even when the support was found.
	tbRes := p.matcher.FindTransfer(rec, transfers, textOf)
	switch tbRes.Outcome {
	case match.OutcomeNone:
		logger.Warn("transfer not matched", "receipt", rec.ReceiptNumber, "error", common.ErrTransferMissing)
		row.Reason = "transfer document missing"
		return row
	case match.OutcomeAmbiguous:
		logger.Warn("transfer not matched", "receipt", rec.ReceiptNumber, "error", common.ErrAmbiguousCandidates)
		row.Reason = fmt.Sprintf("ambiguous transfer candidates (%d)", len(tbRes.Candidates))
		return row
	}
	transfer := tbRes.Best.Doc

	row.Matched = true
	row.Status = cls.Status
	row.Reason = cls.Reason

	// 4. Merge into the deterministic output document. The support is
	// cropped to the keyword band when one band carried it alone.
	outPath := filepath.Join(outDir, pdfdoc.OutputFilename(rec.ReceiptNumber, rec.Payer))
	var crop *pdfdoc.Band
	if cls.KeywordBand != nil && support.Format == constants.PDF {
		crop = &pdfdoc.Band{Top: cls.KeywordBand.Top, Bottom: cls.KeywordBand.Bottom}
	}
	if err := p.merger.MergeToFile(ctx, transfer.Path, support.Path, crop, outPath); err != nil {
		logger.Error("merge failed", "receipt", rec.ReceiptNumber, "out", outPath,
			"error", common.WrapError(err, common.ErrWriteFailure.Error()))
		// PAID always has an output file; a failed write downgrades the row.
		row.Status = constants.StatusRejected
		row.Reason = fmt.Sprintf("write failure: %v", err)
		return row
	}
	row.OutputPath = outPath

	logger.Info("record processed",
		"receipt", rec.ReceiptNumber,
		"status", string(row.Status),
		"support", support.Path,
		"transfer", transfer.Path,
		"output", outPath,
	)
	return row
}
