package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/dfmorales/tb-conciliador/internal/common"
	"github.com/dfmorales/tb-conciliador/internal/control"
	"github.com/dfmorales/tb-conciliador/internal/export"
	"github.com/dfmorales/tb-conciliador/internal/match"
	"github.com/dfmorales/tb-conciliador/internal/ocr"
	"github.com/dfmorales/tb-conciliador/internal/pdfdoc"
	"github.com/dfmorales/tb-conciliador/internal/recon"
	"github.com/dfmorales/tb-conciliador/internal/scan"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		controlPath = flag.String("control", "", "path to the control workbook (required)")
		soportes    = flag.String("soportes", "", "directory holding support documents (required)")
		tbs         = flag.String("tbs", "", "directory holding transfer documents (required)")
		outDir      = flag.String("out", "", "output directory for merged PDFs (required)")
		xlsxOut     = flag.String("xlsx", "", "summary XLSX path (default <out>/resultados.xlsx)")
		csvOut      = flag.String("csv", "", "summary CSV path (default <out>/resultados.csv)")
		keyword     = flag.String("keyword", "", "confirmation keyword (default from env, ABONADO)")
		threshold   = flag.Int("threshold", 0, "fuzzy name-match threshold 1-100 (default from env, 80)")
		recursive   = flag.Bool("recursive", false, "scan input directories recursively")
		verbose     = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *controlPath == "" || *soportes == "" || *tbs == "" || *outDir == "" {
		printError("Error: -control, -soportes, -tbs and -out are required\n")
		flag.Usage()
		os.Exit(1)
	}
	if *xlsxOut == "" {
		*xlsxOut = filepath.Join(*outDir, "resultados.xlsx")
	}
	if *csvOut == "" {
		*csvOut = filepath.Join(*outDir, "resultados.csv")
	}

	// Setup logger
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// .env is optional; flags override env values.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("load .env", "error", err)
	}

	cfg := common.LoadConfig()
	if *keyword != "" {
		cfg.Match.Keyword = *keyword
	}
	if *threshold > 0 {
		cfg.Match.FuzzyThreshold = *threshold
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// 1. Control workbook.
	reader := control.NewReader(logger)
	ctl, err := reader.ReadFile(*controlPath)
	if err != nil {
		logger.Error("failed to read control workbook", "path", *controlPath, "error", err)
		os.Exit(1)
	}
	for _, rerr := range ctl.RowErrors {
		logger.Warn("control row skipped", "row", rerr.Row, "column", rerr.Column, "reason", rerr.Message)
	}

	// 2. Input directories.
	scanner := scan.NewScanner(*recursive, logger)
	supports, _, err := scanner.ScanDirectory(*soportes)
	if err != nil {
		logger.Error("failed to scan support directory", "dir", *soportes, "error", err)
		os.Exit(1)
	}
	transfers, _, err := scanner.ScanDirectory(*tbs)
	if err != nil {
		logger.Error("failed to scan transfer directory", "dir", *tbs, "error", err)
		os.Exit(1)
	}

	// 3. Wire the processor.
	extractor := ocr.NewExtractor(ocr.Config{
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		TessdataDir:   cfg.OCR.TessdataDir,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)
	matcher := match.NewMatcher(cfg.Match.FuzzyThreshold, logger)
	classifier := recon.NewClassifier(cfg.Match.Keyword)
	assembler := pdfdoc.NewAssembler(logger)

	processor := recon.NewProcessor(matcher, extractor, classifier, assembler, logger)
	processor.Progress = func(done, total int) {
		logger.Debug("progress", "done", done, "total", total)
	}

	rows, sum, err := processor.Run(ctx, ctl.Records, supports, transfers, *outDir)
	if err != nil {
		logger.Error("reconciliation run failed", "error", err)
		os.Exit(1)
	}

	// 4. Exports. The run always produces both summaries.
	exporter := export.NewService(logger)
	if err := exporter.WriteResultsXLSX(rows, *xlsxOut); err != nil {
		logger.Error("failed to write XLSX summary", "path", *xlsxOut, "error", err)
		os.Exit(1)
	}
	if err := exporter.WriteResultsCSV(rows, *csvOut); err != nil {
		logger.Error("failed to write CSV summary", "path", *csvOut, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Reconciliation complete!\n")
	fmt.Printf("- Records: %d\n", sum.Total)
	fmt.Printf("- Paid: %d\n", sum.Paid)
	fmt.Printf("- Rejected: %d\n", sum.Rejected)
	fmt.Printf("- Unmatched: %d\n", sum.Unmatched)
	fmt.Printf("- Merged PDFs: %d\n", sum.Outputs)
	fmt.Printf("- Summary: %s, %s\n", *xlsxOut, *csvOut)
}
