// Package export writes the run summary: an XLSX workbook and a CSV with the
// same rows, columns and headers stable across runs.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/dfmorales/tb-conciliador/internal/entity"
)

// Service produces the summary exports for a finished run.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

const sheet = "Resultados"

var headers = []string{
	"Número de comprobante",
	"Nombre Propietario",
	"Encontrado",
	"Estado",
	"Archivo / Motivo",
}

// ResultsXLSX returns an XLSX workbook (as bytes) for the result rows.
func (s *Service) ResultsXLSX(rows []entity.ResultRow) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	if defIdx, _ := f.GetSheetIndex("Sheet1"); defIdx != -1 {
		_ = f.DeleteSheet("Sheet1")
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowIdx := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowIdx)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, r.ReceiptNumber)
		write(2, r.Payer)
		write(3, boolMark(r.Matched))
		write(4, string(r.Status))
		if r.OutputPath != "" {
			write(5, r.OutputPath)
		} else {
			write(5, r.Reason)
		}
		rowIdx++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 22) // receipt number
	_ = f.SetColWidth(sheet, "B", "B", 32) // payer
	_ = f.SetColWidth(sheet, "C", "D", 14) // matched, status
	_ = f.SetColWidth(sheet, "E", "E", 60) // path or reason

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// WriteResultsXLSX writes the workbook to path.
func (s *Service) WriteResultsXLSX(rows []entity.ResultRow, path string) error {
	data, err := s.ResultsXLSX(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ResultsCSV marshals the rows with their csv struct tags.
func (s *Service) ResultsCSV(rows []entity.ResultRow) ([]byte, error) {
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		return nil, fmt.Errorf("csv write: %w", err)
	}
	s.logger.Info("export.csv.ok", "rows", len(rows))
	return out, nil
}

// WriteResultsCSV writes the CSV summary to path.
func (s *Service) WriteResultsCSV(rows []entity.ResultRow, path string) error {
	data, err := s.ResultsCSV(rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func boolMark(b bool) string {
	if b {
		return "SI"
	}
	return "NO"
}
