// Package control reads the control workbook that drives a reconciliation
// run: one row per egreso with the expected payer, amount, receipt number and
// declared status.
package control

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/common"
	"github.com/dfmorales/tb-conciliador/internal/entity"
	"github.com/dfmorales/tb-conciliador/internal/match"
)

// RowError is a non-fatal problem with a single workbook row.
type RowError struct {
	Row     int
	Column  string
	Message string
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
}

// ReadResult carries the parsed records plus any rows that had to be skipped.
type ReadResult struct {
	Records   []entity.ControlRecord
	RowErrors []RowError
	TotalRows int
}

// Header names recognized for each logical column. The canonical names come
// first; "No Egreso" and "Girado a" are the short forms some workbooks use.
var (
	payerHeaders   = []string{"NOMBRE PROPIETARIO", "GIRADO A"}
	amountHeaders  = []string{"VALOR"}
	receiptHeaders = []string{"NUMERO DE COMPROBANTE", "NO EGRESO"}
	statusHeaders  = []string{"ESTADO"}
)

// Candidate sheet names tried before falling back to the first sheet.
var preferredSheets = []string{"Control", "Egresos"}

// Reader parses control workbooks with excelize.
type Reader struct {
	logger *slog.Logger
}

func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// ReadFile opens and parses the workbook at path.
func (r *Reader) ReadFile(path string) (*ReadResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, common.NewAppError("CONTROL_OPEN", fmt.Sprintf("open workbook %s", path), err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("close workbook", "path", path, "error", cerr)
		}
	}()
	return r.read(f)
}

// Read parses a workbook from a stream.
func (r *Reader) Read(reader io.Reader) (*ReadResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, common.NewAppError("CONTROL_OPEN", "open workbook stream", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("close workbook", "error", cerr)
		}
	}()
	return r.read(f)
}

func (r *Reader) read(f *excelize.File) (*ReadResult, error) {
	sheet := r.pickSheet(f)
	if sheet == "" {
		return nil, common.NewAppError("CONTROL_SHEET", "workbook has no sheets", common.ErrInvalidInput)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, common.NewAppError("CONTROL_READ", fmt.Sprintf("read sheet %s", sheet), err)
	}
	if len(rows) == 0 {
		return &ReadResult{}, nil
	}

	cols, err := mapColumns(rows[0])
	if err != nil {
		return nil, err
	}

	res := &ReadResult{}
	for i := 1; i < len(rows); i++ {
		rowNum := i + 1 // 1-indexed like the spreadsheet UI
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		res.TotalRows++

		rec, rerr := parseRow(row, rowNum, cols)
		if rerr != nil {
			res.RowErrors = append(res.RowErrors, *rerr)
			continue
		}
		res.Records = append(res.Records, rec)
	}

	r.logger.Info("control.read.ok",
		"sheet", sheet,
		"records", len(res.Records),
		"row_errors", len(res.RowErrors),
	)
	return res, nil
}

func (r *Reader) pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, want := range preferredSheets {
		for _, s := range sheets {
			if strings.EqualFold(s, want) {
				return s
			}
		}
	}
	return sheets[0]
}

type columnMap struct {
	payer, amount, receipt, status int
}

// mapColumns resolves the header row to column indices. Receipt number and
// payer are required; their absence is a per-column error like the original
// workbook validation did it.
func mapColumns(headers []string) (columnMap, error) {
	cols := columnMap{payer: -1, amount: -1, receipt: -1, status: -1}
	for i, h := range headers {
		norm := match.Normalize(h)
		switch {
		case cols.payer == -1 && matchesAny(norm, payerHeaders):
			cols.payer = i
		case cols.amount == -1 && matchesAny(norm, amountHeaders):
			cols.amount = i
		case cols.receipt == -1 && matchesAny(norm, receiptHeaders):
			cols.receipt = i
		case cols.status == -1 && matchesAny(norm, statusHeaders):
			cols.status = i
		}
	}
	if cols.receipt == -1 {
		return cols, common.NewAppError("CONTROL_HEADER", `column "Número de comprobante" not found`, common.ErrInvalidInput)
	}
	if cols.payer == -1 {
		return cols, common.NewAppError("CONTROL_HEADER", `column "Nombre Propietario" not found`, common.ErrInvalidInput)
	}
	return cols, nil
}

func matchesAny(norm string, wanted []string) bool {
	for _, w := range wanted {
		if norm == w {
			return true
		}
	}
	return false
}

func parseRow(row []string, rowNum int, cols columnMap) (entity.ControlRecord, *RowError) {
	receipt := strings.TrimSpace(cell(row, cols.receipt))
	if receipt == "" {
		return entity.ControlRecord{}, &RowError{Row: rowNum, Column: "Número de comprobante", Message: "empty receipt number"}
	}

	payer := strings.TrimSpace(cell(row, cols.payer))
	if payer == "" {
		return entity.ControlRecord{}, &RowError{Row: rowNum, Column: "Nombre Propietario", Message: "empty payer name"}
	}

	amount := decimal.Zero
	if cols.amount >= 0 {
		raw := cell(row, cols.amount)
		if strings.TrimSpace(raw) != "" {
			parsed, err := ParseAmount(raw)
			if err != nil {
				return entity.ControlRecord{}, &RowError{Row: rowNum, Column: "Valor", Message: err.Error()}
			}
			amount = parsed
		}
	}

	status := constants.ControlOther
	if match.Normalize(cell(row, cols.status)) == "ABONADO" {
		status = constants.ControlAbonado
	}

	return entity.ControlRecord{
		Payer:         payer,
		Amount:        amount,
		ReceiptNumber: receipt,
		Status:        status,
		Row:           rowNum,
	}, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
