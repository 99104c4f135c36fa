package entity

import (
	"github.com/shopspring/decimal"

	"github.com/dfmorales/tb-conciliador/constants"
)

// ControlRecord is one row of the control workbook: the expected payer,
// amount, receipt number and declared status for a single egreso.
// Immutable once loaded.
type ControlRecord struct {
	Payer         string                  `json:"payer"`
	Amount        decimal.Decimal         `json:"amount"`
	ReceiptNumber string                  `json:"receipt_number"`
	Status        constants.ControlStatus `json:"status"`
	Row           int                     `json:"row"` // 1-indexed source row, for diagnostics
}

// ResultRow is the per-record outcome written to the summary exports.
type ResultRow struct {
	ReceiptNumber string                 `json:"receipt_number" csv:"numero_comprobante"`
	Payer         string                 `json:"payer" csv:"nombre_propietario"`
	Matched       bool                   `json:"matched" csv:"encontrado"`
	Status        constants.RecordStatus `json:"status" csv:"estado"`
	OutputPath    string                 `json:"output_path,omitempty" csv:"archivo"`
	Reason        string                 `json:"reason,omitempty" csv:"motivo"`
}
