package constants

// RecordStatus is the canonical per-record outcome of a reconciliation run.
type RecordStatus string

// Stable values (these exact strings appear in the exports).
const (
	StatusPaid      RecordStatus = "PAID"      // keyword confirmed, values agree
	StatusRejected  RecordStatus = "REJECTED"  // support found but not confirmed
	StatusUnmatched RecordStatus = "UNMATCHED" // no unique support or transfer
)

// ControlStatus is the declared status column of the control workbook.
type ControlStatus string

const (
	ControlAbonado ControlStatus = "ABONADO"
	ControlOther   ControlStatus = "OTHER"
)
