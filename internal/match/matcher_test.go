package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfmorales/tb-conciliador/internal/entity"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"accents folded", "Juan Pérez", "JUAN PEREZ"},
		{"whitespace collapsed", "  JUAN   PEREZ ", "JUAN PEREZ"},
		{"mixed case", "María  Gómez", "MARIA GOMEZ"},
		{"enye folded", "Ñuñez", "NUNEZ"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeReceipt(t *testing.T) {
	assert.Equal(t, "00123", NormalizeReceipt(" 00123 "))
	assert.Equal(t, "TB-00123", NormalizeReceipt("tb-00123"))
	assert.Equal(t, "00123", NormalizeReceipt("0 0 1 2 3"))
}

func TestFoldAccents(t *testing.T) {
	assert.Equal(t, "Juan Perez", FoldAccents("Juan Pérez"))
	assert.Equal(t, "plain", FoldAccents("plain"))
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		s1   string
		s2   string
		min  int
		max  int
	}{
		{"exact", "JUAN PEREZ", "JUAN PEREZ", 100, 100},
		{"containment", "00123 JUAN PEREZ SOPORTE", "JUAN PEREZ", 75, 100},
		{"one typo", "JUAN PERES", "JUAN PEREZ", 80, 99},
		{"unrelated", "FACTURA LUZ", "JUAN PEREZ", 0, 40},
		{"empty", "", "JUAN PEREZ", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.s1, tt.s2)
			assert.GreaterOrEqual(t, got, tt.min)
			assert.LessOrEqual(t, got, tt.max)
		})
	}
}

func doc(name string) entity.Document {
	return entity.Document{Path: "/in/" + name + ".pdf", Name: name, Ext: "pdf", Format: "PDF"}
}

func rec(receipt, payer string) entity.ControlRecord {
	return entity.ControlRecord{ReceiptNumber: receipt, Payer: payer}
}

func TestFindSupportByReceiptNumber(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("soporte_00123"), doc("soporte_00456")}

	res := m.FindSupport(rec("00123", "Juan Pérez"), docs, nil)
	require.Equal(t, OutcomeUnique, res.Outcome)
	require.NotNil(t, res.Best)
	assert.Equal(t, "soporte_00123", res.Best.Doc.Name)
	assert.Equal(t, ViaReceiptNumber, res.Best.Via)
	assert.Equal(t, 100, res.Best.Score)
}

func TestFindSupportNone(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("factura_luz"), doc("recibo_agua")}

	res := m.FindSupport(rec("00123", "Juan Pérez"), docs, nil)
	assert.Equal(t, OutcomeNone, res.Outcome)
	assert.Nil(t, res.Best)
}

func TestFindSupportAmbiguous(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("soporte_00123_a"), doc("soporte_00123_b")}

	res := m.FindSupport(rec("00123", "Juan Pérez"), docs, nil)
	assert.Equal(t, OutcomeAmbiguous, res.Outcome)
	assert.Nil(t, res.Best)
	assert.Len(t, res.Candidates, 2)
}

func TestFindSupportFuzzyPayerFallback(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("Juan Perez transferencia"), doc("Maria Gomez pago")}

	res := m.FindSupport(rec("99999", "Juan Pérez"), docs, nil)
	require.Equal(t, OutcomeUnique, res.Outcome)
	assert.Equal(t, ViaPayerName, res.Best.Via)
	assert.Equal(t, "Juan Perez transferencia", res.Best.Doc.Name)
}

func TestFindSupportTextFallback(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("scan_001"), doc("scan_002")}
	textOf := func(d entity.Document) string {
		if d.Name == "scan_002" {
			return "Comprobante de egreso No. 00123"
		}
		return "something else"
	}

	res := m.FindSupport(rec("00123", "Juan Pérez"), docs, textOf)
	require.Equal(t, OutcomeUnique, res.Outcome)
	assert.Equal(t, "scan_002", res.Best.Doc.Name)
	assert.Equal(t, ViaDocumentText, res.Best.Via)
}

func TestFindTransfer(t *testing.T) {
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("tb_00123"), doc("tb_00456")}

	res := m.FindTransfer(rec("00456", "Juan Pérez"), docs, nil)
	require.Equal(t, OutcomeUnique, res.Outcome)
	assert.Equal(t, "tb_00456", res.Best.Doc.Name)

	res = m.FindTransfer(rec("77777", "Juan Pérez"), docs, nil)
	assert.Equal(t, OutcomeNone, res.Outcome)
}

func TestFindTransferNoFuzzyPayerFallback(t *testing.T) {
	// Transfers are located by receipt number only; a payer-named file must
	// not match.
	m := NewMatcher(80, nil)
	docs := []entity.Document{doc("Juan Perez")}

	res := m.FindTransfer(rec("00123", "Juan Pérez"), docs, nil)
	assert.Equal(t, OutcomeNone, res.Outcome)
}
