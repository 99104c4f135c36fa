package recon

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/entity"
	"github.com/dfmorales/tb-conciliador/internal/ocr"
)

func record(payer, amount string) entity.ControlRecord {
	d, _ := decimal.NewFromString(amount)
	return entity.ControlRecord{Payer: payer, Amount: d, ReceiptNumber: "00123"}
}

func bands(texts ...string) []ocr.RegionText {
	out := make([]ocr.RegionText, len(texts))
	for i, txt := range texts {
		out[i] = ocr.RegionText{Page: 0, Region: ocr.SupportRegions[i%len(ocr.SupportRegions)], Text: txt}
	}
	return out
}

func TestClassifyPaid(t *testing.T) {
	c := NewClassifier("ABONADO")
	cls := c.Classify(record("Juan Pérez", "150000"),
		bands("Banco XYZ", "Transferencia ABONADO a Juan Pérez", "Valor $150.000"))

	assert.True(t, cls.KeywordFound)
	assert.Equal(t, constants.StatusPaid, cls.Status)
	assert.Empty(t, cls.Reason)
	assert.True(t, cls.AmountAgrees)
	assert.True(t, cls.NameSeen)
}

func TestClassifyKeywordCaseAndAccents(t *testing.T) {
	c := NewClassifier("ABONADO")
	tests := []struct {
		name string
		text string
	}{
		{"lowercase", "estado: abonado"},
		{"mixed case", "Abonado con éxito"},
		{"accented ocr noise", "ABONÁDO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.Classify(record("Juan Pérez", "0"), bands(tt.text))
			assert.True(t, cls.KeywordFound)
			assert.Equal(t, constants.StatusPaid, cls.Status)
		})
	}
}

func TestClassifyKeywordMissing(t *testing.T) {
	c := NewClassifier("ABONADO")
	cls := c.Classify(record("Juan Pérez", "150000"),
		bands("Banco XYZ", "Transferencia RECHAZADA", "Valor $150.000"))

	assert.False(t, cls.KeywordFound)
	assert.Equal(t, constants.StatusRejected, cls.Status)
	assert.Equal(t, "keyword not found in support", cls.Reason)
}

func TestClassifyAmountMismatch(t *testing.T) {
	c := NewClassifier("ABONADO")
	cls := c.Classify(record("Juan Pérez", "150000"),
		bands("ABONADO", "Valor $99.000"))

	assert.True(t, cls.KeywordFound)
	assert.Positive(t, cls.AmountsSeen)
	assert.False(t, cls.AmountAgrees)
	assert.Equal(t, constants.StatusRejected, cls.Status)
	assert.Equal(t, "declared amount not found in support", cls.Reason)
}

func TestClassifyNoAmountsInTextIsNotMismatch(t *testing.T) {
	// When the text carries no currency figures the cross-check proves
	// nothing and must not reject the record.
	c := NewClassifier("ABONADO")
	cls := c.Classify(record("Juan Pérez", "150000"), bands("Transferencia ABONADO"))

	assert.Zero(t, cls.AmountsSeen)
	assert.Equal(t, constants.StatusPaid, cls.Status)
}

func TestClassifyZeroDeclaredAmountSkipsCheck(t *testing.T) {
	c := NewClassifier("ABONADO")
	cls := c.Classify(record("Juan Pérez", "0"), bands("ABONADO", "Valor $99.000"))

	assert.Equal(t, constants.StatusPaid, cls.Status)
}

func TestClassifyKeywordBand(t *testing.T) {
	c := NewClassifier("ABONADO")

	cls := c.Classify(record("Juan Pérez", "0"),
		bands("nothing here", "ABONADO", "nothing either"))
	require.NotNil(t, cls.KeywordBand)
	assert.Equal(t, ocr.SupportRegions[1], *cls.KeywordBand)

	// Keyword in two bands: no single band to crop to.
	cls = c.Classify(record("Juan Pérez", "0"),
		bands("ABONADO", "ABONADO", "x"))
	assert.Nil(t, cls.KeywordBand)
}
