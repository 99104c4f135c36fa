package recon

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dfmorales/tb-conciliador/constants"
	"github.com/dfmorales/tb-conciliador/internal/control"
	"github.com/dfmorales/tb-conciliador/internal/entity"
	"github.com/dfmorales/tb-conciliador/internal/match"
	"github.com/dfmorales/tb-conciliador/internal/ocr"
)

// Classification is the verdict over one support document.
type Classification struct {
	KeywordFound bool
	KeywordBand  *ocr.Region // band that carried the keyword, when unambiguous
	NameSeen     bool
	AmountsSeen  int  // currency-like figures found in the text
	AmountAgrees bool // declared amount appeared among them
	Status       constants.RecordStatus
	Reason       string
}

// Classifier decides PAID vs REJECTED from the extracted region texts.
//
// Keyword policy: case- and accent-insensitive substring over normalized
// text. Cross-check policy: the payer name is confirmation-only (its absence
// proves nothing, OCR mangles names routinely), while an amount mismatch
// (currency figures present but none equal to the declared value) rejects
// the record. Output production is not blocked by a mismatch; only the
// status is.
type Classifier struct {
	keyword string // normalized
}

func NewClassifier(keyword string) *Classifier {
	if keyword == "" {
		keyword = "ABONADO"
	}
	return &Classifier{keyword: match.Normalize(keyword)}
}

// currency-like figures: optional $, digits with grouping and an optional
// decimal part. Plain short digit runs (dates, ids) are excluded by requiring
// either a $ prefix or a grouped/decimal shape.
var reAmount = regexp.MustCompile(`\$\s*[0-9][0-9.,]*|\b[0-9]{1,3}(?:[.,][0-9]{3})+(?:[.,][0-9]{1,2})?\b`)

// Classify inspects the region texts of a support document.
func (c *Classifier) Classify(rec entity.ControlRecord, regions []ocr.RegionText) Classification {
	var cls Classification

	var joined strings.Builder
	keywordBands := map[ocr.Region]bool{}
	for _, rt := range regions {
		norm := match.Normalize(rt.Text)
		joined.WriteString(norm)
		joined.WriteByte('\n')
		if strings.Contains(norm, c.keyword) {
			cls.KeywordFound = true
			keywordBands[rt.Region] = true
		}
	}
	if len(keywordBands) == 1 {
		for band := range keywordBands {
			b := band
			cls.KeywordBand = &b
		}
	}

	text := joined.String()
	cls.NameSeen = strings.Contains(text, match.Normalize(rec.Payer))
	cls.AmountsSeen, cls.AmountAgrees = amountCheck(rec.Amount, text)

	switch {
	case !cls.KeywordFound:
		cls.Status = constants.StatusRejected
		cls.Reason = "keyword not found in support"
	case cls.AmountsSeen > 0 && !cls.AmountAgrees:
		cls.Status = constants.StatusRejected
		cls.Reason = "declared amount not found in support"
	default:
		cls.Status = constants.StatusPaid
	}
	return cls
}

// amountCheck extracts currency-like figures and reports whether the declared
// amount is among them. A zero declared amount disables the check.
func amountCheck(declared decimal.Decimal, text string) (seen int, agrees bool) {
	if declared.IsZero() {
		return 0, false
	}
	for _, m := range reAmount.FindAllString(text, -1) {
		v, err := control.ParseAmount(m)
		if err != nil {
			continue
		}
		seen++
		if v.Equal(declared) {
			agrees = true
		}
	}
	return seen, agrees
}
