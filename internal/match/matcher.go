// Package match implements the candidate search that associates control
// records with support and transfer documents. Matching always works on
// normalized strings and reports uniqueness explicitly: callers never get a
// silently-picked winner out of an ambiguous candidate set.
package match

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/dfmorales/tb-conciliador/internal/entity"
)

// Outcome states how many viable candidates a search produced.
type Outcome string

const (
	OutcomeUnique    Outcome = "UNIQUE"
	OutcomeNone      Outcome = "NONE"
	OutcomeAmbiguous Outcome = "AMBIGUOUS"
)

// Via records which signal produced a candidate.
const (
	ViaReceiptNumber = "receipt-number"
	ViaPayerName     = "payer-name"
	ViaDocumentText  = "document-text"
)

// Candidate is a document considered a possible match for a record.
type Candidate struct {
	Doc   entity.Document
	Score int    // similarity 0-100, 100 = exact signal
	Via   string // which signal matched
}

// Result is the outcome of a candidate search.
type Result struct {
	Outcome    Outcome
	Best       *Candidate
	Candidates []Candidate
}

// Matcher searches document collections for the file belonging to a record.
type Matcher struct {
	threshold int
	logger    *slog.Logger
}

func NewMatcher(threshold int, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	if threshold <= 0 || threshold > 100 {
		threshold = 80
	}
	return &Matcher{threshold: threshold, logger: logger}
}

// FindSupport locates the support document for a record. Signals are tried in
// order of reliability: receipt number in the filename, fuzzy payer name in
// the filename, receipt number in the extracted document text. textOf may be
// nil when no text lookup is available.
//
// A result is UNIQUE only when a single candidate remains, or when one fuzzy
// candidate strictly outranks every other; equal top scores are AMBIGUOUS.
func (m *Matcher) FindSupport(rec entity.ControlRecord, docs []entity.Document, textOf func(entity.Document) string) Result {
	receipt := NormalizeReceipt(rec.ReceiptNumber)

	cands := m.byReceiptNumber(receipt, docs)
	if len(cands) == 0 {
		cands = m.byPayerName(rec.Payer, docs)
	}
	if len(cands) == 0 && textOf != nil {
		cands = m.byDocumentText(receipt, docs, textOf)
	}

	res := resolve(cands)
	m.logger.Debug("match.support",
		"receipt", rec.ReceiptNumber,
		"outcome", string(res.Outcome),
		"candidates", len(res.Candidates),
	)
	return res
}

// FindTransfer locates the TB document for a record by receipt number, with
// an optional text fallback for transfers whose filenames carry no number.
func (m *Matcher) FindTransfer(rec entity.ControlRecord, docs []entity.Document, textOf func(entity.Document) string) Result {
	receipt := NormalizeReceipt(rec.ReceiptNumber)

	cands := m.byReceiptNumber(receipt, docs)
	if len(cands) == 0 && textOf != nil {
		cands = m.byDocumentText(receipt, docs, textOf)
	}

	res := resolve(cands)
	m.logger.Debug("match.transfer",
		"receipt", rec.ReceiptNumber,
		"outcome", string(res.Outcome),
		"candidates", len(res.Candidates),
	)
	return res
}

func (m *Matcher) byReceiptNumber(receipt string, docs []entity.Document) []Candidate {
	if receipt == "" {
		return nil
	}
	var out []Candidate
	for _, d := range docs {
		if strings.Contains(NormalizeReceipt(d.Name), receipt) {
			out = append(out, Candidate{Doc: d, Score: 100, Via: ViaReceiptNumber})
		}
	}
	return out
}

func (m *Matcher) byPayerName(payer string, docs []entity.Document) []Candidate {
	normPayer := Normalize(payer)
	if normPayer == "" {
		return nil
	}
	var out []Candidate
	for _, d := range docs {
		score := Score(Normalize(d.Name), normPayer)
		if score >= m.threshold {
			out = append(out, Candidate{Doc: d, Score: score, Via: ViaPayerName})
		}
	}
	return out
}

func (m *Matcher) byDocumentText(receipt string, docs []entity.Document, textOf func(entity.Document) string) []Candidate {
	if receipt == "" {
		return nil
	}
	var out []Candidate
	for _, d := range docs {
		txt := textOf(d)
		if txt == "" {
			continue
		}
		if strings.Contains(NormalizeReceipt(txt), receipt) {
			out = append(out, Candidate{Doc: d, Score: 90, Via: ViaDocumentText})
		}
	}
	return out
}

// resolve sorts candidates best-first and decides uniqueness.
func resolve(cands []Candidate) Result {
	if len(cands) == 0 {
		return Result{Outcome: OutcomeNone}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Score > cands[j].Score })
	if len(cands) == 1 || cands[0].Score > cands[1].Score {
		return Result{Outcome: OutcomeUnique, Best: &cands[0], Candidates: cands}
	}
	return Result{Outcome: OutcomeAmbiguous, Candidates: cands}
}

// Score calculates a similarity score between two normalized strings (0-100).
// Containment wins, then Levenshtein ratio, then subsequence rank.
func Score(s1, s2 string) int {
	if s1 == "" || s2 == "" {
		return 0
	}
	if s1 == s2 {
		return 100
	}

	if strings.Contains(s1, s2) {
		return 75 + (25 * len(s2) / len(s1))
	}
	if strings.Contains(s2, s1) {
		return 75 + (25 * len(s1) / len(s2))
	}

	distance := fuzzy.LevenshteinDistance(s1, s2)
	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	levScore := 100 * (maxLen - distance) / maxLen

	rankScore := 0
	if rank := fuzzy.RankMatch(s2, s1); rank >= 0 && rank < len(s1) {
		rankScore = 60 - (rank * 40 / len(s1))
	}

	if levScore > rankScore {
		return levScore
	}
	return rankScore
}
