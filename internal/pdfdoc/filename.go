package pdfdoc

import (
	"fmt"
	"strings"

	"github.com/dfmorales/tb-conciliador/internal/match"
)

// OutputFilename builds the deterministic name of a merged document:
// "<receipt>_<payer>.pdf". Accents are folded, filesystem-hostile characters
// dropped and spaces turned into underscores, so "00123" + "Juan Pérez"
// yields "00123_Juan_Perez.pdf" on every run.
func OutputFilename(receiptNumber, payer string) string {
	return fmt.Sprintf("%s_%s.pdf", sanitize(receiptNumber), sanitize(payer))
}

// sanitize keeps alphanumerics plus space, '.', '_' and '-', then collapses
// the spaces into single underscores.
func sanitize(s string) string {
	s = match.FoldAccents(strings.TrimSpace(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), "_")
}
