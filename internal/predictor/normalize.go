package predictor

import "strings"

// loanPurposeSynonyms maps common client-side variants of loan_purpose to
// the canonical trained category. Kept as data so the table can grow
// without touching the resolution logic. Keys are lowercased and trimmed.
var loanPurposeSynonyms = map[string]string{
	"home improvement":   "Home",
	"home_improvement":   "Home",
	"homeimprovement":    "Home",
	"debt_consolidation": "Debt consolidation",
	"debtconsolidation":  "Debt consolidation",
}

// Normalize maps a raw categorical value onto the encoder's vocabulary.
// Resolution order: exact match, case-insensitive match, the loan_purpose
// synonym table, then a space/underscore-insensitive match. A value no rule
// resolves is returned unchanged so the failure surfaces at encoding with
// the full accepted vocabulary.
func (s *Store) Normalize(column, raw string) string {
	if raw == "" {
		return raw
	}

	enc, ok := s.encoders[column]
	if !ok {
		return raw
	}
	expected := enc.Classes()

	if _, ok := enc.Encode(raw); ok {
		return raw
	}

	lower := strings.ToLower(strings.TrimSpace(raw))
	for _, want := range expected {
		if strings.ToLower(want) == lower {
			s.logNormalized(column, raw, want)
			return want
		}
	}

	if column == "loan_purpose" {
		if canonical, ok := loanPurposeSynonyms[lower]; ok {
			s.logNormalized(column, raw, canonical)
			return canonical
		}
	}

	stripped := stripSeparators(lower)
	for _, want := range expected {
		if stripSeparators(strings.ToLower(want)) == stripped {
			s.logNormalized(column, raw, want)
			return want
		}
	}

	return raw
}

func stripSeparators(v string) string {
	v = strings.ReplaceAll(v, " ", "")
	return strings.ReplaceAll(v, "_", "")
}

func (s *Store) logNormalized(column, raw, normalized string) {
	s.logger.Debug("normalized categorical value", map[string]interface{}{
		"column": column,
		"raw":    raw,
		"value":  normalized,
	})
}
