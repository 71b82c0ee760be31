// Package report derives the display state of audit verdicts: counts,
// expanded explanations and option highlighting.
package report

import (
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// Summary holds verdict counts.
type Summary struct {
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
	Total     int `json:"total"`
}

// Summarize counts verdicts by status. Correct+Incorrect equals Total when
// every result carries a known status.
func Summarize(results []catalog.AuditResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case catalog.StatusCorrect:
			s.Correct++
		case catalog.StatusIncorrect:
			s.Incorrect++
		}
	}
	return s
}

// IsProblematic reports whether an option is flagged for a verdict. Options of
// a correct verdict are never flagged.
func IsProblematic(result catalog.AuditResult, option string) bool {
	return result.Status == catalog.StatusIncorrect && result.HasProblematicOption(option)
}

// Lookup finds the submitted specification a verdict refers to by exact name.
func Lookup(specs []catalog.UploadedSpec, name string) (catalog.UploadedSpec, bool) {
	for _, s := range specs {
		if s.SpecName == name {
			return s, true
		}
	}
	return catalog.UploadedSpec{}, false
}
