// Package catalog defines the canonical specification records exchanged between
// the normalizer, the auditor and the result renderer.
package catalog

// RadioButton is the input type assigned when a document does not name one.
const RadioButton = "radio_button"

// UploadedSpec is one normalized specification of a product category.
type UploadedSpec struct {
	SpecName  string   `json:"spec_name" yaml:"spec_name"`
	Options   []string `json:"options" yaml:"options"`
	InputType string   `json:"input_type" yaml:"input_type"`
	Tier      Tier     `json:"tier,omitempty" yaml:"tier,omitempty"`
}

// AuditInput is the artifact handed to the auditor for one submission.
type AuditInput struct {
	MCATName       string         `json:"mcat_name" yaml:"mcat_name"`
	Specifications []UploadedSpec `json:"specifications" yaml:"specifications"`
}

// SpecNames returns the specification names in submission order.
func (in AuditInput) SpecNames() []string {
	names := make([]string, 0, len(in.Specifications))
	for _, s := range in.Specifications {
		names = append(names, s.SpecName)
	}
	return names
}

// CountByTier returns how many specifications carry each tier.
// Specifications without a tier are counted under the zero Tier.
func (in AuditInput) CountByTier() map[Tier]int {
	counts := make(map[Tier]int)
	for _, s := range in.Specifications {
		counts[s.Tier]++
	}
	return counts
}

// AuditResult is the verdict of the auditor for one specification.
type AuditResult struct {
	Specification      string      `json:"specification"`
	Status             AuditStatus `json:"status"`
	Explanation        string      `json:"explanation,omitempty"`
	ProblematicOptions []string    `json:"problematic_options,omitempty"`
}

// IsCorrect reports whether the auditor accepted the specification.
func (r AuditResult) IsCorrect() bool {
	return r.Status == StatusCorrect
}

// HasProblematicOption reports whether option is listed as problematic.
func (r AuditResult) HasProblematicOption(option string) bool {
	for _, o := range r.ProblematicOptions {
		if o == option {
			return true
		}
	}
	return false
}
