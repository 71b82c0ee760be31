package report

import (
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
)

// OptionState is how an option is displayed.
type OptionState string

const (
	OptionProblematic OptionState = "problematic"
	OptionAccepted    OptionState = "accepted"
	OptionNeutral     OptionState = "neutral"
)

// OptionView is one option of a specification bound to its verdict.
type OptionView struct {
	Value       string      `json:"value"`
	Problematic bool        `json:"problematic"`
	State       OptionState `json:"state"`
}

// ResultView is one verdict with its derived display state.
type ResultView struct {
	Result catalog.AuditResult   `json:"result"`
	Spec   *catalog.UploadedSpec `json:"spec,omitempty"`
	// CanExpand is set when there is an explanation worth showing.
	CanExpand bool `json:"can_expand"`
	Expanded  bool `json:"expanded"`
	// Options is nil when the verdict names no submitted specification.
	Options []OptionView `json:"options,omitempty"`
}

// View is the full derived state of a result page.
type View struct {
	Summary Summary      `json:"summary"`
	Results []ResultView `json:"results"`
	// Unmatched lists verdicts whose specification was not submitted.
	Unmatched []string `json:"unmatched,omitempty"`
}

// Build binds every verdict to its specification and the expand state.
func Build(results []catalog.AuditResult, specs []catalog.UploadedSpec, expanded ExpandSet) View {
	view := View{
		Summary: Summarize(results),
		Results: make([]ResultView, 0, len(results)),
	}

	for _, r := range results {
		rv := ResultView{
			Result:    r,
			CanExpand: !r.IsCorrect() && r.Explanation != "",
		}
		rv.Expanded = rv.CanExpand && expanded.Has(r.Specification)

		spec, ok := Lookup(specs, r.Specification)
		if ok {
			rv.Spec = &spec
			rv.Options = bindOptions(r, spec.Options)
		} else {
			view.Unmatched = append(view.Unmatched, r.Specification)
		}
		view.Results = append(view.Results, rv)
	}
	return view
}

func bindOptions(r catalog.AuditResult, options []string) []OptionView {
	views := make([]OptionView, 0, len(options))
	for _, o := range options {
		ov := OptionView{Value: o, Problematic: IsProblematic(r, o)}
		switch {
		case ov.Problematic:
			ov.State = OptionProblematic
		case r.IsCorrect():
			ov.State = OptionAccepted
		default:
			ov.State = OptionNeutral
		}
		views = append(views, ov)
	}
	return views
}
