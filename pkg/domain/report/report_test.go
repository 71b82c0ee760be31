package report_test

import (
	"testing"

	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/google/go-cmp/cmp"
)

func TestSummarize(t *testing.T) {
	results := []catalog.AuditResult{
		{Specification: "Grade", Status: catalog.StatusCorrect},
		{Specification: "Finish", Status: catalog.StatusIncorrect},
		{Specification: "Width", Status: catalog.StatusIncorrect},
	}

	s := report.Summarize(results)
	if s.Correct != 1 || s.Incorrect != 2 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.Correct+s.Incorrect != len(results) || s.Total != len(results) {
		t.Errorf("counts do not add up: %+v", s)
	}

	if empty := report.Summarize(nil); empty != (report.Summary{}) {
		t.Errorf("expected zero summary, got %+v", empty)
	}
}

func TestIsProblematic(t *testing.T) {
	options := []string{"A", "B"}

	incorrect := catalog.AuditResult{Status: catalog.StatusIncorrect, ProblematicOptions: []string{"A"}}
	var flagged []string
	for _, o := range options {
		if report.IsProblematic(incorrect, o) {
			flagged = append(flagged, o)
		}
	}
	if diff := cmp.Diff([]string{"A"}, flagged); diff != "" {
		t.Errorf("flagged mismatch (-want +got):\n%s", diff)
	}

	correct := catalog.AuditResult{Status: catalog.StatusCorrect, ProblematicOptions: []string{"A"}}
	for _, o := range options {
		if report.IsProblematic(correct, o) {
			t.Errorf("option %q flagged on a correct verdict", o)
		}
	}
}

func TestExpandSet_Toggle(t *testing.T) {
	var s report.ExpandSet
	if s.Has("Grade") || s.Len() != 0 {
		t.Fatal("zero set should be empty")
	}

	s.Toggle("Grade")
	if !s.Has("Grade") {
		t.Fatal("expected Grade expanded")
	}
	s.Toggle("Grade")
	if s.Has("Grade") || s.Len() != 0 {
		t.Fatal("second toggle should restore membership")
	}

	s = report.NewExpandSet("Width", "Finish")
	s.Toggle("Grade")
	s.Toggle("Grade")
	if diff := cmp.Diff([]string{"Finish", "Width"}, s.Names()); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandSet_Toggled(t *testing.T) {
	s := report.NewExpandSet("Grade")
	next := s.Toggled("Finish")

	if s.Has("Finish") {
		t.Error("Toggled must not modify the receiver")
	}
	if !next.Has("Finish") || !next.Has("Grade") {
		t.Errorf("unexpected toggled set: %v", next.Names())
	}
}

func TestLookup(t *testing.T) {
	specs := []catalog.UploadedSpec{{SpecName: "Grade"}, {SpecName: "grade"}}

	got, ok := report.Lookup(specs, "grade")
	if !ok || got.SpecName != "grade" {
		t.Errorf("Lookup exact match failed: %+v, %v", got, ok)
	}
	if _, ok := report.Lookup(specs, "GRADE"); ok {
		t.Error("Lookup must be case-sensitive")
	}
}

func TestBuild(t *testing.T) {
	specs := []catalog.UploadedSpec{
		{SpecName: "Grade", Options: []string{"304", "316"}, Tier: catalog.TierPrimary},
		{SpecName: "Finish", Options: []string{"Matte", "Gloss"}},
	}
	results := []catalog.AuditResult{
		{Specification: "Grade", Status: catalog.StatusCorrect, ProblematicOptions: []string{"304"}},
		{Specification: "Finish", Status: catalog.StatusIncorrect, Explanation: "Gloss is not a finish", ProblematicOptions: []string{"Gloss"}},
		{Specification: "Coating", Status: catalog.StatusIncorrect},
	}

	view := report.Build(results, specs, report.NewExpandSet("Finish", "Grade", "Coating"))

	if view.Summary.Correct != 1 || view.Summary.Incorrect != 2 {
		t.Errorf("unexpected summary: %+v", view.Summary)
	}

	grade := view.Results[0]
	if grade.CanExpand || grade.Expanded {
		t.Error("correct verdict must not expand")
	}
	wantGrade := []report.OptionView{
		{Value: "304", State: report.OptionAccepted},
		{Value: "316", State: report.OptionAccepted},
	}
	if diff := cmp.Diff(wantGrade, grade.Options); diff != "" {
		t.Errorf("grade options mismatch (-want +got):\n%s", diff)
	}

	finish := view.Results[1]
	if !finish.CanExpand || !finish.Expanded {
		t.Errorf("finish should be expanded: %+v", finish)
	}
	wantFinish := []report.OptionView{
		{Value: "Matte", State: report.OptionNeutral},
		{Value: "Gloss", Problematic: true, State: report.OptionProblematic},
	}
	if diff := cmp.Diff(wantFinish, finish.Options); diff != "" {
		t.Errorf("finish options mismatch (-want +got):\n%s", diff)
	}

	coating := view.Results[2]
	if coating.Spec != nil || coating.Options != nil {
		t.Error("unmatched verdict must have no options")
	}
	if coating.CanExpand {
		t.Error("verdict without explanation must not expand")
	}
	if diff := cmp.Diff([]string{"Coating"}, view.Unmatched); diff != "" {
		t.Errorf("unmatched mismatch (-want +got):\n%s", diff)
	}
}
