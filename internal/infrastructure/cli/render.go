package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			PaddingLeft(1).
			PaddingRight(1)

	correctStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	incorrectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tierStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	cursorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))

	problematicOpt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("160")).Padding(0, 1)
	acceptedOpt    = lipgloss.NewStyle().Foreground(lipgloss.Color("22")).Background(lipgloss.Color("120")).Padding(0, 1)
	neutralOpt     = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Background(lipgloss.Color("238")).Padding(0, 1)

	explanationStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderLeft(true).
				BorderForeground(lipgloss.Color("196")).
				PaddingLeft(1)
)

// renderSummary renders the correct and incorrect counts.
func renderSummary(s report.Summary) string {
	return fmt.Sprintf("%s  %s",
		correctStyle.Render(fmt.Sprintf("✓ %d Correct Specifications", s.Correct)),
		incorrectStyle.Render(fmt.Sprintf("✗ %d Incorrect Specifications", s.Incorrect)),
	)
}

// renderResult renders one verdict. cursor marks the selected row in the TUI.
func renderResult(rv report.ResultView, cursor bool) string {
	var b strings.Builder

	marker := "  "
	if cursor {
		marker = cursorStyle.Render("> ")
	}
	icon, style := correctStyle.Render("✓"), correctStyle
	if !rv.Result.IsCorrect() {
		icon, style = incorrectStyle.Render("✗"), incorrectStyle
	}
	b.WriteString(marker + icon + " " + style.Bold(true).Render(rv.Result.Specification))
	if rv.Spec != nil && rv.Spec.Tier.IsSet() {
		b.WriteString(" " + tierStyle.Render("["+rv.Spec.Tier.String()+"]"))
	}
	if rv.CanExpand {
		if rv.Expanded {
			b.WriteString(mutedStyle.Render("  (hide details)"))
		} else {
			b.WriteString(mutedStyle.Render("  (show details)"))
		}
	}
	b.WriteString("\n")

	if rv.Expanded {
		b.WriteString("    " + explanationStyle.Render("Issues Found: "+rv.Result.Explanation) + "\n")
	}

	if rv.Spec != nil && len(rv.Options) > 0 {
		opts := make([]string, 0, len(rv.Options))
		for _, o := range rv.Options {
			opts = append(opts, optionStyle(o.State).Render(o.Value))
		}
		b.WriteString("    " + strings.Join(opts, " ") + "\n")
	}
	return b.String()
}

// renderView renders a whole report for non-interactive output.
func renderView(title string, v report.View) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title) + "\n\n")
	b.WriteString(renderSummary(v.Summary) + "\n\n")
	for _, rv := range v.Results {
		b.WriteString(renderResult(rv, false))
	}
	if len(v.Unmatched) > 0 {
		b.WriteString("\n" + incorrectStyle.Render("Verdicts for specifications that were not submitted: "+strings.Join(v.Unmatched, ", ")) + "\n")
	}
	return b.String()
}

func optionStyle(state report.OptionState) lipgloss.Style {
	switch state {
	case report.OptionProblematic:
		return problematicOpt
	case report.OptionAccepted:
		return acceptedOpt
	default:
		return neutralOpt
	}
}
