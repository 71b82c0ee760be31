package cli

import (
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/spf13/cobra"
)

var (
	auditMCAT    string
	auditExpand  []string
	auditAll     bool
	auditJSON    bool
	auditProceed bool
)

var auditCmd = &cobra.Command{
	Use:   "audit <file>",
	Short: "Normalize a specifications file and audit it",
	Long: `Normalize a specifications file, send it to the configured auditor and
print the verdicts.

The auditor is configured in .specaudit.yaml (auditor.kind http or file).

Examples:
  specaudit audit --mcat Steel specs.json
  specaudit audit --mcat Steel specs.json --expand Finish
  specaudit audit --mcat Steel specs.json --json`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

// auditJSONOutput is the --json output of audit.
type auditJSONOutput struct {
	Submission application.Submission `json:"submission"`
	Report     report.View            `json:"report"`
	Proceeded  bool                   `json:"proceeded,omitempty"`
}

func runAudit(cmd *cobra.Command, args []string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	path, err := resolvePath(args[0])
	if err != nil {
		return err
	}

	proceeded := false
	intake, err := services.NewIntake(application.WithProceed(func() { proceeded = true }))
	if err != nil {
		return err
	}

	if _, err := intake.Load(cmd.Context(), application.FileSource{Path: path}); err != nil {
		return MapError(err)
	}
	view, err := intake.Run(cmd.Context(), auditMCAT)
	if err != nil {
		return MapError(err)
	}
	if err := services.NotifyAudited(cmd.Context(), *intake.Status().Submission, view); err != nil {
		slog.Warn("audit webhook failed", "error", err)
	}

	expanded := report.NewExpandSet(auditExpand...)
	if auditAll {
		for _, rv := range view.Results {
			if rv.CanExpand && !expanded.Has(rv.Result.Specification) {
				expanded.Toggle(rv.Result.Specification)
			}
		}
	}
	view, err = intake.ViewExpanded(expanded)
	if err != nil {
		return MapError(err)
	}

	if auditProceed {
		if err := intake.Proceed(); err != nil {
			return MapError(err)
		}
		if err := services.NotifyProceeded(cmd.Context(), *intake.Status().Submission); err != nil {
			slog.Warn("stage 2 handoff failed", "error", err)
		}
	}

	status := intake.Status()
	if auditJSON {
		return writeJSON(cmd.OutOrStdout(), auditJSONOutput{
			Submission: *status.Submission,
			Report:     view,
			Proceeded:  proceeded,
		}, false)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprint(out, renderView("Stage 1: Specification Audit Results", view))
	_, _ = fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("\nsubmission %s · %s · auditor %s", status.Submission.ID, status.Submission.File, services.Auditor.ID())))
	if proceeded {
		_, _ = fmt.Fprintln(out, correctStyle.Render("Proceeding to Stage 2: buyer ISQ extraction"))
	}
	return nil
}

func init() {
	auditCmd.Flags().StringVarP(&auditMCAT, "mcat", "m", "", "MCAT name the file must belong to")
	auditCmd.Flags().StringArrayVarP(&auditExpand, "expand", "e", nil, "Show explanations for this specification (repeatable)")
	auditCmd.Flags().BoolVar(&auditAll, "expand-all", false, "Show every explanation")
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
	auditCmd.Flags().BoolVar(&auditProceed, "proceed", false, "Move the submission on to Stage 2 after the audit")
	RootCmd.AddCommand(auditCmd)
}
