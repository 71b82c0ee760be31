package cli

import (
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/spf13/cobra"
)

var (
	formMCAT string
	formFile string
)

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Interactive audit form",
	Long: `Open the interactive audit form: enter the MCAT name and the path of a
specifications file, then browse the verdicts, expand explanations and
proceed to Stage 2.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runForm(cmd, formMCAT, formFile)
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results <file>",
	Short: "Audit a file and browse the results interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if formMCAT == "" {
			return MapError(normalize.ErrMissingName)
		}
		return runForm(cmd, formMCAT, args[0])
	},
}

func runForm(cmd *cobra.Command, mcat, file string) error {
	services, err := loadServicesForCurrentDir()
	if err != nil {
		return err
	}
	if file != "" {
		if file, err = resolvePath(file); err != nil {
			return err
		}
	}
	intake, err := services.NewIntake()
	if err != nil {
		return err
	}
	if os.Getenv("SPECAUDIT_SKIP_TUI_RUN") == "true" {
		return nil
	}

	m := newFormModel(cmd.Context(), intake, mcat, file)
	m.notify = func(sub application.Submission) {
		if err := services.NotifyProceeded(cmd.Context(), sub); err != nil {
			slog.Warn("stage 2 handoff failed", "submission", sub.ID, "error", err)
		}
	}
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("form run failed: %w", err)
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{formCmd, resultsCmd} {
		c.Flags().StringVarP(&formMCAT, "mcat", "m", "", "MCAT name")
		RootCmd.AddCommand(c)
	}
	formCmd.Flags().StringVarP(&formFile, "file", "f", "", "Specifications file to prefill")
}
