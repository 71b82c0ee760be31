package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/specaudit/pkg/domain/report"
	"github.com/felixgeelhaar/specaudit/pkg/infrastructure/auditor"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema auditor results must match",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), auditor.ResultsSchemaJSON)
		return err
	},
}

var schemaCheckCmd = &cobra.Command{
	Use:   "check <results.json>",
	Short: "Validate an audit results file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvePath(args[0])
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read results file: %w", err)
		}
		results, err := auditor.DecodeResults(data)
		if err != nil {
			return MapError(err)
		}
		s := report.Summarize(results)
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %d results\n%s\n", correctStyle.Render("valid:"), s.Total, renderSummary(s))
		return nil
	},
}

func init() {
	schemaCmd.AddCommand(schemaCheckCmd)
	RootCmd.AddCommand(schemaCmd)
}
