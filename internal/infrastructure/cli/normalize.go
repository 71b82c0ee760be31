package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/watch"
	"github.com/felixgeelhaar/specaudit/pkg/application"
	"github.com/felixgeelhaar/specaudit/pkg/domain/catalog"
	"github.com/felixgeelhaar/specaudit/pkg/domain/normalize"
	"github.com/spf13/cobra"
)

var (
	normalizeMCAT    string
	normalizeCompact bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file|glob>...",
	Short: "Convert specification files into audit input JSON",
	Long: `Convert specification files into the audit input JSON sent to the auditor.

A single file prints one audit input. Several files (or a ** glob) print a
JSON array with one entry per file; failures are reported per entry and the
command exits non-zero when any file fails.

Examples:
  specaudit normalize --mcat "Stainless Steel Sheet" specs.json
  specaudit normalize --mcat Steel 'exports/**/*.json'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNormalize,
}

// batchEntry is one file of a multi-file normalize run.
type batchEntry struct {
	File  string              `json:"file"`
	Input *catalog.AuditInput `json:"input,omitempty"`
	Error string              `json:"error,omitempty"`
}

func runNormalize(cmd *cobra.Command, args []string) error {
	paths, err := expandArgs(args)
	if err != nil {
		return err
	}

	if len(paths) == 1 && !hasGlob(args) {
		input, err := normalizeFile(cmd, paths[0], normalizeMCAT)
		if err != nil {
			return MapError(err)
		}
		return writeJSON(cmd.OutOrStdout(), input, normalizeCompact)
	}

	entries := make([]batchEntry, 0, len(paths))
	failed := 0
	for _, p := range paths {
		entry := batchEntry{File: p}
		input, err := normalizeFile(cmd, p, normalizeMCAT)
		if err != nil {
			entry.Error = normalize.Message(err)
			failed++
		} else {
			entry.Input = input
		}
		entries = append(entries, entry)
	}
	if err := writeJSON(cmd.OutOrStdout(), entries, normalizeCompact); err != nil {
		return err
	}
	if failed > 0 {
		return validationError(fmt.Sprintf("%d of %d files failed to normalize", failed, len(paths)), "See the error field of each entry", nil)
	}
	return nil
}

func normalizeFile(cmd *cobra.Command, path, mcat string) (*catalog.AuditInput, error) {
	data, err := application.FileSource{Path: path}.Read(cmd.Context())
	if err != nil {
		return nil, err
	}
	doc, err := normalize.ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return normalize.Normalize(doc, mcat)
}

var previewCmd = &cobra.Command{
	Use:   "preview <file|glob>...",
	Short: "Show the detected format and specification count of files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := expandArgs(args)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range paths {
			data, err := application.FileSource{Path: p}.Read(cmd.Context())
			if err != nil {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", p, incorrectStyle.Render(err.Error()))
				continue
			}
			doc, err := normalize.ParseDocument(data)
			if err != nil {
				_, _ = fmt.Fprintf(out, "%s\t%s\n", p, incorrectStyle.Render(normalize.Message(err)))
				continue
			}
			_, _ = fmt.Fprintf(out, "%s\t%s\t%d specifications found\n", p, normalize.Detect(doc), normalize.Preview(doc))
		}
		return nil
	},
}

func expandArgs(args []string) ([]string, error) {
	resolved := make([]string, 0, len(args))
	for _, a := range args {
		p, err := resolvePath(a)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, p)
	}
	paths, err := watch.ExpandPaths(resolved)
	if err != nil {
		return nil, NewCLIError("cannot resolve input files", "Quote globs so the shell does not expand them", err)
	}
	if len(paths) == 0 {
		return nil, MapError(normalize.ErrMissingFile)
	}
	return paths, nil
}

func hasGlob(args []string) bool {
	for _, a := range args {
		if strings.ContainsAny(a, "*?[{") {
			return true
		}
	}
	return false
}

func writeJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func init() {
	normalizeCmd.Flags().StringVarP(&normalizeMCAT, "mcat", "m", "", "MCAT name the files must belong to")
	normalizeCmd.Flags().BoolVar(&normalizeCompact, "compact", false, "Print compact JSON")
	RootCmd.AddCommand(normalizeCmd)
	RootCmd.AddCommand(previewCmd)
}
