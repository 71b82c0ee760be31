package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/watch"
)

const legacySteel = `{"MCAT_Name":"Steel","Specifications":[
  {"name":"Grade","options":["304","316"],"type":"Config"},
  {"name":"Finish","options":["2B","BA"],"type":"Key"}
]}`

const finalizedSteel = `{"category_name":"Steel","finalized_specs":{
  "finalized_primary_specs":{"specs":[{"spec_name":"Grade","options":["304","316"],"input_type":"radio_button"}]}
}}`

const steelResults = `[
  {"specification":"Grade","status":"correct"},
  {"specification":"Finish","status":"incorrect","explanation":"BA is not a finish","problematic_options":["BA"]}
]`

// resetFlags restores every command flag variable to its default so tests
// sharing RootCmd do not leak state into each other.
func resetFlags() {
	projectPath, configPath = "", ""
	logLevel, logFormat = "warn", "text"
	normalizeMCAT, normalizeCompact = "", false
	auditMCAT, auditExpand, auditAll, auditJSON, auditProceed = "", nil, false, false, false
	formMCAT, formFile = "", ""
	watchMCAT, watchDir, watchExclude = "", "", nil
	watchInclude = append([]string(nil), watch.DefaultInclude...)
	watchDebounce, watchOnce = 300*time.Millisecond, false
	serveAddr, serveWatch = "", nil
	mcpTransport, mcpAddr = "stdio", ":8090"
}

// runCLI executes RootCmd with args and returns everything written to
// stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	RootCmd.SilenceErrors = true
	t.Cleanup(func() {
		RootCmd.SilenceErrors = false
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	})
	err := RootCmd.Execute()
	return out.String(), err
}

// projectDir creates a project directory holding files keyed by their
// relative name.
func projectDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}
