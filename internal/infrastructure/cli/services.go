package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/felixgeelhaar/specaudit/internal/infrastructure/wiring"
)

func getProjectRoot() (string, error) {
	if projectPath != "" {
		abs, err := filepath.Abs(projectPath)
		if err != nil {
			return "", fmt.Errorf("invalid project path %q: %w", projectPath, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return "", fmt.Errorf("project path %q: %w", abs, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("project path %q is not a directory", abs)
		}
		return abs, nil
	}
	return os.Getwd()
}

func loadServicesForCurrentDir() (*wiring.AppServices, error) {
	root, err := getProjectRoot()
	if err != nil {
		return nil, err
	}
	services, err := wiring.BuildAppServices(root, configPath, slog.Default())
	if err != nil {
		return nil, NewCLIError("failed to load configuration", "Check .specaudit.yaml or pass --config", err)
	}
	return services, nil
}

// resolvePath makes p relative to the project root when --project is set.
func resolvePath(p string) (string, error) {
	if filepath.IsAbs(p) || projectPath == "" {
		return p, nil
	}
	root, err := getProjectRoot()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, p), nil
}
