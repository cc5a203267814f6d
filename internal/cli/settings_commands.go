package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"remix-console/internal/api"
	"remix-console/internal/settings"
	"remix-console/internal/upload"
)

func runSettings(args []string) error {
	if len(args) == 0 {
		printSettingsUsage()
		return nil
	}
	switch args[0] {
	case "show":
		return runSettingsShow(args[1:])
	case "set":
		return runSettingsSet(args[1:])
	case "help", "-h", "--help":
		printSettingsUsage()
		return nil
	default:
		printSettingsUsage()
		return fmt.Errorf("unknown settings subcommand %q", args[0])
	}
}

func runSettingsShow(args []string) error {
	fs := flag.NewFlagSet("settings show", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path (default: user config dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveSettingsPath(*config)
	if err != nil {
		return err
	}
	stored, err := settings.Read(path)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": path,
			"settings":    stored,
		})
	}

	fmt.Printf("config: %s\n", path)
	fmt.Printf("backend_url: %s\n", formatSettingDefault(stored.BackendURL, api.DefaultBaseURL))
	fmt.Printf("output_dir: %s\n", formatSettingDefault(stored.OutputDir, "current directory"))
	fmt.Printf("upload_concurrency: %s\n", formatConcurrency(stored.UploadConcurrency))
	if stored.UpdatedAt != "" {
		fmt.Printf("updated_at: %s\n", stored.UpdatedAt)
	}
	return nil
}

func runSettingsSet(args []string) error {
	fs := flag.NewFlagSet("settings set", flag.ContinueOnError)
	config := fs.String("config", "", "settings file path (default: user config dir)")
	backendURL := fs.String("backend-url", "", "backend base URL to persist (empty keeps current)")
	clearBackendURL := fs.Bool("clear-backend-url", false, "drop the stored backend URL")
	outputDir := fs.String("output-dir", "", "default download directory (empty keeps current)")
	clearOutputDir := fs.Bool("clear-output-dir", false, "drop the stored output directory")
	concurrency := fs.Int("upload-concurrency", -1, "category upload concurrency (0 restores default, -1 keeps current)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	path, err := resolveSettingsPath(*config)
	if err != nil {
		return err
	}
	stored, err := settings.Read(path)
	if err != nil {
		return err
	}

	if *clearBackendURL {
		stored.BackendURL = ""
	}
	if strings.TrimSpace(*backendURL) != "" {
		stored.BackendURL = strings.TrimSpace(*backendURL)
	}
	if *clearOutputDir {
		stored.OutputDir = ""
	}
	if strings.TrimSpace(*outputDir) != "" {
		stored.OutputDir = strings.TrimSpace(*outputDir)
	}
	if *concurrency != -1 {
		if *concurrency < 0 {
			return errors.New("--upload-concurrency must be >= 0")
		}
		stored.UploadConcurrency = *concurrency
	}

	saved, err := settings.Save(path, stored)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]any{
			"config_path": path,
			"settings":    saved,
		})
	}
	fmt.Printf("settings saved to %s\n", path)
	fmt.Printf("backend_url: %s\n", formatSettingDefault(saved.BackendURL, api.DefaultBaseURL))
	fmt.Printf("output_dir: %s\n", formatSettingDefault(saved.OutputDir, "current directory"))
	fmt.Printf("upload_concurrency: %s\n", formatConcurrency(saved.UploadConcurrency))
	return nil
}

func resolveSettingsPath(flagValue string) (string, error) {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v, nil
	}
	return settings.DefaultPath()
}

func formatSettingDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return fmt.Sprintf("(default: %s)", def)
	}
	return v
}

func formatConcurrency(n int) string {
	if n <= 0 {
		return fmt.Sprintf("(default: %d)", upload.DefaultCategoryConcurrency)
	}
	return strconv.Itoa(n)
}

func printSettingsUsage() {
	fmt.Println("settings commands:")
	fmt.Println("  settings show")
	fmt.Println("  settings set [--backend-url URL] [--output-dir DIR] [--upload-concurrency N]")
	fmt.Println("  settings set --clear-backend-url    (fall back to the default backend)")
}
