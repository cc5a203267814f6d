package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"remix-console/internal/model"
)

func runStrategies(args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	catalog, err := client.Strategies(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(catalog)
	}

	for _, s := range catalog.Strategies {
		fmt.Printf("%s (%s)\n", s.ID, s.Name)
		if strings.TrimSpace(s.Description) != "" {
			fmt.Printf("  %s\n", s.Description)
		}
		fmt.Printf("  defaults: stickers=%d sparkles=%d preset=%s\n",
			s.Defaults.StickerCount, s.Defaults.SparkleCount, s.Defaults.Preset)
	}
	fmt.Printf("presets: %s\n", strings.Join(catalog.StrategyPresets, ", "))
	fmt.Printf("mixing modes: %s\n", strings.Join(catalog.MixingModes, ", "))
	return nil
}

func runAssets(args []string) error {
	fs := flag.NewFlagSet("assets", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	overview, err := client.AssetsOverview(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(overview)
	}

	fmt.Printf("stickers: %d\n", overview.Stickers.Total)
	printCountMap("  ", overview.Stickers.Categories)
	fmt.Printf("sparkles: %d\n", overview.Sparkles.Total)
	printCountMap("  ", overview.Sparkles.Styles)
	if len(overview.Effects) > 0 {
		fmt.Println("effects:")
		printCountMap("  ", overview.Effects)
	}
	return nil
}

func printCountMap(indent string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s%s: %d\n", indent, k, counts[k])
	}
}

type doctorCheck struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	check, err := client.EnvCheck(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}

	checks := doctorChecks(check)
	ok := true
	for _, c := range checks {
		if !c.OK {
			ok = false
			break
		}
	}

	if *jsonOut {
		return printJSON(map[string]any{"ok": ok, "checks": checks})
	}
	for _, c := range checks {
		status := "ok"
		if !c.OK {
			status = "fail"
		}
		fmt.Printf("%s: %s (%s)\n", c.Name, status, c.Message)
	}
	if !ok {
		return errors.New("doctor checks failed")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func doctorChecks(check model.EnvCheck) []doctorCheck {
	checks := []doctorCheck{
		toolCheckRow("dependency:ffmpeg", check.FFmpeg),
		toolCheckRow("dependency:ffprobe", check.FFprobe),
	}
	names := make([]string, 0, len(check.Assets))
	for name := range check.Assets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dir := check.Assets[name]
		row := doctorCheck{Name: "assets:" + name, OK: dir.Exists}
		if dir.Exists {
			row.Message = fmt.Sprintf("%d file(s)", dir.Count)
		} else {
			row.Message = "directory missing on backend"
		}
		checks = append(checks, row)
	}
	return checks
}

func toolCheckRow(name string, tool model.ToolCheck) doctorCheck {
	if !tool.Installed {
		return doctorCheck{Name: name, Message: "not found (try: remix-console install-env)"}
	}
	msg := tool.Path
	if tool.Version != "" {
		msg = fmt.Sprintf("%s (%s)", msg, tool.Version)
	}
	return doctorCheck{Name: name, OK: true, Message: msg}
}
