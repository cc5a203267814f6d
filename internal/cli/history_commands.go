package cli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"

	"remix-console/internal/api"
	"remix-console/internal/model"
	"remix-console/internal/settings"
)

func runHistory(args []string) error {
	if len(args) > 0 && args[0] == "clear" {
		return runHistoryClear(args[1:])
	}

	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	limit := fs.Int("limit", 0, "show at most N tasks (0 = all)")
	showFiles := fs.Bool("files", false, "include per-file results")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	history, err := client.History(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}
	tasks := history.Tasks
	if *limit > 0 && len(tasks) > *limit {
		tasks = tasks[:*limit]
	}

	if *jsonOut {
		return printJSON(model.History{Tasks: tasks})
	}
	if len(tasks) == 0 {
		fmt.Println("no tasks in history")
		return nil
	}
	fmt.Printf("%d task(s)\n", len(tasks))
	for _, t := range tasks {
		fmt.Printf("%s [%s] %s  %d/%d done, %d failed, %.1fs\n",
			t.ID, t.Status, t.Timestamp, t.Completed, t.Total, t.Failed, t.Elapsed)
		for _, c := range t.Categories {
			fmt.Printf("  - %s (%s) %d file(s)\n", c.Folder, c.Strategy, c.Count)
		}
		if *showFiles {
			for _, fr := range t.FileResults {
				line := fmt.Sprintf("    %s: %s (%.1fs)", fr.Filename, fr.Status, fr.Elapsed)
				if fr.Error != "" {
					line += " " + fr.Error
				}
				fmt.Println(line)
			}
		}
	}
	return nil
}

func runHistoryClear(args []string) error {
	fs := flag.NewFlagSet("history clear", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	yes := fs.Bool("yes", false, "skip confirmation")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*yes {
		ok, err := promptConfirm("clear all task history? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	client := newClient(*url)
	if err := client.ClearHistory(context.Background()); err != nil {
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(map[string]any{"cleared": true})
	}
	fmt.Println("history cleared")
	return nil
}

func runDownload(args []string) error {
	fs := flag.NewFlagSet("download", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	folder := fs.String("folder", "", "artifact folder (single-file download)")
	file := fs.String("file", "", "artifact file name (single-file download)")
	out := fs.String("out", "", "destination path (default: settings output dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	taskID := strings.TrimSpace(fs.Arg(0))
	if taskID == "" {
		fs.Usage()
		return errors.New("usage: remix-console download <task-id>")
	}
	if (strings.TrimSpace(*folder) == "") != (strings.TrimSpace(*file) == "") {
		return errors.New("--folder and --file go together; set both for a single artifact")
	}

	dest := strings.TrimSpace(*out)
	if dest == "" {
		stored, err := settings.Read("")
		if err != nil {
			stored = settings.Settings{}
		}
		name := taskID + ".zip"
		if strings.TrimSpace(*file) != "" {
			name = strings.TrimSpace(*file)
		}
		dest = filepath.Join(stored.OutputDir, name)
	}

	client := newClient(*url)
	opts := api.DownloadOptions{
		TaskID:   taskID,
		Folder:   strings.TrimSpace(*folder),
		File:     strings.TrimSpace(*file),
		DestPath: dest,
	}
	var bar *progressbar.ProgressBar
	if !*jsonOut {
		opts.Progress = func(written, total int64) {
			if bar == nil {
				if total <= 0 {
					total = -1
				}
				bar = newByteBar(total, "downloading")
			}
			_ = bar.Set64(written)
		}
	}

	result, err := client.Download(context.Background(), opts)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no artifacts for task %s on the backend", taskID)
		}
		return describeBackendError(client, err)
	}

	if *jsonOut {
		return printJSON(result)
	}
	fmt.Printf("saved %s (%s)\n", result.Path, formatBytesIEC(result.Bytes))
	return nil
}

func runStats(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "set":
			return runStatsSet(args[1:])
		case "add":
			return runStatsAdd(args[1:])
		}
	}

	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	stats, err := client.VideoStats(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(stats)
	}
	if len(stats.Videos) == 0 {
		fmt.Println("no video stats recorded")
		return nil
	}
	fmt.Printf("%d video(s)\n", len(stats.Videos))
	for _, v := range stats.Videos {
		fmt.Println(v.ID)
		keys := make([]string, 0, len(v.Stats))
		for k := range v.Stats {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %v\n", k, v.Stats[k])
		}
	}
	return nil
}

func runStatsSet(args []string) error {
	fs := flag.NewFlagSet("stats set", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		fs.Usage()
		return errors.New("usage: remix-console stats set <video-id> <key=value>...")
	}
	id := fs.Arg(0)
	pairs, err := parseStatPairs(fs.Args()[1:])
	if err != nil {
		return err
	}

	client := newClient(*url)
	if err := client.UpdateVideoStat(context.Background(), id, pairs); err != nil {
		if api.IsNotFound(err) {
			return fmt.Errorf("no video %s in stats; register it with: remix-console stats add %s", id, id)
		}
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(map[string]any{"id": id, "stats": pairs})
	}
	fmt.Printf("stats updated: %s\n", id)
	return nil
}

func runStatsAdd(args []string) error {
	fs := flag.NewFlagSet("stats add", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		fs.Usage()
		return errors.New("usage: remix-console stats add <video-id> [key=value]...")
	}
	id := fs.Arg(0)
	pairs, err := parseStatPairs(fs.Args()[1:])
	if err != nil {
		return err
	}

	client := newClient(*url)
	entry := model.VideoStatEntry{ID: id, Stats: pairs}
	if err := client.AddVideoStats(context.Background(), []model.VideoStatEntry{entry}); err != nil {
		return describeBackendError(client, err)
	}
	if *jsonOut {
		return printJSON(entry)
	}
	fmt.Printf("stats entry added: %s\n", id)
	return nil
}

// parseStatPairs decodes key=value arguments. Values that parse as JSON
// keep their type (numbers, booleans), anything else stays a string.
func parseStatPairs(raw []string) (map[string]any, error) {
	pairs := make(map[string]any, len(raw))
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("bad stat %q: want key=value", item)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		pairs[key] = parsed
	}
	return pairs, nil
}
