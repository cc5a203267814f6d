package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"remix-console/internal/model"
)

func runInstallEnv(args []string) error {
	fs := flag.NewFlagSet("install-env", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	client := newClient(*url)
	fmt.Println("installing backend video dependencies...")
	err := client.StreamEnvInstall(context.Background(), func(frame model.StreamFrame) {
		if frame.Type == "output" && frame.Line != "" {
			fmt.Println(frame.Line)
		}
	})
	if err != nil {
		return describeBackendError(client, err)
	}
	fmt.Println("dependencies installed")
	fmt.Println("verify with: remix-console doctor")
	return nil
}

func runUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	yes := fs.Bool("yes", false, "skip confirmation")
	checkOnly := fs.Bool("check", false, "only check, do not pull")
	jsonOut := fs.Bool("json", false, "print the check result as JSON and stop")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	check, err := client.CheckUpdate(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}
	if check.Error != "" {
		return fmt.Errorf("update check failed: %s", check.Error)
	}
	if *jsonOut {
		return printJSON(check)
	}
	if !check.HasUpdate {
		if check.LocalSHA != "" {
			fmt.Printf("backend is up to date (revision %s)\n", shortSHA(check.LocalSHA))
		} else {
			fmt.Println("backend is up to date")
		}
		return nil
	}

	fmt.Printf("backend is %d commit(s) behind:\n", check.Ahead)
	for _, commit := range check.Commits {
		fmt.Printf("  %s %s\n", shortSHA(commit.SHA), commit.Message)
	}
	if *checkOnly {
		fmt.Println("next: remix-console update")
		return nil
	}

	if !*yes {
		ok, err := promptConfirm("pull the latest backend revision? [y/N] ")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}

	err = client.StreamGitPull(context.Background(), func(frame model.StreamFrame) {
		if frame.Type == "output" && frame.Line != "" {
			fmt.Println(frame.Line)
		}
	})
	if err != nil {
		return describeBackendError(client, err)
	}
	fmt.Println("backend updated; restart it to pick up the changes")
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
