package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"

	"remix-console/internal/api"
)

func runConfig(args []string) error {
	if len(args) == 0 {
		printConfigUsage()
		return nil
	}
	switch args[0] {
	case "get":
		return runConfigGet(args[1:])
	case "set":
		return runConfigSet(args[1:])
	case "edit":
		return runConfigEdit(args[1:])
	case "help", "-h", "--help":
		printConfigUsage()
		return nil
	default:
		printConfigUsage()
		return fmt.Errorf("unknown config subcommand %q", args[0])
	}
}

func runConfigGet(args []string) error {
	fs := flag.NewFlagSet("config get", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := newClient(*url)
	blob, err := client.Config(context.Background())
	if err != nil {
		return describeBackendError(client, err)
	}

	path := strings.TrimSpace(fs.Arg(0))
	value, ok := api.ConfigValue(blob, path)
	if !ok {
		return fmt.Errorf("config path %q is not set", path)
	}
	fmt.Println(prettyJSON(value))
	return nil
}

func runConfigSet(args []string) error {
	fs := flag.NewFlagSet("config set", flag.ContinueOnError)
	url := fs.String("url", "", "backend base URL")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("usage: remix-console config set <path> <value>")
	}
	path := strings.TrimSpace(fs.Arg(0))
	value := fs.Arg(1)

	client := newClient(*url)
	ctx := context.Background()
	blob, err := client.Config(ctx)
	if err != nil {
		return describeBackendError(client, err)
	}
	updated, err := api.WithConfigValue(blob, path, value)
	if err != nil {
		return err
	}
	doc, err := api.ConfigDocument(updated)
	if err != nil {
		return err
	}
	if err := client.PutConfig(ctx, doc); err != nil {
		return describeBackendError(client, err)
	}

	stored, _ := api.ConfigValue(updated, path)
	if *jsonOut {
		return printJSON(map[string]any{"path": path, "value": json.RawMessage(stored)})
	}
	fmt.Printf("config updated: %s = %s\n", path, stored)
	return nil
}

func printConfigUsage() {
	fmt.Println("config commands:")
	fmt.Println("  config get [path]            print the config blob or one dotted path")
	fmt.Println("  config set <path> <value>    set a dotted path (value parsed as JSON when it is JSON)")
	fmt.Println("  config edit                  interactive strategy parameter editor")
	fmt.Println()
	fmt.Println("examples:")
	fmt.Println("  config get strategies.handwriting")
	fmt.Println("  config set strategies.handwriting.sticker_count 18")
	fmt.Println("  config set strategies.health.enable_particles false")
}

func prettyJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
