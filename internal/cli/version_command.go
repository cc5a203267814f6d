package cli

import (
	"flag"
	"fmt"

	"remix-console/internal/version"
)

func runVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(map[string]string{"version": version.Value})
	}
	fmt.Println(version.Value)
	return nil
}
