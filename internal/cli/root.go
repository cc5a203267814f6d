package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	var err error
	switch args[0] {
	case "upload":
		err = runUpload(args[1:])
	case "scan":
		err = runScan(args[1:])
	case "run":
		err = runLaunch(args[1:])
	case "watch":
		err = runWatch(args[1:])
	case "cancel":
		err = runCancel(args[1:])
	case "download":
		err = runDownload(args[1:])
	case "history":
		err = runHistory(args[1:])
	case "strategies":
		err = runStrategies(args[1:])
	case "assets":
		err = runAssets(args[1:])
	case "config":
		err = runConfig(args[1:])
	case "stats":
		err = runStats(args[1:])
	case "doctor":
		err = runDoctor(args[1:])
	case "install-env":
		err = runInstallEnv(args[1:])
	case "update":
		err = runUpdate(args[1:])
	case "settings":
		err = runSettings(args[1:])
	case "version":
		err = runVersion(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}

	if err != nil {
		return err
	}

	maybePrintUpdateHint(args)
	return nil
}

func printRootUsage() {
	fmt.Println("remix-console: terminal console for the video remix backend")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  remix-console upload <folder>")
	fmt.Println("  remix-console run --session <session-id>")
	fmt.Println("  remix-console watch <task-id>")
	fmt.Println("  remix-console download <task-id>")
	fmt.Println()
	fmt.Println("Task Commands:")
	fmt.Println("  upload    scan a folder and upload its videos into a session")
	fmt.Println("  scan      preview categories and strategies without uploading")
	fmt.Println("  run       launch remixing for an uploaded session (--dry-run previews)")
	fmt.Println("  watch     follow live progress for a task")
	fmt.Println("  cancel    cancel a running task")
	fmt.Println("  download  fetch finished artifacts (zip or a single file)")
	fmt.Println("  history   list or clear past tasks")
	fmt.Println()
	fmt.Println("Backend Commands:")
	fmt.Println("  strategies  list editing strategies, presets, and mixing modes")
	fmt.Println("  assets      sticker and decoration library overview")
	fmt.Println("  config      get/set/edit strategy parameters")
	fmt.Println("  stats       per-video usage counters")
	fmt.Println("  doctor      check ffmpeg, ffprobe, and asset directories")
	fmt.Println("  install-env stream the backend dependency install")
	fmt.Println("  update      pull the latest backend revision")
	fmt.Println()
	fmt.Println("Client Commands:")
	fmt.Println("  settings  show/update stored client settings")
	fmt.Println("  version   print version")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - The backend address resolves from --url, $REMIX_CONSOLE_URL,")
	fmt.Println("    stored settings, then http://127.0.0.1:8000")
}
