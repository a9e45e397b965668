// Package main provides the shipmate binary.
//
// Shipmate works with deployment topology declarations: compose-style
// manifests describing the services, volumes, ports and start-order
// dependencies of a deployment.
//
// Usage:
//
//	shipmate <command> [flags]
//
// Commands:
//
//	validate [-f manifest]   - Parse and validate a declaration
//	show [-f manifest]       - Print the resolved declaration
//	plan [-f manifest]       - Print the derived start plan
//	preflight [-f manifest]  - Check a declaration against the local engine
//	serve [-config path]     - Run the inspection API server
//	version                  - Show version
package main

import (
	"fmt"
	"os"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return ExitConfigError
	}

	cmd := args[0]
	rest := args[1:]

	switch cmd {
	case "version":
		fmt.Printf("shipmate %s (built %s)\n", Version, BuildTime)
		return ExitSuccess
	case "validate":
		return validateCmd(rest)
	case "show":
		return showCmd(rest)
	case "plan":
		return planCmd(rest)
	case "preflight":
		return preflightCmd(rest)
	case "serve":
		return serveCmd(rest)
	case "help", "-h", "--help":
		printUsage(os.Stdout)
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage(os.Stderr)
		return ExitConfigError
	}
}

func printUsage(w *os.File) {
	fmt.Fprintln(w, "usage: shipmate <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  validate [-f manifest]   parse and validate a declaration")
	fmt.Fprintln(w, "  show [-f manifest]       print the resolved declaration")
	fmt.Fprintln(w, "  plan [-f manifest]       print the derived start plan")
	fmt.Fprintln(w, "  preflight [-f manifest]  check a declaration against the local engine")
	fmt.Fprintln(w, "  serve [-config path]     run the inspection API server")
	fmt.Fprintln(w, "  version                  show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "omitting -f uses the embedded production manifest")
}
