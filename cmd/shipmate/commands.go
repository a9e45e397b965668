package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/artpar/shipmate/internal/core/planner"
	"github.com/artpar/shipmate/internal/core/topology"
	"github.com/artpar/shipmate/internal/shell/docker"
	"github.com/artpar/shipmate/manifests"
)

// loadDeclaration reads and parses the manifest at path, or the embedded
// production manifest when path is empty.
func loadDeclaration(path string) (*topology.Declaration, error) {
	content := manifests.ProductionYAML()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest: %w", err)
		}
		content = string(raw)
	}
	return topology.Parse(content)
}

// validateCmd handles the "validate" command.
func validateCmd(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	path := fs.String("f", "", "Path to manifest file (default: embedded production manifest)")
	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	decl, err := loadDeclaration(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return ExitConfigError
	}

	violations := topology.Validate(decl)
	if len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", v)
		}
		return ExitConfigError
	}

	fmt.Printf("ok: %d services, %d volumes\n", len(decl.Services), len(decl.Volumes))
	return ExitSuccess
}

// showCmd handles the "show" command.
func showCmd(args []string) int {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
	path := fs.String("f", "", "Path to manifest file (default: embedded production manifest)")
	asJSON := fs.Bool("json", false, "Print the declaration as JSON")
	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	decl, err := loadDeclaration(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return ExitConfigError
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(decl); err != nil {
			fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
			return ExitConfigError
		}
		return ExitSuccess
	}

	for _, svc := range decl.Services {
		fmt.Printf("service %s\n", svc.Name)
		fmt.Printf("  image: %s\n", svc.Image)
		for _, dep := range svc.DependsOn {
			fmt.Printf("  depends on: %s (%s)\n", dep.Service, dep.Readiness)
		}
		for _, m := range svc.Mounts {
			ro := ""
			if m.ReadOnly {
				ro = " (ro)"
			}
			fmt.Printf("  mount: %s %s -> %s%s\n", m.Kind, m.Source, m.Target, ro)
		}
		for _, p := range svc.Ports {
			fmt.Printf("  port: %d -> %d/%s\n", p.HostPort, p.ContainerPort, p.Protocol)
		}
		for _, ef := range svc.EnvFiles {
			fmt.Printf("  env file: %s\n", ef.Path)
		}
	}
	for _, vol := range decl.Volumes {
		fmt.Printf("volume %s\n", vol.Name)
	}
	return ExitSuccess
}

// planCmd handles the "plan" command.
func planCmd(args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	path := fs.String("f", "", "Path to manifest file (default: embedded production manifest)")
	asJSON := fs.Bool("json", false, "Print the plan as JSON")
	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	decl, err := loadDeclaration(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return ExitConfigError
	}

	plan, err := planner.BuildStartPlan(decl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan error: %v\n", err)
		return ExitConfigError
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(plan); err != nil {
			fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
			return ExitConfigError
		}
		return ExitSuccess
	}

	for _, name := range plan.Volumes {
		fmt.Printf("volume %s\n", name)
	}
	for i, step := range plan.Steps {
		marker := ""
		if step.OneShot {
			marker = " (one-shot)"
		}
		fmt.Printf("%d. start %s [%s]%s\n", i+1, step.Service, step.Image, marker)
		for _, dep := range step.WaitFor {
			fmt.Printf("   wait for %s: %s\n", dep.Service, dep.Readiness)
		}
	}
	return ExitSuccess
}

// preflightCmd handles the "preflight" command.
func preflightCmd(args []string) int {
	fs := flag.NewFlagSet("preflight", flag.ContinueOnError)
	path := fs.String("f", "", "Path to manifest file (default: embedded production manifest)")
	host := fs.String("host", "", "Docker host (default: environment)")
	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	decl, err := loadDeclaration(*path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return ExitConfigError
	}
	if violations := topology.Validate(decl); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "invalid: %v\n", v)
		}
		return ExitConfigError
	}

	engine, err := docker.NewDockerClient(*host)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docker error: %v\n", err)
		return ExitDockerError
	}
	defer engine.Close()

	report, err := docker.Preflight(context.Background(), engine, decl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docker error: %v\n", err)
		return ExitDockerError
	}

	for _, c := range report.Checks {
		fmt.Printf("[%s] %s: %s\n", c.Status, c.Subject, c.Message)
	}
	if !report.Passed() {
		return ExitDockerError
	}
	return ExitSuccess
}

// serveCmd handles the "serve" command.
func serveCmd(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return ExitConfigError
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return ExitConfigError
	}

	logger := SetupLogger(cfg)
	logger.Info("starting shipmate",
		"version", Version,
		"config", *configPath,
	)

	server, err := NewServer(cfg, logger)
	if err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("failed to create server",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("failed to create server", "error", err)
		return ExitConfigError
	}

	if err := server.Start(context.Background()); err != nil {
		if sErr, ok := err.(*ServerError); ok {
			logger.Error("server error",
				"error", sErr.Err,
				"operation", sErr.Op,
			)
			return sErr.ExitCode
		}
		logger.Error("server error", "error", err)
		return ExitConfigError
	}

	return ExitSuccess
}
