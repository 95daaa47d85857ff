// Trellis: work-item MCP server for GitLab-compatible instances.
//
// Exposes create/update/get/list/delete tools over the unified work-item
// model (issues, epics, tasks, objectives, ...) plus the legacy epic-issue
// association, to any MCP-speaking AI tool.
//
// Usage:
//
//	trellis serve [-config path]   # Start MCP server (stdio transport)
//
// Configuration comes from TRELLIS_GITLAB_URL / TRELLIS_GITLAB_TOKEN and
// an optional YAML file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/tbranmore/trellis/internal/config"
	trellisserver "github.com/tbranmore/trellis/internal/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("trellis v%s\n", trellisserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := flags.String("config", "", "path to a trellis YAML config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	// Graceful shutdown on interrupt; the startup discovery pass also
	// honors the signal.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		cancel()
	}()

	s, err := trellisserver.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Trellis v%s — work-item MCP server

Usage:
  trellis serve [-config path]   Start the MCP server (stdio transport)
  trellis version                Print the version
  trellis help                   Show this help

Environment:
  %s    Instance root URL, e.g. https://gitlab.example.com
  %s  Bearer token for API calls
`, trellisserver.Version, config.EnvURL, config.EnvToken)
}
