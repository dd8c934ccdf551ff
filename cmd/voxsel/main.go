package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hpungsan/voxsel/internal/config"
	"github.com/hpungsan/voxsel/internal/db"
	"github.com/hpungsan/voxsel/internal/logger"
	"github.com/hpungsan/voxsel/internal/mcp"
	"github.com/hpungsan/voxsel/internal/metrics"
	"github.com/hpungsan/voxsel/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// metricsAddrEnv names the listen address for the Prometheus endpoint in
// MCP server mode. Unset disables it.
const metricsAddrEnv = "VOXSEL_METRICS_ADDR"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"box": true, "sphere": true, "flood": true, "scope": true, "pick": true,
	"filter": true, "validate": true, "inspect": true,
	"save": true, "load": true, "get": true, "sets": true, "delete": true, "purge": true,
	"add": true, "remove": true, "fill": true, "workspace": true,
	"report": true, "call": true, "tools": true, "serve": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
  __   _______  _____ ___ _
  \ \ / / _ \ \/ / __| __| |
   \ V / (_) >  <\__ \ _|| |__
    \_/ \___/_/\_\___/___|____|

  Voxel selection engine

  Usage: voxsel <command> [options]
         voxsel --help

  MCP server mode requires piped input.`)
}

// warnUnknownNames logs disabled_tools / disabled_types entries that match nothing.
func warnUnknownNames(log *slog.Logger, cfg *config.Config) {
	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Warn("unknown tool in disabled_tools", "name", name)
	}
	for _, name := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		log.Warn("unknown type in disabled_types", "name", name)
	}
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, "", nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	log := logger.Setup()
	ctx := logger.NewContext(context.Background(), log)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}
	baseDir := filepath.Join(homeDir, ".voxsel")

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	warnUnknownNames(log, cfg)

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	reg := prometheus.NewRegistry()
	session, err := ops.Open(ctx, database, cfg, ops.Options{
		Logger:  log,
		Metrics: metrics.New(reg),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open session: %v\n", err)
		os.Exit(1)
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(session, baseDir, metrics.Handler(reg, log))
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'voxsel --help' for usage.\n")
		os.Exit(1)
	}

	if addr := os.Getenv(metricsAddrEnv); addr != "" {
		go func() {
			log.Info("serving metrics", "addr", addr)
			if err := http.ListenAndServe(addr, metrics.Handler(reg, log)); err != nil {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	// MCP server mode (default)
	if err := mcp.Run(ctx, session, cfg, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
