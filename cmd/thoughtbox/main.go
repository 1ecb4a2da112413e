// thoughtbox: local-first product knowledge store.
//
// thoughtbox keeps products, their taxonomy, knowledge entities and the
// relationships between them in a local SQLite database, and exposes them
// to any MCP host over stdio.
//
// Usage:
//
//	thoughtbox serve                    # Start MCP server (stdio transport)
//	thoughtbox export --product <id>    # Write a JSON export archive
//	thoughtbox snapshot --product <id>  # Print a Markdown snapshot
//	thoughtbox history                  # List past exports
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/HendryAvila/thoughtbox/internal/config"
	"github.com/HendryAvila/thoughtbox/internal/knowledge"
	"github.com/HendryAvila/thoughtbox/internal/logger"
	tbserver "github.com/HendryAvila/thoughtbox/internal/server"
	"github.com/HendryAvila/thoughtbox/internal/snapshot"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logMode    string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:   "thoughtbox",
		Short: "Local-first product knowledge store",
		Long: `thoughtbox keeps products, personas, feature areas, problems,
hypotheses, experiments, decisions and feedback in a local database,
links them together and exports them.

Run "thoughtbox serve" to expose the store to an MCP host over stdio.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logMode, "log-mode", "", "Log mode override (development, production)")

	cmd.AddCommand(
		newServeCmd(&g),
		newExportCmd(&g),
		newSnapshotCmd(&g),
		newHistoryCmd(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "thoughtbox v%s\n", tbserver.Version)
			},
		},
	)
	return cmd
}

// bootstrap loads configuration and builds the logger. The logger writes
// to stderr only.
func bootstrap(g *globalFlags) (*config.Config, *logger.Logger, error) {
	cfg, err := config.NewLoader(nil).Load(g.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if g.logMode != "" {
		cfg.LogMode = g.logMode
		if err := cfg.Validate(); err != nil {
			return nil, nil, err
		}
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, log, nil
}

// app is an opened store plus the engine built over it.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	store  *knowledge.Store
	engine *snapshot.Engine
}

func openApp(g *globalFlags) (*app, error) {
	cfg, log, err := bootstrap(g)
	if err != nil {
		return nil, err
	}
	store, err := knowledge.New(knowledge.Config{DataDir: cfg.DataDir})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("opening knowledge store: %w", err)
	}
	return &app{cfg: cfg, log: log, store: store, engine: snapshot.New(store, log)}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("knowledge store close failed", "error", err)
	}
	a.log.Sync()
}

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap(g)
			if err != nil {
				return err
			}
			defer log.Sync()

			s, cleanup, err := tbserver.New(cfg, log)
			if err != nil {
				return fmt.Errorf("creating server: %w", err)
			}
			defer cleanup()

			// ServeStdio handles SIGINT/SIGTERM itself.
			return server.ServeStdio(s)
		},
	}
}
