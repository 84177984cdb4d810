package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/kabir/a2a-tck/internal"
	pkgconfig "github.com/kabir/a2a-tck/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	err := pkgconfig.Load(configPath, cfg)
	if err != nil {
		// The implicit default path may simply not exist; built-in
		// defaults are enough to run. An explicit --config must load.
		if errors.Is(err, os.ErrNotExist) && !cmd.IsSet("config") {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func analyze(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Command-line paths override the config file.
	if v := cmd.String("baseline"); v != "" {
		cfg.Specs.Baseline = v
	}
	if v := cmd.String("latest"); v != "" {
		cfg.Specs.Latest = v
	}
	if v := cmd.String("manifest"); v != "" {
		cfg.Suite.Manifest = v
	}
	if cmd.Bool("no-archive") {
		cfg.SQLite.Path = ""
	}

	return internal.Analyze(ctx, cfg)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, cfg)
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}

	cmd := &cli.Command{
		Name:  "a2a-tck",
		Usage: "Specification coverage analyzer: extracts normative requirements, diffs spec versions, and maps them onto a test-suite manifest",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "analyze",
				Usage:  "Run one analysis and print the JSON result to stdout",
				Action: analyze,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "baseline",
						Usage: "Baseline spec document (overrides config)",
					},
					&cli.StringFlag{
						Name:  "latest",
						Usage: "Latest spec document (overrides config)",
					},
					&cli.StringFlag{
						Name:  "manifest",
						Usage: "Test-suite manifest (overrides config)",
					},
					&cli.BoolFlag{
						Name:  "no-archive",
						Usage: "Skip persisting the run to the archive database",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Start the HTTP API server with file watching and SSE events",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Start the MCP server on stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
