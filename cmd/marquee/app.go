package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/marquee"
	"github.com/poiesic/marquee/config"
)

// newApp builds the command tree. engineOpts are passed to every engine the
// commands open.
func newApp(engineOpts ...marquee.EngineOption) *cli.App {
	r := &runner{engineOpts: engineOpts}

	return &cli.App{
		Name:  "marquee",
		Usage: "Hybrid movie search with entity boosting and LLM answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML config file (defaults apply when missing)",
				Value:   "marquee.yaml",
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "Load environment variables from these files",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Aliases:   []string{"answer"},
				Usage:     "Search the catalog and answer with ranked recommendations",
				ArgsUsage: "QUERY",
				Action:    r.searchCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print retrieved candidates without generating a response",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of candidates to retrieve (overrides config)",
					},
				},
			},
			{
				Name:      "embed",
				Usage:     "Print the embedding vector for a text",
				ArgsUsage: "TEXT",
				Action:    r.embedCommand,
			},
			{
				Name:  "index",
				Usage: "Manage the movie index",
				Subcommands: []*cli.Command{
					{
						Name:   "create",
						Usage:  "Create the index with the movie mapping",
						Action: r.createCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "recreate",
								Usage: "Delete the index first if it exists",
							},
						},
					},
					{
						Name:   "delete",
						Usage:  "Delete the index and its documents",
						Action: r.deleteCommand,
					},
					{
						Name:   "count",
						Usage:  "Print the number of indexed documents",
						Action: r.countCommand,
					},
					{
						Name:      "load",
						Usage:     "Embed and index movies from a JSON or JSON Lines file",
						ArgsUsage: "FILE",
						Action:    r.loadCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "create",
								Usage: "Create the index if it does not exist",
							},
							&cli.BoolFlag{
								Name:  "restart",
								Usage: "Ignore any checkpoint and load from the beginning",
							},
							&cli.IntFlag{
								Name:  "batch-size",
								Usage: "Documents per upsert (overrides config)",
							},
							&cli.BoolFlag{
								Name:  "quiet",
								Usage: "Do not print progress",
							},
						},
					},
				},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// loadConfig reads the env files and the config file named by the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnv(c.StringSlice("env-file")...); err != nil {
		return nil, err
	}
	return config.Load(c.String("config"))
}
