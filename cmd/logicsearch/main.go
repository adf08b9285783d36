// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/logicsearch/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "logicsearch",
		Usage:     "Boolean search over a document corpus with knowledge-source fallback",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to TOML config file (default ~/.logicsearch/config.toml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error); overrides config",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadConfig(c); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Run a boolean query such as \"python and not java\"",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					formatFlag(),
					&cli.BoolFlag{
						Name:  "normalize",
						Usage: "Rewrite the query with a language model before parsing",
					},
					&cli.BoolFlag{
						Name:  "no-normalize",
						Usage: "Skip query normalization even when enabled in config",
					},
					&cli.StringFlag{
						Name:  "host",
						Usage: "Completion service host URL",
					},
					&cli.StringFlag{
						Name:  "model",
						Usage: "Completion model name",
					},
					&cli.StringFlag{
						Name:    "api-key",
						Usage:   "Completion service API key",
						EnvVars: []string{"LOGICSEARCH_API_KEY"},
					},
					&cli.BoolFlag{
						Name:  "no-fallback",
						Usage: "Do not consult the knowledge source when nothing matches",
					},
					&cli.BoolFlag{
						Name:  "no-dedup",
						Usage: "Store a new document for every fallback hit",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Wikipedia language edition for fallback",
					},
					&cli.StringFlag{
						Name:  "evaluator",
						Usage: "Evaluation strategy (tree, stack)",
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for each external service call",
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Print each search stage to stderr",
					},
				},
			},
			{
				Name:   "add",
				Usage:  "Add a document; text is read from stdin when --text is omitted",
				Action: addCommand,
				Flags: []cli.Flag{
					dbFlag(),
					formatFlag(),
					&cli.StringFlag{
						Name:     "name",
						Aliases:  []string{"n"},
						Usage:    "Document name",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "text",
						Aliases: []string{"t"},
						Usage:   "Document text",
					},
					&cli.StringFlag{
						Name:  "link",
						Usage: "Source link",
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Language tag",
					},
				},
			},
			{
				Name:      "get",
				Usage:     "Show the newest document with a name",
				ArgsUsage: "NAME",
				Action:    getCommand,
				Flags:     []cli.Flag{dbFlag(), formatFlag()},
			},
			{
				Name:      "delete",
				Usage:     "Delete every document with a name",
				ArgsUsage: "NAME",
				Action:    deleteCommand,
				Flags:     []cli.Flag{dbFlag()},
			},
			{
				Name:   "list",
				Usage:  "List all documents in insertion order",
				Action: listCommand,
				Flags:  []cli.Flag{dbFlag(), formatFlag()},
			},
			{
				Name:      "import",
				Usage:     "Import text files or directories of text files",
				ArgsUsage: "PATH...",
				Action:    importCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of files read concurrently",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents stored per transaction",
						Value: 64,
					},
					&cli.StringSliceFlag{
						Name:  "ext",
						Usage: "File extensions taken from directories",
						Value: cli.NewStringSlice(".txt", ".md"),
					},
					&cli.StringFlag{
						Name:  "lang",
						Usage: "Language tag for imported documents",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Do not print progress",
					},
				},
			},
			{
				Name:  "config",
				Usage: "Inspect or create the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write a config file with default values",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
				},
			},
		},
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory (default from config)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json)",
		Value:   "text",
	}
}

func loadConfig(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if errors.Is(err, os.ErrNotExist) && c.Args().First() == "config" {
		// config init may be creating the file
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return err
	}
	c.App.Metadata = map[string]any{configKey: cfg}
	return nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[configKey].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

func setupLogger(c *cli.Context) error {
	// Flag wins over config
	levelStr := c.String("log-level")
	if levelStr == "" {
		levelStr = appConfig(c).Log.Level
	}
	levelStr = strings.ToLower(levelStr)

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
