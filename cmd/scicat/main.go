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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/scicat/config"
	"github.com/urfave/cli/v2"
)

const configKey = "config"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "scicat",
		Usage: "Scientific software catalog: relevance scoring, field classification and search",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"SCICAT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides storage.data_dir)",
			},
			&cli.StringFlag{
				Name:  "cache-dir",
				Usage: "Directory for the idf cache files (overrides storage.cache_dir)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Set logging format (text, json)",
				Value: "text",
			},
		},
		Before: setup,
		Commands: []*cli.Command{
			{
				Name:   "seed-fields",
				Usage:  "Store the reference scientific fields",
				Action: seedFieldsCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace fields that already exist",
					},
				},
			},
			{
				Name:   "import",
				Usage:  "Import projects from a JSON Lines file",
				Action: importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON Lines file to read, - for stdin",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of projects stored per batch",
						Value: 100,
					},
					&cli.BoolFlag{
						Name:  "no-classify",
						Usage: "Store projects without classifying them",
					},
					&cli.BoolFlag{
						Name:  "score",
						Usage: "Compute relevance scores while importing",
					},
				},
			},
			{
				Name:   "build-idf",
				Usage:  "Build the idf table of the reference corpus",
				Action: buildIDFCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild even when a cached table is fresh",
					},
					&cli.IntFlag{
						Name:  "sample",
						Usage: "Build from a random sample of N projects (not stored)",
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus metrics of the run to this file",
					},
				},
			},
			{
				Name:   "clear-cache",
				Usage:  "Remove the cached idf table",
				Action: clearCacheCommand,
			},
			{
				Name:   "idf-stats",
				Usage:  "Show metadata of the stored idf table",
				Action: idfStatsCommand,
			},
			{
				Name:   "indicators",
				Usage:  "List the terms used to score relevance",
				Action: indicatorsCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Show at most N indicators (0 for all)",
						Value: 50,
					},
				},
			},
			{
				Name:      "score",
				Usage:     "Compute the relevance score of a stored project",
				ArgsUsage: "<project url>",
				Action:    scoreCommand,
			},
			{
				Name:      "classify",
				Usage:     "Classify a stored project into scientific fields",
				ArgsUsage: "<project url>",
				Action:    classifyCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Store the accepted classifications",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Show every field score instead of the accepted ones",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Find projects by package, name or repository",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results (defaults to search.default_limit)",
					},
				},
			},
			{
				Name:   "rescore",
				Usage:  "Recompute relevance scores and classifications of every project",
				Action: rescoreCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of projects to process in each batch",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of projects processed concurrently",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N projects",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for each project",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
					&cli.StringFlag{
						Name:  "metrics-file",
						Usage: "Write Prometheus metrics of the run to this file",
					},
				},
			},
			{
				Name:   "compare",
				Usage:  "List terms more common in the reference corpus than in other projects",
				Action: compareCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of terms to show",
						Value: 100,
					},
				},
			},
		},
	}
}

// setup loads the configuration and installs the logger.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("db") {
		cfg.Storage.DataDir = c.String("db")
	}
	if c.IsSet("cache-dir") {
		cfg.Storage.CacheDir = c.String("cache-dir")
	}
	if c.IsSet("log-level") || cfg.Logging.Level == "" {
		cfg.Logging.Level = c.String("log-level")
	}
	if c.IsSet("log-format") || cfg.Logging.Format == "" {
		cfg.Logging.Format = c.String("log-format")
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[configKey] = cfg
	return nil
}

func newLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	// Get log level and normalize to lowercase
	levelStr := strings.ToLower(cfg.Level)

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
		return nil, fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(cfg.Format) {
	case "text":
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(os.Stderr, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format %q: must be text or json", cfg.Format)
}

func loadedConfig(c *cli.Context) config.Config {
	if cfg, ok := c.App.Metadata[configKey].(config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}
