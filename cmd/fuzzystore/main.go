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

	"github.com/poiesic/fuzzystore/fuzzy"
	redisstore "github.com/poiesic/fuzzystore/storage/redis"
	"github.com/urfave/cli/v2"
)

const (
	backendBadger = "badger"
	backendRedis  = "redis"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "fuzzystore",
		Usage: "Typo tolerant search over Russian and English names",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "Storage backend (badger, redis)",
				Value: backendBadger,
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./fuzzystore_db",
				EnvVars: []string{"FUZZYSTORE_DB"},
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis server address",
				Value:   "localhost:6379",
				EnvVars: []string{"REDIS_ADDR"},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password",
				EnvVars: []string{"REDIS_PASSWORD"},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Usage:   "Redis database number",
				EnvVars: []string{"REDIS_DB"},
			},
			&cli.StringFlag{
				Name:  "redis-namespace",
				Usage: "Prefix of every Redis key",
				Value: redisstore.DefaultNamespace,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import",
				Usage:     "Import a tab separated corpus (use - for stdin)",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of entries written in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N entries",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for a failed batch",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "Fail on duplicate entries instead of skipping them",
					},
				},
			},
			{
				Name:   "add",
				Usage:  "Add a single entry",
				Action: addCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "primary",
						Aliases:  []string{"p"},
						Usage:    "Primary text",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "secondary",
						Aliases: []string{"s"},
						Usage:   "Secondary spelling, usually the Latin form",
					},
					&cli.StringSliceFlag{
						Name:    "meta",
						Aliases: []string{"m"},
						Usage:   "Metadata pair as key=value (repeatable)",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search entries by a possibly misspelled query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.Float64Flag{
						Name:    "threshold",
						Aliases: []string{"t"},
						Usage:   "Highest cost a result may have",
						Value:   fuzzy.DefaultThreshold,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML file with search settings",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (0 for all)",
					},
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Rank every entry, ignoring the threshold",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Log each search stage at debug level",
					},
				},
			},
			{
				Name:   "list",
				Usage:  "List stored entries",
				Action: listCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "count",
						Usage: "Print only the number of entries",
					},
				},
			},
			{
				Name:      "delete",
				Usage:     "Delete entries by ID",
				ArgsUsage: "ID...",
				Action:    deleteCommand,
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
