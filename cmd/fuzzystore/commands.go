package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/poiesic/fuzzystore"
	"github.com/poiesic/fuzzystore/core"
	"github.com/poiesic/fuzzystore/ingestion"
	"github.com/poiesic/fuzzystore/search"
	redisstore "github.com/poiesic/fuzzystore/storage/redis"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"
)

// openDatabase opens the backend selected by the global flags. The returned
// function closes everything that was opened.
func openDatabase(c *cli.Context) (*fuzzystore.Database, func(), error) {
	switch backend := c.String("backend"); backend {
	case backendBadger:
		dbPath := c.String("db")
		if dbPath == "" {
			return nil, nil, fmt.Errorf("database path is required")
		}
		db, err := fuzzystore.NewDatabase(dbPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		return db, func() { db.Close() }, nil

	case backendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     c.String("redis-addr"),
			Password: c.String("redis-password"),
			DB:       c.Int("redis-db"),
		})
		if err := client.Ping(c.Context).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", c.String("redis-addr"), err)
		}

		repo, err := redisstore.NewRepository(client,
			redisstore.WithNamespace(c.String("redis-namespace")),
			redisstore.WithLogger(slog.Default()),
		)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		db, err := fuzzystore.NewDatabaseWithRepository(repo)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return db, func() {
			db.Close()
			if err := client.Close(); err != nil {
				slog.Error("error closing redis client", "err", err)
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown backend %q: must be one of %s, %s", backend, backendBadger, backendRedis)
	}
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("corpus file is required")
	}

	cfg := ingestion.NewConfig(
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithReportInterval(c.Int("report-interval")),
		ingestion.WithRetries(c.Int("max-retries"), c.Duration("retry-delay")),
		ingestion.WithSkipDuplicates(!c.Bool("strict")),
	)
	if err := cfg.Validate(); err != nil {
		return err
	}

	db, closeDB, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer closeDB()

	importer, err := db.NewImporter(cfg, os.Stderr)
	if err != nil {
		return err
	}

	var stats *ingestion.Stats
	if path == "-" {
		stats, err = importer.Import(c.Context, os.Stdin)
	} else {
		stats, err = importer.ImportFile(c.Context, path)
	}
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Imported %d entries from %d lines (%d skipped)\n",
		stats.Added, stats.Lines, stats.Skipped)
	return nil
}

func addCommand(c *cli.Context) error {
	entry := &core.Entry{
		Primary:   c.String("primary"),
		Secondary: c.String("secondary"),
	}
	metadata, err := parseMetadataFlags(c.StringSlice("meta"))
	if err != nil {
		return err
	}
	entry.Metadata = metadata
	if err := core.ValidateEntry(entry); err != nil {
		return err
	}

	db, closeDB, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer closeDB()

	added, err := db.EntryRepository().AddEntries(c.Context, entry)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Added entry %d\n", added[0].Id)
	return nil
}

func parseMetadataFlags(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("metadata %q must be key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("query is required")
	}

	cfg, err := searchConfig(c)
	if err != nil {
		return err
	}

	db, closeDB, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer closeDB()

	searcher, err := db.NewSearcher(search.WithConfig(cfg))
	if err != nil {
		return err
	}
	defer searcher.Release()

	var results []*core.SearchResult
	switch {
	case c.Bool("all"):
		results, err = searcher.Rank(c.Context, query)
		if err == nil && cfg.MaxResults > 0 && len(results) > cfg.MaxResults {
			results = results[:cfg.MaxResults]
		}
	case c.Bool("explain"):
		results, err = searcher.SearchWithMonitor(c.Context, query, &search.LogMonitor{Logger: slog.Default()})
	default:
		results, err = searcher.Search(c.Context, query)
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	printResults(c.App.Writer, results)
	return nil
}

// searchConfig layers the command line flags over the optional YAML file.
func searchConfig(c *cli.Context) (*search.Config, error) {
	cfg := search.DefaultConfig()
	if path := c.String("config"); path != "" {
		loaded, err := search.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load search config: %w", err)
		}
		cfg = loaded
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Float64("threshold")
	}
	if c.IsSet("limit") {
		cfg.MaxResults = c.Int("limit")
	}
	return cfg, cfg.Validate()
}

func printResults(w io.Writer, results []*core.SearchResult) {
	fmt.Fprintf(w, "Found %d hits\n", len(results))
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCOST\tMATCH\tPRIMARY\tSECONDARY")
	for _, hit := range results {
		fmt.Fprintf(tw, "%d\t%.1f\t%s\t%s\t%s\n",
			hit.Entry.Id, hit.Cost, hit.Variant, hit.Entry.Primary, hit.Entry.Secondary)
	}
	tw.Flush()
}

func listCommand(c *cli.Context) error {
	db, closeDB, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer closeDB()

	repo := db.EntryRepository()
	if c.Bool("count") {
		count, err := repo.CountEntries(c.Context)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, count)
		return nil
	}

	entries, err := repo.GetAllEntries(c.Context)
	if err != nil {
		return err
	}
	printEntries(c.App.Writer, entries)
	return nil
}

func printEntries(w io.Writer, entries []*core.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRIMARY\tSECONDARY\tMETADATA")
	for _, entry := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", entry.Id, entry.Primary, entry.Secondary, formatMetadata(entry.Metadata))
	}
	tw.Flush()
}

func formatMetadata(metadata map[string]string) string {
	pairs := make([]string, 0, len(metadata))
	for key, value := range metadata {
		pairs = append(pairs, key+"="+value)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

func deleteCommand(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("at least one entry ID is required")
	}
	ids, err := parseIDs(c.Args().Slice())
	if err != nil {
		return err
	}

	db, closeDB, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := db.EntryRepository().DeleteEntries(c.Context, ids...); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Deleted %d entries\n", len(ids))
	return nil
}

func parseIDs(args []string) ([]core.ID, error) {
	ids := make([]core.ID, 0, len(args))
	var errs []error
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			errs = append(errs, fmt.Errorf("invalid entry ID %q", arg))
			continue
		}
		ids = append(ids, core.ID(id))
	}
	return ids, errors.Join(errs...)
}
