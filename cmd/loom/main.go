// Copyright 2025 Weftworks
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
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/weftworks/loom"
	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/config"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/enrich"
	"github.com/weftworks/loom/ingest"
	"github.com/weftworks/loom/relate"
	"github.com/weftworks/loom/sources"
	"github.com/weftworks/loom/storage"
)

func main() {
	app := &cli.App{
		Name:  "loom",
		Usage: "Knowledge base for news and social media content",
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
				Usage:   "Path to YAML configuration file",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory (overrides config)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Ingest content items from a JSON export file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON file holding an array of content items",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "analyze",
						Usage: "Run relationship inference after each ingested item",
					},
				},
			},
			{
				Name:   "watch",
				Usage:  "Poll JSON source files on an interval and ingest new items",
				Action: watchCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "JSON source file to poll (repeatable)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "analyze",
						Usage: "Run relationship inference after each ingested item",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search stored content by meaning and text",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
				},
			},
			{
				Name:      "similar",
				Usage:     "List items semantically closest to the given item",
				ArgsUsage: "<id>",
				Action:    similarCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of neighbors",
						Value: 10,
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Infer relationships for one item, or for every stored item",
				ArgsUsage: "[id]",
				Action:    analyzeCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Analyze every stored item instead of a single id",
					},
				},
			},
			{
				Name:   "timeline",
				Usage:  "Print the temporal event chain (FOLLOWS edges)",
				Action: timelineCommand,
			},
			{
				Name:   "causal",
				Usage:  "Print the causal chain (CAUSES edges)",
				Action: causalCommand,
			},
			{
				Name:   "enrich",
				Usage:  "Enrich items that were stored without AI annotations",
				Action: enrichCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of items to process in each batch",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N items",
						Value: 50,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadConfig reads the configuration file named by --config, falling back
// to defaults when the flag is absent.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.Default(), nil
}

func aiConfigFrom(cfg *config.Config) *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(cfg.AI.EmbeddingHost),
		ai.WithChatHost(cfg.AI.ChatHost),
		ai.WithEmbeddingModel(cfg.AI.EmbeddingModel),
		ai.WithChatModel(cfg.AI.ChatModel),
		ai.WithRequestsPerSecond(cfg.AI.RequestsPerSecond),
		ai.WithRequestBurst(cfg.AI.RequestBurst),
	)
}

// openDatabase builds a Database from the resolved configuration. The --db
// flag wins over the configured data directory.
func openDatabase(c *cli.Context, cfg *config.Config) (*loom.Database, error) {
	dbPath := c.String("db")
	if dbPath == "" {
		dbPath = cfg.DataDir
	}

	aiConfig := aiConfigFrom(cfg)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return loom.NewDatabase(dbPath, loom.WithAIConfig(aiConfig))
}

func newCoordinator(c *cli.Context, cfg *config.Config, db *loom.Database) (*ingest.Coordinator, error) {
	var opts []ingest.Option
	if cfg.Ingest.AsyncDispatch > 0 {
		opts = append(opts, ingest.WithAsyncDispatch(cfg.Ingest.AsyncDispatch))
	}
	if cfg.Ingest.ValueScoring {
		opts = append(opts, ingest.WithValueScoring())
	}

	if c.Bool("analyze") {
		engine, err := newEngine(cfg, db)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ingest.WithHook(func(ctx context.Context, id core.ID) {
			report, err := engine.AnalyzeConnections(ctx, id)
			if err != nil {
				slog.Warn("relationship inference failed", "id", id, "err", err)
				return
			}
			slog.Debug("relationship inference finished",
				"id", id,
				"analyzed", report.Analyzed,
				"edges_created", report.EdgesCreated,
				"skipped", report.Skipped)
		}))
	}

	return db.NewCoordinator(opts...)
}

func newEngine(cfg *config.Config, db *loom.Database) (*relate.Engine, error) {
	return db.NewEngine(
		relate.WithNeighborCount(cfg.Inference.NeighborCount),
		relate.WithMinConfidence(cfg.Inference.MinConfidence),
		relate.WithClassifyTimeout(cfg.Inference.ClassifyTimeout.Std()),
	)
}

func ingestCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	coordinator, err := newCoordinator(c, cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	items, err := sources.NewFileSource(c.String("file")).Fetch(ctx)
	if err != nil {
		return err
	}

	var ingested, skipped, degraded int
	for _, item := range items {
		_, err := coordinator.Ingest(ctx, item)
		switch {
		case err == nil:
			ingested++
		case errors.Is(err, ingest.ErrVectorDegraded):
			slog.Warn("item stored without vector index entry", "title", item.Title, "err", err)
			ingested++
			degraded++
		case errors.Is(err, core.ErrInvalidContentItem):
			slog.Warn("skipping invalid item", "title", item.Title, "err", err)
			skipped++
		default:
			return fmt.Errorf("ingesting %q: %w", item.Title, err)
		}
	}

	fmt.Fprintf(os.Stderr, "Ingested %d items (%d skipped, %d without vectors)\n", ingested, skipped, degraded)
	return nil
}

func watchCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	coordinator, err := newCoordinator(c, cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create coordinator: %w", err)
	}
	defer coordinator.Release()

	var srcs []sources.Source
	for _, path := range c.StringSlice("file") {
		srcs = append(srcs, sources.NewFileSource(path))
	}

	scheduler, err := sources.NewScheduler(coordinator, srcs,
		sources.WithInterval(cfg.Scheduler.Interval.Std()))
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	defer scheduler.Release()

	fmt.Fprintf(os.Stderr, "Watching %d source(s) every %s, Ctrl-C to stop\n",
		len(srcs), cfg.Scheduler.Interval.Std())

	scheduler.Start(ctx)
	<-ctx.Done()
	scheduler.Stop()
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := context.Background()

	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("a search query is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	results, err := searcher.Search(ctx, query, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if len(results) == 0 {
		fmt.Println("No results.")
		return nil
	}
	for _, result := range results {
		fmt.Printf("%.3f  [%d] %s (%s, %s)\n",
			result.Score, result.Item.Id, result.Item.Title,
			result.Item.Source, result.Item.PublishTime.Format("2006-01-02"))
	}
	return nil
}

func similarCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	engine, err := newEngine(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	items, err := engine.FindSimilar(ctx, id, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("similarity search failed: %w", err)
	}

	if len(items) == 0 {
		fmt.Println("No similar items.")
		return nil
	}
	for _, item := range items {
		fmt.Printf("[%d] %s (%s, %s)\n", item.Id, item.Title,
			item.Source, item.PublishTime.Format("2006-01-02"))
	}
	return nil
}

func analyzeCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	engine, err := newEngine(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}

	if c.Bool("all") {
		return analyzeAll(ctx, db, engine)
	}

	id, err := parseID(c.Args().First())
	if err != nil {
		return err
	}

	report, err := engine.AnalyzeConnections(ctx, id)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	printReport(report)
	return nil
}

func analyzeAll(ctx context.Context, db *loom.Database, engine *relate.Engine) error {
	const pageSize = 100

	total := &relate.Report{}
	for skip := 0; ; skip += pageSize {
		items, err := db.DocumentStore().Find(ctx, storage.DocumentFilter{}, skip, pageSize)
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		for _, item := range items {
			report, err := engine.AnalyzeConnections(ctx, item.Id)
			if err != nil {
				return fmt.Errorf("analyzing item %d: %w", item.Id, err)
			}
			total.Analyzed += report.Analyzed
			total.EdgesCreated += report.EdgesCreated
			total.Skipped += report.Skipped
		}
		if len(items) < pageSize {
			break
		}
	}
	printReport(total)
	return nil
}

func printReport(report *relate.Report) {
	fmt.Printf("Analyzed %d pair(s): %d edge(s) created, %d skipped\n",
		report.Analyzed, report.EdgesCreated, report.Skipped)
}

func timelineCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	queries, err := db.NewQueryService()
	if err != nil {
		return fmt.Errorf("failed to create query service: %w", err)
	}

	events, err := queries.TemporalGraph(ctx)
	if err != nil {
		return fmt.Errorf("timeline query failed: %w", err)
	}

	if len(events) == 0 {
		fmt.Println("No temporal relationships recorded.")
		return nil
	}
	for _, event := range events {
		fmt.Printf("%s  [%d] %s -> [%d] %s\n",
			event.Source.Time.Format("2006-01-02 15:04"),
			event.Source.Id, event.Source.Title,
			event.Target.Id, event.Target.Title)
		if event.Description != "" {
			fmt.Printf("    %s\n", event.Description)
		}
	}
	return nil
}

func causalCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	queries, err := db.NewQueryService()
	if err != nil {
		return fmt.Errorf("failed to create query service: %w", err)
	}

	links, err := queries.CausalGraph(ctx)
	if err != nil {
		return fmt.Errorf("causal query failed: %w", err)
	}

	if len(links) == 0 {
		fmt.Println("No causal relationships recorded.")
		return nil
	}
	for _, link := range links {
		fmt.Printf("%.2f  [%d] %s => [%d] %s\n",
			link.Confidence,
			link.Source.Id, link.Source.Title,
			link.Target.Id, link.Target.Title)
		if link.Description != "" {
			fmt.Printf("    %s\n", link.Description)
		}
	}
	return nil
}

func enrichCommand(c *cli.Context) error {
	ctx := context.Background()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	db, err := openDatabase(c, cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	enrichConfig := &enrich.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if enrichConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if enrichConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if enrichConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	runner := enrich.NewRunner(db.DocumentStore(), db.VectorIndex(), db.Provider(), enrichConfig, os.Stderr)
	if err := runner.Run(ctx); err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}
	return nil
}

func parseID(arg string) (core.ID, error) {
	if arg == "" {
		return 0, fmt.Errorf("an item id is required")
	}
	parsed, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid item id %q", arg)
	}
	return core.ID(parsed), nil
}

func setupLogger(c *cli.Context) error {
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
