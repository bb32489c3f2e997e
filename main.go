package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/nisc/LLM-output-scrub/config"
	"github.com/nisc/LLM-output-scrub/database"
	"github.com/nisc/LLM-output-scrub/nlp"
	"github.com/nisc/LLM-output-scrub/scrub"
	"github.com/nisc/LLM-output-scrub/web"
)

func main() {
	var (
		serve     = flag.Bool("serve", false, "run the HTTP API instead of one-shot mode")
		inPath    = flag.String("in", "", "input file (PDF or text); stdin when empty")
		outPath   = flag.String("out", "", "output file; stdout when empty")
		showStats = flag.Bool("stats", false, "print classification stats after scrubbing")
	)
	flag.Parse()

	ctx := context.Background()

	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Load config (which includes log level setting)
	cfg := config.Load(tempLogger)

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to re-initialize logger with configured level: %v\n", err)
		os.Exit(1)
	}
	defer config.Cleanup()

	var sink nlp.DecisionSink
	var store *database.DecisionStore
	if cfg.DatabaseURL != "" {
		store, err = database.NewDecisionStore(cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := store.EnsureSchema(ctx); err != nil {
			logger.Fatal("Failed to ensure database schema", zap.Error(err))
		}
		sink = store
		defer store.Close()
	}

	manager := nlp.NewModelManager(providerFactory(cfg, logger), cfg.NLP.IdleTimeout, logger)
	defer manager.Close()

	stats := nlp.NewStats(cfg.NLP.StatsFile, manager, sink, logger)
	engine := nlp.NewEngine(manager, stats, cfg.NLP.WindowWidth, logger)
	scrubber := scrub.New(cfg, engine, logger)

	if *serve {
		runServer(ctx, cfg, scrubber, stats, store, logger)
		return
	}
	runOnce(cfg, scrubber, stats, *inPath, *outPath, *showStats, logger)
}

// providerFactory picks the tokenizer backend from configuration. The
// heuristic provider exists for environments where loading the prose
// tagger model is too expensive.
func providerFactory(cfg *config.Config, logger *zap.Logger) nlp.ProviderFactory {
	return func() (nlp.FeatureProvider, error) {
		switch cfg.NLP.Provider {
		case "heuristic":
			return nlp.NewHeuristicProvider(), nil
		default:
			return nlp.NewProseProvider(cfg.NLP.CacheSize, logger)
		}
	}
}

func runServer(ctx context.Context, cfg *config.Config, scrubber *scrub.Scrubber, stats *nlp.Stats, store *database.DecisionStore, logger *zap.Logger) {
	cfg.Watch(func() {
		logger.Info("Configuration reloaded")
	})

	webServer := web.NewServer(scrubber, stats, store, cfg, logger)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	port := fmt.Sprintf(":%d", cfg.WebPort)
	if err := webServer.Start(ctx, port); err != nil {
		logger.Error("Web server error", zap.Error(err))
		os.Exit(1)
	}

	if err := stats.Flush(); err != nil {
		logger.Warn("Failed to persist scrub stats on shutdown", zap.Error(err))
	}
}

func runOnce(cfg *config.Config, scrubber *scrub.Scrubber, stats *nlp.Stats, inPath, outPath string, showStats bool, logger *zap.Logger) {
	text, err := readInput(inPath, logger)
	if err != nil {
		logger.Fatal("Failed to read input", zap.Error(err))
	}

	res, err := scrubber.Scrub(text)
	if err != nil {
		logger.Fatal("Scrub failed", zap.Error(err))
	}

	if err := writeOutput(outPath, res.Output); err != nil {
		logger.Fatal("Failed to write output", zap.Error(err))
	}

	if err := stats.Flush(); err != nil {
		logger.Warn("Failed to persist scrub stats", zap.Error(err))
	}

	if showStats {
		snap, err := json.MarshalIndent(stats.Snapshot(), "", "  ")
		if err == nil {
			fmt.Fprintln(os.Stderr, string(snap))
		}
	}
}

func readInput(path string, logger *zap.Logger) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return scrub.ExtractPDFText(path, logger)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func writeOutput(path, text string) error {
	if path == "" {
		_, err := fmt.Print(text)
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
