package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/docanchor/docanchor/internal/anchor"
	"github.com/docanchor/docanchor/internal/chunker"
	"github.com/docanchor/docanchor/internal/config"
	"github.com/docanchor/docanchor/internal/dedup"
	"github.com/docanchor/docanchor/internal/layout"
	"github.com/docanchor/docanchor/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Local .env is optional; flags and real environment take precedence.
	_ = godotenv.Load()

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if version != "dev" {
		cfg.Version = version
	}

	setupLogging(cfg)

	path, err := documentArg()
	if err != nil {
		log.Fatalf("%v", err)
	}

	if cfg.IsDebug() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// run owns all deferred cleanup; log.Fatalf here would skip it.
	if err := run(cfg, path); err != nil {
		log.Fatalf("Processing failed: %v", err)
	}
}

func run(cfg *config.Config, path string) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	// cleanup is always non-nil, even when construction fails partway.
	processor, cleanup, err := buildProcessor(ctx, cfg)
	defer cleanup()
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	result, err := processor.Process(ctx, path)
	if err != nil {
		return err
	}

	return writeResult(cfg, result)
}

// setupLogging configures the standard logger from the config.
func setupLogging(cfg *config.Config) {
	log.SetOutput(os.Stderr)
	if cfg.IsDebug() {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// documentArg returns the single positional PDF path left after flag
// parsing.
func documentArg() (string, error) {
	args := pflag.Args()
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one PDF path argument, got %d", len(args))
	}
	return args[0], nil
}

// buildProcessor assembles the pipeline collaborators from the config.
// The returned cleanup releases any client resources (Gemini connection)
// and must be called when processing finishes.
func buildProcessor(ctx context.Context, cfg *config.Config) (*pipeline.Processor, func(), error) {
	cleanup := func() {}

	engine, err := anchor.NewEngine(cfg.AnchorParams())
	if err != nil {
		return nil, cleanup, err
	}

	extractor := layout.NewExtractor(cfg.MaxFileSize)

	var ch chunker.Chunker
	switch cfg.Chunker {
	case config.ChunkerGemini:
		gemini, err := chunker.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, cleanup, fmt.Errorf("gemini chunker: %w", err)
		}
		ch = gemini
		cleanup = func() {
			if err := gemini.Close(); err != nil {
				log.Printf("Failed to close gemini client: %v", err)
			}
		}
	case config.ChunkerFile:
		ch = chunker.NewFileSource(cfg.ChunkFile)
	default:
		return nil, cleanup, fmt.Errorf("unknown chunker %q", cfg.Chunker)
	}

	var store dedup.Store
	switch cfg.Store {
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		redisStore := dedup.NewRedisStore(client, cfg.RedisTTL)
		if err := redisStore.Ping(ctx); err != nil {
			return nil, cleanup, err
		}
		store = redisStore
	default:
		store = dedup.NewMemoryStore()
	}

	processor, err := pipeline.New(extractor, ch, engine, store)
	return processor, cleanup, err
}

// writeResult emits the result JSON to the configured output.
func writeResult(cfg *config.Config, result *pipeline.Result) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if cfg.OutputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(cfg.OutputPath, data, 0o644)
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("docanchor\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
