package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/docanchor/docanchor/internal/anchor"
	"github.com/docanchor/docanchor/internal/chunker"
)

const (
	// Store backends
	StoreMemory = "memory"
	StoreRedis  = "redis"

	// Chunk sources
	ChunkerGemini = "gemini"
	ChunkerFile   = "file"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultRedisAddr   = "127.0.0.1:6379"
	DefaultGeminiModel = chunker.DefaultGeminiModel
	DefaultTimeout     = 5 * time.Minute
)

// Config holds all configuration for the anchoring pipeline.
type Config struct {
	// Duplicate gate backend
	Store     string
	RedisAddr string
	RedisTTL  time.Duration

	// Chunk source: a Gemini model or a pre-computed chunk JSON file
	Chunker      string
	GeminiAPIKey string
	GeminiModel  string
	ChunkFile    string

	// Matcher tunables
	AcceptThreshold float64
	TableThreshold  float64
	PageWindow      int
	LengthTolerance float64
	MaxRunLines     int
	BottomMargin    float64
	TopMargin       float64

	// Application configuration
	Version     string
	LogLevel    string
	MaxFileSize int64
	Timeout     time.Duration
	OutputPath  string // empty means stdout
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	params := anchor.DefaultParams()
	return &Config{
		Store:           StoreMemory,
		RedisAddr:       DefaultRedisAddr,
		Chunker:         ChunkerGemini,
		GeminiModel:     DefaultGeminiModel,
		AcceptThreshold: params.AcceptThreshold,
		TableThreshold:  params.TableThreshold,
		PageWindow:      params.PageWindow,
		LengthTolerance: params.LengthTolerance,
		MaxRunLines:     params.MaxRunLines,
		BottomMargin:    params.BottomMargin,
		TopMargin:       params.TopMargin,
		Version:         "1.0.0",
		LogLevel:        DefaultLogLevel,
		MaxFileSize:     DefaultMaxFileSize,
		Timeout:         DefaultTimeout,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("DOCANCHOR")
	viper.AutomaticEnv()

	viper.SetDefault("store", cfg.Store)
	viper.SetDefault("redisaddr", cfg.RedisAddr)
	viper.SetDefault("redisttl", cfg.RedisTTL)
	viper.SetDefault("chunker", cfg.Chunker)
	viper.SetDefault("geminikey", cfg.GeminiAPIKey)
	viper.SetDefault("geminimodel", cfg.GeminiModel)
	viper.SetDefault("chunkfile", cfg.ChunkFile)
	viper.SetDefault("threshold", cfg.AcceptThreshold)
	viper.SetDefault("tablethreshold", cfg.TableThreshold)
	viper.SetDefault("pagewindow", cfg.PageWindow)
	viper.SetDefault("lengthtolerance", cfg.LengthTolerance)
	viper.SetDefault("maxrunlines", cfg.MaxRunLines)
	viper.SetDefault("bottommargin", cfg.BottomMargin)
	viper.SetDefault("topmargin", cfg.TopMargin)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("timeout", cfg.Timeout)
	viper.SetDefault("output", cfg.OutputPath)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("store", cfg.Store, "Result store backend: 'memory' or 'redis'")
	pflag.String("redisaddr", cfg.RedisAddr, "Redis address (redis store only)")
	pflag.Duration("redisttl", cfg.RedisTTL, "Redis record TTL, 0 for no expiry (redis store only)")
	pflag.String("chunker", cfg.Chunker, "Chunk source: 'gemini' or 'file'")
	pflag.String("geminikey", cfg.GeminiAPIKey, "Gemini API key (gemini chunker only)")
	pflag.String("geminimodel", cfg.GeminiModel, "Gemini model name (gemini chunker only)")
	pflag.String("chunkfile", cfg.ChunkFile, "Path to a chunk JSON file (file chunker only)")
	pflag.Float64("threshold", cfg.AcceptThreshold, "Minimum match score for anchoring a chunk")
	pflag.Float64("tablethreshold", cfg.TableThreshold, "Minimum structural score for anchoring a table")
	pflag.Int("pagewindow", cfg.PageWindow, "Pages around the hint to search when a chunk carries one")
	pflag.Float64("lengthtolerance", cfg.LengthTolerance, "Fractional length band for candidate line runs")
	pflag.Int("maxrunlines", cfg.MaxRunLines, "Maximum lines per candidate run")
	pflag.Float64("bottommargin", cfg.BottomMargin, "Bottom margin for page-break continuation, in points")
	pflag.Float64("topmargin", cfg.TopMargin, "Top margin for page-break continuation, in points")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.Duration("timeout", cfg.Timeout, "Overall processing deadline per document")
	pflag.String("output", cfg.OutputPath, "Write the result JSON to this file instead of stdout")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	for _, name := range []string{
		"store", "redisaddr", "redisttl",
		"chunker", "geminikey", "geminimodel", "chunkfile",
		"threshold", "tablethreshold", "pagewindow",
		"lengthtolerance", "maxrunlines", "bottommargin", "topmargin",
		"loglevel", "maxfilesize", "timeout", "output",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s: [options] <document.pdf>\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\ndocanchor - anchors LLM-produced chunks onto PDF page regions\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s report.pdf                                  # Gemini chunking, in-memory gate\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --chunker=file --chunkfile=chunks.json report.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --store=redis --redisaddr=10.0.0.5:6379 report.pdf\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_STORE           Result store backend\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_REDISADDR       Redis address\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_CHUNKER         Chunk source\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_GEMINIKEY       Gemini API key\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_GEMINIMODEL     Gemini model name\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_THRESHOLD       Minimum match score\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_LOGLEVEL        Log level\n")
		fmt.Fprintf(os.Stderr, "  DOCANCHOR_MAXFILESIZE     Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Store = viper.GetString("store")
	cfg.RedisAddr = viper.GetString("redisaddr")
	cfg.RedisTTL = viper.GetDuration("redisttl")
	cfg.Chunker = viper.GetString("chunker")
	cfg.GeminiAPIKey = viper.GetString("geminikey")
	cfg.GeminiModel = viper.GetString("geminimodel")
	cfg.ChunkFile = viper.GetString("chunkfile")
	cfg.AcceptThreshold = viper.GetFloat64("threshold")
	cfg.TableThreshold = viper.GetFloat64("tablethreshold")
	cfg.PageWindow = viper.GetInt("pagewindow")
	cfg.LengthTolerance = viper.GetFloat64("lengthtolerance")
	cfg.MaxRunLines = viper.GetInt("maxrunlines")
	cfg.BottomMargin = viper.GetFloat64("bottommargin")
	cfg.TopMargin = viper.GetFloat64("topmargin")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Timeout = viper.GetDuration("timeout")
	cfg.OutputPath = viper.GetString("output")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Store != StoreMemory && c.Store != StoreRedis {
		return errors.New("store must be either 'memory' or 'redis'")
	}
	if c.Store == StoreRedis && c.RedisAddr == "" {
		return errors.New("redis store requires a redis address")
	}
	if c.RedisTTL < 0 {
		return errors.New("redis TTL cannot be negative")
	}

	switch c.Chunker {
	case ChunkerGemini:
		if c.GeminiAPIKey == "" {
			return errors.New("gemini chunker requires an API key")
		}
		if c.GeminiModel == "" {
			return errors.New("gemini chunker requires a model name")
		}
	case ChunkerFile:
		if c.ChunkFile == "" {
			return errors.New("file chunker requires a chunk file path")
		}
	default:
		return errors.New("chunker must be either 'gemini' or 'file'")
	}

	if err := c.AnchorParams().Validate(); err != nil {
		return err
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// AnchorParams returns the matcher parameters with the configured
// overrides applied to the defaults.
func (c *Config) AnchorParams() anchor.Params {
	params := anchor.DefaultParams()
	params.AcceptThreshold = c.AcceptThreshold
	params.TableThreshold = c.TableThreshold
	params.PageWindow = c.PageWindow
	params.LengthTolerance = c.LengthTolerance
	params.MaxRunLines = c.MaxRunLines
	params.BottomMargin = c.BottomMargin
	params.TopMargin = c.TopMargin
	return params
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The Gemini
// key is deliberately omitted.
func (c *Config) String() string {
	return fmt.Sprintf("Config{Store: %s, Chunker: %s, Threshold: %.2f, TableThreshold: %.2f, PageWindow: %d, LogLevel: %s, MaxFileSize: %d, Timeout: %s}",
		c.Store, c.Chunker, c.AcceptThreshold, c.TableThreshold, c.PageWindow, c.LogLevel, c.MaxFileSize, c.Timeout)
}
