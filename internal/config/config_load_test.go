package config

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Helper function to reset pflag.CommandLine for testing
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	viper.Reset()
}

// Helper function to set os.Args for testing
func setArgs(args []string) {
	os.Args = args
}

// Helper function to clear environment variables
func clearEnvVars() {
	os.Unsetenv("DOCANCHOR_STORE")
	os.Unsetenv("DOCANCHOR_REDISADDR")
	os.Unsetenv("DOCANCHOR_CHUNKER")
	os.Unsetenv("DOCANCHOR_GEMINIKEY")
	os.Unsetenv("DOCANCHOR_GEMINIMODEL")
	os.Unsetenv("DOCANCHOR_CHUNKFILE")
	os.Unsetenv("DOCANCHOR_THRESHOLD")
	os.Unsetenv("DOCANCHOR_LOGLEVEL")
	os.Unsetenv("DOCANCHOR_MAXFILESIZE")
}

func TestLoadFromFlags_DefaultConfig(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	// The default chunker is gemini, which needs a key to validate.
	setArgs([]string{"docanchor", "--geminikey=test-key"})
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Store != StoreMemory {
		t.Errorf("LoadFromFlags() Store = %v, want %v", cfg.Store, StoreMemory)
	}
	if cfg.Chunker != ChunkerGemini {
		t.Errorf("LoadFromFlags() Chunker = %v, want %v", cfg.Chunker, ChunkerGemini)
	}
	if cfg.GeminiModel != DefaultGeminiModel {
		t.Errorf("LoadFromFlags() GeminiModel = %v, want %v", cfg.GeminiModel, DefaultGeminiModel)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("LoadFromFlags() Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name          string
		args          []string
		wantStore     string
		wantChunker   string
		wantThreshold float64
		wantLogLevel  string
	}{
		{
			name:          "file chunker",
			args:          []string{"docanchor", "--chunker=file", "--chunkfile=chunks.json"},
			wantStore:     StoreMemory,
			wantChunker:   ChunkerFile,
			wantThreshold: DefaultConfig().AcceptThreshold,
			wantLogLevel:  "info",
		},
		{
			name:          "redis store",
			args:          []string{"docanchor", "--store=redis", "--chunker=file", "--chunkfile=chunks.json"},
			wantStore:     StoreRedis,
			wantChunker:   ChunkerFile,
			wantThreshold: DefaultConfig().AcceptThreshold,
			wantLogLevel:  "info",
		},
		{
			name:          "custom threshold",
			args:          []string{"docanchor", "--chunker=file", "--chunkfile=chunks.json", "--threshold=0.7"},
			wantStore:     StoreMemory,
			wantChunker:   ChunkerFile,
			wantThreshold: 0.7,
			wantLogLevel:  "info",
		},
		{
			name:          "debug logging",
			args:          []string{"docanchor", "--chunker=file", "--chunkfile=chunks.json", "--loglevel=debug"},
			wantStore:     StoreMemory,
			wantChunker:   ChunkerFile,
			wantThreshold: DefaultConfig().AcceptThreshold,
			wantLogLevel:  "debug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalArgs := os.Args
			defer func() {
				os.Args = originalArgs
				resetFlags()
				clearEnvVars()
			}()

			setArgs(tt.args)
			resetFlags()
			clearEnvVars()

			cfg, err := LoadFromFlags()
			if err != nil {
				t.Fatalf("LoadFromFlags() unexpected error: %v", err)
			}

			if cfg.Store != tt.wantStore {
				t.Errorf("LoadFromFlags() Store = %v, want %v", cfg.Store, tt.wantStore)
			}
			if cfg.Chunker != tt.wantChunker {
				t.Errorf("LoadFromFlags() Chunker = %v, want %v", cfg.Chunker, tt.wantChunker)
			}
			if cfg.AcceptThreshold != tt.wantThreshold {
				t.Errorf("LoadFromFlags() AcceptThreshold = %v, want %v", cfg.AcceptThreshold, tt.wantThreshold)
			}
			if cfg.LogLevel != tt.wantLogLevel {
				t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, tt.wantLogLevel)
			}
		})
	}
}

func TestLoadFromFlags_MatcherTunables(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{
		"docanchor", "--chunker=file", "--chunkfile=chunks.json",
		"--lengthtolerance=0.2", "--maxrunlines=40",
		"--bottommargin=72", "--topmargin=60",
	})
	resetFlags()
	clearEnvVars()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	params := cfg.AnchorParams()
	if params.LengthTolerance != 0.2 {
		t.Errorf("LoadFromFlags() LengthTolerance = %v, want 0.2", params.LengthTolerance)
	}
	if params.MaxRunLines != 40 {
		t.Errorf("LoadFromFlags() MaxRunLines = %v, want 40", params.MaxRunLines)
	}
	if params.BottomMargin != 72 {
		t.Errorf("LoadFromFlags() BottomMargin = %v, want 72", params.BottomMargin)
	}
	if params.TopMargin != 60 {
		t.Errorf("LoadFromFlags() TopMargin = %v, want 60", params.TopMargin)
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	os.Setenv("DOCANCHOR_STORE", "redis")
	os.Setenv("DOCANCHOR_REDISADDR", "10.0.0.5:6379")
	os.Setenv("DOCANCHOR_CHUNKER", "file")
	os.Setenv("DOCANCHOR_CHUNKFILE", "chunks.json")
	os.Setenv("DOCANCHOR_LOGLEVEL", "warn")
	os.Setenv("DOCANCHOR_MAXFILESIZE", "200000000")

	setArgs([]string{"docanchor"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Store != StoreRedis {
		t.Errorf("LoadFromFlags() Store = %v, want %v", cfg.Store, StoreRedis)
	}
	if cfg.RedisAddr != "10.0.0.5:6379" {
		t.Errorf("LoadFromFlags() RedisAddr = %v, want %v", cfg.RedisAddr, "10.0.0.5:6379")
	}
	if cfg.Chunker != ChunkerFile {
		t.Errorf("LoadFromFlags() Chunker = %v, want %v", cfg.Chunker, ChunkerFile)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LoadFromFlags() LogLevel = %v, want %v", cfg.LogLevel, "warn")
	}
	if cfg.MaxFileSize != 200000000 {
		t.Errorf("LoadFromFlags() MaxFileSize = %v, want %v", cfg.MaxFileSize, 200000000)
	}
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	os.Setenv("DOCANCHOR_STORE", "redis")
	os.Setenv("DOCANCHOR_CHUNKER", "file")
	os.Setenv("DOCANCHOR_CHUNKFILE", "env-chunks.json")

	setArgs([]string{"docanchor", "--store=memory", "--chunkfile=flag-chunks.json"})
	resetFlags()

	cfg, err := LoadFromFlags()
	if err != nil {
		t.Fatalf("LoadFromFlags() unexpected error: %v", err)
	}

	if cfg.Store != StoreMemory {
		t.Errorf("LoadFromFlags() Store = %v, want %v (should override env)", cfg.Store, StoreMemory)
	}
	if cfg.ChunkFile != "flag-chunks.json" {
		t.Errorf("LoadFromFlags() ChunkFile = %v, want %v (should override env)", cfg.ChunkFile, "flag-chunks.json")
	}
}

func TestLoadFromFlags_InvalidStore(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"docanchor", "--store=postgres", "--chunker=file", "--chunkfile=chunks.json"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid store")
	}
	if err != nil && !containsString(err.Error(), "store must be either 'memory' or 'redis'") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid store", err)
	}
}

func TestLoadFromFlags_MissingGeminiKey(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"docanchor"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for missing gemini key")
	}
	if err != nil && !containsString(err.Error(), "requires an API key") {
		t.Errorf("LoadFromFlags() error = %v, want error about missing API key", err)
	}
}

func TestLoadFromFlags_InvalidLogLevel(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"docanchor", "--chunker=file", "--chunkfile=chunks.json", "--loglevel=invalid"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for invalid log level")
	}
	if err != nil && !containsString(err.Error(), "invalid log level") {
		t.Errorf("LoadFromFlags() error = %v, want error about invalid log level", err)
	}
}

func TestLoadFromFlags_InvalidThreshold(t *testing.T) {
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()

	setArgs([]string{"docanchor", "--chunker=file", "--chunkfile=chunks.json", "--threshold=1.5"})
	resetFlags()
	clearEnvVars()

	_, err := LoadFromFlags()
	if err == nil {
		t.Error("LoadFromFlags() expected error for out-of-range threshold")
	}
}

// Helper function to check if a string contains a substring
func containsString(s, substr string) bool {
	return len(s) >= len(substr) &&
		(s == substr ||
			(len(s) > len(substr) &&
				(s[:len(substr)] == substr ||
					s[len(s)-len(substr):] == substr ||
					findSubstring(s, substr))))
}

func findSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
