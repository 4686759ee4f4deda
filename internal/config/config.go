// Package config resolves runtime settings from defaults, a YAML file, the
// environment and command-line flags, in increasing precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const envPrefix = "TUBEQA"

// Embedding backends.
const (
	BackendOllama = "ollama"
	BackendONNX   = "onnx"
)

// Config holds every tunable of the tool.
type Config struct {
	TranscriptDir string        `yaml:"transcriptDir" split_words:"true"`
	CacheMaxAge   time.Duration `yaml:"cacheMaxAge" split_words:"true"`
	DBPath        string        `yaml:"dbPath" envconfig:"DB_PATH"`
	Languages     []string      `yaml:"languages"`
	RateLimit     float64       `yaml:"rateLimit" split_words:"true"`

	OllamaURL    string `yaml:"ollamaURL" envconfig:"OLLAMA_URL"`
	EmbedBackend string `yaml:"embedBackend" split_words:"true"`
	EmbedModel   string `yaml:"embedModel" split_words:"true"`
	ONNXModelDir string `yaml:"onnxModelDir" envconfig:"ONNX_MODEL_DIR"`
	ONNXLibrary  string `yaml:"onnxLibrary" envconfig:"ONNX_LIBRARY"`
	ChatModel    string `yaml:"chatModel" split_words:"true"`

	Chunker      string `yaml:"chunker"`
	ChunkSize    int    `yaml:"chunkSize" split_words:"true"`
	ChunkOverlap int    `yaml:"chunkOverlap" split_words:"true"`
	K            int    `yaml:"k"`
	Summarize    bool   `yaml:"summarize"`

	LogLevel string `yaml:"logLevel" split_words:"true"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		TranscriptDir: "./transcript",
		DBPath:        "./vectorstore/index.db",
		Languages:     []string{"en"},
		RateLimit:     2,
		OllamaURL:     "http://localhost:11434",
		EmbedBackend:  BackendOllama,
		EmbedModel:    "all-minilm",
		ChatModel:     "qwen2.5:1.5b",
		Chunker:       "window",
		ChunkSize:     500,
		ChunkOverlap:  50,
		K:             3,
		LogLevel:      "info",
	}
}

// BindFlags registers one flag per setting on fs, defaulted from Default.
func BindFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String("config", "", "Path to config file (default ./tubeqa.yaml if present)")

	fs.String("transcript-dir", d.TranscriptDir, "Directory for cached transcripts")
	fs.Duration("cache-max-age", d.CacheMaxAge, "Refetch cached transcripts older than this (0 keeps them forever)")
	fs.String("db-path", d.DBPath, "Path to the vector store database")
	fs.StringSlice("lang", d.Languages, "Preferred caption languages, most preferred first")
	fs.Float64("rate-limit", d.RateLimit, "Maximum YouTube requests per second (0 disables)")

	fs.String("ollama-url", d.OllamaURL, "Ollama server URL")
	fs.String("embed-backend", d.EmbedBackend, "Embedding backend (ollama|onnx)")
	fs.String("embed-model", d.EmbedModel, "Ollama embedding model")
	fs.String("onnx-model-dir", d.ONNXModelDir, "Directory with model.onnx and tokenizer.json")
	fs.String("onnx-library", d.ONNXLibrary, "Path to the ONNX Runtime shared library")
	fs.String("chat-model", d.ChatModel, "Ollama model used to generate answers")

	fs.String("chunker", d.Chunker, "Chunking strategy (window|recursive)")
	fs.Int("chunk-size", d.ChunkSize, "Words per chunk for the window chunker")
	fs.Int("chunk-overlap", d.ChunkOverlap, "Words shared by consecutive chunks")
	fs.IntP("k", "k", d.K, "Number of chunks to retrieve")
	fs.Bool("summarize", d.Summarize, "Generate a short summary after indexing a video")

	fs.String("log-level", d.LogLevel, "Log level (debug|info|warn|error)")
}

// Load resolves the configuration. fs must already be parsed; only flags the
// user actually set override the other layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	cfg := Default()

	// .env is optional.
	_ = godotenv.Load()

	path := ""
	if fs != nil && fs.Lookup("config") != nil {
		path, _ = fs.GetString("config")
	}
	if path == "" {
		path = os.Getenv(envPrefix + "_CONFIG")
	}
	if path == "" && fileExists("tubeqa.yaml") {
		path = "tubeqa.yaml"
	}
	if path != "" {
		if !fileExists(path) {
			return Config{}, fmt.Errorf("config file not found: %s", path)
		}
		if err := loadYAML(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("load yaml %s: %w", path, err)
		}
	}

	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("env override: %w", err)
	}

	if fs != nil {
		applyChangedFlags(fs, &cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("chunk overlap must be in [0, %d), got %d", c.ChunkSize, c.ChunkOverlap)
	}
	if c.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", c.K)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	switch c.EmbedBackend {
	case BackendOllama:
	case BackendONNX:
		if strings.TrimSpace(c.ONNXModelDir) == "" {
			return fmt.Errorf("onnx backend needs %s_ONNX_MODEL_DIR or --onnx-model-dir", envPrefix)
		}
	default:
		return fmt.Errorf("unknown embedding backend %q", c.EmbedBackend)
	}
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("db path is required")
	}
	return nil
}

func loadYAML(path string, into any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, into)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}

func applyChangedFlags(fs *pflag.FlagSet, c *Config) {
	setStr := func(name string, dst *string) {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			*dst = v
		}
	}
	setInt := func(name string, dst *int) {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			*dst = v
		}
	}
	setBool := func(name string, dst *bool) {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			*dst = v
		}
	}

	setStr("transcript-dir", &c.TranscriptDir)
	if fs.Changed("cache-max-age") {
		c.CacheMaxAge, _ = fs.GetDuration("cache-max-age")
	}
	setStr("db-path", &c.DBPath)
	if fs.Changed("lang") {
		c.Languages, _ = fs.GetStringSlice("lang")
	}
	if fs.Changed("rate-limit") {
		c.RateLimit, _ = fs.GetFloat64("rate-limit")
	}

	setStr("ollama-url", &c.OllamaURL)
	setStr("embed-backend", &c.EmbedBackend)
	setStr("embed-model", &c.EmbedModel)
	setStr("onnx-model-dir", &c.ONNXModelDir)
	setStr("onnx-library", &c.ONNXLibrary)
	setStr("chat-model", &c.ChatModel)

	setStr("chunker", &c.Chunker)
	setInt("chunk-size", &c.ChunkSize)
	setInt("chunk-overlap", &c.ChunkOverlap)
	setInt("k", &c.K)
	setBool("summarize", &c.Summarize)

	setStr("log-level", &c.LogLevel)
}
