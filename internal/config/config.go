// Package config provides configuration loading for docqd.
//
// Configuration is an explicit object built once at startup and passed into
// constructors; there is no process-wide mutable configuration state.
package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig indicates configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Filter modes and fallbacks recognized by the content filter.
const (
	FilterModeDenylist = "denylist"
	FilterModePolicy   = "policy"

	FilterFallbackOpen   = "open"
	FilterFallbackClosed = "closed"
)

// Config is the root configuration for docqd.
type Config struct {
	Server      ServerConfig      `koanf:"server"`
	Logging     LoggingConfig     `koanf:"logging"`
	Chunking    ChunkingConfig    `koanf:"chunking"`
	Retrieval   RetrievalConfig   `koanf:"retrieval"`
	Filter      FilterConfig      `koanf:"filter"`
	Memory      MemoryConfig      `koanf:"memory"`
	Cache       CacheConfig       `koanf:"cache"`
	Notify      NotifyConfig      `koanf:"notify"`
	Embeddings  EmbeddingsConfig  `koanf:"embeddings"`
	LLM         LLMConfig         `koanf:"llm"`
	VectorStore VectorStoreConfig `koanf:"vectorstore"`
	Timeouts    TimeoutsConfig    `koanf:"timeouts"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string   `koanf:"host"`
	Port            int      `koanf:"port"`
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is the log encoding: json or console.
	Format string `koanf:"format"`
}

// ChunkingConfig controls document splitting.
type ChunkingConfig struct {
	// Size is the maximum chunk length in bytes.
	Size int `koanf:"size"`
	// Overlap is the number of bytes consecutive chunks share.
	Overlap int `koanf:"overlap"`
}

// RetrievalConfig controls vector index lookup.
type RetrievalConfig struct {
	// K is the number of chunks retrieved per query.
	K int `koanf:"k"`
}

// FilterConfig controls the content filter.
type FilterConfig struct {
	// Mode selects the strategy: denylist or policy.
	Mode string `koanf:"mode"`
	// Fallback is the behavior when the filter itself fails: open (admit)
	// or closed (reject).
	Fallback string `koanf:"fallback"`
	// Denylist is the list of rejected terms for denylist mode.
	Denylist []string `koanf:"denylist"`
}

// MemoryConfig bounds conversation history injected into prompts.
type MemoryConfig struct {
	// MaxTurns is the maximum number of prior turns in a prompt.
	MaxTurns int `koanf:"max_turns"`
	// MaxTokens is the token budget for prior turns.
	MaxTokens int `koanf:"max_tokens"`
	// Encoding is the tiktoken encoding used for counting.
	Encoding string `koanf:"encoding"`
}

// CacheConfig controls response memoization.
type CacheConfig struct {
	// Disabled turns off response memoization. Caching is on by default.
	Disabled   bool `koanf:"disabled"`
	MaxEntries int  `koanf:"max_entries"`
}

// NotifyConfig configures the Telegram notification sink.
// When Channel is empty, notifications are disabled.
type NotifyConfig struct {
	// Channel is the Telegram chat identifier.
	Channel string `koanf:"channel"`
	// BotToken is the Telegram bot API token.
	BotToken Secret `koanf:"bot_token"`
	// SendTimeout bounds a single delivery attempt.
	SendTimeout Duration `koanf:"send_timeout"`
	// OnFailure also notifies when a request fails.
	OnFailure bool `koanf:"on_failure"`
}

// EmbeddingsConfig configures the embedding backend.
// Any OpenAI-compatible endpoint works (TEI, Ollama, OpenAI).
type EmbeddingsConfig struct {
	BaseURL string `koanf:"base_url"`
	Model   string `koanf:"model"`
	APIKey  Secret `koanf:"api_key"`
}

// LLMConfig configures the chat completion backend.
type LLMConfig struct {
	// Provider is ollama or openai.
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	APIKey   Secret `koanf:"api_key"`
}

// VectorStoreConfig selects and configures the vector store backend.
type VectorStoreConfig struct {
	// Provider is chromem (embedded, default) or qdrant.
	Provider string        `koanf:"provider"`
	Chromem  ChromemConfig `koanf:"chromem"`
	Qdrant   QdrantConfig  `koanf:"qdrant"`
}

// ChromemConfig configures the embedded chromem-go store.
type ChromemConfig struct {
	// Path is the directory for persistent storage. Empty means in-memory.
	Path string `koanf:"path"`
	// Compress enables gzip compression for stored data.
	Compress bool `koanf:"compress"`
}

// QdrantConfig configures the external Qdrant store.
type QdrantConfig struct {
	Host       string `koanf:"host"`
	Port       int    `koanf:"port"`
	VectorSize int    `koanf:"vector_size"`
	UseTLS     bool   `koanf:"use_tls"`
}

// TimeoutsConfig bounds the pipeline's blocking calls.
type TimeoutsConfig struct {
	Embed    Duration `koanf:"embed"`
	Retrieve Duration `koanf:"retrieve"`
	Infer    Duration `koanf:"infer"`
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9091
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = 1000
	}
	if cfg.Chunking.Overlap == 0 && cfg.Chunking.Size > 200 {
		cfg.Chunking.Overlap = 200
	}

	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = 4
	}

	if cfg.Filter.Mode == "" {
		cfg.Filter.Mode = FilterModeDenylist
	}
	if cfg.Filter.Fallback == "" {
		cfg.Filter.Fallback = FilterFallbackClosed
	}

	if cfg.Memory.MaxTurns == 0 {
		cfg.Memory.MaxTurns = 8
	}
	if cfg.Memory.MaxTokens == 0 {
		cfg.Memory.MaxTokens = 2048
	}
	if cfg.Memory.Encoding == "" {
		cfg.Memory.Encoding = "cl100k_base"
	}

	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 512
	}

	if cfg.Notify.SendTimeout == 0 {
		cfg.Notify.SendTimeout = Duration(5 * time.Second)
	}

	if cfg.Embeddings.BaseURL == "" {
		cfg.Embeddings.BaseURL = "http://localhost:11434/v1"
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "nomic-embed-text"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "http://localhost:11434"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "llama3.2:latest"
	}

	if cfg.VectorStore.Provider == "" {
		cfg.VectorStore.Provider = "chromem"
	}
	if cfg.VectorStore.Qdrant.Host == "" {
		cfg.VectorStore.Qdrant.Host = "localhost"
	}
	if cfg.VectorStore.Qdrant.Port == 0 {
		cfg.VectorStore.Qdrant.Port = 6334
	}
	if cfg.VectorStore.Qdrant.VectorSize == 0 {
		cfg.VectorStore.Qdrant.VectorSize = 768
	}

	if cfg.Timeouts.Embed == 0 {
		cfg.Timeouts.Embed = Duration(15 * time.Second)
	}
	if cfg.Timeouts.Retrieve == 0 {
		cfg.Timeouts.Retrieve = Duration(10 * time.Second)
	}
	if cfg.Timeouts.Infer == 0 {
		cfg.Timeouts.Infer = Duration(120 * time.Second)
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port %d", ErrInvalidConfig, c.Server.Port)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("%w: logging format must be json or console, got %q", ErrInvalidConfig, c.Logging.Format)
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("%w: chunk overlap must satisfy 0 <= overlap < size", ErrInvalidConfig)
	}

	if c.Retrieval.K < 1 {
		return fmt.Errorf("%w: retrieval k must be >= 1", ErrInvalidConfig)
	}

	switch c.Filter.Mode {
	case FilterModeDenylist, FilterModePolicy:
	default:
		return fmt.Errorf("%w: filter mode must be denylist or policy, got %q", ErrInvalidConfig, c.Filter.Mode)
	}
	switch c.Filter.Fallback {
	case FilterFallbackOpen, FilterFallbackClosed:
	default:
		return fmt.Errorf("%w: filter fallback must be open or closed, got %q", ErrInvalidConfig, c.Filter.Fallback)
	}

	if c.Memory.MaxTurns < 0 {
		return fmt.Errorf("%w: memory max_turns cannot be negative", ErrInvalidConfig)
	}

	if c.Notify.Channel != "" && !c.Notify.BotToken.IsSet() {
		return fmt.Errorf("%w: notify channel set without bot token", ErrInvalidConfig)
	}

	switch c.LLM.Provider {
	case "ollama", "openai":
	default:
		return fmt.Errorf("%w: llm provider must be ollama or openai, got %q", ErrInvalidConfig, c.LLM.Provider)
	}

	switch c.VectorStore.Provider {
	case "chromem", "qdrant":
	default:
		return fmt.Errorf("%w: vectorstore provider must be chromem or qdrant, got %q", ErrInvalidConfig, c.VectorStore.Provider)
	}

	return nil
}
