// Package config implements ragcore's layered YAML configuration, mirroring
// spec.md §6's enumerated options.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete ragcore configuration.
type Config struct {
	Version   int             `yaml:"version" json:"version"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Chunking  ChunkingConfig  `yaml:"chunking" json:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval" json:"retrieval"`
	Context   ContextConfig   `yaml:"context" json:"context"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Worker    WorkerConfig    `yaml:"worker" json:"worker"`
	Router    RouterConfig    `yaml:"router" json:"router"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// StoreConfig configures where documents are persisted.
type StoreConfig struct {
	RootDir             string `yaml:"root_dir" json:"root_dir"`
	StagingSizeCapBytes int64  `yaml:"staging_size_cap_bytes" json:"staging_size_cap_bytes"`
}

// ChunkingConfig configures the text chunker (spec.md §4.4).
type ChunkingConfig struct {
	TargetChars  int `yaml:"chunk_target_chars" json:"chunk_target_chars"`
	OverlapChars int `yaml:"chunk_overlap_chars" json:"chunk_overlap_chars"`
}

// RetrievalConfig configures top-k scoring (spec.md §4.9).
type RetrievalConfig struct {
	TopK      int     `yaml:"retrieval_top_k" json:"retrieval_top_k"`
	Threshold float64 `yaml:"retrieval_threshold" json:"retrieval_threshold"`
}

// ContextConfig configures prompt context-block assembly (spec.md §4.10).
type ContextConfig struct {
	MaxChars  int `yaml:"context_max_chars" json:"context_max_chars"`
	PerDocCap int `yaml:"context_per_doc_cap" json:"context_per_doc_cap"`
}

// CacheConfig configures the LRU caches (spec.md §4.8, §4.9).
type CacheConfig struct {
	DocCacheCapacity   int `yaml:"doc_cache_capacity" json:"doc_cache_capacity"`
	QueryCacheCapacity int `yaml:"query_cache_capacity" json:"query_cache_capacity"`
}

// WorkerConfig configures the background indexing pool (spec.md §4.7).
type WorkerConfig struct {
	MaxConcurrent int `yaml:"worker_max_concurrent" json:"worker_max_concurrent"`
}

// RouterConfig configures the conversation Router (spec.md §4.10,
// §9 open question on the keyword list: resolved here in favor of
// configurability rather than a hardcoded list).
type RouterConfig struct {
	DocumentKeywords []string `yaml:"document_keywords" json:"document_keywords"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level         string `yaml:"level" json:"level"`
	FilePath      string `yaml:"file_path" json:"file_path"`
	MaxSizeMB     int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	WriteToStderr bool   `yaml:"write_to_stderr" json:"write_to_stderr"`
}

// NewConfig returns a Config populated with the defaults from spec.md §6.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			RootDir:             defaultStoreDir(),
			StagingSizeCapBytes: 104_857_600,
		},
		Chunking: ChunkingConfig{
			TargetChars:  800,
			OverlapChars: 350,
		},
		Retrieval: RetrievalConfig{
			TopK:      8,
			Threshold: 0.05,
		},
		Context: ContextConfig{
			MaxChars:  2400,
			PerDocCap: 6,
		},
		Cache: CacheConfig{
			DocCacheCapacity:   8,
			QueryCacheCapacity: 64,
		},
		Worker: WorkerConfig{
			MaxConcurrent: defaultMaxConcurrent(),
		},
		Router: RouterConfig{
			DocumentKeywords: []string{"file", "document", "doc", "pdf", "resume", "uploaded"},
		},
		Logging: LoggingConfig{
			Level:         "info",
			FilePath:      defaultLogPath(),
			MaxSizeMB:     10,
			MaxFiles:      5,
			WriteToStderr: true,
		},
	}
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ragcore", "docs")
	}
	return filepath.Join(home, ".ragcore", "docs")
}

func defaultLogPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".ragcore", "logs", "ragcore.log")
	}
	return filepath.Join(home, ".ragcore", "logs", "ragcore.log")
}

// defaultMaxConcurrent is runtime.NumCPU(), floored at 2 so a single-core
// runner still gets enough concurrency for the worker pool to behave like
// a pool. NumCPU counts logical CPUs, so hyperthreads are counted as
// separate cores.
func defaultMaxConcurrent() int {
	if n := runtime.NumCPU(); n >= 2 {
		return n
	}
	return 2
}

// GetUserConfigPath follows the XDG base directory spec for ragcore's
// global config file.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ragcore", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "ragcore", "config.yaml")
	}
	return filepath.Join(home, ".config", "ragcore", "config.yaml")
}

// Load applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/ragcore/config.yaml or $XDG_CONFIG_HOME)
//  3. Project config (.ragcore.yaml in dir)
//  4. RAGCORE_* environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".ragcore.yaml", ".ragcore.yml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Store.RootDir != "" {
		c.Store.RootDir = other.Store.RootDir
	}
	if other.Store.StagingSizeCapBytes != 0 {
		c.Store.StagingSizeCapBytes = other.Store.StagingSizeCapBytes
	}
	if other.Chunking.TargetChars != 0 {
		c.Chunking.TargetChars = other.Chunking.TargetChars
	}
	if other.Chunking.OverlapChars != 0 {
		c.Chunking.OverlapChars = other.Chunking.OverlapChars
	}
	if other.Retrieval.TopK != 0 {
		c.Retrieval.TopK = other.Retrieval.TopK
	}
	if other.Retrieval.Threshold != 0 {
		c.Retrieval.Threshold = other.Retrieval.Threshold
	}
	if other.Context.MaxChars != 0 {
		c.Context.MaxChars = other.Context.MaxChars
	}
	if other.Context.PerDocCap != 0 {
		c.Context.PerDocCap = other.Context.PerDocCap
	}
	if other.Cache.DocCacheCapacity != 0 {
		c.Cache.DocCacheCapacity = other.Cache.DocCacheCapacity
	}
	if other.Cache.QueryCacheCapacity != 0 {
		c.Cache.QueryCacheCapacity = other.Cache.QueryCacheCapacity
	}
	if other.Worker.MaxConcurrent != 0 {
		c.Worker.MaxConcurrent = other.Worker.MaxConcurrent
	}
	if len(other.Router.DocumentKeywords) > 0 {
		c.Router.DocumentKeywords = other.Router.DocumentKeywords
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.FilePath != "" {
		c.Logging.FilePath = other.Logging.FilePath
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
}

// applyEnvOverrides applies RAGCORE_* environment variable overrides,
// the highest-precedence layer.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RAGCORE_STORE_DIR"); v != "" {
		c.Store.RootDir = v
	}
	if v := os.Getenv("RAGCORE_CHUNK_TARGET_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chunking.TargetChars = n
		}
	}
	if v := os.Getenv("RAGCORE_CHUNK_OVERLAP_CHARS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Chunking.OverlapChars = n
		}
	}
	if v := os.Getenv("RAGCORE_RETRIEVAL_TOP_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.TopK = n
		}
	}
	if v := os.Getenv("RAGCORE_WORKER_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Worker.MaxConcurrent = n
		}
	}
	if v := os.Getenv("RAGCORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate rejects configuration values that would break an invariant.
func (c *Config) Validate() error {
	if c.Chunking.TargetChars <= 0 {
		return fmt.Errorf("chunking.chunk_target_chars must be positive, got %d", c.Chunking.TargetChars)
	}
	if c.Chunking.OverlapChars < 0 || c.Chunking.OverlapChars >= c.Chunking.TargetChars {
		return fmt.Errorf("chunking.chunk_overlap_chars must be in [0, chunk_target_chars), got %d", c.Chunking.OverlapChars)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.retrieval_top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Context.MaxChars <= 0 {
		return fmt.Errorf("context.context_max_chars must be positive, got %d", c.Context.MaxChars)
	}
	if c.Context.PerDocCap <= 0 {
		return fmt.Errorf("context.context_per_doc_cap must be positive, got %d", c.Context.PerDocCap)
	}
	if c.Worker.MaxConcurrent <= 0 {
		return fmt.Errorf("worker.worker_max_concurrent must be positive, got %d", c.Worker.MaxConcurrent)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %s", c.Logging.Level)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
