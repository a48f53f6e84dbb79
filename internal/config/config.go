package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Workflow contains scheduler timing and concurrency configuration.
type Workflow struct {
	QueuePollInterval  int `toml:"queue_poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
	MaxConcurrentTotal int `toml:"max_concurrent_total"`
	// MaxConcurrentPerStage caps in-flight executions per stage name
	// (research, generate, assemble, publish). Zero means no per-stage cap
	// beyond the total.
	MaxConcurrentPerStage map[string]int `toml:"max_concurrent_per_stage"`
	// Stage timeouts in seconds. A stage call exceeding its timeout is
	// treated as a retriable failure.
	ResearchTimeout int `toml:"research_timeout"`
	GenerateTimeout int `toml:"generate_timeout"`
	AssembleTimeout int `toml:"assemble_timeout"`
	PublishTimeout  int `toml:"publish_timeout"`
	// LeaseTimeout bounds how long a claim may sit in in_progress before the
	// reclaimer returns it to its stage entry status.
	LeaseTimeout int `toml:"lease_timeout"`
}

// Retry contains the shared retry/backoff policy settings.
type Retry struct {
	MaxAttempts      int `toml:"max_retry_attempts"`
	BaseDelaySeconds int `toml:"base_delay_seconds"`
	MaxDelaySeconds  int `toml:"max_delay_seconds"`
}

// Publish contains batched publishing configuration.
type Publish struct {
	BatchSize                  int    `toml:"batch_size"`
	DelayBetweenBatchesSeconds int    `toml:"delay_between_batches_seconds"`
	VerificationEnabled        bool   `toml:"verification_enabled"`
	RollbackOnFailure          bool   `toml:"rollback_on_failure"`
	DryRun                     bool   `toml:"dry_run"`
	BaseURL                    string `toml:"base_url"`
	APIEndpoint                string `toml:"api_endpoint"`
	APIToken                   string `toml:"api_token"`
	URLPattern                 string `toml:"url_pattern"`
	SitemapEnabled             bool   `toml:"sitemap_enabled"`
	RequestTimeout             int    `toml:"request_timeout"`
}

// LLM contains connection settings for the language model backing the
// research and content generation executors.
type LLM struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Content contains bounds applied by the content generation executor.
type Content struct {
	MinWordCount             int `toml:"min_word_count"`
	MaxWordCount             int `toml:"max_word_count"`
	MaxTitleLength           int `toml:"max_title_length"`
	MaxMetaDescriptionLength int `toml:"max_meta_description_length"`
}

// Catalog contains locations of the service and location catalog files used
// to seed tasks.
type Catalog struct {
	ServicesPath  string `toml:"services_path"`
	LocationsPath string `toml:"locations_path"`
}

// Notifications contains ntfy push notification settings.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
	Batches        bool   `toml:"batches"`
	Queue          bool   `toml:"queue"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for pageforge.
type Config struct {
	Paths         `toml:"paths"`
	Workflow      Workflow      `toml:"workflow"`
	Retry         Retry         `toml:"retry"`
	Publish       Publish       `toml:"publish"`
	LLM           LLM           `toml:"llm"`
	Content       Content       `toml:"content"`
	Catalog       Catalog       `toml:"catalog"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/pageforge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was found; defaults apply otherwise.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// WriteSample writes the annotated sample configuration to the given path.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config already exists at %s", expanded)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// EnsureDirectories creates the directories the daemon writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.StagingDir, c.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Abs(path)
}
