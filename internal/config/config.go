package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Port string

	// Image host connection
	ImageHostURL    string
	ImageHostAPIKey string
	ImageRoot       string

	// Auth
	DocpassAPIKey string

	// Worker pool
	WorkerCount         int
	MaxQueueSize        int
	MaxConcurrentUpload int

	// Upload limits
	MaxUploadBytes int64
	UploadTimeout  time.Duration

	// Job state
	JobTTL time.Duration

	// Parsing
	PDFFallbackPdftotext bool
	MarkdownExtensions   []string

	LogLevel string
}

// fileConfig is the YAML layout of the optional config file named by
// DOCPASS_CONFIG. Unset keys keep their defaults.
type fileConfig struct {
	Port                 string   `yaml:"port"`
	ImageHostURL         string   `yaml:"image_host_url"`
	ImageHostAPIKey      string   `yaml:"image_host_api_key"`
	ImageRoot            string   `yaml:"image_root"`
	DocpassAPIKey        string   `yaml:"api_key"`
	WorkerCount          int      `yaml:"worker_count"`
	MaxQueueSize         int      `yaml:"max_queue_size"`
	MaxConcurrentUpload  int      `yaml:"max_concurrent_upload"`
	MaxUploadBytes       int64    `yaml:"max_upload_bytes"`
	UploadTimeout        string   `yaml:"upload_timeout"`
	JobTTL               string   `yaml:"job_ttl"`
	PDFFallbackPdftotext *bool    `yaml:"pdf_fallback_pdftotext"`
	MarkdownExtensions   []string `yaml:"markdown_extensions"`
	LogLevel             string   `yaml:"log_level"`
}

func defaults() Config {
	return Config{
		Port:                 "8090",
		ImageRoot:            ".",
		WorkerCount:          4,
		MaxQueueSize:         100,
		MaxConcurrentUpload:  4,
		MaxUploadBytes:       52428800, // 50MB
		UploadTimeout:        30 * time.Second,
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		LogLevel:             "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// DOCPASS_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("DOCPASS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.applyYAML(data); err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)

	cfg.ImageHostURL = envOr("IMAGEHOST_URL", cfg.ImageHostURL)
	cfg.ImageHostAPIKey = envOr("IMAGEHOST_API_KEY", cfg.ImageHostAPIKey)
	cfg.ImageRoot = envOr("IMAGE_ROOT", cfg.ImageRoot)

	cfg.DocpassAPIKey = envOr("DOCPASS_API_KEY", cfg.DocpassAPIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentUpload = envInt("MAX_CONCURRENT_UPLOAD", cfg.MaxConcurrentUpload)

	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.UploadTimeout = envDuration("UPLOAD_TIMEOUT", cfg.UploadTimeout)

	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.PDFFallbackPdftotext = envBool("PDF_FALLBACK_PDFTOTEXT", cfg.PDFFallbackPdftotext)
	if v := os.Getenv("MARKDOWN_EXTENSIONS"); v != "" {
		cfg.MarkdownExtensions = strings.Split(v, ",")
	}

	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) applyYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}
	setString(&c.Port, fc.Port)
	setString(&c.ImageHostURL, fc.ImageHostURL)
	setString(&c.ImageHostAPIKey, fc.ImageHostAPIKey)
	setString(&c.ImageRoot, fc.ImageRoot)
	setString(&c.DocpassAPIKey, fc.DocpassAPIKey)
	setString(&c.LogLevel, fc.LogLevel)
	if fc.WorkerCount != 0 {
		c.WorkerCount = fc.WorkerCount
	}
	if fc.MaxQueueSize != 0 {
		c.MaxQueueSize = fc.MaxQueueSize
	}
	if fc.MaxConcurrentUpload != 0 {
		c.MaxConcurrentUpload = fc.MaxConcurrentUpload
	}
	if fc.MaxUploadBytes != 0 {
		c.MaxUploadBytes = fc.MaxUploadBytes
	}
	if fc.PDFFallbackPdftotext != nil {
		c.PDFFallbackPdftotext = *fc.PDFFallbackPdftotext
	}
	if len(fc.MarkdownExtensions) > 0 {
		c.MarkdownExtensions = fc.MarkdownExtensions
	}
	for _, d := range []struct {
		raw string
		dst *time.Duration
	}{
		{fc.UploadTimeout, &c.UploadTimeout},
		{fc.JobTTL, &c.JobTTL},
	} {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return err
		}
		*d.dst = v
	}
	return nil
}

// clamp resets non-positive limits to their defaults.
func (c *Config) clamp() {
	def := defaults()
	if c.WorkerCount <= 0 {
		c.WorkerCount = def.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = def.MaxQueueSize
	}
	if c.MaxConcurrentUpload <= 0 {
		c.MaxConcurrentUpload = def.MaxConcurrentUpload
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.UploadTimeout <= 0 {
		c.UploadTimeout = def.UploadTimeout
	}
	if c.JobTTL <= 0 {
		c.JobTTL = def.JobTTL
	}
}

// Validate checks settings the server cannot run without. The image host is
// optional; without it conversions skip the resolving step.
func (c Config) Validate() error {
	if c.DocpassAPIKey == "" {
		return fmt.Errorf("DOCPASS_API_KEY is required")
	}
	if c.ImageHostURL != "" && c.ImageHostAPIKey == "" {
		return fmt.Errorf("IMAGEHOST_API_KEY is required when IMAGEHOST_URL is set")
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
