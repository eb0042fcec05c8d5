// Package config provides configuration loading and structs for the docparse server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	OCR     OCRConfig     `yaml:"ocr"`
	Image   ImageConfig   `yaml:"image"`
	Legacy  LegacyConfig  `yaml:"legacy"`
	Caption CaptionConfig `yaml:"caption"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	MaxUploadMB    int64         `yaml:"max_upload_mb"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
}

// Addr returns host:port.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// MaxUploadBytes returns the upload limit in bytes.
func (s *ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// OCRConfig holds the OCR engine and PDF rasterizer settings.
type OCRConfig struct {
	Enabled       *bool  `yaml:"enabled"`
	TesseractPath string `yaml:"tesseract_path"`
	Language      string `yaml:"language"`
	PdftoppmPath  string `yaml:"pdftoppm_path"`
	DPI           int    `yaml:"dpi"`
}

// EnabledOrDefault returns whether OCR is enabled; defaults to true when unset.
func (o *OCRConfig) EnabledOrDefault() bool {
	if o.Enabled != nil {
		return *o.Enabled
	}
	return true
}

// ImageConfig selects how image uploads are handled: "ocr" or "caption".
type ImageConfig struct {
	Mode string `yaml:"mode"`
}

// LegacyConfig holds the converter used for .doc, .xls and .ppt files.
type LegacyConfig struct {
	ConverterPath string `yaml:"converter_path"`
}

// CaptionConfig holds the OpenAI-compatible captioning endpoint settings.
type CaptionConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"api_key"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WatchConfig holds inbox watch settings for the watch command.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// OutputDir receives one JSON parse result per ingested file.
	OutputDir string `yaml:"output_dir"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, applies
// defaults and environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	configDir := filepath.Dir(path)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	if cfg.Watch.OutputDir != "" {
		cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	}
	return finish(&cfg)
}

// Default returns the built-in configuration with environment overrides applied.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	if err := ApplyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("invalid max_upload_mb %d", c.Server.MaxUploadMB)
	}
	switch strings.ToLower(strings.TrimSpace(c.Image.Mode)) {
	case "ocr", "caption":
	default:
		return fmt.Errorf("invalid image mode %q (want ocr or caption)", c.Image.Mode)
	}
	if c.OCR.DPI < 0 {
		return fmt.Errorf("invalid ocr dpi %d", c.OCR.DPI)
	}
	if c.Caption.Enabled && (c.Caption.Endpoint == "" || c.Caption.Model == "") {
		return fmt.Errorf("caption is enabled but endpoint or model is missing")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
