package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
  request_timeout: 90s
ocr:
  language: deu
  dpi: 200
legacy:
  converter_path: soffice
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("request_timeout = %v, want 90s", cfg.Server.RequestTimeout)
	}
	if cfg.OCR.Language != "deu" || cfg.OCR.DPI != 200 {
		t.Errorf("unexpected ocr config: %+v", cfg.OCR)
	}
	if cfg.Legacy.ConverterPath != "soffice" {
		t.Errorf("converter_path = %q", cfg.Legacy.ConverterPath)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if !cfg.OCR.EnabledOrDefault() {
		t.Error("ocr should default to enabled")
	}
}

func TestLoad_debugTrue(t *testing.T) {
	cfg, err := Load(writeConfig(t, "debug: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
watch:
  directories: ["./inbox"]
  output_dir: "./parsed"
`)
	dir := filepath.Dir(path)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Watch.Directories) != 1 {
		t.Fatalf("watch directories: got %d", len(cfg.Watch.Directories))
	}
	if want := filepath.Join(dir, "inbox"); cfg.Watch.Directories[0] != want {
		t.Errorf("watch directory = %s, want %s", cfg.Watch.Directories[0], want)
	}
	if want := filepath.Join(dir, "parsed"); cfg.Watch.OutputDir != want {
		t.Errorf("output_dir = %s, want %s", cfg.Watch.OutputDir, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := map[string]string{
		"bad yaml":           "server: [",
		"bad image mode":     "image:\n  mode: vision\n",
		"bad port":           "server:\n  port: 70000\n",
		"caption incomplete": "caption:\n  enabled: true\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default host: got %s", cfg.Server.Host)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port: got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxUploadBytes() != 100<<20 {
		t.Errorf("default upload limit: got %d", cfg.Server.MaxUploadBytes())
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "*" {
		t.Errorf("default cors origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.OCR.DPI != 300 {
		t.Errorf("default dpi: got %d", cfg.OCR.DPI)
	}
	if cfg.Image.Mode != "ocr" {
		t.Errorf("default image mode: got %s", cfg.Image.Mode)
	}
	if cfg.Legacy.ConverterPath != "unoconv" {
		t.Errorf("default converter: got %s", cfg.Legacy.ConverterPath)
	}
	if len(cfg.Watch.Extensions) != 20 || cfg.Watch.Extensions[0] != ".pdf" {
		t.Errorf("watch extensions: got %v", cfg.Watch.Extensions)
	}
	if cfg.Watch.Recursive != nil {
		t.Error("recursive should stay unset without directories")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestApplyDefaults_WatchRecursiveWhenDirectoriesSet(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{Directories: []string{"/tmp/docs"}}}
	ApplyDefaults(cfg)
	if cfg.Watch.Recursive == nil || !*cfg.Watch.Recursive {
		t.Error("recursive should default to true when directories are set")
	}
}

func TestWatchConfig_RecursiveOrDefault(t *testing.T) {
	t.Run("nil_returns_true", func(t *testing.T) {
		w := &WatchConfig{}
		if got := w.RecursiveOrDefault(); !got {
			t.Errorf("RecursiveOrDefault() = %v, want true", got)
		}
	})
	t.Run("false_returns_false", func(t *testing.T) {
		f := false
		w := &WatchConfig{Recursive: &f}
		if got := w.RecursiveOrDefault(); got {
			t.Errorf("RecursiveOrDefault() = %v, want false", got)
		}
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"DOCPARSE_DEBUG":            "true",
		"DOCPARSE_PORT":             "9100",
		"DOCPARSE_MAX_UPLOAD_MB":    "5",
		"DOCPARSE_CORS_ORIGINS":     "https://a.example, https://b.example,",
		"DOCPARSE_OCR_ENABLED":      "false",
		"DOCPARSE_OCR_LANGUAGE":     "eng+fra",
		"DOCPARSE_IMAGE_MODE":       "caption",
		"DOCPARSE_CAPTION_ENABLED":  "1",
		"DOCPARSE_CAPTION_ENDPOINT": "http://vlm:8000/v1",
		"DOCPARSE_CAPTION_MODEL":    "qwen-vl",
		"DOCPARSE_CAPTION_TIMEOUT":  "2m",
	}
	cfg := &Config{}
	if err := ApplyEnv(cfg, func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	ApplyDefaults(cfg)

	if !cfg.Debug || cfg.Server.Port != 9100 || cfg.Server.MaxUploadMB != 5 {
		t.Errorf("unexpected overrides: debug=%v port=%d upload=%d", cfg.Debug, cfg.Server.Port, cfg.Server.MaxUploadMB)
	}
	if strings.Join(cfg.Server.CORSOrigins, " ") != "https://a.example https://b.example" {
		t.Errorf("cors origins: got %v", cfg.Server.CORSOrigins)
	}
	if cfg.OCR.EnabledOrDefault() {
		t.Error("ocr should be disabled by env")
	}
	if cfg.OCR.Language != "eng+fra" || cfg.Image.Mode != "caption" {
		t.Errorf("unexpected ocr/image: %+v %+v", cfg.OCR, cfg.Image)
	}
	if !cfg.Caption.Enabled || cfg.Caption.Model != "qwen-vl" || cfg.Caption.Timeout != 2*time.Minute {
		t.Errorf("unexpected caption: %+v", cfg.Caption)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestApplyEnv_invalidValues(t *testing.T) {
	env := map[string]string{
		"DOCPARSE_PORT":            "eighty",
		"DOCPARSE_CAPTION_ENABLED": "maybe",
	}
	err := ApplyEnv(&Config{}, func(k string) string { return env[k] })
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "DOCPARSE_PORT") || !strings.Contains(err.Error(), "DOCPARSE_CAPTION_ENABLED") {
		t.Errorf("error should name both variables: %v", err)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := &Config{
		Server: ServerConfig{Host: "localhost", Port: 9090, RequestTimeout: 45 * time.Second},
		Image:  ImageConfig{Mode: "caption"},
	}
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Server.Port != 9090 {
		t.Errorf("loaded port: got %d", loaded.Server.Port)
	}
	if loaded.Server.RequestTimeout != 45*time.Second {
		t.Errorf("loaded request_timeout: got %v", loaded.Server.RequestTimeout)
	}
	if loaded.Image.Mode != "caption" {
		t.Errorf("loaded image mode: got %s", loaded.Image.Mode)
	}
}

func TestValidate_imageModeTrimmed(t *testing.T) {
	for _, mode := range []string{" ocr", "Caption ", "\tOCR\n"} {
		cfg, err := Default()
		if err != nil {
			t.Fatalf("Default: %v", err)
		}
		cfg.Image.Mode = mode
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate with image mode %q: %v", mode, err)
		}
	}
}
