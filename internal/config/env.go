package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix is the prefix of every environment override.
const EnvPrefix = "DOCPARSE_"

// ApplyEnv overrides cfg from DOCPARSE_* variables looked up with getenv.
// Unset or empty variables leave the field alone.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	var errs []string
	str := func(key string, dst *string) {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(EnvPrefix + key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	flag := func(key string, dst *bool) {
		if v := getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(EnvPrefix + key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s%s: %v", EnvPrefix, key, err))
				return
			}
			*dst = d
		}
	}

	flag("DEBUG", &cfg.Debug)
	str("HOST", &cfg.Server.Host)
	num("PORT", &cfg.Server.Port)
	maxUpload := int(cfg.Server.MaxUploadMB)
	num("MAX_UPLOAD_MB", &maxUpload)
	cfg.Server.MaxUploadMB = int64(maxUpload)
	dur("REQUEST_TIMEOUT", &cfg.Server.RequestTimeout)
	if v := getenv(EnvPrefix + "CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}

	if v := getenv(EnvPrefix + "OCR_ENABLED"); v != "" {
		var enabled bool
		flag("OCR_ENABLED", &enabled)
		cfg.OCR.Enabled = &enabled
	}
	str("TESSERACT_PATH", &cfg.OCR.TesseractPath)
	str("OCR_LANGUAGE", &cfg.OCR.Language)
	str("PDFTOPPM_PATH", &cfg.OCR.PdftoppmPath)
	num("OCR_DPI", &cfg.OCR.DPI)

	str("IMAGE_MODE", &cfg.Image.Mode)
	str("CONVERTER_PATH", &cfg.Legacy.ConverterPath)

	flag("CAPTION_ENABLED", &cfg.Caption.Enabled)
	str("CAPTION_ENDPOINT", &cfg.Caption.Endpoint)
	str("CAPTION_MODEL", &cfg.Caption.Model)
	str("CAPTION_API_KEY", &cfg.Caption.APIKey)
	str("CAPTION_SYSTEM_PROMPT", &cfg.Caption.SystemPrompt)
	dur("CAPTION_TIMEOUT", &cfg.Caption.Timeout)

	if v := getenv(EnvPrefix + "WATCH_DIRECTORIES"); v != "" {
		cfg.Watch.Directories = splitList(v)
	}
	str("WATCH_OUTPUT_DIR", &cfg.Watch.OutputDir)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// splitList splits a comma-separated value, dropping blank entries.
func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
