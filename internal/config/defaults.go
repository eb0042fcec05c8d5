package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 100
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 5 * time.Minute
	}
	if cfg.Server.CORSOrigins == nil {
		cfg.Server.CORSOrigins = []string{"*"}
	}
	if cfg.OCR.TesseractPath == "" {
		cfg.OCR.TesseractPath = "tesseract"
	}
	if cfg.OCR.PdftoppmPath == "" {
		cfg.OCR.PdftoppmPath = "pdftoppm"
	}
	if cfg.OCR.DPI == 0 {
		cfg.OCR.DPI = 300
	}
	if cfg.Image.Mode == "" {
		cfg.Image.Mode = "ocr"
	}
	if cfg.Legacy.ConverterPath == "" {
		cfg.Legacy.ConverterPath = "unoconv"
	}
	if cfg.Caption.Timeout == 0 {
		cfg.Caption.Timeout = 60 * time.Second
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{
			".pdf", ".docx", ".doc", ".xlsx", ".xls", ".pptx", ".ppt", ".csv",
			".txt", ".md", ".log", ".eml", ".msg", ".png", ".jpg", ".jpeg",
			".odt", ".rtf", ".odp", ".ods",
		}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
