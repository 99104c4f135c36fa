package common

import (
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	OCR   OCRConfig
	Match MatchConfig
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "spa"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit
}

// MatchConfig holds matching and classification configuration
type MatchConfig struct {
	Keyword        string // confirmation keyword, default "ABONADO"
	FuzzyThreshold int    // 0-100 similarity cutoff for payer-name matching
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "spa"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Match: MatchConfig{
			Keyword:        getEnv("MATCH_KEYWORD", "ABONADO"),
			FuzzyThreshold: getEnvAsInt("MATCH_FUZZY_THRESHOLD", 80),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration
func (c *Config) Validate() error {
	if c.Match.Keyword == "" {
		return NewAppError("CONFIG_ERROR", "MATCH_KEYWORD must not be empty", ErrInvalidInput)
	}
	if c.Match.FuzzyThreshold < 0 || c.Match.FuzzyThreshold > 100 {
		return NewAppError("CONFIG_ERROR", "MATCH_FUZZY_THRESHOLD must be within 0..100", ErrInvalidInput)
	}
	if c.OCR.DPI <= 0 {
		return NewAppError("CONFIG_ERROR", "OCR_DPI must be positive", ErrInvalidInput)
	}
	return nil
}
