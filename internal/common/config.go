package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Dirs   DirConfig
	Ledger LedgerConfig
	OCR    OCRConfig
	LLM    LLMConfig
}

// DirConfig holds the pipeline directory layout.
type DirConfig struct {
	InputDir  string // HEIC originals
	ImageDir  string // converted PNG/JPEG inputs for recognition
	OutputDir string // ledgers + output documents
}

// LedgerConfig selects the ledger persistence backend.
type LedgerConfig struct {
	Backend string // "json" (default) or "sqlite"
}

// OCRConfig holds handwriting-OCR service configuration.
type OCRConfig struct {
	APIKey        string
	SecretKey     string
	BaseURL       string
	Timeout       time.Duration
	MaxImageBytes int64
	HeicConverter string
}

// LLMConfig holds text-consolidation service configuration.
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Dirs: DirConfig{
			InputDir:  getEnv("NOTES_INPUT_DIR", "heic_images"),
			ImageDir:  getEnv("NOTES_IMAGE_DIR", "png_images"),
			OutputDir: getEnv("NOTES_OUTPUT_DIR", "output"),
		},
		Ledger: LedgerConfig{
			Backend: getEnv("LEDGER_BACKEND", "json"),
		},
		OCR: OCRConfig{
			APIKey:        getEnv("OCR_API_KEY", ""),
			SecretKey:     getEnv("OCR_SECRET_KEY", ""),
			BaseURL:       getEnv("OCR_BASE_URL", "https://aip.baidubce.com"),
			Timeout:       getEnvAsDuration("OCR_TIMEOUT", 60*time.Second),
			MaxImageBytes: getEnvAsInt64("OCR_MAX_IMAGE_BYTES", 4<<20),
			HeicConverter: getEnv("HEIC_CONVERTER", "magick"),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.3),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// ValidateRecognize checks the configuration needed by the recognition
// stage. The organize stage deliberately does NOT hard-fail on a
// missing LLM key; it reports the failure inline instead.
func (c *Config) ValidateRecognize() error {
	if c.OCR.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OCR_API_KEY is required", ErrInvalidInput)
	}
	if c.OCR.SecretKey == "" {
		return NewAppError("CONFIG_ERROR", "OCR_SECRET_KEY is required", ErrInvalidInput)
	}
	if c.Dirs.OutputDir == "" {
		return NewAppError("CONFIG_ERROR", "NOTES_OUTPUT_DIR is required", ErrInvalidInput)
	}
	return nil
}

// ValidateLedger checks the ledger backend selection.
func (c *Config) ValidateLedger() error {
	switch c.Ledger.Backend {
	case "json", "sqlite":
		return nil
	}
	return NewAppError("CONFIG_ERROR", "LEDGER_BACKEND must be json or sqlite", ErrInvalidInput)
}
