package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	Password          string
	TemplatePath      string // empty means the built-in standard sheet
	OutputDirectory   string
	DatabasePath      string
	LogDirectory      string
	ProcessingWorkers int   // 0 sizes the pool from CPU count and free memory
	MaxUploadSize     int64 // Maksymalny rozmiar przesyłanego skanu w MB
	PDFDPI            int
}

// Load reads settings from the environment, after merging an optional .env file.
func Load() *Config {
	// Brak pliku .env nie jest błędem.
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvAsInt("PORT", 8080),
		Password:          getEnv("PASSWORD", "omrscan"),
		TemplatePath:      getEnv("TEMPLATE_PATH", ""),
		OutputDirectory:   getEnv("OUTPUT_DIR", filepath.Join(".", "output")),
		DatabasePath:      getEnv("DB_PATH", filepath.Join(".", "data", "sheets.db")),
		LogDirectory:      getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ProcessingWorkers: getEnvAsInt("WORKERS", 0),
		MaxUploadSize:     getEnvAsInt64("MAX_UPLOAD_MB", 32),
		PDFDPI:            getEnvAsInt("PDF_DPI", 300),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
