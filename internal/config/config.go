package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	UploadDir string
	OutputDir string
	TempDir   string

	MaxUploadSize int64

	// Job bookkeeping
	JobTTL        time.Duration
	SweepInterval time.Duration

	// Converter execution
	ConvertTimeout time.Duration
	MaxWorkers     int
	QueueSize      int

	LogLevel string
}

func Load() *Config {
	// .env is optional; environment always wins.
	_ = godotenv.Load()

	workers := getWorkerCount()
	return &Config{
		Port:           getEnv("PORT", "9090"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		OutputDir:      getEnv("OUTPUT_DIR", "outputs"),
		TempDir:        getEnv("TEMP_DIR", filepath.Join(os.TempDir(), "converter_api")),
		MaxUploadSize:  getInt64("MAX_UPLOAD_SIZE", 100*1024*1024), // 100MB
		JobTTL:         getDuration("JOB_TTL", 15*time.Minute),
		SweepInterval:  getDuration("SWEEP_INTERVAL", time.Minute),
		ConvertTimeout: getDuration("CONVERT_TIMEOUT", 5*time.Minute),
		MaxWorkers:     workers,
		QueueSize:      getInt("QUEUE_SIZE", workers*10),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getWorkerCount() int {
	if v := getInt("MAX_WORKERS", 0); v > 0 {
		return v
	}
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 2
}
