package web

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config defines the runtime configuration for the web front.
type Config struct {
	Addr           string
	UploadDir      string
	MaxUploadBytes int64
	WriteTimeout   time.Duration
	// APIURL is only displayed on the page.
	APIURL string
}

// DefaultConfig returns the local single-user setup.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		UploadDir:      filepath.Join(os.TempDir(), "vidspot-uploads"),
		MaxUploadBytes: 2 << 30,
		WriteTimeout:   5 * time.Second,
	}
}

// LoadConfig overlays VIDSPOT_* environment variables on DefaultConfig.
func LoadConfig() Config {
	def := DefaultConfig()
	return Config{
		Addr:           getEnv("VIDSPOT_ADDR", def.Addr),
		UploadDir:      getEnv("VIDSPOT_UPLOAD_DIR", def.UploadDir),
		MaxUploadBytes: getEnvAsInt64("VIDSPOT_MAX_UPLOAD_MB", def.MaxUploadBytes>>20) << 20,
		WriteTimeout:   def.WriteTimeout,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil && intValue > 0 {
			return intValue
		}
	}
	return defaultValue
}
