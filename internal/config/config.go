package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Google GoogleConfig
	Sync   SyncConfig
}

type AppConfig struct {
	APIBaseURL  string
	SocketURL   string
	Environment string
	LogFilePath string
}

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

type SyncConfig struct {
	DebounceMs           int
	AuthRetries          int
	AuthRetryBackoffMs   int
	PollIntervalSec      int
	AuthCheckIntervalSec int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:3001"),
			SocketURL:   getEnv("SOCKET_URL", "ws://localhost:3001/socket"),
			Environment: getEnv("GO_ENV", "development"),
			LogFilePath: getEnv("LOG_FILE_PATH", "notia.log"),
		},
		Google: GoogleConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", "urn:ietf:wg:oauth:2.0:oob"),
		},
		Sync: SyncConfig{
			DebounceMs:           getEnvAsInt("SAVE_DEBOUNCE_MS", 1000),
			AuthRetries:          getEnvAsInt("AUTH_STATUS_RETRIES", 2),
			AuthRetryBackoffMs:   getEnvAsInt("AUTH_RETRY_BACKOFF_MS", 1000),
			PollIntervalSec:      getEnvAsInt("NOTEBOOK_POLL_INTERVAL_SEC", 15),
			AuthCheckIntervalSec: getEnvAsInt("AUTH_CHECK_INTERVAL_SEC", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}
