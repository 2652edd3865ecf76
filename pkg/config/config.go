package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	FirebaseProject string
	Environment     string

	StorageBucket         string
	FallbackStorageBucket string

	// Sentinel content: the canned greeting every conversation starts with
	// and the single display label shown to sellers for any support agent.
	WelcomeGreeting string
	AdminLabel      string

	// Cached identity supplied by the hosting application, used for sends
	// when no live session exists.
	CachedIdentityID   string
	CachedIdentityName string

	StatusPollSeconds int64
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:     getEnv("ENVIRONMENT", "development"),

		StorageBucket:         getEnv("STORAGE_BUCKET", ""),
		FallbackStorageBucket: getEnv("FALLBACK_STORAGE_BUCKET", ""),

		WelcomeGreeting: getEnv("WELCOME_GREETING", "How can I help you?"),
		AdminLabel:      getEnv("ADMIN_LABEL", "Customer Care"),

		CachedIdentityID:   getEnv("CACHED_IDENTITY_ID", ""),
		CachedIdentityName: getEnv("CACHED_IDENTITY_NAME", ""),

		StatusPollSeconds: getEnvAsInt64("STATUS_POLL_SECONDS", 60),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
