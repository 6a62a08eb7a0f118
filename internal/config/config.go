package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string
	PhotoPath  string
	LogLevel   string
	LogFile    string
}

// Load reads configuration from the environment, after merging in a .env
// file from the working directory if one exists.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		DBPath:     getEnv("DB_PATH", "/data/jobtracker.db"),
		PhotoPath:  getEnv("PHOTO_LOCAL_PATH", "/data/uploads/paint-records"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFile:    getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
