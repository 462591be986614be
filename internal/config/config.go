package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr        string
	UpstreamBaseURL string
	RequestTimeout  time.Duration
	StateDBPath     string
	LogLevel        string
	LoginPath       string
	LandingPath     string
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8090"),
		UpstreamBaseURL: getenv("UPSTREAM_BASE_URL", "http://127.0.0.1:4000/api"),
		RequestTimeout:  getenvDuration("REQUEST_TIMEOUT", 15*time.Second),
		StateDBPath:     getenv("STATE_DB_PATH", "console-state.db"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		LoginPath:       getenv("LOGIN_PATH", "/login"),
		LandingPath:     getenv("LANDING_PATH", "/delegates"),
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
