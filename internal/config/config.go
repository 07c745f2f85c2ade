package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	ListenAddr   string
	BackendURL   string
	CashierEmail string
	CashierName  string
	StateFile    string
	TickInterval time.Duration
	AlertCommand string
	AlertSound   string
	Locale       string
	LogLevel     string
	LogFile      string
}

func Load() *Config {
	return &Config{
		ListenAddr:   getEnv("LISTEN_ADDR", ":8080"),
		BackendURL:   getEnv("BACKEND_URL", "http://localhost:5000"),
		CashierEmail: getEnv("CASHIER_EMAIL", ""),
		CashierName:  getEnv("CASHIER_NAME", ""),
		StateFile:    getEnv("STATE_FILE", "/data/active_rentals.json"),
		TickInterval: getEnvDuration("TICK_INTERVAL", time.Minute),
		AlertCommand: getEnv("ALERT_CMD", "mpg123"),
		AlertSound:   getEnv("ALERT_SOUND", "/data/alert.mp3"),
		Locale:       getEnv("LOCALE", "en"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogFile:      getEnv("LOG_FILE", ""),
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	if d, err := time.ParseDuration(val); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultVal
}
