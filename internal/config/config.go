// package config loads application configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// telegram
	TGApiID   int
	TGApiHash string
	TGPhone   string
	SessionDB string

	// storage backend selection: mongodb, pebble, local, cli
	RepositoryType string

	// mongodb
	MongoURL      string
	MongoDatabase string

	// pebble
	PebblePath string

	// local file backend
	LocalDir string

	// logical table names shared by all backends
	MessageTable       string
	ChannelTable       string
	CachedChannelTable string

	// ingestion
	BuilderSteps  []string
	BackfillLimit int
	Timezone      string
	ChannelsFile  string
	ParseDialogs  bool
	// extra chats for the live listener, as marked Bot-API ids
	// (-100XXXXXXXXXX for channels, negative for basic chats)
	LiveChats []int64

	// nats (optional, empty disables publishing)
	NatsURL string

	// logging
	LogLevel string
	LogFile  string
}

// defaultSteps is the full extraction pipeline in its canonical order.
var defaultSteps = []string{
	"extract_text",
	"extract_dialog_info",
	"extract_engagements",
	"extract_forward_info",
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file is loaded first when present (CONFIG_PATH overrides its location).
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		_ = godotenv.Load(path)
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		TGApiID:            getEnvInt("TG_API_ID", 0),
		TGApiHash:          getEnv("TG_API_HASH", ""),
		TGPhone:            getEnv("TG_PHONE", ""),
		SessionDB:          getEnv("SESSION_DB", "./session.db"),
		RepositoryType:     getEnv("REPOSITORY_TYPE", "cli"),
		MongoURL:           getEnv("MONGO_URL", "mongodb://localhost:27017"),
		MongoDatabase:      getEnv("MONGO_DATABASE", "telegram"),
		PebblePath:         getEnv("PEBBLE_PATH", "./data/pebble"),
		LocalDir:           getEnv("LOCAL_DIR", "."),
		MessageTable:       getEnv("MESSAGE_TABLE", "messages"),
		ChannelTable:       getEnv("CHANNEL_TABLE", "channels"),
		CachedChannelTable: getEnv("CACHED_CHANNEL_TABLE", "cached_channels"),
		BuilderSteps:       getEnvList("BUILDER_STEPS", defaultSteps),
		BackfillLimit:      getEnvInt("BACKFILL_LIMIT", 100),
		Timezone:           getEnv("TIMEZONE", ""),
		ChannelsFile:       getEnv("CHANNELS_FILE", "./configs/channels.yaml"),
		ParseDialogs:       getEnvBool("PARSE_DIALOGS", true),
		LiveChats:          getEnvInt64List("LIVE_CHATS", nil),
		NatsURL:            getEnv("NATS_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFile:            getEnv("LOG_FILE", ""),
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvList parses a comma-separated environment variable.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

// getEnvInt64List parses a comma-separated list of int64 values,
// skipping entries that do not parse.
func getEnvInt64List(key string, defaultVal []int64) []int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parts := strings.Split(val, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		if i, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil {
			out = append(out, i)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
