package config

import (
	"log/slog"
	"os"
	"strings"
)

// LLM providers for board auto-titling.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderBedrock   = "bedrock"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string
	SurrealDBNamespace string
	SurrealDBDatabase  string
	SurrealDBUser      string
	SurrealDBPass      string
	SurrealDBAuthLevel string

	// HTTP server
	ListenAddr string
	// HomepageBoardID is the fixed public board served to signed-out
	// visitors. Empty means the homepage endpoint returns an error.
	HomepageBoardID string
	AuthSecret      string
	StoragePath     string

	// CLI client
	ServerURL string
	Token     string

	// Auto-titling LLM
	LLMProvider     string
	LLMModel        string
	OllamaHost      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		SurrealDBURL:       getEnv("SURREALDB_URL", "ws://localhost:8000/rpc"),
		SurrealDBNamespace: getEnv("SURREALDB_NAMESPACE", "thinkable"),
		SurrealDBDatabase:  getEnv("SURREALDB_DATABASE", "app"),
		SurrealDBUser:      getEnv("SURREALDB_USER", "root"),
		SurrealDBPass:      getEnv("SURREALDB_PASS", "root"),
		SurrealDBAuthLevel: getEnv("SURREALDB_AUTH_LEVEL", "root"),

		ListenAddr:      getEnv("THINKABLE_LISTEN_ADDR", ":8080"),
		HomepageBoardID: getEnv("HOMEPAGE_BOARD_ID", ""),
		AuthSecret:      getEnv("THINKABLE_AUTH_SECRET", ""),
		StoragePath:     getEnv("THINKABLE_STORAGE_PATH", "/var/lib/thinkable/attachments"),

		ServerURL: getEnv("THINKABLE_SERVER_URL", "http://localhost:8080"),
		Token:     getEnv("THINKABLE_TOKEN", ""),

		LLMProvider:     getEnv("THINKABLE_LLM_PROVIDER", ProviderOllama),
		LLMModel:        getEnv("THINKABLE_LLM_MODEL", "llama3.2"),
		OllamaHost:      getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),

		LogFile:  getEnv("THINKABLE_LOG_FILE", "/tmp/thinkable.log"),
		LogLevel: parseLogLevel(getEnv("THINKABLE_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
