package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env  string
	Port string

	DB       DBConfig
	Embedder EmbedderConfig
	Sources  SourcesConfig
	Curation CurationConfig
	Lexical  LexicalConfig
	Digest   DigestConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type EmbedderConfig struct {
	URL       string
	Model     string
	Timeout   int // seconds
	CacheSize int // entries in the embedding LRU, 0 disables
}

type SourcesConfig struct {
	TimeoutSec   int // per-source fetch timeout
	DefaultLimit int

	TelegramBotToken string
	TwitterBearer    string
	RedditUserAgent  string
}

type CurationConfig struct {
	LexicalWeight  float64
	SemanticWeight float64
	KeywordBonus   float64
	MaxBonus       float64
	Threshold      float64
	TopK           int
	Concurrency    int // parallel per-message scoring, 1 = sequential
}

type LexicalConfig struct {
	KeywordWeight float64 // convex blend: keyword rules vs tf-idf cosine
	TFIDFWeight   float64
	SynonymsPath  string // optional yaml table, built-in when empty
}

type DigestConfig struct {
	Enabled     bool
	IntervalMin int
	MaxSaved    int // important messages persisted per user per run
}

func Load() *Config {
	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "9020"),
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "curator-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "curator_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "curator_password"),
			Name:     getEnv("DB_NAME", "curator_db"),
		},
		Embedder: EmbedderConfig{
			URL:       getEnv("EMBEDDER_URL", "http://embedder:11434"),
			Model:     getEnv("EMBEDDING_MODEL", "all-minilm"),
			Timeout:   getEnvInt("EMBEDDER_TIMEOUT", 30),
			CacheSize: getEnvInt("EMBEDDING_CACHE_SIZE", 1024),
		},
		Sources: SourcesConfig{
			TimeoutSec:       getEnvInt("SOURCE_TIMEOUT", 15),
			DefaultLimit:     getEnvInt("SOURCE_DEFAULT_LIMIT", 20),
			TelegramBotToken: getSecret("TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN_FILE", ""),
			TwitterBearer:    getSecret("TWITTER_BEARER_TOKEN", "TWITTER_BEARER_TOKEN_FILE", ""),
			RedditUserAgent:  getEnv("REDDIT_USER_AGENT", "message-orchestrator/1.0"),
		},
		Curation: CurationConfig{
			LexicalWeight:  getEnvFloat("CURATION_LEXICAL_WEIGHT", 0.4),
			SemanticWeight: getEnvFloat("CURATION_SEMANTIC_WEIGHT", 0.6),
			KeywordBonus:   getEnvFloat("CURATION_KEYWORD_BONUS", 0.2),
			MaxBonus:       getEnvFloat("CURATION_MAX_BONUS", 0.5),
			Threshold:      getEnvFloat("CURATION_THRESHOLD", 0.25),
			TopK:           getEnvInt("CURATION_TOP_K", 30),
			Concurrency:    getEnvInt("CURATION_CONCURRENCY", 4),
		},
		Lexical: LexicalConfig{
			KeywordWeight: getEnvFloat("LEXICAL_KEYWORD_WEIGHT", 0.7),
			TFIDFWeight:   getEnvFloat("LEXICAL_TFIDF_WEIGHT", 0.3),
			SynonymsPath:  getEnv("SYNONYMS_PATH", ""),
		},
		Digest: DigestConfig{
			Enabled:     getEnvBool("DIGEST_ENABLED", false),
			IntervalMin: getEnvInt("DIGEST_INTERVAL_MIN", 60),
			MaxSaved:    getEnvInt("DIGEST_MAX_SAVED", 10),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
