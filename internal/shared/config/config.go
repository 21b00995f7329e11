// Package config reads application configuration from environment
// variables, with best-effort loading of local .env files.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/cgoncalves94/entity-recognition-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Env string

	// Corpus storage. "file" loads the JSON corpora from the paths below;
	// "postgres" loads them from DatabaseURL.
	CorpusStore    string
	LexiconPath    string
	BlueprintsPath string
	TopicsPath     string
	DatabaseURL    string

	// Embedding model.
	OrtLibraryPath string
	ModelPath      string
	TokenizerPath  string
	ModelID        string
	MaxSeqLen      int
	EmbedCacheDir  string

	// Pipeline.
	Workers     int
	MatchPolicy string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	store := normalizeStoreType(getEnv("CORPUS_STORE", "file"))
	dbURL := os.Getenv("DATABASE_URL")

	if store == "postgres" && dbURL == "" {
		telemetry.Warn("DATABASE_URL is required when CORPUS_STORE=postgres", map[string]any{"env": env})
	}

	return Config{
		Env:            env,
		CorpusStore:    store,
		LexiconPath:    getEnv("LEXICON_PATH", "data/tech_entities.json"),
		BlueprintsPath: getEnv("BLUEPRINTS_PATH", "data/blueprints.json"),
		TopicsPath:     getEnv("TOPICS_PATH", "data/topics.json"),
		DatabaseURL:    dbURL,
		OrtLibraryPath: getEnv("ORT_LIBRARY_PATH", ""),
		ModelPath:      getEnv("MODEL_PATH", "models/all-MiniLM-L6-v2.onnx"),
		TokenizerPath:  getEnv("TOKENIZER_PATH", "models/tokenizer.json"),
		ModelID:        getEnv("MODEL_ID", "all-MiniLM-L6-v2"),
		MaxSeqLen:      getEnvInt("MAX_SEQ_LEN", 256),
		EmbedCacheDir:  getEnv("EMBED_CACHE_DIR", ".cache/embeddings"),
		Workers:        getEnvInt("PIPELINE_WORKERS", 4),
		MatchPolicy:    getEnv("MATCH_POLICY", "best-effort"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		telemetry.Warn("invalid integer env value, using default", map[string]any{"key": key, "value": raw, "default": def})
		return def
	}
	return val
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	default:
		return "file"
	}
}
