// Package config centralises all environment / flag configuration for the API.
// It should be imported only by `cmd/server` (and test code). Business‑logic
// layers receive an already‑built Config instance via dependency‑injection.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple—prefer primitive types over embedding structs.
//
// Credentials are NOT validated here: each service constructor checks the
// variables it needs and fails at first use, so the server can still boot with
// a partial environment (e.g. no OAuth app while testing search locally).
type Config struct {
	// Network
	Port string

	// Vector index
	QdrantAddr       string
	QdrantCollection string

	// Embedding service
	EmbeddingProvider  string // "openai" (default) or "vertex"
	OpenAIAPIKey       string
	GCPProjectID       string
	GCPLocation        string
	GCPCredentialsFile string

	// GitHub OAuth app + session signing
	GitHubClientID     string
	GitHubClientSecret string
	OAuthRedirectURL   string
	SessionSecret      string

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load parses the environment (and an optional .env file) into Config.
func Load() Config {
	// godotenv.Load() is a no‑op if .env doesn't exist—safe in production.
	_ = godotenv.Load()

	return Config{
		Port:               getEnv("PORT", "8080"),
		QdrantAddr:         getEnv("QDRANT_ADDR", "localhost:6334"),
		QdrantCollection:   getEnv("QDRANT_COLLECTION", "starseekers"),
		EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "openai"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		GCPProjectID:       os.Getenv("GCP_PROJECT_ID"),
		GCPLocation:        getEnv("GCP_LOCATION", "us-central1"),
		GCPCredentialsFile: os.Getenv("GCP_CREDENTIALS_FILE"),
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		OAuthRedirectURL:   getEnv("OAUTH_REDIRECT_URL", "http://localhost:8080/auth/callback"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		ReadTimeout:        getDuration("READ_TIMEOUT_SEC", 5),
		WriteTimeout:       getDuration("WRITE_TIMEOUT_SEC", 120),
	}
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}
