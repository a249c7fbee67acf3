// Package config collects the process configuration from the
// environment and validates it before anything connects anywhere.
package config

import (
	"fmt"

	"github.com/go-playground/validator"

	"github.com/reaia/docgraph/internal/util"
)

// Backends supported for graph persistence.
const (
	BackendNeo4j    = "neo4j"
	BackendPostgres = "postgres"
)

// Config is the validated process configuration. One instance is built
// at startup and handed down; nothing reads the environment after Load.
type Config struct {
	StorageBackend string `validate:"required,oneof=neo4j postgres"`

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	DatabaseURL string

	AIAdapter       string `validate:"required,oneof=openai ollama"`
	ExtractionModel string `validate:"required"`
	ChatURL         string
	ChatKey         string
	ParallelReq     int `validate:"gte=1"`

	TokenEncoding string `validate:"required"`
	ChunkSize     int    `validate:"gte=0"`
	ChunkOverlap  int    `validate:"gte=0"`

	IncludeSource bool
	FailFast      bool
	Concurrency   int `validate:"gte=0"`

	Port string
}

// Load reads the configuration from the environment and fails fast on
// anything invalid or missing.
func Load() (*Config, error) {
	cfg := &Config{
		StorageBackend: util.GetEnvString("STORAGE_BACKEND", BackendNeo4j),

		Neo4jURI:      util.GetEnv("NEO4J_URI"),
		Neo4jUser:     util.GetEnv("NEO4J_USERNAME"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase: util.GetEnv("NEO4J_DATABASE"),

		DatabaseURL: util.GetEnv("DATABASE_URL"),

		AIAdapter:       util.GetEnvString("AI_ADAPTER", "openai"),
		ExtractionModel: util.GetEnv("AI_CHAT_EXTRACT_MODEL"),
		ChatURL:         util.GetEnv("AI_CHAT_URL"),
		ChatKey:         util.GetEnv("AI_CHAT_KEY"),
		ParallelReq:     util.GetEnvInt("AI_PARALLEL_REQ", 15),

		TokenEncoding: util.GetEnvString("TOKEN_ENCODING", "cl100k_base"),
		ChunkSize:     util.GetEnvInt("CHUNK_SIZE", 0),
		ChunkOverlap:  util.GetEnvInt("CHUNK_OVERLAP", 0),

		IncludeSource: util.GetEnvBool("INCLUDE_SOURCE", true),
		FailFast:      util.GetEnvBool("LOADER_FAIL_FAST", false),
		Concurrency:   util.GetEnvInt("PIPELINE_CONCURRENCY", 0),

		Port: util.GetEnvString("PORT", "8080"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	switch cfg.StorageBackend {
	case BackendNeo4j:
		if cfg.Neo4jURI == "" {
			return nil, fmt.Errorf("invalid configuration: NEO4J_URI is required for the neo4j backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("invalid configuration: DATABASE_URL is required for the postgres backend")
		}
	}

	return cfg, nil
}
