package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds process-wide settings
type Config struct {
	Port           string `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	LLMProvider       string `yaml:"llm_provider"`
	EmbeddingProvider string `yaml:"embedding_provider"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIModel      string `yaml:"openai_model"`
	OpenAIEmbeddings string `yaml:"openai_embeddings"`

	GeminiAPIKey     string `yaml:"gemini_api_key"`
	GeminiModel      string `yaml:"gemini_model"`
	GeminiEmbeddings string `yaml:"gemini_embeddings"`

	OllamaURL        string `yaml:"ollama_url"`
	OllamaEmbeddings string `yaml:"ollama_embeddings"`

	TavilyAPIKey string `yaml:"tavily_api_key"`
	TavilyURL    string `yaml:"tavily_url"`

	VectorBackend    string `yaml:"vector_backend"`
	VectorPersistDir string `yaml:"vector_persist_dir"`
	DatabaseURL      string `yaml:"database_url"`
	QdrantHost       string `yaml:"qdrant_host"`
	QdrantPort       int    `yaml:"qdrant_port"`

	MemoryBackend string `yaml:"memory_backend"`
	MemoryDBPath  string `yaml:"memory_db_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	Storage StorageConfig `yaml:"storage"`
}

// StorageConfig holds settings for artifact and upload storage
type StorageConfig struct {
	Type           string `yaml:"type"`
	LocalPath      string `yaml:"local_path"`
	S3Bucket       string `yaml:"s3_bucket"`
	S3Region       string `yaml:"s3_region"`
	AWSAccessKey   string `yaml:"aws_access_key_id"`
	AWSSecretKey   string `yaml:"aws_secret_access_key"`
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
}

// Load reads .env files, an optional YAML file named by APP_CONFIG and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Try current directory first, then project root (relative to cmd/*)
	if err := godotenv.Load(); err != nil {
		_ = godotenv.Load("../../.env")
	}

	cfg := defaults()
	if path := os.Getenv("APP_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Port:             "8080",
		LogLevel:         "info",
		MaxUploadBytes:   10 * 1024 * 1024,
		OpenAIModel:      "gpt-4o",
		OpenAIEmbeddings: "text-embedding-3-large",
		GeminiModel:      "gemini-1.5-pro",
		GeminiEmbeddings: "text-embedding-004",
		OllamaURL:        "http://localhost:11434",
		OllamaEmbeddings: "nomic-embed-text",
		TavilyURL:        "https://api.tavily.com",
		VectorBackend:    "memory",
		VectorPersistDir: "./storage/vectors",
		QdrantHost:       "localhost",
		QdrantPort:       6334,
		MemoryDBPath:     "./storage/memory.db",
		MongoDatabase:    "briefdraft",
		Storage: StorageConfig{
			Type:      "local",
			LocalPath: "./storage",
			S3Region:  "us-east-1",
		},
	}
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))

	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.EmbeddingProvider = getEnv("EMBEDDING_PROVIDER", cfg.EmbeddingProvider)

	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)
	cfg.OpenAIEmbeddings = getEnv("OPENAI_EMBEDDINGS", cfg.OpenAIEmbeddings)

	cfg.GeminiAPIKey = getEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiEmbeddings = getEnv("GEMINI_EMBEDDINGS", cfg.GeminiEmbeddings)

	cfg.OllamaURL = getEnv("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaEmbeddings = getEnv("OLLAMA_EMBEDDINGS", cfg.OllamaEmbeddings)

	cfg.TavilyAPIKey = getEnv("TAVILY_API_KEY", cfg.TavilyAPIKey)
	cfg.TavilyURL = getEnv("TAVILY_URL", cfg.TavilyURL)

	cfg.VectorBackend = getEnv("VECTOR_BACKEND", cfg.VectorBackend)
	cfg.VectorPersistDir = getEnv("VECTOR_PERSIST_DIR", cfg.VectorPersistDir)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.QdrantHost = getEnv("QDRANT_HOST", cfg.QdrantHost)
	cfg.QdrantPort = getEnvInt("QDRANT_PORT", cfg.QdrantPort)

	cfg.MemoryBackend = getEnv("MEMORY_BACKEND", cfg.MemoryBackend)
	cfg.MemoryDBPath = getEnv("MEMORY_DB_PATH", cfg.MemoryDBPath)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDatabase = getEnv("MONGO_DATABASE", cfg.MongoDatabase)

	s := &cfg.Storage
	s.Type = getEnv("STORAGE_TYPE", s.Type)
	s.LocalPath = getEnv("STORAGE_LOCAL_PATH", s.LocalPath)
	s.S3Bucket = getEnv("AWS_S3_BUCKET", s.S3Bucket)
	s.S3Region = getEnv("AWS_REGION", s.S3Region)
	s.AWSAccessKey = getEnv("AWS_ACCESS_KEY_ID", s.AWSAccessKey)
	s.AWSSecretKey = getEnv("AWS_SECRET_ACCESS_KEY", s.AWSSecretKey)
	s.MinioEndpoint = getEnv("MINIO_ENDPOINT", s.MinioEndpoint)
	s.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", s.MinioAccessKey)
	s.MinioSecretKey = getEnv("MINIO_SECRET_KEY", s.MinioSecretKey)
	s.MinioBucket = getEnv("MINIO_BUCKET", s.MinioBucket)
	s.MinioUseSSL = getEnvBool("MINIO_USE_SSL", s.MinioUseSSL)
}

// ResolvedMemoryBackend picks the chat memory backend when none is set explicitly
func (c *Config) ResolvedMemoryBackend() string {
	if c.MemoryBackend != "" {
		return c.MemoryBackend
	}
	switch {
	case c.DatabaseURL != "":
		return "postgres"
	case c.MongoURI != "":
		return "mongo"
	default:
		return "sqlite"
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}
