package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Ai       AIConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	PolicyFilePath     string
	AuditTopic         string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider  string // "gemini", "ollama" or "jina"
	OllamaBaseURL      string
	OllamaModel        string
	LLMProvider        string // "ollama" or "huggingface"
	LLMModel           string // e.g. "llama3", "qwen2.5"
	GeminiAPIKey       string
	JinaAPIKey         string
	HuggingFaceToken   string
	HuggingFaceBaseURL string // empty keeps the provider's router default
}

// PipelineConfig carries the tuning constants of the question pipeline.
// All values are env-driven so deployments can adjust without a rebuild.
type PipelineConfig struct {
	ClassifierThreshold float64       // below this confidence the classifier defaults to RAG
	TopKInitial         int           // retrieval candidate count
	TopKFinal           int           // candidates surviving rerank
	OverFetchFactor     int           // multiplier when the index cannot pre-filter by tag
	RowCap              int           // max rows returned by the tabular engine
	QualityThreshold    float64       // below this the answer is flagged degraded
	StageTimeout        time.Duration // per model-call timeout
	AggregateTimeout    time.Duration // whole-request ceiling
	SQLRetryBudget      int           // retries for SQL generation/execution
	AnswerCacheTTL      time.Duration // redis answer cache TTL
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			PolicyFilePath:     getEnv("POLICY_FILE_PATH", ""),
			AuditTopic:         getEnv("QUERY_AUDIT_TOPIC_NAME", "QUERY_AUDIT"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3"),
			GeminiAPIKey:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JinaAPIKey:         getEnv("JINA_API_KEY", ""),
			HuggingFaceToken:   getEnv("HUGGINGFACE_TOKEN", ""),
			HuggingFaceBaseURL: getEnv("HUGGINGFACE_BASE_URL", ""),
		},
		Pipeline: PipelineConfig{
			ClassifierThreshold: getEnvAsFloat("CLASSIFIER_CONFIDENCE_THRESHOLD", 0.6),
			TopKInitial:         getEnvAsInt("RETRIEVAL_TOP_K_INITIAL", 20),
			TopKFinal:           getEnvAsInt("RERANK_TOP_K_FINAL", 5),
			OverFetchFactor:     getEnvAsInt("RETRIEVAL_OVERFETCH_FACTOR", 5),
			RowCap:              getEnvAsInt("SQL_ROW_CAP", 10000),
			QualityThreshold:    getEnvAsFloat("ANSWER_QUALITY_THRESHOLD", 0.5),
			StageTimeout:        getEnvAsDuration("STAGE_TIMEOUT", 20*time.Second),
			AggregateTimeout:    getEnvAsDuration("AGGREGATE_TIMEOUT", 60*time.Second),
			SQLRetryBudget:      getEnvAsInt("SQL_RETRY_BUDGET", 1),
			AnswerCacheTTL:      getEnvAsDuration("ANSWER_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
