package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App    AppConfig
	Keys   APIKeys
	Ai     AIConfig
	Pubmed PubmedConfig
	Report ReportConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type APIKeys struct {
	OpenAI          string
	HuggingFace     string
	CheckpointTopic string // autosave snapshot topic
	ProgressTopic   string // workshop progress topic
}

type AIConfig struct {
	LLMProvider   string // "openai" or "ollama"
	LLMModel      string // e.g. "gpt-4o-mini", "llama3.1:8b"
	OpenAIBaseURL string // override for self-hosted gateways, empty = api.openai.com
	OllamaBaseURL string
	Temperature   float64
}

type PubmedConfig struct {
	BaseURL      string
	Tool         string // contact identifier sent on every E-utilities request
	ContactEmail string
	RetMax       int
}

type ReportConfig struct {
	Path           string // pathway document, overwritten on save
	TranscriptPath string // assistant transcript snapshot (YAML)
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Keys: APIKeys{
			OpenAI:          getEnv("OPENAI_API_KEY", ""),
			HuggingFace:     getEnv("HUGGINGFACE_API_KEY", ""),
			CheckpointTopic: getEnv("PATHWAY_CHECKPOINT_TOPIC_NAME", "PATHWAY_CHECKPOINT"),
			ProgressTopic:   getEnv("PATHWAY_PROGRESS_TOPIC_NAME", "PATHWAY_PROGRESS"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "openai"),
			LLMModel:      getEnv("LLM_MODEL", "gpt-4o-mini"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			Temperature:   getEnvAsFloat("LLM_TEMPERATURE", 0.3),
		},
		Pubmed: PubmedConfig{
			BaseURL:      getEnv("PUBMED_BASE_URL", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/"),
			Tool:         getEnv("PUBMED_TOOL", "carepathiq"),
			ContactEmail: getEnv("PUBMED_CONTACT_EMAIL", "example@example.com"),
			RetMax:       getEnvAsInt("PUBMED_RETMAX", 3),
		},
		Report: ReportConfig{
			Path:           getEnv("PATHWAY_REPORT_PATH", "clinical_pathway_progress.md"),
			TranscriptPath: getEnv("PATHWAY_TRANSCRIPT_PATH", "pathway_transcript.yaml"),
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
