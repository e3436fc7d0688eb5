package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadKeepsProviderBaseURLsSeparate(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "huggingface")
	t.Setenv("OLLAMA_BASE_URL", "http://ollama.internal:11434")
	t.Setenv("HUGGINGFACE_BASE_URL", "")

	cfg := Load()

	// The huggingface base URL must never inherit the ollama endpoint;
	// left empty, the provider applies its own router default.
	assert.Equal(t, "", cfg.Ai.HuggingFaceBaseURL)
	assert.Equal(t, "http://ollama.internal:11434", cfg.Ai.OllamaBaseURL)
}

func TestLoadReadsHuggingFaceBaseURL(t *testing.T) {
	t.Setenv("HUGGINGFACE_BASE_URL", "https://hf.internal/v1")

	cfg := Load()

	assert.Equal(t, "https://hf.internal/v1", cfg.Ai.HuggingFaceBaseURL)
}
