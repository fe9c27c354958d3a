// Package provider selects and constructs LLM backend implementations at
// runtime from environment configuration.
// Supported backends: Ollama, OpenAI, Azure OpenAI, Google Gemini, Ark.
package provider

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
	// BackendArk selects the Volcano Engine Ark runtime.
	BackendArk Backend = "ark"
)

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	// Model is the model name or deployment ID to use (e.g. "gpt-4o", "llama3").
	Model string

	// BaseURL overrides the default API endpoint (required for Azure).
	BaseURL string

	// APIKey is the authentication credential for the selected provider.
	APIKey string

	// AzureDeployment is the Azure OpenAI deployment name (Azure only).
	AzureDeployment string

	// AzureAPIVersion is the Azure OpenAI REST API version (Azure only).
	// Populated from AZURE_OPENAI_API_VERSION (e.g. "2024-02-01").
	AzureAPIVersion string

	// MaxTokens caps the number of tokens the model may generate per response.
	MaxTokens int

	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Factory is the interface for constructing a ChatModel from a Config.
// Implementations must be safe to call from multiple goroutines.
type Factory interface {
	// New constructs and returns a ready-to-use ChatModel for the given config.
	New(ctx context.Context, cfg *Config) (model.ToolCallingChatModel, error)
}

// Validate checks that the config has everything the selected backend needs.
// It returns a descriptive error naming the missing env var so misconfiguration
// surfaces at startup rather than on the first request.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOllama:
		if c.Model == "" {
			return errMissing("OLLAMA_MODEL")
		}
	case BackendOpenAI:
		if c.APIKey == "" {
			return errMissing("OPENAI_API_KEY")
		}
	case BackendAzure:
		if c.APIKey == "" {
			return errMissing("AZURE_OPENAI_API_KEY")
		}
		if c.BaseURL == "" {
			return errMissing("AZURE_OPENAI_ENDPOINT")
		}
		if c.AzureDeployment == "" {
			return errMissing("AZURE_OPENAI_DEPLOYMENT")
		}
	case BackendGemini:
		if c.APIKey == "" {
			return errMissing("GOOGLE_API_KEY")
		}
	case BackendArk:
		if c.APIKey == "" {
			return errMissing("ARK_API_KEY")
		}
	default:
		return errUnknownBackend(string(c.Backend))
	}
	return nil
}
