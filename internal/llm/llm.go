// File path: internal/llm/llm.go
package llm

import (
	"fmt"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/llm/providers"
)

type Embedder = providers.Embedder

// Config selects the embedding backend used by the knowledge index.
type Config struct {
	// Provider is one of auto, openai, ollama or none.
	Provider string

	OpenAIKey      string
	OpenAIEndpoint string
	OpenAIModel    string
	OpenAITimeout  time.Duration

	OllamaHost  string
	OllamaModel string
}

func LoadConfig() Config {
	logger := common.Logger()
	cfg := Config{
		Provider:       strings.ToLower(strings.TrimSpace(os.Getenv("BWMIGRATE_EMBEDDINGS"))),
		OpenAIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIEndpoint: strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")),
		OpenAIModel:    strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL")),
		OllamaHost:     strings.TrimSpace(os.Getenv("OLLAMA_HOST")),
		OllamaModel:    strings.TrimSpace(os.Getenv("OLLAMA_EMBED_MODEL")),
	}
	if timeoutStr := strings.TrimSpace(os.Getenv("OPENAI_HTTP_TIMEOUT")); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			logger.Warn("llm: invalid OPENAI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			cfg.OpenAITimeout = timeout
		}
	}
	if cfg.Provider == "" {
		cfg.Provider = "auto"
	}
	return cfg
}

// NewEmbedder builds the configured embedder. A nil embedder with a nil
// error means no embedding capability is configured.
func NewEmbedder(cfg Config) (Embedder, error) {
	logger := common.Logger()
	switch cfg.Provider {
	case "none", "lexical", "off":
		logger.Info("llm: embeddings disabled by configuration")
		return nil, nil
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("llm: openai embeddings selected but OPENAI_API_KEY is not set")
		}
		return newOpenAI(cfg), nil
	case "ollama":
		return providers.NewOllamaEmbedder(ollamaURL(cfg.OllamaHost), cfg.OllamaModel)
	case "", "auto":
		if cfg.OpenAIKey != "" {
			return newOpenAI(cfg), nil
		}
		if cfg.OllamaHost != "" {
			return providers.NewOllamaEmbedder(ollamaURL(cfg.OllamaHost), cfg.OllamaModel)
		}
		logger.Warn("llm: no embedding provider configured; knowledge index will use lexical scoring")
		return nil, nil
	}
	return nil, fmt.Errorf("llm: unknown embedding provider %q", cfg.Provider)
}

func newOpenAI(cfg Config) Embedder {
	logger := common.Logger()
	opts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIKey)}
	if cfg.OpenAITimeout > 0 {
		logger.Info("llm: configuring OpenAI client with custom HTTP timeout", "timeout", cfg.OpenAITimeout)
		opts = append(opts, option.WithRequestTimeout(cfg.OpenAITimeout))
	}
	if cfg.OpenAIEndpoint != "" {
		logger.Info("llm: configuring OpenAI client with custom endpoint", "endpoint", cfg.OpenAIEndpoint)
		opts = append(opts, option.WithBaseURL(cfg.OpenAIEndpoint))
	}
	return providers.NewOpenAIEmbedder(openai.NewClient(opts...), cfg.OpenAIModel)
}

// ollamaURL accepts OLLAMA_HOST in either "host:port" or URL form.
func ollamaURL(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}

// OllamaURL is the base URL used for OLLAMA_HOST, defaulting to the local
// server.
func OllamaURL(cfg Config) string {
	if u := ollamaURL(cfg.OllamaHost); u != "" {
		return u
	}
	return "http://127.0.0.1:11434"
}
