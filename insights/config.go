// Package insights asks an OpenAI compatible endpoint to comment on analysis
// results. The feature stays off unless both an API key and an endpoint are
// configured in the environment.
package insights

import (
	"net/url"
	"os"
	"strings"
)

const defaultModel = "4o-mini"

type Config struct {
	APIKey   string
	Endpoint string
	Model    string
}

// LoadConfig reads the environment. Nil means the feature is disabled, a key
// and an endpoint are both required while the model may fall back to the
// default.
func LoadConfig() *Config {
	apiKey := strings.TrimSpace(firstEnv("CRYPTOAI_API_KEY", "OPENAI_API_KEY"))
	endpoint := strings.TrimSpace(firstEnv("CRYPTOAI_ENDPOINT", "OPENAI_ENDPOINT", "OPENAI_BASE_URL"))
	model := strings.TrimSpace(firstEnv("CRYPTOAI_MODEL", "OPENAI_MODEL"))
	if model == "" {
		model = defaultModel
	}
	if apiKey == "" || endpoint == "" {
		return nil
	}
	return &Config{APIKey: apiKey, Endpoint: endpoint, Model: NormalizeModel(endpoint, model)}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if value := os.Getenv(name); value != "" {
			return value
		}
	}
	return ""
}

// NormalizeModel maps the 4o-mini shorthand to the id OpenAI's own API
// expects. Other OpenAI compatible endpoints keep the model unchanged.
func NormalizeModel(endpoint, model string) string {
	if model != defaultModel {
		return model
	}
	parsed, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return model
	}
	if strings.HasSuffix(strings.ToLower(parsed.Hostname()), "openai.com") {
		return "gpt-4o-mini"
	}
	return model
}
