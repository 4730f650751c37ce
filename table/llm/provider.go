package llm

import (
	"errors"
	"os"
	"strings"
)

type providerKind int

const (
	providerOpenAI providerKind = iota
	providerOpenRouter
)

func (k providerKind) String() string {
	if k == providerOpenRouter {
		return "openrouter"
	}
	return "openai"
}

// apiConfig is everything needed to reach a chat/completions endpoint.
type apiConfig struct {
	Kind         providerKind
	APIKey       string
	Model        string
	BaseURL      string
	HeaderName   string
	HeaderPrefix string
	Organization string
	ExtraHeaders map[string]string
}

var (
	ErrNoModel  = errors.New("model missing: set BLACKJACK_LLM_MODEL, OPENAI_MODEL or OPENROUTER_MODEL")
	ErrNoAPIKey = errors.New("API key missing: set OPENAI_API_KEY or OPENROUTER_API_KEY")
)

// resolveAPIConfig reads provider settings from the environment. An explicit
// LLM_PROVIDER wins over detection from the model name and base URL.
func resolveAPIConfig(model string) (apiConfig, error) {
	cfg := apiConfig{
		Model:        strings.TrimSpace(model),
		ExtraHeaders: map[string]string{},
	}
	if preferOpenRouterEnv() {
		cfg.Kind = providerOpenRouter
	}

	manual := false
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))) {
	case "openrouter":
		cfg.Kind, manual = providerOpenRouter, true
	case "openai":
		cfg.Kind, manual = providerOpenAI, true
	}

	if cfg.Model == "" && cfg.Kind == providerOpenRouter {
		cfg.Model = strings.TrimSpace(os.Getenv("OPENROUTER_MODEL"))
	}
	if cfg.Model == "" {
		cfg.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	}
	if cfg.Model == "" {
		return apiConfig{}, ErrNoModel
	}
	if !manual && strings.Contains(strings.ToLower(cfg.Model), "openrouter/") {
		cfg.Kind = providerOpenRouter
	}

	base := firstNonEmpty(
		os.Getenv("OPENAI_API_BASE"),
		os.Getenv("OPENAI_BASE_URL"),
		os.Getenv("OPENROUTER_API_BASE"),
		os.Getenv("OPENROUTER_BASE_URL"),
	)
	if base == "" {
		if cfg.Kind == providerOpenRouter {
			base = "https://openrouter.ai/api/v1"
		} else {
			base = "https://api.openai.com/v1"
		}
	}
	cfg.BaseURL = strings.TrimRight(base, "/")
	if !manual && strings.Contains(strings.ToLower(cfg.BaseURL), "openrouter") {
		cfg.Kind = providerOpenRouter
	}

	openAIKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	openRouterKey := strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
	if cfg.Kind == providerOpenRouter {
		cfg.APIKey = firstNonEmpty(openRouterKey, openAIKey)
	} else {
		cfg.APIKey = firstNonEmpty(openAIKey, openRouterKey)
	}
	if cfg.APIKey == "" {
		return apiConfig{}, ErrNoAPIKey
	}

	cfg.HeaderName = firstNonEmpty(os.Getenv("OPENAI_API_KEY_HEADER"), os.Getenv("OPENROUTER_API_KEY_HEADER"), "Authorization")
	cfg.HeaderPrefix = os.Getenv("OPENAI_API_KEY_PREFIX")
	if cfg.HeaderPrefix == "" {
		cfg.HeaderPrefix = os.Getenv("OPENROUTER_API_KEY_PREFIX")
	}
	if cfg.HeaderName == "Authorization" && strings.TrimSpace(cfg.HeaderPrefix) == "" {
		cfg.HeaderPrefix = "Bearer "
	}
	cfg.Organization = strings.TrimSpace(os.Getenv("OPENAI_ORG"))

	if cfg.Kind == providerOpenRouter {
		site := firstNonEmpty(os.Getenv("OPENROUTER_SITE_URL"), "https://github.com/blackjack-table")
		cfg.ExtraHeaders["HTTP-Referer"] = site
		cfg.ExtraHeaders["Referer"] = site
		cfg.ExtraHeaders["X-Title"] = firstNonEmpty(os.Getenv("OPENROUTER_TITLE"), "Blackjack Table")
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func preferOpenRouterEnv() bool {
	if os.Getenv("OPENROUTER_API_KEY") != "" && os.Getenv("OPENAI_API_KEY") == "" {
		return true
	}
	if os.Getenv("OPENROUTER_MODEL") != "" && os.Getenv("OPENAI_MODEL") == "" {
		return true
	}
	return os.Getenv("OPENROUTER_API_BASE") != "" || os.Getenv("OPENROUTER_BASE_URL") != ""
}
