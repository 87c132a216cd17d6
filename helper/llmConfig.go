package helper

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// LLMConfiguration is the environment-driven configuration for the LLM
// adapter (C3): API key, model identifier, optional self-hosted base URL,
// and the per-call timeout E-BRI's batch calls are bounded by.
type LLMConfiguration struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewLLMConfiguration builds an LLMConfiguration from environment
// variables. APIKey is checked only by RequireAPIKey, which the worker calls
// only when thematic_bridge is enabled; the worker reads the other variables
// on every run.
func NewLLMConfiguration() (*LLMConfiguration, error) {
	config := &LLMConfiguration{
		APIKey:  os.Getenv("LLM_API_KEY"),
		Model:   os.Getenv("LLM_MODEL"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Timeout: 60 * time.Second,
	}

	if config.Model == "" {
		config.Model = "gpt-4o-mini"
	}

	if raw := os.Getenv("LLM_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return nil, NewError("parse LLM_TIMEOUT_SECONDS", err)
		}
		config.Timeout = time.Duration(seconds) * time.Second
	}

	return config, nil
}

// RequireAPIKey fails fast when E-BRI is enabled but no API key is
// configured (§7 "Configuration error").
func (c *LLMConfiguration) RequireAPIKey() error {
	if c.APIKey == "" {
		return NewError("llm configuration", fmt.Errorf("LLM_API_KEY is required when thematic_bridge is enabled"))
	}
	return nil
}
