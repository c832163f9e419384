// internal/ai/gemini/config.go
package gemini

import (
	"time"

	"resume-matcher/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// FromAppConfig builds the client config from the application configuration.
func FromAppConfig(cfg *config.Config) *Config {
	return &Config{
		BaseURL:    cfg.APIs.GenAI.BaseURL,
		APIKey:     cfg.APIs.GenAI.APIKey,
		Model:      cfg.APIs.GenAI.Model,
		Timeout:    config.GetDuration(cfg.APIs.GenAI.Timeout),
		MaxRetries: cfg.APIs.GenAI.MaxRetries,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Model == "" {
		out.Model = "gemini-2.0-flash"
	}
	if out.Timeout == 0 {
		out.Timeout = 60 * time.Second
	}
	if out.MaxRetries == 0 {
		out.MaxRetries = 3
	}
	return &out
}
