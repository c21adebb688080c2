// Package config loads and validates the Atelier configuration.
package config

import "time"

// Config is the root configuration for Atelier.
type Config struct {
	Models ModelsConfig `json:"models"`
	Engine EngineConfig `json:"engine"`
	Search SearchConfig `json:"search"`
	Output OutputConfig `json:"output"`
	Events EventsConfig `json:"events"`
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default"`
	Providers map[string]ProviderConfig `json:"providers"`
}

// ProviderConfig configures a single LLM provider. Provider selects the
// driver ("openai" or "ollama"); everything else is passed through opaquely
// to the client constructor.
type ProviderConfig struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	APIKey      string   `json:"api_key,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty"`
	Timeout     Duration `json:"timeout,omitempty"`
}

// EngineConfig holds execution engine settings.
type EngineConfig struct {
	MaxIterations     int `json:"max_iterations"`
	MaxRefineAttempts int `json:"max_refine_attempts"`
}

// SearchConfig configures the web search capability.
type SearchConfig struct {
	MaxResults int      `json:"max_results"`
	Timeout    Duration `json:"timeout,omitempty"`
}

// OutputConfig declares which session output fields must be filled before a
// session counts as complete.
type OutputConfig struct {
	RequiredFields []string `json:"required_fields"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// Duration wraps time.Duration for JSON unmarshaling ("30s", "2m").
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
