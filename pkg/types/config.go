// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with API requests
	// (e.g. "answer-engine/0.1"). Page fetches use browser agents instead.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search provider. Empty is a valid,
	// handled state: the orchestrator falls back to model-simulated search.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxPerQuery caps results requested per expanded query (default 10).
	MaxPerQuery int `json:"max_per_query" yaml:"max_per_query"`
}

// FetchConfig holds settings for the content acquisition cascade.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxPDFBytes caps PDF downloads (default 50 MB).
	MaxPDFBytes int64 `json:"max_pdf_bytes" yaml:"max_pdf_bytes"`

	// MaxTextChars caps extracted page text (default 100000).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars"`

	// MinUsableChars is the floor under which a fetch outcome counts as a
	// failure regardless of which strategy produced it (default 50).
	MinUsableChars int `json:"min_usable_chars" yaml:"min_usable_chars"`

	// RendererURL is the headless renderer endpoint. Empty disables the
	// renderer strategy without failing the cascade.
	RendererURL string `json:"renderer_url,omitempty" yaml:"renderer_url,omitempty"`

	// ExtractAPIKey authenticates the third-party extraction fallback.
	// Empty disables that strategy.
	ExtractAPIKey string `json:"extract_api_key,omitempty" yaml:"extract_api_key,omitempty"`
}

// LLMConfig holds settings for the language model backend and cascade.
type LLMConfig struct {
	// APIKey authenticates against the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Models is the ordered cascade of model identifiers. The executor
	// tries each once, in order.
	Models []string `json:"models" yaml:"models"`

	// AttemptTimeout bounds each model attempt (default 180s).
	AttemptTimeout time.Duration `json:"attempt_timeout" yaml:"attempt_timeout"`

	// Temperature is the sampling temperature for generation.
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// MaxOutputTokens caps generated output length.
	MaxOutputTokens int `json:"max_output_tokens" yaml:"max_output_tokens"`
}

// ServerConfig holds settings for the streaming HTTP surface.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// Env selects the logger profile: prod, dev, or local.
	Env string `json:"env" yaml:"env"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search SearchConfig `json:"search" yaml:"search"`
	Fetch  FetchConfig  `json:"fetch" yaml:"fetch"`
	LLM    LLMConfig    `json:"llm" yaml:"llm"`
	Server ServerConfig `json:"server" yaml:"server"`

	// MaxSources is the number of sources a search-driven run tries to
	// ground the answer in (default 5). The orchestrator returns up to
	// twice this many candidates as headroom for acquisition failures.
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// FilterEvidence toggles the factual-content filter pass.
	FilterEvidence bool `json:"filter_evidence" yaml:"filter_evidence"`
}

// DefaultPipelineConfig returns the configuration used when no config file
// or flags override a setting.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Search: SearchConfig{
			HTTPConfig:  HTTPConfig{Timeout: 20 * time.Second, UserAgent: "answer-engine/0.1"},
			MaxPerQuery: 10,
		},
		Fetch: FetchConfig{
			HTTPConfig:     HTTPConfig{Timeout: 30 * time.Second, UserAgent: "answer-engine/0.1"},
			MaxPDFBytes:    50 << 20,
			MaxTextChars:   100_000,
			MinUsableChars: 50,
		},
		LLM: LLMConfig{
			Models:          []string{"gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro"},
			AttemptTimeout:  180 * time.Second,
			Temperature:     0.3,
			MaxOutputTokens: 4096,
		},
		Server:         ServerConfig{Addr: ":8080", Env: "dev"},
		MaxSources:     5,
		FilterEvidence: true,
	}
}
