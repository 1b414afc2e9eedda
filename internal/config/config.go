package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Addr      string `json:"addr" yaml:"addr"`
	StateRoot string `json:"state_root" yaml:"state_root"`
}

type LLMConfig struct {
	Provider  string `json:"provider" yaml:"provider"`
	Model     string `json:"model" yaml:"model"`
	BaseURL   string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`

	// RequestTimeoutMS bounds one generation call via context deadline at
	// the server boundary. 0 means no timeout.
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty" yaml:"request_timeout_ms,omitempty"`

	// MaxRetries applies only to rate-limit-class transport errors. The
	// workflow layer never retries; default 0.
	MaxRetries int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
}

type GenerationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty"`
	MaxOutputTokens int      `json:"max_output_tokens,omitempty" yaml:"max_output_tokens,omitempty"`
}

// File is the qse config file.
type File struct {
	Version    int              `json:"version" yaml:"version"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Generation GenerationConfig `json:"generation,omitempty" yaml:"generation,omitempty"`
}

func Default() *File {
	f := &File{Version: 1}
	f.applyDefaults()
	return f
}

func (f *File) applyDefaults() {
	if strings.TrimSpace(f.Server.Addr) == "" {
		f.Server.Addr = "127.0.0.1:8321"
	}
	if strings.TrimSpace(f.LLM.Provider) == "" {
		f.LLM.Provider = "google"
	}
	if strings.TrimSpace(f.LLM.Model) == "" {
		f.LLM.Model = "gemini-2.0-flash"
	}
	if f.Generation.MaxOutputTokens <= 0 {
		f.Generation.MaxOutputTokens = 8192
	}
}

func (f *File) validate() error {
	if f.Version != 0 && f.Version != 1 {
		return fmt.Errorf("unsupported config version: %d", f.Version)
	}
	if f.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must be >= 0")
	}
	if f.LLM.RequestTimeoutMS < 0 {
		return fmt.Errorf("llm.request_timeout_ms must be >= 0")
	}
	switch strings.ToLower(strings.TrimSpace(f.LLM.Provider)) {
	case "google", "gemini", "openai", "openaicompat":
	default:
		return fmt.Errorf("unknown llm.provider: %q", f.LLM.Provider)
	}
	return nil
}

func Load(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	f.applyDefaults()
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &f, nil
}
