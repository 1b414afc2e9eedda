package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ygtangsdu/qse-architect/internal/config"
	"github.com/ygtangsdu/qse-architect/internal/generation"
	"github.com/ygtangsdu/qse-architect/internal/llm"
	"github.com/ygtangsdu/qse-architect/internal/llm/providers/google"
	"github.com/ygtangsdu/qse-architect/internal/llm/providers/openaicompat"
	"github.com/ygtangsdu/qse-architect/internal/server"
)

func serve(args []string) {
	var configPath string
	var addr string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--config requires a value")
				os.Exit(1)
			}
			configPath = args[i]
		case "--addr":
			i++
			if i >= len(args) {
				fmt.Fprintln(os.Stderr, "--addr requires a value")
				os.Exit(1)
			}
			addr = args[i]
		default:
			fmt.Fprintf(os.Stderr, "unknown arg: %s\n", args[i])
			os.Exit(1)
		}
	}

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	svc, err := buildGenerationService(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	srv := server.New(cfg, svc)
	if err := srv.ListenAndServe(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func buildGenerationService(cfg *config.File) (*generation.Service, error) {
	client := llm.NewClient()

	provider := strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	switch provider {
	case "google", "gemini":
		provider = "google"
		key, err := apiKey(cfg, "GEMINI_API_KEY")
		if err != nil {
			return nil, err
		}
		a := google.New(key, cfg.LLM.BaseURL)
		client.Register(a)
	case "openai", "openaicompat":
		key, err := apiKey(cfg, "OPENAI_API_KEY")
		if err != nil {
			return nil, err
		}
		a := openaicompat.New(provider, key, cfg.LLM.BaseURL)
		client.Register(a)
	default:
		return nil, fmt.Errorf("unknown llm.provider: %q", cfg.LLM.Provider)
	}

	svc := &generation.Service{
		Client:   client,
		Provider: provider,
		Model:    cfg.LLM.Model,
		Retry:    llm.DefaultRetryPolicy(),
	}
	svc.Retry.MaxRetries = cfg.LLM.MaxRetries
	if cfg.Generation.Temperature != nil {
		svc.Temperature = cfg.Generation.Temperature
	}
	if cfg.Generation.MaxOutputTokens > 0 {
		n := cfg.Generation.MaxOutputTokens
		svc.MaxTokens = &n
	}
	return svc, nil
}

func apiKey(cfg *config.File, defaultEnv string) (string, error) {
	env := strings.TrimSpace(cfg.LLM.APIKeyEnv)
	if env == "" {
		env = defaultEnv
	}
	key := strings.TrimSpace(os.Getenv(env))
	if key == "" {
		return "", fmt.Errorf("%s is required", env)
	}
	return key, nil
}
