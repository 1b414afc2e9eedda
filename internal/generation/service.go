package generation

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/ygtangsdu/qse-architect/internal/llm"
	"github.com/ygtangsdu/qse-architect/internal/model"
)

// Service implements the workflow Generator port over the unified LLM
// client. One Service may be shared by many sessions; it holds no per-call
// state.
type Service struct {
	Client   *llm.Client
	Provider string
	Model    string

	Temperature *float64
	MaxTokens   *int

	// Retry applies beneath the transport for rate-limit-class errors only;
	// the workflow layer itself never retries. Zero value disables retrying.
	Retry llm.RetryPolicy
	Sleep llm.SleepFunc
}

func (s *Service) ModelLogic(ctx context.Context, problem string) (string, error) {
	prompt := render(modelLogicTmpl, struct{ Problem string }{problem})
	resp, err := s.complete(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (s *Service) SyntheticData(ctx context.Context, modelLogic string) (any, error) {
	prompt := render(syntheticDataTmpl, struct{ ModelLogic string }{modelLogic})
	resp, err := s.complete(ctx, prompt, &llm.ResponseFormat{
		Type:       "json",
		JSONSchema: model.ResultJSONSchema(),
	})
	if err != nil {
		return nil, err
	}
	return ExtractJSON(resp.Text)
}

func (s *Service) Analysis(ctx context.Context, modelLogic string, baseline *model.SimulationResult) (string, error) {
	prompt := render(analysisTmpl, struct {
		ModelLogic string
		ResultJSON string
	}{modelLogic, resultJSON(baseline)})
	resp, err := s.complete(ctx, prompt, nil)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text), nil
}

func (s *Service) Counterfactual(ctx context.Context, baseline *model.SimulationResult, shock string) (any, error) {
	prompt := render(counterfactualTmpl, struct {
		ResultJSON string
		Shock      string
	}{resultJSON(baseline), shock})
	resp, err := s.complete(ctx, prompt, &llm.ResponseFormat{
		Type:       "json",
		JSONSchema: model.ResultJSONSchema(),
	})
	if err != nil {
		return nil, err
	}
	return ExtractJSON(resp.Text)
}

func (s *Service) complete(ctx context.Context, prompt string, format *llm.ResponseFormat) (llm.Response, error) {
	req := llm.Request{
		Provider: s.Provider,
		Model:    s.Model,
		Messages: []llm.Message{
			llm.System(systemPrompt),
			llm.User(prompt),
		},
		Temperature:    s.Temperature,
		MaxTokens:      s.MaxTokens,
		ResponseFormat: format,
	}
	return llm.Retry(ctx, s.Retry, s.Sleep, func() (llm.Response, error) {
		return s.Client.Complete(ctx, req)
	})
}

func resultJSON(res *model.SimulationResult) string {
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
