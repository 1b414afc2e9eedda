package llm

import (
	"context"
	"errors"
	"testing"
)

type fakeAdapter struct {
	name     string
	lastReq  Request
	response Response
	err      error
}

func (a *fakeAdapter) Name() string { return a.name }

func (a *fakeAdapter) Complete(ctx context.Context, req Request) (Response, error) {
	a.lastReq = req
	if a.err != nil {
		return Response{}, a.err
	}
	return a.response, nil
}

func TestClient_DefaultProviderRouting(t *testing.T) {
	google := &fakeAdapter{name: "google", response: Response{Provider: "google", Text: "hi"}}
	openai := &fakeAdapter{name: "openai", response: Response{Provider: "openai", Text: "hi"}}

	c := NewClient()
	c.Register(google)
	c.Register(openai)

	// First registered adapter is the default.
	resp, err := c.Complete(context.Background(), Request{
		Model:    "gemini-2.0-flash",
		Messages: []Message{User("ping")},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Provider != "google" {
		t.Fatalf("routed to %q, want google", resp.Provider)
	}

	c.SetDefaultProvider("openai")
	if _, err := c.Complete(context.Background(), Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{User("ping")},
	}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if openai.lastReq.Model != "gpt-4o-mini" {
		t.Fatalf("openai adapter not invoked: %+v", openai.lastReq)
	}
}

func TestClient_ProviderAliases(t *testing.T) {
	google := &fakeAdapter{name: "google"}
	c := NewClient()
	c.Register(google)

	if _, err := c.Complete(context.Background(), Request{
		Provider: "Gemini",
		Model:    "gemini-2.0-flash",
		Messages: []Message{User("ping")},
	}); err != nil {
		t.Fatalf("Complete via alias: %v", err)
	}
	if google.lastReq.Provider != "google" {
		t.Fatalf("provider not normalized: %q", google.lastReq.Provider)
	}
}

func TestClient_UnknownProvider(t *testing.T) {
	c := NewClient()
	c.Register(&fakeAdapter{name: "google"})

	_, err := c.Complete(context.Background(), Request{
		Provider: "anthropic",
		Model:    "m",
		Messages: []Message{User("ping")},
	})
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestClient_NoDefault(t *testing.T) {
	c := NewClient()
	_, err := c.Complete(context.Background(), Request{
		Model:    "m",
		Messages: []Message{User("ping")},
	})
	var cfg *ConfigurationError
	if !errors.As(err, &cfg) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestRequest_Validate(t *testing.T) {
	var cfg *ConfigurationError
	if err := (Request{Messages: []Message{User("x")}}).Validate(); !errors.As(err, &cfg) {
		t.Fatalf("missing model: %v", err)
	}
	if err := (Request{Model: "m"}).Validate(); !errors.As(err, &cfg) {
		t.Fatalf("missing messages: %v", err)
	}
	if err := (Request{Model: "m", Messages: []Message{User("x")}}).Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
}
