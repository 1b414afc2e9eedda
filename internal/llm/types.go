package llm

import "strings"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a completion request. This client carries text
// only; the generation workloads here never use tools or media.
type Message struct {
	Role Role
	Text string
}

func System(text string) Message    { return Message{Role: RoleSystem, Text: text} }
func User(text string) Message      { return Message{Role: RoleUser, Text: text} }
func Assistant(text string) Message { return Message{Role: RoleAssistant, Text: text} }

// ResponseFormat requests plain text or a JSON document from the provider.
// JSONSchema, when set with Type "json", is passed to providers that accept
// a response schema; others ignore it.
type ResponseFormat struct {
	Type       string // "text" or "json"
	JSONSchema map[string]any
}

type Request struct {
	Provider       string
	Model          string
	Messages       []Message
	Temperature    *float64
	TopP           *float64
	MaxTokens      *int
	StopSequences  []string
	ResponseFormat *ResponseFormat
}

func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return &ConfigurationError{Message: "model is required"}
	}
	if len(r.Messages) == 0 {
		return &ConfigurationError{Message: "at least one message is required"}
	}
	return nil
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

type Response struct {
	Provider     string
	Model        string
	Text         string
	FinishReason string
	Usage        Usage
	Raw          map[string]any
}
