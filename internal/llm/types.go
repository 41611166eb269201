// Package llm defines the language model collaborator used for script
// generation, quality checks, and the production assistant chat.
// Providers are interchangeable behind the Client interface.
package llm

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"
)

// Role constants for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultChatSystemPrompt steers the assistant when a chat caller does
// not supply its own system prompt.
const DefaultChatSystemPrompt = "You are a helpful screencast production assistant."

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationState is a caller-owned chat history. It is threaded
// through Chat calls explicitly; providers never hold history themselves,
// so the same client can serve any number of concurrent conversations.
type ConversationState struct {
	Messages []Message `json:"messages"`
}

// With returns a copy of the state extended by one message. The receiver
// is left untouched.
func (s ConversationState) With(role, content string) ConversationState {
	msgs := make([]Message, len(s.Messages), len(s.Messages)+1)
	copy(msgs, s.Messages)
	return ConversationState{Messages: append(msgs, Message{Role: role, Content: content})}
}

// Usage reports token consumption for one completed call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Client is the two-method LLM collaborator.
type Client interface {
	// Generate is a one-shot completion with no conversation history.
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error)

	// Chat sends message on top of the supplied history and returns the
	// reply plus the state extended with both new turns. On error the
	// input state is returned unchanged.
	Chat(ctx context.Context, state ConversationState, message string, opts ...Option) (string, ConversationState, error)
}

// StructuredGenerator is implemented by providers that can constrain a
// completion to a JSON schema and decode the result into out.
type StructuredGenerator interface {
	GenerateStructured(ctx context.Context, systemPrompt, userPrompt, name string, out any, opts ...Option) error
}

// settings collects provider defaults. The same options apply at
// construction time and per call; a call-site option overrides the
// provider default for that call only.
type settings struct {
	model       string
	maxTokens   int
	temperature *float64
	system      string
	baseURL     string
	httpClient  *http.Client
	logger      zerolog.Logger
	usageFn     func(Usage)
}

// Option configures a provider or a single call.
type Option func(*settings)

func WithModel(model string) Option {
	return func(s *settings) {
		if model != "" {
			s.model = model
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(s *settings) { s.temperature = &t }
}

// WithSystemPrompt sets the system prompt for Chat calls. Generate takes
// its system prompt as an argument and ignores this option.
func WithSystemPrompt(prompt string) Option {
	return func(s *settings) { s.system = prompt }
}

func WithBaseURL(url string) Option {
	return func(s *settings) {
		if url != "" {
			s.baseURL = url
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		if c != nil {
			s.httpClient = c
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithUsageFunc registers a callback invoked with token usage after each
// successful call. Metrics hang off this.
func WithUsageFunc(fn func(Usage)) Option {
	return func(s *settings) { s.usageFn = fn }
}

func (s settings) apply(opts []Option) settings {
	for _, o := range opts {
		o(&s)
	}
	return s
}

func (s settings) reportUsage(u Usage) {
	if s.usageFn != nil {
		s.usageFn(u)
	}
}
