package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

const (
	anthropicAPIBase      = "https://api.anthropic.com/v1"
	anthropicAPIVersion   = "2023-06-01"
	defaultAnthropicModel = "claude-sonnet-4-5"
	defaultMaxTokens      = 4096
)

// Anthropic calls the Anthropic Messages API directly.
type Anthropic struct {
	apiKey   string
	defaults settings
}

// NewAnthropic constructs an Anthropic-backed client.
func NewAnthropic(apiKey string, opts ...Option) *Anthropic {
	s := settings{
		model:      defaultAnthropicModel,
		maxTokens:  defaultMaxTokens,
		baseURL:    anthropicAPIBase,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		logger:     zerolog.Nop(),
	}
	return &Anthropic{apiKey: apiKey, defaults: s.apply(opts)}
}

// ---- Anthropic wire types ----

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate sends a one-shot completion request.
func (a *Anthropic) Generate(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error) {
	s := a.defaults.apply(opts)
	msgs := []anthropicMessage{{Role: RoleUser, Content: userPrompt}}
	return a.complete(ctx, s, systemPrompt, msgs)
}

// Chat sends message on top of the supplied history.
func (a *Anthropic) Chat(ctx context.Context, state ConversationState, message string, opts ...Option) (string, ConversationState, error) {
	s := a.defaults.apply(opts)
	system := s.system
	if system == "" {
		system = DefaultChatSystemPrompt
	}

	msgs := make([]anthropicMessage, 0, len(state.Messages)+1)
	for _, m := range state.Messages {
		msgs = append(msgs, anthropicMessage{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, anthropicMessage{Role: RoleUser, Content: message})

	reply, err := a.complete(ctx, s, system, msgs)
	if err != nil {
		return "", state, err
	}
	return reply, state.With(RoleUser, message).With(RoleAssistant, reply), nil
}

func (a *Anthropic) complete(ctx context.Context, s settings, system string, msgs []anthropicMessage) (string, error) {
	ar := anthropicRequest{
		Model:       s.model,
		MaxTokens:   s.maxTokens,
		System:      system,
		Messages:    msgs,
		Temperature: s.temperature,
	}
	body, err := json.Marshal(ar)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicAPIVersion)

	start := time.Now()
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic http: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", apperr.NewServiceError("anthropic", resp.StatusCode, strings.TrimSpace(string(raw)), nil)
		}
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if parsed.Error != nil {
		return "", apperr.NewServiceError("anthropic", resp.StatusCode, parsed.Error.Message, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apperr.NewServiceError("anthropic", resp.StatusCode, strings.TrimSpace(string(raw)), nil)
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	s.reportUsage(Usage{
		InputTokens:  parsed.Usage.InputTokens,
		OutputTokens: parsed.Usage.OutputTokens,
	})
	s.logger.Debug().
		Str("model", ar.Model).
		Str("stop_reason", parsed.StopReason).
		Int("input_tokens", parsed.Usage.InputTokens).
		Int("output_tokens", parsed.Usage.OutputTokens).
		Dur("elapsed", time.Since(start)).
		Msg("anthropic completion")

	return text.String(), nil
}
