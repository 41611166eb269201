package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/screencast-studio/internal/apperr"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI adapts the official SDK to the Client interface. Unlike the
// Anthropic provider it can also enforce JSON schemas on completions,
// which the quality checks use for their verdicts.
type OpenAI struct {
	client   openai.Client
	defaults settings
}

// NewOpenAI constructs an OpenAI-backed client.
func NewOpenAI(apiKey string, opts ...Option) *OpenAI {
	s := settings{
		model:     defaultOpenAIModel,
		maxTokens: defaultMaxTokens,
		logger:    zerolog.Nop(),
	}
	s = s.apply(opts)

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if s.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(s.baseURL))
	}
	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}
	return &OpenAI{client: openai.NewClient(reqOpts...), defaults: s}
}

// Generate sends a one-shot completion request.
func (o *OpenAI) Generate(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error) {
	s := o.defaults.apply(opts)
	msgs := buildOpenAIMessages(systemPrompt, nil, userPrompt)
	return o.complete(ctx, s, msgs, nil)
}

// Chat sends message on top of the supplied history.
func (o *OpenAI) Chat(ctx context.Context, state ConversationState, message string, opts ...Option) (string, ConversationState, error) {
	s := o.defaults.apply(opts)
	system := s.system
	if system == "" {
		system = DefaultChatSystemPrompt
	}

	msgs := buildOpenAIMessages(system, state.Messages, message)
	reply, err := o.complete(ctx, s, msgs, nil)
	if err != nil {
		return "", state, err
	}
	return reply, state.With(RoleUser, message).With(RoleAssistant, reply), nil
}

// GenerateStructured constrains the completion to the JSON schema
// reflected from out and decodes the response into it.
func (o *OpenAI) GenerateStructured(ctx context.Context, systemPrompt, userPrompt, name string, out any, opts ...Option) error {
	s := o.defaults.apply(opts)

	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(out)

	format := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
			JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   name,
				Schema: schema,
				Strict: openai.Bool(true),
			},
		},
	}

	msgs := buildOpenAIMessages(systemPrompt, nil, userPrompt)
	raw, err := o.complete(ctx, s, msgs, &format)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("parse structured response: %w", err)
	}
	return nil
}

func buildOpenAIMessages(system string, history []Message, user string) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	for _, m := range history {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(user))
	return msgs
}

func (o *OpenAI) complete(ctx context.Context, s settings, msgs []openai.ChatCompletionMessageParamUnion, format *openai.ChatCompletionNewParamsResponseFormatUnion) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            msgs,
		Model:               openai.ChatModel(s.model),
		MaxCompletionTokens: openai.Int(int64(s.maxTokens)),
	}
	if s.temperature != nil {
		params.Temperature = openai.Float(*s.temperature)
	}
	if format != nil {
		params.ResponseFormat = *format
	}

	start := time.Now()
	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		status := 0
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", apperr.NewServiceError("openai", status, "chat completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return "", apperr.NewServiceError("openai", 0, "no choices in response", nil)
	}

	s.reportUsage(Usage{
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	})
	s.logger.Debug().
		Str("model", s.model).
		Str("finish_reason", string(completion.Choices[0].FinishReason)).
		Int64("prompt_tokens", completion.Usage.PromptTokens).
		Int64("completion_tokens", completion.Usage.CompletionTokens).
		Dur("elapsed", time.Since(start)).
		Msg("openai completion")

	return completion.Choices[0].Message.Content, nil
}
