package metrics

import (
	"context"
	"time"

	"github.com/p-blackswan/screencast-studio/internal/llm"
)

// WrapClient decorates an LLM client so every call feeds the call counter
// and latency histogram. When the inner client supports structured
// generation the wrapper keeps that capability visible.
func (m *Metrics) WrapClient(inner llm.Client, provider string) llm.Client {
	base := &instrumentedClient{inner: inner, metrics: m, provider: provider}
	if sg, ok := inner.(llm.StructuredGenerator); ok {
		return &instrumentedStructuredClient{instrumentedClient: base, structured: sg}
	}
	return base
}

type instrumentedClient struct {
	inner    llm.Client
	metrics  *Metrics
	provider string
}

func (c *instrumentedClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts ...llm.Option) (string, error) {
	start := time.Now()
	out, err := c.inner.Generate(ctx, systemPrompt, userPrompt, opts...)
	c.observe(start, err)
	return out, err
}

func (c *instrumentedClient) Chat(ctx context.Context, state llm.ConversationState, message string, opts ...llm.Option) (string, llm.ConversationState, error) {
	start := time.Now()
	out, next, err := c.inner.Chat(ctx, state, message, opts...)
	c.observe(start, err)
	return out, next, err
}

func (c *instrumentedClient) observe(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.RecordLLMCall(c.provider, status)
	c.metrics.ObserveLLMDuration(c.provider, time.Since(start).Seconds())
}

type instrumentedStructuredClient struct {
	*instrumentedClient
	structured llm.StructuredGenerator
}

func (c *instrumentedStructuredClient) GenerateStructured(ctx context.Context, systemPrompt, userPrompt, name string, out any, opts ...llm.Option) error {
	start := time.Now()
	err := c.structured.GenerateStructured(ctx, systemPrompt, userPrompt, name, out, opts...)
	c.observe(start, err)
	return err
}
