/*-------------------------------------------------------------------------
 *
 * client.go
 *    LLM chat client for NeuronChat
 *
 * Wraps an OpenAI-compatible chat completion API (Groq by default) in a
 * synchronous request/response interface.
 *
 * Copyright (c) 2024-2026, neurondb, Inc. <admin@neurondb.com>
 *
 * IDENTIFICATION
 *    NeuronChat/internal/llm/client.go
 *
 *-------------------------------------------------------------------------
 */

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/neurondb/NeuronChat/internal/config"
	"github.com/neurondb/NeuronChat/internal/metrics"
)

/* Chat roles used across the agent pipeline */
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

/* Message is a (role, content) pair for building the messages array */
type Message struct {
	Role    string
	Content string
}

type Response struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

/* NewClient creates a chat client against an OpenAI-compatible endpoint */
func NewClient(cfg *config.LLMConfig) *Client {
	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:         openai.NewClientWithConfig(apiConfig),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

/* Chat sends a conversation and returns the assistant's reply */
func (c *Client) Chat(ctx context.Context, messages []Message) (*Response, error) {
	apiMessages := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		apiMessages = append(apiMessages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    apiMessages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		metrics.RecordLLMCall(c.model, "error", 0, 0)
		return nil, fmt.Errorf("chat completion failed: model=%s, error=%w", c.model, err)
	}

	var text string
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	metrics.RecordLLMCall(c.model, "ok", resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return &Response{
		Text:             text,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

/* Model returns the configured model name */
func (c *Client) Model() string {
	return c.model
}
