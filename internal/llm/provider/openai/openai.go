// Package openai implements provider.ChatCompleter against an
// OpenAI-compatible chat completions endpoint.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/vkazantsev/flowcore/internal/llm/provider"
	"github.com/vkazantsev/flowcore/internal/llm/sse"
)

// Adapter is a provider.ChatCompleter backed by a resty client scoped to
// one base URL and API key.
type Adapter struct {
	client *resty.Client
}

// New builds an Adapter from cfg. The returned Adapter owns its client;
// every call to New creates a new *resty.Client, so adapters never share
// one.
func New(cfg provider.Config) (provider.ChatCompleter, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai: BaseURL is required")
	}
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetTimeout(60 * time.Second)
	return &Adapter{client: client}, nil
}

type chatRequestBody struct {
	Model       string             `json:"model"`
	Messages    []provider.Message `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	MaxTokens   int                `json:"max_tokens,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type chatResponseBody struct {
	Choices []struct {
		Message      provider.Message `json:"message"`
		FinishReason string           `json:"finish_reason"`
	} `json:"choices"`
}

// Complete sends req and decodes a single JSON response body.
func (a *Adapter) Complete(ctx context.Context, req provider.Request) (provider.Response, error) {
	var body chatResponseBody
	resp, err := a.client.R().
		SetContext(ctx).
		SetBody(chatRequestBody{
			Model:       req.Model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		}).
		SetResult(&body).
		Post("/chat/completions")
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: request failed: %w", err)
	}
	if resp.IsError() {
		return provider.Response{}, fmt.Errorf("openai: status %s: %s", resp.Status(), resp.String())
	}
	if len(body.Choices) == 0 {
		return provider.Response{}, fmt.Errorf("openai: response had no choices")
	}
	return provider.Response{
		Content:      body.Choices[0].Message.Content,
		FinishReason: body.Choices[0].FinishReason,
	}, nil
}

// streamChunk is one "data:" line of an OpenAI-style SSE completion
// stream.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// CompleteStream sends req with stream=true and invokes onDelta for every
// token chunk, accumulating the full content to return once the stream
// ends with the sentinel "[DONE]" line.
func (a *Adapter) CompleteStream(ctx context.Context, req provider.Request, onDelta provider.DeltaFunc) (provider.Response, error) {
	var full strings.Builder
	var finishReason string

	resp, err := a.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetBody(chatRequestBody{
			Model:       req.Model,
			Messages:    req.Messages,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
			Stream:      true,
		}).
		Post("/chat/completions")
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: stream request failed: %w", err)
	}
	defer resp.Body.Close()

	err = sse.Read(ctx, resp.Body, func(evt sse.Event) error {
		var chunk streamChunk
		if err := json.Unmarshal([]byte(evt.Data), &chunk); err != nil {
			return fmt.Errorf("openai: decoding stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			return nil
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			full.WriteString(delta)
			if err := onDelta(delta); err != nil {
				return err
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			finishReason = chunk.Choices[0].FinishReason
		}
		return nil
	})
	if err != nil {
		return provider.Response{}, fmt.Errorf("openai: reading stream: %w", err)
	}

	return provider.Response{Content: full.String(), FinishReason: finishReason}, nil
}
