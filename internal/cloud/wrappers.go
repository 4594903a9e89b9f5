// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This file wraps the language-model backends behind TextGenerator. Both
// wrappers add a token-bucket rate limiter so the application stays within
// the provider's quota.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// ErrEmptyResponse is returned when a model answers without any text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// Generation is a single model answer with its token usage.
type Generation struct {
	Text         string
	InputTokens  int64
	OutputTokens int64
}

// TextGenerator produces a text answer for a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (*Generation, error)
}

func newLimiter(requestsPerSecond int) *rate.Limiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return rate.NewLimiter(rate.Every(time.Second/time.Duration(requestsPerSecond)), requestsPerSecond)
}

// QuotaAwareGenerativeAIModel is a rate limited Gemini model on Vertex AI.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               *rate.Limiter
}

// NewQuotaAwareModel wraps a model handle with a limiter allowing
// requestsPerSecond calls per second.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               newLimiter(requestsPerSecond),
	}
}

// GenerateContent waits for the limiter and then calls the model.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	return q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
}

// GenerateText implements TextGenerator.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (*Generation, error) {
	resp, err := q.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, ErrEmptyResponse
	}
	out := &Generation{Text: sb.String()}
	if resp.UsageMetadata != nil {
		out.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// NewGenerateContentConfig builds the Gemini request configuration for a
// model entry, asking for JSON that matches schema when one is given.
func NewGenerateContentConfig(model AgentModel, schema *genai.Schema) *genai.GenerateContentConfig {
	conf := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(model.Temperature),
		TopP:             genai.Ptr(model.TopP),
		TopK:             genai.Ptr(model.TopK),
		MaxOutputTokens:  model.MaxTokens,
		SafetySettings:   DefaultSafetySettings,
		ResponseMIMEType: model.OutputFormat,
	}
	if model.SystemInstructions != "" {
		conf.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: model.SystemInstructions}}}
	}
	if schema != nil {
		conf.ResponseMIMEType = "application/json"
		conf.ResponseSchema = schema
	}
	return conf
}

// OpenAICompatibleModel talks to any server implementing the OpenAI chat
// completions API, such as OpenAI itself, Ollama or vLLM.
type OpenAICompatibleModel struct {
	Client             *openai.Client
	ModelName          string
	SystemInstructions string
	Temperature        float32
	TopP               float32
	MaxTokens          int
	ResponseSchema     json.RawMessage
	RateLimit          *rate.Limiter
}

// NewOpenAICompatibleModel builds a client from the model entry. The API key
// is read from the environment variable named by APIKeyEnv.
func NewOpenAICompatibleModel(model AgentModel, schema json.RawMessage) *OpenAICompatibleModel {
	apiKey := ""
	if model.APIKeyEnv != "" {
		apiKey = os.Getenv(model.APIKeyEnv)
	}
	clientConfig := openai.DefaultConfig(apiKey)
	if model.BaseURL != "" {
		clientConfig.BaseURL = model.BaseURL
	}
	return &OpenAICompatibleModel{
		Client:             openai.NewClientWithConfig(clientConfig),
		ModelName:          model.Model,
		SystemInstructions: model.SystemInstructions,
		Temperature:        model.Temperature,
		TopP:               model.TopP,
		MaxTokens:          int(model.MaxTokens),
		ResponseSchema:     schema,
		RateLimit:          newLimiter(model.RateLimit),
	}
}

// GenerateText implements TextGenerator.
func (o *OpenAICompatibleModel) GenerateText(ctx context.Context, prompt string) (*Generation, error) {
	if err := o.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if o.SystemInstructions != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: o.SystemInstructions})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:       o.ModelName,
		Messages:    messages,
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
		TopP:        o.TopP,
	}
	if len(o.ResponseSchema) > 0 {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "call_analysis",
				Schema: o.ResponseSchema,
			},
		}
	}

	resp, err := o.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ErrEmptyResponse
	}
	return &Generation{
		Text:         resp.Choices[0].Message.Content,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}
