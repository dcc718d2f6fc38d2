package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIModel = "gpt-4o"

	insightsPrompt = "You are an empathetic journal assistant. Analyze the journal entry and provide insights, " +
		"suggestions, and mood analysis. Return the response in JSON format with the following structure: " +
		"{ mood: string, insights: string[], suggestions: string[] }"
	recommendationsPrompt = "Based on the user's previous journal entries, suggest topics or prompts for their " +
		"next entry. Return response as JSON with format: { topics: string[], prompts: string[] }"
	chatPrompt = "You are an empathetic journal assistant. Reply briefly and kindly to the user's journal thoughts."
)

var errEmptyCompletion = errors.New("empty completion")

// OpenAI answers with chat completions in JSON mode.
type OpenAI struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model}
}

func (o *OpenAI) Insights(ctx context.Context, content string) (*Insights, error) {
	var out Insights
	if err := o.completeJSON(ctx, insightsPrompt, content, &out); err != nil {
		return nil, fmt.Errorf("failed to get journal insights: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (o *OpenAI) Recommendations(ctx context.Context, entries []string) (*Recommendations, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}
	var out Recommendations
	if err := o.completeJSON(ctx, recommendationsPrompt, string(payload), &out); err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}
	out.normalize()
	return &out, nil
}

func (o *OpenAI) Chat(ctx context.Context, content string) (string, error) {
	text, err := o.complete(ctx, chatPrompt, content, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get chat response: %w", err)
	}
	return text, nil
}

func (o *OpenAI) completeJSON(ctx context.Context, system, user string, out any) error {
	text, err := o.complete(ctx, system, user, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("decode completion: %w", err)
	}
	return nil
}

func (o *OpenAI) complete(ctx context.Context, system, user string, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		ResponseFormat: format,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
