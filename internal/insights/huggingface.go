package insights

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	defaultHuggingFaceURL = "https://api-inference.huggingface.co/models/"

	emotionModel       = "SamLowe/roberta-base-go_emotions"
	summarizationModel = "facebook/bart-large-cnn"
	generationModel    = "gpt2"

	maxTopics = 3
)

var (
	fixedSuggestions = []string{
		"Consider expanding on your thoughts",
		"Try writing about related experiences",
		"Reflect on how this connects to your goals",
	}
	fixedPrompts = []string{
		"What emotions came up for you today?",
		"Describe a moment that challenged you",
		"What are you looking forward to?",
	}
)

// HuggingFace combines emotion classification, summarization and text generation
// models from the hosted inference API.
type HuggingFace struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewHuggingFace creates a client. A nil httpClient uses http.DefaultClient;
// deadlines come from the caller's context.
func NewHuggingFace(apiKey, baseURL string, httpClient *http.Client) *HuggingFace {
	if baseURL == "" {
		baseURL = defaultHuggingFaceURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HuggingFace{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient}
}

type inferenceRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

func (h *HuggingFace) Insights(ctx context.Context, content string) (*Insights, error) {
	classified, err := h.infer(ctx, emotionModel, inferenceRequest{Inputs: content})
	if err != nil {
		return nil, fmt.Errorf("failed to get journal insights: %w", err)
	}
	// The API nests results one level deeper for single inputs on some deployments.
	mood := classified.Get("0.0.label").String()
	if mood == "" {
		mood = classified.Get("0.label").String()
	}
	if mood == "" {
		mood = "neutral"
	}

	summary, err := h.infer(ctx, summarizationModel, inferenceRequest{
		Inputs:     content,
		Parameters: map[string]any{"max_length": 100, "min_length": 30},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get journal insights: %w", err)
	}

	out := &Insights{
		Mood:        mood,
		Insights:    splitNonEmpty(summary.Get("0.summary_text").String(), "."),
		Suggestions: append([]string(nil), fixedSuggestions...),
	}
	out.normalize()
	return out, nil
}

func (h *HuggingFace) Recommendations(ctx context.Context, entries []string) (*Recommendations, error) {
	prompt := "Based on these journal entries, suggest writing topics:\n" + strings.Join(entries, " ") + "\nTopics:"
	text, err := h.generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}
	topics := splitNonEmpty(text, "\n")
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	out := &Recommendations{
		Topics:  topics,
		Prompts: append([]string(nil), fixedPrompts...),
	}
	out.normalize()
	return out, nil
}

func (h *HuggingFace) Chat(ctx context.Context, content string) (string, error) {
	text, err := h.generate(ctx, content)
	if err != nil {
		return "", fmt.Errorf("failed to get chat response: %w", err)
	}
	return text, nil
}

func (h *HuggingFace) generate(ctx context.Context, inputs string) (string, error) {
	res, err := h.infer(ctx, generationModel, inferenceRequest{
		Inputs:     inputs,
		Parameters: map[string]any{"max_new_tokens": 100, "return_full_text": false},
	})
	if err != nil {
		return "", err
	}
	return res.Get("0.generated_text").String(), nil
}

func (h *HuggingFace) infer(ctx context.Context, model string, req inferenceRequest) (gjson.Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+model, bytes.NewReader(body))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.httpClient.Do(httpReq)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("read response: %w", err)
	}
	if !gjson.ValidBytes(respBody) {
		return gjson.Result{}, fmt.Errorf("request failed: %s - invalid JSON response", resp.Status)
	}
	result := gjson.ParseBytes(respBody)
	if msg := result.Get("error").String(); msg != "" {
		return gjson.Result{}, fmt.Errorf("%s: %s", model, msg)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gjson.Result{}, fmt.Errorf("request failed: %s - %s", resp.Status, string(respBody))
	}
	return result, nil
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
