// Package insights forwards journal text to a hosted model and reshapes the
// answer into fixed response contracts.
package insights

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type Insights struct {
	Mood        string   `json:"mood"`
	Insights    []string `json:"insights"`
	Suggestions []string `json:"suggestions"`
}

type Recommendations struct {
	Topics  []string `json:"topics"`
	Prompts []string `json:"prompts"`
}

// Gateway is implemented by every model backend.
type Gateway interface {
	Insights(ctx context.Context, content string) (*Insights, error)
	Recommendations(ctx context.Context, entries []string) (*Recommendations, error)
	Chat(ctx context.Context, content string) (string, error)
}

const (
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
)

type Config struct {
	Provider string
	Timeout  time.Duration

	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	HuggingFaceAPIKey  string
	HuggingFaceBaseURL string
}

// New builds the backend named by cfg.Provider, wrapped with a timeout and instrumentation.
func New(cfg Config, logger *zap.Logger) (Gateway, error) {
	var backend Gateway
	switch cfg.Provider {
	case ProviderOpenAI:
		backend = NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	case ProviderHuggingFace:
		backend = NewHuggingFace(cfg.HuggingFaceAPIKey, cfg.HuggingFaceBaseURL, nil)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
	return NewGuard(backend, cfg.Provider, cfg.Timeout, logger), nil
}

func (i *Insights) normalize() {
	if i.Insights == nil {
		i.Insights = []string{}
	}
	if i.Suggestions == nil {
		i.Suggestions = []string{}
	}
}

func (r *Recommendations) normalize() {
	if r.Topics == nil {
		r.Topics = []string{}
	}
	if r.Prompts == nil {
		r.Prompts = []string{}
	}
}
