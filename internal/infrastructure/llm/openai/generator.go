// Package openai drafts training plans with the OpenAI chat completions
// API. Generation failures are converted into an error-string plan rather
// than returned, matching the historical contract; the draft's outcome
// carries the real signal.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

const systemRole = "You are a top-tier personal trainer and program designer."

type Generator struct {
	model       string
	temperature float64
	maxTokens   int
	opts        []option.RequestOption
	limiter     *rate.Limiter
}

type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	RateRPS     float64
	RateBurst   int
}

func NewGenerator(cfg Settings) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing")
	}
	if cfg.Model == "" {
		return nil, errors.New("generation model is required")
	}
	// The SDK's transparent retry would fight the caller-visible failure
	// contract; one attempt, failures become error-string drafts.
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	var limiter *rate.Limiter
	if cfg.RateRPS > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), burst)
	}

	return &Generator{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		opts:        opts,
		limiter:     limiter,
	}, nil
}

// GeneratePlan conditions the draft on the tags, fitness level, goal text
// and expert philosophy. Any failure yields a failed draft whose text is
// "Error generating plan: <message>".
func (g *Generator) GeneratePlan(ctx context.Context, tags []string, fitnessLevel, goals, expertSource string) domain.PlanDraft {
	text, err := g.complete(ctx, buildPlanPrompt(tags, fitnessLevel, goals, expertSource))
	if err != nil {
		slog.Error("plan_generation_failed", "error", err, "expert", expertSource)
		return domain.PlanDraft{
			Text:    fmt.Sprintf("Error generating plan: %s", err),
			Outcome: domain.OutcomeFailed,
			Cause:   err.Error(),
		}
	}
	return domain.PlanDraft{Text: text, Outcome: domain.OutcomeOK}
}

func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	client := openai.NewClient(g.opts...)
	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemRole),
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(g.temperature),
		MaxCompletionTokens: openai.Int(int64(g.maxTokens)),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
