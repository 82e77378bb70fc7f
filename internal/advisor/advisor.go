// Package advisor asks a language model to enhance, review and score
// timelines, and falls back to deterministic answers whenever it cannot.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"chronosec/internal/llm"
	"chronosec/internal/logger"
	"chronosec/internal/metrics"
	"chronosec/internal/telemetry"
)

// Completer produces a completion for a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config tunes the advisor.
type Config struct {
	// Model selects the tokenizer used for the prompt budget.
	Model string
	// MaxPromptTokens skips the model call for larger prompts. Zero disables the check.
	MaxPromptTokens int
	// Timeout bounds each model call.
	Timeout time.Duration
}

// Advisor wraps a Completer with prompt construction, parsing and fallbacks.
type Advisor struct {
	llm       Completer
	counter   *llm.TokenCounter
	maxTokens int
	timeout   time.Duration
}

// New returns an advisor over c. A nil c always produces fallbacks.
func New(c Completer, cfg Config) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	return &Advisor{
		llm:       c,
		counter:   llm.NewTokenCounter(cfg.Model),
		maxTokens: cfg.MaxPromptTokens,
		timeout:   cfg.Timeout,
	}
}

const (
	opEnhance    = "enhance"
	opAnalyze    = "analyze"
	opCompliance = "compliance"
)

// errOverBudget marks a prompt that was not sent.
type errOverBudget struct{ tokens, limit int }

func (e errOverBudget) Error() string {
	return fmt.Sprintf("prompt has %d tokens, limit %d", e.tokens, e.limit)
}

// ask sends the prompt and returns the raw completion text.
func (a *Advisor) ask(ctx context.Context, op, system, prompt string) (string, error) {
	if a == nil || a.llm == nil {
		return "", llm.ErrDisabled
	}
	if a.maxTokens > 0 {
		n, err := a.counter.Count(system + "\n" + prompt)
		if err != nil {
			logger.Warnf("advisor %s: count prompt tokens: %v", op, err)
		} else if n > a.maxTokens {
			return "", errOverBudget{tokens: n, limit: a.maxTokens}
		}
	}

	ctx, span := telemetry.Tracer("advisor").Start(ctx, "advisor."+op)
	defer span.End()
	span.SetAttributes(attribute.Int("prompt.bytes", len(prompt)))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.llm.Complete(ctx, system, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return text, nil
}

// record counts the outcome of an operation and logs fallbacks.
func record(op string, err error) {
	result := metrics.ResultOK
	var budget errOverBudget
	switch {
	case err == nil:
	case errors.As(err, &budget):
		result = metrics.ResultSkipped
		logger.Warnf("advisor %s skipped: %v", op, err)
	case errors.Is(err, llm.ErrDisabled):
		result = metrics.ResultFallback
		logger.Debugf("advisor %s: %v", op, err)
	default:
		result = metrics.ResultFallback
		logger.Warnf("advisor %s fell back: %v", op, err)
	}
	metrics.AIRequests.WithLabelValues(op, result).Inc()
}
