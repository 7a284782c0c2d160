// Package tester exercises a provider adapter end to end and reports which
// capabilities actually work.
package tester

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/events"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/rs/zerolog"
)

// Capabilities reported in Details.Capabilities
const (
	CapabilityTextCompletion = "Text Completion"
	CapabilityStreaming      = "Streaming"
	CapabilityJSONMode       = "JSON Mode"
)

const successMessage = "All provider tests completed successfully"

// Completer is the part of adapter.Adapter the probes need.
type Completer interface {
	Name() string
	CompleteText(ctx context.Context, opts adapter.CompletionOptions) adapter.TextCompletionResult
	StreamTextCompletion(ctx context.Context, opts adapter.CompletionOptions, cb adapter.StreamCallbacks)
}

type TestResult struct {
	Success bool
	Message string
	Details *Details // nil on failure
}

type Details struct {
	LatencyMs    int64
	TokensUsed   int
	Model        string
	Capabilities []string
	StreamedText string
}

// Has reports whether a capability was confirmed.
func (d *Details) Has(capability string) bool {
	if d == nil {
		return false
	}
	for _, c := range d.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

type Tester struct {
	progress events.Broadcaster[string]
	results  events.Broadcaster[TestResult]
	logger   zerolog.Logger
}

func New() *Tester {
	return &Tester{logger: logging.Component("tester")}
}

// OnProgress publishes a human-readable line as each probe starts and ends.
func (t *Tester) OnProgress() *events.Broadcaster[string] { return &t.progress }

// OnResult publishes the final result of every run.
func (t *Tester) OnResult() *events.Broadcaster[TestResult] { return &t.results }

// TestProvider runs the buffered, streaming and JSON probes in order. Only a
// failing buffered probe fails the run. It never panics.
func (t *Tester) TestProvider(ctx context.Context, a Completer) (result TestResult) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Interface("panic", r).Msg("provider test panicked")
			result = t.finish(TestResult{Message: fmt.Sprintf("Provider test failed: %v", r)})
		}
	}()

	t.progress.Publish("Starting provider test...")
	if a == nil {
		return t.finish(TestResult{Message: "Provider test failed: no provider"})
	}
	logger := t.logger.With().Str(logging.FieldProvider, a.Name()).Logger()

	t.progress.Publish("Testing text completion...")
	start := time.Now()
	completion := a.CompleteText(ctx, adapter.CompletionOptions{
		SystemPrompt: "You are a helpful assistant.",
		UserPrompt:   "Explain the importance of fast language models in one sentence.",
		MaxTokens:    100,
	})
	latency := time.Since(start)
	if completion.Failed() {
		return t.finish(TestResult{
			Message: fmt.Sprintf("Provider test failed: Text completion failed: %s", completion.Error),
		})
	}

	details := &Details{
		LatencyMs:    latency.Milliseconds(),
		TokensUsed:   completion.TokensUsed,
		Model:        completion.Model,
		Capabilities: []string{CapabilityTextCompletion},
	}

	t.progress.Publish("Testing streaming capability...")
	var streamed strings.Builder
	chunks := 0
	a.StreamTextCompletion(ctx, adapter.CompletionOptions{
		SystemPrompt: "You are a helpful assistant.",
		UserPrompt:   "Count from 1 to 5.",
		MaxTokens:    50,
	}, adapter.StreamCallbacks{
		OnChunk: func(chunk string) {
			chunks++
			streamed.WriteString(chunk)
			t.progress.Publish("Received streaming chunk: " + chunk)
		},
		OnError: func(msg string) {
			logger.Warn().Str("error", msg).Msg("streaming probe failed")
			t.progress.Publish("Streaming error: " + msg)
		},
		OnComplete: func() {
			t.progress.Publish("Streaming test completed")
		},
	})
	if chunks > 0 {
		details.Capabilities = append(details.Capabilities, CapabilityStreaming)
		details.StreamedText = streamed.String()
	}

	t.progress.Publish("Testing JSON mode...")
	jsonResult := a.CompleteText(ctx, adapter.CompletionOptions{
		SystemPrompt: "You are a JSON generator.",
		UserPrompt:   `Generate a JSON object with a "test" field containing "success".`,
		JSONMode:     adapter.JSON(true),
	})
	if !jsonResult.Failed() &&
		strings.Contains(jsonResult.Text, `"test"`) &&
		strings.Contains(jsonResult.Text, `"success"`) {
		details.Capabilities = append(details.Capabilities, CapabilityJSONMode)
	}
	details.TokensUsed += jsonResult.TokensUsed

	logger.Info().
		Int64("latency_ms", details.LatencyMs).
		Strs("capabilities", details.Capabilities).
		Msg("provider test completed")

	return t.finish(TestResult{Success: true, Message: successMessage, Details: details})
}

func (t *Tester) finish(r TestResult) TestResult {
	if !r.Success {
		t.logger.Warn().Str("message", r.Message).Msg("provider test failed")
	}
	t.results.Publish(r)
	return r
}
