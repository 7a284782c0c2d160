package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// base holds everything the vendor adapters share. Vendors differ only in
// their default-model policy and in how JSON mode is decided.
type base struct {
	provider provider.ApiProvider
	settings config.ProviderSettings
	client   *openai.Client
	model    string
	logger   zerolog.Logger

	// jsonMode decides whether a completion asks for a JSON object and
	// whether the temperature is pinned.
	jsonMode func(CompletionOptions) (enabled, pinTemperature bool)
}

func newBase(p provider.ApiProvider, settings config.ProviderSettings, defaultModel func([]provider.TranscriptionModel) string, opts []Option) *base {
	o := newOptions(opts)

	clientConfig := openai.DefaultConfig(settings.Token)
	clientConfig.BaseURL = p.Endpoints.BaseURL
	if o.baseURL != "" {
		clientConfig.BaseURL = o.baseURL
	}
	clientConfig.HTTPClient = o.httpClient

	model := settings.Model
	if model == "" && len(p.Models.Transcription) > 0 {
		model = defaultModel(p.Models.Transcription)
	}

	return &base{
		provider: p,
		settings: settings,
		client:   openai.NewClientWithConfig(clientConfig),
		model:    model,
		logger:   logging.Component("adapter").With().Str(logging.FieldProvider, p.ID).Logger(),
		jsonMode: explicitJSONMode,
	}
}

func (b *base) Name() string {
	return b.provider.Name
}

func (b *base) Provider() provider.ApiProvider {
	return b.provider
}

func (b *base) Model() string {
	return b.model
}

// firstModel is the plain default: the first model in catalog order.
func firstModel(models []provider.TranscriptionModel) string {
	return models[0].ID
}

func (b *base) unsupported(capability provider.Capability) string {
	return fmt.Sprintf("%s does not support %s", b.provider.Name, capability)
}

// validateAudio checks the blob against the catalog limits and returns the
// file extension, or a user-facing message.
func (b *base) validateAudio(file Blob) (string, string) {
	limits := b.provider.Limitations
	if file.Size() == 0 {
		return "", "Audio file is empty"
	}
	if limits.MaxFileSize > 0 && file.Size() > limits.MaxFileSize {
		return "", fmt.Sprintf("File size exceeds %dMB limit", limits.MaxFileSize/(1024*1024))
	}

	ext := file.Extension()
	if !slices.Contains(limits.SupportedFileTypes, ext) {
		return "", fmt.Sprintf("Unsupported file type: %s. Supported types: %s",
			ext, strings.Join(limits.SupportedFileTypes, ", "))
	}
	return ext, ""
}

func (b *base) responseFormat() (string, string) {
	format := b.settings.Setting(config.SettingResponseFormat)
	if format == "" {
		return "", ""
	}
	if !slices.Contains(b.provider.Limitations.SupportedResponseFormats, format) {
		return "", fmt.Sprintf("Unsupported response format: %s. Supported formats: %s",
			format, strings.Join(b.provider.Limitations.SupportedResponseFormats, ", "))
	}
	return format, ""
}

// prompt applies call-time precedence over the stored prompt and enforces
// the provider's length guideline.
func (b *base) prompt(explicit string) (string, string) {
	p := explicit
	if p == "" {
		p = b.settings.Setting(config.SettingPrompt)
	}
	limit := b.provider.PromptGuidelines.MaxTokens
	if limit > 0 && len([]rune(p)) > limit {
		return "", fmt.Sprintf("Prompt exceeds maximum length of %d tokens", limit)
	}
	return p, ""
}

func (b *base) Transcribe(ctx context.Context, opts TranscriptionOptions) TranscriptionResult {
	if !b.provider.Capabilities.Transcription || b.provider.Endpoints.Transcription == "" {
		return TranscriptionResult{Error: b.unsupported(provider.CapabilityTranscription)}
	}

	if _, msg := b.validateAudio(opts.File); msg != "" {
		return TranscriptionResult{Error: msg}
	}
	format, msg := b.responseFormat()
	if msg != "" {
		return TranscriptionResult{Error: msg}
	}
	if opts.Translate {
		if !b.provider.Capabilities.Translation || b.provider.Endpoints.Translation == "" {
			return TranscriptionResult{Error: b.unsupported(provider.CapabilityTranslation)}
		}
		if !b.provider.SupportsTranslation(b.model) {
			return TranscriptionResult{Error: fmt.Sprintf("Translation not supported for model: %s", b.model)}
		}
	}
	prompt, msg := b.prompt(opts.Prompt)
	if msg != "" {
		return TranscriptionResult{Error: msg}
	}

	req := openai.AudioRequest{
		Model:    b.model,
		FilePath: opts.File.FileName(),
		Reader:   bytes.NewReader(opts.File.Data),
		Prompt:   prompt,
		Format:   openai.AudioResponseFormat(format),
	}

	call, op := b.client.CreateTranscription, "transcription"
	if opts.Translate {
		call, op = b.client.CreateTranslation, "translation"
	}

	start := time.Now()
	resp, err := call(ctx, req)
	if err != nil {
		return TranscriptionResult{Error: b.apiErrorMessage(op, err)}
	}

	b.logger.Debug().
		Str("op", op).
		Str("model", b.model).
		Int("bytes", len(opts.File.Data)).
		Dur("took", time.Since(start)).
		Msg("request completed")
	return TranscriptionResult{Text: resp.Text}
}

func (b *base) completionModel(opts CompletionOptions) string {
	if opts.Model != "" {
		return opts.Model
	}
	if m := b.settings.Setting(config.SettingCompletionModel); m != "" {
		return m
	}
	if b.provider.Models.DefaultCompletion != "" {
		return b.provider.Models.DefaultCompletion
	}
	if len(b.provider.Models.TextCompletion) > 0 {
		return b.provider.Models.TextCompletion[0].ID
	}
	return ""
}

// checkCompletion runs the preconditions shared by both completion entrypoints.
func (b *base) checkCompletion() string {
	if !b.provider.Capabilities.TextCompletion || b.provider.Endpoints.TextCompletion == "" {
		return b.unsupported(provider.CapabilityTextCompletion)
	}
	return ""
}

func (b *base) chatRequest(opts CompletionOptions) openai.ChatCompletionRequest {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	var messages []openai.ChatCompletionMessage
	if opts.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: opts.SystemPrompt})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: opts.UserPrompt})

	req := openai.ChatCompletionRequest{
		Model:     b.completionModel(opts),
		Messages:  messages,
		MaxTokens: maxTokens,
		Stream:    opts.Stream,
	}

	if enabled, pin := b.jsonMode(opts); enabled {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
		if pin {
			req.Temperature = JSONTemperature
		}
	}
	return req
}

func (b *base) CompleteText(ctx context.Context, opts CompletionOptions) TextCompletionResult {
	if msg := b.checkCompletion(); msg != "" {
		return TextCompletionResult{Error: msg}
	}
	if opts.Stream {
		return TextCompletionResult{Error: "Streaming is not supported by CompleteText, use StreamTextCompletion"}
	}

	req := b.chatRequest(opts)
	start := time.Now()
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return TextCompletionResult{Error: b.apiErrorMessage("completion", err), Model: req.Model}
	}
	if len(resp.Choices) == 0 {
		return TextCompletionResult{Error: fmt.Sprintf("%s returned no completion choices", b.provider.Name), Model: req.Model}
	}

	model := resp.Model
	if model == "" {
		model = req.Model
	}
	b.logger.Debug().
		Str("op", "completion").
		Str("model", model).
		Int("tokens", resp.Usage.TotalTokens).
		Dur("took", time.Since(start)).
		Msg("request completed")

	return TextCompletionResult{
		Text:       resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: resp.Usage.TotalTokens,
	}
}

// terminal guards the single OnError/OnComplete call of a stream.
type terminal struct {
	once sync.Once
	cb   StreamCallbacks
}

func (t *terminal) fail(msg string) {
	t.once.Do(func() {
		if t.cb.OnError != nil {
			t.cb.OnError(msg)
		}
	})
}

func (t *terminal) complete() {
	t.once.Do(func() {
		if t.cb.OnComplete != nil {
			t.cb.OnComplete()
		}
	})
}

func (b *base) StreamTextCompletion(ctx context.Context, opts CompletionOptions, cb StreamCallbacks) {
	done := &terminal{cb: cb}

	if msg := b.checkCompletion(); msg != "" {
		done.fail(msg)
		return
	}

	opts.Stream = true
	req := b.chatRequest(opts)
	stream, err := b.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		done.fail(b.apiErrorMessage("stream", err))
		return
	}
	defer stream.Close()

	chunks := 0
	// Recv reports io.EOF both for [DONE] and for a dropped connection, so
	// only a chunk carrying a finish reason makes the stream complete.
	finished := false
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			done.fail(b.apiErrorMessage("stream", err))
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		if text := resp.Choices[0].Delta.Content; text != "" {
			chunks++
			if cb.OnChunk != nil {
				cb.OnChunk(text)
			}
		}
		if resp.Choices[0].FinishReason != "" {
			finished = true
		}
	}

	if !finished {
		b.logger.Warn().Str("op", "stream").Str("model", req.Model).Int("chunks", chunks).Msg("stream ended without finish reason")
		done.fail(fmt.Sprintf("%s stream ended unexpectedly", b.Name()))
		return
	}

	b.logger.Debug().Str("op", "stream").Str("model", req.Model).Int("chunks", chunks).Msg("stream completed")
	done.complete()
}
