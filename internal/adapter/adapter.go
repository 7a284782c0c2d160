// Package adapter turns a catalog entry plus per-user settings into calls
// against a vendor's OpenAI-compatible HTTP API.
//
// Adapters never return Go errors: validation, capability and vendor
// failures all come back as a result value with a non-empty Error field so
// callers can branch on it without unwinding.
package adapter

import (
	"context"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

const (
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 1024

	// JSONTemperature is forced when a Groq completion infers JSON mode from its prompts.
	JSONTemperature float32 = 0.1

	// UploadName is the base name of the uploaded audio file
	UploadName = "recording"
)

// Adapter is the uniform contract over every vendor.
type Adapter interface {
	Name() string
	Provider() provider.ApiProvider
	// Model is the resolved transcription model.
	Model() string
	Transcribe(ctx context.Context, opts TranscriptionOptions) TranscriptionResult
	CompleteText(ctx context.Context, opts CompletionOptions) TextCompletionResult
	// StreamTextCompletion blocks until the stream ends and invokes exactly
	// one of OnError or OnComplete.
	StreamTextCompletion(ctx context.Context, opts CompletionOptions, cb StreamCallbacks)
}

// Blob is an encoded audio recording.
type Blob struct {
	Data     []byte
	MimeType string // e.g., "audio/webm;codecs=opus"; sniffed when empty
}

func (b Blob) Size() int64 {
	return int64(len(b.Data))
}

var extensionAliases = map[string]string{
	"x-wav":    "wav",
	"wave":     "wav",
	"vnd.wave": "wav",
	"x-flac":   "flac",
	"x-m4a":    "m4a",
	"x-mpeg":   "mpeg",
}

// Extension derives the file extension from the MIME subtype with any
// parameters stripped: "audio/webm;codecs=opus" -> "webm".
func (b Blob) Extension() string {
	if b.MimeType == "" {
		if len(b.Data) == 0 {
			return ""
		}
		return strings.TrimPrefix(mimetype.Detect(b.Data).Extension(), ".")
	}

	mediaType, _, err := mime.ParseMediaType(b.MimeType)
	if err != nil {
		mediaType, _, _ = strings.Cut(b.MimeType, ";")
	}
	_, subtype, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mediaType)), "/")
	if alias, ok := extensionAliases[subtype]; ok {
		return alias
	}
	return subtype
}

// FileName is the multipart file name sent to the vendor.
func (b Blob) FileName() string {
	ext := b.Extension()
	if ext == "" {
		return UploadName
	}
	return UploadName + "." + ext
}

type TranscriptionOptions struct {
	File      Blob
	Prompt    string // overrides the stored prompt setting when non-empty
	Translate bool
}

type TranscriptionResult struct {
	Text  string
	Error string
}

// Failed reports whether the result carries an error.
func (r TranscriptionResult) Failed() bool {
	return r.Error != ""
}

type CompletionOptions struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int    // DefaultMaxTokens when zero
	Model        string // completion model override
	// JSONMode requests a JSON object response. When nil, adapters may infer it.
	JSONMode *bool
	// Stream must be false for CompleteText; StreamTextCompletion forces it.
	Stream bool
}

// JSON is a helper for CompletionOptions.JSONMode.
func JSON(enabled bool) *bool {
	return &enabled
}

type TextCompletionResult struct {
	Text       string
	Error      string
	Model      string
	TokensUsed int
}

func (r TextCompletionResult) Failed() bool {
	return r.Error != ""
}

type StreamCallbacks struct {
	OnChunk    func(text string)
	OnError    func(message string)
	OnComplete func()
}

// Option configures adapter construction.
type Option func(*options)

type options struct {
	httpClient *http.Client
	timeout    time.Duration
	baseURL    string
}

func newOptions(opts []Option) options {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: o.timeout}
	}
	return o
}

// WithHTTPClient replaces the HTTP client; its own Timeout applies.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithTimeout bounds every vendor request. Ignored with WithHTTPClient.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBaseURL points the adapter at another OpenAI-compatible server.
func WithBaseURL(url string) Option {
	return func(o *options) { o.baseURL = strings.TrimRight(url, "/") }
}
