package adapter_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/leonardotrapani/voxbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func webm(size int) adapter.Blob {
	return adapter.Blob{Data: make([]byte, size), MimeType: "audio/webm;codecs=opus"}
}

func newAdapter(t *testing.T, id string, srv *testutil.VendorServer, settings config.ProviderSettings) adapter.Adapter {
	t.Helper()
	p, ok := provider.Get(id)
	require.True(t, ok)

	if settings.Token == "" {
		settings.Token = "sk-test"
	}
	opts := []adapter.Option{adapter.WithBaseURL(srv.URL)}
	switch id {
	case provider.ProviderOpenAI:
		return adapter.NewOpenAI(p, settings, opts...)
	case provider.ProviderGroq:
		return adapter.NewGroq(p, settings, opts...)
	}
	t.Fatalf("no adapter for %s", id)
	return nil
}

func TestTranscribeSuccess(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	a := newAdapter(t, provider.ProviderOpenAI, srv, config.ProviderSettings{})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	res := a.Transcribe(ctx, adapter.TranscriptionOptions{File: webm(2 * mb)})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "hello world", res.Text)

	req := srv.Last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/audio/transcriptions", req.Path)
	assert.Equal(t, "Bearer sk-test", req.Authorization)
	assert.Equal(t, "recording.webm", req.FileName)
	assert.EqualValues(t, 2*mb, req.FileSize)
	assert.Equal(t, "whisper-1", req.Fields["model"])
	assert.NotContains(t, req.Fields, "prompt")
	assert.NotContains(t, req.Fields, "response_format")
}

func TestTranscribeUploadsWAVUnderItsOwnName(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	a := newAdapter(t, provider.ProviderGroq, srv, config.ProviderSettings{})

	blob := adapter.Blob{Data: make([]byte, 4096), MimeType: "audio/wav"}
	res := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: blob})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "recording.wav", srv.Last().FileName)
}

func TestTranscribeVendorErrors(t *testing.T) {
	tests := []struct {
		name    string
		respond func(w http.ResponseWriter)
		want    []string
	}{
		{
			name:    "opaque body",
			respond: func(w http.ResponseWriter) { testutil.RespondText(w, http.StatusUnauthorized, "invalid_api_key") },
			want:    []string{"OpenAI API error (401)", "invalid_api_key"},
		},
		{
			name:    "error envelope",
			respond: func(w http.ResponseWriter) { testutil.RespondAPIError(w, http.StatusBadRequest, "model not found") },
			want:    []string{"OpenAI API error (400): model not found"},
		},
		{
			name:    "empty body",
			respond: func(w http.ResponseWriter) { testutil.RespondText(w, http.StatusBadGateway, "") },
			want:    []string{"OpenAI API error (502): Bad Gateway"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := testutil.NewVendorServer(t)
			srv.OnAudio = func(w http.ResponseWriter, _ testutil.VendorRequest) { tc.respond(w) }
			a := newAdapter(t, provider.ProviderOpenAI, srv, config.ProviderSettings{})
			ctx, cancel := testutil.TestContext()
			defer cancel()

			res := a.Transcribe(ctx, adapter.TranscriptionOptions{File: webm(2 * mb)})
			assert.Empty(t, res.Text)
			for _, w := range tc.want {
				assert.Contains(t, res.Error, w)
			}
		})
	}
}

func TestTranscribeTimeout(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	srv.OnAudio = func(w http.ResponseWriter, _ testutil.VendorRequest) {
		time.Sleep(300 * time.Millisecond)
		testutil.RespondJSON(w, http.StatusOK, map[string]any{"text": "late"})
	}
	p, _ := provider.Get(provider.ProviderGroq)
	a := adapter.NewGroq(p, config.ProviderSettings{Token: "gsk"},
		adapter.WithBaseURL(srv.URL), adapter.WithTimeout(50*time.Millisecond))

	res := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024)})
	assert.Empty(t, res.Text)
	assert.Contains(t, res.Error, "Groq request failed")
}

func TestValidationNeverCallsVendor(t *testing.T) {
	long := strings.Repeat("a", 225)

	tests := []struct {
		name     string
		provider string
		settings config.ProviderSettings
		opts     adapter.TranscriptionOptions
		want     string
	}{
		{"openai oversize", provider.ProviderOpenAI, config.ProviderSettings{}, adapter.TranscriptionOptions{File: webm(25*mb + 1)}, "File size exceeds 25MB limit"},
		{"groq oversize", provider.ProviderGroq, config.ProviderSettings{}, adapter.TranscriptionOptions{File: webm(26 * mb)}, "File size exceeds 25MB limit"},
		{"empty file", provider.ProviderOpenAI, config.ProviderSettings{}, adapter.TranscriptionOptions{File: webm(0)}, "Audio file is empty"},
		{"unsupported type", provider.ProviderOpenAI, config.ProviderSettings{}, adapter.TranscriptionOptions{File: adapter.Blob{Data: []byte("x"), MimeType: "audio/aiff"}}, "Unsupported file type: aiff"},
		{"groq unsupported format", provider.ProviderGroq, config.ProviderSettings{Settings: map[string]string{config.SettingResponseFormat: "srt"}}, adapter.TranscriptionOptions{File: webm(1024)}, "Unsupported response format: srt"},
		{"groq translation on turbo", provider.ProviderGroq, config.ProviderSettings{Model: "whisper-large-v3-turbo"}, adapter.TranscriptionOptions{File: webm(1024), Translate: true}, "Translation not supported for model: whisper-large-v3-turbo"},
		{"groq translation on unknown model", provider.ProviderGroq, config.ProviderSettings{Model: "made-up"}, adapter.TranscriptionOptions{File: webm(1024), Translate: true}, "made-up"},
		{"groq prompt too long", provider.ProviderGroq, config.ProviderSettings{}, adapter.TranscriptionOptions{File: webm(1024), Prompt: long}, "Prompt exceeds maximum length of 224 tokens"},
		{"groq stored prompt too long", provider.ProviderGroq, config.ProviderSettings{Settings: map[string]string{config.SettingPrompt: long}}, adapter.TranscriptionOptions{File: webm(1024)}, "Prompt exceeds maximum length of 224 tokens"},
		{"openai prompt too long", provider.ProviderOpenAI, config.ProviderSettings{}, adapter.TranscriptionOptions{File: webm(1024), Prompt: long}, "Prompt exceeds maximum length of 224 tokens"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := testutil.NewVendorServer(t)
			a := newAdapter(t, tc.provider, srv, tc.settings)

			res := a.Transcribe(t.Context(), tc.opts)
			assert.Empty(t, res.Text)
			assert.Contains(t, res.Error, tc.want)
			assert.Zero(t, srv.Calls(), "no request may reach the vendor")
		})
	}
}

func TestPromptAtLimitIsSent(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	a := newAdapter(t, provider.ProviderGroq, srv, config.ProviderSettings{})

	prompt := strings.Repeat("é", 224)
	res := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024), Prompt: prompt})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, prompt, srv.Last().Fields["prompt"])
}

func TestPromptPrecedence(t *testing.T) {
	stored := config.ProviderSettings{Settings: map[string]string{config.SettingPrompt: "stored"}}

	srv := testutil.NewVendorServer(t)
	a := newAdapter(t, provider.ProviderOpenAI, srv, stored)

	a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024)})
	assert.Equal(t, "stored", srv.Last().Fields["prompt"])

	a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024), Prompt: "explicit"})
	assert.Equal(t, "explicit", srv.Last().Fields["prompt"])
}

func TestTranslationEndpoint(t *testing.T) {
	tests := []struct {
		provider string
		model    string
	}{
		{provider.ProviderOpenAI, "whisper-1"},
		{provider.ProviderGroq, "whisper-large-v3"},
	}
	for _, tc := range tests {
		t.Run(tc.provider, func(t *testing.T) {
			srv := testutil.NewVendorServer(t)
			a := newAdapter(t, tc.provider, srv, config.ProviderSettings{})

			res := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024), Translate: true})
			require.False(t, res.Failed(), res.Error)
			assert.Equal(t, "/audio/translations", srv.Last().Path)
			assert.Equal(t, tc.model, srv.Last().Fields["model"])
		})
	}
}

func TestResponseFormatOverride(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	srv.OnAudio = func(w http.ResponseWriter, req testutil.VendorRequest) {
		testutil.RespondText(w, http.StatusOK, "plain text result")
	}
	a := newAdapter(t, provider.ProviderGroq, srv, config.ProviderSettings{
		Settings: map[string]string{config.SettingResponseFormat: "text"},
	})

	res := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024)})
	require.False(t, res.Failed(), res.Error)
	assert.Equal(t, "plain text result", strings.TrimSpace(res.Text))
	assert.Equal(t, "text", srv.Last().Fields["response_format"])
}

func TestDefaultModel(t *testing.T) {
	srv := testutil.NewVendorServer(t)

	openai := newAdapter(t, provider.ProviderOpenAI, srv, config.ProviderSettings{})
	assert.Equal(t, "whisper-1", openai.Model())

	groq := newAdapter(t, provider.ProviderGroq, srv, config.ProviderSettings{})
	assert.Equal(t, "whisper-large-v3", groq.Model())

	explicit := newAdapter(t, provider.ProviderGroq, srv, config.ProviderSettings{Model: "whisper-large-v3-turbo"})
	assert.Equal(t, "whisper-large-v3-turbo", explicit.Model())
}

func TestGroqDefaultModelIgnoresCatalogOrder(t *testing.T) {
	p, _ := provider.Get(provider.ProviderGroq)
	models := p.Models.Transcription
	require.Len(t, models, 3)

	orders := [][]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}
	for _, order := range orders {
		shuffled := p
		shuffled.Models.Transcription = nil
		for _, i := range order {
			shuffled.Models.Transcription = append(shuffled.Models.Transcription, models[i])
		}
		a := adapter.NewGroq(shuffled, config.ProviderSettings{Token: "gsk"})
		assert.Equal(t, "whisper-large-v3", a.Model(), "order %v", order)
	}
}

func TestGroqDefaultModelTieBreak(t *testing.T) {
	p, _ := provider.Get(provider.ProviderGroq)
	p.Models.Transcription = []provider.TranscriptionModel{
		{ID: "slow", ErrorRate: 10, SpeedFactor: 100},
		{ID: "fast", ErrorRate: 10, SpeedFactor: 200},
		{ID: "worse", ErrorRate: 11, SpeedFactor: 900},
	}
	assert.Equal(t, "fast", adapter.NewGroq(p, config.ProviderSettings{Token: "gsk"}).Model())

	p.Models.Transcription = []provider.TranscriptionModel{
		{ID: "first", ErrorRate: 10, SpeedFactor: 100},
		{ID: "second", ErrorRate: 10, SpeedFactor: 100},
	}
	assert.Equal(t, "first", adapter.NewGroq(p, config.ProviderSettings{Token: "gsk"}).Model())

	// the catalog itself is not reordered
	fresh, _ := provider.Get(provider.ProviderGroq)
	assert.Equal(t, "distil-whisper-large-v3-en", fresh.Models.Transcription[0].ID)
}

func TestUnsupportedCapability(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	p, _ := provider.Get(provider.ProviderOpenAI)
	p.Capabilities.TextCompletion = false
	p.Capabilities.Translation = false
	a := adapter.NewOpenAI(p, config.ProviderSettings{Token: "sk"}, adapter.WithBaseURL(srv.URL))

	res := a.CompleteText(t.Context(), adapter.CompletionOptions{UserPrompt: "hi"})
	assert.Equal(t, "OpenAI does not support text completion", res.Error)

	tr := a.Transcribe(t.Context(), adapter.TranscriptionOptions{File: webm(1024), Translate: true})
	assert.Equal(t, "OpenAI does not support translation", tr.Error)

	var errs []string
	a.StreamTextCompletion(t.Context(), adapter.CompletionOptions{UserPrompt: "hi"}, adapter.StreamCallbacks{
		OnError:    func(msg string) { errs = append(errs, msg) },
		OnComplete: func() { t.Error("OnComplete must not be called") },
	})
	assert.Equal(t, []string{"OpenAI does not support text completion"}, errs)
	assert.Zero(t, srv.Calls())
}

func TestBlobExtension(t *testing.T) {
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)

	tests := []struct {
		name string
		blob adapter.Blob
		ext  string
		file string
	}{
		{"webm with codecs", adapter.Blob{MimeType: "audio/webm;codecs=opus"}, "webm", "recording.webm"},
		{"plain wav", adapter.Blob{MimeType: "audio/wav"}, "wav", "recording.wav"},
		{"x-wav alias", adapter.Blob{MimeType: "audio/x-wav"}, "wav", "recording.wav"},
		{"upper case", adapter.Blob{MimeType: "AUDIO/MPEG"}, "mpeg", "recording.mpeg"},
		{"sniffed", adapter.Blob{Data: wav}, "wav", "recording.wav"},
		{"nothing", adapter.Blob{}, "", "recording"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ext, tc.blob.Extension())
			assert.Equal(t, tc.file, tc.blob.FileName())
		})
	}
}
