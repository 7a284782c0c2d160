package tester_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/events"
	"github.com/leonardotrapani/voxbridge/internal/tester"
	"github.com/leonardotrapani/voxbridge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	complete func(opts adapter.CompletionOptions) adapter.TextCompletionResult
	stream   func(opts adapter.CompletionOptions, cb adapter.StreamCallbacks)
	calls    []adapter.CompletionOptions
}

func (f *fakeCompleter) Name() string { return "Fake" }

func (f *fakeCompleter) CompleteText(_ context.Context, opts adapter.CompletionOptions) adapter.TextCompletionResult {
	f.calls = append(f.calls, opts)
	return f.complete(opts)
}

func (f *fakeCompleter) StreamTextCompletion(_ context.Context, opts adapter.CompletionOptions, cb adapter.StreamCallbacks) {
	f.calls = append(f.calls, opts)
	f.stream(opts, cb)
}

func healthy() *fakeCompleter {
	return &fakeCompleter{
		complete: func(opts adapter.CompletionOptions) adapter.TextCompletionResult {
			if opts.JSONMode != nil && *opts.JSONMode {
				return adapter.TextCompletionResult{Text: `{"test": "success"}`, Model: "m", TokensUsed: 5}
			}
			return adapter.TextCompletionResult{Text: "Fast models matter.", Model: "m", TokensUsed: 20}
		},
		stream: func(_ adapter.CompletionOptions, cb adapter.StreamCallbacks) {
			for _, c := range []string{"1, ", "2, ", "3"} {
				cb.OnChunk(c)
			}
			cb.OnComplete()
		},
	}
}

func TestTestProviderAllCapabilities(t *testing.T) {
	tr := tester.New()
	progress, stop := events.Collect(tr.OnProgress())
	defer stop()
	results, stopResults := events.Collect(tr.OnResult())
	defer stopResults()

	fake := healthy()
	res := tr.TestProvider(t.Context(), fake)

	require.True(t, res.Success)
	assert.Equal(t, "All provider tests completed successfully", res.Message)
	require.NotNil(t, res.Details)
	assert.Equal(t, []string{"Text Completion", "Streaming", "JSON Mode"}, res.Details.Capabilities)
	assert.Equal(t, "1, 2, 3", res.Details.StreamedText)
	assert.Equal(t, 25, res.Details.TokensUsed)
	assert.Equal(t, "m", res.Details.Model)
	assert.GreaterOrEqual(t, res.Details.LatencyMs, int64(0))

	assert.Equal(t, []string{
		"Starting provider test...",
		"Testing text completion...",
		"Testing streaming capability...",
		"Received streaming chunk: 1, ",
		"Received streaming chunk: 2, ",
		"Received streaming chunk: 3",
		"Streaming test completed",
		"Testing JSON mode...",
	}, progress())
	assert.Equal(t, []tester.TestResult{res}, results())

	require.Len(t, fake.calls, 3)
	assert.Equal(t, 100, fake.calls[0].MaxTokens)
	assert.Equal(t, "Count from 1 to 5.", fake.calls[1].UserPrompt)
	assert.False(t, fake.calls[1].Stream)
	require.NotNil(t, fake.calls[2].JSONMode)
	assert.True(t, *fake.calls[2].JSONMode)
}

func TestBufferedFailureIsFatal(t *testing.T) {
	fake := healthy()
	fake.complete = func(adapter.CompletionOptions) adapter.TextCompletionResult {
		return adapter.TextCompletionResult{Error: "Groq API error (401): invalid_api_key"}
	}

	res := tester.New().TestProvider(t.Context(), fake)
	assert.False(t, res.Success)
	assert.Nil(t, res.Details)
	assert.Equal(t, "Provider test failed: Text completion failed: Groq API error (401): invalid_api_key", res.Message)
	assert.Len(t, fake.calls, 1, "later probes must not run")
}

func TestStreamingFailureIsNotFatal(t *testing.T) {
	fake := healthy()
	fake.stream = func(_ adapter.CompletionOptions, cb adapter.StreamCallbacks) {
		cb.OnError("stream broke")
	}
	tr := tester.New()
	progress, stop := events.Collect(tr.OnProgress())
	defer stop()

	res := tr.TestProvider(t.Context(), fake)
	require.True(t, res.Success)
	assert.False(t, res.Details.Has(tester.CapabilityStreaming))
	assert.True(t, res.Details.Has(tester.CapabilityJSONMode))
	assert.Contains(t, progress(), "Streaming error: stream broke")
}

func TestJSONProbeIsStructural(t *testing.T) {
	tests := []struct {
		name string
		text string
		err  string
		want bool
	}{
		{"valid", `{"test":"success"}`, "", true},
		{"missing value", `{"test":"fail"}`, "", false},
		{"unquoted", `test: success`, "", false},
		{"error", `{"test":"success"}`, "boom", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fake := healthy()
			base := fake.complete
			fake.complete = func(opts adapter.CompletionOptions) adapter.TextCompletionResult {
				if opts.JSONMode != nil {
					return adapter.TextCompletionResult{Text: tc.text, Error: tc.err}
				}
				return base(opts)
			}

			res := tester.New().TestProvider(t.Context(), fake)
			require.True(t, res.Success)
			assert.Equal(t, tc.want, res.Details.Has(tester.CapabilityJSONMode))
		})
	}
}

func TestPanicBecomesFailure(t *testing.T) {
	fake := healthy()
	fake.stream = func(adapter.CompletionOptions, adapter.StreamCallbacks) {
		panic("adapter exploded")
	}
	tr := tester.New()
	results, stop := events.Collect(tr.OnResult())
	defer stop()

	var res tester.TestResult
	assert.NotPanics(t, func() { res = tr.TestProvider(t.Context(), fake) })
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "adapter exploded")
	assert.Len(t, results(), 1)
}

func TestNilProvider(t *testing.T) {
	res := tester.New().TestProvider(t.Context(), nil)
	assert.False(t, res.Success)
}

func TestAgainstVendorServer(t *testing.T) {
	srv := testutil.NewVendorServer(t)
	srv.OnChat = func(w http.ResponseWriter, req testutil.VendorRequest) {
		if stream, _ := req.Body["stream"].(bool); stream {
			testutil.RespondStream(w, "1", " 2", " 3")
			return
		}
		if _, ok := req.Body["response_format"]; ok {
			testutil.RespondCompletion(w, `{"test": "success"}`, 9)
			return
		}
		testutil.RespondCompletion(w, "Speed matters.", 30)
	}

	f := adapter.NewFactory(adapter.WithBaseURL(srv.URL))
	a, err := f.GetProvider(testutil.ProviderConfig("groq", "gsk_test"))
	require.NoError(t, err)

	res := tester.New().TestProvider(t.Context(), a)
	require.True(t, res.Success, res.Message)
	assert.Equal(t, []string{"Text Completion", "Streaming", "JSON Mode"}, res.Details.Capabilities)
	assert.Equal(t, "1 2 3", res.Details.StreamedText)
	assert.Equal(t, 3, srv.Calls())

	for _, req := range srv.Requests() {
		assert.True(t, strings.HasSuffix(req.Path, "/chat/completions"))
		assert.Equal(t, "Bearer gsk_test", req.Authorization)
	}
}
