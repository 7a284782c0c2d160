package notify

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *recorder) run(args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, args)
	return r.err
}

func TestDesktopNotifier(t *testing.T) {
	tests := []struct {
		name string
		call func(Desktop)
		want []string
	}{
		{
			name: "recording started",
			call: func(d Desktop) { d.RecordingChanged(true) },
			want: []string{"-a", "Voxbridge", "Voxbridge: Started Recording"},
		},
		{
			name: "recording stopped",
			call: func(d Desktop) { d.RecordingChanged(false) },
			want: []string{"-a", "Voxbridge", "Voxbridge: Stopped Recording"},
		},
		{
			name: "transcribed",
			call: func(d Desktop) { d.Transcribed("hello world") },
			want: []string{"-a", "Voxbridge", "Voxbridge: Transcribed", "hello world"},
		},
		{
			name: "error",
			call: func(d Desktop) { d.Error("Invalid API key") },
			want: []string{"-a", "Voxbridge", "-u", "critical", "Voxbridge: Error", "Invalid API key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			tt.call(Desktop{Run: rec.run})
			require.Len(t, rec.calls, 1)
			assert.Equal(t, tt.want, rec.calls[0])
		})
	}
}

func TestDesktopSkipsEmptyTranscription(t *testing.T) {
	rec := &recorder{}
	Desktop{Run: rec.run}.Transcribed("")
	assert.Empty(t, rec.calls)
}

func TestDesktopRunFailureDoesNotPanic(t *testing.T) {
	rec := &recorder{err: errors.New("notify-send: not found")}
	assert.NotPanics(t, func() { Desktop{Run: rec.run}.Error("boom") })
	assert.Len(t, rec.calls, 1)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := Log{Logger: zerolog.New(&buf)}

	l.RecordingChanged(true)
	assert.Contains(t, buf.String(), "Voxbridge: Started Recording")
	assert.Contains(t, buf.String(), `"recording":true`)

	buf.Reset()
	l.Transcribed("hello world")
	assert.Contains(t, buf.String(), `"text":"hello world"`)

	buf.Reset()
	l.Error("quota exceeded")
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "quota exceeded")
}

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{Desktop{Run: a.run}, Nop{}, Desktop{Run: b.run}}

	m.RecordingChanged(true)
	m.Transcribed("text")
	m.Error("oops")

	assert.Len(t, a.calls, 3)
	assert.Equal(t, a.calls, b.calls)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("é", PreviewLength+5)
	got := Preview(long)
	assert.Equal(t, PreviewLength+1, len([]rune(got)))
	assert.True(t, strings.HasSuffix(got, "…"))
}

func TestNotifierEdgeCases(t *testing.T) {
	rec := &recorder{}
	notifiers := []Notifier{Desktop{Run: rec.run}, Log{Logger: zerolog.Nop()}, Nop{}}

	t.Run("empty messages", func(t *testing.T) {
		for _, n := range notifiers {
			n.Error("")
			n.Transcribed("")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		var wg sync.WaitGroup
		for _, n := range notifiers {
			for range 10 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					n.RecordingChanged(true)
					n.Transcribed("concurrent")
					n.Error("concurrent test")
				}()
			}
		}
		wg.Wait()
	})
}
