package testutil

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/transcriber"
)

// MockDevice implements transcriber.Device. Every Open returns a new
// MockInput that emits Chunks and then waits for Stop.
type MockDevice struct {
	Chunks    [][]byte
	Level     float64
	MimeType  string
	OpenError error

	mu     sync.Mutex
	inputs []*MockInput
}

func NewMockDevice(chunks ...[]byte) *MockDevice {
	return &MockDevice{Chunks: chunks, Level: 0.5, MimeType: "audio/webm;codecs=opus"}
}

func (d *MockDevice) Open(ctx context.Context) (transcriber.Input, error) {
	if d.OpenError != nil {
		return nil, d.OpenError
	}

	in := &MockInput{
		ch:       make(chan []byte, len(d.Chunks)),
		stopped:  make(chan struct{}),
		mimeType: d.MimeType,
	}
	in.level.Store(d.Level)
	for _, c := range d.Chunks {
		in.ch <- c
	}
	go func() {
		<-in.stopped
		close(in.ch)
	}()

	d.mu.Lock()
	d.inputs = append(d.inputs, in)
	d.mu.Unlock()
	return in, nil
}

// Inputs returns every input handed out so far
func (d *MockDevice) Inputs() []*MockInput {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockInput(nil), d.inputs...)
}

// MockInput implements transcriber.Input
type MockInput struct {
	ch       chan []byte
	stopped  chan struct{}
	stopOnce sync.Once
	mimeType string

	level  atomic.Value
	closed atomic.Int32
}

func (m *MockInput) Chunks() <-chan []byte { return m.ch }

func (m *MockInput) Level() float64 { return m.level.Load().(float64) }

func (m *MockInput) SetLevel(v float64) { m.level.Store(v) }

func (m *MockInput) Stop() error {
	m.stopOnce.Do(func() { close(m.stopped) })
	return nil
}

func (m *MockInput) Encode(chunks [][]byte) adapter.Blob {
	return adapter.Blob{Data: bytes.Join(chunks, nil), MimeType: m.mimeType}
}

func (m *MockInput) Close() error {
	m.Stop()
	m.closed.Add(1)
	return nil
}

// Closed reports how many times Close was called
func (m *MockInput) Closed() int {
	return int(m.closed.Load())
}
