package transcriber

import (
	"context"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
)

// Input is one open capture session.
type Input interface {
	// Chunks delivers encoded audio chunks in capture order. It is closed
	// once Stop has flushed the last chunk or capture fails.
	Chunks() <-chan []byte
	// Level is a coarse volume gauge in [0,1].
	Level() float64
	// Stop ends capture. Chunks already produced are still delivered.
	Stop() error
	// Encode joins chunks into a single recording.
	Encode(chunks [][]byte) adapter.Blob
	// Close releases the device.
	Close() error
}

// Device acquires capture sessions.
type Device interface {
	Open(ctx context.Context) (Input, error)
}

// DeviceFunc adapts a function to Device.
type DeviceFunc func(ctx context.Context) (Input, error)

func (f DeviceFunc) Open(ctx context.Context) (Input, error) {
	return f(ctx)
}
