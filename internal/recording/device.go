package recording

import (
	"bytes"
	"context"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/transcriber"
)

// WAVMimeType is the type of every blob the device encodes.
const WAVMimeType = "audio/wav"

// Device opens PipeWire capture sessions for the transcriber.
type Device struct {
	config config.RecordingConfig
}

var _ transcriber.Device = (*Device)(nil)

func NewDevice(cfg config.RecordingConfig) *Device {
	return &Device{config: cfg}
}

func (d *Device) Open(ctx context.Context) (transcriber.Input, error) {
	r := NewRecorder(d.config)
	frames, errs, err := r.Start(ctx)
	if err != nil {
		return nil, err
	}

	go func() {
		for err := range errs {
			r.logger.Warn().Err(err).Msg("capture error")
		}
	}()

	return &input{recorder: r, frames: frames, config: d.config}, nil
}

type input struct {
	recorder *Recorder
	frames   <-chan []byte
	config   config.RecordingConfig
}

func (in *input) Chunks() <-chan []byte { return in.frames }

func (in *input) Level() float64 { return in.recorder.Level() }

func (in *input) Stop() error { return in.recorder.Stop() }

func (in *input) Encode(chunks [][]byte) adapter.Blob {
	pcm := bytes.Join(chunks, nil)
	return adapter.Blob{
		Data:     pcmToWAV(pcm, in.config.SampleRate, in.config.Channels),
		MimeType: WAVMimeType,
	}
}

// Close stops capture and waits for pw-record to exit.
func (in *input) Close() error {
	err := in.recorder.Stop()
	in.recorder.Wait()
	return err
}
