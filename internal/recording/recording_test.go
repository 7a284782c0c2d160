package recording

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecorder(t *testing.T) {
	cfg := config.DefaultRecordingConfig()
	recorder := NewRecorder(cfg)

	require.NotNil(t, recorder)
	assert.False(t, recorder.IsRecording())
	assert.Equal(t, cfg.SampleRate, recorder.config.SampleRate)
	assert.Zero(t, recorder.Level())
}

func TestBuildPwRecordArgs(t *testing.T) {
	tests := []struct {
		name   string
		device string
		want   []string
	}{
		{
			name: "default device",
			want: []string{"--format", "s16", "--rate", "16000", "--channels", "1", "-"},
		},
		{
			name:   "explicit target",
			device: "alsa_input.usb-mic",
			want:   []string{"--format", "s16", "--rate", "16000", "--channels", "1", "--target", "alsa_input.usb-mic", "-"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultRecordingConfig()
			cfg.Device = tt.device
			assert.Equal(t, tt.want, NewRecorder(cfg).buildPwRecordArgs())
		})
	}
}

func TestStartRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultRecordingConfig()
	cfg.BufferSize = 0

	_, _, err := NewRecorder(cfg).Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "buffer_size")
}

func TestStopWhenIdle(t *testing.T) {
	recorder := NewRecorder(config.DefaultRecordingConfig())
	assert.NoError(t, recorder.Stop())
	recorder.Wait()
}

func TestPCMLevel(t *testing.T) {
	tests := []struct {
		name    string
		samples []int16
		want    float64
	}{
		{"silence", []int16{0, 0, 0, 0}, 0},
		{"empty", nil, 0},
		{"full scale negative", []int16{-32768, -32768}, 1},
		{"half scale mixed sign", []int16{16384, -16384}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, pcmLevel(pcm(tt.samples...)), 1e-9)
		})
	}

	t.Run("odd trailing byte ignored", func(t *testing.T) {
		frame := append(pcm(16384), 0xff)
		assert.InDelta(t, 0.5, pcmLevel(frame), 1e-9)
	})
}

func TestPCMToWAV(t *testing.T) {
	raw := pcm(1, 2, 3, 4)
	wav := pcmToWAV(raw, 48000, 2)

	require.Len(t, wav, 44+len(raw))
	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, uint32(36+len(raw)), binary.LittleEndian.Uint32(wav[4:8]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[22:24]))
	assert.Equal(t, uint32(48000), binary.LittleEndian.Uint32(wav[24:28]))
	assert.Equal(t, uint32(48000*2*2), binary.LittleEndian.Uint32(wav[28:32]))
	assert.Equal(t, uint16(4), binary.LittleEndian.Uint16(wav[32:34]))
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(len(raw)), binary.LittleEndian.Uint32(wav[40:44]))
	assert.Equal(t, raw, wav[44:])
}

func TestDeviceOpenWithoutPipeWire(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := NewDevice(config.DefaultRecordingConfig()).Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PipeWire not available")
}

func TestDeviceCapture(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	// Fake pw-cli and pw-record: one frame holding samples 1 and 32767.
	bin := t.TempDir()
	writeScript(t, bin, "pw-cli", "#!/bin/sh\nexit 0\n")
	writeScript(t, bin, "pw-record", "#!/bin/sh\nprintf '\\001\\000\\377\\177'\nexec sleep 30\n")
	t.Setenv("PATH", bin)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	in, err := NewDevice(config.DefaultRecordingConfig()).Open(ctx)
	require.NoError(t, err)

	var frames [][]byte
	select {
	case frame, ok := <-in.Chunks():
		require.True(t, ok)
		frames = append(frames, frame)
	case <-ctx.Done():
		t.Fatal("no frame captured")
	}
	assert.InDelta(t, (1.0+32767.0)/2/32768, in.Level(), 1e-9)

	require.NoError(t, in.Stop())
	for frame := range in.Chunks() {
		frames = append(frames, frame)
	}
	require.NoError(t, in.Close())

	blob := in.Encode(frames)
	assert.Equal(t, WAVMimeType, blob.MimeType)
	assert.Equal(t, "wav", blob.Extension())
	assert.Equal(t, pcm(1, 32767), blob.Data[44:])
}

func TestCaptureEndsAtTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	bin := t.TempDir()
	writeScript(t, bin, "pw-cli", "#!/bin/sh\nexit 0\n")
	writeScript(t, bin, "pw-record", "#!/bin/sh\nexec sleep 30\n")
	t.Setenv("PATH", bin)

	cfg := config.DefaultRecordingConfig()
	cfg.Timeout = 100 * time.Millisecond
	recorder := NewRecorder(cfg)

	frames, _, err := recorder.Start(context.Background())
	require.NoError(t, err)

	select {
	case _, ok := <-frames:
		assert.False(t, ok)
	case <-time.After(5 * time.Second):
		t.Fatal("capture did not stop at timeout")
	}
	recorder.Wait()
	assert.False(t, recorder.IsRecording())
}

func pcm(samples ...int16) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[2*i:], uint16(s))
	}
	return out
}

func writeScript(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o755))
}
