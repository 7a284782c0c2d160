package recording

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/rs/zerolog"
)

// pw-record sample format; Level and the WAV container assume it.
const sampleFormat = "s16"

// Recorder captures raw PCM from PipeWire through pw-record.
type Recorder struct {
	config    config.RecordingConfig
	recording atomic.Bool
	level     atomic.Uint64 // math.Float64bits of the latest frame level

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc

	wg     sync.WaitGroup
	logger zerolog.Logger
}

func NewRecorder(cfg config.RecordingConfig) *Recorder {
	return &Recorder{config: cfg, logger: logging.Component("recording")}
}

func (r *Recorder) IsRecording() bool {
	return r.recording.Load()
}

// Level is the mean absolute amplitude of the latest frame in [0,1].
func (r *Recorder) Level() float64 {
	return float64FromBits(r.level.Load())
}

// Start launches pw-record. The frame channel is closed when capture ends,
// either through Stop, the configured timeout, or a failure reported on the
// error channel.
func (r *Recorder) Start(ctx context.Context) (<-chan []byte, <-chan error, error) {
	if r.recording.Load() {
		return nil, nil, fmt.Errorf("already recording")
	}

	if err := r.config.Validate(); err != nil {
		return nil, nil, err
	}

	if err := CheckPipeWireAvailable(ctx); err != nil {
		return nil, nil, fmt.Errorf("PipeWire not available: %w", err)
	}

	// Create a cancellable context specific to this recording session.
	recordingCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)

	frameCh := make(chan []byte, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.level.Store(0)
	r.recording.Store(true)
	r.wg.Add(1)
	go r.captureLoop(recordingCtx, frameCh, errCh)

	return frameCh, errCh, nil
}

func (r *Recorder) Stop() error {
	if !r.recording.Load() {
		return nil
	}

	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	return nil
}

func (r *Recorder) Wait() {
	r.wg.Wait()
}

func (r *Recorder) captureLoop(ctx context.Context, frameCh chan<- []byte, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)
		r.recording.Store(false)

		// Ensure any child process is reaped.
		r.mu.Lock()
		if r.cmd != nil {
			_ = r.cmd.Wait()
			r.cmd = nil
		}
		if r.cancel != nil {
			r.cancel()
			r.cancel = nil
		}
		r.mu.Unlock()

		r.wg.Done()
	}()

	args := r.buildPwRecordArgs()
	cmd := exec.CommandContext(ctx, "pw-record", args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		return
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		return
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	if err := cmd.Start(); err != nil {
		r.mu.Lock()
		r.cmd = nil
		r.mu.Unlock()
		r.emitErr(errCh, fmt.Errorf("start pw-record: %w", err))
		return
	}

	// Log stderr lines to aid diagnostics.
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			r.logger.Debug().Str("stderr", scanner.Text()).Msg("pw-record")
		}
	}()

	buffer := make([]byte, r.config.BufferSize)
	var frames, total int
	start := time.Now()

	for {
		n, readErr := stdout.Read(buffer)
		if n > 0 {
			frame := make([]byte, n)
			copy(frame, buffer[:n])
			r.level.Store(float64Bits(pcmLevel(frame)))

			// Batch transcription needs every frame, so block instead of dropping.
			select {
			case frameCh <- frame:
				frames++
				total += n
			case <-ctx.Done():
				r.logCaptured(frames, total, start)
				return
			}
		}

		if readErr != nil {
			r.logCaptured(frames, total, start)
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrClosedPipe) || ctx.Err() != nil {
				return
			}
			r.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}
	}
}

func (r *Recorder) logCaptured(frames, total int, start time.Time) {
	r.logger.Debug().
		Int("frames", frames).
		Int("bytes", total).
		Dur("duration", time.Since(start)).
		Msg("capture ended")
}

func (r *Recorder) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
		// Best-effort; avoid blocking
	}
	r.logger.Error().Err(err).Msg("recording error")
}

func (r *Recorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", sampleFormat,
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return append(args, "-") // stdout
}

func CheckPipeWireAvailable(ctx context.Context) error {
	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found: %w (install pipewire-tools)", err)
	}
	// Use a short timeout to avoid hangs on misconfigured systems.
	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(checkCtx, "pw-cli", "info")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("PipeWire not running or accessible: %w", err)
	}
	return nil
}
