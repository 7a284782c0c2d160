// Package transcriber owns the record → transcribe lifecycle: it captures
// audio from a Device, meters its volume, and hands the finished recording
// to the selected provider adapter.
package transcriber

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/events"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/rs/zerolog"
)

type State string

const (
	Idle      State = "idle"
	Recording State = "recording"
	Stopping  State = "stopping"
)

// MeterInterval is the volume sampling period, about one display frame.
const MeterInterval = 16 * time.Millisecond

// ErrNoAudio is published when a recording produced no chunks.
var ErrNoAudio = errors.New("no audio captured")

var (
	ErrBusy         = errors.New("transcriber: already recording")
	ErrNotRecording = errors.New("transcriber: not recording")
)

// Providers resolves the live adapter. *adapter.Factory implements it.
type Providers interface {
	GetProvider(cfg config.ProviderConfig) (adapter.Adapter, error)
}

type Transcriber struct {
	device    Device
	store     *config.Store
	providers Providers
	interval  time.Duration
	getenv    func(string) string
	logger    zerolog.Logger

	transcriptions events.Broadcaster[string]
	errs           events.Broadcaster[string]
	volume         events.Broadcaster[float64]
	recording      events.Broadcaster[bool]

	mu      sync.Mutex
	state   State
	session *session
	last    string
}

type session struct {
	input  Input
	chunks [][]byte

	collected chan struct{}
	stopMeter chan struct{}
	meterDone chan struct{}
	startedAt time.Time
}

type Option func(*Transcriber)

// WithMeterInterval overrides MeterInterval.
func WithMeterInterval(d time.Duration) Option {
	return func(t *Transcriber) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithGetenv sets the environment lookup used for token fallback.
func WithGetenv(getenv func(string) string) Option {
	return func(t *Transcriber) { t.getenv = getenv }
}

func New(device Device, store *config.Store, providers Providers, opts ...Option) *Transcriber {
	t := &Transcriber{
		device:    device,
		store:     store,
		providers: providers,
		interval:  MeterInterval,
		getenv:    os.Getenv,
		logger:    logging.Component("transcriber"),
		state:     Idle,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// OnTranscription publishes every successful transcription.
func (t *Transcriber) OnTranscription() *events.Broadcaster[string] { return &t.transcriptions }

// OnError publishes failures, adapter messages verbatim.
func (t *Transcriber) OnError() *events.Broadcaster[string] { return &t.errs }

// OnVolume publishes the meter while recording.
func (t *Transcriber) OnVolume() *events.Broadcaster[float64] { return &t.volume }

// OnRecording publishes true on start and false once the session is released.
func (t *Transcriber) OnRecording() *events.Broadcaster[bool] { return &t.recording }

func (t *Transcriber) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Last returns the most recent transcription.
func (t *Transcriber) Last() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// Reset clears the last transcription and publishes the empty text.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	t.last = ""
	t.mu.Unlock()
	t.transcriptions.Publish("")
}

// Start opens the device and begins buffering chunks and metering volume.
func (t *Transcriber) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.state != Idle {
		t.mu.Unlock()
		return ErrBusy
	}
	t.state = Recording
	t.mu.Unlock()

	input, err := t.device.Open(ctx)
	if err != nil {
		t.mu.Lock()
		t.state = Idle
		t.mu.Unlock()
		err = fmt.Errorf("open audio device: %w", err)
		t.logger.Error().Err(err).Msg("recording failed to start")
		t.errs.Publish(err.Error())
		return err
	}

	s := &session{
		input:     input,
		collected: make(chan struct{}),
		stopMeter: make(chan struct{}),
		meterDone: make(chan struct{}),
		startedAt: time.Now(),
	}
	go s.collect()
	go t.meter(s)

	t.mu.Lock()
	t.session = s
	t.mu.Unlock()

	t.logger.Info().Msg("recording started")
	t.recording.Publish(true)
	return nil
}

func (s *session) collect() {
	defer close(s.collected)
	for chunk := range s.input.Chunks() {
		if len(chunk) > 0 {
			s.chunks = append(s.chunks, chunk)
		}
	}
}

func (t *Transcriber) meter(s *session) {
	defer close(s.meterDone)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopMeter:
			return
		case <-ticker.C:
			t.volume.Publish(s.input.Level())
		}
	}
}

// Stop finalizes the recording and transcribes it. The result is published
// on OnTranscription or OnError and also returned. The device is released
// in every case.
func (t *Transcriber) Stop(ctx context.Context) (string, error) {
	t.mu.Lock()
	if t.state != Recording || t.session == nil {
		t.mu.Unlock()
		return "", ErrNotRecording
	}
	t.state = Stopping
	s := t.session
	t.mu.Unlock()

	defer t.release(s)

	close(s.stopMeter)
	<-s.meterDone

	if err := s.input.Stop(); err != nil {
		t.logger.Warn().Err(err).Msg("stop capture")
	}
	select {
	case <-s.collected:
	case <-ctx.Done():
		return t.fail(ctx.Err())
	}

	if len(s.chunks) == 0 {
		return t.fail(ErrNoAudio)
	}
	blob := s.input.Encode(s.chunks)
	t.logger.Info().
		Int("chunks", len(s.chunks)).
		Int64("bytes", blob.Size()).
		Dur("duration", time.Since(s.startedAt)).
		Msg("recording finalized")

	return t.transcribe(ctx, blob)
}

// Cancel discards the recording in progress without transcribing it.
func (t *Transcriber) Cancel() error {
	t.mu.Lock()
	if t.state != Recording || t.session == nil {
		t.mu.Unlock()
		return ErrNotRecording
	}
	t.state = Stopping
	s := t.session
	t.mu.Unlock()

	close(s.stopMeter)
	<-s.meterDone

	t.logger.Info().Msg("recording cancelled")
	t.release(s)
	return nil
}

func (t *Transcriber) transcribe(ctx context.Context, blob adapter.Blob) (string, error) {
	cfg, err := t.store.ProviderConfig.Get(ctx)
	if err != nil {
		return t.fail(err)
	}
	prompt, err := t.store.Prompt.Get(ctx)
	if err != nil {
		return t.fail(err)
	}
	translate, err := t.store.EnableTranslation.Get(ctx)
	if err != nil {
		return t.fail(err)
	}

	a, err := t.providers.GetProvider(config.WithEnvTokens(cfg, t.getenv))
	if err != nil {
		return t.fail(err)
	}

	res := a.Transcribe(ctx, adapter.TranscriptionOptions{
		File:      blob,
		Prompt:    prompt,
		Translate: translate,
	})
	if res.Failed() {
		return t.fail(errors.New(res.Error))
	}

	t.mu.Lock()
	t.last = res.Text
	t.mu.Unlock()

	t.logger.Info().Str("provider", a.Name()).Int("chars", len(res.Text)).Msg("transcription completed")
	t.transcriptions.Publish(res.Text)
	return res.Text, nil
}

func (t *Transcriber) fail(err error) (string, error) {
	t.logger.Error().Err(err).Msg("transcription failed")
	t.errs.Publish(err.Error())
	return "", err
}

func (t *Transcriber) release(s *session) {
	if err := s.input.Close(); err != nil {
		t.logger.Warn().Err(err).Msg("close audio device")
	}

	t.mu.Lock()
	t.state = Idle
	t.session = nil
	t.mu.Unlock()

	t.recording.Publish(false)
}
