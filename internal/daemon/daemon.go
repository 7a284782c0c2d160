package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/bus"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/leonardotrapani/voxbridge/internal/notify"
	"github.com/leonardotrapani/voxbridge/internal/transcriber"
	"github.com/rs/zerolog"
)

// DefaultStopTimeout bounds finalizing and transcribing one recording.
const DefaultStopTimeout = 2 * time.Minute

// ProviderCache is cleared whenever the watched config file changes.
// *adapter.Factory implements it.
type ProviderCache interface {
	ClearProviders()
}

type Daemon struct {
	bus         *bus.Bus
	transcriber *transcriber.Transcriber
	providers   ProviderCache
	notifier    notify.Notifier
	watchPath   string
	stopTimeout time.Duration
	logger      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	toggleMu sync.Mutex // serializes start/stop transitions
}

type Option func(*Daemon)

// WithConfigWatch clears the provider cache whenever path changes on disk.
func WithConfigWatch(path string) Option {
	return func(d *Daemon) { d.watchPath = path }
}

func WithStopTimeout(timeout time.Duration) Option {
	return func(d *Daemon) {
		if timeout > 0 {
			d.stopTimeout = timeout
		}
	}
}

func New(b *bus.Bus, tr *transcriber.Transcriber, providers ProviderCache, n notify.Notifier, opts ...Option) *Daemon {
	if n == nil {
		n = notify.Desktop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		bus:         b,
		transcriber: tr,
		providers:   providers,
		notifier:    n,
		stopTimeout: DefaultStopTimeout,
		logger:      logging.Component("daemon"),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(d)
	}

	// Notifiers may shell out, so keep them off the publishing goroutine.
	tr.OnRecording().Subscribe(func(on bool) { go d.notifier.RecordingChanged(on) })
	tr.OnTranscription().Subscribe(func(text string) {
		if text != "" {
			go d.notifier.Transcribed(text)
		}
	})
	tr.OnError().Subscribe(func(msg string) { go d.notifier.Error(msg) })

	return d
}

func (d *Daemon) Run() error {
	if err := d.bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := d.bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := d.bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer d.bus.RemovePidFile()

	if d.watchPath != "" && d.providers != nil {
		w := config.NewWatcher(d.watchPath, d.onConfigChange)
		if err := w.Start(d.ctx); err != nil {
			d.logger.Warn().Err(err).Str("path", d.watchPath).Msg("config watch disabled")
		} else {
			defer w.Stop()
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			d.logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
			d.cancel()
		case <-d.ctx.Done():
		}
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	d.logger.Info().Str("socket", d.bus.SockPath()).Msg("daemon started")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				d.shutdown()
				return nil
			}
			d.logger.Error().Err(err).Msg("accept error")
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// Shutdown asks a running daemon to exit.
func (d *Daemon) Shutdown() {
	d.cancel()
}

func (d *Daemon) shutdown() {
	if d.transcriber.State() == transcriber.Recording {
		_ = d.transcriber.Cancel()
	}
	d.logger.Info().Msg("shutdown complete")
}

func (d *Daemon) onConfigChange() {
	d.logger.Info().Str("path", d.watchPath).Msg("config changed, dropping cached providers")
	d.providers.ClearProviders()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		d.logger.Warn().Err(err).Msg("client read error")
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case bus.CmdToggle:
		fmt.Fprintln(c, d.toggle())
	case bus.CmdCancel:
		if err := d.transcriber.Cancel(); err != nil {
			fmt.Fprintf(c, "ERR %s\n", oneLine(err.Error()))
			return
		}
		fmt.Fprint(c, "OK cancelled\n")
	case bus.CmdStatus:
		fmt.Fprintf(c, "STATUS state=%s\n", d.transcriber.State())
	case bus.CmdLast:
		fmt.Fprintf(c, "OK text=%q\n", d.transcriber.Last())
	case bus.CmdReset:
		d.transcriber.Reset()
		fmt.Fprint(c, "OK reset\n")
	case bus.CmdVersion:
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case bus.CmdQuit:
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		d.logger.Warn().Str("command", string(cmd)).Msg("unknown command")
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

// toggle starts a recording when idle and otherwise finishes it, replying
// with the transcription.
func (d *Daemon) toggle() string {
	d.toggleMu.Lock()
	defer d.toggleMu.Unlock()

	switch d.transcriber.State() {
	case transcriber.Idle:
		if err := d.transcriber.Start(d.ctx); err != nil {
			return "ERR " + oneLine(err.Error())
		}
		return fmt.Sprintf("STATUS state=%s", transcriber.Recording)

	case transcriber.Recording:
		ctx, cancel := context.WithTimeout(d.ctx, d.stopTimeout)
		defer cancel()
		text, err := d.transcriber.Stop(ctx)
		if err != nil {
			return "ERR " + oneLine(err.Error())
		}
		return fmt.Sprintf("OK text=%q", text)

	default:
		return "ERR busy"
	}
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
