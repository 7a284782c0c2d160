package notify

import (
	"fmt"
	"os/exec"

	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/rs/zerolog"
)

const AppName = "Voxbridge"

// PreviewLength bounds the transcription text shown in a notification.
const PreviewLength = 120

type Notifier interface {
	RecordingChanged(on bool)
	Transcribed(text string)
	Error(msg string)
}

// Desktop sends notifications through notify-send.
type Desktop struct {
	// Run executes the notify-send invocation; nil runs the real binary.
	Run func(args ...string) error
}

func (d Desktop) RecordingChanged(on bool) {
	d.send(fmt.Sprintf("%s: %s Recording", AppName, recordingState(on)))
}

func (d Desktop) Transcribed(text string) {
	if text == "" {
		return
	}
	d.send(AppName+": Transcribed", Preview(text))
}

func (d Desktop) Error(msg string) {
	d.send("-u", "critical", AppName+": Error", msg)
}

func (d Desktop) send(args ...string) {
	args = append([]string{"-a", AppName}, args...)
	run := d.Run
	if run == nil {
		run = func(args ...string) error {
			return exec.Command("notify-send", args...).Run()
		}
	}
	if err := run(args...); err != nil {
		logger := logging.Component("notify")
		logger.Warn().Err(err).Msg("failed to send notification")
	}
}

// Log writes notifications to a zerolog logger.
type Log struct {
	Logger zerolog.Logger
}

func NewLog() Log {
	return Log{Logger: logging.Component("notify")}
}

func (l Log) RecordingChanged(on bool) {
	l.Logger.Info().Bool("recording", on).Msgf("%s: %s Recording", AppName, recordingState(on))
}

func (l Log) Transcribed(text string) {
	l.Logger.Info().Str("text", Preview(text)).Msgf("%s: Transcribed", AppName)
}

func (l Log) Error(msg string) {
	l.Logger.Error().Str("error", msg).Msgf("%s Error", AppName)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) RecordingChanged(on bool) {}
func (Nop) Transcribed(text string)  {}
func (Nop) Error(msg string)         {}

// Multi fans every notification out to each notifier in order.
type Multi []Notifier

func (m Multi) RecordingChanged(on bool) {
	for _, n := range m {
		n.RecordingChanged(on)
	}
}

func (m Multi) Transcribed(text string) {
	for _, n := range m {
		n.Transcribed(text)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

// Preview shortens text to PreviewLength runes.
func Preview(text string) string {
	r := []rune(text)
	if len(r) <= PreviewLength {
		return text
	}
	return string(r[:PreviewLength]) + "…"
}

func recordingState(on bool) string {
	if on {
		return "Started"
	}
	return "Stopped"
}
