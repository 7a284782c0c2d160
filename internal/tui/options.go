package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// Section is one entry of the configure menu
type Section string

const (
	SectionProvider      Section = "provider"
	SectionToken         Section = "token"
	SectionTranscription Section = "transcription"
	SectionCompletion    Section = "completion"
	SectionPrompt        Section = "prompt"
	SectionRecording     Section = "recording"
	SectionSaveExit      Section = "save_exit"
	SectionDiscardExit   Section = "discard_exit"
)

func providerOptions(cfg config.ProviderConfig) []huh.Option[string] {
	var options []huh.Option[string]
	for _, id := range provider.List() {
		options = append(options, huh.NewOption(providerLabel(cfg, id), id))
	}
	return options
}

func providerLabel(cfg config.ProviderConfig, id string) string {
	p, ok := provider.Get(id)
	if !ok {
		return id
	}
	status := "(not configured)"
	if s, ok := cfg.Providers[id]; ok && s.Token != "" {
		status = "(configured)"
	}
	return fmt.Sprintf("%s - %d speech models, up to %s %s",
		p.Name, len(p.Models.Transcription), humanize.IBytes(uint64(p.Limitations.MaxFileSize)), status)
}

func transcriptionModelOptions(id string) []huh.Option[string] {
	p, ok := provider.Get(id)
	if !ok {
		return nil
	}
	var options []huh.Option[string]
	for _, m := range p.Models.Transcription {
		options = append(options, huh.NewOption(transcriptionModelLabel(p, m), m.ID))
	}
	return options
}

func transcriptionModelLabel(p provider.ApiProvider, m provider.TranscriptionModel) string {
	var parts []string
	parts = append(parts, string(m.Language))
	if p.SupportsTranslation(m.ID) {
		parts = append(parts, "translation")
	}
	parts = append(parts, fmt.Sprintf("%.1f%% WER", m.ErrorRate), fmt.Sprintf("%gx", m.SpeedFactor))
	return fmt.Sprintf("%s [%s]", m.Name, strings.Join(parts, ", "))
}

func completionModelOptions(id string) []huh.Option[string] {
	p, ok := provider.Get(id)
	if !ok {
		return nil
	}
	var options []huh.Option[string]
	for _, m := range p.Models.TextCompletion {
		label := m.Name
		if m.ID == p.Models.DefaultCompletion {
			label += " (default)"
		}
		options = append(options, huh.NewOption(label, m.ID))
	}
	return options
}

func sectionOptions(d *Draft) []huh.Option[Section] {
	s := d.Selected()
	token := "not set"
	if s.Token != "" {
		token = logging.Redact(s.Token)
	}
	model := s.Model
	if model == "" {
		model = "automatic"
	}
	completion := s.Setting(config.SettingCompletionModel)
	if completion == "" {
		completion = "default"
	}
	return []huh.Option[Section]{
		huh.NewOption(fmt.Sprintf("Provider (%s)", d.Providers.SelectedProvider), SectionProvider),
		huh.NewOption(fmt.Sprintf("API Token (%s)", token), SectionToken),
		huh.NewOption(fmt.Sprintf("Transcription (%s)", model), SectionTranscription),
		huh.NewOption(fmt.Sprintf("Text Completion (%s)", completion), SectionCompletion),
		huh.NewOption("Prompt & Translation", SectionPrompt),
		huh.NewOption("Recording", SectionRecording),
		huh.NewOption("Save & Exit", SectionSaveExit),
		huh.NewOption("Discard & Exit", SectionDiscardExit),
	}
}

// SummaryLines renders a draft for the confirmation screen.
func SummaryLines(d *Draft) []string {
	s := d.Selected()
	lines := []string{
		fmt.Sprintf("%s %s", StyleLabel.Render("Provider:"), d.Providers.SelectedProvider),
	}
	if s.Token != "" {
		lines = append(lines, fmt.Sprintf("%s %s", StyleLabel.Render("Token:"), logging.Redact(s.Token)))
	} else if env := provider.EnvVarForProvider(d.Providers.SelectedProvider); env != "" {
		lines = append(lines, fmt.Sprintf("%s from $%s", StyleLabel.Render("Token:"), env))
	}
	if s.Model != "" {
		lines = append(lines, fmt.Sprintf("%s %s", StyleLabel.Render("Model:"), s.Model))
	}
	if m := s.Setting(config.SettingCompletionModel); m != "" {
		lines = append(lines, fmt.Sprintf("%s %s", StyleLabel.Render("Completion:"), m))
	}
	if d.Prompt != "" {
		lines = append(lines, fmt.Sprintf("%s %q", StyleLabel.Render("Prompt:"), d.Prompt))
	}
	translation := "disabled"
	if d.Translate {
		translation = "enabled"
	}
	lines = append(lines,
		fmt.Sprintf("%s %s", StyleLabel.Render("Translation:"), translation),
		fmt.Sprintf("%s %d Hz, %d ch", StyleLabel.Render("Recording:"), d.Recording.SampleRate, d.Recording.Channels),
	)
	return lines
}
