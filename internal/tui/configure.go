// Package tui holds the interactive configure flow and the styles shared
// with CLI output.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/muesli/termenv"
)

// ConfigureResult reports how the configure flow ended
type ConfigureResult struct {
	Draft     *Draft
	Cancelled bool
}

// Run edits the stored configuration in a menu loop and saves it on
// "Save & Exit". Escaping the main menu cancels without saving.
func Run(ctx context.Context, store *config.Store) (*ConfigureResult, error) {
	d, err := LoadDraft(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		section, err := selectSection(d)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch section {
		case SectionSaveExit:
			confirmed, err := showSummary(d)
			if err != nil || !confirmed {
				continue
			}
			if err := d.Save(ctx, store); err != nil {
				return nil, fmt.Errorf("save config: %w", err)
			}
			return &ConfigureResult{Draft: d}, nil

		case SectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case SectionProvider:
			_ = editProvider(d)
		case SectionToken:
			_ = editToken(d)
		case SectionTranscription:
			_ = editTranscriptionModel(d)
		case SectionCompletion:
			_ = editCompletionModel(d)
		case SectionPrompt:
			_ = editPrompt(d)
		case SectionRecording:
			_ = editRecording(d)
		}
	}
}

func selectSection(d *Draft) (Section, error) {
	var selected Section
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[Section]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(sectionOptions(d)...).
				Value(&selected),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editProvider(d *Draft) error {
	selected := d.Providers.SelectedProvider
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Description("Used for transcription and text completion").
				Options(providerOptions(d.Providers)...).
				Value(&selected),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}
	d.Providers.SelectedProvider = selected
	if d.Selected().Token == "" {
		return editToken(d)
	}
	return nil
}

func editToken(d *Draft) error {
	id := d.Providers.SelectedProvider
	name := id
	if p, ok := provider.Get(id); ok {
		name = p.Name
	}
	description := fmt.Sprintf("Enter your %s API key", name)
	if env := provider.EnvVarForProvider(id); env != "" {
		description += fmt.Sprintf(" (leave empty to use $%s)", env)
	}

	var token string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(fmt.Sprintf("%s API Key", name)).
				Description(description).
				EchoMode(huh.EchoModePassword).
				Value(&token),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}
	d.Update(func(s *config.ProviderSettings) { s.Token = token })
	return nil
}

func editTranscriptionModel(d *Draft) error {
	options := append([]huh.Option[string]{huh.NewOption("Automatic (provider default)", "")},
		transcriptionModelOptions(d.Providers.SelectedProvider)...)
	model := d.Selected().Model

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Model").
				Options(options...).
				Value(&model),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}
	d.Update(func(s *config.ProviderSettings) { s.Model = model })
	return nil
}

func editCompletionModel(d *Draft) error {
	options := append([]huh.Option[string]{huh.NewOption("Provider default", "")},
		completionModelOptions(d.Providers.SelectedProvider)...)
	model := d.Selected().Setting(config.SettingCompletionModel)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Text Completion Model").
				Description("Used by enhance and test").
				Options(options...).
				Value(&model),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}
	d.SetSetting(config.SettingCompletionModel, model)
	return nil
}

func editPrompt(d *Draft) error {
	limit := 0
	if p, ok := provider.Get(d.Providers.SelectedProvider); ok {
		limit = p.PromptGuidelines.MaxTokens
	}

	prompt, translate := d.Prompt, d.Translate
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Transcription Prompt").
				Description("Vocabulary and style hints, not instructions").
				CharLimit(limit).
				Value(&prompt),
			huh.NewConfirm().
				Title("Translate to English?").
				Affirmative("Yes").
				Negative("No").
				Value(&translate),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}
	d.Prompt, d.Translate = prompt, translate
	return nil
}

func editRecording(d *Draft) error {
	device := d.Recording.Device
	rate := strconv.Itoa(d.Recording.SampleRate)
	channels := strconv.Itoa(d.Recording.Channels)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("PipeWire Target").
				Description("Node name or serial; empty for the default source").
				Value(&device),
			huh.NewSelect[string]().
				Title("Sample Rate").
				Options(
					huh.NewOption("16000 Hz - Recommended", "16000"),
					huh.NewOption("44100 Hz", "44100"),
					huh.NewOption("48000 Hz", "48000"),
				).
				Value(&rate),
			huh.NewSelect[string]().
				Title("Channels").
				Options(
					huh.NewOption("1 (Mono) - Recommended", "1"),
					huh.NewOption("2 (Stereo)", "2"),
				).
				Value(&channels),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return err
	}

	r, errRate := strconv.Atoi(rate)
	c, errChannels := strconv.Atoi(channels)
	if err := errors.Join(errRate, errChannels); err != nil {
		return err
	}
	d.Recording.Device = device
	d.Recording.SampleRate = r
	d.Recording.Channels = c
	return nil
}

func showSummary(d *Draft) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	for _, line := range SummaryLines(d) {
		fmt.Println("  " + line)
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(theme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

// clearScreen clears the terminal screen
func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
