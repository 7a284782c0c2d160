package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/goccy/go-json"
	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/enhancer"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/leonardotrapani/voxbridge/internal/tester"
	"github.com/leonardotrapani/voxbridge/internal/tui"
	"github.com/spf13/cobra"
)

func transcribeCmd(a *app) *cobra.Command {
	var (
		prompt    string
		translate bool
	)

	cmd := &cobra.Command{
		Use:   "transcribe <audio-file>",
		Short: "Transcribe an audio file with the selected provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := a.store()
			if err != nil {
				return err
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read audio: %w", err)
			}
			blob := adapter.Blob{Data: data, MimeType: mimetype.Detect(data).String()}

			if !cmd.Flags().Changed("prompt") {
				if prompt, err = store.Prompt.Get(ctx); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("translate") {
				if translate, err = store.EnableTranslation.Get(ctx); err != nil {
					return err
				}
			}

			p, err := a.provider(cmd, store)
			if err != nil {
				return err
			}
			res := p.Transcribe(ctx, adapter.TranscriptionOptions{File: blob, Prompt: prompt, Translate: translate})
			if res.Failed() {
				return errors.New(res.Error)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Text)
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "transcription prompt (default: stored prompt)")
	cmd.Flags().BoolVar(&translate, "translate", false, "translate to English (default: stored setting)")
	return cmd
}

func enhanceCmd(a *app) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "enhance [text]",
		Short: "Fix grammar and punctuation of text (reads stdin without arguments)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}

			text := ""
			if len(args) == 1 {
				text = args[0]
			} else {
				in, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = strings.TrimSpace(string(in))
			}

			e := enhancer.New(a.factory(), store)
			out := cmd.OutOrStdout()

			if !stream {
				res := e.FixGrammar(cmd.Context(), text)
				if res.Failed() {
					return errors.New(res.Error)
				}
				fmt.Fprintln(out, res.Text)
				return nil
			}

			var streamErr error
			e.FixGrammarStream(cmd.Context(), text, adapter.StreamCallbacks{
				OnChunk:    func(chunk string) { fmt.Fprint(out, chunk) },
				OnError:    func(msg string) { streamErr = errors.New(msg) },
				OnComplete: func() { fmt.Fprintln(out) },
			})
			return streamErr
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", false, "print the correction as it is generated")
	return cmd
}

func testCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Probe the selected provider's text completion, streaming and JSON mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.store()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			t := tester.New()
			if !asJSON {
				t.OnProgress().Subscribe(func(line string) {
					fmt.Fprintln(out, tui.StyleMuted.Render(line))
				})
			}

			var result tester.TestResult
			if p, err := a.provider(cmd, store); err != nil {
				result = tester.TestResult{Message: "Provider test failed: " + err.Error()}
			} else {
				result = t.TestProvider(cmd.Context(), p)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(result); err != nil {
					return err
				}
			} else {
				printTestResult(out, result)
			}
			if !result.Success {
				return errors.New(result.Message)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printTestResult(w io.Writer, r tester.TestResult) {
	fmt.Fprintf(w, "%s %s\n", tui.Check(r.Success), r.Message)
	if r.Details == nil {
		return
	}
	d := r.Details
	fmt.Fprintf(w, "  %s %s\n", tui.StyleLabel.Render("Model:"), tui.StyleHighlight.Render(d.Model))
	fmt.Fprintf(w, "  %s %d ms\n", tui.StyleLabel.Render("Latency:"), d.LatencyMs)
	fmt.Fprintf(w, "  %s %d\n", tui.StyleLabel.Render("Tokens:"), d.TokensUsed)
	for _, c := range []string{tester.CapabilityTextCompletion, tester.CapabilityStreaming, tester.CapabilityJSONMode} {
		fmt.Fprintf(w, "  %s %s\n", tui.Check(d.Has(c)), c)
	}
}

var capabilityOrder = []provider.Capability{
	provider.CapabilityTranscription,
	provider.CapabilityTranslation,
	provider.CapabilityTextCompletion,
}

func providersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List the provider catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			var catalog []provider.ApiProvider
			for _, id := range provider.List() {
				p, _ := provider.Get(id)
				catalog = append(catalog, p)
			}

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog)
			}

			for _, p := range catalog {
				fmt.Fprintln(out, tui.StyleHeader.Render(fmt.Sprintf("%s (%s)", p.Name, p.ID)))
				caps := make([]string, 0, len(capabilityOrder))
				for _, c := range capabilityOrder {
					caps = append(caps, tui.Check(p.Capabilities.Has(c))+" "+string(c))
				}
				fmt.Fprintf(out, "  %s %s\n", tui.StyleLabel.Render("Capabilities:"), strings.Join(caps, "  "))
				fmt.Fprintf(out, "  %s %s\n", tui.StyleLabel.Render("Endpoint:"), p.Endpoints.URL(p.Endpoints.Transcription))
				fmt.Fprintf(out, "  %s %s, max %s\n", tui.StyleLabel.Render("Files:"),
					strings.Join(p.Limitations.SupportedFileTypes, ", "),
					humanize.IBytes(uint64(p.Limitations.MaxFileSize)))
				if summary := p.TranslationSummary(); summary != "" {
					fmt.Fprintf(out, "  %s %s\n", tui.StyleLabel.Render("Translation:"), summary)
				}
				if env := provider.EnvVarForProvider(p.ID); env != "" {
					fmt.Fprintf(out, "  %s $%s\n", tui.StyleLabel.Render("Token env:"), env)
				}
				for _, m := range p.Models.Transcription {
					fmt.Fprintf(out, "  %s %s - %s, %.1f%% WER, %gx realtime, $%.3f/h\n",
						tui.StyleMuted.Render("stt"), tui.StyleHighlight.Render(m.ID), m.Language, m.ErrorRate, m.SpeedFactor, m.CostPerHour)
				}
				for _, m := range p.Models.TextCompletion {
					fmt.Fprintf(out, "  %s %s - %s context\n",
						tui.StyleMuted.Render("llm"), tui.StyleHighlight.Render(m.ID), humanize.Comma(int64(m.ContextWindow)))
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the catalog as JSON")
	return cmd
}
