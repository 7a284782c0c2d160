// Package enhancer fixes the grammar of a transcription with the selected
// provider's text completion.
package enhancer

import (
	"context"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/leonardotrapani/voxbridge/internal/adapter"
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/logging"
	"github.com/rs/zerolog"
)

const SystemPrompt = `Fix the grammar in the following text and only return the corrected text. Here are some examples:

ORIGINAL:
I'm going to the store and I will buy some milk.

FIXED:
I'm going to the store to buy some milk.

ORIGINAL:
The cat jumped over the wall and ran away.

FIXED:
The cat jumped over the wall and ran away.

ORIGINAL:
I hope life has been doing well with you and your family. This text have some grammar issues as you can see.

FIXED:
I hope life has been treating you and your family well. This text has some grammar issues, as you can see.
`

const minMaxTokens = 100

// Providers resolves the live adapter. *adapter.Factory implements it.
type Providers interface {
	GetProvider(cfg config.ProviderConfig) (adapter.Adapter, error)
}

type Enhancer struct {
	providers Providers
	store     *config.Store
	getenv    func(string) string
	logger    zerolog.Logger
}

func New(providers Providers, store *config.Store) *Enhancer {
	return &Enhancer{
		providers: providers,
		store:     store,
		getenv:    os.Getenv,
		logger:    logging.Component("enhancer"),
	}
}

// UserPrompt frames text the same way as the examples in SystemPrompt.
func UserPrompt(text string) string {
	return "ORIGINAL:\n" + text + "\n\nFIXED:"
}

// maxTokens leaves room for the fixed text: half a token per character
// plus slack, never less than minMaxTokens.
func maxTokens(text string) int {
	n := utf8.RuneCountInString(text)/2 + 32
	if n < minMaxTokens {
		return minMaxTokens
	}
	return n
}

func (e *Enhancer) options(text string) adapter.CompletionOptions {
	return adapter.CompletionOptions{
		SystemPrompt: SystemPrompt,
		UserPrompt:   UserPrompt(text),
		MaxTokens:    maxTokens(text),
	}
}

func (e *Enhancer) resolve(ctx context.Context) (adapter.Adapter, error) {
	cfg, err := e.store.ProviderConfig.Get(ctx)
	if err != nil {
		return nil, err
	}
	return e.providers.GetProvider(config.WithEnvTokens(cfg, e.getenv))
}

// FixGrammar returns the corrected text. On failure Text is the untouched
// input and Error says why.
func (e *Enhancer) FixGrammar(ctx context.Context, text string) adapter.TextCompletionResult {
	if strings.TrimSpace(text) == "" {
		return adapter.TextCompletionResult{Text: text}
	}

	a, err := e.resolve(ctx)
	if err != nil {
		return adapter.TextCompletionResult{Text: text, Error: err.Error()}
	}

	res := a.CompleteText(ctx, e.options(text))
	if res.Failed() {
		e.logger.Warn().Str("error", res.Error).Msg("grammar fix failed")
		res.Text = text
		return res
	}
	res.Text = strings.TrimSpace(res.Text)
	e.logger.Debug().Str("model", res.Model).Int("tokens", res.TokensUsed).Msg("grammar fixed")
	return res
}

// FixGrammarStream streams the corrected text through cb. Exactly one of
// OnError or OnComplete is called.
func (e *Enhancer) FixGrammarStream(ctx context.Context, text string, cb adapter.StreamCallbacks) {
	if strings.TrimSpace(text) == "" {
		if cb.OnComplete != nil {
			cb.OnComplete()
		}
		return
	}

	a, err := e.resolve(ctx)
	if err != nil {
		if cb.OnError != nil {
			cb.OnError(err.Error())
		}
		return
	}
	a.StreamTextCompletion(ctx, e.options(text), cb)
}
