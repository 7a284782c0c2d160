package adapter

import (
	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// OpenAIAdapter talks to api.openai.com.
type OpenAIAdapter struct {
	*base
}

var _ Adapter = (*OpenAIAdapter)(nil)

// NewOpenAI builds an adapter. Its default model is the first catalog model.
func NewOpenAI(p provider.ApiProvider, settings config.ProviderSettings, opts ...Option) *OpenAIAdapter {
	return &OpenAIAdapter{base: newBase(p, settings, firstModel, opts)}
}
