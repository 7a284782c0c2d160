package adapter

import (
	"slices"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// GroqAdapter talks to Groq's OpenAI-compatible endpoint.
type GroqAdapter struct {
	*base
}

var _ Adapter = (*GroqAdapter)(nil)

func NewGroq(p provider.ApiProvider, settings config.ProviderSettings, opts ...Option) *GroqAdapter {
	b := newBase(p, settings, mostAccurateModel, opts)
	b.jsonMode = inferredJSONMode
	return &GroqAdapter{base: b}
}

// mostAccurateModel picks the lowest error rate, then the highest speed
// factor. Equal models keep catalog order.
func mostAccurateModel(models []provider.TranscriptionModel) string {
	sorted := slices.Clone(models)
	slices.SortStableFunc(sorted, func(a, b provider.TranscriptionModel) int {
		switch {
		case a.ErrorRate < b.ErrorRate:
			return -1
		case a.ErrorRate > b.ErrorRate:
			return 1
		case a.SpeedFactor > b.SpeedFactor:
			return -1
		case a.SpeedFactor < b.SpeedFactor:
			return 1
		}
		return 0
	})
	return sorted[0].ID
}
