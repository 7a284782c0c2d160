package adapter

import (
	"testing"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
	"github.com/stretchr/testify/assert"
)

func TestFactoryUnsupportedProvider(t *testing.T) {
	f := NewFactory()

	a, err := f.create(provider.ApiProvider{ID: "acme", Name: "Acme"}, config.ProviderSettings{Token: "k"})
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrUnsupportedProvider)
	assert.EqualError(t, err, "Unsupported provider: acme")
	assert.Zero(t, f.Len())
}
