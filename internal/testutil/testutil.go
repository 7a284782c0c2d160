package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/leonardotrapani/voxbridge/internal/config"
	"github.com/leonardotrapani/voxbridge/internal/provider"
)

// ProviderConfig returns a config selecting id with the given token
func ProviderConfig(id, token string) config.ProviderConfig {
	return config.ProviderConfig{
		SelectedProvider: id,
		Providers: map[string]config.ProviderSettings{
			id: {Token: token},
		},
	}
}

// OpenAIConfig is the common single-provider test setup
func OpenAIConfig() config.ProviderConfig {
	return ProviderConfig(provider.ProviderOpenAI, "sk-test")
}

// MemoryStore returns a store seeded with cfg
func MemoryStore(t *testing.T, cfg config.ProviderConfig) *config.Store {
	t.Helper()

	store, _, _ := config.NewMemoryStore()
	if err := store.ProviderConfig.Set(context.Background(), cfg); err != nil {
		t.Fatalf("Failed to seed provider config: %v", err)
	}
	return store
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}
