package config

import (
	"context"
	"fmt"
)

// Item is one typed key of a KV area.
type Item[T any] struct {
	kv        KV
	key       string
	def       func() T
	normalize func(T) T
}

// Key returns the persisted key name.
func (i Item[T]) Key() string {
	return i.key
}

// Get returns the stored value, or the default when the key is absent.
func (i Item[T]) Get(ctx context.Context) (T, error) {
	v := i.def()
	if _, err := i.kv.Get(ctx, i.key, &v); err != nil {
		var zero T
		return zero, fmt.Errorf("read %s: %w", i.key, err)
	}
	if i.normalize != nil {
		v = i.normalize(v)
	}
	return v, nil
}

// Lookup is Get without the default: ok is false when nothing is stored.
func (i Item[T]) Lookup(ctx context.Context) (v T, ok bool, err error) {
	ok, err = i.kv.Get(ctx, i.key, &v)
	if err != nil {
		return v, ok, fmt.Errorf("read %s: %w", i.key, err)
	}
	if ok && i.normalize != nil {
		v = i.normalize(v)
	}
	return v, ok, nil
}

func (i Item[T]) Set(ctx context.Context, v T) error {
	if err := i.kv.Set(ctx, i.key, v); err != nil {
		return fmt.Errorf("write %s: %w", i.key, err)
	}
	return nil
}

func (i Item[T]) Delete(ctx context.Context) error {
	if err := i.kv.Delete(ctx, i.key); err != nil {
		return fmt.Errorf("delete %s: %w", i.key, err)
	}
	return nil
}

func newItem[T any](kv KV, key string, def func() T) Item[T] {
	return Item[T]{kv: kv, key: key, def: def}
}

func zero[T any]() T {
	var v T
	return v
}

// Store is the persisted configuration: a synced area holding the settings
// and a local area holding machine-only state such as migration backups.
type Store struct {
	Token             Item[string]
	Prompt            Item[string]
	EnableTranslation Item[bool]
	ProviderConfig    Item[ProviderConfig]
	Recording         Item[RecordingConfig]
	MigrationBackup   Item[MigrationBackup]
}

// NewStore binds the typed keys to their areas.
func NewStore(syncArea, localArea KV) *Store {
	pc := newItem(syncArea, KeyProviderConfig, DefaultProviderConfig)
	pc.normalize = normalizeProviderConfig

	return &Store{
		Token:             newItem(syncArea, KeyLegacyToken, zero[string]),
		Prompt:            newItem(syncArea, KeyLegacyPrompt, zero[string]),
		EnableTranslation: newItem(syncArea, KeyEnableTranslation, zero[bool]),
		ProviderConfig:    pc,
		Recording:         newItem(syncArea, KeyRecording, DefaultRecordingConfig),
		MigrationBackup:   newItem(localArea, KeyMigrationBackup, zero[MigrationBackup]),
	}
}

// NewMemoryStore returns a Store over two fresh in-memory areas.
func NewMemoryStore() (*Store, *MemoryKV, *MemoryKV) {
	syncArea, localArea := NewMemoryKV(), NewMemoryKV()
	return NewStore(syncArea, localArea), syncArea, localArea
}

// OpenFileStore opens the TOML-backed store under dir.
func OpenFileStore(dir string) *Store {
	return NewStore(NewFileKV(SyncPath(dir)), NewFileKV(LocalPath(dir)))
}
