package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// KV stores JSON documents under string keys.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// LoadProgress reads the progress document from kv. Read and parse failures
// are logged and yield the defaults.
func LoadProgress(ctx context.Context, kv KV, logger *slog.Logger) Progress {
	p := DefaultProgress()
	if !load(ctx, kv, KeyProgress, &p, logger) {
		return DefaultProgress()
	}
	if p.Herbarium == nil {
		p.Herbarium = map[string]SpeciesMastery{}
	}
	if p.UnlockedTools == nil {
		p.UnlockedTools = []string{}
	}
	return p
}

// LoadSettings reads the settings document from kv. Read and parse failures
// are logged and yield the defaults.
func LoadSettings(ctx context.Context, kv KV, logger *slog.Logger) Settings {
	st := DefaultSettings()
	if !load(ctx, kv, KeySettings, &st, logger) {
		return DefaultSettings()
	}
	return st.normalize()
}

func load(ctx context.Context, kv KV, key string, dest any, logger *slog.Logger) bool {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		logger.Warn("reading document, using defaults", "key", key, "error", err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		logger.Warn("parsing document, using defaults", "key", key, "error", err)
		return false
	}
	return true
}

func SaveProgress(ctx context.Context, kv KV, p Progress) error {
	return save(ctx, kv, KeyProgress, p)
}

// SaveSettings normalizes st, writes it and returns what was written.
func SaveSettings(ctx context.Context, kv KV, st Settings) (Settings, error) {
	st = st.normalize()
	if err := save(ctx, kv, KeySettings, st); err != nil {
		return Settings{}, err
	}
	return st, nil
}

func save(ctx context.Context, kv KV, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := kv.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// MemoryKV is a KV held in process memory.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

var (
	_ KV = playerKV{}
	_ KV = (*MemoryKV)(nil)
)
