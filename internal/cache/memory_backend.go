package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultMemorySize = 10000

type memoryEntry struct {
	ids       []string
	expiresAt time.Time
}

// MemoryBackend is a bounded in-process LRU. Each entry keeps its own expiry,
// checked on read, so per-call TTLs work like they do on Redis.
type MemoryBackend struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

// NewMemoryBackend creates an LRU holding at most size keys.
func NewMemoryBackend(size int) (*MemoryBackend, error) {
	if size <= 0 {
		size = defaultMemorySize
	}
	entries, err := lru.New[string, memoryEntry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryBackend{entries: entries, now: time.Now}, nil
}

func (b *MemoryBackend) Get(_ context.Context, key string) ([]string, bool, error) {
	entry, ok := b.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && !b.now().Before(entry.expiresAt) {
		b.entries.Remove(key)
		return nil, false, nil
	}
	return append([]string(nil), entry.ids...), true, nil
}

func (b *MemoryBackend) Set(_ context.Context, key string, ids []string, ttl time.Duration) error {
	entry := memoryEntry{ids: append([]string{}, ids...)}
	if ttl > 0 {
		entry.expiresAt = b.now().Add(ttl)
	}
	b.entries.Add(key, entry)
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.entries.Remove(key)
	return nil
}

func (b *MemoryBackend) Close() error {
	b.entries.Purge()
	return nil
}

var _ Backend = (*MemoryBackend)(nil)
